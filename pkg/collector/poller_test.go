package collector

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-logr/logr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePasser struct {
	calls   int32
	release chan struct{}
	err     error
}

func (p *fakePasser) Collect(_ context.Context) error {
	atomic.AddInt32(&p.calls, 1)

	if p.release != nil {
		<-p.release
	}

	return p.err
}

func (p *fakePasser) Calls() int32 {
	return atomic.LoadInt32(&p.calls)
}

func TestPoller_PollSkipsOverlappingPasses(t *testing.T) {
	passer := &fakePasser{release: make(chan struct{})}
	poller := NewPoller(passer, time.Hour, logr.Discard())

	done := make(chan bool)
	go func() { done <- poller.Poll(context.Background()) }()

	require.Eventually(t, func() bool { return passer.Calls() == 1 },
		time.Second, 5*time.Millisecond)

	assert.False(t, poller.Poll(context.Background()))
	assert.Equal(t, int32(1), passer.Calls())

	close(passer.release)
	assert.True(t, <-done)

	assert.True(t, poller.Poll(context.Background()))
	assert.Equal(t, int32(2), passer.Calls())
}

func TestPoller_FailedPassesDontStopIt(t *testing.T) {
	passer := &fakePasser{err: errors.New("node unreachable")}
	poller := NewPoller(passer, 10*time.Millisecond, logr.Discard())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errC := make(chan error, 1)
	go func() { errC <- poller.Run(ctx) }()

	require.Eventually(t, func() bool { return passer.Calls() >= 3 },
		time.Second, 5*time.Millisecond)

	cancel()

	select {
	case err := <-errC:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("poller didn't stop after cancellation")
	}
}

func TestPoller_RunsFirstPassImmediately(t *testing.T) {
	passer := &fakePasser{}
	poller := NewPoller(passer, time.Hour, logr.Discard())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errC := make(chan error, 1)
	go func() { errC <- poller.Run(ctx) }()

	require.Eventually(t, func() bool { return passer.Calls() == 1 },
		time.Second, 5*time.Millisecond)

	cancel()
	assert.NoError(t, <-errC)
}

func TestPoller_RejectsNonPositiveInterval(t *testing.T) {
	for _, interval := range []time.Duration{0, -time.Second} {
		passer := &fakePasser{}
		poller := NewPoller(passer, interval, logr.Discard())

		assert.Error(t, poller.Run(context.Background()))
		assert.Equal(t, int32(0), passer.Calls())
	}
}
