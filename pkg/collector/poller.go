package collector

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-logr/logr"
)

// Passer is anything that can perform a collection pass.
//
type Passer interface {
	Collect(ctx context.Context) error
}

// Poller runs a collection pass at a fixed interval.
//
// At most one pass is in flight at any time: a tick that fires while the
// previous pass is still going is skipped.
//
type Poller struct {
	passer   Passer
	interval time.Duration
	log      logr.Logger

	mu sync.Mutex
	wg sync.WaitGroup
}

func NewPoller(passer Passer, interval time.Duration, log logr.Logger) *Poller {
	return &Poller{
		passer:   passer,
		interval: interval,
		log:      log.WithName("poller"),
	}
}

// Run performs a first pass right away and then one every interval, until
// `ctx` is cancelled. Failed passes are logged, never returned: the next
// tick is the retry.
//
// ps.: this is a BLOCKING method.
//
func (p *Poller) Run(ctx context.Context) error {
	if p.interval <= 0 {
		return fmt.Errorf("non-positive poll interval %s", p.interval)
	}

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	defer p.wg.Wait()

	p.start(ctx)

	p.log.WithValues("interval", p.interval.String()).Info("polling")

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			p.start(ctx)
		}
	}
}

func (p *Poller) start(ctx context.Context) {
	p.wg.Add(1)

	go func() {
		defer p.wg.Done()

		if !p.Poll(ctx) {
			p.log.Info("previous pass still in flight, skipping")
		}
	}()
}

// Poll performs a pass unless one is already running, in which case it
// returns false right away.
//
func (p *Poller) Poll(ctx context.Context) bool {
	if !p.mu.TryLock() {
		return false
	}
	defer p.mu.Unlock()

	if err := p.passer.Collect(ctx); err != nil {
		p.log.Error(err, "collection pass failed")
	}

	return true
}
