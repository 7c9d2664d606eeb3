package exporter

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newGatherer(t *testing.T) *prometheus.Registry {
	t.Helper()

	reg := prometheus.NewRegistry()
	gauge := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "htmlcoin_blocks",
		Help: "The current number of blocks processed in the server",
	})
	reg.MustRegister(gauge)
	gauge.Set(812345)

	return reg
}

func TestExporter_Handler(t *testing.T) {
	e, err := New(
		WithGatherer(newGatherer(t)),
		WithTelemetryPath("/telemetry"),
	)
	require.NoError(t, err)

	server := httptest.NewServer(e.Handler())
	defer server.Close()

	resp, err := http.Get(server.URL + "/telemetry")
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "htmlcoin_blocks 812345")

	notFound, err := http.Get(server.URL + "/metrics")
	require.NoError(t, err)
	notFound.Body.Close()
	assert.Equal(t, http.StatusNotFound, notFound.StatusCode)
}

func TestExporter_Run(t *testing.T) {
	addr := freeAddress(t)

	e, err := New(
		WithGatherer(newGatherer(t)),
		WithBindAddress(addr),
	)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errC := make(chan error, 1)
	go func() { errC <- e.Run(ctx) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + addr + "/metrics")
		if err != nil {
			return false
		}
		resp.Body.Close()

		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 10*time.Millisecond)

	cancel()

	select {
	case err := <-errC:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("exporter didn't stop after cancellation")
	}

	assert.NoError(t, e.Close())
}

func TestExporter_RunFailsOnBusyAddress(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer listener.Close()

	e, err := New(WithBindAddress(listener.Addr().String()))
	require.NoError(t, err)

	err = e.Run(context.Background())
	assert.Error(t, err)
}

func freeAddress(t *testing.T) string {
	t.Helper()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer listener.Close()

	return listener.Addr().String()
}
