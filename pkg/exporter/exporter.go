package exporter

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-logr/logr"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Exporter is responsible for bringing up a web server that serves the
// metrics of a prometheus gatherer (e.g., the registry `pkg/metrics`
// declares its instruments against).
//
type Exporter struct {
	// ListenAddress is the full address used by prometheus
	// to listen for scraping requests.
	//
	// Examples:
	// - :6363
	// - 127.0.0.2:1313
	//
	listenAddress string

	// TelemetryPath configures the path under which
	// the prometheus metrics are reported.
	//
	// For instance:
	// - /metrics
	// - /telemetry
	//
	telemetryPath string

	gatherer prometheus.Gatherer

	// listener is the TCP listener used by the webserver. `nil` if no
	// server is running.
	//
	listener net.Listener

	log logr.Logger
}

// Option.
//
type Option func(e *Exporter)

func WithBindAddress(v string) Option {
	return func(e *Exporter) {
		e.listenAddress = v
	}
}

func WithTelemetryPath(v string) Option {
	return func(e *Exporter) {
		e.telemetryPath = v
	}
}

// WithGatherer overrides the default of serving prometheus' global
// registry.
//
func WithGatherer(v prometheus.Gatherer) Option {
	return func(e *Exporter) {
		e.gatherer = v
	}
}

func WithLogger(v logr.Logger) Option {
	return func(e *Exporter) {
		e.log = v
	}
}

// New.
//
func New(opts ...Option) (*Exporter, error) {
	e := &Exporter{
		listenAddress: ":6363",
		telemetryPath: "/metrics",
		gatherer:      prometheus.DefaultGatherer,
		log:           logr.Discard(),
	}

	for _, opt := range opts {
		opt(e)
	}

	e.log = e.log.WithName("exporter")

	return e, nil
}

// Handler is the http handler serving the metrics under the telemetry path.
//
func (e *Exporter) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle(e.telemetryPath, promhttp.HandlerFor(e.gatherer, promhttp.HandlerOpts{
		ErrorLog: promhttpLogger{e.log},
	}))

	return mux
}

// Run initiates the HTTP server to serve the metrics.
//
// ps.: this is a BLOCKING method - make sure you either make use of goroutines
// to not block if needed.
//
func (e *Exporter) Run(ctx context.Context) error {
	var err error

	e.listener, err = net.Listen("tcp", e.listenAddress)
	if err != nil {
		return fmt.Errorf("listen on '%s': %w", e.listenAddress, err)
	}

	server := &http.Server{
		Handler:           e.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	doneChan := make(chan error, 1)

	go func() {
		defer close(doneChan)

		e.log.WithValues(
			"addr", e.listener.Addr().String(),
			"path", e.telemetryPath,
		).Info("listening")

		err := server.Serve(e.listener)
		if err != nil && !errors.Is(err, http.ErrServerClosed) &&
			!errors.Is(err, net.ErrClosed) {
			doneChan <- fmt.Errorf(
				"failed listening on address %s: %w",
				e.listenAddress, err,
			)
		}
	}()

	select {
	case err = <-doneChan:
		if err != nil {
			return fmt.Errorf("donechan err: %w", err)
		}
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(
			context.Background(), 5*time.Second)
		defer cancel()

		_ = server.Shutdown(shutdownCtx)

		return fmt.Errorf("ctx err: %w", ctx.Err())
	}

	return nil
}

// Addr is the address the server is listening on, `nil` if not running.
//
func (e *Exporter) Addr() net.Addr {
	if e.listener == nil {
		return nil
	}

	return e.listener.Addr()
}

// Close gracefully closes the tcp listener associated with it.
//
func (e *Exporter) Close() (err error) {
	if e.listener == nil {
		return nil
	}

	e.log.Info("closing")
	if err := e.listener.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
		return fmt.Errorf("close: %w", err)
	}

	return nil
}

// promhttpLogger adapts logr to the Println-style logger promhttp reports
// its errors through.
//
type promhttpLogger struct {
	log logr.Logger
}

func (l promhttpLogger) Println(v ...interface{}) {
	l.log.Error(fmt.Errorf("%s", fmt.Sprint(v...)), "promhttp")
}
