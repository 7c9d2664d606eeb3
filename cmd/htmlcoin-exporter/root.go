package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"github.com/oschwald/geoip2-golang"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	"github.com/cirocosta/htmlcoin-exporter/pkg/collector"
	"github.com/cirocosta/htmlcoin-exporter/pkg/config"
	"github.com/cirocosta/htmlcoin-exporter/pkg/exporter"
	"github.com/cirocosta/htmlcoin-exporter/pkg/metrics"
	"github.com/cirocosta/htmlcoin-exporter/pkg/rpc"
)

type command struct {
	v *viper.Viper
}

func (c *command) Cmd() *cobra.Command {
	c.v = config.New()

	cmd := &cobra.Command{
		Use:   "htmlcoin-exporter",
		Short: "Prometheus exporter for htmlcoin metrics",
		Long: "Prometheus exporter for htmlcoin metrics.\n\n" +
			"The node to collect from and the address to serve metrics " +
			"on are configured through the environment (" +
			config.KeyRPCHost + ", " + config.KeyRPCPort + ", " +
			config.KeyMetricsPort + ", ...).",
		SilenceUsage: true,
		RunE:         c.RunE,
	}

	cmd.Flags().String("telemetry-path",
		"/metrics", "endpoint at which prometheus metrics are served")

	cmd.Flags().String("geoip-filepath",
		"", "filepath of a geoip database file for ip to country "+
			"resolution of banned peers")
	_ = cmd.MarkFlagFilename("geoip-filepath")

	_ = c.v.BindPFlag(config.KeyTelemetryPath, cmd.Flags().Lookup("telemetry-path"))
	_ = c.v.BindPFlag(config.KeyGeoIPFilepath, cmd.Flags().Lookup("geoip-filepath"))

	return cmd
}

func (c *command) RunE(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load(c.v)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, flush, err := newLogger(cfg.LoggingLevel)
	if err != nil {
		return fmt.Errorf("new logger: %w", err)
	}
	defer flush()

	ctx, cancel := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer cancel()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	collectorOpts := []collector.Option{
		collector.WithLogger(log.WithName("collector")),
		collector.WithHashPSBlocks(cfg.HashPSBlocks),
		collector.WithSmartFeeBlocks(cfg.SmartFeeBlocks),
	}

	if cfg.GeoIPFilepath != "" {
		db, err := geoip2.Open(cfg.GeoIPFilepath)
		if err != nil {
			return fmt.Errorf("geoip open: %w", err)
		}
		defer db.Close()

		countryMapper := func(ip net.IP) (string, error) {
			res, err := db.Country(ip)
			if err != nil {
				return "", fmt.Errorf(
					"country '%s': %w", ip, err,
				)
			}

			return res.RegisteredCountry.IsoCode, nil
		}

		collectorOpts = append(collectorOpts,
			collector.WithCountryMapper(countryMapper),
		)
	}

	dial := collector.DialRPC(rpc.Options{
		URL:      cfg.RPCURL(),
		User:     cfg.RPCUser,
		Password: cfg.RPCPassword,
		Timeout:  cfg.Timeout,
		Log:      log,
	})

	htmlcoinCollector := collector.New(dial, metrics.NewRegistry(reg),
		collectorOpts...)

	prometheusExporter, err := exporter.New(
		exporter.WithBindAddress(cfg.MetricsListenAddress()),
		exporter.WithTelemetryPath(cfg.TelemetryPath),
		exporter.WithGatherer(reg),
		exporter.WithLogger(log),
	)
	if err != nil {
		return fmt.Errorf("new exporter: %w", err)
	}
	defer prometheusExporter.Close()

	log.WithValues("rpc", cfg.RPCURL()).Info("starting")

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := prometheusExporter.Run(ctx); err != nil {
			return fmt.Errorf("prometheus exporter run: %w", err)
		}

		return nil
	})

	g.Go(func() error {
		return collector.NewPoller(htmlcoinCollector, cfg.Refresh, log).
			Run(ctx)
	})

	err = g.Wait()
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	return nil
}

// newLogger builds a production zap logger at `level`, handed out as a
// logr.Logger. The returned func flushes buffered entries.
//
func newLogger(level zapcore.Level) (logr.Logger, func(), error) {
	zapConfig := zap.NewProductionConfig()
	zapConfig.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	zapConfig.Level = zap.NewAtomicLevelAt(level)

	zapLogger, err := zapConfig.Build()
	if err != nil {
		return logr.Discard(), nil, fmt.Errorf("zap build: %w", err)
	}

	flush := func() {
		_ = zapLogger.Sync()
	}

	return zapr.NewLogger(zapLogger), flush, nil
}
