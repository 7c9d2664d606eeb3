package collector

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/go-logr/logr"

	"github.com/cirocosta/htmlcoin-exporter/pkg/metrics"
	"github.com/cirocosta/htmlcoin-exporter/pkg/rpc"
)

// CountryMapper defines the signature of a function that given an IP,
// translates it into a country name.
//
//	f(ip) -> CN
//
type CountryMapper func(net.IP) (string, error)

// Client is the set of read-only node calls a collection pass makes. It's
// satisfied by *rpc.Client.
//
type Client interface {
	GetDifficulty(ctx context.Context) (*rpc.Difficulty, error)
	GetNetworkHashPS(ctx context.Context, blocks int) (*float64, error)
	GetMemoryInfo(ctx context.Context) (*rpc.MemoryInfo, error)
	GetBlockchainInfo(ctx context.Context) (*rpc.BlockchainInfo, error)
	GetBlockStats(ctx context.Context, hash string) (*rpc.BlockStats, error)
	ListBanned(ctx context.Context) ([]rpc.BannedPeer, error)
	GetNetworkInfo(ctx context.Context) (*rpc.NetworkInfo, error)
	GetChainTxStats(ctx context.Context) (*rpc.ChainTxStats, error)
	GetMempoolInfo(ctx context.Context) (*rpc.MempoolInfo, error)
	GetChainTips(ctx context.Context) ([]rpc.ChainTip, error)
	EstimateSmartFee(ctx context.Context, blocks int) (*rpc.SmartFee, error)
	GetNetTotals(ctx context.Context) (*rpc.NetTotals, error)
	Uptime(ctx context.Context) (int64, error)
	Close() error
}

var _ Client = (*rpc.Client)(nil)

// DialFunc opens the connection used throughout a single pass.
//
type DialFunc func() (Client, error)

// DialRPC is a DialFunc that connects to a node through pkg/rpc.
//
func DialRPC(opts rpc.Options) DialFunc {
	return func() (Client, error) {
		client, err := rpc.Dial(opts)
		if err != nil {
			return nil, err
		}

		return client, nil
	}
}

// Step is one fetch-and-set unit of a collection pass.
//
type Step interface {
	Name() string
	Collect(ctx context.Context) error
}

// Collector copies what a node reports into the instruments of a
// metrics.Registry, one pass at a time.
//
type Collector struct {
	dial     DialFunc
	registry *metrics.Registry

	// hashPSBlocks and smartFeeBlocks are the block windows for which
	// hash rates and fee estimates are requested.
	//
	hashPSBlocks   []int
	smartFeeBlocks []int

	// countryMapper is a function that knows how to translate IPs to
	// country codes.
	//
	// optional: if nil, no country-mapping will take place.
	//
	countryMapper CountryMapper

	log logr.Logger
}

// Option is a type used by functional arguments to mutate the collector to
// override default behavior.
//
type Option func(c *Collector)

// WithCountryMapper makes the collector count banned peers per country.
//
func WithCountryMapper(v CountryMapper) Option {
	return func(c *Collector) {
		c.countryMapper = v
	}
}

func WithLogger(v logr.Logger) Option {
	return func(c *Collector) {
		c.log = v
	}
}

// WithHashPSBlocks overrides the block windows for hash rate estimates
// (defaults to -1, 1 and 120).
//
func WithHashPSBlocks(v []int) Option {
	return func(c *Collector) {
		c.hashPSBlocks = v
	}
}

// WithSmartFeeBlocks overrides the confirmation targets for fee estimates
// (defaults to 2, 3, 5 and 20).
//
func WithSmartFeeBlocks(v []int) Option {
	return func(c *Collector) {
		c.smartFeeBlocks = v
	}
}

func New(dial DialFunc, registry *metrics.Registry, opts ...Option) *Collector {
	c := &Collector{
		dial:           dial,
		registry:       registry,
		hashPSBlocks:   []int{-1, 1, metrics.PrimaryWindow},
		smartFeeBlocks: []int{2, 3, 5, 20},
		log:            logr.Discard(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Collect performs a full collection pass.
//
// Steps are executed in order against a single connection, closed once the
// pass is over. The first failing step aborts the pass: what previous steps
// already wrote is left in place, and the pass' error is counted under its
// type unless `ctx` was cancelled.
//
func (c *Collector) Collect(ctx context.Context) (err error) {
	start := time.Now()

	defer func() {
		c.registry.ProcessTime.Add(time.Since(start).Seconds())

		// a pass interrupted by shutdown says nothing about the node.
		if err != nil && ctx.Err() != nil {
			return
		}

		if err != nil {
			c.registry.ExporterErrors.
				WithLabelValues(rpc.ErrorType(err)).
				Inc()
			return
		}

		c.registry.LastSuccessTimestamp.SetToCurrentTime()
	}()

	client, err := c.dial()
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer client.Close()

	for _, step := range c.steps(client) {
		if err := step.Collect(ctx); err != nil {
			return fmt.Errorf("%s collect: %w", step.Name(), err)
		}
	}

	c.log.V(1).Info("collected", "took", time.Since(start).String())

	return nil
}

func (c *Collector) steps(client Client) []Step {
	blockchain := NewBlockchainCollector(client, c.registry)

	return []Step{
		NewDifficultyCollector(client, c.registry),
		NewHashPSCollector(client, c.registry, c.hashPSBlocks),
		NewMemoryCollector(client, c.registry),
		blockchain,
		NewLatestBlockCollector(client, c.registry, blockchain),
		NewBannedCollector(client, c.registry, c.countryMapper, c.log),
		NewNetworkCollector(client, c.registry),
		NewChainTxStatsCollector(client, c.registry),
		NewMempoolCollector(client, c.registry),
		NewChainTipsCollector(client, c.registry),
		NewSmartFeeCollector(client, c.registry, c.smartFeeBlocks),
		NewNetTotalsCollector(client, c.registry),
		NewUptimeCollector(client, c.registry),
	}
}
