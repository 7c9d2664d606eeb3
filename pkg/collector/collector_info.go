package collector

import (
	"context"
	"fmt"

	"github.com/cirocosta/htmlcoin-exporter/pkg/metrics"
)

// BlockchainCollector reports the overall state of the chain, also keeping
// track of the best block hash for LatestBlockCollector to use.
//
type BlockchainCollector struct {
	client   Client
	registry *metrics.Registry

	bestBlockHash string
}

var _ Step = (*BlockchainCollector)(nil)

func NewBlockchainCollector(
	client Client, registry *metrics.Registry,
) *BlockchainCollector {
	return &BlockchainCollector{
		client:   client,
		registry: registry,
	}
}

func (c *BlockchainCollector) Name() string {
	return "blockchain"
}

func (c *BlockchainCollector) Collect(ctx context.Context) error {
	res, err := c.client.GetBlockchainInfo(ctx)
	if err != nil {
		return fmt.Errorf("get blockchain info: %w", err)
	}

	c.registry.Blocks.Set(float64(res.Blocks))
	c.registry.SizeOnDisk.Set(float64(res.SizeOnDisk))
	c.registry.VerificationProgress.Set(res.VerificationProgress)

	c.bestBlockHash = res.BestBlockHash

	return nil
}

// BestBlockHash is empty until Collect succeeded.
//
func (c *BlockchainCollector) BestBlockHash() string {
	return c.bestBlockHash
}

type ChainTxStatsCollector struct {
	client   Client
	registry *metrics.Registry
}

var _ Step = (*ChainTxStatsCollector)(nil)

func NewChainTxStatsCollector(
	client Client, registry *metrics.Registry,
) *ChainTxStatsCollector {
	return &ChainTxStatsCollector{
		client:   client,
		registry: registry,
	}
}

func (c *ChainTxStatsCollector) Name() string {
	return "chaintxstats"
}

func (c *ChainTxStatsCollector) Collect(ctx context.Context) error {
	res, err := c.client.GetChainTxStats(ctx)
	if err != nil {
		return fmt.Errorf("get chain tx stats: %w", err)
	}

	c.registry.TxCount.Set(float64(res.TxCount))

	return nil
}

type ChainTipsCollector struct {
	client   Client
	registry *metrics.Registry
}

var _ Step = (*ChainTipsCollector)(nil)

func NewChainTipsCollector(
	client Client, registry *metrics.Registry,
) *ChainTipsCollector {
	return &ChainTipsCollector{
		client:   client,
		registry: registry,
	}
}

func (c *ChainTipsCollector) Name() string {
	return "chaintips"
}

func (c *ChainTipsCollector) Collect(ctx context.Context) error {
	tips, err := c.client.GetChainTips(ctx)
	if err != nil {
		return fmt.Errorf("get chain tips: %w", err)
	}

	c.registry.NumChainTips.Set(float64(len(tips)))

	return nil
}

type UptimeCollector struct {
	client   Client
	registry *metrics.Registry
}

var _ Step = (*UptimeCollector)(nil)

func NewUptimeCollector(
	client Client, registry *metrics.Registry,
) *UptimeCollector {
	return &UptimeCollector{
		client:   client,
		registry: registry,
	}
}

func (c *UptimeCollector) Name() string {
	return "uptime"
}

func (c *UptimeCollector) Collect(ctx context.Context) error {
	uptime, err := c.client.Uptime(ctx)
	if err != nil {
		return fmt.Errorf("uptime: %w", err)
	}

	c.registry.Uptime.Set(float64(uptime))

	return nil
}
