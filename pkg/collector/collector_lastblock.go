package collector

import (
	"context"
	"fmt"

	"github.com/cirocosta/htmlcoin-exporter/pkg/metrics"
	"github.com/cirocosta/htmlcoin-exporter/pkg/rpc"
)

// LatestBlockCollector reports statistics about the block that
// BlockchainCollector saw as the tip of the chain.
//
type LatestBlockCollector struct {
	client   Client
	registry *metrics.Registry
	chain    *BlockchainCollector

	stats *rpc.BlockStats
}

var _ Step = (*LatestBlockCollector)(nil)

func NewLatestBlockCollector(
	client Client, registry *metrics.Registry, chain *BlockchainCollector,
) *LatestBlockCollector {
	return &LatestBlockCollector{
		client:   client,
		registry: registry,
		chain:    chain,
	}
}

func (c *LatestBlockCollector) Name() string {
	return "lastblock"
}

func (c *LatestBlockCollector) Collect(ctx context.Context) error {
	err := c.fetchData(ctx)
	if err != nil {
		return fmt.Errorf("fetch last block data: %w", err)
	}

	// e.g., the node pruned it.
	if c.stats == nil {
		return nil
	}

	c.collectSizes()
	c.collectTransactions()
	c.collectAmounts()

	return nil
}

func (c *LatestBlockCollector) fetchData(ctx context.Context) error {
	hash := c.chain.BestBlockHash()
	if hash == "" {
		return &rpc.MissingFieldError{
			Method: "getblockchaininfo",
			Field:  "bestblockhash",
		}
	}

	stats, err := c.client.GetBlockStats(ctx, hash)
	if err != nil {
		return fmt.Errorf("get block stats '%s': %w", hash, err)
	}

	c.stats = stats

	return nil
}

func (c *LatestBlockCollector) collectSizes() {
	c.registry.LatestBlockSize.Set(float64(c.stats.TotalSize))
	c.registry.LatestBlockWeight.Set(float64(c.stats.TotalWeight))
	c.registry.LatestBlockHeight.Set(float64(c.stats.Height))
}

func (c *LatestBlockCollector) collectTransactions() {
	c.registry.LatestBlockTxs.Set(float64(c.stats.Txs))
	c.registry.LatestBlockInputs.Set(float64(c.stats.Ins))
	c.registry.LatestBlockOutputs.Set(float64(c.stats.Outs))
}

func (c *LatestBlockCollector) collectAmounts() {
	c.registry.LatestBlockValue.Set(metrics.Coins(c.stats.TotalOut))
	c.registry.LatestBlockFee.Set(metrics.Coins(c.stats.TotalFee))
}
