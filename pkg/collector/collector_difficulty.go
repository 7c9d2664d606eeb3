package collector

import (
	"context"
	"fmt"

	"github.com/cirocosta/htmlcoin-exporter/pkg/metrics"
)

type DifficultyCollector struct {
	client   Client
	registry *metrics.Registry
}

var _ Step = (*DifficultyCollector)(nil)

func NewDifficultyCollector(
	client Client, registry *metrics.Registry,
) *DifficultyCollector {
	return &DifficultyCollector{
		client:   client,
		registry: registry,
	}
}

func (c *DifficultyCollector) Name() string {
	return "difficulty"
}

func (c *DifficultyCollector) Collect(ctx context.Context) error {
	res, err := c.client.GetDifficulty(ctx)
	if err != nil {
		return fmt.Errorf("get difficulty: %w", err)
	}

	c.registry.Difficulty.Set(res.ProofOfStake)

	return nil
}

// HashPSCollector estimates the network hash rate for each of the configured
// block windows.
//
type HashPSCollector struct {
	client   Client
	registry *metrics.Registry
	windows  []int
}

var _ Step = (*HashPSCollector)(nil)

func NewHashPSCollector(
	client Client, registry *metrics.Registry, windows []int,
) *HashPSCollector {
	return &HashPSCollector{
		client:   client,
		registry: registry,
		windows:  windows,
	}
}

func (c *HashPSCollector) Name() string {
	return "hashps"
}

func (c *HashPSCollector) Collect(ctx context.Context) error {
	for _, window := range c.windows {
		hashps, err := c.client.GetNetworkHashPS(ctx, window)
		if err != nil {
			return fmt.Errorf("get network hashps for %d blocks: %w",
				window, err)
		}

		// unknown for this window: keep whatever we had before.
		if hashps == nil {
			continue
		}

		c.registry.HashPS(window).Set(*hashps)
	}

	return nil
}
