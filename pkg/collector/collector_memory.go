package collector

import (
	"context"
	"fmt"

	"github.com/cirocosta/htmlcoin-exporter/pkg/metrics"
)

type MemoryCollector struct {
	client   Client
	registry *metrics.Registry
}

var _ Step = (*MemoryCollector)(nil)

func NewMemoryCollector(
	client Client, registry *metrics.Registry,
) *MemoryCollector {
	return &MemoryCollector{
		client:   client,
		registry: registry,
	}
}

func (c *MemoryCollector) Name() string {
	return "meminfo"
}

func (c *MemoryCollector) Collect(ctx context.Context) error {
	res, err := c.client.GetMemoryInfo(ctx)
	if err != nil {
		return fmt.Errorf("get memory info: %w", err)
	}

	locked := res.Locked

	c.registry.MemInfoUsed.Set(float64(locked.Used))
	c.registry.MemInfoFree.Set(float64(locked.Free))
	c.registry.MemInfoTotal.Set(float64(locked.Total))
	c.registry.MemInfoLocked.Set(float64(locked.Locked))
	c.registry.MemInfoChunksUsed.Set(float64(locked.ChunksUsed))
	c.registry.MemInfoChunksFree.Set(float64(locked.ChunksFree))

	return nil
}
