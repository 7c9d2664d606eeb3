package collector

import (
	"context"
	"fmt"

	"github.com/cirocosta/htmlcoin-exporter/pkg/metrics"
)

type MempoolCollector struct {
	client   Client
	registry *metrics.Registry
}

var _ Step = (*MempoolCollector)(nil)

func NewMempoolCollector(
	client Client, registry *metrics.Registry,
) *MempoolCollector {
	return &MempoolCollector{
		client:   client,
		registry: registry,
	}
}

func (c *MempoolCollector) Name() string {
	return "mempool"
}

func (c *MempoolCollector) Collect(ctx context.Context) error {
	res, err := c.client.GetMempoolInfo(ctx)
	if err != nil {
		return fmt.Errorf("get mempool info: %w", err)
	}

	c.registry.MempoolBytes.Set(float64(res.Bytes))
	c.registry.MempoolSize.Set(float64(res.Size))
	c.registry.MempoolUsage.Set(float64(res.Usage))

	if res.UnbroadcastCount != nil {
		c.registry.MempoolUnbroadcast.Set(float64(*res.UnbroadcastCount))
	}

	return nil
}

// SmartFeeCollector reports the fee rate estimated for each of the
// configured confirmation targets.
//
type SmartFeeCollector struct {
	client   Client
	registry *metrics.Registry
	windows  []int
}

var _ Step = (*SmartFeeCollector)(nil)

func NewSmartFeeCollector(
	client Client, registry *metrics.Registry, windows []int,
) *SmartFeeCollector {
	return &SmartFeeCollector{
		client:   client,
		registry: registry,
		windows:  windows,
	}
}

func (c *SmartFeeCollector) Name() string {
	return "smartfee"
}

func (c *SmartFeeCollector) Collect(ctx context.Context) error {
	for _, window := range c.windows {
		res, err := c.client.EstimateSmartFee(ctx, window)
		if err != nil {
			return fmt.Errorf("estimate smart fee for %d blocks: %w",
				window, err)
		}

		// not enough data yet.
		if res.FeeRate == nil {
			continue
		}

		feeRate, _ := res.FeeRate.Float64()
		c.registry.SmartFee(window).Set(feeRate)
	}

	return nil
}
