package collector

import (
	"context"
	"fmt"

	"github.com/cirocosta/htmlcoin-exporter/pkg/metrics"
	"github.com/cirocosta/htmlcoin-exporter/pkg/rpc"
)

type NetworkCollector struct {
	client   Client
	registry *metrics.Registry

	info *rpc.NetworkInfo
}

var _ Step = (*NetworkCollector)(nil)

func NewNetworkCollector(
	client Client, registry *metrics.Registry,
) *NetworkCollector {
	return &NetworkCollector{
		client:   client,
		registry: registry,
	}
}

func (c *NetworkCollector) Name() string {
	return "network"
}

func (c *NetworkCollector) Collect(ctx context.Context) error {
	err := c.fetchData(ctx)
	if err != nil {
		return fmt.Errorf("fetch data: %w", err)
	}

	c.collectVersions()
	c.collectWarnings()
	c.collectConnections()

	return nil
}

func (c *NetworkCollector) fetchData(ctx context.Context) error {
	res, err := c.client.GetNetworkInfo(ctx)
	if err != nil {
		return fmt.Errorf("get network info: %w", err)
	}

	c.info = res

	return nil
}

func (c *NetworkCollector) collectVersions() {
	c.registry.ServerVersion.Set(float64(c.info.Version))
	c.registry.ProtocolVersion.Set(float64(c.info.ProtocolVersion))
}

// collectWarnings counts passes in which the node reported a warning, even
// if it's the same one as last time.
//
func (c *NetworkCollector) collectWarnings() {
	if c.info.Warnings.Any() {
		c.registry.Warnings.Inc()
	}
}

func (c *NetworkCollector) collectConnections() {
	c.registry.Connections.Set(float64(c.info.Connections))

	if c.info.ConnectionsIn != nil {
		c.registry.ConnectionsIn.Set(float64(*c.info.ConnectionsIn))
	}

	if c.info.ConnectionsOut != nil {
		c.registry.ConnectionsOut.Set(float64(*c.info.ConnectionsOut))
	}
}

// NetTotalsCollector mirrors the node's total traffic counters.
//
type NetTotalsCollector struct {
	client   Client
	registry *metrics.Registry
}

var _ Step = (*NetTotalsCollector)(nil)

func NewNetTotalsCollector(
	client Client, registry *metrics.Registry,
) *NetTotalsCollector {
	return &NetTotalsCollector{
		client:   client,
		registry: registry,
	}
}

func (c *NetTotalsCollector) Name() string {
	return "net"
}

func (c *NetTotalsCollector) Collect(ctx context.Context) error {
	res, err := c.client.GetNetTotals(ctx)
	if err != nil {
		return fmt.Errorf("get net totals: %w", err)
	}

	c.registry.TotalBytesRecv.Set(float64(res.TotalBytesRecv))
	c.registry.TotalBytesSent.Set(float64(res.TotalBytesSent))

	return nil
}
