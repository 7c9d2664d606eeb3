package collector

import (
	"context"
	"fmt"
	"net"

	"github.com/go-logr/logr"

	"github.com/cirocosta/htmlcoin-exporter/pkg/metrics"
	"github.com/cirocosta/htmlcoin-exporter/pkg/rpc"
)

// DefaultBanReason labels bans for which the node gives no reason, which is
// the case for those added through `setban`.
//
const DefaultBanReason = "manually added"

// unknownCountry is used for addresses that can't be mapped to a country.
//
const unknownCountry = "unknown"

type BannedCollector struct {
	client        Client
	registry      *metrics.Registry
	countryMapper CountryMapper
	log           logr.Logger

	banned []rpc.BannedPeer
}

var _ Step = (*BannedCollector)(nil)

func NewBannedCollector(
	client Client,
	registry *metrics.Registry,
	countryMapper CountryMapper,
	log logr.Logger,
) *BannedCollector {
	return &BannedCollector{
		client:        client,
		registry:      registry,
		countryMapper: countryMapper,
		log:           log,
	}
}

func (c *BannedCollector) Name() string {
	return "banned"
}

func (c *BannedCollector) Collect(ctx context.Context) error {
	err := c.fetchData(ctx)
	if err != nil {
		return fmt.Errorf("fetch data: %w", err)
	}

	c.collectBans()
	c.collectBanDurations()
	c.collectCountries()

	return nil
}

func (c *BannedCollector) fetchData(ctx context.Context) error {
	banned, err := c.client.ListBanned(ctx)
	if err != nil {
		return fmt.Errorf("list banned: %w", err)
	}

	c.banned = banned

	return nil
}

func (c *BannedCollector) collectBans() {
	for _, peer := range c.banned {
		reason := DefaultBanReason
		if peer.BanReason != nil {
			reason = *peer.BanReason
		}

		c.registry.BanCreated.
			WithLabelValues(peer.Address, reason).
			Set(float64(peer.BanCreated))

		c.registry.BannedUntil.
			WithLabelValues(peer.Address, reason).
			Set(float64(peer.BannedUntil))
	}
}

func (c *BannedCollector) collectBanDurations() {
	durations := make([]float64, 0, len(c.banned))
	for _, peer := range c.banned {
		durations = append(durations,
			float64(peer.BannedUntil-peer.BanCreated))
	}

	c.registry.BanDurations.Observe(durations)
}

func (c *BannedCollector) collectCountries() {
	if c.countryMapper == nil {
		return
	}

	perCountry := map[string]int{}
	for _, peer := range c.banned {
		perCountry[c.country(peer.Address)]++
	}

	// unlike the per-address series, this is a count over the current
	// list: countries without bans anymore must go back to nothing.
	c.registry.BannedPeers.Reset()
	for country, count := range perCountry {
		c.registry.BannedPeers.WithLabelValues(country).Set(float64(count))
	}
}

func (c *BannedCollector) country(address string) string {
	ip := parseBannedAddress(address)
	if ip == nil {
		c.log.V(1).Info("unparseable banned address", "address", address)
		return unknownCountry
	}

	country, err := c.countryMapper(ip)
	if err != nil {
		c.log.V(1).Info("country mapping failed",
			"address", address, "err", err.Error())
		return unknownCountry
	}

	if country == "" {
		return unknownCountry
	}

	return country
}

// parseBannedAddress extracts the ip out of an entry of the ban list, which
// is a subnet (`10.0.0.0/24`) or, for old nodes, a bare ip.
//
func parseBannedAddress(address string) net.IP {
	if ip, _, err := net.ParseCIDR(address); err == nil {
		return ip
	}

	return net.ParseIP(address)
}
