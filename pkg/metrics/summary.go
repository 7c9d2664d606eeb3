package metrics

import (
	"sync"

	"github.com/beorn7/perks/quantile"
	"github.com/prometheus/client_golang/prometheus"
)

// defaultQuantiles is the default quantiles to compute for a given data stream
// that we want to summarize (quantile -> epsilon).
//
var defaultQuantiles = map[float64]float64{
	0.05: 0.01,
	0.25: 0.01,
	0.50: 0.01,
	0.75: 0.01,
	0.95: 0.01,
	1.00: 0.01,
}

// Summary computes count, sum and quantiles over a finite set of
// observations.
//
type Summary struct {
	count     uint64
	sum       float64
	targets   map[float64]float64
	quantiles map[float64]float64

	stream   *quantile.Stream
	computed bool
}

type SummaryOption func(s *Summary)

func WithQuantiles(v map[float64]float64) SummaryOption {
	return func(s *Summary) {
		s.targets = v
	}
}

func NewSummary(opts ...SummaryOption) *Summary {
	summary := &Summary{
		targets: cloneMap(defaultQuantiles),
	}

	for _, opt := range opts {
		opt(summary)
	}

	summary.stream = quantile.NewTargeted(summary.targets)

	return summary
}

func (s *Summary) Insert(v float64) {
	s.sum += v
	s.stream.Insert(v)
	s.count++
	s.computed = false
}

func (s *Summary) Count() uint64 {
	return s.count
}

func (s *Summary) Sum() float64 {
	return s.sum
}

// Quantiles is empty when nothing has been inserted.
//
func (s *Summary) Quantiles() map[float64]float64 {
	s.compute()
	return s.quantiles
}

func (s *Summary) compute() {
	if s.computed {
		return
	}

	s.quantiles = make(map[float64]float64, len(s.targets))
	if s.count > 0 {
		for phi := range s.targets {
			s.quantiles[phi] = s.stream.Query(phi)
		}
	}

	s.computed = true
}

func cloneMap(o map[float64]float64) map[float64]float64 {
	m := make(map[float64]float64, len(o))
	for k, v := range o {
		m[k] = v
	}

	return m
}

// BanDurations exposes the distribution of ban lengths (expiry minus
// creation) over the peers of the most recently observed ban list.
//
type BanDurations struct {
	desc *prometheus.Desc

	mu      sync.Mutex
	summary *Summary
}

var _ prometheus.Collector = (*BanDurations)(nil)

func NewBanDurations() *BanDurations {
	return &BanDurations{
		desc: prometheus.NewDesc(
			"htmlcoin_ban_duration_seconds",
			"Distribution of the length of the bans currently in place",
			nil, nil,
		),
		summary: NewSummary(),
	}
}

// Observe replaces the current distribution by the one of `seconds`.
//
func (b *BanDurations) Observe(seconds []float64) {
	summary := NewSummary()
	for _, v := range seconds {
		summary.Insert(v)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.summary = summary
}

func (b *BanDurations) Describe(ch chan<- *prometheus.Desc) {
	ch <- b.desc
}

func (b *BanDurations) Collect(ch chan<- prometheus.Metric) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch <- prometheus.MustNewConstSummary(
		b.desc,
		b.summary.Count(), b.summary.Sum(), b.summary.Quantiles(),
	)
}
