package metrics

import (
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWindowSuffix(t *testing.T) {
	tests := []struct {
		window int
		want   string
	}{
		{window: -1, want: "_neg1"},
		{window: -12, want: "_neg12"},
		{window: 120, want: ""},
		{window: 7, want: "_7"},
		{window: 1, want: "_1"},
		{window: 0, want: "_0"},
	}

	for _, tc := range tests {
		assert.Equal(t, tc.want, WindowSuffix(tc.window), "window %d", tc.window)
	}
}

func TestNewRegistry_DuplicatePanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewRegistry(reg)

	assert.Panics(t, func() { NewRegistry(reg) })
}

func TestRegistry_HashPS(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := NewRegistry(reg)

	for _, window := range []int{-1, 1, 120} {
		first := r.HashPS(window)
		second := r.HashPS(window)
		assert.Same(t, first, second, "window %d", window)
	}
	assert.Equal(t, 3, r.hashPS.Len())

	assert.Contains(t, r.HashPS(-1).Desc().String(), `"htmlcoin_hash_ps_neg1"`)
	assert.Contains(t, r.HashPS(-1).Desc().String(), "since the last difficulty change")
	assert.Contains(t, r.HashPS(120).Desc().String(), `"htmlcoin_hash_ps"`)
	assert.Contains(t, r.HashPS(7).Desc().String(), `"htmlcoin_hash_ps_7"`)
	assert.Contains(t, r.HashPS(7).Desc().String(), "for the last 7 blocks")
}

func TestRegistry_SmartFee(t *testing.T) {
	r := NewRegistry(prometheus.NewRegistry())

	assert.Same(t, r.SmartFee(2), r.SmartFee(2))
	assert.Contains(t, r.SmartFee(2).Desc().String(), `"htmlcoin_estimate_smart_fee_2"`)
	assert.Contains(t, r.SmartFee(120).Desc().String(), `"htmlcoin_estimate_smart_fee_120"`)
	assert.Contains(t, r.SmartFee(-3).Desc().String(), `"htmlcoin_estimate_smart_fee_neg3"`)
}

func TestWindowedFamily_ConcurrentFirstUse(t *testing.T) {
	reg := prometheus.NewRegistry()
	family := NewWindowedFamily(reg, hashPSName, hashPSHelp)

	var (
		wg     sync.WaitGroup
		gauges = make([]prometheus.Gauge, 16)
	)

	for i := range gauges {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			gauges[i] = family.Get(5)
		}(i)
	}
	wg.Wait()

	for _, g := range gauges {
		assert.Same(t, gauges[0], g)
	}
	assert.Equal(t, 1, family.Len())
}

func TestRegistry_BanLabelsAreStable(t *testing.T) {
	r := NewRegistry(prometheus.NewRegistry())

	for i := 0; i < 2; i++ {
		r.BanCreated.WithLabelValues("10.0.0.1/32", "manually added").Set(100)
		r.BanCreated.WithLabelValues("10.0.0.2/32", "manually added").Set(200)
	}

	assert.Equal(t, 2, testutil.CollectAndCount(r.BanCreated))
}

func TestAmount(t *testing.T) {
	got := Amount(123456789)

	assert.True(t, decimal.RequireFromString("1.23456789").Equal(got), got.String())
	assert.Equal(t, "1.23456789", got.String())
	assert.Equal(t, 1.23456789, Coins(123456789))

	assert.Equal(t, "0.00000001", Amount(1).StringFixed(CoinExponent))
	assert.Equal(t, "21000000", Amount(2_100_000_000_000_000).String())
}

func TestBanDurations(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := NewRegistry(reg)

	r.BanDurations.Observe([]float64{100, 200, 300})

	summary := gatherSummary(t, reg, "htmlcoin_ban_duration_seconds")
	assert.Equal(t, uint64(3), summary.GetSampleCount())
	assert.Equal(t, float64(600), summary.GetSampleSum())
	assert.Len(t, summary.GetQuantile(), len(defaultQuantiles))
	for _, q := range summary.GetQuantile() {
		assert.GreaterOrEqual(t, q.GetValue(), float64(100))
		assert.LessOrEqual(t, q.GetValue(), float64(300))
	}

	r.BanDurations.Observe(nil)

	summary = gatherSummary(t, reg, "htmlcoin_ban_duration_seconds")
	assert.Equal(t, uint64(0), summary.GetSampleCount())
	assert.Empty(t, summary.GetQuantile())
}

func TestSummary(t *testing.T) {
	summary := NewSummary(WithQuantiles(map[float64]float64{0.5: 0.01}))
	assert.Empty(t, summary.Quantiles())

	for _, v := range []float64{1, 2, 3, 4, 5} {
		summary.Insert(v)
	}

	assert.Equal(t, uint64(5), summary.Count())
	assert.Equal(t, float64(15), summary.Sum())

	quantiles := summary.Quantiles()
	require.Contains(t, quantiles, 0.5)
	assert.InDelta(t, 3, quantiles[0.5], 1)
}

func gatherSummary(t *testing.T, g prometheus.Gatherer, name string) *dto.Summary {
	t.Helper()

	families, err := g.Gather()
	require.NoError(t, err)

	for _, family := range families {
		if family.GetName() != name {
			continue
		}

		require.Len(t, family.GetMetric(), 1)
		return family.GetMetric()[0].GetSummary()
	}

	t.Fatalf("metric %s not gathered", name)
	return nil
}
