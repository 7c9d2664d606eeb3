package metrics

import (
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// PrimaryWindow is the block window whose hash rate series carries no
// suffix at all.
//
const PrimaryWindow = 120

// WindowedFamily lazily creates one gauge per block window, registering it
// the first time that window is asked for.
//
type WindowedFamily struct {
	registerer prometheus.Registerer
	name       func(window int) string
	help       func(window int) string

	mu     sync.Mutex
	gauges map[int]prometheus.Gauge
}

func NewWindowedFamily(
	registerer prometheus.Registerer,
	name, help func(window int) string,
) *WindowedFamily {
	return &WindowedFamily{
		registerer: registerer,
		name:       name,
		help:       help,
		gauges:     map[int]prometheus.Gauge{},
	}
}

// Get returns the gauge for `window`, creating and registering it if this is
// the first time it's requested. It's safe for concurrent use: two callers
// asking for the same window always get the same gauge.
//
func (f *WindowedFamily) Get(window int) prometheus.Gauge {
	f.mu.Lock()
	defer f.mu.Unlock()

	if gauge, found := f.gauges[window]; found {
		return gauge
	}

	gauge := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: f.name(window),
		Help: f.help(window),
	})
	f.registerer.MustRegister(gauge)
	f.gauges[window] = gauge

	return gauge
}

// Len is the number of gauges created so far.
//
func (f *WindowedFamily) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return len(f.gauges)
}

// WindowSuffix derives the metric name suffix for a block window:
//
//	-N  -> _negN
//	120 -> (none)
//	N   -> _N
//
func WindowSuffix(window int) string {
	switch {
	case window < 0:
		return fmt.Sprintf("_neg%d", -window)
	case window == PrimaryWindow:
		return ""
	}

	return fmt.Sprintf("_%d", window)
}

func hashPSName(window int) string {
	return "htmlcoin_hash_ps" + WindowSuffix(window)
}

func hashPSHelp(window int) string {
	if window == -1 {
		return "Estimated network hash rate per second since the last difficulty change"
	}

	return fmt.Sprintf("Estimated network hash rate per second for the last %d blocks", window)
}

func smartFeeName(window int) string {
	if window < 0 {
		return fmt.Sprintf("htmlcoin_estimate_smart_fee_neg%d", -window)
	}

	return fmt.Sprintf("htmlcoin_estimate_smart_fee_%d", window)
}

func smartFeeHelp(window int) string {
	return fmt.Sprintf("Estimated smart fee per kilobyte for confirmation in %d blocks", window)
}
