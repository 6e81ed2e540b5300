// Package metrics exposes the fetch scheduler's run counters as
// prometheus collectors, grounded on kraklabs/cie, aistore, and
// guygrigsby-trickster all carrying their own prometheus.Registry.
// Bogrep is not a server (spec.md §1 non-goals exclude an HTTP scrape
// endpoint), so these are read back in-process via (Counter).Write for
// the end-of-run textual report rather than served.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

// Recorder holds one run's fetch-outcome counters.
type Recorder struct {
	Registry *prometheus.Registry

	FetchedOK prometheus.Counter
	Failed    prometheus.Counter
	Skipped   prometheus.Counter
	Ignored   prometheus.Counter
	InFlight  prometheus.Gauge
}

// New builds a Recorder registered against a fresh registry.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	r := &Recorder{
		Registry: reg,
		FetchedOK: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bogrep_fetch_ok_total",
			Help: "Bookmarks fetched and cached successfully.",
		}),
		Failed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bogrep_fetch_failed_total",
			Help: "Bookmarks whose fetch failed.",
		}),
		Skipped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bogrep_fetch_skipped_total",
			Help: "Bookmarks skipped (already cached, action None).",
		}),
		Ignored: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bogrep_fetch_ignored_total",
			Help: "Bookmarks on the ignore list, cache purged.",
		}),
		InFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "bogrep_fetch_in_flight",
			Help: "Fetches currently executing.",
		}),
	}
	reg.MustRegister(r.FetchedOK, r.Failed, r.Skipped, r.Ignored, r.InFlight)
	return r
}

// counterValue reads a Counter's current value back out, since Counter
// itself exposes no getter.
func counterValue(c prometheus.Counter) float64 {
	var m dto.Metric
	if err := c.Write(&m); err != nil {
		return 0
	}
	return m.GetCounter().GetValue()
}

// Snapshot is a point-in-time read of every counter, for the end-of-run
// textual report.
type Snapshot struct {
	FetchedOK int
	Failed    int
	Skipped   int
	Ignored   int
}

// Snapshot reads back the current counter values.
func (r *Recorder) Snapshot() Snapshot {
	return Snapshot{
		FetchedOK: int(counterValue(r.FetchedOK)),
		Failed:    int(counterValue(r.Failed)),
		Skipped:   int(counterValue(r.Skipped)),
		Ignored:   int(counterValue(r.Ignored)),
	}
}
