package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the citizen-registry Prometheus metrics. A nil *Metrics is
// valid and turns every observation into a no-op, which keeps tests quiet.
type Metrics struct {
	ImportsCreated  prometheus.Counter
	ReportCacheHits prometheus.Counter
	ReportsComputed prometheus.Counter
	LockWait        prometheus.Histogram
	ReportBuild     prometheus.Histogram
}

// New creates and registers all citizen-registry metrics.
func New() *Metrics {
	return &Metrics{
		ImportsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "census_imports_created_total",
			Help: "Total number of citizen imports accepted",
		}),
		ReportCacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Name: "census_report_cache_hits_total",
			Help: "Gift report requests served from the write-once cache",
		}),
		ReportsComputed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "census_reports_computed_total",
			Help: "Gift reports computed from raw citizen data",
		}),
		LockWait: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "census_lock_wait_seconds",
			Help:    "Time spent waiting for dataset leases",
			Buckets: []float64{.001, .005, .01, .05, .1, .5, 1, 2.5, 5, 10},
		}),
		ReportBuild: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "census_report_build_seconds",
			Help:    "Time spent folding citizens into a gift report",
			Buckets: []float64{.0001, .001, .01, .1, .5, 1, 5},
		}),
	}
}

// IncImportsCreated increments the accepted-imports counter.
func (m *Metrics) IncImportsCreated() {
	if m != nil {
		m.ImportsCreated.Inc()
	}
}

// IncReportCacheHits increments the cache-hit counter.
func (m *Metrics) IncReportCacheHits() {
	if m != nil {
		m.ReportCacheHits.Inc()
	}
}

// IncReportsComputed increments the computed-reports counter.
func (m *Metrics) IncReportsComputed() {
	if m != nil {
		m.ReportsComputed.Inc()
	}
}

// ObserveLockWait records time spent acquiring leases.
func (m *Metrics) ObserveLockWait(d time.Duration) {
	if m != nil {
		m.LockWait.Observe(d.Seconds())
	}
}

// ObserveReportBuild records the aggregation duration.
func (m *Metrics) ObserveReportBuild(d time.Duration) {
	if m != nil {
		m.ReportBuild.Observe(d.Seconds())
	}
}
