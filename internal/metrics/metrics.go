// Package metrics exports run statistics in the Prometheus text format.
// A batch run writes them once at the end for the node exporter's
// textfile collector.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/abelbrown/moyu/internal/aggregate"
	"github.com/abelbrown/moyu/internal/filter"
)

const namespace = "moyu"

// Run holds the collectors for one run on a private registry.
type Run struct {
	reg *prometheus.Registry

	rows        *prometheus.GaugeVec
	rejected    *prometheus.GaugeVec
	identities  prometheus.Gauge
	activeDays  prometheus.Gauge
	phase       *prometheus.GaugeVec
	charts      *prometheus.GaugeVec
	dropped     prometheus.Gauge
	lastSuccess prometheus.Gauge
}

// New registers every collector on a fresh registry.
func New() *Run {
	m := &Run{
		reg: prometheus.NewRegistry(),
		rows: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "rows",
			Help:      "Rows of the last run by outcome.",
		}, []string{"outcome"}),
		rejected: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "rejected_rows",
			Help:      "Rows of the last run dropped by the content filter, by reason.",
		}, []string{"reason"}),
		identities: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_identities",
			Help:      "Identities with at least one active message.",
		}),
		activeDays: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_days",
			Help:      "Distinct business days present in the input.",
		}),
		phase: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "phase_duration_seconds",
			Help:      "Wall time of each pipeline phase in the last run.",
		}, []string{"phase"}),
		charts: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "charts",
			Help:      "Charts of the last run by result.",
		}, []string{"result"}),
		dropped: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "events_dropped",
			Help:      "Event log lines lost in the last run.",
		}),
		lastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time the last successful run finished.",
		}),
	}
	m.reg.MustRegister(m.rows, m.rejected, m.identities, m.activeDays, m.phase, m.charts, m.dropped, m.lastSuccess)
	return m
}

// Registry exposes the collectors, e.g. for tests.
func (m *Run) Registry() *prometheus.Registry {
	return m.reg
}

// ObserveState records the pipeline counters of a finished aggregate.
func (m *Run) ObserveState(s *aggregate.State) {
	c := s.Counters
	m.rows.WithLabelValues("read").Set(float64(c.Rows))
	m.rows.WithLabelValues("rejected").Set(float64(c.RejectedTotal()))
	m.rows.WithLabelValues("bad_timestamp").Set(float64(c.TimestampErrors))
	m.rows.WithLabelValues("valid").Set(float64(c.Valid))
	m.rows.WithLabelValues("active").Set(float64(c.Active))
	m.rows.WithLabelValues("bypassed").Set(float64(c.Bypassed))
	for _, r := range filter.Rejections {
		m.rejected.WithLabelValues(string(r)).Set(float64(c.Rejected[r]))
	}
	m.identities.Set(float64(len(s.Identities())))
	m.activeDays.Set(float64(s.NumActiveDays()))
}

// ObserveMalformed records rows the reader skipped.
func (m *Run) ObserveMalformed(n int) {
	m.rows.WithLabelValues("malformed").Set(float64(n))
}

// ObservePhase records how long a phase took.
func (m *Run) ObservePhase(phase string, d time.Duration) {
	m.phase.WithLabelValues(phase).Set(d.Seconds())
}

// ObserveChart counts one chart result: "rendered", "skipped" or "failed".
func (m *Run) ObserveChart(result string) {
	m.charts.WithLabelValues(result).Inc()
}

// ObserveDroppedEvents records event log lines the run lost.
func (m *Run) ObserveDroppedEvents(n uint64) {
	m.dropped.Set(float64(n))
}

// MarkSuccess stamps the completion time.
func (m *Run) MarkSuccess(t time.Time) {
	m.lastSuccess.Set(float64(t.Unix()))
}

// WriteFile atomically replaces path with the current values.
func (m *Run) WriteFile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.reg); err != nil {
		return fmt.Errorf("write metrics: %w", err)
	}
	return nil
}
