// Package metrics holds the Prometheus collectors for vote runs.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics groups the vote collectors. A nil *Metrics records nothing.
type Metrics struct {
	// DispatchOutcomes counts dispatch results by site strategy and outcome
	DispatchOutcomes *prometheus.CounterVec

	// TabOpens counts batch tab opens by result (opened/failed)
	TabOpens *prometheus.CounterVec

	// BatchRuns counts completed batch runs
	BatchRuns prometheus.Counter

	// BatchDuration tracks batch run duration in seconds
	BatchDuration prometheus.Histogram

	// VotesRecorded counts votes written to the store
	VotesRecorded prometheus.Counter
}

// New registers the collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		DispatchOutcomes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "autovote_dispatch_outcomes_total",
				Help: "Vote dispatch attempts by site and outcome",
			},
			[]string{"site", "outcome"},
		),
		TabOpens: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "autovote_tab_opens_total",
				Help: "Batch tab opens by result",
			},
			[]string{"result"},
		),
		BatchRuns: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "autovote_batch_runs_total",
				Help: "Completed batch runs",
			},
		),
		BatchDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "autovote_batch_duration_seconds",
				Help:    "Batch run duration in seconds",
				Buckets: []float64{1, 5, 10, 30, 60, 120, 300},
			},
		),
		VotesRecorded: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "autovote_votes_recorded_total",
				Help: "Votes recorded in the store",
			},
		),
	}
}

// Dispatch counts one dispatch result.
func (m *Metrics) Dispatch(site, outcome string) {
	if m == nil {
		return
	}
	m.DispatchOutcomes.WithLabelValues(site, outcome).Inc()
}

// TabOpen counts one tab open attempt.
func (m *Metrics) TabOpen(ok bool) {
	if m == nil {
		return
	}
	result := "opened"
	if !ok {
		result = "failed"
	}
	m.TabOpens.WithLabelValues(result).Inc()
}

// Batch counts a finished batch run that took seconds.
func (m *Metrics) Batch(seconds float64) {
	if m == nil {
		return
	}
	m.BatchRuns.Inc()
	m.BatchDuration.Observe(seconds)
}

// Vote counts a recorded vote.
func (m *Metrics) Vote() {
	if m == nil {
		return
	}
	m.VotesRecorded.Inc()
}
