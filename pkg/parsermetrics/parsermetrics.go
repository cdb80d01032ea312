// Package parsermetrics provides optional Prometheus instrumentation for the
// Agent Parser orchestrator. A nil *Metrics is always safe to call methods
// on, so instrumentation can be wired in without conditionals at call sites.
package parsermetrics

import "github.com/prometheus/client_golang/prometheus"

// Label constants for metrics.
const (
	LabelResult = "result" // "ok", "expired", "invalid_header"
	LabelStore  = "store"  // backing store path, used as an identity label
)

// Metrics holds the parser's Prometheus collectors.
type Metrics struct {
	sectionsTotal       *prometheus.CounterVec
	piggybackBlocksTotal prometheus.Counter
	storeMergesTotal    *prometheus.CounterVec
	expiredEntriesTotal prometheus.Counter

	registered bool
}

// New creates parser metrics. If registry is nil the collectors are created
// but not registered, which is convenient for tests.
func New(registry prometheus.Registerer) *Metrics {
	m := &Metrics{
		sectionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "checkmk_agent_parse",
				Subsystem: "sections",
				Name:      "total",
				Help:      "Total number of host sections observed by the framing state machine.",
			},
			[]string{LabelResult},
		),
		piggybackBlocksTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "checkmk_agent_parse",
				Subsystem: "piggyback",
				Name:      "blocks_total",
				Help:      "Total number of piggyback blocks observed.",
			},
		),
		storeMergesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "checkmk_agent_parse",
				Subsystem: "persist",
				Name:      "merges_total",
				Help:      "Total number of persisted sections merged into a parse result.",
			},
			[]string{LabelResult},
		),
		expiredEntriesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "checkmk_agent_parse",
				Subsystem: "persist",
				Name:      "expired_entries_total",
				Help:      "Total number of persisted entries dropped for being past valid_until.",
			},
		),
	}

	if registry != nil {
		registry.MustRegister(m.sectionsTotal, m.piggybackBlocksTotal, m.storeMergesTotal, m.expiredEntriesTotal)
		m.registered = true
	}
	return m
}

// ObserveSection records one host section transition, tagged by outcome.
func (m *Metrics) ObserveSection(result string) {
	if m == nil {
		return
	}
	m.sectionsTotal.WithLabelValues(result).Inc()
}

// ObservePiggybackBlock records one piggyback block.
func (m *Metrics) ObservePiggybackBlock() {
	if m == nil {
		return
	}
	m.piggybackBlocksTotal.Inc()
}

// ObserveStoreMerge records one persisted section being merged (or skipped).
func (m *Metrics) ObserveStoreMerge(result string) {
	if m == nil {
		return
	}
	m.storeMergesTotal.WithLabelValues(result).Inc()
}

// ObserveExpiredEntry records one persisted entry dropped for expiry.
func (m *Metrics) ObserveExpiredEntry() {
	if m == nil {
		return
	}
	m.expiredEntriesTotal.Inc()
}

// Describe implements prometheus.Collector.
func (m *Metrics) Describe(ch chan<- *prometheus.Desc) {
	if m == nil || !m.registered {
		return
	}
	m.sectionsTotal.Describe(ch)
	ch <- m.piggybackBlocksTotal.Desc()
	m.storeMergesTotal.Describe(ch)
	ch <- m.expiredEntriesTotal.Desc()
}

// Collect implements prometheus.Collector.
func (m *Metrics) Collect(ch chan<- prometheus.Metric) {
	if m == nil || !m.registered {
		return
	}
	m.sectionsTotal.Collect(ch)
	ch <- m.piggybackBlocksTotal
	m.storeMergesTotal.Collect(ch)
	ch <- m.expiredEntriesTotal
}
