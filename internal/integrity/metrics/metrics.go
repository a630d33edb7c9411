package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the integrity engine.
type Metrics struct {
	// Full guild scans
	ScanDuration prometheus.Histogram
	ScanFailures prometheus.Counter

	// Issues found by severity and entity type
	IssuesFound *prometheus.CounterVec

	// Repairs by outcome: repaired, failed, skipped
	Repairs *prometheus.CounterVec

	// Rules that errored or panicked
	RuleFailures *prometheus.CounterVec

	// Result cache lookups by outcome: hit, miss, error
	CacheLookups *prometheus.CounterVec

	AuditFailures prometheus.Counter
}

// New registers the integrity metrics with the default registerer.
func New() *Metrics {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

// NewWithRegisterer registers the integrity metrics with reg.
func NewWithRegisterer(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		ScanDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "counsel_integrity_scan_duration_seconds",
			Help:    "Duration of full guild integrity scans",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		ScanFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "counsel_integrity_scan_failures_total",
			Help: "Scans aborted because a repository read failed",
		}),
		IssuesFound: f.NewCounterVec(prometheus.CounterOpts{
			Name: "counsel_integrity_issues_total",
			Help: "Integrity issues found by scans, by severity and entity type",
		}, []string{"severity", "entity_type"}),
		Repairs: f.NewCounterVec(prometheus.CounterOpts{
			Name: "counsel_integrity_repairs_total",
			Help: "Repair attempts by outcome",
		}, []string{"outcome"}),
		RuleFailures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "counsel_integrity_rule_failures_total",
			Help: "Rule executions that returned an error or panicked",
		}, []string{"rule"}),
		CacheLookups: f.NewCounterVec(prometheus.CounterOpts{
			Name: "counsel_integrity_cache_lookups_total",
			Help: "Result cache lookups by outcome",
		}, []string{"outcome"}),
		AuditFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "counsel_integrity_audit_failures_total",
			Help: "Repair audit entries that could not be recorded",
		}),
	}
}

func (m *Metrics) ObserveScan(d time.Duration) {
	if m != nil {
		m.ScanDuration.Observe(d.Seconds())
	}
}

func (m *Metrics) IncrementScanFailure() {
	if m != nil {
		m.ScanFailures.Inc()
	}
}

func (m *Metrics) AddIssues(severity, entityType string, n int) {
	if m != nil && n > 0 {
		m.IssuesFound.WithLabelValues(severity, entityType).Add(float64(n))
	}
}

// IncrementRepair records one repair outcome.
func (m *Metrics) IncrementRepair(outcome string) {
	if m != nil {
		m.Repairs.WithLabelValues(outcome).Inc()
	}
}

func (m *Metrics) IncrementRuleFailure(rule string) {
	if m != nil {
		m.RuleFailures.WithLabelValues(rule).Inc()
	}
}

func (m *Metrics) IncrementCacheLookup(outcome string) {
	if m != nil {
		m.CacheLookups.WithLabelValues(outcome).Inc()
	}
}

func (m *Metrics) IncrementAuditFailure() {
	if m != nil {
		m.AuditFailures.Inc()
	}
}
