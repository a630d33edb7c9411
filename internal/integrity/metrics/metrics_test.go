package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCounters(t *testing.T) {
	m := NewWithRegisterer(prometheus.NewRegistry())

	m.AddIssues("critical", "case", 2)
	m.AddIssues("critical", "case", 0)
	m.IncrementRepair("repaired")
	m.IncrementRepair("repaired")
	m.IncrementRepair("failed")
	m.IncrementRuleFailure("case.lead_attorney_exists")
	m.IncrementCacheLookup("hit")
	m.IncrementAuditFailure()
	m.IncrementScanFailure()
	m.ObserveScan(20 * time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.IssuesFound.WithLabelValues("critical", "case")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Repairs.WithLabelValues("repaired")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Repairs.WithLabelValues("failed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RuleFailures.WithLabelValues("case.lead_attorney_exists")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheLookups.WithLabelValues("hit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AuditFailures))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ScanFailures))
	assert.Equal(t, 1, testutil.CollectAndCount(m.ScanDuration))
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.AddIssues("warning", "job", 1)
		m.IncrementRepair("skipped")
		m.IncrementRuleFailure("x")
		m.IncrementCacheLookup("miss")
		m.IncrementAuditFailure()
		m.IncrementScanFailure()
		m.ObserveScan(time.Second)
	})
}
