package observability

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetricsRecord(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.RecordRequest("/connections", "GET", 200, 15*time.Millisecond)
	m.RecordRequest("/connections", "GET", 200, 5*time.Millisecond)
	m.RecordError("/auth/login", "POST", "INVALID_CREDENTIALS")
	m.RecordApprovalDecision(2, "Approved")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.requests.WithLabelValues("/connections", "GET", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.errors.WithLabelValues("/auth/login", "POST", "INVALID_CREDENTIALS")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.approvals.WithLabelValues("2", "Approved")))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordRequest("/", "GET", 200, time.Millisecond)
		m.RecordError("/", "GET", "X")
		m.RecordApprovalDecision(1, "Rejected")
	})
}
