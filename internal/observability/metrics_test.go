package observability

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMetricsSnapshot(t *testing.T) {
	m := NewMetrics()
	m.RecordRequest("/tickets", "GET", 200, 2*time.Millisecond)
	m.RecordRequest("/tickets", "GET", 200, 4*time.Millisecond)
	m.RecordError("/tickets/:id/status", "PATCH", "WRITE_FAILED")
	m.RecordGatewayFailure("list_tickets", "connectivity")
	m.RecordRefresh("timed-out")

	snap := m.Snapshot()
	assert.Equal(t, int64(2), snap.Requests["/tickets|GET|200"])
	assert.Equal(t, int64(1), snap.Errors["/tickets/:id/status|PATCH|WRITE_FAILED"])
	assert.Equal(t, int64(1), snap.GatewayFailures["list_tickets|connectivity"])
	assert.Equal(t, int64(1), snap.RefreshOutcomes["timed-out"])
	assert.InDelta(t, 3.0, snap.AvgRequestMs, 0.001)
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.RecordGatewayFailure("x", "y")
	m.RecordRefresh("succeeded")
	assert.Empty(t, m.Snapshot().Requests)
}
