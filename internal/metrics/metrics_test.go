package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserveToolCall(t *testing.T) {
	m := New()
	m.ObserveToolCall("cache_get", false, 5*time.Millisecond)
	m.ObserveToolCall("cache_get", true, time.Millisecond)
	m.ObserveToolCall("cache_get", false, time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.toolCalls.WithLabelValues("cache_get", OutcomeSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.toolCalls.WithLabelValues("cache_get", OutcomeError)))
}

func TestObserveResourceRead(t *testing.T) {
	m := New()
	m.ObserveResourceRead("file", nil)
	m.ObserveResourceRead("db-table", errors.New("boom"))
	m.ObserveResourceList()

	assert.Equal(t, 1.0, testutil.ToFloat64(m.resourceReads.WithLabelValues("file", OutcomeSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.resourceReads.WithLabelValues("db-table", OutcomeError)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.resourceLists))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveToolCall("x", false, time.Second)
		m.ObserveResourceRead("file", nil)
		m.ObserveResourceList()
	})
}

func TestHandlerExposesCollectors(t *testing.T) {
	m := New()
	m.ObserveToolCall("write_file", false, time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `mcp_tool_calls_total{outcome="success",tool="write_file"} 1`)
}
