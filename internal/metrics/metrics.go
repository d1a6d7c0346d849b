package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels
const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
)

// Metrics holds the server's Prometheus collectors on a private registry.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry      *prometheus.Registry
	toolCalls     *prometheus.CounterVec
	toolDuration  *prometheus.HistogramVec
	resourceReads *prometheus.CounterVec
	resourceLists prometheus.Counter
}

// New creates and registers all collectors
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		toolCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mcp",
			Name:      "tool_calls_total",
			Help:      "Tool invocations by tool and outcome.",
		}, []string{"tool", "outcome"}),
		toolDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "mcp",
			Name:      "tool_call_duration_seconds",
			Help:      "Tool handler latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"tool"}),
		resourceReads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mcp",
			Name:      "resource_reads_total",
			Help:      "Resource reads by URI scheme and outcome.",
		}, []string{"scheme", "outcome"}),
		resourceLists: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "mcp",
			Name:      "resource_lists_total",
			Help:      "Resource enumerations served.",
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.toolCalls,
		m.toolDuration,
		m.resourceReads,
		m.resourceLists,
	)
	return m
}

// ObserveToolCall records one dispatched tool call
func (m *Metrics) ObserveToolCall(tool string, isError bool, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.toolCalls.WithLabelValues(tool, outcome(isError)).Inc()
	m.toolDuration.WithLabelValues(tool).Observe(elapsed.Seconds())
}

// ObserveResourceRead records one resource read
func (m *Metrics) ObserveResourceRead(scheme string, err error) {
	if m == nil {
		return
	}
	m.resourceReads.WithLabelValues(scheme, outcome(err != nil)).Inc()
}

// ObserveResourceList records one resource enumeration
func (m *Metrics) ObserveResourceList() {
	if m == nil {
		return
	}
	m.resourceLists.Inc()
}

// Registry exposes the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the exposition format for this registry
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func outcome(isError bool) string {
	if isError {
		return OutcomeError
	}
	return OutcomeSuccess
}
