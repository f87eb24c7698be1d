// Package telemetry exposes Prometheus metrics for tool calls and toolkit
// probes, and configures OpenTelemetry trace export.
package telemetry

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/flemzord/fgbio-mcp/internal/result"
	"github.com/flemzord/fgbio-mcp/internal/tool"
)

const namespace = "fgbio_mcp"

// kindSuccess labels calls that succeeded.
const kindSuccess = "success"

// Metrics holds the collectors on a private registry, so tests and
// multiple instances never collide on the global one.
type Metrics struct {
	registry *prometheus.Registry

	calls     *prometheus.CounterVec
	duration  *prometheus.HistogramVec
	truncated *prometheus.CounterVec
	probes    *prometheus.CounterVec
	available prometheus.Gauge
	info      *prometheus.GaugeVec
}

var _ tool.Observer = (*Metrics)(nil)

// NewMetrics creates and registers all collectors, including the Go
// runtime and process collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		calls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tool_calls_total",
			Help:      "Tool calls by tool and outcome kind.",
		}, []string{"tool", "kind"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "tool_call_duration_seconds",
			Help:      "Wall-clock duration of tool calls by terminal state.",
			Buckets:   []float64{0.1, 0.5, 1, 5, 15, 60, 300, 900, 1800, 3600},
		}, []string{"tool", "state"}),
		truncated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "output_truncated_total",
			Help:      "Calls whose captured stdout or stderr was truncated.",
		}, []string{"tool"}),
		probes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "toolkit_probes_total",
			Help:      "Toolkit version probes by result.",
		}, []string{"result"}),
		available: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "toolkit_available",
			Help:      "1 when the last toolkit probe succeeded.",
		}),
		info: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "toolkit_info",
			Help:      "Toolkit version reported by the last successful probe.",
		}, []string{"version"}),
	}

	m.registry.MustRegister(
		m.calls, m.duration, m.truncated, m.probes, m.available, m.info,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveCall implements tool.Observer.
func (m *Metrics) ObserveCall(name string, resp result.Response, elapsed time.Duration) {
	kind := kindSuccess
	if !resp.Success {
		kind = string(resp.Kind)
	}
	m.calls.WithLabelValues(name, kind).Inc()

	state := string(resp.State)
	if !resp.State.Terminal() {
		state = "rejected"
	}
	m.duration.WithLabelValues(name, state).Observe(elapsed.Seconds())

	if resp.Truncated {
		m.truncated.WithLabelValues(name).Inc()
	}
}

// ObserveProbe records a toolkit probe result.
func (m *Metrics) ObserveProbe(version string, err error) {
	if err != nil {
		m.probes.WithLabelValues("failure").Inc()
		m.available.Set(0)
		return
	}
	m.probes.WithLabelValues("success").Inc()
	m.available.Set(1)
	m.info.Reset()
	m.info.WithLabelValues(version).Set(1)
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
