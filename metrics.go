package vatrace

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics exports per-entry-point counters. It is a Sink (counting calls)
// and a ResolutionObserver (recording which entries resolved). All methods
// are safe on a nil *Metrics.
type Metrics struct {
	registry   *prometheus.Registry
	calls      *prometheus.CounterVec
	unresolved *prometheus.CounterVec
	resolved   *prometheus.GaugeVec
}

// NewMetrics creates the collectors on a private registry so the preload
// library never touches the host program's default registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		calls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vatrace_calls_total",
				Help: "Intercepted libva calls by entry point.",
			},
			[]string{"entry_point"},
		),
		unresolved: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vatrace_unresolved_calls_total",
				Help: "Calls answered with the generic failure status because the entry point did not resolve.",
			},
			[]string{"entry_point"},
		),
		resolved: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "vatrace_entry_point_resolved",
				Help: "1 if the entry point resolved to the real implementation, 0 if it failed.",
			},
			[]string{"entry_point"},
		),
	}
	m.registry.MustRegister(m.calls, m.unresolved, m.resolved)
	return m
}

// Emit counts one call.
func (m *Metrics) Emit(ev CallEvent) {
	if m == nil {
		return
	}
	m.calls.WithLabelValues(ev.EntryPoint).Inc()
}

// ObserveResolution records the terminal state of an entry.
func (m *Metrics) ObserveResolution(e ResolvedEntry) {
	if m == nil {
		return
	}
	v := 0.0
	if e.State == StateResolved {
		v = 1
	}
	m.resolved.WithLabelValues(e.EntryPoint.Name).Set(v)
}

func (m *Metrics) observeUnresolvedCall(name string) {
	if m == nil {
		return
	}
	m.unresolved.WithLabelValues(name).Inc()
}

// Gatherer exposes the private registry.
func (m *Metrics) Gatherer() prometheus.Gatherer {
	if m == nil {
		return prometheus.NewRegistry()
	}
	return m.registry
}

// Handler serves the metrics in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Gatherer(), promhttp.HandlerOpts{})
}
