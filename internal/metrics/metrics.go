package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups the wall's Prometheus collectors behind a private registry.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	reloads         *prometheus.CounterVec
	reactions       *prometheus.CounterVec
	gatewayRequests *prometheus.CounterVec
	submissions     *prometheus.CounterVec
	threads         prometheus.Gauge
	overlays        prometheus.Gauge
}

// New registers every collector on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		reloads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "inspire_wall",
			Name:      "reloads_total",
			Help:      "Thread store reloads by data source.",
		}, []string{"source"}),
		reactions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "inspire_wall",
			Name:      "reactions_total",
			Help:      "Reaction clicks by kind and confirmation outcome.",
		}, []string{"kind", "outcome"}),
		gatewayRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "inspire_wall",
			Name:      "gateway_requests_total",
			Help:      "Remote record store calls by operation and outcome.",
		}, []string{"op", "outcome"}),
		submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "inspire_wall",
			Name:      "submissions_total",
			Help:      "Thread submissions by outcome.",
		}, []string{"outcome"}),
		threads: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "inspire_wall",
			Name:      "threads",
			Help:      "Threads currently resident in the store.",
		}),
		overlays: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "inspire_wall",
			Name:      "overlay_connections",
			Help:      "Open pointer overlay connections.",
		}),
	}

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.reloads, m.reactions, m.gatewayRequests, m.submissions, m.threads, m.overlays,
	)
	return m
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry, mostly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) ObserveReload(source string, threads int) {
	if m == nil {
		return
	}
	m.reloads.WithLabelValues(source).Inc()
	m.threads.Set(float64(threads))
}

func (m *Metrics) ObserveReaction(kind, outcome string) {
	if m == nil {
		return
	}
	m.reactions.WithLabelValues(kind, outcome).Inc()
}

func (m *Metrics) ObserveGateway(op string, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.gatewayRequests.WithLabelValues(op, outcome).Inc()
}

func (m *Metrics) ObserveSubmission(outcome string) {
	if m == nil {
		return
	}
	m.submissions.WithLabelValues(outcome).Inc()
}

func (m *Metrics) OverlayOpened() {
	if m == nil {
		return
	}
	m.overlays.Inc()
}

func (m *Metrics) OverlayClosed() {
	if m == nil {
		return
	}
	m.overlays.Dec()
}
