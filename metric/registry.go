package metric

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry owns the Prometheus registry and the core platform metrics
type Registry struct {
	prometheusRegistry *prometheus.Registry
	Metrics            *Metrics
}

// NewRegistry creates a new metrics registry with core platform metrics and
// Go runtime collectors registered
func NewRegistry() *Registry {
	prometheusRegistry := prometheus.NewRegistry()

	registry := &Registry{
		prometheusRegistry: prometheusRegistry,
		Metrics:            NewMetrics(),
	}
	registry.registerMetrics()

	prometheusRegistry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return registry
}

// PrometheusRegistry returns the underlying Prometheus registry
func (r *Registry) PrometheusRegistry() *prometheus.Registry {
	return r.prometheusRegistry
}

// CoreMetrics returns the core platform metrics
func (r *Registry) CoreMetrics() *Metrics {
	return r.Metrics
}

// Handler returns an HTTP handler serving the registry in Prometheus
// exposition format
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.prometheusRegistry, promhttp.HandlerOpts{})
}

// registerMetrics registers all core platform metrics
func (r *Registry) registerMetrics() {
	r.prometheusRegistry.MustRegister(
		r.Metrics.MessagesPublished,
		r.Metrics.PublishErrors,
		r.Metrics.EncodeErrors,
		r.Metrics.RulesetReads,
		r.Metrics.RulesTracked,
		r.Metrics.CacheEntries,
		r.Metrics.LogRecordsMirrored,
		r.Metrics.LogMirrorErrors,
		r.Metrics.NATSConnected,
		r.Metrics.NATSReconnects,
		r.Metrics.NATSCircuitBreaker,
	)
}
