package metric

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics contains all platform-level metrics for the telemetry layer
type Metrics struct {
	// Publish path metrics
	MessagesPublished *prometheus.CounterVec
	PublishErrors     *prometheus.CounterVec
	EncodeErrors      prometheus.Counter

	// Ruleset metrics
	RulesetReads *prometheus.CounterVec
	RulesTracked prometheus.Gauge
	CacheEntries prometheus.Gauge

	// Log mirror metrics
	LogRecordsMirrored prometheus.Counter
	LogMirrorErrors    prometheus.Counter

	// NATS metrics
	NATSConnected      prometheus.Gauge
	NATSReconnects     prometheus.Counter
	NATSCircuitBreaker prometheus.Gauge
}

// NewMetrics creates a new Metrics instance with all platform metrics
func NewMetrics() *Metrics {
	return &Metrics{
		MessagesPublished: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "tentacle",
				Subsystem: "messages",
				Name:      "published_total",
				Help:      "Total number of messages published to the bus",
			},
			[]string{"kind"},
		),

		PublishErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "tentacle",
				Subsystem: "messages",
				Name:      "publish_errors_total",
				Help:      "Total number of bus publish failures",
			},
			[]string{"kind"},
		),

		EncodeErrors: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "tentacle",
				Subsystem: "messages",
				Name:      "encode_errors_total",
				Help:      "Total number of entity encoding failures",
			},
		),

		RulesetReads: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "tentacle",
				Subsystem: "nftables",
				Name:      "ruleset_reads_total",
				Help:      "Total number of ruleset read attempts",
			},
			[]string{"status"},
		),

		RulesTracked: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "tentacle",
				Subsystem: "nftables",
				Name:      "rules_tracked",
				Help:      "Number of NAT rules in the last published snapshot",
			},
		),

		CacheEntries: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "tentacle",
				Subsystem: "nftables",
				Name:      "cache_entries",
				Help:      "Number of comparison keys held by the change cache",
			},
		),

		LogRecordsMirrored: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "tentacle",
				Subsystem: "logs",
				Name:      "mirrored_total",
				Help:      "Total number of log records mirrored onto the bus",
			},
		),

		LogMirrorErrors: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "tentacle",
				Subsystem: "logs",
				Name:      "mirror_errors_total",
				Help:      "Total number of absorbed log mirror failures",
			},
		),

		NATSConnected: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "tentacle",
				Subsystem: "nats",
				Name:      "connected",
				Help:      "NATS connection status (0=disconnected, 1=connected)",
			},
		),

		NATSReconnects: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "tentacle",
				Subsystem: "nats",
				Name:      "reconnects_total",
				Help:      "Total number of NATS reconnections",
			},
		),

		NATSCircuitBreaker: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "tentacle",
				Subsystem: "nats",
				Name:      "circuit_breaker",
				Help:      "NATS circuit breaker status (0=closed, 1=open)",
			},
		),
	}
}

// RecordPublished increments the published message counter for a kind
// ("data" or "log")
func (m *Metrics) RecordPublished(kind string) {
	m.MessagesPublished.WithLabelValues(kind).Inc()
}

// RecordPublishError increments the publish failure counter for a kind
func (m *Metrics) RecordPublishError(kind string) {
	m.PublishErrors.WithLabelValues(kind).Inc()
}

// RecordEncodeError increments the encoding failure counter
func (m *Metrics) RecordEncodeError() {
	m.EncodeErrors.Inc()
}

// RecordRulesetRead increments the ruleset read counter ("ok" or "error")
func (m *Metrics) RecordRulesetRead(status string) {
	m.RulesetReads.WithLabelValues(status).Inc()
}

// SetRulesTracked updates the tracked rule count
func (m *Metrics) SetRulesTracked(n int) {
	m.RulesTracked.Set(float64(n))
}

// SetCacheEntries updates the change cache size gauge
func (m *Metrics) SetCacheEntries(n int) {
	m.CacheEntries.Set(float64(n))
}

// RecordLogMirrored increments the mirrored log record counter
func (m *Metrics) RecordLogMirrored() {
	m.LogRecordsMirrored.Inc()
}

// RecordLogMirrorError increments the absorbed mirror failure counter
func (m *Metrics) RecordLogMirrorError() {
	m.LogMirrorErrors.Inc()
}

// RecordNATSStatus updates NATS connection status
func (m *Metrics) RecordNATSStatus(connected bool) {
	value := 0.0
	if connected {
		value = 1.0
	}
	m.NATSConnected.Set(value)
}

// RecordNATSReconnect increments the reconnection counter
func (m *Metrics) RecordNATSReconnect() {
	m.NATSReconnects.Inc()
}

// RecordCircuitBreakerState updates circuit breaker status
func (m *Metrics) RecordCircuitBreakerState(open bool) {
	value := 0.0
	if open {
		value = 1.0
	}
	m.NATSCircuitBreaker.Set(value)
}
