package metric

import (
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryCounters(t *testing.T) {
	r := NewRegistry()
	m := r.CoreMetrics()

	m.RecordPublished("data")
	m.RecordPublished("data")
	m.RecordPublishError("data")
	m.RecordEncodeError()
	m.RecordRulesetRead("ok")
	m.RecordRulesetRead("error")
	m.RecordLogMirrored()
	m.RecordLogMirrorError()

	assert.Equal(t, float64(2), testutil.ToFloat64(m.MessagesPublished.WithLabelValues("data")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.PublishErrors.WithLabelValues("data")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.EncodeErrors))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.RulesetReads.WithLabelValues("ok")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.RulesetReads.WithLabelValues("error")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.LogRecordsMirrored))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.LogMirrorErrors))
}

func TestRegistryGauges(t *testing.T) {
	r := NewRegistry()
	m := r.CoreMetrics()

	m.SetRulesTracked(7)
	m.SetCacheEntries(35)
	m.RecordNATSStatus(true)
	m.RecordCircuitBreakerState(false)
	m.RecordNATSReconnect()

	assert.Equal(t, float64(7), testutil.ToFloat64(m.RulesTracked))
	assert.Equal(t, float64(35), testutil.ToFloat64(m.CacheEntries))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.NATSConnected))
	assert.Equal(t, float64(0), testutil.ToFloat64(m.NATSCircuitBreaker))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.NATSReconnects))

	m.RecordNATSStatus(false)
	assert.Equal(t, float64(0), testutil.ToFloat64(m.NATSConnected))
}

func TestRegistryHandler(t *testing.T) {
	r := NewRegistry()
	r.CoreMetrics().RecordPublished("data")

	req := httptest.NewRequest("GET", "/metrics", nil)
	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, req)

	require.Equal(t, 200, rec.Code)
	assert.Contains(t, rec.Body.String(), "tentacle_messages_published_total")
}
