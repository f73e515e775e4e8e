package buslog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeBus captures mirrored records and can simulate an outage.
type fakeBus struct {
	published []busCall
	fail      bool
}

type busCall struct {
	subject string
	data    []byte
}

func (b *fakeBus) Publish(_ context.Context, subject string, data []byte) error {
	if b.fail {
		return fmt.Errorf("bus down")
	}
	b.published = append(b.published, busCall{subject: subject, data: data})
	return nil
}

func newTestLogger(t *testing.T) (*Logger, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	base := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	level := new(slog.LevelVar)
	level.Set(slog.LevelDebug)
	return New("test", base, level, nil), &buf
}

func TestLoggerLocalOnly(t *testing.T) {
	logger, buf := newTestLogger(t)

	// No bus attached: local sink still works
	logger.Info("service starting")

	assert.Contains(t, buf.String(), "service starting")
	assert.Contains(t, buf.String(), `"logger":"test"`)
}

func TestLoggerMirrorRecordShape(t *testing.T) {
	logger, _ := newTestLogger(t)
	bus := &fakeBus{}
	logger = logger.WithBus(bus, "nftables", "tentacle-nftables")

	logger.Warn("ruleset read failed")

	require.Len(t, bus.published, 1)
	assert.Equal(t, "service.logs.nftables.tentacle-nftables", bus.published[0].subject)

	var record Record
	require.NoError(t, json.Unmarshal(bus.published[0].data, &record))
	assert.Equal(t, "warn", record.Level)
	assert.Equal(t, "ruleset read failed", record.Message)
	assert.Equal(t, "nftables", record.ServiceType)
	assert.Equal(t, "tentacle-nftables", record.ModuleID)
	assert.Equal(t, "test", record.Logger)
	assert.Greater(t, record.Timestamp, int64(0))
}

func TestLoggerBusFailureDoesNotSuppressLocal(t *testing.T) {
	logger, buf := newTestLogger(t)
	bus := &fakeBus{fail: true}
	logger = logger.WithBus(bus, "nftables", "mod1")

	// Must not panic and must still hit the local sink
	logger.Error("something broke")

	assert.Contains(t, buf.String(), "something broke")
	assert.Empty(t, bus.published)
}

func TestLoggerMirrorResumesWhenBusRecovers(t *testing.T) {
	logger, buf := newTestLogger(t)
	bus := &fakeBus{fail: true}

	// Installing the mirror while the bus is down is safe: failures are
	// absorbed, and no reinstallation is needed once it comes up
	logger = logger.WithBus(bus, "nftables", "mod1")

	logger.Info("before recovery")
	assert.Empty(t, bus.published)
	assert.Contains(t, buf.String(), "before recovery")

	bus.fail = false
	logger.Info("after recovery")

	require.Len(t, bus.published, 1)
	var record Record
	require.NoError(t, json.Unmarshal(bus.published[0].data, &record))
	assert.Equal(t, "after recovery", record.Message)
}

func TestLoggerThreshold(t *testing.T) {
	logger, buf := newTestLogger(t)
	bus := &fakeBus{}
	logger = logger.WithBus(bus, "nftables", "mod1")

	logger.SetLevel(slog.LevelWarn)

	logger.Debug("too quiet")
	logger.Info("still too quiet")
	logger.Warn("loud enough")

	// Threshold gates both sinks identically
	assert.NotContains(t, buf.String(), "too quiet")
	assert.Contains(t, buf.String(), "loud enough")
	require.Len(t, bus.published, 1)
}

func TestLoggerValueInlining(t *testing.T) {
	logger, _ := newTestLogger(t)
	bus := &fakeBus{}
	logger = logger.WithBus(bus, "nftables", "mod1")

	logger.Info("publish failed", "subject", fmt.Errorf("no responders"), 42)

	require.Len(t, bus.published, 1)
	var record Record
	require.NoError(t, json.Unmarshal(bus.published[0].data, &record))

	// Strings verbatim, errors via Error(), others serialized
	assert.Equal(t, "publish failed subject no responders 42", record.Message)
}

func TestLoggerWithBusIndependence(t *testing.T) {
	local, buf := newTestLogger(t)
	bus := &fakeBus{}

	mirrored := local.WithBus(bus, "nftables", "mod1")

	// The original keeps its local-only behavior
	local.Info("local only")
	assert.Empty(t, bus.published)

	mirrored.Info("mirrored")
	assert.Len(t, bus.published, 1)

	assert.Contains(t, buf.String(), "local only")
	assert.Contains(t, buf.String(), "mirrored")
}

func TestLoggerSharedLevel(t *testing.T) {
	logger, buf := newTestLogger(t)
	derived := logger.Named("parser")

	// Level changes propagate to every derived logger
	derived.SetLevel(slog.LevelError)
	logger.Info("suppressed everywhere")

	assert.NotContains(t, buf.String(), "suppressed everywhere")
}

func TestLoggerNamed(t *testing.T) {
	logger, buf := newTestLogger(t)
	parser := logger.Named("parser")

	parser.Info("parsed rules")
	assert.Contains(t, buf.String(), `"logger":"parser"`)
}
