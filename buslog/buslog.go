// Package buslog provides the dual-sink log mirror: every leveled log call
// is forwarded to the local slog sink and, once a bus is attached,
// best-effort mirrored onto NATS as a structured log record.
package buslog

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/joyautomation/tentacle-nftables/errors"
	"github.com/joyautomation/tentacle-nftables/metric"
	"github.com/joyautomation/tentacle-nftables/pkg/timestamp"
)

// Bus is the publish-only capability the mirror needs from the transport.
type Bus interface {
	Publish(ctx context.Context, subject string, data []byte) error
}

// Record is the structured log record published on the bus. Timestamp is
// Unix epoch milliseconds.
type Record struct {
	Timestamp   int64  `json:"timestamp"`
	Level       string `json:"level"`
	Message     string `json:"message"`
	ServiceType string `json:"serviceType"`
	ModuleID    string `json:"moduleId"`
	Logger      string `json:"logger"`
}

// Logger is a leveled logging capability that always forwards to its local
// slog sink and opportunistically mirrors each record onto the bus.
//
// A Logger starts local-only. WithBus returns a new capability value with
// mirroring enabled; the host swaps it into its own state once the bus
// connection is up. Mirror failures are absorbed: they never reach the
// caller of a log call and never suppress the local sink.
type Logger struct {
	name        string
	base        *slog.Logger
	level       *slog.LevelVar
	bus         Bus
	serviceType string
	moduleID    string
	metrics     *metric.Metrics
}

// New creates a local-only logger. level is the process-wide minimum
// severity shared by every derived logger; changing it takes effect for
// subsequent calls with no re-installation. metrics may be nil.
func New(name string, base *slog.Logger, level *slog.LevelVar, metrics *metric.Metrics) *Logger {
	if base == nil {
		base = slog.Default()
	}
	if level == nil {
		level = new(slog.LevelVar)
	}
	return &Logger{
		name:    name,
		base:    base,
		level:   level,
		metrics: metrics,
	}
}

// WithBus returns a copy of the logger with bus mirroring enabled. The
// receiver is unchanged; existing references keep their behavior.
func (l *Logger) WithBus(bus Bus, serviceType, moduleID string) *Logger {
	clone := *l
	clone.bus = bus
	clone.serviceType = serviceType
	clone.moduleID = moduleID
	return &clone
}

// Named returns a copy of the logger reporting a different originating
// logger name. The severity threshold stays shared.
func (l *Logger) Named(name string) *Logger {
	clone := *l
	clone.name = name
	return &clone
}

// SetLevel updates the shared minimum severity threshold.
func (l *Logger) SetLevel(level slog.Level) {
	l.level.Set(level)
}

// Debug logs at debug level.
func (l *Logger) Debug(msg string, values ...any) {
	l.log(slog.LevelDebug, "debug", msg, values)
}

// Info logs at info level.
func (l *Logger) Info(msg string, values ...any) {
	l.log(slog.LevelInfo, "info", msg, values)
}

// Warn logs at warn level.
func (l *Logger) Warn(msg string, values ...any) {
	l.log(slog.LevelWarn, "warn", msg, values)
}

// Error logs at error level.
func (l *Logger) Error(msg string, values ...any) {
	l.log(slog.LevelError, "error", msg, values)
}

// log forwards to the local sink and then mirrors. The local forward is
// unconditional once the threshold passes; the mirror is best-effort.
func (l *Logger) log(level slog.Level, levelName, msg string, values []any) {
	if level < l.level.Level() {
		return
	}

	formatted := inline(msg, values)
	l.base.Log(context.Background(), level, formatted, "logger", l.name)

	if l.bus == nil {
		return
	}
	if err := l.mirror(levelName, formatted); err != nil {
		// Absorbed: the mirror must never fail the logging caller.
		if l.metrics != nil {
			l.metrics.RecordLogMirrorError()
		}
		l.base.Log(context.Background(), slog.LevelDebug,
			"log mirror publish failed", "logger", l.name, "error", err)
	}
}

// mirror builds the structured record and sends it on the bus. Errors are
// returned so the caller can account for them before absorbing.
func (l *Logger) mirror(levelName, message string) error {
	record := Record{
		Timestamp:   timestamp.Now(),
		Level:       levelName,
		Message:     message,
		ServiceType: l.serviceType,
		ModuleID:    l.moduleID,
		Logger:      l.name,
	}

	data, err := json.Marshal(record)
	if err != nil {
		return errors.WrapInvalid(err, "Logger", "mirror", "marshal record")
	}

	subject := "service.logs." + l.serviceType + "." + l.moduleID
	if err := l.bus.Publish(context.Background(), subject, data); err != nil {
		return errors.WrapTransient(err, "Logger", "mirror", "publish record")
	}

	if l.metrics != nil {
		l.metrics.RecordLogMirrored()
	}
	return nil
}

// inline joins the supplementary values into the message: text values
// verbatim, all other kinds as canonical serialization, space-separated.
func inline(msg string, values []any) string {
	if len(values) == 0 {
		return msg
	}

	out := msg
	for _, v := range values {
		out += " " + stringify(v)
	}
	return out
}

func stringify(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case error:
		return val.Error()
	default:
		data, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprintf("%v", val)
		}
		return string(data)
	}
}
