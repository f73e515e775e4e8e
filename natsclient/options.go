package natsclient

import (
	"fmt"
	"log/slog"
	"time"
)

// Logger defines the logging interface used by the client
type Logger interface {
	Printf(format string, v ...any)
	Debugf(format string, v ...any)
	Errorf(format string, v ...any)
}

// defaultLogger forwards to slog at the matching levels
type defaultLogger struct{}

func (l *defaultLogger) Printf(format string, v ...any) {
	slog.Info(fmt.Sprintf(format, v...))
}

func (l *defaultLogger) Debugf(format string, v ...any) {
	slog.Debug(fmt.Sprintf(format, v...))
}

func (l *defaultLogger) Errorf(format string, v ...any) {
	slog.Error(fmt.Sprintf(format, v...))
}

// metricsRecorder is the subset of metric reporting the client drives.
// Satisfied by *metric.Metrics.
type metricsRecorder interface {
	RecordNATSStatus(connected bool)
	RecordNATSReconnect()
	RecordCircuitBreakerState(open bool)
}

// ClientOption configures a Client
type ClientOption func(*Client) error

// WithLogger sets a custom logger
func WithLogger(logger Logger) ClientOption {
	return func(c *Client) error {
		if logger == nil {
			return fmt.Errorf("logger cannot be nil")
		}
		c.logger = logger
		return nil
	}
}

// WithMetrics wires connection state into the given metrics recorder
func WithMetrics(m metricsRecorder) ClientOption {
	return func(c *Client) error {
		c.metrics = m
		return nil
	}
}

// WithMaxReconnects sets the maximum number of reconnection attempts.
// Use -1 for infinite reconnects.
func WithMaxReconnects(max int) ClientOption {
	return func(c *Client) error {
		if max < -1 {
			return fmt.Errorf("maxReconnects must be >= -1, got %d", max)
		}
		c.maxReconnects = max
		return nil
	}
}

// WithReconnectWait sets the wait time between reconnection attempts
func WithReconnectWait(wait time.Duration) ClientOption {
	return func(c *Client) error {
		if wait < 0 {
			return fmt.Errorf("reconnectWait must be non-negative, got %v", wait)
		}
		c.reconnectWait = wait
		return nil
	}
}

// WithPingInterval sets the ping interval for connection health checks
func WithPingInterval(interval time.Duration) ClientOption {
	return func(c *Client) error {
		if interval <= 0 {
			return fmt.Errorf("pingInterval must be positive, got %v", interval)
		}
		c.pingInterval = interval
		return nil
	}
}

// WithHealthInterval sets the health monitoring interval.
// Use 0 to disable health monitoring.
func WithHealthInterval(interval time.Duration) ClientOption {
	return func(c *Client) error {
		if interval < 0 {
			return fmt.Errorf("healthInterval must be non-negative, got %v", interval)
		}
		c.healthInterval = interval
		return nil
	}
}

// WithCircuitThreshold sets the failure threshold for the circuit breaker
func WithCircuitThreshold(threshold int32) ClientOption {
	return func(c *Client) error {
		if threshold <= 0 {
			return fmt.Errorf("circuitThreshold must be positive, got %d", threshold)
		}
		c.circuitThreshold = threshold
		return nil
	}
}

// WithMaxBackoff sets the maximum backoff duration for the circuit breaker
func WithMaxBackoff(backoff time.Duration) ClientOption {
	return func(c *Client) error {
		if backoff <= 0 {
			return fmt.Errorf("maxBackoff must be positive, got %v", backoff)
		}
		c.maxBackoff = backoff
		return nil
	}
}

// WithTimeout sets the connection timeout
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) error {
		if timeout <= 0 {
			return fmt.Errorf("timeout must be positive, got %v", timeout)
		}
		c.timeout = timeout
		return nil
	}
}

// WithDrainTimeout sets the drain timeout for graceful shutdown
func WithDrainTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) error {
		if timeout <= 0 {
			return fmt.Errorf("drainTimeout must be positive, got %v", timeout)
		}
		c.drainTimeout = timeout
		return nil
	}
}

// WithCredentials sets username/password authentication
func WithCredentials(username, password string) ClientOption {
	return func(c *Client) error {
		if username == "" || password == "" {
			return fmt.Errorf("username and password must both be non-empty")
		}
		c.username = username
		c.password = password
		return nil
	}
}

// WithToken sets token authentication
func WithToken(token string) ClientOption {
	return func(c *Client) error {
		if token == "" {
			return fmt.Errorf("token cannot be empty")
		}
		c.token = token
		return nil
	}
}

// WithTLS enables TLS with the given certificate files. CA file may be
// empty to use the system pool.
func WithTLS(certFile, keyFile, caFile string) ClientOption {
	return func(c *Client) error {
		c.tlsEnabled = true
		c.tlsCertFile = certFile
		c.tlsKeyFile = keyFile
		c.tlsCAFile = caFile
		return nil
	}
}

// WithName sets the client connection name reported to the server
func WithName(name string) ClientOption {
	return func(c *Client) error {
		c.clientName = name
		return nil
	}
}

// WithDisconnectHandler sets a callback invoked on disconnect
func WithDisconnectHandler(fn func(error)) ClientOption {
	return func(c *Client) error {
		c.onDisconnect = fn
		return nil
	}
}

// WithReconnectHandler sets a callback invoked on reconnect
func WithReconnectHandler(fn func()) ClientOption {
	return func(c *Client) error {
		c.onReconnect = fn
		return nil
	}
}
