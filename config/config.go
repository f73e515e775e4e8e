// Package config loads and validates the service configuration from
// layered JSON or YAML files with environment overrides.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	"unicode"

	"gopkg.in/yaml.v3"

	"github.com/joyautomation/tentacle-nftables/errors"
)

// Publish strategies
const (
	StrategyFlattened  = "flattened"
	StrategyStructured = "structured"
)

// Config represents the complete service configuration
type Config struct {
	Module    ModuleConfig    `json:"module" yaml:"module"`
	NATS      NATSConfig      `json:"nats" yaml:"nats"`
	Publisher PublisherConfig `json:"publisher" yaml:"publisher"`
	Ruleset   RulesetConfig   `json:"ruleset" yaml:"ruleset"`
	Logging   LoggingConfig   `json:"logging" yaml:"logging"`
	Metrics   MetricsConfig   `json:"metrics" yaml:"metrics"`
}

// ModuleConfig identifies this service instance on the bus
type ModuleConfig struct {
	Namespace   string `json:"namespace" yaml:"namespace"`       // First subject token (e.g. "site1")
	ID          string `json:"id" yaml:"id"`                     // Module identifier for message envelopes
	DeviceID    string `json:"device_id" yaml:"device_id"`       // Device identifier for message envelopes
	ServiceType string `json:"service_type" yaml:"service_type"` // Log subject token (e.g. "nftables")
}

// NATSConfig defines NATS connection settings
type NATSConfig struct {
	URLs          []string      `json:"urls,omitempty" yaml:"urls,omitempty"`
	MaxReconnects int           `json:"max_reconnects,omitempty" yaml:"max_reconnects,omitempty"`
	ReconnectWait time.Duration `json:"reconnect_wait,omitempty" yaml:"reconnect_wait,omitempty"`
	Username      string        `json:"username,omitempty" yaml:"username,omitempty"`
	Password      string        `json:"password,omitempty" yaml:"password,omitempty"`
	Token         string        `json:"token,omitempty" yaml:"token,omitempty"`
	TLS           NATSTLSConfig `json:"tls,omitempty" yaml:"tls,omitempty"`
}

// NATSTLSConfig for secure NATS connections
type NATSTLSConfig struct {
	Enabled  bool   `json:"enabled" yaml:"enabled"`
	CertFile string `json:"cert_file,omitempty" yaml:"cert_file,omitempty"`
	KeyFile  string `json:"key_file,omitempty" yaml:"key_file,omitempty"`
	CAFile   string `json:"ca_file,omitempty" yaml:"ca_file,omitempty"`
}

// PublisherConfig controls the telemetry publish loop
type PublisherConfig struct {
	Strategy string        `json:"strategy" yaml:"strategy"` // "flattened" or "structured"
	Interval time.Duration `json:"interval" yaml:"interval"` // Poll interval for ruleset reads
}

// RulesetConfig controls how the NAT ruleset is read
type RulesetConfig struct {
	Command []string      `json:"command,omitempty" yaml:"command,omitempty"`
	Timeout time.Duration `json:"timeout,omitempty" yaml:"timeout,omitempty"`
}

// LoggingConfig controls the local log sink
type LoggingConfig struct {
	Level  string `json:"level" yaml:"level"`   // debug, info, warn, error
	Format string `json:"format" yaml:"format"` // json or text
}

// MetricsConfig controls the Prometheus endpoint
type MetricsConfig struct {
	Listen string `json:"listen,omitempty" yaml:"listen,omitempty"` // e.g. ":9090"; empty disables
}

// Clone creates a deep copy of the configuration
func (c *Config) Clone() *Config {
	if c == nil {
		return &Config{}
	}

	data, err := json.Marshal(c)
	if err != nil {
		copied := *c
		return &copied
	}

	var clone Config
	if err := json.Unmarshal(data, &clone); err != nil {
		copied := *c
		return &copied
	}

	return &clone
}

// Validate checks if the config is valid
func (c *Config) Validate() error {
	if c.Module.Namespace == "" {
		return errors.WrapInvalid(errors.ErrMissingConfig, "Config", "Validate", "module.namespace is required")
	}

	c.Module.Namespace = strings.ToLower(c.Module.Namespace)

	if !isValidNATSSubjectPart(c.Module.Namespace) {
		return errors.WrapInvalid(
			fmt.Errorf(
				"module.namespace %q is not valid for NATS subjects (must be alphanumeric with dashes or underscores)",
				c.Module.Namespace,
			),
			"Config", "Validate", "check namespace",
		)
	}

	if c.Module.ID == "" {
		return errors.WrapInvalid(errors.ErrMissingConfig, "Config", "Validate", "module.id is required")
	}
	if c.Module.ServiceType != "" && !isValidNATSSubjectPart(c.Module.ServiceType) {
		return errors.WrapInvalid(
			fmt.Errorf("module.service_type %q is not valid for NATS subjects", c.Module.ServiceType),
			"Config", "Validate", "check service type",
		)
	}

	if len(c.NATS.URLs) == 0 {
		return errors.WrapInvalid(errors.ErrMissingConfig, "Config", "Validate", "nats.urls is required")
	}

	switch c.Publisher.Strategy {
	case StrategyFlattened, StrategyStructured:
	default:
		return errors.WrapInvalid(
			fmt.Errorf("publisher.strategy must be %q or %q, got %q",
				StrategyFlattened, StrategyStructured, c.Publisher.Strategy),
			"Config", "Validate", "check strategy",
		)
	}

	if c.Publisher.Interval <= 0 {
		return errors.WrapInvalid(
			fmt.Errorf("publisher.interval must be positive, got %v", c.Publisher.Interval),
			"Config", "Validate", "check interval",
		)
	}

	if len(c.Ruleset.Command) == 0 {
		return errors.WrapInvalid(errors.ErrMissingConfig, "Config", "Validate", "ruleset.command is required")
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return errors.WrapInvalid(
			fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level),
			"Config", "Validate", "check log level",
		)
	}

	switch c.Logging.Format {
	case "json", "text":
	default:
		return errors.WrapInvalid(
			fmt.Errorf("logging.format must be json or text, got %q", c.Logging.Format),
			"Config", "Validate", "check log format",
		)
	}

	if c.NATS.TLS.Enabled {
		if c.NATS.TLS.CertFile != "" {
			if _, err := os.Stat(c.NATS.TLS.CertFile); err != nil {
				return errors.WrapInvalid(err, "Config", "Validate", "nats.tls.cert_file")
			}
		}
		if c.NATS.TLS.KeyFile != "" {
			if _, err := os.Stat(c.NATS.TLS.KeyFile); err != nil {
				return errors.WrapInvalid(err, "Config", "Validate", "nats.tls.key_file")
			}
		}
	}

	return nil
}

// isValidNATSSubjectPart checks if a string is valid as a single NATS
// subject token. Dots are rejected: they would split the token.
func isValidNATSSubjectPart(s string) bool {
	if len(s) == 0 {
		return false
	}

	for _, r := range s {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) &&
			r != '-' && r != '_' {
			return false
		}
	}
	return true
}

// Loader handles configuration loading with layers and overrides
type Loader struct {
	layers     []string
	validation bool
	envPrefix  string
}

// NewLoader creates a new configuration loader
func NewLoader() *Loader {
	return &Loader{
		layers:     []string{},
		validation: true,
		envPrefix:  "TENTACLE",
	}
}

// AddLayer adds a configuration file layer. Later layers override earlier
// ones field by field.
func (l *Loader) AddLayer(path string) {
	l.layers = append(l.layers, path)
}

// EnableValidation enables or disables configuration validation
func (l *Loader) EnableValidation(enable bool) {
	l.validation = enable
}

// LoadFile loads configuration from a single file
func (l *Loader) LoadFile(path string) (*Config, error) {
	l.layers = []string{path}
	return l.Load()
}

// Load loads and merges all configuration layers
func (l *Loader) Load() (*Config, error) {
	cfg := l.getDefaults()

	for _, path := range l.layers {
		rawConfig, err := l.loadRawFile(path)
		if err != nil {
			return nil, errors.WrapInvalid(err, "Loader", "Load", "load "+path)
		}
		cfg = l.mergeFromMap(cfg, rawConfig)
	}

	l.applyEnvOverrides(cfg)

	if l.validation {
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// getDefaults returns default configuration
func (l *Loader) getDefaults() *Config {
	return &Config{
		Module: ModuleConfig{
			ID:          "tentacle-nftables",
			DeviceID:    "nftables",
			ServiceType: "nftables",
		},
		NATS: NATSConfig{
			URLs:          []string{"nats://localhost:4222"},
			MaxReconnects: -1,
			ReconnectWait: 2 * time.Second,
		},
		Publisher: PublisherConfig{
			Strategy: StrategyFlattened,
			Interval: 5 * time.Second,
		},
		Ruleset: RulesetConfig{
			Command: []string{"nft", "list", "ruleset"},
			Timeout: 10 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// loadRawFile loads a configuration layer as a map. The format is chosen
// by extension: .yaml/.yml use YAML, everything else JSON.
func (l *Loader) loadRawFile(path string) (map[string]any, error) {
	data, err := safeReadFile(path)
	if err != nil {
		return nil, err
	}

	var rawConfig map[string]any
	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		if err := yaml.Unmarshal(data, &rawConfig); err != nil {
			return nil, err
		}
		rawConfig = normalizeYAMLMap(rawConfig)
	} else {
		if err := validateJSONDepth(data); err != nil {
			return nil, fmt.Errorf("invalid JSON structure: %w", err)
		}
		if err := json.Unmarshal(data, &rawConfig); err != nil {
			return nil, err
		}
	}

	l.parseDurations(rawConfig)

	return rawConfig, nil
}

// normalizeYAMLMap converts yaml.v3's map[string]any values recursively so
// the merged map round-trips through encoding/json.
func normalizeYAMLMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = normalizeYAMLValue(v)
	}
	return out
}

func normalizeYAMLValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return normalizeYAMLMap(val)
	case map[any]any:
		out := make(map[string]any, len(val))
		for k, inner := range val {
			out[fmt.Sprint(k)] = normalizeYAMLValue(inner)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, inner := range val {
			out[i] = normalizeYAMLValue(inner)
		}
		return out
	default:
		return v
	}
}

// mergeFromMap merges configuration from a raw map, only overriding fields
// present in the map
func (l *Loader) mergeFromMap(base *Config, override map[string]any) *Config {
	if override == nil {
		return base
	}

	baseJSON, err := json.Marshal(base)
	if err != nil {
		return base
	}

	var baseMap map[string]any
	if err := json.Unmarshal(baseJSON, &baseMap); err != nil {
		return base
	}

	mergedMap := l.deepMergeMaps(baseMap, override)

	mergedJSON, err := json.Marshal(mergedMap)
	if err != nil {
		return base
	}

	var merged Config
	if err := json.Unmarshal(mergedJSON, &merged); err != nil {
		return base
	}

	return &merged
}

// deepMergeMaps recursively merges two maps, with override taking precedence
func (l *Loader) deepMergeMaps(base, override map[string]any) map[string]any {
	result := make(map[string]any)

	for k, v := range base {
		result[k] = v
	}

	for k, v := range override {
		if v == nil {
			continue
		}

		if baseMap, baseOk := base[k].(map[string]any); baseOk {
			if overrideMap, overrideOk := v.(map[string]any); overrideOk {
				result[k] = l.deepMergeMaps(baseMap, overrideMap)
				continue
			}
		}

		result[k] = v
	}

	return result
}

// parseDurations converts duration strings to nanoseconds so encoding/json
// can unmarshal them into time.Duration fields
func (l *Loader) parseDurations(data map[string]any) {
	parseKey := func(section map[string]any, key string) {
		if raw, ok := section[key].(string); ok {
			if d, err := time.ParseDuration(raw); err == nil {
				section[key] = d.Nanoseconds()
			}
		}
	}

	if nats, ok := data["nats"].(map[string]any); ok {
		parseKey(nats, "reconnect_wait")
	}
	if pub, ok := data["publisher"].(map[string]any); ok {
		parseKey(pub, "interval")
	}
	if rs, ok := data["ruleset"].(map[string]any); ok {
		parseKey(rs, "timeout")
	}
}

// applyEnvOverrides applies environment variable overrides
func (l *Loader) applyEnvOverrides(cfg *Config) {
	if val := os.Getenv(l.envPrefix + "_NAMESPACE"); val != "" {
		cfg.Module.Namespace = val
	}
	if val := os.Getenv(l.envPrefix + "_MODULE_ID"); val != "" {
		cfg.Module.ID = val
	}
	if val := os.Getenv(l.envPrefix + "_DEVICE_ID"); val != "" {
		cfg.Module.DeviceID = val
	}
	if val := os.Getenv(l.envPrefix + "_SERVICE_TYPE"); val != "" {
		cfg.Module.ServiceType = val
	}

	if val := os.Getenv(l.envPrefix + "_NATS_URLS"); val != "" {
		cfg.NATS.URLs = strings.Split(val, ",")
	}
	if val := os.Getenv(l.envPrefix + "_NATS_USERNAME"); val != "" {
		cfg.NATS.Username = val
	}
	if val := os.Getenv(l.envPrefix + "_NATS_PASSWORD"); val != "" {
		cfg.NATS.Password = val
	}
	if val := os.Getenv(l.envPrefix + "_NATS_TOKEN"); val != "" {
		cfg.NATS.Token = val
	}

	if val := os.Getenv(l.envPrefix + "_STRATEGY"); val != "" {
		cfg.Publisher.Strategy = val
	}
	if val := os.Getenv(l.envPrefix + "_INTERVAL"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Publisher.Interval = d
		}
	}

	if val := os.Getenv(l.envPrefix + "_LOG_LEVEL"); val != "" {
		cfg.Logging.Level = val
	}
	if val := os.Getenv(l.envPrefix + "_LOG_FORMAT"); val != "" {
		cfg.Logging.Format = val
	}

	if val := os.Getenv(l.envPrefix + "_METRICS_LISTEN"); val != "" {
		cfg.Metrics.Listen = val
	}
}

// SaveToFile saves the configuration to a JSON file
func (c *Config) SaveToFile(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return safeWriteFile(path, data)
}

// String returns a JSON representation of the config with credentials
// masked
func (c *Config) String() string {
	masked := c.Clone()
	if masked.NATS.Password != "" {
		masked.NATS.Password = "****"
	}
	if masked.NATS.Token != "" {
		masked.NATS.Token = "****"
	}
	data, _ := json.MarshalIndent(masked, "", "  ")
	return string(data)
}

// UnmarshalJSON implements custom JSON unmarshaling so duration fields
// accept both strings and nanosecond numbers
func (c *Config) UnmarshalJSON(data []byte) error {
	type Alias Config
	aux := &struct {
		NATS struct {
			URLs          []string      `json:"urls"`
			MaxReconnects int           `json:"max_reconnects"`
			ReconnectWait any           `json:"reconnect_wait"`
			Username      string        `json:"username,omitempty"`
			Password      string        `json:"password,omitempty"`
			Token         string        `json:"token,omitempty"`
			TLS           NATSTLSConfig `json:"tls,omitempty"`
		} `json:"nats"`
		Publisher struct {
			Strategy string `json:"strategy"`
			Interval any    `json:"interval"`
		} `json:"publisher"`
		Ruleset struct {
			Command []string `json:"command,omitempty"`
			Timeout any      `json:"timeout,omitempty"`
		} `json:"ruleset"`
		*Alias
	}{
		Alias: (*Alias)(c),
	}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	c.NATS.URLs = aux.NATS.URLs
	c.NATS.MaxReconnects = aux.NATS.MaxReconnects
	c.NATS.Username = aux.NATS.Username
	c.NATS.Password = aux.NATS.Password
	c.NATS.Token = aux.NATS.Token
	c.NATS.TLS = aux.NATS.TLS
	c.Publisher.Strategy = aux.Publisher.Strategy
	c.Ruleset.Command = aux.Ruleset.Command

	var err error
	if c.NATS.ReconnectWait, err = parseDurationValue(aux.NATS.ReconnectWait); err != nil {
		return err
	}
	if c.Publisher.Interval, err = parseDurationValue(aux.Publisher.Interval); err != nil {
		return err
	}
	if c.Ruleset.Timeout, err = parseDurationValue(aux.Ruleset.Timeout); err != nil {
		return err
	}

	return nil
}

func parseDurationValue(v any) (time.Duration, error) {
	switch val := v.(type) {
	case nil:
		return 0, nil
	case string:
		return time.ParseDuration(val)
	case float64:
		return time.Duration(val), nil
	case json.Number:
		n, err := strconv.ParseInt(val.String(), 10, 64)
		if err != nil {
			return 0, err
		}
		return time.Duration(n), nil
	default:
		return 0, fmt.Errorf("unsupported duration value %v", v)
	}
}
