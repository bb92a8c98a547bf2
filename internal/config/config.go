// Package config loads the YAML deployment configuration and supplies the
// defaults used when no file is present.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/agentid-dev/agentid-core/pkg/eventlog"
	"github.com/agentid-dev/agentid-core/pkg/timeseries"
	"github.com/agentid-dev/agentid-core/pkg/verify"
)

// DefaultPath is tried when no configuration path is given.
const DefaultPath = "agentid.yaml"

// Duration is a time.Duration that unmarshals from YAML strings like "30s"
// or "5m", or from a plain integer nanosecond count.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var n int64
	if err := value.Decode(&n); err == nil {
		*d = Duration(n)
		return nil
	}

	var raw string
	if err := value.Decode(&raw); err != nil {
		return fmt.Errorf("invalid duration value: %w", err)
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// Config holds the whole deployment configuration.
type Config struct {
	Storage   StorageConfig   `yaml:"storage"`
	Verify    VerifyConfig    `yaml:"verify"`
	Events    EventsConfig    `yaml:"events"`
	Analytics AnalyticsConfig `yaml:"analytics"`
}

// StorageConfig locates the persistence backend.
type StorageConfig struct {
	// Path is the SQLite database file. Created on first use.
	Path string `yaml:"path"`
}

// VerifyConfig tunes the verification service.
type VerifyConfig struct {
	Concurrency   int      `yaml:"concurrency"`
	MaxBatchItems int      `yaml:"max_batch_items"`
	CacheTTL      Duration `yaml:"cache_ttl"`
}

// EventsConfig tunes the asynchronous verification event recorder.
type EventsConfig struct {
	QueueSize int `yaml:"queue_size"`
}

// AnalyticsConfig tunes anomaly detection over verification series.
type AnalyticsConfig struct {
	AnomalyWindow    int     `yaml:"anomaly_window"`
	AnomalyThreshold float64 `yaml:"anomaly_threshold"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Storage: StorageConfig{Path: "agentid.db"},
		Verify: VerifyConfig{
			Concurrency:   verify.DefaultConcurrency,
			MaxBatchItems: verify.DefaultMaxBatchItems,
			CacheTTL:      Duration(5 * time.Minute),
		},
		Events: EventsConfig{QueueSize: eventlog.DefaultQueueSize},
		Analytics: AnalyticsConfig{
			AnomalyWindow:    timeseries.DefaultAnomalyWindow,
			AnomalyThreshold: timeseries.DefaultAnomalyThreshold,
		},
	}
}

// Load reads the configuration at path. An empty path falls back to
// DefaultPath, and to the built-in defaults when that file does not exist
// either. Fields a file leaves unset keep their default values.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if path == "" {
		path = DefaultPath
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate rejects values the runtime cannot work with.
func (c *Config) Validate() error {
	if c.Storage.Path == "" {
		return fmt.Errorf("storage.path must not be empty")
	}
	if c.Verify.Concurrency < 1 {
		return fmt.Errorf("verify.concurrency must be at least 1")
	}
	if c.Verify.MaxBatchItems < 1 {
		return fmt.Errorf("verify.max_batch_items must be at least 1")
	}
	if c.Verify.CacheTTL < 0 {
		return fmt.Errorf("verify.cache_ttl must not be negative")
	}
	if c.Events.QueueSize < 1 {
		return fmt.Errorf("events.queue_size must be at least 1")
	}
	if c.Analytics.AnomalyWindow < 1 {
		return fmt.Errorf("analytics.anomaly_window must be at least 1")
	}
	if c.Analytics.AnomalyThreshold <= 0 {
		return fmt.Errorf("analytics.anomaly_threshold must be positive")
	}
	return nil
}
