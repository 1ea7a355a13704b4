package config

import (
	"path/filepath"
	"time"

	"github.com/grovetools/ftrack/logging"
	"github.com/grovetools/ftrack/pkg/paths"
)

// Storage backends
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

const (
	DefaultBaseURL          = "http://localhost:5000/api"
	DefaultTimeout          = 30 * time.Second
	DefaultRefreshInterval  = 60 * time.Second
	DefaultRefreshThreshold = 3 * time.Minute
	DefaultKeyPrefix        = "ftrack:"
)

// Config is the root of ftrack.yml.
type Config struct {
	API     APIConfig      `yaml:"api" toml:"api" json:"api" jsonschema:"description=Backend connection"`
	Session SessionConfig  `yaml:"session" toml:"session" json:"session" jsonschema:"description=Token refresh behaviour"`
	Storage StorageConfig  `yaml:"storage" toml:"storage" json:"storage" jsonschema:"description=Durable local state"`
	Logging logging.Config `yaml:"logging" toml:"logging" json:"logging" jsonschema:"description=Structured logging"`
}

// APIConfig points the client at the backend.
type APIConfig struct {
	BaseURL string `yaml:"base_url" toml:"base_url" json:"base_url" jsonschema:"description=Base URL of the REST API (FTRACK_API_URL)"`
	Timeout string `yaml:"timeout" toml:"timeout" json:"timeout" jsonschema:"description=Per-request timeout as a Go duration"`
}

// SessionConfig tunes the refresh monitor.
type SessionConfig struct {
	RefreshInterval  string `yaml:"refresh_interval" toml:"refresh_interval" json:"refresh_interval" jsonschema:"description=How often the token expiry is checked"`
	RefreshThreshold string `yaml:"refresh_threshold" toml:"refresh_threshold" json:"refresh_threshold" jsonschema:"description=Refresh when less than this is left before expiry"`
	Watch            *bool  `yaml:"watch,omitempty" toml:"watch,omitempty" json:"watch,omitempty" jsonschema:"description=Reload the session when another process changes the state file"`
}

// StorageConfig selects the durable key-value backend.
type StorageConfig struct {
	Backend   string `yaml:"backend" toml:"backend" json:"backend" jsonschema:"enum=file,enum=sqlite,enum=redis,enum=memory,description=Durable state backend"`
	Path      string `yaml:"path,omitempty" toml:"path,omitempty" json:"path,omitempty" jsonschema:"description=State file for the file and sqlite backends"`
	RedisURL  string `yaml:"redis_url,omitempty" toml:"redis_url,omitempty" json:"redis_url,omitempty" jsonschema:"description=redis:// URL for the redis backend"`
	KeyPrefix string `yaml:"key_prefix" toml:"key_prefix" json:"key_prefix" jsonschema:"description=Prefix applied to keys in shared backends"`
}

// Default returns a configuration with every default applied.
func Default() *Config {
	c := &Config{}
	c.SetDefaults()
	return c
}

// SetDefaults sets default values for configuration
func (c *Config) SetDefaults() {
	if c.API.BaseURL == "" {
		c.API.BaseURL = DefaultBaseURL
	}
	if c.API.Timeout == "" {
		c.API.Timeout = DefaultTimeout.String()
	}
	if c.Session.RefreshInterval == "" {
		c.Session.RefreshInterval = DefaultRefreshInterval.String()
	}
	if c.Session.RefreshThreshold == "" {
		c.Session.RefreshThreshold = DefaultRefreshThreshold.String()
	}
	if c.Session.Watch == nil {
		watch := true
		c.Session.Watch = &watch
	}
	if c.Storage.Backend == "" {
		c.Storage.Backend = BackendFile
	}
	if c.Storage.KeyPrefix == "" {
		c.Storage.KeyPrefix = DefaultKeyPrefix
	}

	defaults := logging.DefaultConfig()
	if c.Logging.Level == "" {
		c.Logging.Level = defaults.Level
	}
	if c.Logging.Stderr == "" {
		c.Logging.Stderr = defaults.Stderr
	}
	if c.Logging.Format == "" {
		c.Logging.Format = defaults.Format
	}
}

// TimeoutDuration returns the parsed request timeout.
func (a APIConfig) TimeoutDuration() time.Duration {
	return parseDuration(a.Timeout, DefaultTimeout)
}

// Interval returns the parsed refresh check interval.
func (s SessionConfig) Interval() time.Duration {
	return parseDuration(s.RefreshInterval, DefaultRefreshInterval)
}

// Threshold returns the parsed refresh threshold.
func (s SessionConfig) Threshold() time.Duration {
	return parseDuration(s.RefreshThreshold, DefaultRefreshThreshold)
}

// WatchEnabled reports whether the state file watcher should run.
func (s SessionConfig) WatchEnabled() bool {
	return s.Watch == nil || *s.Watch
}

// ResolvedPath returns the state file for file-based backends.
func (s StorageConfig) ResolvedPath() string {
	if s.Path != "" {
		return expandHome(s.Path)
	}
	switch s.Backend {
	case BackendSQLite:
		return filepath.Join(paths.StateDir(), "state.db")
	default:
		return filepath.Join(paths.StateDir(), "state.yml")
	}
}

func parseDuration(value string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
