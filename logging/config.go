package logging

// Config defines the logging section of ftrack.yml.
type Config struct {
	// Level is the minimum log level to output (e.g., "debug", "info", "warn", "error").
	// Can be overridden by the FTRACK_LOG_LEVEL environment variable.
	Level string `yaml:"level" toml:"level" json:"level" jsonschema:"enum=trace,enum=debug,enum=info,enum=warn,enum=warning,enum=error"`

	// ReportCaller, if true, includes the file, line, and function name in the log output.
	// Can be enabled with FTRACK_LOG_CALLER=true.
	ReportCaller bool `yaml:"report_caller" toml:"report_caller" json:"report_caller"`

	// Stderr controls when structured logs are sent to stderr: "auto", "always" or "never".
	Stderr string `yaml:"stderr" toml:"stderr" json:"stderr" jsonschema:"enum=auto,enum=always,enum=never"`

	// Format is "text" (default), "simple" or "json".
	Format string `yaml:"format" toml:"format" json:"format" jsonschema:"enum=text,enum=simple,enum=json"`

	File FileSinkConfig `yaml:"file" toml:"file" json:"file"`
}

// FileSinkConfig configures the file logging sink.
type FileSinkConfig struct {
	Enabled bool `yaml:"enabled" toml:"enabled" json:"enabled"`
	// Path overrides the default <state dir>/logs/<component>-<date>.log.
	Path string `yaml:"path,omitempty" toml:"path,omitempty" json:"path,omitempty"`
}

// FormatConfig controls the text formatter.
type FormatConfig struct {
	DisableTimestamp bool
	DisableComponent bool
}

// DefaultConfig returns the logging defaults.
func DefaultConfig() Config {
	return Config{
		Level:  "info",
		Stderr: "auto",
		Format: "text",
		File:   FileSinkConfig{Enabled: true},
	}
}
