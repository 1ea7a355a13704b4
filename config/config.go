package config

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/grovetools/ftrack/errors"
	"github.com/grovetools/ftrack/pkg/paths"
	"github.com/pelletier/go-toml/v2"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Format is the on-disk syntax of a configuration file.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

var configNames = []string{
	"ftrack.yml",
	"ftrack.yaml",
	".ftrack.yml",
	"ftrack.toml",
}

// Load reads and parses an ftrack configuration file. Override files next
// to it are merged on top before defaults and validation are applied.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.ConfigNotFound(path)
		}
		return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "failed to read config file").
			WithDetail("path", path)
	}

	var cfg Config
	if err := decode(data, FormatForPath(path), &cfg); err != nil {
		return nil, withPath(err, path)
	}
	if err := mergeOverrides(&cfg, path); err != nil {
		return nil, err
	}
	result, err := finalize(&cfg)
	if err != nil {
		return nil, withPath(err, path)
	}
	return result, nil
}

func withPath(err error, path string) error {
	if coded, ok := errors.As(err); ok {
		if _, set := coded.Details["path"]; !set {
			coded.WithDetail("path", path)
		}
	}
	return err
}

// LoadDefault resolves the configuration for a command invocation. An
// explicit path must exist; otherwise $FTRACK_CONFIG, the working directory
// and its parents, then the user config dir are searched. When nothing is
// found the defaults (plus environment overrides) are returned. The second
// return value is the file that was loaded, or "".
func LoadDefault(explicit string, logger *logrus.Entry) (*Config, string, error) {
	if explicit == "" {
		explicit = os.Getenv("FTRACK_CONFIG")
	}
	if explicit != "" {
		cfg, err := Load(explicit)
		return cfg, explicit, err
	}

	cwd, err := os.Getwd()
	if err != nil {
		return nil, "", errors.Wrap(err, errors.ErrCodeConfigInvalid, "failed to get current directory")
	}

	path, err := FindConfigFile(cwd)
	if err != nil {
		if errors.Is(err, errors.ErrCodeConfigNotFound) {
			logger.Debug("No configuration file found, using defaults")
			cfg, err := finalize(&Config{})
			return cfg, "", err
		}
		return nil, "", err
	}

	logger.WithField("path", path).Debug("Loading configuration")
	cfg, err := Load(path)
	return cfg, path, err
}

// LoadFromBytes parses configuration from byte array
func LoadFromBytes(data []byte, format Format) (*Config, error) {
	var cfg Config
	if err := decode(data, format, &cfg); err != nil {
		return nil, err
	}
	return finalize(&cfg)
}

// decode parses data onto cfg. Keys missing from data leave cfg untouched.
func decode(data []byte, format Format, cfg *Config) error {
	expanded := []byte(expandEnvVars(string(data)))

	// Unknown keys are rejected here; the schema only sees the decoded struct.
	switch format {
	case FormatTOML:
		dec := toml.NewDecoder(bytes.NewReader(expanded))
		dec.DisallowUnknownFields()
		if err := dec.Decode(cfg); err != nil {
			return errors.Wrap(err, errors.ErrCodeConfigInvalid, "failed to parse TOML configuration")
		}
	default:
		dec := yaml.NewDecoder(bytes.NewReader(expanded))
		dec.KnownFields(true)
		if err := dec.Decode(cfg); err != nil && err != io.EOF {
			return errors.Wrap(err, errors.ErrCodeConfigInvalid, "failed to parse YAML configuration")
		}
	}
	return nil
}

// finalize applies environment overrides and defaults, then validates.
func finalize(cfg *Config) (*Config, error) {
	if err := ApplyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	cfg.SetDefaults()

	validator, err := NewSchemaValidator()
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to create validator")
	}
	if err := validator.Validate(cfg); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "schema validation failed")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// FormatForPath picks the parser from the file extension.
func FormatForPath(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		return FormatTOML
	}
	return FormatYAML
}

// FindConfigFile searches for ftrack configuration files with the following precedence:
// 1. Current directory up to filesystem root
// 2. User config directory (~/.config/ftrack/ftrack.yml)
func FindConfigFile(startDir string) (string, error) {
	dir := startDir
	for {
		if path := firstExisting(dir); path != "" {
			return path, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	if configDir := paths.ConfigDir(); configDir != "" {
		if path := firstExisting(configDir); path != "" {
			return path, nil
		}
	}

	return "", errors.ConfigNotFound(startDir).WithDetail("searchPath", startDir)
}

func firstExisting(dir string) string {
	for _, name := range configNames {
		path := filepath.Join(dir, name)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path
		}
	}
	return ""
}

// expandEnvVars replaces ${VAR} with environment variable values
func expandEnvVars(content string) string {
	return envVarRegex.ReplaceAllStringFunc(content, func(match string) string {
		varName := envVarRegex.FindStringSubmatch(match)[1]

		// Handle default values: ${VAR:-default}
		parts := strings.SplitN(varName, ":-", 2)
		varName = parts[0]
		defaultValue := ""
		if len(parts) > 1 {
			defaultValue = parts[1]
		}

		if value := os.Getenv(varName); value != "" {
			return value
		}

		return defaultValue
	})
}

func expandHome(path string) string {
	if strings.HasPrefix(path, "~") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}
