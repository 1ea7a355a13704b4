package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/grovetools/ftrack/errors"
	"github.com/joho/godotenv"
	"github.com/mitchellh/mapstructure"
)

// envOverride maps an environment variable onto a dotted config path.
type envOverride struct {
	Env  string
	Path []string
}

var envOverrides = []envOverride{
	{Env: "FTRACK_API_URL", Path: []string{"api", "base_url"}},
	{Env: "FTRACK_API_TIMEOUT", Path: []string{"api", "timeout"}},
	{Env: "FTRACK_REFRESH_INTERVAL", Path: []string{"session", "refresh_interval"}},
	{Env: "FTRACK_STORAGE_BACKEND", Path: []string{"storage", "backend"}},
	{Env: "FTRACK_STORAGE_PATH", Path: []string{"storage", "path"}},
	{Env: "FTRACK_REDIS_URL", Path: []string{"storage", "redis_url"}},
	{Env: "FTRACK_LOG_LEVEL", Path: []string{"logging", "level"}},
}

// LoadDotEnv loads a .env file from dir into the process environment.
// Variables already set win. Skipped when FTRACK_ENV=production.
func LoadDotEnv(dir string) error {
	if os.Getenv("FTRACK_ENV") == "production" {
		return nil
	}
	path := filepath.Join(dir, ".env")
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return errors.Wrap(err, errors.ErrCodeConfigInvalid, "failed to load .env").
			WithDetail("path", path)
	}
	return nil
}

// ApplyEnvOverrides decodes the FTRACK_* variables that are set on top of cfg.
func ApplyEnvOverrides(cfg *Config) error {
	overlay := map[string]interface{}{}
	for _, o := range envOverrides {
		value, ok := os.LookupEnv(o.Env)
		if !ok || value == "" {
			continue
		}
		setPath(overlay, o.Path, value)
	}
	if len(overlay) == 0 {
		return nil
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           cfg,
		TagName:          "yaml",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return fmt.Errorf("failed to create mapstructure decoder: %w", err)
	}
	if err := decoder.Decode(overlay); err != nil {
		return errors.Wrap(err, errors.ErrCodeConfigInvalid, "invalid environment override")
	}
	return nil
}

func setPath(m map[string]interface{}, path []string, value string) {
	for _, key := range path[:len(path)-1] {
		next, ok := m[key].(map[string]interface{})
		if !ok {
			next = map[string]interface{}{}
			m[key] = next
		}
		m = next
	}
	m[path[len(path)-1]] = value
}
