package config

import (
	"fmt"
	"net/url"
	"time"

	"github.com/grovetools/ftrack/errors"
)

// Validate checks the semantic rules the schema cannot express.
func (c *Config) Validate() error {
	u, err := url.Parse(c.API.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return errors.New(errors.ErrCodeConfigValidation,
			fmt.Sprintf("api.base_url must be an http(s) URL, got %q", c.API.BaseURL)).
			WithDetail("field", "api.base_url")
	}

	durations := []struct {
		field string
		value string
	}{
		{"api.timeout", c.API.Timeout},
		{"session.refresh_interval", c.Session.RefreshInterval},
		{"session.refresh_threshold", c.Session.RefreshThreshold},
	}
	for _, d := range durations {
		parsed, err := time.ParseDuration(d.value)
		if err != nil {
			return errors.Wrap(err, errors.ErrCodeConfigValidation,
				fmt.Sprintf("%s is not a valid duration", d.field)).
				WithDetail("field", d.field)
		}
		if parsed <= 0 {
			return errors.New(errors.ErrCodeConfigValidation,
				fmt.Sprintf("%s must be positive", d.field)).
				WithDetail("field", d.field)
		}
	}

	if c.Storage.Backend == BackendRedis && c.Storage.RedisURL == "" {
		return errors.New(errors.ErrCodeConfigValidation,
			"storage.redis_url is required for the redis backend").
			WithDetail("field", "storage.redis_url")
	}

	return nil
}
