package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/grovetools/ftrack/errors"
	"github.com/grovetools/ftrack/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromBytesDefaults(t *testing.T) {
	cfg, err := LoadFromBytes([]byte("api:\n  base_url: https://api.example.com\n"), FormatYAML)
	require.NoError(t, err)

	assert.Equal(t, "https://api.example.com", cfg.API.BaseURL)
	assert.Equal(t, DefaultTimeout, cfg.API.TimeoutDuration())
	assert.Equal(t, time.Minute, cfg.Session.Interval())
	assert.Equal(t, 3*time.Minute, cfg.Session.Threshold())
	assert.True(t, cfg.Session.WatchEnabled())
	assert.Equal(t, BackendFile, cfg.Storage.Backend)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadFromBytesTOML(t *testing.T) {
	data := []byte(`
[api]
base_url = "http://localhost:8080/api"
timeout = "5s"

[storage]
backend = "sqlite"
path = "/tmp/ftrack.db"
`)
	cfg, err := LoadFromBytes(data, FormatTOML)
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, cfg.API.TimeoutDuration())
	assert.Equal(t, BackendSQLite, cfg.Storage.Backend)
	assert.Equal(t, "/tmp/ftrack.db", cfg.Storage.ResolvedPath())
}

func TestEnvVarExpansion(t *testing.T) {
	t.Setenv("FTRACK_TEST_HOST", "api.internal")

	data := []byte(`
api:
  base_url: https://${FTRACK_TEST_HOST}/v1
  timeout: ${FTRACK_TEST_TIMEOUT:-12s}
`)
	cfg, err := LoadFromBytes(data, FormatYAML)
	require.NoError(t, err)
	assert.Equal(t, "https://api.internal/v1", cfg.API.BaseURL)
	assert.Equal(t, "12s", cfg.API.Timeout)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("FTRACK_API_URL", "https://override.example.com")
	t.Setenv("FTRACK_STORAGE_BACKEND", "redis")
	t.Setenv("FTRACK_REDIS_URL", "redis://localhost:6379/0")

	cfg, err := LoadFromBytes([]byte("api:\n  base_url: https://file.example.com\n"), FormatYAML)
	require.NoError(t, err)
	assert.Equal(t, "https://override.example.com", cfg.API.BaseURL)
	assert.Equal(t, BackendRedis, cfg.Storage.Backend)
	assert.Equal(t, "redis://localhost:6379/0", cfg.Storage.RedisURL)
}

func TestValidationErrors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		code errors.ErrorCode
	}{
		{
			name: "unknown field rejected by schema",
			yaml: "api:\n  base_url: https://x.io\n  retries: 3\n",
			code: errors.ErrCodeConfigInvalid,
		},
		{
			name: "unknown backend rejected by schema",
			yaml: "storage:\n  backend: etcd\n",
			code: errors.ErrCodeConfigInvalid,
		},
		{
			name: "bad url",
			yaml: "api:\n  base_url: not-a-url\n",
			code: errors.ErrCodeConfigValidation,
		},
		{
			name: "bad duration",
			yaml: "session:\n  refresh_interval: soon\n",
			code: errors.ErrCodeConfigValidation,
		},
		{
			name: "redis without url",
			yaml: "storage:\n  backend: redis\n",
			code: errors.ErrCodeConfigValidation,
		},
		{
			name: "malformed yaml",
			yaml: "api: [",
			code: errors.ErrCodeConfigInvalid,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("FTRACK_REDIS_URL", "")
			_, err := LoadFromBytes([]byte(tt.yaml), FormatYAML)
			require.Error(t, err)
			assert.Equal(t, tt.code, errors.GetCode(err), err.Error())
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yml"))
	assert.True(t, errors.Is(err, errors.ErrCodeConfigNotFound))
}

func TestFindConfigFile(t *testing.T) {
	t.Setenv("FTRACK_HOME", t.TempDir())
	root := t.TempDir()
	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "ftrack.toml"), []byte("[api]\n"), 0644))

	path, err := FindConfigFile(nested)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "ftrack.toml"), path)
	assert.Equal(t, FormatTOML, FormatForPath(path))

	_, err = FindConfigFile(t.TempDir())
	assert.True(t, errors.Is(err, errors.ErrCodeConfigNotFound))
}

func TestLoadDefaultWithoutFile(t *testing.T) {
	t.Setenv("FTRACK_HOME", t.TempDir())
	t.Setenv("FTRACK_CONFIG", "")
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { os.Chdir(wd) })

	cfg, path, err := LoadDefault("", logging.Discard())
	require.NoError(t, err)
	assert.Empty(t, path)
	assert.Equal(t, DefaultBaseURL, cfg.API.BaseURL)
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("FTRACK_TEST_DOTENV=from-file\n"), 0644))
	t.Setenv("FTRACK_TEST_DOTENV", "")
	os.Unsetenv("FTRACK_TEST_DOTENV")

	require.NoError(t, LoadDotEnv(dir))
	assert.Equal(t, "from-file", os.Getenv("FTRACK_TEST_DOTENV"))

	t.Setenv("FTRACK_ENV", "production")
	t.Setenv("FTRACK_TEST_DOTENV", "kept")
	require.NoError(t, LoadDotEnv(dir))
	assert.Equal(t, "kept", os.Getenv("FTRACK_TEST_DOTENV"))
}
