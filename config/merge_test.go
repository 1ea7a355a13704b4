package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/grovetools/ftrack/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestLoadMergesOverrideFile(t *testing.T) {
	dir := t.TempDir()
	base := filepath.Join(dir, "ftrack.yml")
	writeFile(t, base, `
session:
  refresh_threshold: 5m
  refresh_interval: 30s
storage:
  backend: memory
  key_prefix: "team:"
`)
	writeFile(t, filepath.Join(dir, "ftrack.override.yml"), `
session:
  refresh_threshold: 1m
`)

	cfg, err := Load(base)
	require.NoError(t, err)

	assert.Equal(t, time.Minute, cfg.Session.Threshold())
	assert.Equal(t, 30*time.Second, cfg.Session.Interval(), "keys missing from the override keep the base value")
	assert.Equal(t, "team:", cfg.Storage.KeyPrefix)
	assert.Equal(t, BackendMemory, cfg.Storage.Backend)
}

func TestOverrideFilesOrder(t *testing.T) {
	dir := t.TempDir()
	base := filepath.Join(dir, "ftrack.toml")
	writeFile(t, base, "")
	writeFile(t, filepath.Join(dir, ".ftrack.override.yml"), "storage:\n  key_prefix: hidden\n")
	writeFile(t, filepath.Join(dir, "ftrack.override.yml"), "storage:\n  key_prefix: visible\n")

	files := OverrideFiles(base)
	require.Len(t, files, 2)
	assert.Equal(t, "ftrack.override.yml", filepath.Base(files[0]))
	assert.Equal(t, ".ftrack.override.yml", filepath.Base(files[1]))

	cfg, err := Load(base)
	require.NoError(t, err)
	assert.Equal(t, "hidden", cfg.Storage.KeyPrefix, "later overrides win")
}

func TestInvalidOverrideReportsItsPath(t *testing.T) {
	dir := t.TempDir()
	base := filepath.Join(dir, "ftrack.yml")
	override := filepath.Join(dir, "ftrack.override.yml")
	writeFile(t, base, "storage:\n  backend: memory\n")
	writeFile(t, override, "storage:\n  unknown_key: 1\n")

	_, err := Load(base)
	require.Error(t, err)
	coded, ok := errors.As(err)
	require.True(t, ok)
	assert.Equal(t, errors.ErrCodeConfigInvalid, coded.Code)
	assert.Equal(t, override, coded.Details["path"])
}
