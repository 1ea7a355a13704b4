package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// IsolateHome points FTRACK_HOME at a fresh temp dir so nothing touches the
// real state directory, and returns it.
func IsolateHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("FTRACK_HOME", home)
	t.Setenv("FTRACK_CONFIG", "")
	return home
}

// WriteConfig writes an ftrack.yml into dir and returns its path.
func WriteConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "ftrack.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// Chdir changes the working directory for the duration of the test.
func Chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}
