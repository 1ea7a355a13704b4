package paths

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHomeOverride(t *testing.T) {
	root := t.TempDir()
	t.Setenv(HomeEnv, root)

	assert.Equal(t, filepath.Join(root, "config"), ConfigDir())
	assert.Equal(t, filepath.Join(root, "data"), DataDir())
	assert.Equal(t, filepath.Join(root, "state"), StateDir())
	assert.Equal(t, filepath.Join(root, "cache"), CacheDir())
	assert.Equal(t, filepath.Join(root, "state", "logs"), LogsDir())

	require.NoError(t, EnsureDirs())
	assert.DirExists(t, LogsDir())
}

func TestXDGVariables(t *testing.T) {
	t.Setenv(HomeEnv, "")
	xdg := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(xdg, "cfg"))
	t.Setenv("XDG_STATE_HOME", filepath.Join(xdg, "st"))

	assert.Equal(t, filepath.Join(xdg, "cfg", "ftrack"), ConfigDir())
	assert.Equal(t, filepath.Join(xdg, "st", "ftrack"), StateDir())
}
