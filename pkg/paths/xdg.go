// Package paths resolves the directories ftrack reads and writes.
//
// Resolution order:
// 1. FTRACK_HOME (portable root) → $FTRACK_HOME/{config,data,state,cache}
// 2. XDG env vars → $XDG_*_HOME/ftrack
// 3. Platform defaults → ~/.config/ftrack, ~/.local/state/ftrack, etc.
package paths

import (
	"os"
	"path/filepath"
)

const appName = "ftrack"

// HomeEnv is the portable-root override.
const HomeEnv = "FTRACK_HOME"

// resolve returns the application directory for one XDG category.
// homeSub is the FTRACK_HOME subdirectory, xdgEnv the XDG variable and
// fallback the path below the user's home directory.
func resolve(homeSub, xdgEnv string, fallback ...string) string {
	if home := os.Getenv(HomeEnv); home != "" {
		return filepath.Join(home, homeSub)
	}
	if dir := os.Getenv(xdgEnv); dir != "" {
		return filepath.Join(dir, appName)
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	parts := append([]string{homeDir}, fallback...)
	return filepath.Join(append(parts, appName)...)
}

// ConfigDir returns the configuration directory (ftrack.yml lives here).
func ConfigDir() string {
	return resolve("config", "XDG_CONFIG_HOME", ".config")
}

// DataDir returns the data directory.
func DataDir() string {
	return resolve("data", "XDG_DATA_HOME", ".local", "share")
}

// StateDir returns the state directory.
// Used for the durable session store and logs.
func StateDir() string {
	return resolve("state", "XDG_STATE_HOME", ".local", "state")
}

// CacheDir returns the cache directory.
func CacheDir() string {
	return resolve("cache", "XDG_CACHE_HOME", ".cache")
}

// LogsDir returns the directory holding the file log sink.
func LogsDir() string {
	state := StateDir()
	if state == "" {
		return ""
	}
	return filepath.Join(state, "logs")
}

// EnsureDirs creates all ftrack directories if they don't exist.
func EnsureDirs() error {
	for _, dir := range []string{ConfigDir(), DataDir(), StateDir(), CacheDir(), LogsDir()} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return nil
}
