package config

import (
	"os"
	"path/filepath"

	"github.com/grovetools/ftrack/errors"
)

// overrideNames are machine-local files layered over the config file in the
// same directory. They are meant to stay out of version control.
var overrideNames = []string{
	"ftrack.override.yml",
	"ftrack.override.yaml",
	".ftrack.override.yml",
	".ftrack.override.yaml",
}

// OverrideFiles returns the override files that exist next to baseFile, in
// the order they are applied.
func OverrideFiles(baseFile string) []string {
	dir := filepath.Dir(baseFile)
	var found []string
	for _, name := range overrideNames {
		path := filepath.Join(dir, name)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			found = append(found, path)
		}
	}
	return found
}

// mergeOverrides decodes every override file of baseFile onto cfg. Keys an
// override leaves out keep the value from the base file; lists are replaced
// as a whole.
func mergeOverrides(cfg *Config, baseFile string) error {
	for _, path := range OverrideFiles(baseFile) {
		data, err := os.ReadFile(path)
		if err != nil {
			return errors.Wrap(err, errors.ErrCodeConfigInvalid, "failed to read override file").
				WithDetail("path", path)
		}
		if err := decode(data, FormatYAML, cfg); err != nil {
			return withPath(err, path)
		}
	}
	return nil
}
