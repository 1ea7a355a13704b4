package cmd

import (
	"fmt"

	"github.com/grovetools/ftrack/cli"
	"github.com/grovetools/ftrack/config"
	"github.com/grovetools/ftrack/pkg/paths"
	"github.com/grovetools/ftrack/tui/components/table"
	"github.com/spf13/cobra"
)

// PathsOutput lists the directories and files ftrack uses.
type PathsOutput struct {
	ConfigDir string `json:"config_dir"`
	DataDir   string `json:"data_dir"`
	StateDir  string `json:"state_dir"`
	CacheDir  string `json:"cache_dir"`
	LogsDir   string `json:"logs_dir"`
	StateFile string `json:"state_file,omitempty"`
}

// NewPathsCmd creates the `paths` command.
func NewPathsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "paths",
		Short: "Print the directories ftrack reads and writes",
		Long: `Print the directories ftrack uses. FTRACK_HOME moves all of them under one
root; otherwise the XDG base directories apply.

- config_dir: ftrack.yml
- state_dir: the saved session and sort preference (file and sqlite backends)
- logs_dir: per-component log files
- state_file: the durable state file of the configured backend`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := PathsOutput{
				ConfigDir: paths.ConfigDir(),
				DataDir:   paths.DataDir(),
				StateDir:  paths.StateDir(),
				CacheDir:  paths.CacheDir(),
				LogsDir:   paths.LogsDir(),
			}
			if cfg, _, err := loadConfig(cmd); err == nil {
				switch cfg.Storage.Backend {
				case config.BackendFile, config.BackendSQLite, "":
					output.StateFile = cfg.Storage.ResolvedPath()
				}
			}

			if cli.GetOptions(cmd).JSONOutput {
				return cli.PrintJSON(cmd.OutOrStdout(), output)
			}
			pairs := [][2]string{
				{"config", output.ConfigDir},
				{"data", output.DataDir},
				{"state", output.StateDir},
				{"cache", output.CacheDir},
				{"logs", output.LogsDir},
			}
			if output.StateFile != "" {
				pairs = append(pairs, [2]string{"state file", output.StateFile})
			}
			fmt.Fprintln(cmd.OutOrStdout(), table.KeyValue(pairs))
			return nil
		},
	}
}
