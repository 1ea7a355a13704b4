package cmd

import (
	"fmt"

	"github.com/grovetools/ftrack/cli"
	"github.com/grovetools/ftrack/config"
	"github.com/grovetools/ftrack/tui/theme"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// NewConfigCmd creates the `config` command group.
func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect and validate ftrack configuration",
		Long: `Inspect the effective configuration. It is built from ftrack.yml or
ftrack.toml (--config, $FTRACK_CONFIG, the working directory and its
parents, then the user config directory), an ftrack.override.yml next to
that file, a .env file in the working directory, and FTRACK_* environment
overrides.`,
	}
	cmd.AddCommand(newConfigShowCmd())
	cmd.AddCommand(newConfigValidateCmd())
	cmd.AddCommand(newConfigSchemaCmd())
	return cmd
}

func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, path, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if cli.GetOptions(cmd).JSONOutput {
				return cli.PrintJSON(cmd.OutOrStdout(), cfg)
			}
			source := path
			if source == "" {
				source = "defaults (no config file found)"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "# Source: %s\n", source)
			if path != "" {
				for _, o := range config.OverrideFiles(path) {
					fmt.Fprintf(cmd.OutOrStdout(), "# Override: %s\n", o)
				}
			}
			data, err := yaml.Marshal(cfg)
			if err != nil {
				return fmt.Errorf("failed to marshal config: %w", err)
			}
			fmt.Fprint(cmd.OutOrStdout(), string(data))
			return nil
		},
	}
}

func newConfigValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate [path]",
		Short: "Check a configuration file against the schema",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				path string
				err  error
			)
			if len(args) == 1 {
				path = args[0]
				_, err = config.Load(path)
			} else {
				_, path, err = loadConfig(cmd)
			}
			if err != nil {
				return err
			}
			if path == "" {
				path = "defaults"
			}
			fmt.Fprintln(cmd.OutOrStdout(), theme.DefaultTheme.Success.Render(theme.IconSuccess+" "+path+" is valid"))
			return nil
		},
	}
}

func newConfigSchemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Print the JSON Schema for ftrack.yml",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := config.GenerateSchema()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		},
	}
}

func loadConfig(cmd *cobra.Command) (*config.Config, string, error) {
	return config.LoadDefault(cli.GetOptions(cmd).ConfigFile, cli.GetLogger(cmd))
}
