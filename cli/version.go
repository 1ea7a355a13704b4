package cli

import (
	"fmt"

	"github.com/grovetools/ftrack/version"
	"github.com/spf13/cobra"
)

// NewVersionCommand creates the version command. Honors --json.
func NewVersionCommand(name string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: fmt.Sprintf("Print the version of %s", name),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			info := version.GetInfo()
			if GetOptions(cmd).JSONOutput {
				return PrintJSON(cmd.OutOrStdout(), info)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n%s\n", name, info.Version, info)
			return nil
		},
	}
}
