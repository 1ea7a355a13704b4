// Package cmd implements the ftrack command line.
package cmd

import (
	"github.com/grovetools/ftrack/cli"
	"github.com/spf13/cobra"
)

// NewRootCmd builds the ftrack command tree.
func NewRootCmd() *cobra.Command {
	root := cli.NewStandardCommand("ftrack", "Track clients and their tasks from the terminal")
	root.Long = `ftrack signs in to the freelancer tracker backend and manages clients and
their tasks. Run ` + "`ftrack dashboard`" + ` for the interactive client list.

The backend is set with api.base_url in ftrack.yml or FTRACK_API_URL.`

	root.AddCommand(
		NewLoginCmd(),
		NewSignupCmd(),
		NewGoogleLoginCmd(),
		NewLogoutCmd(),
		NewStatusCmd(),
		NewRefreshCmd(),
		NewRouteCmd(),
		NewClientsCmd(),
		NewTasksCmd(),
		NewDashboardCmd(),
		NewConfigCmd(),
		NewPathsCmd(),
		NewLogsCmd(),
		cli.NewVersionCommand("ftrack"),
	)
	cli.ApplyStyledHelpRecursive(root)
	return root
}
