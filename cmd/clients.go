package cmd

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/grovetools/ftrack/cli"
	"github.com/grovetools/ftrack/errors"
	"github.com/grovetools/ftrack/pkg/clients"
	"github.com/grovetools/ftrack/pkg/models"
	"github.com/grovetools/ftrack/tui/components/table"
	"github.com/grovetools/ftrack/tui/theme"
	"github.com/spf13/cobra"
)

// NewClientsCmd creates the `clients` command group.
func NewClientsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "clients",
		Aliases: []string{"client"},
		Short:   "List and manage clients",
	}
	cmd.AddCommand(newClientsListCmd())
	cmd.AddCommand(newClientsGetCmd())
	cmd.AddCommand(newClientsAddCmd())
	cmd.AddCommand(newClientsEditCmd())
	cmd.AddCommand(newClientsDeleteCmd())
	cmd.AddCommand(newClientsSortCmd())
	return cmd
}

func newClientsListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List clients, 20 per page",
		Long: `List clients using the saved sort. Pages of 20 are loaded until --pages
pages are shown or the server has no more. --search filters the loaded
clients by name or email without asking the server.`,
		Example: `  ftrack clients list
  ftrack clients list --pages 3 --search acme
  ftrack clients list --all --sort "Name (A-Z)" --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			pages, _ := cmd.Flags().GetInt("pages")
			all, _ := cmd.Flags().GetBool("all")
			search, _ := cmd.Flags().GetString("search")
			sortFlag, _ := cmd.Flags().GetString("sort")
			if pages < 1 {
				return errors.InvalidInput("--pages must be at least 1")
			}

			return withSession(cmd, func(ctx context.Context, app *App) error {
				cache := app.clients()
				if _, err := cache.Mount(ctx); err != nil {
					return err
				}
				if sortFlag != "" {
					opt, err := models.ParseClientSort(sortFlag)
					if err != nil {
						return errors.InvalidInput(err.Error())
					}
					if err := cache.ChangeSort(ctx, opt); err != nil {
						return err
					}
				}
				for all || cache.Status().Page < pages {
					loaded, err := cache.LoadNextPage(ctx)
					if err != nil {
						return err
					}
					if !loaded {
						break
					}
				}

				cache.Search(search)
				rows := cache.Filtered()
				if cli.GetOptions(cmd).JSONOutput {
					if rows == nil {
						rows = []models.Client{}
					}
					return cli.PrintJSON(cmd.OutOrStdout(), rows)
				}
				printClients(cmd, rows, cache.Status())
				return nil
			})
		},
	}
	cmd.Flags().Int("pages", 1, "Number of pages to load")
	cmd.Flags().Bool("all", false, "Load every page")
	cmd.Flags().StringP("search", "s", "", "Filter loaded clients by name or email")
	cmd.Flags().String("sort", "", "Sort by menu label, 1-based index or key:order (saved)")
	return cmd
}

func printClients(cmd *cobra.Command, rows []models.Client, status clients.Status) {
	out := cmd.OutOrStdout()
	t := theme.DefaultTheme
	if len(rows) == 0 {
		if status.Search != "" {
			fmt.Fprintf(out, "No clients match %q\n", status.Search)
		} else {
			fmt.Fprintln(out, "No clients yet. Add one with `ftrack clients add --name <name>`")
		}
		return
	}

	cells := make([][]string, len(rows))
	for i, c := range rows {
		cells[i] = []string{c.ID, c.Name, c.ContactEmail, c.ContactPhone, formatAdded(c.Timestamps)}
	}
	opts := table.DefaultOptions()
	opts.Muted = []int{0, 4}
	fmt.Fprintln(out, table.Render([]string{"ID", "NAME", "EMAIL", "PHONE", "ADDED"}, cells, opts))

	footer := fmt.Sprintf("%d shown of %d loaded %s sort: %s", len(rows), status.Loaded, theme.IconBullet, status.Sort.Label)
	if status.HasMore {
		footer += fmt.Sprintf(" %s more available (--pages %d)", theme.IconBullet, status.Page+1)
	}
	fmt.Fprintln(out, t.Muted.Render(footer))
}

func newClientsGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show one client",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, func(ctx context.Context, app *App) error {
				c, err := app.clients().Get(ctx, args[0])
				if err != nil {
					return err
				}
				return printClient(cmd, c)
			})
		},
	}
}

func printClient(cmd *cobra.Command, c *models.Client) error {
	if cli.GetOptions(cmd).JSONOutput {
		return cli.PrintJSON(cmd.OutOrStdout(), c)
	}
	fmt.Fprintln(cmd.OutOrStdout(), table.KeyValue([][2]string{
		{"ID", c.ID},
		{"Name", c.Name},
		{"Email", orDash(c.ContactEmail)},
		{"Phone", orDash(c.ContactPhone)},
		{"Notes", orDash(c.Notes)},
		{"Added", formatAdded(c.Timestamps)},
	}))
	return nil
}

func newClientsAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "add",
		Short:   "Add a client",
		Example: `  ftrack clients add --name "Acme Corp" --email ops@acme.test`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			input := models.ClientInput{}
			input.Name, _ = cmd.Flags().GetString("name")
			input.ContactEmail, _ = cmd.Flags().GetString("email")
			input.ContactPhone, _ = cmd.Flags().GetString("phone")
			input.Notes, _ = cmd.Flags().GetString("notes")

			return withSession(cmd, func(ctx context.Context, app *App) error {
				created, err := app.clients().Create(ctx, input)
				if created == nil {
					return err
				}
				if err != nil {
					app.Logger.WithError(err).Warn("Client list reload failed")
				}
				if cli.GetOptions(cmd).JSONOutput {
					return cli.PrintJSON(cmd.OutOrStdout(), created)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s Added %s (%s)\n", theme.IconSuccess, created.Name, created.ID)
				return nil
			})
		},
	}
	cmd.Flags().String("name", "", "Client name (required)")
	cmd.Flags().String("email", "", "Contact email")
	cmd.Flags().String("phone", "", "Contact phone")
	cmd.Flags().String("notes", "", "Free-form notes")
	return cmd
}

func newClientsEditCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "edit <id>",
		Short:   "Change a client's fields",
		Example: `  ftrack clients edit c1 --phone "+1 555 0100" --notes ""`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			patch := models.ClientPatch{
				Name:         changedString(cmd, "name"),
				ContactEmail: changedString(cmd, "email"),
				ContactPhone: changedString(cmd, "phone"),
				Notes:        changedString(cmd, "notes"),
			}
			if patch.IsEmpty() {
				return errors.InvalidInput("nothing to change, pass at least one of --name, --email, --phone, --notes")
			}
			if patch.Name != nil && strings.TrimSpace(*patch.Name) == "" {
				return errors.InvalidInput("client name cannot be empty")
			}

			return withSession(cmd, func(ctx context.Context, app *App) error {
				updated, err := app.clients().Update(ctx, args[0], patch)
				if err != nil {
					return err
				}
				if cli.GetOptions(cmd).JSONOutput {
					return cli.PrintJSON(cmd.OutOrStdout(), updated)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s Updated %s\n", theme.IconSuccess, updated.Name)
				return nil
			})
		},
	}
	cmd.Flags().String("name", "", "New name")
	cmd.Flags().String("email", "", "New contact email")
	cmd.Flags().String("phone", "", "New contact phone")
	cmd.Flags().String("notes", "", "New notes")
	return cmd
}

func newClientsDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"rm"},
		Short:   "Delete a client",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, func(ctx context.Context, app *App) error {
				if err := app.clients().Delete(ctx, args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s Deleted %s\n", theme.IconSuccess, args[0])
				return nil
			})
		},
	}
}

func newClientsSortCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sort [option]",
		Short: "Show or set the saved client sort",
		Example: `  ftrack clients sort
  ftrack clients sort 1
  ftrack clients sort "Name (A-Z)"`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, app *App) error {
				current := clients.LoadSort(ctx, app.Durable, app.Logger)
				if len(args) == 1 {
					opt, err := models.ParseClientSort(args[0])
					if err != nil {
						return errors.InvalidInput(err.Error())
					}
					if err := clients.SaveSort(ctx, app.Durable, opt); err != nil {
						return err
					}
					current = opt
					if !cli.GetOptions(cmd).JSONOutput {
						fmt.Fprintf(cmd.OutOrStdout(), "%s Sorting clients by %s\n", theme.IconSuccess, opt.Label)
						return nil
					}
				}
				if cli.GetOptions(cmd).JSONOutput {
					return cli.PrintJSON(cmd.OutOrStdout(), current)
				}

				rows := make([][]string, len(models.ClientSortOptions))
				selected := table.NoSelection
				for i, o := range models.ClientSortOptions {
					rows[i] = []string{strconv.Itoa(i + 1), o.Label, o.Sort + ":" + o.Order}
					if o.Sort == current.Sort && o.Order == current.Order {
						selected = i
					}
				}
				opts := table.DefaultOptions()
				opts.Selected = selected
				opts.Muted = []int{2}
				fmt.Fprintln(cmd.OutOrStdout(), table.Render([]string{"#", "SORT", "KEY"}, rows, opts))
				return nil
			})
		},
	}
}

// changedString returns the flag's value only when it was passed, so an
// explicit empty string clears the field.
func changedString(cmd *cobra.Command, name string) *string {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	v, _ := cmd.Flags().GetString(name)
	return &v
}

func formatAdded(ts models.Timestamps) string {
	if ts.CreatedAt.IsZero() {
		return "-"
	}
	return ts.CreatedAt.Local().Format("2006-01-02")
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
