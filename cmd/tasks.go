package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/grovetools/ftrack/cli"
	"github.com/grovetools/ftrack/errors"
	"github.com/grovetools/ftrack/logging"
	"github.com/grovetools/ftrack/pkg/models"
	"github.com/grovetools/ftrack/pkg/tasks"
	"github.com/grovetools/ftrack/tui/components/table"
	"github.com/grovetools/ftrack/tui/theme"
	"github.com/spf13/cobra"
)

const dueLayout = "2006-01-02"

// NewTasksCmd creates the `tasks` command group.
func NewTasksCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "tasks",
		Aliases: []string{"task"},
		Short:   "List and manage the tasks of a client",
	}
	cmd.AddCommand(newTasksListCmd())
	cmd.AddCommand(newTasksAddCmd())
	cmd.AddCommand(newTasksEditCmd())
	cmd.AddCommand(newTasksDeleteCmd())
	return cmd
}

func (a *App) tasks(clientID string) *tasks.Cache {
	return tasks.NewCache(a.API, clientID, tasks.WithLogger(logging.NewLogger("tasks")))
}

func newTasksListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list <client-id>",
		Short: "List a client's tasks",
		Long: `List a client's tasks. Sorting and --search run on the server; --status
filters the loaded tasks.`,
		Example: `  ftrack tasks list c1
  ftrack tasks list c1 --status active --sort dueDate --order asc --all`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			status, _ := cmd.Flags().GetString("status")
			all, _ := cmd.Flags().GetBool("all")
			q := tasks.Query{}
			q.Search, _ = cmd.Flags().GetString("search")
			q.Sort, _ = cmd.Flags().GetString("sort")
			q.Order, _ = cmd.Flags().GetString("order")
			if status != "" && !models.TaskStatus(status).Valid() {
				return errors.InvalidInput("invalid task status " + status)
			}

			return withSession(cmd, func(ctx context.Context, app *App) error {
				cache := app.tasks(args[0])
				if err := cache.SetQuery(ctx, q); err != nil {
					return err
				}
				if all {
					if err := cache.LoadAll(ctx); err != nil {
						return err
					}
				}

				list := cache.Tasks()
				if status != "" {
					list = cache.ByStatus(models.TaskStatus(status))
				}
				if cli.GetOptions(cmd).JSONOutput {
					if list == nil {
						list = []models.Task{}
					}
					return cli.PrintJSON(cmd.OutOrStdout(), list)
				}
				printTasks(cmd, list, cache.Status())
				return nil
			})
		},
	}
	cmd.Flags().String("status", "", "Only show active, completed or archived tasks")
	cmd.Flags().StringP("search", "s", "", "Server-side search on name and description")
	cmd.Flags().String("sort", tasks.DefaultSort, "Sort key: "+strings.Join(tasks.SortKeys, ", "))
	cmd.Flags().String("order", tasks.DefaultOrder, "asc or desc")
	cmd.Flags().Bool("all", false, "Load every page")
	return cmd
}

func printTasks(cmd *cobra.Command, list []models.Task, status tasks.Status) {
	out := cmd.OutOrStdout()
	if len(list) == 0 {
		fmt.Fprintln(out, "No tasks")
		return
	}
	rows := make([][]string, len(list))
	for i, t := range list {
		rows[i] = []string{t.ID, t.Name, renderTaskStatus(t.Status), formatDue(t.DueDate)}
	}
	opts := table.DefaultOptions()
	opts.Muted = []int{0}
	fmt.Fprintln(out, table.Render([]string{"ID", "NAME", "STATUS", "DUE"}, rows, opts))

	footer := fmt.Sprintf("%d of %d %s %s %s", len(list), status.Total, theme.IconBullet, status.Query.Sort, status.Query.Order)
	if status.HasMore {
		footer += " " + theme.IconBullet + " more available (--all)"
	}
	fmt.Fprintln(out, theme.DefaultTheme.Muted.Render(footer))
}

func newTasksAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "add <client-id>",
		Short:   "Add a task to a client",
		Example: `  ftrack tasks add c1 --name "Send invoice" --due 2026-11-01`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input := models.TaskInput{}
			input.Name, _ = cmd.Flags().GetString("name")
			input.Description, _ = cmd.Flags().GetString("description")
			status, _ := cmd.Flags().GetString("status")
			input.Status = models.TaskStatus(status)
			due, err := parseDue(cmd)
			if err != nil {
				return err
			}
			input.DueDate = due

			return withSession(cmd, func(ctx context.Context, app *App) error {
				created, err := app.tasks(args[0]).Create(ctx, input)
				if created == nil {
					return err
				}
				if err != nil {
					app.Logger.WithError(err).Warn("Task list reload failed")
				}
				if cli.GetOptions(cmd).JSONOutput {
					return cli.PrintJSON(cmd.OutOrStdout(), created)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s Added task %s (%s)\n", theme.IconSuccess, created.Name, created.ID)
				return nil
			})
		},
	}
	cmd.Flags().String("name", "", "Task name (required)")
	cmd.Flags().String("description", "", "Task description")
	cmd.Flags().String("status", string(models.TaskActive), "active, completed or archived")
	cmd.Flags().String("due", "", "Due date as YYYY-MM-DD")
	return cmd
}

func newTasksEditCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "edit <task-id>",
		Short:   "Change a task",
		Example: `  ftrack tasks edit t1 --client c1 --status completed`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			clientID, _ := cmd.Flags().GetString("client")
			if clientID == "" {
				return errors.InvalidInput("--client is required")
			}
			patch := models.TaskPatch{
				Name:        changedString(cmd, "name"),
				Description: changedString(cmd, "description"),
			}
			if s := changedString(cmd, "status"); s != nil {
				status := models.TaskStatus(*s)
				patch.Status = &status
			}
			due, err := parseDue(cmd)
			if err != nil {
				return err
			}
			patch.DueDate = due

			return withSession(cmd, func(ctx context.Context, app *App) error {
				updated, err := app.tasks(clientID).Update(ctx, args[0], patch)
				if err != nil {
					return err
				}
				if cli.GetOptions(cmd).JSONOutput {
					return cli.PrintJSON(cmd.OutOrStdout(), updated)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s Updated task %s\n", theme.IconSuccess, updated.Name)
				return nil
			})
		},
	}
	cmd.Flags().String("client", "", "Client the task belongs to (required)")
	cmd.Flags().String("name", "", "New name")
	cmd.Flags().String("description", "", "New description")
	cmd.Flags().String("status", "", "New status")
	cmd.Flags().String("due", "", "New due date as YYYY-MM-DD")
	return cmd
}

func newTasksDeleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "delete <task-id>",
		Aliases: []string{"rm"},
		Short:   "Delete a task",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			clientID, _ := cmd.Flags().GetString("client")
			if clientID == "" {
				return errors.InvalidInput("--client is required")
			}
			return withSession(cmd, func(ctx context.Context, app *App) error {
				if err := app.tasks(clientID).Delete(ctx, args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s Deleted task %s\n", theme.IconSuccess, args[0])
				return nil
			})
		},
	}
	cmd.Flags().String("client", "", "Client the task belongs to (required)")
	return cmd
}

func parseDue(cmd *cobra.Command) (*time.Time, error) {
	raw := changedString(cmd, "due")
	if raw == nil || *raw == "" {
		return nil, nil
	}
	due, err := time.ParseInLocation(dueLayout, *raw, time.Local)
	if err != nil {
		return nil, errors.InvalidInput("--due must be YYYY-MM-DD")
	}
	return &due, nil
}

func renderTaskStatus(s models.TaskStatus) string {
	switch s {
	case models.TaskActive:
		return theme.RenderStatus("info", string(s))
	case models.TaskCompleted:
		return theme.RenderStatus("success", string(s))
	}
	return string(s)
}

func formatDue(due *time.Time) string {
	if due == nil {
		return "-"
	}
	return due.Local().Format(dueLayout)
}
