package cmd

import (
	"context"
	stderrors "errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/grovetools/ftrack/errors"
	"github.com/grovetools/ftrack/internal/engine"
	"github.com/grovetools/ftrack/logging"
	"github.com/grovetools/ftrack/pkg/session"
	"github.com/grovetools/ftrack/state"
	"github.com/grovetools/ftrack/tui"
	"github.com/grovetools/ftrack/tui/dashboard"
	"github.com/spf13/cobra"
)

// NewDashboardCmd creates the `dashboard` command.
func NewDashboardCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "dashboard",
		Aliases: []string{"ui"},
		Short:   "Browse clients interactively",
		Long: `Open the interactive client list. Scrolling to the end loads the next
page of 20. While it runs the access token is refreshed in the background
and sign-ins or sign-outs from other ftrack processes are picked up.`,
		Args: cobra.NoArgs,
		RunE: runDashboard,
	}
}

func runDashboard(cmd *cobra.Command, args []string) error {
	// Logs would draw over the alternate screen.
	app, err := newApp(cmd, func(c *logging.Config) { c.Stderr = "never" })
	if err != nil {
		return err
	}
	defer app.Close()

	ctx, cancel := context.WithCancel(commandContext(cmd))
	defer cancel()

	if err := app.authenticate(ctx); err != nil {
		return err
	}

	eng := newSessionEngine(app)
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		eng.Start(ctx)
	}()

	tui.InitializeTUI()
	model := dashboard.New(ctx, app.clients(), app.Session)
	defer model.Close()

	_, runErr := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	cancel()
	<-stopped

	if runErr != nil && !stderrors.Is(runErr, tea.ErrProgramKilled) {
		return fmt.Errorf("dashboard: %w", runErr)
	}
	if model.SessionExpired {
		return errors.SessionExpired(nil)
	}
	return nil
}

// newSessionEngine registers the refresh monitor and, for file-backed state,
// the watcher that follows other processes' sign-ins.
func newSessionEngine(app *App) *engine.Engine {
	eng := engine.New(logging.NewLogger("engine"))
	eng.Register(session.NewMonitor(app.Session, app.Config.Session.Interval()))

	if !app.Config.Session.WatchEnabled() {
		return eng
	}
	p, ok := app.Durable.(state.Pather)
	if !ok {
		return eng
	}
	w, err := session.NewWatcher(app.Session, p.Path(), session.DefaultDebounce)
	if err != nil {
		app.Logger.WithError(err).Warn("State file watcher disabled")
		return eng
	}
	eng.Register(w)
	return eng
}
