package cmd

import (
	"context"
	"os"

	"github.com/grovetools/ftrack/cli"
	"github.com/grovetools/ftrack/config"
	"github.com/grovetools/ftrack/errors"
	"github.com/grovetools/ftrack/internal/store"
	"github.com/grovetools/ftrack/logging"
	"github.com/grovetools/ftrack/pkg/api"
	"github.com/grovetools/ftrack/pkg/clients"
	"github.com/grovetools/ftrack/pkg/session"
	"github.com/grovetools/ftrack/state"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// App holds the services one command invocation works with.
type App struct {
	Config     *config.Config
	ConfigPath string
	Store      *store.Store
	Durable    state.Store
	API        *api.Client
	Session    *session.Manager
	Logger     *logrus.Entry
}

// newApp loads configuration and wires the store, durable state, API client
// and session manager together. logOpts adjust the logging section before
// any logger is built. The caller must Close the returned App.
func newApp(cmd *cobra.Command, logOpts ...func(*logging.Config)) (*App, error) {
	opts := cli.GetOptions(cmd)

	if cwd, err := os.Getwd(); err == nil {
		if err := config.LoadDotEnv(cwd); err != nil {
			return nil, err
		}
	}

	cfg, path, err := config.LoadDefault(opts.ConfigFile, cli.GetLogger(cmd))
	if err != nil {
		return nil, err
	}

	logCfg := cfg.Logging
	if opts.Verbose {
		logCfg.Level = "debug"
	}
	for _, o := range logOpts {
		o(&logCfg)
	}
	logging.Configure(logCfg)
	logger := logging.NewLogger("cli")

	ctx := commandContext(cmd)
	durable, err := state.Open(ctx, cfg.Storage)
	if err != nil {
		if _, ok := errors.As(err); ok {
			return nil, err
		}
		return nil, errors.Storage("open", err)
	}

	shared := store.New()
	client := api.New(cfg.API.BaseURL,
		api.WithTimeout(cfg.API.TimeoutDuration()),
		api.WithTokenSource(func() string { return shared.Get().Session.Token }),
		api.WithLogger(logging.NewLogger("api")),
	)
	manager := session.NewManager(shared, durable, client,
		session.WithThreshold(cfg.Session.Threshold()),
		session.WithLogger(logging.NewLogger("session")),
	)

	logger.WithFields(logrus.Fields{
		"config":  path,
		"backend": cfg.Storage.Backend,
		"api":     cfg.API.BaseURL,
	}).Debug("Application wired")

	return &App{
		Config:     cfg,
		ConfigPath: path,
		Store:      shared,
		Durable:    durable,
		API:        client,
		Session:    manager,
		Logger:     logger,
	}, nil
}

// Close releases the durable store.
func (a *App) Close() error {
	return a.Durable.Close()
}

// authenticate restores the saved session and refreshes the access token
// when it is about to expire.
func (a *App) authenticate(ctx context.Context) error {
	a.Session.Restore(ctx)
	if !a.Store.Get().Session.Authenticated() {
		return errors.NotAuthenticated()
	}
	_, err := a.Session.RefreshIfNeeded(ctx)
	return err
}

// clients returns a client list cache over the app's services.
func (a *App) clients() *clients.Cache {
	return clients.NewCache(a.API, a.Store, a.Durable, clients.WithLogger(logging.NewLogger("clients")))
}

// withApp runs fn with a wired App and closes it afterwards.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, app *App) error) error {
	app, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer app.Close()
	return fn(commandContext(cmd), app)
}

// withSession is withApp for commands that need a signed-in user.
func withSession(cmd *cobra.Command, fn func(ctx context.Context, app *App) error) error {
	return withApp(cmd, func(ctx context.Context, app *App) error {
		if err := app.authenticate(ctx); err != nil {
			return err
		}
		return fn(ctx, app)
	})
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
