package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/grovetools/ftrack/cli"
	"github.com/grovetools/ftrack/errors"
	"github.com/grovetools/ftrack/pkg/session"
	"github.com/grovetools/ftrack/tui/components/table"
	"github.com/grovetools/ftrack/tui/theme"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// NewLoginCmd creates the `login` command.
func NewLoginCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in with email and password",
		Example: `  ftrack login --email ada@example.com
  FTRACK_API_URL=https://api.example.com ftrack login --email ada@example.com --password secret`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			email, _ := cmd.Flags().GetString("email")
			password, _ := cmd.Flags().GetString("password")
			if strings.TrimSpace(email) == "" {
				return errors.InvalidInput("--email is required")
			}
			password, err := promptPassword(cmd, password)
			if err != nil {
				return err
			}
			return withApp(cmd, func(ctx context.Context, app *App) error {
				if err := app.Session.Login(ctx, email, password); err != nil {
					return err
				}
				return printSignedIn(cmd, app)
			})
		},
	}
	cmd.Flags().String("email", "", "Account email")
	cmd.Flags().String("password", "", "Account password (prompted when omitted)")
	return cmd
}

// NewSignupCmd creates the `signup` command.
func NewSignupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create an account and sign in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			name, _ := cmd.Flags().GetString("name")
			email, _ := cmd.Flags().GetString("email")
			password, _ := cmd.Flags().GetString("password")
			if strings.TrimSpace(name) == "" || strings.TrimSpace(email) == "" {
				return errors.InvalidInput("--name and --email are required")
			}
			password, err := promptPassword(cmd, password)
			if err != nil {
				return err
			}
			return withApp(cmd, func(ctx context.Context, app *App) error {
				if err := app.Session.Signup(ctx, name, email, password); err != nil {
					return err
				}
				return printSignedIn(cmd, app)
			})
		},
	}
	cmd.Flags().String("name", "", "Display name")
	cmd.Flags().String("email", "", "Account email")
	cmd.Flags().String("password", "", "Account password (prompted when omitted)")
	return cmd
}

// NewGoogleLoginCmd creates the `google-login` command.
func NewGoogleLoginCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "google-login",
		Short: "Sign in with a Google ID token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			idToken, _ := cmd.Flags().GetString("id-token")
			if strings.TrimSpace(idToken) == "" {
				return errors.InvalidInput("--id-token is required")
			}
			return withApp(cmd, func(ctx context.Context, app *App) error {
				if err := app.Session.GoogleLogin(ctx, idToken); err != nil {
					return err
				}
				return printSignedIn(cmd, app)
			})
		},
	}
	cmd.Flags().String("id-token", "", "ID token from Google Sign-In")
	return cmd
}

// NewLogoutCmd creates the `logout` command.
func NewLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and forget the saved session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, app *App) error {
				app.Session.Restore(ctx)
				if !app.Store.Get().Session.Authenticated() {
					fmt.Fprintln(cmd.OutOrStdout(), "Not signed in")
					return nil
				}
				if err := app.Session.Logout(ctx); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), theme.DefaultTheme.Success.Render(theme.IconSuccess+" Signed out"))
				return nil
			})
		},
	}
}

// NewStatusCmd creates the `status` command.
func NewStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the signed-in user, token expiry and cached clients",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, app *App) error {
				app.Session.Restore(ctx)
				if app.Store.Get().Session.Authenticated() {
					if _, err := app.Session.RefreshIfNeeded(ctx); err != nil {
						app.Logger.WithError(err).Debug("Refresh before status failed")
					}
				}
				if app.Store.Get().Session.Authenticated() {
					if _, err := app.clients().Mount(ctx); err != nil {
						app.Logger.WithError(err).Warn("Could not load clients")
					}
				}

				sum := app.Store.Get().Summarize(time.Now())
				if cli.GetOptions(cmd).JSONOutput {
					return cli.PrintJSON(cmd.OutOrStdout(), sum)
				}

				out := cmd.OutOrStdout()
				if !sum.Authenticated {
					fmt.Fprintln(out, "Not signed in")
					if sum.SessionExpired {
						fmt.Fprintln(out, theme.DefaultTheme.Warning.Render(theme.IconWarning+" Session expired, run `ftrack login`"))
					}
					return nil
				}
				pairs := [][2]string{
					{"User", sum.User.Name},
					{"Email", sum.User.Email},
					{"Token", "expires " + sum.ExpiryText()},
					{"Clients", fmt.Sprintf("%d cached", sum.CachedClients)},
				}
				if len(sum.FirstClients) > 0 {
					pairs = append(pairs, [2]string{"First", strings.Join(sum.FirstClients, ", ")})
				}
				if sum.ClientsSort != "" {
					pairs = append(pairs, [2]string{"Sort", sum.ClientsSort})
				}
				fmt.Fprintln(out, table.KeyValue(pairs))
				return nil
			})
		},
	}
}

// NewRefreshCmd creates the `refresh` command.
func NewRefreshCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "refresh",
		Short: "Refresh the access token if it is about to expire",
		Long: `Refresh the access token when less than the refresh threshold is left.
With --force the threshold is ignored.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			force, _ := cmd.Flags().GetBool("force")
			return withApp(cmd, func(ctx context.Context, app *App) error {
				app.Session.Restore(ctx)
				if !app.Store.Get().Session.Authenticated() {
					return errors.NotAuthenticated()
				}
				refresh := app.Session.RefreshIfNeeded
				if force {
					refresh = app.Session.Refresh
				}
				refreshed, err := refresh(ctx)
				if err != nil {
					return err
				}
				sum := app.Store.Get().Summarize(time.Now())
				if refreshed {
					fmt.Fprintf(cmd.OutOrStdout(), "%s Token refreshed, expires %s\n", theme.IconSuccess, sum.ExpiryText())
				} else {
					fmt.Fprintf(cmd.OutOrStdout(), "Token still valid, expires %s\n", sum.ExpiryText())
				}
				return nil
			})
		},
	}
	cmd.Flags().Bool("force", false, "Refresh regardless of the time left")
	return cmd
}

// NewRouteCmd creates the `route` command.
func NewRouteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "route <path>",
		Short: "Print where a route redirects for the current session",
		Example: `  ftrack route /dashboard
  ftrack route /login`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, app *App) error {
				app.Session.Restore(ctx)
				target, ok := session.Redirect(app.Store.Get(), args[0])
				if !ok {
					target = args[0]
				}
				fmt.Fprintln(cmd.OutOrStdout(), target)
				return nil
			})
		},
	}
}

func printSignedIn(cmd *cobra.Command, app *App) error {
	s := app.Store.Get().Session
	if cli.GetOptions(cmd).JSONOutput {
		return cli.PrintJSON(cmd.OutOrStdout(), s.User)
	}
	fmt.Fprintln(cmd.OutOrStdout(), theme.DefaultTheme.Success.Render(
		fmt.Sprintf("%s Signed in as %s <%s>", theme.IconSuccess, s.User.Name, s.User.Email)))
	return nil
}

// promptPassword returns password, reading it from the terminal when empty.
func promptPassword(cmd *cobra.Command, password string) (string, error) {
	if password != "" {
		return password, nil
	}
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", errors.InvalidInput("--password is required when not running in a terminal")
	}
	fmt.Fprint(cmd.ErrOrStderr(), "Password: ")
	data, err := term.ReadPassword(fd)
	fmt.Fprintln(cmd.ErrOrStderr())
	if err != nil {
		return "", errors.Wrap(err, errors.ErrCodeInvalidInput, "failed to read password")
	}
	if len(data) == 0 {
		return "", errors.InvalidInput("password must not be empty")
	}
	return string(data), nil
}
