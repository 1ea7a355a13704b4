package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/grovetools/ftrack/errors"
	"github.com/grovetools/ftrack/pkg/models"
	"github.com/grovetools/ftrack/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type env struct {
	home    string
	backend *testutil.Backend
}

func setup(t *testing.T) *env {
	t.Helper()
	home := testutil.IsolateHome(t)
	testutil.Chdir(t, t.TempDir())
	backend := testutil.NewBackend(t)
	t.Setenv("FTRACK_API_URL", backend.URL())
	t.Setenv("FTRACK_LOG_LEVEL", "error")
	backend.AddUser("Ada", "ada@example.com", "secret")
	return &env{home: home, backend: backend}
}

// run executes the root command with args and returns everything it printed.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := run(t, args...)
	require.NoError(t, err, "ftrack %s\n%s", strings.Join(args, " "), out)
	return out
}

func (e *env) login(t *testing.T) {
	t.Helper()
	out := mustRun(t, "login", "--email", "ada@example.com", "--password", "secret")
	require.Contains(t, out, "Signed in as Ada <ada@example.com>")
}

func TestLoginStatusLogout(t *testing.T) {
	e := setup(t)
	e.backend.SeedClients(4)

	out := mustRun(t, "status")
	assert.Contains(t, out, "Not signed in")

	e.login(t)

	out = mustRun(t, "status")
	assert.Contains(t, out, "Ada")
	assert.Contains(t, out, "ada@example.com")
	assert.Contains(t, out, "4 cached")
	assert.Contains(t, out, "Client 004, Client 003, Client 002")
	assert.Contains(t, out, "expires in ")

	out = mustRun(t, "status", "--json")
	var sum struct {
		Authenticated bool     `json:"authenticated"`
		CachedClients int      `json:"cachedClients"`
		FirstClients  []string `json:"firstClients"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &sum))
	assert.True(t, sum.Authenticated)
	assert.Equal(t, 4, sum.CachedClients)
	assert.Len(t, sum.FirstClients, 3)

	out = mustRun(t, "logout")
	assert.Contains(t, out, "Signed out")
	assert.Equal(t, 1, e.backend.Calls("POST /auth/logout"))

	out = mustRun(t, "status")
	assert.Contains(t, out, "Not signed in")
}

func TestLoginRejected(t *testing.T) {
	setup(t)

	_, err := run(t, "login", "--email", "ada@example.com", "--password", "wrong")
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeBackend, errors.GetCode(err))

	out := mustRun(t, "status")
	assert.Contains(t, out, "Not signed in")
}

func TestLoginRequiresEmail(t *testing.T) {
	setup(t)

	_, err := run(t, "login", "--password", "secret")
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidInput))
}

func TestCommandsRequireSession(t *testing.T) {
	setup(t)

	for _, args := range [][]string{
		{"clients", "list"},
		{"clients", "get", "c1"},
		{"tasks", "list", "c1"},
		{"refresh"},
		{"dashboard"},
	} {
		t.Run(strings.Join(args, " "), func(t *testing.T) {
			_, err := run(t, args...)
			assert.True(t, errors.Is(err, errors.ErrCodeNotAuthenticated), "got %v", err)
		})
	}
}

func TestRouteRedirects(t *testing.T) {
	e := setup(t)

	tests := []struct {
		route  string
		signed bool
		want   string
	}{
		{route: "/dashboard", want: "/login"},
		{route: "/login", want: "/login"},
		{route: "/signup", want: "/signup"},
		{route: "/", want: "/login"},
		{route: "/login", signed: true, want: "/dashboard"},
		{route: "/", signed: true, want: "/dashboard"},
		{route: "/clients/c1", signed: true, want: "/clients/c1"},
	}

	signedIn := false
	for _, tt := range tests {
		if tt.signed && !signedIn {
			e.login(t)
			signedIn = true
		}
		out := mustRun(t, "route", tt.route)
		assert.Equal(t, tt.want, strings.TrimSpace(out), "route %s (signed in: %v)", tt.route, tt.signed)
	}
}

func TestRefreshCommand(t *testing.T) {
	e := setup(t)
	e.login(t)

	out := mustRun(t, "refresh")
	assert.Contains(t, out, "Token still valid")
	assert.Equal(t, 0, e.backend.Calls("POST /auth/refresh-token"))

	out = mustRun(t, "refresh", "--force")
	assert.Contains(t, out, "Token refreshed")
	assert.Equal(t, 1, e.backend.Calls("POST /auth/refresh-token"))
}

func TestRefreshFailureExpiresSession(t *testing.T) {
	e := setup(t)
	e.login(t)
	e.backend.FailRefresh(401)

	_, err := run(t, "refresh", "--force")
	assert.True(t, errors.Is(err, errors.ErrCodeSessionExpired))

	out := mustRun(t, "status")
	assert.Contains(t, out, "Not signed in")
}

func TestClientsListPages(t *testing.T) {
	e := setup(t)
	e.backend.SeedClients(45)
	e.login(t)

	out := mustRun(t, "clients", "list")
	assert.Contains(t, out, "Client 045")
	assert.NotContains(t, out, "Client 025")
	assert.Contains(t, out, "20 shown of 20 loaded")
	assert.Contains(t, out, "more available (--pages 2)")

	out = mustRun(t, "clients", "list", "--pages", "3")
	assert.Contains(t, out, "45 shown of 45 loaded")
	assert.NotContains(t, out, "more available")

	out = mustRun(t, "clients", "list", "--all", "--json", "--search", "client 04")
	var rows []models.Client
	require.NoError(t, json.Unmarshal([]byte(out), &rows))
	require.Len(t, rows, 6)
	assert.Equal(t, "Client 045", rows[0].Name)
}

func TestClientsSortIsSaved(t *testing.T) {
	e := setup(t)
	e.backend.SeedClients(3)
	e.login(t)

	out := mustRun(t, "clients", "sort", "1")
	want := models.ClientSortOptions[0]
	assert.Contains(t, out, "Sorting clients by "+want.Label)

	out = mustRun(t, "clients", "sort", "--json")
	var got models.SortOption
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, want, got)

	out = mustRun(t, "clients", "list", "--json")
	var rows []models.Client
	require.NoError(t, json.Unmarshal([]byte(out), &rows))
	require.Len(t, rows, 3)

	_, err := run(t, "clients", "sort", "99")
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidInput))
}

func TestClientsAddEditDelete(t *testing.T) {
	e := setup(t)
	e.login(t)

	out := mustRun(t, "clients", "add", "--name", "Acme Corp", "--email", "ops@acme.test", "--json")
	var created models.Client
	require.NoError(t, json.Unmarshal([]byte(out), &created))
	require.NotEmpty(t, created.ID)
	assert.Equal(t, "Acme Corp", created.Name)
	require.Len(t, e.backend.Clients(), 1)

	out = mustRun(t, "clients", "edit", created.ID, "--phone", "555-0100")
	assert.Contains(t, out, "Updated Acme Corp")
	assert.Equal(t, "555-0100", e.backend.Clients()[0].ContactPhone)
	assert.Equal(t, "ops@acme.test", e.backend.Clients()[0].ContactEmail, "untouched fields are kept")

	out = mustRun(t, "clients", "get", created.ID)
	assert.Contains(t, out, "555-0100")

	_, err := run(t, "clients", "edit", created.ID)
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidInput), "empty patch")

	_, err = run(t, "clients", "add", "--email", "x@y.z")
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidInput), "name is required")

	mustRun(t, "clients", "delete", created.ID)
	assert.Empty(t, e.backend.Clients())

	_, err = run(t, "clients", "get", created.ID)
	assert.Error(t, err)
}

func TestTasksCommands(t *testing.T) {
	e := setup(t)
	e.backend.SeedClients(2)
	e.backend.SeedTasks("c1", "Invoice", "Kickoff call")
	e.backend.SeedTasks("c2", "Other client")
	e.login(t)

	out := mustRun(t, "tasks", "list", "c1", "--json")
	var list []models.Task
	require.NoError(t, json.Unmarshal([]byte(out), &list))
	require.Len(t, list, 2)
	for _, task := range list {
		assert.Equal(t, "c1", task.ClientID)
	}

	out = mustRun(t, "tasks", "add", "c1", "--name", "Send report", "--due", "2026-11-01", "--json")
	var created models.Task
	require.NoError(t, json.Unmarshal([]byte(out), &created))
	assert.Equal(t, models.TaskActive, created.Status)
	require.NotNil(t, created.DueDate)

	out = mustRun(t, "tasks", "edit", created.ID, "--client", "c1", "--status", "completed")
	assert.Contains(t, out, "Updated task Send report")

	out = mustRun(t, "tasks", "list", "c1", "--status", "completed")
	assert.Contains(t, out, "Send report")
	assert.NotContains(t, out, "Invoice")

	_, err := run(t, "tasks", "edit", created.ID, "--client", "c1", "--status", "done")
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidInput))

	_, err = run(t, "tasks", "add", "c1", "--name", "Late", "--due", "tomorrow")
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidInput))

	mustRun(t, "tasks", "delete", created.ID, "--client", "c1")
	assert.Len(t, e.backend.Tasks(), 3)
}

func TestConfigCommands(t *testing.T) {
	setup(t)
	dir, err := os.Getwd()
	require.NoError(t, err)

	out := mustRun(t, "config", "show")
	assert.Contains(t, out, "defaults (no config file found)")
	assert.Contains(t, out, "base_url: http://127.0.0.1")

	testutil.WriteConfig(t, dir, "session:\n  refresh_interval: 30s\n")
	out = mustRun(t, "config", "show", "--json")
	assert.Contains(t, out, `"refresh_interval": "30s"`)

	out = mustRun(t, "config", "validate")
	assert.Contains(t, out, "ftrack.yml is valid")

	bad := filepath.Join(dir, "bad.yml")
	require.NoError(t, os.WriteFile(bad, []byte("api:\n  timeout: soon\n"), 0644))
	_, err = run(t, "config", "validate", bad)
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeConfigValidation, errors.GetCode(err))

	out = mustRun(t, "config", "schema")
	assert.Contains(t, out, `"refresh_threshold"`)
}

func TestPathsFollowHome(t *testing.T) {
	e := setup(t)

	out := mustRun(t, "paths", "--json")
	var got PathsOutput
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, filepath.Join(e.home, "config"), got.ConfigDir)
	assert.Equal(t, filepath.Join(e.home, "state", "logs"), got.LogsDir)
	assert.Equal(t, filepath.Join(e.home, "state", "state.yml"), got.StateFile)
}

func TestLogsTail(t *testing.T) {
	e := setup(t)
	logs := filepath.Join(e.home, "state", "logs")
	require.NoError(t, os.MkdirAll(logs, 0755))

	lines := []string{
		`{"level":"info","msg":"first","component":"session","time":"2026-03-01T12:00:00Z"}`,
		`{"level":"warning","msg":"second","component":"session","time":"2026-03-01T12:00:01Z","user":"1"}`,
		`{"level":"error","msg":"third","component":"session","time":"2026-03-01T12:00:02Z"}`,
	}
	path := filepath.Join(logs, "session-2026-03-01.log")
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0644))

	out := mustRun(t, "logs", "--component", "session", "--tail", "2")
	assert.NotContains(t, out, "first")
	assert.Contains(t, out, "second")
	assert.Contains(t, out, "user=1")
	assert.Contains(t, out, "ERROR third")

	out = mustRun(t, "logs", "--component", "session", "--tail", "0", "--json")
	assert.Equal(t, strings.Join(lines, "\n")+"\n", out)

	_, err := run(t, "logs", "--component", "nothing")
	assert.Error(t, err)
}

func TestFindLatestLogFilePrefersNonEmpty(t *testing.T) {
	dir := t.TempDir()
	older := filepath.Join(dir, "cli-2026-03-01.log")
	newer := filepath.Join(dir, "cli-2026-03-02.log")
	require.NoError(t, os.WriteFile(older, []byte("line\n"), 0644))
	require.NoError(t, os.WriteFile(newer, nil, 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644))

	got, err := findLatestLogFile(dir, "")
	require.NoError(t, err)
	assert.Equal(t, older, got)

	_, err = findLatestLogFile(dir, "api")
	assert.Error(t, err)
}

func TestVersionCommand(t *testing.T) {
	setup(t)
	out := mustRun(t, "version")
	assert.True(t, strings.HasPrefix(out, "ftrack "))
}
