package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/grovetools/ftrack/errors"
	"github.com/grovetools/ftrack/logging"
	"github.com/grovetools/ftrack/pkg/models"
	"github.com/grovetools/ftrack/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, baseURL string, token *string) *Client {
	t.Helper()
	return New(baseURL,
		WithLogger(logging.Discard()),
		WithTimeout(5*time.Second),
		WithTokenSource(func() string { return *token }),
	)
}

func TestLogin(t *testing.T) {
	backend := testutil.NewBackend(t)
	backend.AddUser("A", "a@b.com", "x")
	token := ""
	c := newTestClient(t, backend.URL(), &token)

	resp, err := c.Login(context.Background(), models.Credentials{Email: "a@b.com", Password: "x"})
	require.NoError(t, err)
	assert.Equal(t, "1", resp.User.ID)
	assert.NotEmpty(t, resp.Token)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.Greater(t, resp.ExpiresAt, time.Now().UnixMilli())

	_, err = c.Login(context.Background(), models.Credentials{Email: "a@b.com", Password: "wrong"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeBackend))
	assert.Equal(t, "Invalid credentials", errors.UserMessage(err))
	assert.Equal(t, http.StatusUnauthorized, errors.Status(err))
}

func TestSignupAndGoogle(t *testing.T) {
	backend := testutil.NewBackend(t)
	token := ""
	c := newTestClient(t, backend.URL(), &token)
	ctx := context.Background()

	resp, err := c.Signup(ctx, models.SignupRequest{Name: "New", Email: "new@b.com", Password: "pw"})
	require.NoError(t, err)
	assert.Equal(t, "New", resp.User.Name)

	_, err = c.Signup(ctx, models.SignupRequest{Name: "New", Email: "new@b.com", Password: "pw"})
	assert.Equal(t, "Email already registered", errors.UserMessage(err))

	resp, err = c.GoogleLogin(ctx, testutil.GoogleIDToken)
	require.NoError(t, err)
	assert.Equal(t, "Google User", resp.User.Name)

	_, err = c.GoogleLogin(ctx, "forged")
	assert.True(t, errors.Is(err, errors.ErrCodeBackend))
}

func TestRefresh(t *testing.T) {
	backend := testutil.NewBackend(t)
	user := backend.AddUser("A", "a@b.com", "x")
	_, refresh := backend.IssueTokens(user.ID)
	token := ""
	c := newTestClient(t, backend.URL(), &token)
	ctx := context.Background()

	resp, err := c.Refresh(ctx, refresh)
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)

	backend.MalformedRefresh(true)
	_, err = c.Refresh(ctx, refresh)
	assert.True(t, errors.Is(err, errors.ErrCodeMalformedResponse))
}

func TestNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	token := ""
	c := newTestClient(t, url, &token)
	_, err := c.Refresh(context.Background(), "r1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeNetwork))
}

func TestMalformedBodies(t *testing.T) {
	tests := []struct {
		name string
		body string
		call func(c *Client) error
	}{
		{
			name: "invalid json",
			body: `{"data": [`,
			call: func(c *Client) error {
				_, err := c.ListClients(context.Background(), models.ListParams{Page: 1, Limit: 20})
				return err
			},
		},
		{
			name: "missing data",
			body: `{"total": 3}`,
			call: func(c *Client) error {
				_, err := c.ListClients(context.Background(), models.ListParams{Page: 1, Limit: 20})
				return err
			},
		},
		{
			name: "login without refresh token",
			body: `{"user":{"id":"1"},"token":"t1"}`,
			call: func(c *Client) error {
				_, err := c.Login(context.Background(), models.Credentials{})
				return err
			},
		},
		{
			name: "empty body",
			body: ``,
			call: func(c *Client) error {
				_, err := c.GetClient(context.Background(), "c1")
				return err
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()
			token := "t1"
			err := tt.call(newTestClient(t, srv.URL, &token))
			assert.True(t, errors.Is(err, errors.ErrCodeMalformedResponse), "got %v", err)
		})
	}
}

func TestRequestHeaders(t *testing.T) {
	var got http.Header
	var query string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		query = r.URL.RawQuery
		w.Write([]byte(`{"data":[],"total":0}`))
	}))
	defer srv.Close()

	c := New(srv.URL+"/",
		WithHTTPClient(srv.Client()),
		WithLogger(logging.Discard()),
		WithTokenSource(func() string { return "t1" }),
	)
	assert.Equal(t, srv.URL, c.BaseURL())
	_, err := c.ListClients(context.Background(), models.ListParams{Page: 2, Limit: 20, Sort: "name", Order: "asc"})
	require.NoError(t, err)

	assert.Equal(t, "Bearer t1", got.Get("Authorization"))
	assert.NotEmpty(t, got.Get("X-Request-ID"))
	assert.Equal(t, "limit=20&order=asc&page=2&sort=name", query)
}

func TestAuthenticatedCallWithoutToken(t *testing.T) {
	backend := testutil.NewBackend(t)
	token := ""
	c := newTestClient(t, backend.URL(), &token)

	_, err := c.ListClients(context.Background(), models.ListParams{Page: 1, Limit: 20})
	assert.True(t, errors.Is(err, errors.ErrCodeNotAuthenticated))
	assert.Zero(t, backend.Calls("GET /clients"), "no request is sent without a token")
}

func TestClientCRUD(t *testing.T) {
	backend := testutil.NewBackend(t)
	user := backend.AddUser("A", "a@b.com", "x")
	token, _ := backend.IssueTokens(user.ID)
	c := newTestClient(t, backend.URL(), &token)
	ctx := context.Background()

	created, err := c.CreateClient(ctx, models.ClientInput{Name: "Acme", ContactEmail: "ops@acme.io"})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)

	name := "Acme Ltd"
	updated, err := c.UpdateClient(ctx, created.ID, models.ClientPatch{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Acme Ltd", updated.Name)
	assert.Equal(t, "ops@acme.io", updated.ContactEmail)

	fetched, err := c.GetClient(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Acme Ltd", fetched.Name)

	page, err := c.ListClients(ctx, models.ListParams{Page: 1, Limit: 20})
	require.NoError(t, err)
	assert.Len(t, page.Data, 1)
	assert.Equal(t, 1, page.Total)

	require.NoError(t, c.DeleteClient(ctx, created.ID))
	_, err = c.GetClient(ctx, created.ID)
	assert.True(t, errors.Is(err, errors.ErrCodeNotFound))
}

func TestTaskCRUD(t *testing.T) {
	backend := testutil.NewBackend(t)
	user := backend.AddUser("A", "a@b.com", "x")
	token, _ := backend.IssueTokens(user.ID)
	backend.SeedClients(1)
	c := newTestClient(t, backend.URL(), &token)
	ctx := context.Background()

	due := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	task, err := c.CreateTask(ctx, models.TaskInput{ClientID: "c1", Name: "Kickoff call", DueDate: &due})
	require.NoError(t, err)
	assert.Equal(t, models.TaskActive, task.Status)

	_, err = c.CreateTask(ctx, models.TaskInput{ClientID: "c1", Name: "Send invoice"})
	require.NoError(t, err)

	page, err := c.ListTasks(ctx, models.TaskListParams{
		ListParams: models.ListParams{Page: 1, Limit: 20, Sort: "name", Order: "asc"},
		ClientID:   "c1",
		Search:     "invoice",
	})
	require.NoError(t, err)
	require.Len(t, page.Data, 1)
	assert.Equal(t, "Send invoice", page.Data[0].Name)

	status := models.TaskCompleted
	updated, err := c.UpdateTask(ctx, task.ID, models.TaskPatch{Status: &status})
	require.NoError(t, err)
	assert.Equal(t, models.TaskCompleted, updated.Status)

	require.NoError(t, c.DeleteTask(ctx, task.ID))
	assert.Len(t, backend.Tasks(), 1)
}

func TestLogout(t *testing.T) {
	backend := testutil.NewBackend(t)
	user := backend.AddUser("A", "a@b.com", "x")
	token, refresh := backend.IssueTokens(user.ID)
	c := newTestClient(t, backend.URL(), &token)

	require.NoError(t, c.Logout(context.Background(), refresh))
	assert.False(t, backend.ValidRefreshToken(refresh))
}
