package dashboard

import (
	"context"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/grovetools/ftrack/internal/store"
	"github.com/grovetools/ftrack/logging"
	"github.com/grovetools/ftrack/pkg/api"
	"github.com/grovetools/ftrack/pkg/clients"
	"github.com/grovetools/ftrack/pkg/models"
	"github.com/grovetools/ftrack/pkg/session"
	"github.com/grovetools/ftrack/state"
	"github.com/grovetools/ftrack/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const listRoute = "GET /clients"

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type harness struct {
	backend *testutil.Backend
	manager *session.Manager
	cache   *clients.Cache
	durable state.Store
	model   *Model
}

func newHarness(t *testing.T, seed int) *harness {
	t.Helper()
	ctx := context.Background()
	backend := testutil.NewBackend(t)
	user := backend.AddUser("Ada", "a@b.com", "x")
	access, refresh := backend.IssueTokens(user.ID)
	backend.SeedClients(seed)

	shared := store.New()
	durable := state.NewMemoryStore()
	client := api.New(backend.URL(),
		api.WithLogger(logging.Discard()),
		api.WithTimeout(5*time.Second),
		api.WithTokenSource(func() string { return shared.Get().Session.Token }),
	)
	clock := testutil.NewClock(testNow)
	manager := session.NewManager(shared, durable, client,
		session.WithClock(clock.Now),
		session.WithLogger(logging.Discard()),
	)
	require.NoError(t, manager.SetSession(ctx, &user, access, refresh, testNow.Add(10*time.Minute).UnixMilli()))

	cache := clients.NewCache(client, shared, durable, clients.WithLogger(logging.Discard()))
	m := New(ctx, cache, manager, WithClock(clock.Now))
	t.Cleanup(m.Close)

	h := &harness{backend: backend, manager: manager, cache: cache, durable: durable, model: m}
	h.send(t, m.mount()())
	return h
}

// send delivers msg and runs the returned command chain to completion.
func (h *harness) send(t *testing.T, msg tea.Msg) {
	t.Helper()
	for i := 0; msg != nil && i < 10; i++ {
		_, cmd := h.model.Update(msg)
		if cmd == nil {
			return
		}
		msg = cmd()
		if _, quit := msg.(tea.QuitMsg); quit {
			return
		}
	}
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestInfiniteScroll(t *testing.T) {
	h := newHarness(t, 45)
	m := h.model
	assert.Len(t, m.rows, 20)
	assert.Equal(t, 1, h.backend.Calls(listRoute))

	// 24 visible rows: the sentinel below 20 rows is on screen.
	h.send(t, tea.WindowSizeMsg{Width: 100, Height: 31})
	assert.Len(t, m.rows, 40)
	assert.Equal(t, 2, h.backend.Calls(listRoute))

	// Moving within the list keeps the sentinel hidden.
	h.send(t, runes("j"))
	assert.Equal(t, 2, h.backend.Calls(listRoute))

	h.send(t, runes("G"))
	assert.Len(t, m.rows, 45)
	assert.Equal(t, 3, h.backend.Calls(listRoute))
	assert.False(t, m.status.HasMore)

	// End of list: no further fetches however often the sentinel shows.
	h.send(t, runes("g"))
	h.send(t, runes("G"))
	assert.Equal(t, 3, h.backend.Calls(listRoute))
	assert.Contains(t, m.View(), "end of list")
}

func TestSearchFiltersLoadedClients(t *testing.T) {
	h := newHarness(t, 15)
	m := h.model
	h.send(t, tea.WindowSizeMsg{Width: 100, Height: 40})

	h.send(t, runes("/"))
	assert.True(t, m.search.Focused())
	h.send(t, runes("client 01"))

	require.Len(t, m.rows, 6, "Client 010 through Client 015")
	assert.Equal(t, "client 01", m.status.Search)

	h.send(t, tea.KeyMsg{Type: tea.KeyEsc})
	assert.False(t, m.search.Focused())
	assert.Len(t, m.rows, 15)
	assert.Equal(t, 1, h.backend.Calls(listRoute), "search never hits the server")
}

func TestSortCycles(t *testing.T) {
	h := newHarness(t, 5)
	m := h.model
	require.Equal(t, models.DefaultClientSort(), m.status.Sort)

	h.send(t, runes("s"))

	want := models.NextClientSort(models.DefaultClientSort())
	assert.Equal(t, want, m.status.Sort)
	assert.Equal(t, "c1", m.rows[0].ID, "oldest first")
	assert.Equal(t, want, clients.LoadSort(context.Background(), h.durable, logging.Discard()))
	assert.Contains(t, m.message, want.Label)
}

func TestDeleteAsksForConfirmation(t *testing.T) {
	h := newHarness(t, 3)
	m := h.model
	first := m.rows[0]

	h.send(t, runes("x"))
	require.NotNil(t, m.confirm)
	assert.Contains(t, m.View(), "Delete "+first.Name)

	h.send(t, runes("n"))
	assert.Nil(t, m.confirm)
	assert.Len(t, h.backend.Clients(), 3)

	h.send(t, runes("x"))
	h.send(t, runes("y"))
	assert.Len(t, h.backend.Clients(), 2)
	assert.Len(t, m.rows, 2)
	for _, c := range h.manager.Store().Get().Clients {
		assert.NotEqual(t, first.ID, c.ID)
	}
}

func TestSessionExpiredModal(t *testing.T) {
	h := newHarness(t, 1)
	m := h.model

	h.manager.Store().SetSessionExpired("refresh", true)
	_, _ = m.Update(storeUpdateMsg(store.Update{Type: store.UpdateSessionExpired, State: h.manager.Store().Get()}))
	assert.Contains(t, m.View(), "Session expired")

	_, cmd := m.Update(runes("j"))
	assert.Nil(t, cmd, "other keys are ignored while the modal is up")

	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.QuitMsg{}, cmd())
	assert.True(t, m.SessionExpired)
	assert.False(t, h.manager.Store().Get().SessionExpired)
}

func TestHeaderShowsSummary(t *testing.T) {
	h := newHarness(t, 4)
	m := h.model
	h.send(t, tea.WindowSizeMsg{Width: 120, Height: 20})

	view := m.View()
	assert.Contains(t, view, "Ada")
	assert.Contains(t, view, "in 10m0s")
	assert.Contains(t, view, "4 cached: Client 004, Client 003, Client 002")
}
