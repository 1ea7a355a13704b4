// Package dashboard is the interactive client list: the session header, the
// paged client table with infinite scroll, local search, sort cycling and
// delete, plus the session expired modal.
package dashboard

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/grovetools/ftrack/internal/store"
	"github.com/grovetools/ftrack/pkg/clients"
	"github.com/grovetools/ftrack/pkg/models"
	"github.com/grovetools/ftrack/pkg/session"
	"github.com/grovetools/ftrack/tui/theme"
)

// Lines around the client rows: title, summary, status, search, column
// header above; message and help below.
const (
	headerLines = 5
	footerLines = 2
)

// Model is the dashboard state.
type Model struct {
	ctx     context.Context
	cache   *clients.Cache
	manager *session.Manager
	updates chan store.Update
	now     func() time.Time

	keys    KeyMap
	help    help.Model
	search  textinput.Model
	spinner spinner.Model

	state  store.State
	rows   []models.Client
	status clients.Status

	cursor  int
	offset  int
	width   int
	height  int
	loading bool
	mounted bool
	confirm *models.Client
	message string
	err     error
	expired bool

	// SessionExpired is set when the program quit from the expired modal.
	SessionExpired bool
}

// Option configures a Model.
type Option func(*Model)

// WithClock sets the clock used for the expiry countdown.
func WithClock(now func() time.Time) Option {
	return func(m *Model) { m.now = now }
}

// New creates the dashboard over cache. It subscribes to the manager's
// store; call Close when the program exits.
func New(ctx context.Context, cache *clients.Cache, manager *session.Manager, opts ...Option) *Model {
	search := textinput.New()
	search.Prompt = "/ "
	search.Placeholder = "search name or email"
	search.PlaceholderStyle = theme.DefaultTheme.Placeholder

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = theme.DefaultTheme.Highlight

	m := &Model{
		ctx:     ctx,
		cache:   cache,
		manager: manager,
		updates: manager.Store().Subscribe(),
		now:     time.Now,
		keys:    DefaultKeyMap,
		help:    help.New(),
		search:  search,
		spinner: sp,
		state:   manager.Store().Get(),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.expired = m.state.SessionExpired
	m.refresh()
	return m
}

// Init mounts the list and starts listening for store updates.
func (m *Model) Init() tea.Cmd {
	m.loading = true
	return tea.Batch(m.mount(), m.waitForUpdate(), m.spinner.Tick)
}

// Close drops the store subscription.
func (m *Model) Close() {
	m.manager.Store().Unsubscribe(m.updates)
}

type mountedMsg struct {
	reused bool
	err    error
}

type pageLoadedMsg struct{ err error }

type sortChangedMsg struct {
	sort models.SortOption
	err  error
}

type deletedMsg struct {
	name string
	err  error
}

type storeUpdateMsg store.Update

func (m *Model) mount() tea.Cmd {
	ctx, cache := m.ctx, m.cache
	return func() tea.Msg {
		reused, err := cache.Mount(ctx)
		return mountedMsg{reused: reused, err: err}
	}
}

func (m *Model) reload() tea.Cmd {
	ctx, cache := m.ctx, m.cache
	return func() tea.Msg {
		return pageLoadedMsg{err: cache.LoadFirstPage(ctx)}
	}
}

func (m *Model) loadNextPage() tea.Cmd {
	ctx, cache := m.ctx, m.cache
	return func() tea.Msg {
		_, err := cache.LoadNextPage(ctx)
		return pageLoadedMsg{err: err}
	}
}

func (m *Model) changeSort(opt models.SortOption) tea.Cmd {
	ctx, cache := m.ctx, m.cache
	return func() tea.Msg {
		return sortChangedMsg{sort: opt, err: cache.ChangeSort(ctx, opt)}
	}
}

func (m *Model) deleteClient(c models.Client) tea.Cmd {
	ctx, cache := m.ctx, m.cache
	return func() tea.Msg {
		return deletedMsg{name: c.Name, err: cache.Delete(ctx, c.ID)}
	}
}

func (m *Model) waitForUpdate() tea.Cmd {
	ch := m.updates
	return func() tea.Msg {
		update, ok := <-ch
		if !ok {
			return nil
		}
		return storeUpdateMsg(update)
	}
}

// refresh re-reads the cache and the store snapshot after anything that may
// have changed them. Cache loads mirror into the store, and their updates can
// still be queued behind the message being handled.
func (m *Model) refresh() {
	m.state = m.manager.Store().Get()
	m.rows = m.cache.Filtered()
	m.status = m.cache.Status()
	m.clampScroll()
}

func (m *Model) visibleRows() int {
	rows := m.height - headerLines - footerLines
	if rows < 1 {
		return 1
	}
	return rows
}

// sentinelVisible reports whether the line after the last row is on screen.
// Nothing is visible before the first size message.
func (m *Model) sentinelVisible() bool {
	if m.height == 0 {
		return false
	}
	return len(m.rows)-m.offset < m.visibleRows()
}

// checkSentinel reports the sentinel's visibility to the cache and returns
// the next page load when it fires. Nothing is reported before the mount
// finished.
func (m *Model) checkSentinel() tea.Cmd {
	if !m.mounted || !m.cache.ObserveSentinel(m.sentinelVisible()) {
		return nil
	}
	m.loading = true
	return m.loadNextPage()
}

func (m *Model) moveCursor(delta int) {
	m.cursor += delta
	m.clampScroll()
}

// clampScroll keeps the cursor on a row and in view. With the cursor on
// the last row the sentinel line is scrolled into view as well.
func (m *Model) clampScroll() {
	n := len(m.rows)
	vis := m.visibleRows()
	if m.cursor >= n {
		m.cursor = n - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+vis {
		m.offset = m.cursor - vis + 1
	}
	if vis > 1 && n > 0 && m.cursor == n-1 && m.offset < n+1-vis {
		m.offset = n + 1 - vis
	}
	if maxOffset := n + 1 - vis; m.offset > maxOffset {
		m.offset = maxOffset
	}
	if m.offset < 0 {
		m.offset = 0
	}
}

// Selected returns the client under the cursor.
func (m *Model) Selected() (models.Client, bool) {
	if m.cursor < 0 || m.cursor >= len(m.rows) {
		return models.Client{}, false
	}
	return m.rows[m.cursor], true
}
