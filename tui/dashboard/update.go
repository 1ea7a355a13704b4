package dashboard

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/grovetools/ftrack/errors"
	"github.com/grovetools/ftrack/pkg/models"
)

// Update handles messages and updates the model accordingly.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.search.Width = msg.Width - 4
		m.clampScroll()
		return m, m.checkSentinel()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case mountedMsg:
		m.loading = false
		m.mounted = true
		m.setErr(msg.err)
		if msg.reused {
			m.message = "Showing cached first page"
		}
		m.refresh()
		return m, m.checkSentinel()

	case pageLoadedMsg:
		m.loading = false
		m.setErr(msg.err)
		m.refresh()
		return m, m.checkSentinel()

	case sortChangedMsg:
		m.loading = false
		m.setErr(msg.err)
		if msg.err == nil {
			m.message = "Sorted by " + msg.sort.Label
			m.cursor, m.offset = 0, 0
		}
		m.refresh()
		return m, m.checkSentinel()

	case deletedMsg:
		m.loading = false
		m.setErr(msg.err)
		if msg.err == nil {
			m.message = fmt.Sprintf("Deleted %s", msg.name)
		}
		m.refresh()
		return m, m.checkSentinel()

	case storeUpdateMsg:
		m.state = msg.State
		if msg.State.SessionExpired {
			m.expired = true
		}
		m.refresh()
		return m, m.waitForUpdate()

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m *Model) setErr(err error) {
	m.err = err
	if err != nil {
		m.message = ""
		if errors.Is(err, errors.ErrCodeSessionExpired) {
			m.expired = true
		}
	}
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC && !m.expired {
		return m, tea.Quit
	}
	if m.expired {
		if key.Matches(msg, m.keys.Confirm, m.keys.Quit) {
			m.manager.AcknowledgeExpired()
			m.SessionExpired = true
			return m, tea.Quit
		}
		return m, nil
	}

	if m.confirm != nil {
		switch {
		case key.Matches(msg, m.keys.Yes):
			target := *m.confirm
			m.confirm = nil
			m.loading = true
			return m, m.deleteClient(target)
		case key.Matches(msg, m.keys.No, m.keys.Cancel):
			m.confirm = nil
			m.message = "Delete canceled"
		}
		return m, nil
	}

	if m.search.Focused() {
		return m.handleSearchKey(msg)
	}

	if m.help.ShowAll && !key.Matches(msg, m.keys.Quit) {
		m.help.ShowAll = false
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = true
		return m, nil
	case key.Matches(msg, m.keys.Up):
		m.moveCursor(-1)
	case key.Matches(msg, m.keys.Down):
		m.moveCursor(1)
	case key.Matches(msg, m.keys.PageUp):
		m.moveCursor(-m.visibleRows())
	case key.Matches(msg, m.keys.PageDown):
		m.moveCursor(m.visibleRows())
	case key.Matches(msg, m.keys.Top):
		m.cursor = 0
		m.clampScroll()
	case key.Matches(msg, m.keys.Bottom):
		m.cursor = len(m.rows) - 1
		m.clampScroll()
	case key.Matches(msg, m.keys.Search):
		m.search.Focus()
		return m, textinput.Blink
	case key.Matches(msg, m.keys.Sort):
		m.loading = true
		return m, m.changeSort(models.NextClientSort(m.status.Sort))
	case key.Matches(msg, m.keys.Reload):
		m.loading = true
		m.message = "Reloading"
		return m, m.reload()
	case key.Matches(msg, m.keys.Delete):
		if c, ok := m.Selected(); ok {
			m.confirm = &c
		}
		return m, nil
	}
	return m, m.checkSentinel()
}

// handleSearchKey edits the search term. Esc clears it, enter keeps it.
func (m *Model) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch {
	case key.Matches(msg, m.keys.Cancel):
		m.search.Blur()
		m.search.SetValue("")
	case key.Matches(msg, m.keys.Confirm):
		m.search.Blur()
	default:
		m.search, cmd = m.search.Update(msg)
	}
	m.cache.Search(m.search.Value())
	m.cursor, m.offset = 0, 0
	m.refresh()
	return m, tea.Batch(cmd, m.checkSentinel())
}
