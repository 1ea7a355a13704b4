package dashboard

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/grovetools/ftrack/errors"
	"github.com/grovetools/ftrack/pkg/models"
	"github.com/grovetools/ftrack/tui/theme"
	"github.com/grovetools/ftrack/tui/utils/scrollbar"
)

const (
	nameWidth  = 28
	emailWidth = 30
	dateFormat = "2006-01-02"
)

// View renders the dashboard.
func (m *Model) View() string {
	if m.expired {
		return m.expiredView()
	}

	var b strings.Builder
	b.WriteString(m.headerView())
	b.WriteString(m.rowsView())
	b.WriteString(m.footerView())
	return b.String()
}

func (m *Model) headerView() string {
	t := theme.DefaultTheme
	sum := m.state.Summarize(m.now())

	var b strings.Builder
	b.WriteString(t.Header.Render("FTRACK"))
	if sum.User != nil {
		fmt.Fprintf(&b, "  %s %s %s", theme.IconUser, t.Bold.Render(sum.User.Name), t.Muted.Render(sum.User.Email))
	}
	fmt.Fprintf(&b, "  %s token %s\n", theme.IconClock, sum.ExpiryText())

	cached := fmt.Sprintf("%d cached", sum.CachedClients)
	if len(sum.FirstClients) > 0 {
		cached += ": " + strings.Join(sum.FirstClients, ", ")
	}
	b.WriteString(t.Muted.Render(cached) + "\n")

	status := fmt.Sprintf("sort: %s %s %d shown of %d loaded", m.status.Sort.Label, theme.IconBullet, len(m.rows), m.status.Loaded)
	if m.status.HasMore {
		status += " " + theme.IconBullet + " more available"
	}
	if m.loading {
		status += " " + m.spinner.View()
	}
	b.WriteString(t.Info.Render(status) + "\n")

	if m.search.Focused() || m.search.Value() != "" {
		b.WriteString(m.search.View())
	}
	b.WriteString("\n")

	b.WriteString(t.TableHeader.Render(formatRow("NAME", "EMAIL", "ADDED")) + "\n")
	return b.String()
}

func (m *Model) rowsView() string {
	t := theme.DefaultTheme
	vis := m.visibleRows()

	var lines []string
	end := m.offset + vis
	if end > len(m.rows) {
		end = len(m.rows)
	}
	for i := m.offset; i < end; i++ {
		c := m.rows[i]
		line := formatRow(c.Name, c.ContactEmail, formatDate(c))
		if i == m.cursor {
			lines = append(lines, t.SelectedRow.Render(theme.IconArrow+" "+line))
		} else {
			lines = append(lines, "  "+line)
		}
	}
	if m.sentinelVisible() {
		lines = append(lines, m.sentinelLine())
	}
	for len(lines) < vis {
		lines = append(lines, "")
	}
	if m.width > 0 {
		bar := scrollbar.Generate(len(m.rows)+1, m.offset, vis)
		for i := range lines {
			lines[i] = pad(lines[i], m.width-1) + bar[i]
		}
	}
	return strings.Join(lines, "\n") + "\n"
}

func (m *Model) sentinelLine() string {
	t := theme.DefaultTheme
	switch {
	case m.status.LoadingMore:
		return "  " + m.spinner.View() + t.Muted.Render(" loading more")
	case m.status.HasMore:
		return t.Muted.Render("  ...")
	case len(m.rows) == 0 && m.search.Value() != "":
		return t.Muted.Render("  no clients match " + m.search.Value())
	case len(m.rows) == 0:
		return t.Muted.Render("  no clients yet")
	default:
		return t.Muted.Render("  end of list")
	}
}

func (m *Model) footerView() string {
	t := theme.DefaultTheme
	var line string
	switch {
	case m.confirm != nil:
		line = t.Warning.Render(fmt.Sprintf("%s Delete %s? (y/n)", theme.IconWarning, m.confirm.Name))
	case m.err != nil:
		line = t.Error.Render(theme.IconError + " " + errors.UserMessage(m.err))
	case m.message != "":
		line = t.Success.Render(theme.IconSuccess + " " + m.message)
	}
	return line + "\n" + m.help.View(m.keys)
}

func (m *Model) expiredView() string {
	t := theme.DefaultTheme
	body := lipgloss.JoinVertical(lipgloss.Center,
		t.Error.Render("Session expired"),
		"",
		"Your session could not be refreshed.",
		"Press enter to sign in again.",
	)
	modal := t.Modal.Render(body)
	if m.width == 0 || m.height == 0 {
		return modal
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal)
}

func formatRow(name, email, added string) string {
	return pad(truncate(name, nameWidth), nameWidth) + "  " +
		pad(truncate(email, emailWidth), emailWidth) + "  " + added
}

func formatDate(c models.Client) string {
	if c.CreatedAt.IsZero() {
		return "-"
	}
	return c.CreatedAt.Local().Format(dateFormat)
}

func truncate(s string, width int) string {
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	return string(r[:width-1]) + "…"
}

func pad(s string, width int) string {
	if w := lipgloss.Width(s); w < width {
		return s + strings.Repeat(" ", width-w)
	}
	return s
}
