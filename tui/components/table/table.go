// Package table renders lipgloss tables in the shared theme.
package table

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	ltable "github.com/charmbracelet/lipgloss/table"
	"github.com/grovetools/ftrack/tui/theme"
)

// NoSelection disables row highlighting.
const NoSelection = -1

// Options configures a table.
type Options struct {
	Theme    *theme.Theme
	Bordered bool
	// Selected is the data row to highlight, or NoSelection.
	Selected int
	// Width fixes the total width; zero sizes the table to its content.
	Width int
	// Muted columns render faint, e.g. ids and timestamps.
	Muted []int
}

// DefaultOptions returns a bordered table without selection.
func DefaultOptions() Options {
	return Options{
		Theme:    theme.DefaultTheme,
		Bordered: true,
		Selected: NoSelection,
	}
}

// New builds a lipgloss table for headers and rows.
func New(headers []string, rows [][]string, opts Options) *ltable.Table {
	t := opts.Theme
	if t == nil {
		t = theme.DefaultTheme
	}
	muted := make(map[int]bool, len(opts.Muted))
	for _, c := range opts.Muted {
		muted[c] = true
	}

	tbl := ltable.New().Headers(headers...).Rows(rows...)
	if opts.Bordered {
		tbl = tbl.Border(lipgloss.RoundedBorder()).BorderStyle(t.TableBorder)
	} else {
		tbl = tbl.Border(lipgloss.HiddenBorder())
	}
	if opts.Width > 0 {
		tbl = tbl.Width(opts.Width)
	}

	return tbl.StyleFunc(func(row, col int) lipgloss.Style {
		cell := lipgloss.NewStyle().Padding(0, 1)
		if row == ltable.HeaderRow {
			return t.TableHeader.Padding(0, 1)
		}
		switch {
		case row == opts.Selected:
			cell = cell.Inherit(t.SelectedRow)
		case muted[col]:
			cell = cell.Foreground(t.Colors.MutedText)
		}
		return cell
	})
}

// Render returns the table as a string.
func Render(headers []string, rows [][]string, opts Options) string {
	return New(headers, rows, opts).String()
}

// Simple renders a bordered table with default options.
func Simple(headers []string, rows [][]string) string {
	return Render(headers, rows, DefaultOptions())
}

// KeyValue renders aligned "key  value" lines, keys in the header style.
func KeyValue(pairs [][2]string) string {
	t := theme.DefaultTheme
	width := 0
	for _, p := range pairs {
		if w := lipgloss.Width(p[0]); w > width {
			width = w
		}
	}
	var b strings.Builder
	for i, p := range pairs {
		if i > 0 {
			b.WriteByte('\n')
		}
		key := p[0] + strings.Repeat(" ", width-lipgloss.Width(p[0]))
		b.WriteString(t.TableHeader.Render(key))
		b.WriteString("  ")
		b.WriteString(p[1])
	}
	return b.String()
}
