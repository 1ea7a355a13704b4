// Package scrollbar draws a one-column scroll indicator next to a list.
package scrollbar

import (
	"github.com/grovetools/ftrack/tui/theme"
)

const (
	thumbCell = "█"
	trackCell = "░"
)

// Generate returns one cell per visible line for a list of total lines
// whose first visible line is offset. When everything fits the cells are
// blank.
func Generate(total, offset, height int) []string {
	if height <= 0 {
		return []string{}
	}
	bar := make([]string, height)
	if total <= height {
		for i := range bar {
			bar[i] = " "
		}
		return bar
	}

	thumbSize := max(1, height*height/total)
	maxOffset := total - height
	offset = min(max(offset, 0), maxOffset)
	thumbStart := int(float64(height-thumbSize)*float64(offset)/float64(maxOffset) + 0.5)

	muted := theme.DefaultTheme.Muted
	for i := range bar {
		if i >= thumbStart && i < thumbStart+thumbSize {
			bar[i] = muted.Render(thumbCell)
		} else {
			bar[i] = muted.Render(trackCell)
		}
	}
	return bar
}
