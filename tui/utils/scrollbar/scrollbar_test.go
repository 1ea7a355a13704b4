package scrollbar

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func thumbRows(bar []string) []int {
	var rows []int
	for i, cell := range bar {
		if strings.Contains(cell, thumbCell) {
			rows = append(rows, i)
		}
	}
	return rows
}

func TestGenerate(t *testing.T) {
	tests := []struct {
		name   string
		total  int
		offset int
		height int
		thumb  []int
	}{
		{name: "fits", total: 5, offset: 0, height: 10, thumb: nil},
		{name: "top", total: 40, offset: 0, height: 10, thumb: []int{0, 1}},
		{name: "bottom", total: 40, offset: 30, height: 10, thumb: []int{8, 9}},
		{name: "offset clamped", total: 40, offset: 99, height: 10, thumb: []int{8, 9}},
		{name: "middle", total: 20, offset: 5, height: 10, thumb: []int{3, 4, 5, 6, 7}},
		{name: "long list keeps a thumb", total: 1000, offset: 0, height: 4, thumb: []int{0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bar := Generate(tt.total, tt.offset, tt.height)
			assert.Len(t, bar, tt.height)
			assert.Equal(t, tt.thumb, thumbRows(bar))
		})
	}
}

func TestGenerateZeroHeight(t *testing.T) {
	assert.Empty(t, Generate(10, 0, 0))
}
