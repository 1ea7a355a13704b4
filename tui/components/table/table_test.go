package table

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRenderContainsCells(t *testing.T) {
	out := Simple(
		[]string{"ID", "NAME"},
		[][]string{{"c1", "Acme"}, {"c2", "Globex"}},
	)
	for _, want := range []string{"ID", "NAME", "c1", "Acme", "c2", "Globex"} {
		assert.Contains(t, out, want)
	}
	// header, two rows, top and bottom border and the header separator
	assert.GreaterOrEqual(t, strings.Count(out, "\n")+1, 5)
}

func TestRenderUnbordered(t *testing.T) {
	opts := DefaultOptions()
	opts.Bordered = false
	opts.Selected = 0
	opts.Muted = []int{0}
	out := Render([]string{"ID"}, [][]string{{"c1"}}, opts)
	assert.Contains(t, out, "c1")
	assert.NotContains(t, out, "╭")
}

func TestKeyValueAligns(t *testing.T) {
	out := KeyValue([][2]string{{"user", "Ada"}, {"expires", "in 5m"}})
	lines := strings.Split(out, "\n")
	assert.Len(t, lines, 2)
	assert.Contains(t, lines[0], "Ada")
	assert.Contains(t, lines[1], "in 5m")
}
