package tui

import (
	"testing"

	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
)

func TestProfileFromEnv(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want termenv.Profile
	}{
		{name: "detected", env: nil, want: termenv.ANSI256},
		{name: "forced", env: map[string]string{"CLICOLOR_FORCE": "1"}, want: termenv.TrueColor},
		{name: "truecolor", env: map[string]string{"COLORTERM": "truecolor"}, want: termenv.TrueColor},
		{name: "no color wins", env: map[string]string{"NO_COLOR": "1", "CLICOLOR_FORCE": "1"}, want: termenv.Ascii},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			getenv := func(k string) string { return tt.env[k] }
			assert.Equal(t, tt.want, profileFromEnv(getenv, termenv.ANSI256))
		})
	}
}
