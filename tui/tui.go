package tui

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// InitializeTUI forces a color profile when the environment asks for one
// (`CLICOLOR_FORCE`, `COLORTERM`, `NO_COLOR`). Call it before starting a
// bubbletea program.
func InitializeTUI() {
	lipgloss.SetColorProfile(profileFromEnv(os.Getenv, termenv.ColorProfile()))
}

func profileFromEnv(getenv func(string) string, detected termenv.Profile) termenv.Profile {
	switch {
	case getenv("NO_COLOR") != "":
		return termenv.Ascii
	case getenv("CLICOLOR_FORCE") == "1" || getenv("COLORTERM") == "truecolor":
		return termenv.TrueColor
	default:
		return detected
	}
}
