package theme

import "os"

// IconsEnv switches to plain ASCII icons when set to "ascii".
const IconsEnv = "FTRACK_ICONS"

// Icons used by CLI output and the dashboard.
var (
	IconSuccess string
	IconError   string
	IconWarning string
	IconArrow   string
	IconBullet  string
	IconUser    string
	IconClock   string
)

func init() {
	SetIcons(os.Getenv(IconsEnv) != "ascii")
}

// SetIcons picks unicode icons or their ASCII fallbacks.
func SetIcons(unicode bool) {
	if unicode {
		IconSuccess = "✓"
		IconError = "✗"
		IconWarning = "⚠"
		IconArrow = "▶"
		IconBullet = "•"
		IconUser = "●"
		IconClock = "◷"
		return
	}
	IconSuccess = "[ok]"
	IconError = "[x]"
	IconWarning = "[!]"
	IconArrow = ">"
	IconBullet = "*"
	IconUser = "@"
	IconClock = "~"
}
