package version

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInfo(t *testing.T) {
	tests := []struct {
		name      string
		info      Info
		short     string
		userAgent string
	}{
		{name: "dev build", info: Info{Version: "dev", Commit: "none"}, short: "dev (none)", userAgent: "ftrack/dev"},
		{name: "release", info: Info{Version: "v0.3.0", Commit: "1a2b3c4d5e6f"}, short: "v0.3.0 (1a2b3c4)", userAgent: "ftrack/0.3.0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.short, tt.info.Short())
			assert.Equal(t, tt.userAgent, tt.info.UserAgent())
		})
	}
}

func TestGetInfo(t *testing.T) {
	info := GetInfo()
	assert.Equal(t, runtime.Version(), info.GoVersion)
	assert.Contains(t, info.String(), info.Platform)
}
