// Package version exposes build metadata injected with -ldflags, e.g.
//
//	-X github.com/grovetools/ftrack/version.Version=v0.3.0
package version

import (
	"fmt"
	"runtime"
	"strings"
)

var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

// Info is the build metadata of the running binary.
type Info struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildDate string `json:"buildDate"`
	GoVersion string `json:"goVersion"`
	Platform  string `json:"platform"`
}

// GetInfo returns the build metadata.
func GetInfo() Info {
	return Info{
		Version:   Version,
		Commit:    Commit,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
		Platform:  fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
	}
}

// Short returns the version with an abbreviated commit, e.g. "v0.3.0 (1a2b3c4)".
func (i Info) Short() string {
	commit := i.Commit
	if len(commit) > 7 {
		commit = commit[:7]
	}
	return fmt.Sprintf("%s (%s)", i.Version, commit)
}

// UserAgent is sent with every API request.
func (i Info) UserAgent() string {
	return "ftrack/" + strings.TrimPrefix(i.Version, "v")
}

func (i Info) String() string {
	return fmt.Sprintf("  Commit:     %s\n  Built:      %s\n  Go:         %s\n  Platform:   %s",
		i.Commit, i.BuildDate, i.GoVersion, i.Platform)
}
