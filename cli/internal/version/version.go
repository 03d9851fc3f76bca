// Package version reports the schemadiff build and the file formats it writes.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"

	"github.com/satishbabariya/schemadiff/migrate/history"
)

// Set with -ldflags "-X .../version.Version=..." at release time.
var (
	Version   = "0.1.0"
	BuildDate = ""
	GitCommit = ""
)

// Info describes the running binary.
type Info struct {
	Version       string
	GitCommit     string
	BuildDate     string
	Modified      bool
	GoVersion     string
	Platform      string
	HistoryFormat string
}

// Get returns the build information. Commit and date fall back to the VCS
// stamp of the Go toolchain when they were not set at link time.
func Get() Info {
	info := Info{
		Version:       Version,
		GitCommit:     GitCommit,
		BuildDate:     BuildDate,
		GoVersion:     runtime.Version(),
		Platform:      runtime.GOOS + "/" + runtime.GOARCH,
		HistoryFormat: history.FormatVersion,
	}
	if bi, ok := debug.ReadBuildInfo(); ok {
		applyVCS(&info, bi.Settings)
	}
	return info
}

func applyVCS(info *Info, settings []debug.BuildSetting) {
	for _, s := range settings {
		switch s.Key {
		case "vcs.revision":
			if info.GitCommit == "" {
				info.GitCommit = s.Value
			}
		case "vcs.time":
			if info.BuildDate == "" {
				info.BuildDate = s.Value
			}
		case "vcs.modified":
			info.Modified = s.Value == "true"
		}
	}
}

// ShortCommit returns the first 12 characters of the commit, or "unknown".
func (i Info) ShortCommit() string {
	switch {
	case i.GitCommit == "":
		return "unknown"
	case len(i.GitCommit) > 12:
		return i.GitCommit[:12]
	default:
		return i.GitCommit
	}
}

func (i Info) String() string {
	return fmt.Sprintf("schemadiff %s (%s, %s)", i.Version, i.ShortCommit(), i.Platform)
}

// FullString lists every field, one per line.
func (i Info) FullString() string {
	commit := i.ShortCommit()
	if i.Modified {
		commit += "-dirty"
	}
	date := i.BuildDate
	if date == "" {
		date = "unknown"
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "schemadiff %s\n", i.Version)
	fmt.Fprintf(&sb, "  commit:         %s\n", commit)
	fmt.Fprintf(&sb, "  built:          %s\n", date)
	fmt.Fprintf(&sb, "  go:             %s %s\n", i.GoVersion, i.Platform)
	fmt.Fprintf(&sb, "  history format: %s", i.HistoryFormat)
	return sb.String()
}
