// Package version reports build metadata of the mailsmith binary. Release
// builds inject it with -ldflags; binaries built with "go install" fall back
// to the module version and VCS stamp recorded by the Go toolchain.
package version

import (
	"encoding/json"
	"fmt"
	"runtime"
	"runtime/debug"
)

// Set via -ldflags "-X github.com/hupe1980/mailsmith/internal/version.version=...".
var (
	version   = "dev"
	gitCommit = "none"
	buildDate = "unknown"
)

// Info holds the build metadata for the binary.
type Info struct {
	Version   string `json:"version"`
	GitCommit string `json:"gitCommit"`
	BuildDate string `json:"buildDate"`
	Modified  bool   `json:"modified,omitempty"`
	GoVersion string `json:"goVersion"`
	Platform  string `json:"platform"`
}

// GetInfo returns the build information of the running binary.
func GetInfo() Info {
	bi, _ := debug.ReadBuildInfo()

	return resolve(Info{Version: version, GitCommit: gitCommit, BuildDate: buildDate}, bi)
}

// resolve fills the ldflags defaults of stamped from bi.
func resolve(stamped Info, bi *debug.BuildInfo) Info {
	info := stamped
	info.GoVersion = runtime.Version()
	info.Platform = runtime.GOOS + "/" + runtime.GOARCH

	if bi != nil {
		if info.Version == "dev" && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
			info.Version = bi.Main.Version
		}

		for _, s := range bi.Settings {
			switch s.Key {
			case "vcs.revision":
				if info.GitCommit == "none" {
					info.GitCommit = s.Value
				}
			case "vcs.time":
				if info.BuildDate == "unknown" {
					info.BuildDate = s.Value
				}
			case "vcs.modified":
				info.Modified = s.Value == "true"
			}
		}
	}

	info.GitCommit = shortCommit(info.GitCommit)

	return info
}

// Short returns the bare version, marked when built from a dirty tree.
func (i Info) Short() string {
	if i.Modified {
		return i.Version + "+dirty"
	}

	return i.Version
}

// String returns a human-readable single-line version string.
func (i Info) String() string {
	return fmt.Sprintf("mailsmith %s (commit %s, built %s, %s %s)",
		i.Short(), i.GitCommit, i.BuildDate, i.GoVersion, i.Platform)
}

// JSON returns the version info as indented JSON.
func (i Info) JSON() (string, error) {
	data, err := json.MarshalIndent(i, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshaling version info: %w", err)
	}

	return string(data), nil
}

func shortCommit(commit string) string {
	if len(commit) > 7 {
		return commit[:7]
	}

	return commit
}
