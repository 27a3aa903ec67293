// SPDX-License-Identifier: MIT
//
// Package build carries build metadata (name, timestamp, commit, version)
// injected at compile time via linker flags:
//
//	go build -ldflags "-X leopold/pkg/build.buildName=leopold \
//	    -X leopold/pkg/build.buildVersion=0.1.0 ..."
//
// Development builds without ldflags fall back to "dev" placeholders so
// the binary still runs.
package build

import "fmt"

// Info holds the resolved build metadata.
type Info struct {
	Name    string
	Time    string
	Commit  string
	Version string
}

// Package-level variables populated by -ldflags during compilation.
var (
	buildName    string
	buildTime    string
	buildCommit  string
	buildVersion string

	current = Info{
		Name:    "leopold",
		Time:    "unknown",
		Commit:  "unknown",
		Version: "dev",
	}
)

// Initialize resolves the ldflags variables into the current Info,
// leaving the development fallbacks in place for any flag that was not
// injected. Call once early in program startup.
func Initialize() {
	if buildName != "" {
		current.Name = buildName
	}
	if buildTime != "" {
		current.Time = buildTime
	}
	if buildCommit != "" {
		current.Commit = buildCommit
	}
	if buildVersion != "" {
		current.Version = buildVersion
	}
}

// Get returns the current build information. Initialize should be called
// first; before that the development fallbacks are returned.
func Get() Info {
	return current
}

// Summary formats the build info as a single human-readable line.
func (i Info) Summary() string {
	return fmt.Sprintf("%s %s (commit %s, built %s)", i.Name, i.Version, i.Commit, i.Time)
}
