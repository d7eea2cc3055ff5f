// Package version holds build metadata.
package version

import "fmt"

// Version is the current application version.
// This is a var (not const) so it can be overridden at build time via:
//
//	go build -ldflags "-X github.com/vanderheijden86/tasktree/pkg/version.Version=v1.2.3"
var Version = "v0.1.0"

// Commit and Date are set by release builds.
var (
	Commit = ""
	Date   = ""
)

// String formats the version line printed by --version.
func String() string {
	s := "tasktree " + Version
	if Commit != "" {
		s += fmt.Sprintf(" (commit %s", Commit)
		if Date != "" {
			s += ", built " + Date
		}
		s += ")"
	}
	return s
}
