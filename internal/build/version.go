// Package build holds the version metadata stamped into the binary with
// -ldflags "-X github.com/ariel-frischer/ansible-bootstrap/internal/build.Version=...".
// It imports no other internal package.
package build

import (
	"fmt"
	"runtime"
)

var (
	Version   = "dev"
	Commit    = "unknown"
	BuildDate = "unknown"
)

// Info is the metadata shown by the version command.
type Info struct {
	Version   string
	Commit    string
	BuildDate string
	GoVersion string
	Platform  string
}

// Current returns the stamped values plus the Go toolchain and target.
func Current() Info {
	return Info{
		Version:   Version,
		Commit:    Commit,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
}

// String is the one-line form, e.g. "ansible-bootstrap 1.2.0 (abc1234, 2026-01-02)".
func (i Info) String() string {
	return fmt.Sprintf("ansible-bootstrap %s (%s, %s)", i.Version, i.Commit, i.BuildDate)
}

// IsDevBuild reports whether the binary was built without a release version.
func IsDevBuild() bool {
	return Version == "dev"
}
