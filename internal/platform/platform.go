// Package platform maps host identification facts to the closed set of
// platforms the bootstrap sequence knows how to provision.
package platform

import (
	"fmt"
	"os"
	"runtime"
	"strings"

	"gopkg.in/ini.v1"
)

// DefaultOSReleasePath is the distribution identification file on Linux.
const DefaultOSReleasePath = "/etc/os-release"

// Tag identifies a supported platform family.
type Tag int

const (
	// Unsupported is the zero value; Detect never returns it without an error
	Unsupported Tag = iota
	// MacOS is Darwin with Homebrew as the package manager
	MacOS
	// Debian is any Debian-family Linux distribution using apt
	Debian
)

// String returns the tag name used in output and history.
func (t Tag) String() string {
	switch t {
	case MacOS:
		return "macos"
	case Debian:
		return "debian"
	default:
		return "unsupported"
	}
}

// debianFamily lists distribution IDs provisioned with apt.
var debianFamily = map[string]bool{
	"debian": true,
	"ubuntu": true,
}

// Facts are the raw identifiers Detect consumes.
type Facts struct {
	// Kernel is the GOOS-style kernel name (darwin, linux, ...)
	Kernel string
	// ID is the os-release ID field, lowercase
	ID string
	// IDLike holds the space-separated os-release ID_LIKE entries
	IDLike []string
	// PrettyName is the human-readable distribution name
	PrettyName string
}

// Name returns the most descriptive name available for error messages.
func (f Facts) Name() string {
	switch {
	case f.PrettyName != "":
		return f.PrettyName
	case f.ID != "":
		return f.ID
	case f.Kernel != "":
		return f.Kernel
	default:
		return "unknown"
	}
}

// UnsupportedError reports a platform the bootstrap cannot provision.
type UnsupportedError struct {
	Facts Facts
}

func (e *UnsupportedError) Error() string {
	if e.Facts.Kernel == "linux" {
		return fmt.Sprintf("unsupported Linux distribution: %s", e.Facts.Name())
	}
	return fmt.Sprintf("unsupported operating system: %s", e.Facts.Name())
}

// Detect maps facts to a Tag. It has no side effects.
func Detect(f Facts) (Tag, error) {
	switch f.Kernel {
	case "darwin":
		return MacOS, nil
	case "linux":
		if debianFamily[f.ID] {
			return Debian, nil
		}
		for _, like := range f.IDLike {
			if debianFamily[like] {
				return Debian, nil
			}
		}
	}
	return Unsupported, &UnsupportedError{Facts: f}
}

// Gather collects facts for the running host. On Linux the distribution is
// read from osReleasePath; a missing file leaves the distribution fields
// empty so Detect reports the platform as unsupported.
func Gather(osReleasePath string) (Facts, error) {
	facts := Facts{Kernel: runtime.GOOS}
	if facts.Kernel != "linux" {
		return facts, nil
	}

	if _, err := os.Stat(osReleasePath); os.IsNotExist(err) {
		return facts, nil
	}
	release, err := ParseOSRelease(osReleasePath)
	if err != nil {
		return facts, err
	}
	release.Kernel = facts.Kernel
	return release, nil
}

// ParseOSRelease reads the ID, ID_LIKE and PRETTY_NAME fields of an
// os-release file. Quoted values are unquoted.
func ParseOSRelease(source any) (Facts, error) {
	file, err := ini.LoadSources(ini.LoadOptions{
		KeyValueDelimiters:  "=",
		IgnoreInlineComment: true,
		Insensitive:         false,
	}, source)
	if err != nil {
		return Facts{}, fmt.Errorf("parsing os-release: %w", err)
	}

	section := file.Section(ini.DefaultSection)
	return Facts{
		ID:         strings.ToLower(section.Key("ID").String()),
		IDLike:     strings.Fields(strings.ToLower(section.Key("ID_LIKE").String())),
		PrettyName: section.Key("PRETTY_NAME").String(),
	}, nil
}
