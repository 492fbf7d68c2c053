// Package prereq installs the packages the rest of the bootstrap needs: git,
// an SSH client, and a Python runtime with pip and venv support. Every
// install call relies on the platform package manager being a no-op for
// packages that are already present, so the step is safe to repeat.
package prereq

import (
	"context"
	"fmt"
	"os"

	"github.com/ariel-frischer/ansible-bootstrap/internal/outcome"
	"github.com/ariel-frischer/ansible-bootstrap/internal/platform"
	"github.com/ariel-frischer/ansible-bootstrap/internal/runner"
	log "github.com/cantara/bragi/sbragi"
)

// HomebrewInstallURL is the official Homebrew bootstrap script.
const HomebrewInstallURL = "https://raw.githubusercontent.com/Homebrew/install/HEAD/install.sh"

var (
	// BrewPackages are installed on macOS.
	BrewPackages = []string{"git", "openssh", "python"}
	// AptPackages are installed on Debian-family systems.
	AptPackages = []string{"git", "openssh-client", "python3", "python3-venv", "python3-pip"}
	// BrewLocations are checked when brew is not on PATH, e.g. right after
	// a fresh install.
	BrewLocations = []string{"/opt/homebrew/bin/brew", "/usr/local/bin/brew"}
)

// Installer installs prerequisites with the platform package manager.
type Installer struct {
	Runner runner.Runner
	// Geteuid reports the effective user id; root skips privilege escalation
	Geteuid func() int
	// FileExists reports whether a path exists; used to locate brew
	FileExists func(path string) bool
}

// NewInstaller returns an Installer backed by r and the real process state.
func NewInstaller(r runner.Runner) *Installer {
	return &Installer{
		Runner:  r,
		Geteuid: os.Geteuid,
		FileExists: func(path string) bool {
			_, err := os.Stat(path)
			return err == nil
		},
	}
}

// Install provisions the fixed package set for tag.
func (i *Installer) Install(ctx context.Context, tag platform.Tag) (outcome.Outcome, error) {
	switch tag {
	case platform.MacOS:
		return i.installMacOS(ctx)
	case platform.Debian:
		return i.installDebian(ctx)
	case platform.Unsupported:
		return outcome.Outcome{}, fmt.Errorf("no installer for platform %s", tag)
	default:
		return outcome.Outcome{}, fmt.Errorf("unknown platform tag %d", int(tag))
	}
}

func (i *Installer) installMacOS(ctx context.Context) (outcome.Outcome, error) {
	result := outcome.Donef("installed %d packages with Homebrew", len(BrewPackages))

	// The Command Line Tools installer opens a GUI dialog and returns
	// immediately; later steps fail if it never finishes.
	if _, err := i.Runner.Output(ctx, runner.Command{Name: "xcode-select", Args: []string{"-p"}}); err != nil {
		log.Debug("command line tools missing", "err", err)
		if err := i.Runner.Run(ctx, runner.Command{Name: "xcode-select", Args: []string{"--install"}}); err != nil {
			log.Debug("xcode-select --install did not start", "err", err)
		}
		result.Warn("Xcode Command Line Tools are not installed; complete the installer dialog if later steps fail")
	}

	brew, err := i.ensureBrew(ctx)
	if err != nil {
		return outcome.Outcome{}, err
	}

	if err := i.Runner.Run(ctx, runner.Command{Name: brew, Args: []string{"update"}}); err != nil {
		return outcome.Outcome{}, fmt.Errorf("refreshing Homebrew: %w", err)
	}

	args := append([]string{"install"}, BrewPackages...)
	if err := i.Runner.Run(ctx, runner.Command{Name: brew, Args: args}); err != nil {
		return outcome.Outcome{}, fmt.Errorf("installing packages: %w", err)
	}

	return result, nil
}

// ensureBrew returns the brew binary, installing Homebrew when absent.
func (i *Installer) ensureBrew(ctx context.Context) (string, error) {
	if brew, ok := i.findBrew(); ok {
		return brew, nil
	}

	log.Debug("installing Homebrew", "url", HomebrewInstallURL)
	script, err := i.Runner.Output(ctx, runner.Command{Name: "curl", Args: []string{"-fsSL", HomebrewInstallURL}})
	if err != nil {
		return "", fmt.Errorf("downloading Homebrew installer: %w", err)
	}
	// NONINTERACTIVE makes install.sh probe with `sudo -n`, which only
	// succeeds with cached credentials; prompt for them first.
	if err := i.Runner.Run(ctx, runner.Command{Name: "sudo", Args: []string{"-v"}}); err != nil {
		return "", fmt.Errorf("acquiring sudo privileges for Homebrew: %w", err)
	}
	if err := i.Runner.Run(ctx, runner.Command{
		Name: "/bin/bash",
		Args: []string{"-c", string(script)},
		Env:  []string{"NONINTERACTIVE=1"},
	}); err != nil {
		return "", fmt.Errorf("installing Homebrew: %w", err)
	}

	brew, ok := i.findBrew()
	if !ok {
		return "", fmt.Errorf("brew not found after installing Homebrew")
	}
	return brew, nil
}

func (i *Installer) findBrew() (string, bool) {
	if path, err := i.Runner.LookPath("brew"); err == nil {
		return path, true
	}
	for _, candidate := range BrewLocations {
		if i.FileExists(candidate) {
			return candidate, true
		}
	}
	return "", false
}

func (i *Installer) installDebian(ctx context.Context) (outcome.Outcome, error) {
	result := outcome.Donef("installed %d packages with apt", len(AptPackages))

	useSudo := false
	if i.Geteuid() != 0 {
		if _, err := i.Runner.LookPath("sudo"); err == nil {
			if err := i.Runner.Run(ctx, runner.Command{Name: "sudo", Args: []string{"-v"}}); err != nil {
				return outcome.Outcome{}, fmt.Errorf("acquiring sudo privileges: %w", err)
			}
			useSudo = true
		} else {
			log.Debug("sudo not available, running apt-get unprivileged")
		}
	}

	update := aptCommand(useSudo, "update")
	if err := i.Runner.Run(ctx, update); err != nil {
		return outcome.Outcome{}, fmt.Errorf("refreshing apt indexes: %w", err)
	}

	args := append([]string{"install", "-y", "--no-install-recommends"}, AptPackages...)
	if err := i.Runner.Run(ctx, aptCommand(useSudo, args...)); err != nil {
		return outcome.Outcome{}, fmt.Errorf("installing packages: %w", err)
	}

	return result, nil
}

// aptCommand builds a non-interactive apt-get invocation. sudo resets the
// environment, so the frontend variable is passed as a sudo argument.
func aptCommand(useSudo bool, args ...string) runner.Command {
	const frontend = "DEBIAN_FRONTEND=noninteractive"
	if useSudo {
		return runner.Command{
			Name: "sudo",
			Args: append([]string{frontend, "apt-get"}, args...),
		}
	}
	return runner.Command{
		Name: "apt-get",
		Args: args,
		Env:  []string{frontend},
	}
}
