// Package venv provisions the isolated Python environment that holds Ansible.
// Re-running against an existing environment is safe: venv creation and pip
// installs converge on the requested state without touching user data.
package venv

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	clierrors "github.com/ariel-frischer/ansible-bootstrap/internal/errors"
	"github.com/ariel-frischer/ansible-bootstrap/internal/runner"
	log "github.com/cantara/bragi/sbragi"
)

// PackageName is the PyPI distribution installed into the environment.
const PackageName = "ansible"

// Installation describes a provisioned environment.
type Installation struct {
	Dir     string
	Version string
}

// Provisioner creates the environment and installs Ansible into it.
type Provisioner struct {
	Runner    runner.Runner
	PythonCmd string
	Dir       string
	// Constraint is an optional version spec; empty installs the latest release
	Constraint string
}

// NewProvisioner returns a Provisioner for the environment at dir.
func NewProvisioner(r runner.Runner, pythonCmd, dir, constraint string) *Provisioner {
	return &Provisioner{
		Runner:     r,
		PythonCmd:  pythonCmd,
		Dir:        dir,
		Constraint: constraint,
	}
}

// Python returns the environment's interpreter.
func Python(dir string) string {
	return filepath.Join(dir, "bin", "python")
}

// Binary returns the path of an executable installed in the environment.
func Binary(dir, name string) string {
	return filepath.Join(dir, "bin", name)
}

// Provision creates the environment, upgrades pip, installs Ansible, and
// verifies the installed version.
func (p *Provisioner) Provision(ctx context.Context) (*Installation, error) {
	python := Python(p.Dir)
	steps := []struct {
		what string
		cmd  runner.Command
	}{
		{"creating virtual environment", runner.Command{Name: p.PythonCmd, Args: []string{"-m", "venv", p.Dir}}},
		{"upgrading pip", runner.Command{Name: python, Args: []string{"-m", "pip", "install", "--upgrade", "pip"}}},
		{"installing " + Requirement(p.Constraint), runner.Command{Name: python, Args: []string{"-m", "pip", "install", Requirement(p.Constraint)}}},
	}
	for _, step := range steps {
		log.Debug(step.what, "venv", p.Dir)
		if err := p.Runner.Run(ctx, step.cmd); err != nil {
			return nil, fmt.Errorf("%s: %w", step.what, err)
		}
	}

	out, err := p.Runner.Output(ctx, runner.Command{Name: python, Args: []string{"-m", "pip", "show", PackageName}})
	if err != nil {
		return nil, fmt.Errorf("querying installed ansible: %w", err)
	}
	version := ParseShowVersion(out)
	if version == "" {
		return nil, fmt.Errorf("pip show %s reported no version", PackageName)
	}
	if pinned, ok := PinnedVersion(p.Constraint); ok && !SameVersion(pinned, version) {
		return nil, clierrors.VersionMismatch(pinned, version)
	}

	if err := p.Runner.Run(ctx, runner.Command{Name: Binary(p.Dir, "ansible"), Args: []string{"--version"}}); err != nil {
		return nil, fmt.Errorf("verifying ansible: %w", err)
	}

	return &Installation{Dir: p.Dir, Version: version}, nil
}

// Requirement turns a version constraint into a pip requirement. A bare
// version pins exactly; a constraint with an operator is used as written.
func Requirement(constraint string) string {
	constraint = strings.Join(strings.Fields(constraint), "")
	switch {
	case constraint == "":
		return PackageName
	case strings.ContainsAny(constraint[:1], "=<>~!"):
		return PackageName + constraint
	default:
		return PackageName + "==" + constraint
	}
}

// PinnedVersion reports the exact version a constraint requires, if any.
func PinnedVersion(constraint string) (string, bool) {
	v := strings.TrimSpace(constraint)
	if strings.HasPrefix(v, "===") {
		return "", false
	}
	v = strings.TrimSpace(strings.TrimPrefix(v, "=="))
	if v == "" || strings.ContainsAny(v, "=<>~!,*") {
		return "", false
	}
	return v, true
}

// SameVersion compares two PEP 440 versions by release segments, so 9.2,
// 9.2.0 and 9.2.0.0 are equal. Pre/post/dev suffixes must match exactly; a
// local label (+local) on installed is ignored unless wanted names one.
func SameVersion(wanted, installed string) bool {
	wanted = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(wanted), "v"))
	installed = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(installed), "v"))
	if !strings.Contains(wanted, "+") {
		installed, _, _ = strings.Cut(installed, "+")
	}

	wantRelease, wantRest := splitRelease(wanted)
	gotRelease, gotRest := splitRelease(installed)
	if wantRest != gotRest || len(wantRelease) == 0 || len(gotRelease) == 0 {
		return wanted == installed
	}
	for len(wantRelease) < len(gotRelease) {
		wantRelease = append(wantRelease, 0)
	}
	for len(gotRelease) < len(wantRelease) {
		gotRelease = append(gotRelease, 0)
	}
	for i := range wantRelease {
		if wantRelease[i] != gotRelease[i] {
			return false
		}
	}
	return true
}

// splitRelease parses the leading dotted release numbers and returns the
// remainder unparsed.
func splitRelease(v string) ([]int, string) {
	end := strings.IndexFunc(v, func(r rune) bool { return r != '.' && (r < '0' || r > '9') })
	if end < 0 {
		end = len(v)
	}
	release, rest := strings.TrimRight(v[:end], "."), v[end:]
	if release == "" {
		return nil, rest
	}

	var segments []int
	for _, part := range strings.Split(release, ".") {
		n, err := strconv.Atoi(part)
		if err != nil {
			return nil, v
		}
		segments = append(segments, n)
	}
	return segments, rest
}

// ParseShowVersion extracts the Version field from `pip show` output.
func ParseShowVersion(out []byte) string {
	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		key, value, ok := strings.Cut(scanner.Text(), ":")
		if ok && strings.TrimSpace(key) == "Version" {
			return strings.TrimSpace(value)
		}
	}
	return ""
}
