// Package scaffold creates the minimal Ansible project layout.
//
// Directories are always (re)created since MkdirAll is idempotent. The
// inventory and playbook are written only when absent: once the operator has
// edited them, a re-run must leave their content untouched.
package scaffold

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/ariel-frischer/ansible-bootstrap/internal/config"
	log "github.com/cantara/bragi/sbragi"
)

// DefaultInventory is the inventory written into a fresh project.
const DefaultInventory = "[local]\nlocalhost ansible_connection=local\n"

// Action records what Scaffold did with a template file.
type Action string

const (
	// Created means the default content was written
	Created Action = "created"
	// Kept means an existing file was left untouched
	Kept Action = "kept"
)

// FileResult reports the fate of one template file.
type FileResult struct {
	Path   string
	Action Action
}

// Layout is the set of paths that make up a project.
type Layout struct {
	Root          string
	InventoryDir  string
	GroupVarsDir  string
	HostVarsDir   string
	RolesDir      string
	InventoryFile string
	PlaybookFile  string
}

// NewLayout derives the project layout from the configuration.
func NewLayout(cfg *config.Configuration) Layout {
	return Layout{
		Root:          cfg.ProjectDir,
		InventoryDir:  filepath.Dir(cfg.InventoryPath),
		GroupVarsDir:  filepath.Join(cfg.ProjectDir, "group_vars"),
		HostVarsDir:   filepath.Join(cfg.ProjectDir, "host_vars"),
		RolesDir:      filepath.Join(cfg.ProjectDir, "roles"),
		InventoryFile: cfg.InventoryPath,
		PlaybookFile:  cfg.PlaybookPath,
	}
}

// Directories returns every directory Scaffold creates, parents first and
// without duplicates.
func (l Layout) Directories() []string {
	candidates := []string{
		l.Root,
		l.InventoryDir,
		l.GroupVarsDir,
		l.HostVarsDir,
		l.RolesDir,
		filepath.Dir(l.PlaybookFile),
	}

	seen := make(map[string]bool, len(candidates))
	dirs := make([]string, 0, len(candidates))
	for _, dir := range candidates {
		dir = filepath.Clean(dir)
		if seen[dir] {
			continue
		}
		seen[dir] = true
		dirs = append(dirs, dir)
	}
	return dirs
}

// Scaffolder creates a project layout on disk.
type Scaffolder struct {
	Layout Layout
}

// NewScaffolder returns a Scaffolder for the configured project.
func NewScaffolder(cfg *config.Configuration) *Scaffolder {
	return &Scaffolder{Layout: NewLayout(cfg)}
}

// Scaffold creates missing directories and default files.
func (s *Scaffolder) Scaffold() ([]FileResult, error) {
	for _, dir := range s.Layout.Directories() {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating directory %s: %w", dir, err)
		}
	}

	playbook, err := DefaultPlaybook().Render()
	if err != nil {
		return nil, err
	}

	templates := []struct {
		path    string
		content []byte
	}{
		{s.Layout.InventoryFile, []byte(DefaultInventory)},
		{s.Layout.PlaybookFile, playbook},
	}

	results := make([]FileResult, 0, len(templates))
	for _, tmpl := range templates {
		action, err := writeIfAbsent(tmpl.path, tmpl.content)
		if err != nil {
			return results, err
		}
		log.Debug("scaffold file", "path", tmpl.path, "action", string(action))
		results = append(results, FileResult{Path: tmpl.path, Action: action})
	}
	return results, nil
}

// createExclusive opens a new file for writing, failing with fs.ErrExist
// when the path is taken. Replaced in tests.
var createExclusive = func(path string) (io.WriteCloser, error) {
	return os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
}

// writeIfAbsent creates path with content unless something already exists
// there. O_EXCL makes the check and the create a single step. A failed write
// removes the partial file so the next run creates it again instead of
// keeping it.
func writeIfAbsent(path string, content []byte) (Action, error) {
	f, err := createExclusive(path)
	if errors.Is(err, fs.ErrExist) {
		return Kept, nil
	}
	if err != nil {
		return "", fmt.Errorf("creating %s: %w", path, err)
	}

	_, err = f.Write(content)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		if rmErr := os.Remove(path); rmErr != nil {
			log.WithError(rmErr).Warning("could not remove partial file", "path", path)
		}
		return "", fmt.Errorf("writing %s: %w", path, err)
	}
	return Created, nil
}
