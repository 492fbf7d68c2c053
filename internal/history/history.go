// Package history records bootstrap runs in a YAML file under the state
// directory. History is best-effort: callers report failures as warnings and
// never fail a run because the file could not be written.
package history

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// HistoryFileName is the name of the history file.
	HistoryFileName = "history.yaml"
	// BackupSuffix is the suffix for backup files when corruption is detected.
	BackupSuffix = ".backup"
)

// Status constants for history entries.
const (
	// StatusCompleted indicates every step finished.
	StatusCompleted = "completed"
	// StatusFailed indicates a step returned an error.
	StatusFailed = "failed"
	// StatusCancelled indicates the run was interrupted by a signal.
	StatusCancelled = "cancelled"
)

// HistoryEntry represents a single bootstrap run.
type HistoryEntry struct {
	// ID is a random UUID.
	ID string `yaml:"id"`
	// Command is the ansible-bootstrap command that ran (e.g., "bootstrap", "play").
	Command string `yaml:"command"`
	// Platform is the detected platform tag, empty when detection failed.
	Platform string `yaml:"platform,omitempty"`
	// Status is the final state: completed, failed, cancelled.
	Status string `yaml:"status"`
	// StartedAt is when the run started.
	StartedAt time.Time `yaml:"started_at"`
	// CompletedAt is when the run finished.
	CompletedAt time.Time `yaml:"completed_at"`
	// Duration is the run duration in Go duration format (e.g., "2m15.123s").
	Duration string `yaml:"duration"`
	// FailedStep names the step that stopped the run.
	FailedStep string `yaml:"failed_step,omitempty"`
	// Error is the message of the error that stopped the run.
	Error string `yaml:"error,omitempty"`
}

// HistoryFile represents the YAML file containing all history entries.
type HistoryFile struct {
	// Entries is an ordered list of runs (newest entries appended at end).
	Entries []HistoryEntry `yaml:"entries"`
}

// Path returns the history file location inside stateDir.
func Path(stateDir string) string {
	return filepath.Join(stateDir, HistoryFileName)
}

// LoadHistory reads the history in stateDir. A missing file is an empty
// history; an unparsable one is moved aside to history.yaml.backup and
// replaced by an empty history.
func LoadHistory(stateDir string) (*HistoryFile, error) {
	path := Path(stateDir)
	hf := &HistoryFile{Entries: []HistoryEntry{}}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return hf, nil
	case err != nil:
		return nil, fmt.Errorf("reading history file: %w", err)
	}

	if err := yaml.Unmarshal(data, hf); err != nil {
		if err := os.Rename(path, path+BackupSuffix); err != nil {
			return nil, fmt.Errorf("moving corrupt history aside: %w", err)
		}
		return &HistoryFile{Entries: []HistoryEntry{}}, nil
	}
	if hf.Entries == nil {
		hf.Entries = []HistoryEntry{}
	}
	return hf, nil
}

// SaveHistory replaces the history file in stateDir. The content is written
// to a temporary file in the same directory and renamed over the old file,
// so a reader never sees a partial write.
func SaveHistory(stateDir string, hf *HistoryFile) error {
	data, err := yaml.Marshal(hf)
	if err != nil {
		return fmt.Errorf("encoding history: %w", err)
	}
	if err := os.MkdirAll(stateDir, 0o755); err != nil {
		return fmt.Errorf("creating state directory: %w", err)
	}

	tmp, err := os.CreateTemp(stateDir, HistoryFileName+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp history file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing temp history file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp history file: %w", err)
	}
	if err := os.Rename(tmp.Name(), Path(stateDir)); err != nil {
		return fmt.Errorf("replacing history file: %w", err)
	}
	return nil
}

// ClearHistory removes all entries from the history file.
func ClearHistory(stateDir string) error {
	return SaveHistory(stateDir, &HistoryFile{Entries: []HistoryEntry{}})
}

// Recent returns up to limit entries, newest first, optionally filtered by
// status. A limit of zero or less returns every matching entry.
func (h *HistoryFile) Recent(limit int, status string) []HistoryEntry {
	var out []HistoryEntry
	for i := len(h.Entries) - 1; i >= 0; i-- {
		if status != "" && h.Entries[i].Status != status {
			continue
		}
		out = append(out, h.Entries[i])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}
