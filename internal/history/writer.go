package history

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Writer appends run records with automatic pruning.
type Writer struct {
	// StateDir is the directory containing the history file.
	StateDir string
	// MaxEntries is the maximum number of entries to retain; zero keeps all.
	MaxEntries int
	now        func() time.Time
}

// NewWriter creates a new history writer.
func NewWriter(stateDir string, maxEntries int) *Writer {
	return &Writer{
		StateDir:   stateDir,
		MaxEntries: maxEntries,
		now:        time.Now,
	}
}

// Run tracks one run between Start and Finish.
type Run struct {
	ID        string
	Command   string
	Platform  string
	StartedAt time.Time
}

// Start begins tracking a run. Nothing is written until Finish, so a run
// that aborts before touching the machine can be left unrecorded.
func (w *Writer) Start(command string) *Run {
	return &Run{
		ID:        uuid.NewString(),
		Command:   command,
		StartedAt: w.now(),
	}
}

// Finish records the run. status is one of the Status constants; failedStep
// and runErr describe why a run did not complete.
func (w *Writer) Finish(run *Run, status, failedStep string, runErr error) (HistoryEntry, error) {
	completed := w.now()
	entry := HistoryEntry{
		ID:          run.ID,
		Command:     run.Command,
		Platform:    run.Platform,
		Status:      status,
		StartedAt:   run.StartedAt,
		CompletedAt: completed,
		Duration:    completed.Sub(run.StartedAt).String(),
		FailedStep:  failedStep,
	}
	if runErr != nil {
		entry.Error = runErr.Error()
	}

	if err := w.append(entry); err != nil {
		return entry, err
	}
	return entry, nil
}

// append loads the existing history, appends the entry, prunes if needed, and saves.
func (w *Writer) append(entry HistoryEntry) error {
	history, err := LoadHistory(w.StateDir)
	if err != nil {
		return fmt.Errorf("loading history: %w", err)
	}

	history.Entries = append(history.Entries, entry)

	// Prune oldest entries if over limit
	if w.MaxEntries > 0 && len(history.Entries) > w.MaxEntries {
		excess := len(history.Entries) - w.MaxEntries
		history.Entries = history.Entries[excess:]
	}

	if err := SaveHistory(w.StateDir, history); err != nil {
		return fmt.Errorf("saving history: %w", err)
	}

	return nil
}
