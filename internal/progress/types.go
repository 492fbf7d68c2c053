// Package progress renders bootstrap step progress on the terminal: step
// counters, spinners for quiet steps, result marks, warnings, and notices.
// Steps that stream child process output get a plain header line instead of a
// spinner so the two never fight over the cursor.
package progress

import apperrors "github.com/ariel-frischer/ansible-bootstrap/internal/errors"

// StepInfo represents metadata about a bootstrap step for progress display
type StepInfo struct {
	// Name is the human-readable step title (e.g., "Installing prerequisites")
	Name string
	// Number is the current step number (1-based index)
	Number int
	// Total is the number of steps in the run
	Total int
	// Streaming is true when the step writes child process output to the terminal
	Streaming bool
}

// Validate checks that all StepInfo fields meet validation requirements
func (s StepInfo) Validate() error {
	if s.Name == "" {
		return apperrors.NewArgumentError("step name cannot be empty")
	}
	if s.Number <= 0 {
		return apperrors.NewArgumentError("step number must be > 0")
	}
	if s.Total <= 0 {
		return apperrors.NewArgumentError("total steps must be > 0")
	}
	if s.Number > s.Total {
		return apperrors.NewArgumentError("step number cannot exceed total steps")
	}
	return nil
}

// TerminalCapabilities encapsulates detected terminal features
type TerminalCapabilities struct {
	// IsTTY indicates whether stdout is a terminal (vs pipe/redirect)
	IsTTY bool
	// SupportsColor indicates whether terminal supports ANSI color codes
	SupportsColor bool
	// SupportsUnicode indicates whether terminal supports Unicode characters
	SupportsUnicode bool
	// Width is the terminal width in columns (0 if unknown/pipe)
	Width int
}

// Symbols defines the character set for visual indicators
type Symbols struct {
	// Checkmark is the success indicator ("✓" or "[OK]")
	Checkmark string
	// Skip marks a step whose postcondition already held ("○" or "[SKIP]")
	Skip string
	// Warning marks a step that continued past a problem ("!" or "[WARN]")
	Warning string
	// Failure is the failure indicator ("✗" or "[FAIL]")
	Failure string
	// SpinnerSet is the index into spinner.CharSets
	SpinnerSet int
}
