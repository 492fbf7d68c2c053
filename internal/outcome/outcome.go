// Package outcome defines the structured result every bootstrap step returns.
// A step either converged the machine (Done), found nothing to do or could
// not apply a best-effort action (Skipped), or continued past a non-fatal
// problem that the operator should know about (Warned). Fatal problems are
// returned as errors, never as outcomes.
package outcome

import "fmt"

// Status is the result of a successful step.
type Status int

const (
	// Done means the step changed or verified machine state
	Done Status = iota
	// Skipped means the step found its postcondition already true
	Skipped
	// Warned means a best-effort action did not complete and the run continued
	Warned
)

// String returns the lowercase name of the status.
func (s Status) String() string {
	switch s {
	case Done:
		return "done"
	case Skipped:
		return "skipped"
	case Warned:
		return "warned"
	default:
		return "unknown"
	}
}

// Notice is a message a step asks the caller to display, such as a freshly
// generated public key. Steps never print notices themselves.
type Notice struct {
	Title string
	Lines []string
}

// Outcome is the result of one step.
type Outcome struct {
	Status   Status
	Summary  string
	Warnings []string
	Notices  []Notice
}

// Donef returns a Done outcome with a formatted summary.
func Donef(format string, args ...any) Outcome {
	return Outcome{Status: Done, Summary: fmt.Sprintf(format, args...)}
}

// Skippedf returns a Skipped outcome with a formatted summary.
func Skippedf(format string, args ...any) Outcome {
	return Outcome{Status: Skipped, Summary: fmt.Sprintf(format, args...)}
}

// Warn records a best-effort failure and downgrades the status to Warned.
func (o *Outcome) Warn(format string, args ...any) {
	o.Warnings = append(o.Warnings, fmt.Sprintf(format, args...))
	o.Status = Warned
}

// AddNotice attaches a notice for the caller to display.
func (o *Outcome) AddNotice(n Notice) {
	o.Notices = append(o.Notices, n)
}
