// ansible-bootstrap - Idempotent Ansible workstation bootstrap
// Author: Ariel Frischer
// Source: https://github.com/ariel-frischer/ansible-bootstrap

// Package workflow sequences the bootstrap steps under a fail-fast policy.
// Every step guards its own postcondition, so the orchestrator keeps no
// partial-completion state: a failed run is fixed by re-running from step 1.
// Related: internal/workflow/steps.go, internal/workflow/bootstrap.go
// Tags: workflow, orchestrator, fail-fast, steps
package workflow

import (
	"context"
	"time"

	clierrors "github.com/ariel-frischer/ansible-bootstrap/internal/errors"
	"github.com/ariel-frischer/ansible-bootstrap/internal/outcome"
	"github.com/ariel-frischer/ansible-bootstrap/internal/progress"
	log "github.com/cantara/bragi/sbragi"
)

// Step is one idempotent unit of the bootstrap sequence.
type Step interface {
	Name() string
	Run(ctx context.Context) (outcome.Outcome, error)
}

// streamer is implemented by steps whose child processes write to the
// terminal; the display must not run a spinner over them.
type streamer interface {
	Streaming() bool
}

// StepReport records the result of one completed step.
type StepReport struct {
	Name     string
	Outcome  outcome.Outcome
	Duration time.Duration
}

// Report summarizes a run. On failure it covers the steps that completed
// and names the step that failed.
type Report struct {
	Steps      []StepReport
	FailedStep string
}

// Notices returns every notice raised during the run, in step order.
func (r *Report) Notices() []outcome.Notice {
	var notices []outcome.Notice
	for _, s := range r.Steps {
		notices = append(notices, s.Outcome.Notices...)
	}
	return notices
}

// Orchestrator runs steps in order and stops at the first error.
type Orchestrator struct {
	Steps   []Step
	Display *progress.Display
	// SuccessMessage is printed after every step has completed
	SuccessMessage string
}

// Run executes the steps. The report is returned even on failure.
func (o *Orchestrator) Run(ctx context.Context) (*Report, error) {
	report := &Report{}

	for i, step := range o.Steps {
		info := progress.StepInfo{
			Name:   step.Name(),
			Number: i + 1,
			Total:  len(o.Steps),
		}
		if s, ok := step.(streamer); ok {
			info.Streaming = s.Streaming()
		}

		if err := ctx.Err(); err != nil {
			report.FailedStep = info.Name
			return report, clierrors.WrapWithMessage(err, clierrors.Runtime, "bootstrap interrupted")
		}

		if err := o.Display.StartStep(info); err != nil {
			return report, err
		}

		start := time.Now()
		result, err := step.Run(ctx)
		if err != nil {
			o.Display.FailStep(info, err)
			report.FailedStep = info.Name
			log.WithError(err).Debug("step failed", "step", info.Name)
			return report, asCLIError(info.Name, err)
		}

		o.Display.CompleteStep(info, result)
		report.Steps = append(report.Steps, StepReport{
			Name:     info.Name,
			Outcome:  result,
			Duration: time.Since(start),
		})
		log.Debug("step finished", "step", info.Name, "status", result.Status.String())
	}

	for _, n := range report.Notices() {
		o.Display.Notice(n)
	}
	if o.SuccessMessage != "" {
		o.Display.Success(o.SuccessMessage)
	}
	return report, nil
}

// asCLIError keeps categorized errors intact and treats everything else as
// a failed external command.
func asCLIError(step string, err error) error {
	if clierrors.IsCLIError(err) {
		return err
	}
	return clierrors.CommandFailed(step, err)
}
