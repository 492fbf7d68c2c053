package progress

import (
	"fmt"
	"io"
	"time"

	"github.com/ariel-frischer/ansible-bootstrap/internal/outcome"
	"github.com/briandowns/spinner"
	"github.com/fatih/color"
)

// Display renders step progress to a writer
type Display struct {
	out          io.Writer
	capabilities TerminalCapabilities
	symbols      Symbols
	spinners     bool
	spinner      *spinner.Spinner
}

// NewDisplay creates a display writing to out. Spinners are used only when
// enabled and out is a terminal.
func NewDisplay(out io.Writer, caps TerminalCapabilities, spinners bool) *Display {
	return &Display{
		out:          out,
		capabilities: caps,
		symbols:      SelectSymbols(caps),
		spinners:     spinners,
	}
}

// StartStep announces a step
func (d *Display) StartStep(step StepInfo) error {
	if err := step.Validate(); err != nil {
		return err
	}

	msg := buildStepMessage(step)
	if d.spinners && d.capabilities.IsTTY && !step.Streaming {
		d.spinner = spinner.New(
			spinner.CharSets[d.symbols.SpinnerSet],
			100*time.Millisecond,
			spinner.WithWriter(d.out),
		)
		d.spinner.Suffix = " " + msg
		d.spinner.Start()
		return nil
	}

	fmt.Fprintln(d.out, paint(d.capabilities.SupportsColor, msg, color.FgCyan))
	return nil
}

// CompleteStep stops the spinner and prints the step result
func (d *Display) CompleteStep(step StepInfo, result outcome.Outcome) {
	d.StopSpinner()

	mark := statusMark(d.symbols, d.capabilities.SupportsColor, result.Status)
	line := fmt.Sprintf("%s %s %s", mark, formatStepCounter(step.Number, step.Total), step.Name)
	if result.Summary != "" {
		line += ": " + result.Summary
	}
	fmt.Fprintln(d.out, line)

	for _, w := range result.Warnings {
		d.Warn(w)
	}
}

// FailStep stops the spinner and prints the failure
func (d *Display) FailStep(step StepInfo, err error) {
	d.StopSpinner()

	mark := failureMark(d.symbols, d.capabilities.SupportsColor)
	fmt.Fprintf(d.out, "%s %s %s failed: %v\n", mark, formatStepCounter(step.Number, step.Total), step.Name, err)
}

// Info prints an informational line
func (d *Display) Info(msg string) {
	fmt.Fprintln(d.out, paint(d.capabilities.SupportsColor, msg, color.FgCyan))
}

// Warn prints a warning line
func (d *Display) Warn(msg string) {
	fmt.Fprintln(d.out, paint(d.capabilities.SupportsColor, "  warning: "+msg, color.FgYellow))
}

// Success prints a confirmation line
func (d *Display) Success(msg string) {
	fmt.Fprintln(d.out, paint(d.capabilities.SupportsColor, msg, color.FgGreen, color.Bold))
}

// Notice prints a titled block with indented lines
func (d *Display) Notice(n outcome.Notice) {
	fmt.Fprintln(d.out)
	fmt.Fprintln(d.out, paint(d.capabilities.SupportsColor, n.Title+":", color.Bold))
	for _, line := range n.Lines {
		fmt.Fprintf(d.out, "  %s\n", line)
	}
	fmt.Fprintln(d.out)
}

// StopSpinner stops the spinner without printing a result.
// Callers use it before a child process takes over the terminal.
func (d *Display) StopSpinner() {
	if d.spinner != nil {
		d.spinner.Stop()
		d.spinner = nil
	}
}
