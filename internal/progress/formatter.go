package progress

import (
	"fmt"

	"github.com/ariel-frischer/ansible-bootstrap/internal/outcome"
	"github.com/fatih/color"
)

// formatStepCounter returns the [N/Total] step counter string
func formatStepCounter(number, total int) string {
	return fmt.Sprintf("[%d/%d]", number, total)
}

// buildStepMessage constructs the line shown while a step runs
func buildStepMessage(step StepInfo) string {
	return fmt.Sprintf("%s %s...", formatStepCounter(step.Number, step.Total), step.Name)
}

// paint applies attrs when color is supported. A fresh color.Color is forced
// on or off so the package-level NoColor detection does not interfere.
func paint(supportsColor bool, s string, attrs ...color.Attribute) string {
	c := color.New(attrs...)
	if supportsColor {
		c.EnableColor()
	} else {
		c.DisableColor()
	}
	return c.Sprint(s)
}

// statusMark returns the colored symbol for a step result
func statusMark(symbols Symbols, supportsColor bool, status outcome.Status) string {
	switch status {
	case outcome.Skipped:
		return paint(supportsColor, symbols.Skip, color.FgHiBlack)
	case outcome.Warned:
		return paint(supportsColor, symbols.Warning, color.FgYellow)
	default:
		return paint(supportsColor, symbols.Checkmark, color.FgGreen)
	}
}

// failureMark returns the appropriate failure symbol
func failureMark(symbols Symbols, supportsColor bool) string {
	return paint(supportsColor, symbols.Failure, color.FgRed)
}
