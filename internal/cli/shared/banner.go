package shared

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

// Tagline is the project tagline.
const Tagline = "Idempotent Ansible workstation bootstrap"

// Box drawing characters
const (
	BoxTopLeft     = "╭"
	BoxTopRight    = "╮"
	BoxBottomLeft  = "╰"
	BoxBottomRight = "╯"
	BoxHorizontal  = "─"
	BoxVertical    = "│"
)

// CenterText centers text within a given width.
func CenterText(text string, width int) string {
	textLen := len([]rune(text))
	if textLen >= width {
		return text
	}
	padding := (width - textLen) / 2
	return strings.Repeat(" ", padding) + text
}

// PrintBanner prints the tool name and tagline in a rounded box sized to
// the longest line.
func PrintBanner(out io.Writer, title string) {
	lines := []string{title, Tagline}
	width := 0
	for _, l := range lines {
		if n := len([]rune(l)); n > width {
			width = n
		}
	}
	width += 4

	cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
	dim := color.New(color.Faint).SprintFunc()

	fmt.Fprintln(out, BoxTopLeft+strings.Repeat(BoxHorizontal, width)+BoxTopRight)
	for i, l := range lines {
		text := CenterText(l, width)
		pad := width - len([]rune(text))
		if i == 0 {
			text = cyan(text)
		} else {
			text = dim(text)
		}
		fmt.Fprintln(out, BoxVertical+text+strings.Repeat(" ", pad)+BoxVertical)
	}
	fmt.Fprintln(out, BoxBottomLeft+strings.Repeat(BoxHorizontal, width)+BoxBottomRight)
}
