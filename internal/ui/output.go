// Package ui provides colored terminal output helpers for the CLI.
package ui

import (
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
)

const headerWidth = 60

var (
	headerColor  = color.New(color.FgCyan, color.Bold)
	stepColor    = color.New(color.FgBlue)
	successColor = color.New(color.FgGreen)
	infoColor    = color.New(color.FgCyan)
	warnColor    = color.New(color.FgYellow)
	errorColor   = color.New(color.FgRed, color.Bold)
)

// center left-pads text so it sits in the middle of width columns.
// Text wider than width is returned unchanged.
func center(text string, width int) string {
	pad := (width - len(text)) / 2
	if pad <= 0 {
		return text
	}
	return strings.Repeat(" ", pad) + text
}

// Header prints a banner line for the run.
func Header(text string) {
	line := strings.Repeat("=", headerWidth)
	headerColor.Fprintln(os.Stderr, line)
	headerColor.Fprintln(os.Stderr, center(text, headerWidth))
	headerColor.Fprintln(os.Stderr, line)
}

// Step prints a numbered progress step.
func Step(n, total int, text string) {
	stepColor.Fprintf(os.Stderr, "[%d/%d] %s\n", n, total, text)
}

// Success prints a checkmarked success line.
func Success(text string) {
	successColor.Fprintf(os.Stderr, "✓ %s\n", text)
}

// Info prints an informational line.
func Info(text string) {
	infoColor.Fprintf(os.Stderr, "ℹ %s\n", text)
}

// Warning prints a warning line.
func Warning(text string) {
	warnColor.Fprintf(os.Stderr, "⚠ %s\n", text)
}

// Error prints an error line.
func Error(text string) {
	errorColor.Fprintf(os.Stderr, "✗ %s\n", text)
}

// BlueText prints text in blue without any prefix.
func BlueText(text string) {
	stepColor.Fprintln(os.Stderr, text)
}

// YellowText prints text in yellow without any prefix.
func YellowText(text string) {
	warnColor.Fprintln(os.Stderr, text)
}

// Plain prints to stderr without color, for mixed-format output.
func Plain(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format, args...)
}
