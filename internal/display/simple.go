// Package display renders update progress and status lines.
package display

import (
	"fmt"
	"io"
	"os"

	"golang.org/x/term"
)

// Reporter receives pipeline events for presentation.
type Reporter interface {
	State(name string)
	Progress(done, total int64)
}

// progressStep is the percentage between two plain progress lines.
const progressStep = 10

// SimpleReporter writes pipeline events as plain text lines. It is used
// when output is not an interactive terminal.
type SimpleReporter struct {
	w       io.Writer
	lastPct int
}

// NewSimpleReporter creates a new SimpleReporter writing to w.
func NewSimpleReporter(w io.Writer) *SimpleReporter {
	return &SimpleReporter{w: w, lastPct: -1}
}

// State writes the new pipeline state.
func (r *SimpleReporter) State(name string) {
	fmt.Fprintf(r.w, "==> %s\n", name)
}

// Progress writes a line each time another progressStep percent of the
// download is complete.
func (r *SimpleReporter) Progress(done, total int64) {
	pct := int(percent(done, total) * 100)
	step := pct / progressStep * progressStep
	if step <= r.lastPct {
		return
	}
	r.lastPct = step
	fmt.Fprintf(r.w, "    %3d%%  %s\n", step, FormatBytes(done, total))
}

// Info renders an informational line.
func Info(msg string) string {
	return infoStyle.Render(msg)
}

// Success renders a success line.
func Success(msg string) string {
	return successStyle.Render("✓ " + msg)
}

// Error renders an error line.
func Error(msg string) string {
	return errorStyle.Render("✗ " + msg)
}

// Title renders a heading.
func Title(msg string) string {
	return titleStyle.Render(msg)
}

// IsInteractive reports whether stdin and stdout are both terminals.
func IsInteractive() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}
