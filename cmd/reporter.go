package cmd

import (
	"io"

	"github.com/fatih/color"
)

// terminalReporter prints workflow progress. Status lines are cyan, results
// green or red. Empty messages clear a line in a UI; here they print nothing.
type terminalReporter struct {
	w       io.Writer
	status  *color.Color
	success *color.Color
	failure *color.Color
}

func newReporter(w io.Writer) *terminalReporter {
	return &terminalReporter{
		w:       w,
		status:  color.New(color.FgCyan),
		success: color.New(color.FgGreen),
		failure: color.New(color.FgRed),
	}
}

func (r *terminalReporter) Status(msg string) {
	if msg == "" {
		return
	}
	r.status.Fprintln(r.w, msg)
}

func (r *terminalReporter) Result(msg string, isError bool) {
	if msg == "" {
		return
	}
	if isError {
		r.failure.Fprintln(r.w, "❌ "+msg)
		return
	}
	r.success.Fprintln(r.w, "✅ "+msg)
}
