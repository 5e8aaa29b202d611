package panel

import (
	"io"
	"os"

	"github.com/fatih/color"
)

// ColorNotifier prints notifications to a terminal: green for success, red
// for errors, yellow for warnings.
type ColorNotifier struct {
	out     io.Writer
	success *color.Color
	failure *color.Color
	warning *color.Color
}

func NewColorNotifier(out io.Writer) *ColorNotifier {
	if out == nil {
		out = os.Stderr
	}
	return &ColorNotifier{
		out:     out,
		success: color.New(color.FgGreen, color.Bold),
		failure: color.New(color.FgRed, color.Bold),
		warning: color.New(color.FgYellow),
	}
}

func (n *ColorNotifier) Success(message string) {
	n.success.Fprintln(n.out, "✔ "+message)
}

func (n *ColorNotifier) Error(message string) {
	n.failure.Fprintln(n.out, "✖ "+message)
}

func (n *ColorNotifier) Warn(message string) {
	n.warning.Fprintln(n.out, "! "+message)
}
