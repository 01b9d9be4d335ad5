package adapter

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/m-mizutani/winnow/pkg/utils/logging"
)

// Notifier is the fire-and-forget user notification sink. The core reports
// outcomes through it and never consumes a return value.
type Notifier interface {
	Info(msg string)
	Success(msg string)
	Error(msg string)
}

type consoleNotifier struct {
	w io.Writer
}

// NewConsoleNotifier creates a Notifier that renders to a terminal
func NewConsoleNotifier(w io.Writer) Notifier {
	if w == nil {
		w = os.Stderr
	}
	return &consoleNotifier{w: w}
}

func (n *consoleNotifier) Info(msg string) {
	fmt.Fprintln(n.w, msg)
}

func (n *consoleNotifier) Success(msg string) {
	fmt.Fprintln(n.w, color.GreenString("✓ %s", msg))
}

func (n *consoleNotifier) Error(msg string) {
	fmt.Fprintln(n.w, color.RedString("✗ %s", msg))
}

type logNotifier struct{}

// NewLogNotifier creates a Notifier that forwards to the default logger,
// for non-interactive use
func NewLogNotifier() Notifier {
	return &logNotifier{}
}

func (n *logNotifier) Info(msg string)    { logging.Default().Info(msg) }
func (n *logNotifier) Success(msg string) { logging.Default().Info(msg) }
func (n *logNotifier) Error(msg string)   { logging.Default().Error(msg) }
