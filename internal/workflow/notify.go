package workflow

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
)

// Notifier delivers the single terminal notification of a command run.
type Notifier interface {
	Success(msg string)
	Warn(msg string)
	Error(msg string)
	Info(msg string)
}

// Progress is a purely cosmetic in-progress indicator. Stop must be safe to
// call regardless of outcome.
type Progress interface {
	Start(msg string)
	Stop()
}

var (
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

// ConsoleNotifier writes styled notifications to a terminal.
type ConsoleNotifier struct {
	Out io.Writer
}

func (n *ConsoleNotifier) Success(msg string) {
	fmt.Fprintln(n.Out, successStyle.Render(msg))
}

func (n *ConsoleNotifier) Warn(msg string) {
	fmt.Fprintln(n.Out, warnStyle.Render(msg))
}

func (n *ConsoleNotifier) Error(msg string) {
	fmt.Fprintln(n.Out, errorStyle.Render(msg))
}

func (n *ConsoleNotifier) Info(msg string) {
	fmt.Fprintln(n.Out, msg)
}

// ConsoleProgress prints a status line and erases it when stopped.
type ConsoleProgress struct {
	Out io.Writer
}

func (p *ConsoleProgress) Start(msg string) {
	fmt.Fprint(p.Out, msg)
}

func (p *ConsoleProgress) Stop() {
	// Erase the status line.
	fmt.Fprint(p.Out, "\r\033[K")
}
