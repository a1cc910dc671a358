// Package notify shows short, transient messages to the user.
package notify

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

type Notifier interface {
	Success(ctx context.Context, msg string)
	Error(ctx context.Context, msg string)
	Info(ctx context.Context, msg string)
}

// Terminal prints one styled line per notification. Colors are only emitted
// when w is a terminal.
type Terminal struct {
	mu sync.Mutex
	w  io.Writer

	successStyle lipgloss.Style
	errorStyle   lipgloss.Style
	infoStyle    lipgloss.Style
}

func NewTerminal(w io.Writer) *Terminal {
	r := lipgloss.NewRenderer(w)
	return &Terminal{
		w: w,
		successStyle: r.NewStyle().
			Foreground(lipgloss.Color("10")).
			Bold(true),
		errorStyle: r.NewStyle().
			Foreground(lipgloss.Color("9")).
			Bold(true),
		infoStyle: r.NewStyle().
			Foreground(lipgloss.Color("241")),
	}
}

func (t *Terminal) Success(_ context.Context, msg string) {
	t.print(t.successStyle.Render("✓ " + msg))
}

func (t *Terminal) Error(_ context.Context, msg string) {
	t.print(t.errorStyle.Render("✗ " + msg))
}

func (t *Terminal) Info(_ context.Context, msg string) {
	t.print(t.infoStyle.Render("• " + msg))
}

func (t *Terminal) print(line string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintln(t.w, line)
}
