// Package console prints styled status lines and builds the progress logger.
package console

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

// Printer writes user-facing status messages, usually to stderr.
type Printer struct {
	w       io.Writer
	plain   bool
	info    lipgloss.Style
	success lipgloss.Style
	warn    lipgloss.Style
	fail    lipgloss.Style
}

// New returns a printer for w. Styling is dropped when NO_COLOR is set or w is not a terminal.
func New(w io.Writer) *Printer {
	r := lipgloss.NewRenderer(w)
	return &Printer{
		w:       w,
		plain:   os.Getenv("NO_COLOR") != "" || !isTerminal(w),
		info:    r.NewStyle().Foreground(lipgloss.Color("39")),
		success: r.NewStyle().Foreground(lipgloss.Color("42")),
		warn:    r.NewStyle().Foreground(lipgloss.Color("214")),
		fail:    r.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// Info prints a neutral progress line.
func (p *Printer) Info(format string, args ...any) {
	p.print(p.info, "", format, args...)
}

// Success prints a completion line.
func (p *Printer) Success(format string, args ...any) {
	p.print(p.success, "", format, args...)
}

// Warn prints a non-fatal problem.
func (p *Printer) Warn(format string, args ...any) {
	p.print(p.warn, "warning: ", format, args...)
}

// Error prints a fatal problem.
func (p *Printer) Error(format string, args ...any) {
	p.print(p.fail, "error: ", format, args...)
}

func (p *Printer) print(style lipgloss.Style, prefix, format string, args ...any) {
	line := prefix + fmt.Sprintf(format, args...)
	if !p.plain {
		line = style.Render(line)
	}
	if _, err := fmt.Fprintln(p.w, line); err != nil {
		// Best-effort status output.
		_ = err
	}
}

// NewLogger builds the structured progress logger used by sinks. Without
// verbose only warnings and errors are emitted.
func NewLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				return slog.String(slog.TimeKey, a.Value.Time().Format(time.RFC3339))
			}
			return a
		},
	})
	return slog.New(handler)
}
