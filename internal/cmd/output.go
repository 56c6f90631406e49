package cmd

import (
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

// Colors - all colors meet WCAG AA contrast (4.5:1) on both black and dark surfaces
var (
	primaryColor   = lipgloss.Color("#A78BFA") // Purple
	secondaryColor = lipgloss.Color("#10B981") // Green
	warningColor   = lipgloss.Color("#F59E0B") // Amber
	errorColor     = lipgloss.Color("#F87171") // Red
	mutedColor     = lipgloss.Color("#9CA3AF") // Gray
)

// defaultWidth is used when the output is not a terminal.
const defaultWidth = 100

// printer renders styled command output. Styles come from a renderer bound
// to the destination writer, so redirected output carries no escape codes.
type printer struct {
	w     io.Writer
	width int

	title   lipgloss.Style
	ok      lipgloss.Style
	warn    lipgloss.Style
	fail    lipgloss.Style
	muted   lipgloss.Style
	heading lipgloss.Style
}

func newPrinter(w io.Writer) *printer {
	r := lipgloss.NewRenderer(w)
	p := &printer{
		w:       w,
		width:   defaultWidth,
		title:   r.NewStyle().Bold(true).Foreground(primaryColor),
		ok:      r.NewStyle().Foreground(secondaryColor),
		warn:    r.NewStyle().Foreground(warningColor),
		fail:    r.NewStyle().Foreground(errorColor),
		muted:   r.NewStyle().Foreground(mutedColor),
		heading: r.NewStyle().Bold(true),
	}
	if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		if width, _, err := term.GetSize(int(f.Fd())); err == nil && width > 0 {
			p.width = width
		}
	}
	return p
}
