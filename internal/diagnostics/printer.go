package diagnostics

import (
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"
)

const (
	ansiReset = "\x1b[0m"
	ansiBold  = "\x1b[1m"
	ansiRed   = "\x1b[31m"
	ansiCyan  = "\x1b[36m"
)

// Printer renders diagnostics for humans.
type Printer struct {
	w     io.Writer
	color bool
}

// NewPrinter creates a printer writing to w. mode is auto, always or never;
// auto enables colour only when w is a terminal and NO_COLOR is unset.
func NewPrinter(w io.Writer, mode string) *Printer {
	return &Printer{w: w, color: colorEnabled(w, mode)}
}

func colorEnabled(w io.Writer, mode string) bool {
	switch mode {
	case "always":
		return true
	case "never":
		return false
	}
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func (p *Printer) paint(code, s string) string {
	if !p.color {
		return s
	}
	return code + s + ansiReset
}

// Print writes one diagnostic with its secondary locations.
func (p *Printer) Print(e *DiagnosticError) {
	label := "error"
	if e.Fatal {
		label = "fatal"
	}
	fmt.Fprintf(p.w, "%s: %s %s\n",
		p.paint(ansiBold, e.Location.String()),
		p.paint(ansiRed, fmt.Sprintf("%s[%s]:", label, e.Code)),
		e.Message)
	for _, s := range e.Secondary {
		fmt.Fprintf(p.w, "  %s %s: %s\n", p.paint(ansiCyan, "note:"), s.Location, s.Message)
	}
}

// PrintAll writes every diagnostic followed by a summary line.
func (p *Printer) PrintAll(errs []*DiagnosticError) {
	for _, e := range errs {
		p.Print(e)
	}
	if len(errs) > 0 {
		fmt.Fprintf(p.w, "%d error(s)\n", len(errs))
	}
}
