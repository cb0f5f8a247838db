package cli

import (
	"fmt"
	"io"
	"os"
)

// ProgressBar is an append-only terminal progress reporter for the
// annealer's cooling schedule (spec §7, §12). It never rewrites a
// previous line, so output stays safe for pipes, CI logs, and
// scrollback buffers — the same constraint the teacher's console
// progress reporter follows.
type ProgressBar struct {
	W     io.Writer
	Label string
	last  int
	quiet bool
}

// NewProgressBar creates a ProgressBar writing to stdout. Ticks are
// printed, with the percentage colored, whether or not stdout is a
// terminal, since the bar is append-only, not cursor-rewriting.
func NewProgressBar(label string) *ProgressBar {
	return &ProgressBar{W: os.Stdout, Label: label, last: -10}
}

// Tick reports the current percent-complete (0-100) and temperature.
// Only one line is printed per 10% bucket crossed, so output stays
// terse across thousands of outer iterations.
func (p *ProgressBar) Tick(percent int, temp float64) {
	if p.quiet || percent < p.last+10 {
		return
	}
	p.last = (percent / 10) * 10
	fmt.Fprintf(p.W, "  %s %s  T=%.4g\n", DotPad(p.Label, 24), Green(fmt.Sprintf("%3d%%", percent)), temp)
}

// Done prints the final 100% line unconditionally.
func (p *ProgressBar) Done() {
	if p.quiet {
		return
	}
	fmt.Fprintf(p.W, "  %s %s\n", DotPad(p.Label, 24), Green("100%"))
}

// Quiet suppresses all output, used by -q style non-interactive runs.
func (p *ProgressBar) Quiet() { p.quiet = true }

// Phase prints a banner for one router phase (spec §12: "the original
// prints a banner per sub-module before routing it").
func Phase(w io.Writer, module string) {
	fmt.Fprintf(w, "\n%s %s\n", Bold("routing"), module)
}

// Pass prints a rip-up-and-reroute pass marker.
func Pass(w io.Writer, n, max int, ripped int) {
	if ripped == 0 {
		fmt.Fprintf(w, "  %s\n", Dim(fmt.Sprintf("pass %d/%d: clean", n, max)))
		return
	}
	fmt.Fprintf(w, "  %s\n", Yellow(fmt.Sprintf("pass %d/%d: ripped %d net(s)", n, max, ripped)))
}
