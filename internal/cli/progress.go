package cli

import (
	"fmt"
	"io"
	"math"
	"os"

	"github.com/vm-affekt/mediagrab/internal/app"
	"github.com/vm-affekt/mediagrab/internal/present"
	"golang.org/x/term"
)

const (
	defaultTermWidth = 80
	minBarWidth      = 10
	maxBarWidth      = 60
)

// ProgressPrinter draws download progress. On a terminal it redraws one line,
// otherwise it prints a line for every whole percent reached.
type ProgressPrinter struct {
	w         io.Writer
	tty       bool
	width     int
	lastWhole int
	drawn     bool
}

func NewProgressPrinter(w io.Writer, tty bool, width int) *ProgressPrinter {
	if width <= 0 {
		width = defaultTermWidth
	}
	return &ProgressPrinter{w: w, tty: tty, width: width, lastWhole: -1}
}

// NewTerminalProgress inspects f to decide between redrawing and plain lines.
func NewTerminalProgress(f *os.File) *ProgressPrinter {
	fd := int(f.Fd())
	if !term.IsTerminal(fd) {
		return NewProgressPrinter(f, false, 0)
	}
	width, _, err := term.GetSize(fd)
	if err != nil {
		width = defaultTermWidth
	}
	return NewProgressPrinter(f, true, width)
}

// Observe is an app.ProgressFunc.
func (p *ProgressPrinter) Observe(ev app.ProgressEvent) {
	if p.tty {
		barWidth := p.width - 10
		if barWidth > maxBarWidth {
			barWidth = maxBarWidth
		}
		if barWidth < minBarWidth {
			barWidth = minBarWidth
		}
		fmt.Fprintf(p.w, "\r%s %6.2f%%", present.Bar(ev.Percent, barWidth), ev.Percent)
		p.drawn = true
		return
	}
	whole := int(math.Floor(ev.Percent))
	if whole == p.lastWhole {
		return
	}
	p.lastWhole = whole
	fmt.Fprintf(p.w, "progress: %s\n", present.Percent(ev.Percent))
}

// Finish ends the redrawn line.
func (p *ProgressPrinter) Finish() {
	if p.tty && p.drawn {
		fmt.Fprintln(p.w)
		p.drawn = false
	}
}
