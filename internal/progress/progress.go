// Package progress renders a console progress bar for long sampling runs.
package progress

import (
	"fmt"
	"io"
	"math"
	"os"
	"time"
)

// Bar writes a single-line progress bar that redraws in place until the
// run completes.
type Bar struct {
	pre          string
	length       int
	printElapsed bool
	start        time.Time
	out          io.Writer
}

// NewBar creates a bar with the given prefix, a 25-character track and
// elapsed-time reporting.
func NewBar(pre string) *Bar {
	if pre != "" {
		pre += "\t"
	}
	return &Bar{
		pre:          pre,
		length:       25,
		printElapsed: true,
		start:        time.Now(),
		out:          os.Stdout,
	}
}

// SetOutput redirects the bar, mainly for tests.
func (b *Bar) SetOutput(w io.Writer) {
	b.out = w
}

// Update redraws the bar at the given completion ratio (0.0 to 1.0). At
// 1.0 the line is terminated instead of rewritten.
func (b *Bar) Update(percent float64) {
	if percent < 0 {
		percent = 0
	}
	if percent > 1 {
		percent = 1
	}

	term := "\r"
	if percent >= 1.0 {
		term = "\n"
	}

	filled := int(math.Round(float64(b.length) * percent))
	track := make([]byte, b.length)
	for i := range track {
		if i < filled {
			track[i] = '#'
		} else {
			track[i] = ' '
		}
	}

	elapsed := ""
	if b.printElapsed {
		d := time.Since(b.start).Round(time.Second)
		elapsed = fmt.Sprintf("\tTime Elapsed: %02d:%02d:%02d",
			int(d.Hours()), int(d.Minutes())%60, int(d.Seconds())%60)
	}

	fmt.Fprintf(b.out, "%s[%s]\t%.2f%%%s%s", b.pre, track, percent*100, elapsed, term)
}
