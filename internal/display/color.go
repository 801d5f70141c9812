package display

import (
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

// ColorEnabled reports whether w is a terminal that should receive colour.
func ColorEnabled(w io.Writer) bool {
	if color.NoColor {
		return false
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// IsInteractive reports whether f is attached to a terminal, regardless of
// colour settings.
func IsInteractive(f *os.File) bool {
	if f == nil {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

type palette struct {
	useColor bool
	heading  *color.Color
	ok       *color.Color
	warn     *color.Color
	fail     *color.Color
	muted    *color.Color
}

func newPalette(useColor bool) palette {
	return palette{
		useColor: useColor,
		heading:  color.New(color.Bold),
		ok:       color.New(color.FgGreen),
		warn:     color.New(color.FgYellow),
		fail:     color.New(color.FgRed),
		muted:    color.New(color.FgHiBlack),
	}
}

func (p palette) paint(c *color.Color, s string) string {
	if !p.useColor {
		return s
	}
	return c.Sprint(s)
}
