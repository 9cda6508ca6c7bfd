package output

import (
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

// ColorMode selects when console output is coloured
type ColorMode string

const (
	ColorAuto   ColorMode = "auto"
	ColorAlways ColorMode = "always"
	ColorNever  ColorMode = "never"
)

// useColor resolves a mode against the writer. Auto colours terminals only
// and honours NO_COLOR.
func useColor(mode ColorMode, w io.Writer) bool {
	switch mode {
	case ColorAlways:
		return true
	case ColorNever:
		return false
	}

	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// palette holds the colours of the console report
type palette struct {
	dir      *color.Color // directory names
	name     *color.Color // files being rewritten
	good     *color.Color // files left alone
	bad      *color.Color // skipped or failed names
	counter  *color.Color
	size     *color.Color
	utf8     *color.Color
	gb       *color.Color
	utf16    *color.Color
	other    *color.Color
	errorMsg *color.Color
	warn     *color.Color
}

func newPalette(enabled bool) *palette {
	p := &palette{
		dir:      color.New(color.FgHiBlue),
		name:     color.New(color.FgHiBlue),
		good:     color.New(color.FgHiGreen),
		bad:      color.New(color.FgHiMagenta),
		counter:  color.New(color.FgHiCyan),
		size:     color.RGB(221, 220, 178).Add(color.Italic),
		utf8:     color.New(color.FgHiGreen),
		gb:       color.New(color.FgRed),
		utf16:    color.New(color.FgHiRed),
		other:    color.New(color.FgHiYellow),
		errorMsg: color.New(color.FgHiRed),
		warn:     color.New(color.FgYellow),
	}

	for _, c := range p.all() {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

func (p *palette) all() []*color.Color {
	return []*color.Color{p.dir, p.name, p.good, p.bad, p.counter, p.size,
		p.utf8, p.gb, p.utf16, p.other, p.errorMsg, p.warn}
}

// label colours an encoding label by family
func (p *palette) label(raw string) string {
	upper := strings.ToUpper(raw)
	switch {
	case upper == "UTF-8":
		return p.utf8.Sprint(raw)
	case strings.HasPrefix(upper, "GB"):
		return p.gb.Sprint(raw)
	case strings.Contains(upper, "UTF-16"):
		return p.utf16.Sprint(raw)
	default:
		return p.other.Sprint(raw)
	}
}
