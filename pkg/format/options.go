package format

import (
	"fmt"
	"io"
	"os"
)

// LabelWidth is the column reserved for "Selection:", "Owner:" and
// "Targets:" before the separating space
const LabelWidth = 12

// Options controls formatting behavior
type Options struct {
	UseColors    bool
	ShowAtoms    bool // append atom ids to target names
	RelativeTime bool // history timestamps as "5 minutes ago"
}

// DefaultOptions returns plain output matching the classic layout
func DefaultOptions() Options {
	return Options{}
}

// ColorMode selects when ANSI colors are used
type ColorMode string

const (
	ColorAuto   ColorMode = "auto"
	ColorAlways ColorMode = "always"
	ColorNever  ColorMode = "never"
)

// ParseColorMode validates a --color value
func ParseColorMode(s string) (ColorMode, error) {
	switch mode := ColorMode(s); mode {
	case ColorAuto, ColorAlways, ColorNever:
		return mode, nil
	case "":
		return ColorAuto, nil
	default:
		return "", fmt.Errorf("invalid color mode %q (want auto, always or never)", s)
	}
}

// UseColors resolves mode against the destination writer. Auto enables
// colors only for terminals, and never when NO_COLOR is set.
func (m ColorMode) UseColors(w io.Writer) bool {
	switch m {
	case ColorAlways:
		return true
	case ColorNever:
		return false
	}
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	f, ok := w.(*os.File)
	return ok && isTerminal(f.Fd())
}
