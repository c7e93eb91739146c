// Package term detects terminal capabilities and emits inline images
// using the kitty and iTerm2 graphics protocols.
package term

import (
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/muesli/termenv"
	xterm "golang.org/x/term"
)

// Capabilities describes the terminal attached to stdout. Resolve once
// at startup with Detect; rendering decisions read from the struct.
type Capabilities struct {
	TTY     bool
	Kitty   bool
	ITerm   bool
	Width   int
	Profile termenv.Profile
}

const defaultWidth = 80

// Detect inspects the environment and stdout.
func Detect() Capabilities {
	c := Capabilities{
		TTY:   isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd()),
		Kitty: detectKitty(),
		ITerm: detectITerm(),
		Width: defaultWidth,
	}
	if w, _, err := xterm.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
		c.Width = w
	}
	switch {
	case os.Getenv("NO_COLOR") != "":
		c.Profile = termenv.Ascii
	case c.TTY:
		c.Profile = termenv.ColorProfile()
	default:
		c.Profile = termenv.Ascii
	}
	return c
}

func detectKitty() bool {
	return strings.Contains(os.Getenv("TERM"), "kitty") || os.Getenv("KITTY_WINDOW_ID") != ""
}

func detectITerm() bool {
	return os.Getenv("TERM_PROGRAM") == "iTerm.app"
}

// SupportsImages reports whether inline image output can work here.
func (c Capabilities) SupportsImages() bool {
	return c.TTY && (c.Kitty || c.ITerm)
}
