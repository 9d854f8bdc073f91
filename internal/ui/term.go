package ui

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"golang.org/x/term"
)

// IsTTY reports whether the given file descriptor refers to a terminal.
func IsTTY(fd uintptr) bool {
	return term.IsTerminal(int(fd))
}

// UseColor resolves a color mode ("auto", "always" or "never") for output
// written to fd. Auto honors NO_COLOR.
func UseColor(mode string, fd uintptr) (bool, error) {
	switch mode {
	case "", "auto":
		return os.Getenv("NO_COLOR") == "" && IsTTY(fd), nil
	case "always":
		return true, nil
	case "never":
		return false, nil
	default:
		return false, fmt.Errorf("invalid color mode %q (want auto, always or never)", mode)
	}
}

// paint applies attr to text if enabled. The package-level color.NoColor
// only looks at stdout, so every call decides explicitly.
func paint(enabled bool, attr color.Attribute, text string) string {
	if !enabled {
		return text
	}
	c := color.New(attr)
	c.EnableColor()
	return c.Sprint(text)
}
