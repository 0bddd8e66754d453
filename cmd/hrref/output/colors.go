// Package output renders hrref command results and diagnostics.
package output

import (
	"os"

	"github.com/fatih/color"
	"golang.org/x/term"
)

// Palette used for console messages.
var (
	ColorSuccess = color.New(color.FgGreen)
	ColorError   = color.New(color.FgRed)
	ColorWarning = color.New(color.FgYellow)
	ColorInfo    = color.New(color.FgCyan)
	ColorDebug   = color.New(color.Faint)
)

// IsColorEnabled reports whether stdout is a color-capable terminal and the
// user has not opted out with NO_COLOR.
func IsColorEnabled() bool {
	if _, off := os.LookupEnv("NO_COLOR"); off {
		return false
	}
	if t := os.Getenv("TERM"); t == "" || t == "dumb" {
		return false
	}
	return term.IsTerminal(int(os.Stdout.Fd()))
}
