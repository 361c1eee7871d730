// SPDX-License-Identifier: MPL-2.0

package tui

import (
	"io"
	"os"

	"golang.org/x/term"
)

// IsTerminal reports whether w is a file attached to a terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// IsAccessible returns true when the ACCESSIBLE environment variable is set.
// Screen readers cope badly with redrawn lines, so no animation is shown.
func IsAccessible() bool {
	return os.Getenv("ACCESSIBLE") != ""
}

// Animated reports whether a spinner written to w should animate.
func Animated(w io.Writer) bool {
	return IsTerminal(w) && !IsAccessible()
}
