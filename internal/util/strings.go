// Package util holds text helpers for terminal output.
package util

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/x/ansi"
)

// Ellipsis marks truncated text.
const Ellipsis = "…"

// Truncate shortens s to at most width visual columns, ending it with an
// ellipsis when anything was cut. ANSI escape codes are preserved and wide
// characters count by their display width. A width of zero or less means
// no limit.
func Truncate(s string, width int) string {
	if width <= 0 || ansi.StringWidth(s) <= width {
		return s
	}
	if width == 1 {
		return Ellipsis
	}
	return ansi.Truncate(s, width, Ellipsis)
}

// Pad right-pads s with spaces to width visual columns. Longer strings are
// returned unchanged.
func Pad(s string, width int) string {
	if gap := width - ansi.StringWidth(s); gap > 0 {
		return s + strings.Repeat(" ", gap)
	}
	return s
}

// Plural formats a count with the singular or plural noun.
func Plural(n int, singular, plural string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, singular)
	}
	return fmt.Sprintf("%d %s", n, plural)
}
