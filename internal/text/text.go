// Package text holds small string helpers for terminal output.
package text

import (
	"strings"
	"unicode/utf8"
)

const ellipsis = "..."

// Truncate shortens s to at most width runes, ending in "..." when cut.
func Truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= width {
		return s
	}
	runes := []rune(s)
	if width <= len(ellipsis) {
		return string(runes[:width])
	}
	return string(runes[:width-len(ellipsis)]) + ellipsis
}

// FirstLine returns the first line of s that is not blank, trimmed.
func FirstLine(s string) string {
	for _, line := range strings.Split(s, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			return line
		}
	}
	return ""
}

// Summary condenses a multi-line text to a single line of at most width
// runes, marking dropped lines or characters with "...".
func Summary(s string, width int) string {
	first := FirstLine(s)
	if strings.TrimSpace(s) != first {
		first += " " + ellipsis
	}
	return Truncate(first, width)
}
