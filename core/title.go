package core

import (
	"github.com/mattn/go-runewidth"
)

// truncateToWidth trims s to at most maxWidth display columns, accounting
// for double-width runes, appending an ellipsis when truncation actually
// occurs. maxWidth <= 0 yields "".
func truncateToWidth(s string, maxWidth int) string {
	if maxWidth <= 0 {
		return ""
	}
	if runewidth.StringWidth(s) <= maxWidth {
		return s
	}
	if maxWidth <= 3 {
		return runewidth.Truncate(s, maxWidth, "")
	}
	return runewidth.Truncate(s, maxWidth, "...")
}
