package ui

import (
	"strings"
	"unicode/utf8"
)

// TruncateCell flattens text onto one line and cuts it to maxLen runes,
// ending in "..." when shortened.
func TruncateCell(text string, maxLen int) string {
	text = strings.Join(strings.Fields(text), " ")
	if maxLen <= 0 || utf8.RuneCountInString(text) <= maxLen {
		return text
	}
	if maxLen <= 3 {
		return strings.Repeat(".", maxLen)
	}
	runes := []rune(text)
	return strings.TrimRight(string(runes[:maxLen-3]), " ") + "..."
}
