package stringutil

import (
	"strings"
	"unicode"
)

// TruncateAtWord cuts text to at most max runes. When the cut lands inside a
// word, it backs up to the preceding whitespace so no partial word remains.
// A first word longer than max is kept whole, so the result may exceed max.
func TruncateAtWord(text string, max int) string {
	text = strings.TrimSpace(text)
	runes := []rune(text)
	if max <= 0 || len(runes) <= max {
		return text
	}
	if unicode.IsSpace(runes[max]) {
		return strings.TrimSpace(string(runes[:max]))
	}
	for i := max - 1; i > 0; i-- {
		if unicode.IsSpace(runes[i]) {
			return strings.TrimSpace(string(runes[:i]))
		}
	}
	end := max
	for end < len(runes) && !unicode.IsSpace(runes[end]) {
		end++
	}
	return string(runes[:end])
}

// Truncate shortens text to max runes, appending an ellipsis when cut.
func Truncate(text string, max int) string {
	text = strings.TrimSpace(text)
	runes := []rune(text)
	if max <= 0 || len(runes) <= max {
		return text
	}
	return strings.TrimSpace(TruncateAtWord(text, max)) + "..."
}
