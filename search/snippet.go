package search

import (
	"strings"
	"unicode/utf8"
)

const snippetWidth = 60

// Snippet cuts a window of text around the first case-insensitive occurrence
// of the query and wraps the match in ** markers. When nothing matches
// literally (trigram matches tolerate misspellings), the head of the text is
// returned instead. Window edges are measured in bytes but always land on rune
// boundaries, so multibyte text never yields an invalid snippet.
func Snippet(text, query string) string {
	lower := strings.ToLower(text)
	idx := strings.Index(lower, strings.ToLower(query))

	if idx < 0 {
		if len(text) <= snippetWidth*2 {
			return text
		}
		return text[:runeStart(text, snippetWidth*2)] + "…"
	}

	start := runeStart(text, idx-snippetWidth)
	end := idx + len(query) + snippetWidth
	if end >= len(text) {
		end = len(text)
	} else {
		end = runeStart(text, end)
	}

	var sb strings.Builder
	if start > 0 {
		sb.WriteString("…")
	}
	sb.WriteString(text[start:idx])
	sb.WriteString("**")
	sb.WriteString(text[idx : idx+len(query)])
	sb.WriteString("**")
	sb.WriteString(text[idx+len(query) : end])
	if end < len(text) {
		sb.WriteString("…")
	}

	return sb.String()
}

// runeStart walks a byte offset back to the nearest rune boundary at or before
// it, clamping to the string's bounds.
func runeStart(s string, i int) int {
	if i <= 0 {
		return 0
	}
	if i >= len(s) {
		return len(s)
	}
	for i > 0 && !utf8.RuneStart(s[i]) {
		i--
	}
	return i
}
