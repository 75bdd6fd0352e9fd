package display

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/muesli/reflow/wordwrap"
)

const DefaultWidth = 80

// Wrap word-wraps text to DefaultWidth.
func Wrap(text string) string {
	return WrapTo(text, DefaultWidth)
}

// WrapTo collapses runs of whitespace inside each paragraph and word-wraps
// the result to width, preserving ANSI escape sequences. Paragraphs are
// separated by blank lines.
func WrapTo(text string, width int) string {
	paras := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n\n")
	out := make([]string, 0, len(paras))
	for _, p := range paras {
		p = strings.Join(strings.Fields(p), " ")
		if p == "" {
			continue
		}
		out = append(out, wordwrap.String(p, width))
	}
	return strings.Join(out, "\n\n")
}

// Capitalize returns s with its first letter uppercased.
func Capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if size == 0 || r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

// Sentence capitalizes s and ends it with a period unless it already ends in
// punctuation.
func Sentence(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return s
	}
	s = Capitalize(s)
	if strings.ContainsRune(".!?", rune(s[len(s)-1])) {
		return s
	}
	return s + "."
}
