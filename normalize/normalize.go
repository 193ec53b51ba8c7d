// Package normalize holds the value clean-ups shared by every process:
// name capitalization, first-name extraction and email lowercasing.
package normalize

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var lower = cases.Lower(language.Und)

// FormatName capitalizes the first letter of every whitespace-separated word
// and lowercases the rest ("mARY  ann" -> "Mary Ann"). Runs of whitespace
// collapse to a single space.
func FormatName(name string) string {
	words := strings.Fields(name)
	for i, w := range words {
		words[i] = capitalize(w)
	}
	return strings.Join(words, " ")
}

// FirstName pulls the first name out of a "Last, First" string: everything
// after the first comma, trimmed and capitalized. Names without a comma
// yield "".
func FirstName(fullName string) string {
	_, first, found := strings.Cut(fullName, ",")
	if !found {
		return ""
	}
	return FormatName(first)
}

// Email lowercases and trims an email address
func Email(email string) string {
	return lower.String(strings.TrimSpace(email))
}

// Text trims surrounding whitespace from a pass-through value
func Text(value string) string {
	return strings.TrimSpace(value)
}

func capitalize(word string) string {
	w := lower.String(word)
	r, size := utf8.DecodeRuneInString(w)
	if r == utf8.RuneError {
		return w
	}
	return string(unicode.ToTitle(r)) + w[size:]
}
