// Package card holds the helpers shared by every card producer: the preview
// truncation policy, label styling and error cards.
package card

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/starford/cardgrid/internal/models"
)

// PreviewLength is the maximum rune length of a card front.
const PreviewLength = 80

// Ellipsis marks a shortened preview.
const Ellipsis = "..."

// Truncate shortens s to at most n runes. When s is cut, the last runes are
// replaced by Ellipsis so the result is exactly n runes long.
func Truncate(s string, n int) string {
	if n < 0 {
		n = 0
	}
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	marker := []rune(Ellipsis)
	if n <= len(marker) {
		return string(marker[:n])
	}
	runes := []rune(s)
	return string(runes[:n-len(marker)]) + Ellipsis
}

// CollapseSpace replaces every whitespace run with a single space and trims
// both ends.
func CollapseSpace(s string) string {
	return strings.Join(strings.FieldsFunc(s, unicode.IsSpace), " ")
}

// Preview is the single front-face policy used by every producer.
func Preview(detail string) string {
	return Truncate(CollapseSpace(detail), PreviewLength)
}

// StyleFor maps a label to a style hint. Only exact, case-insensitive
// "pro", "pros", "con" and "cons" are styled.
func StyleFor(label string) models.StyleHint {
	switch strings.ToLower(label) {
	case "pro", "pros":
		return models.StylePositive
	case "con", "cons":
		return models.StyleNegative
	default:
		return models.StyleNone
	}
}

// Text builds a prose card.
func Text(kind models.CardKind, label, detail string) models.Card {
	return models.Card{
		Label:   label,
		Preview: Preview(detail),
		Detail:  detail,
		Style:   StyleFor(label),
		Kind:    kind,
	}
}

// Structured builds a card whose back keeps its line breaks.
func Structured(kind models.CardKind, label, detail string) models.Card {
	c := Text(kind, label, detail)
	c.Preformatted = true
	return c
}

// Error builds the single card shown when a pipeline fails.
func Error(message string) models.Card {
	return Text(models.KindError, "Error", message)
}
