package journal

import (
	"strings"
	"unicode/utf8"
)

const (
	// MinParagraphLength is the rune count a paragraph must exceed to be kept.
	MinParagraphLength = 30
	paragraphSeparator = "\n\n"
)

// Segment splits normalised text on blank lines and keeps trimmed candidates
// longer than MinParagraphLength runes that are not a bare number (page
// numbers). Order is preserved; empty input yields nil.
func Segment(normalized string) []string {
	if normalized == "" {
		return nil
	}

	var paragraphs []string
	for _, candidate := range strings.Split(normalized, paragraphSeparator) {
		candidate = strings.TrimSpace(candidate)
		if utf8.RuneCountInString(candidate) <= MinParagraphLength {
			continue
		}
		if isAllDigits(candidate) {
			continue
		}
		paragraphs = append(paragraphs, candidate)
	}
	return paragraphs
}

func isAllDigits(s string) bool {
	ok, err := allDigitsPattern.MatchString(s)
	return err == nil && ok
}
