package journal

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	UntitledDocument  = "Untitled Document"
	AuthorNotDetected = "Author not detected"

	maxTitleLength  = 200
	authorScanLimit = 3
	maxAuthorWords  = 8
	maxAuthorLength = 100
)

// Metadata is the detected title and author line.
type Metadata struct {
	Title   string `json:"title" yaml:"title"`
	Authors string `json:"authors" yaml:"authors"`
}

// ExtractMetadata takes the title from the first paragraph and the author
// line from the first short, title-cased paragraph among the first three.
func ExtractMetadata(paragraphs []string) Metadata {
	meta := Metadata{Title: UntitledDocument, Authors: AuthorNotDetected}
	if len(paragraphs) == 0 {
		return meta
	}

	meta.Title = truncateRunes(paragraphs[0], maxTitleLength)

	limit := authorScanLimit
	if len(paragraphs) < limit {
		limit = len(paragraphs)
	}
	for _, para := range paragraphs[:limit] {
		if isAuthorLine(para) {
			meta.Authors = para
			break
		}
	}
	return meta
}

// isAuthorLine: at most 8 words, under 100 runes, and every purely
// alphabetic word starts with an uppercase letter.
func isAuthorLine(para string) bool {
	words := strings.Fields(para)
	if len(words) > maxAuthorWords || utf8.RuneCountInString(para) >= maxAuthorLength {
		return false
	}
	for _, word := range words {
		if !isAlpha(word) {
			continue
		}
		first, _ := utf8.DecodeRuneInString(word)
		if !unicode.IsUpper(first) {
			return false
		}
	}
	return true
}

func isAlpha(word string) bool {
	if word == "" {
		return false
	}
	for _, r := range word {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n])
}
