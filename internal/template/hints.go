package template

import (
	"sort"
	"strings"

	"github.com/dlclark/regexp2"
	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/nerdneilsfield/jurnal-converter/internal/journal"
)

// maxHintDistance bounds the edit distance of a suggestion.
const maxHintDistance = 4

var markerPattern = regexp2.MustCompile(`\{\{\s*[^{}]*?\s*\}\}`, regexp2.None)

// Hint pairs an unrecognised marker with the closest known token.
type Hint struct {
	Marker     string `json:"marker"`
	Suggestion string `json:"suggestion,omitempty"`
}

// findMarkers returns every {{...}} marker in text, in order.
func findMarkers(text string) []string {
	var out []string
	m, err := markerPattern.FindStringMatch(text)
	for err == nil && m != nil {
		out = append(out, m.String())
		m, err = markerPattern.FindNextMatch(m)
	}
	return out
}

// unknownMarkers returns the markers in text that are not known tokens.
func unknownMarkers(text string, known map[string]bool) []string {
	var out []string
	for _, marker := range findMarkers(text) {
		if !known[marker] {
			out = append(out, marker)
		}
	}
	return out
}

// suggest finds the known token closest to marker: a fuzzy subsequence
// match first, then the smallest edit distance within maxHintDistance.
func suggest(marker string, tokens []string) string {
	query := strings.ToLower(strings.Join(strings.Fields(marker), ""))

	if ranks := fuzzy.RankFindNormalizedFold(query, tokens); len(ranks) > 0 {
		sort.Stable(ranks)
		return ranks[0].Target
	}

	best, bestDistance := "", maxHintDistance+1
	for _, token := range tokens {
		if d := fuzzy.LevenshteinDistance(query, token); d < bestDistance {
			best, bestDistance = token, d
		}
	}
	return best
}

// hintsFor builds hints for every unknown marker of text.
func hintsFor(text string) []Hint {
	tokens := journal.Tokens()
	known := make(map[string]bool, len(tokens))
	for _, t := range tokens {
		known[t] = true
	}

	var hints []Hint
	for _, marker := range unknownMarkers(text, known) {
		hints = append(hints, Hint{Marker: marker, Suggestion: suggest(marker, tokens)})
	}
	return hints
}
