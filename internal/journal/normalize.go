// Package journal holds the content segmentation heuristics: text
// normalisation, paragraph segmentation, title/author detection, positional
// section classification and the placeholder vocabulary.
package journal

import (
	"github.com/dlclark/regexp2"
)

// The patterns use regexp2 so that \s and \d match Unicode whitespace and
// digits, which the thresholds below were tuned against.
var (
	blankRunPattern  = regexp2.MustCompile(`\n\s*\n\s*\n+`, regexp2.None)
	hSpacePattern    = regexp2.MustCompile(`[ \t]+`, regexp2.None)
	allDigitsPattern = regexp2.MustCompile(`^\d+$`, regexp2.None)
)

// Normalize collapses runs of three or more newlines (possibly interleaved
// with whitespace) to a single blank line and runs of spaces and tabs to a
// single space. Normalize(Normalize(s)) == Normalize(s).
func Normalize(raw string) string {
	if raw == "" {
		return ""
	}
	text := replaceAll(blankRunPattern, raw, "\n\n")
	return replaceAll(hSpacePattern, text, " ")
}

func replaceAll(re *regexp2.Regexp, input, replacement string) string {
	out, err := re.Replace(input, replacement, -1, -1)
	if err != nil {
		// only a match timeout can fail, and none is configured
		return input
	}
	return out
}
