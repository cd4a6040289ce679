package journal

import "strings"

// Placeholder is one literal template token and the value it stands for.
type Placeholder struct {
	Token string
	Value string
}

// placeholderSource binds a token to the field it reads. Declaration order
// is the scan order used by the rewriter.
type placeholderSource struct {
	token   string
	section Section
}

const (
	sourceTitle   Section = "title"
	sourceAuthors Section = "authors"
)

var placeholderSources = []placeholderSource{
	// English
	{"{{title}}", sourceTitle},
	{"{{authors}}", sourceAuthors},
	{"{{abstract}}", SectionAbstract},
	{"{{introduction}}", SectionIntroduction},
	{"{{method}}", SectionMethod},
	{"{{methodology}}", SectionMethod},
	{"{{result}}", SectionResult},
	{"{{results}}", SectionResult},
	{"{{discussion}}", SectionDiscussion},
	{"{{conclusion}}", SectionConclusion},

	// Indonesian
	{"{{judul}}", sourceTitle},
	{"{{penulis}}", sourceAuthors},
	{"{{abstrak}}", SectionAbstract},
	{"{{pendahuluan}}", SectionIntroduction},
	{"{{metode}}", SectionMethod},
	{"{{metodologi}}", SectionMethod},
	{"{{hasil}}", SectionResult},
	{"{{pembahasan}}", SectionDiscussion},
	{"{{kesimpulan}}", SectionConclusion},

	// full content, both languages
	{"{{content}}", SectionFullContent},
	{"{{konten}}", SectionFullContent},
	{"{{full_content}}", SectionFullContent},
	{"{{teks_lengkap}}", SectionFullContent},
}

// Tokens returns the placeholder vocabulary in scan order.
func Tokens() []string {
	tokens := make([]string, len(placeholderSources))
	for i, src := range placeholderSources {
		tokens[i] = src.token
	}
	return tokens
}

// PlaceholderTable maps every known token to its resolved value, in a
// fixed scan order.
type PlaceholderTable struct {
	entries []Placeholder
}

// NewPlaceholderTable resolves the vocabulary against the extracted
// metadata and sections. Tokens whose section is empty resolve to "".
func NewPlaceholderTable(meta Metadata, sections SectionMap) *PlaceholderTable {
	t := &PlaceholderTable{entries: make([]Placeholder, 0, len(placeholderSources))}
	for _, src := range placeholderSources {
		var value string
		switch src.section {
		case sourceTitle:
			value = meta.Title
		case sourceAuthors:
			value = meta.Authors
		default:
			value = sections.Get(src.section)
		}
		t.entries = append(t.entries, Placeholder{Token: src.token, Value: value})
	}
	return t
}

// Entries returns the table in scan order.
func (t *PlaceholderTable) Entries() []Placeholder {
	out := make([]Placeholder, len(t.entries))
	copy(out, t.entries)
	return out
}

// Value returns the resolved value of token and whether token is known.
func (t *PlaceholderTable) Value(token string) (string, bool) {
	for _, e := range t.entries {
		if e.Token == token {
			return e.Value, true
		}
	}
	return "", false
}

// Lookup returns the first token, in scan order, that occurs in text.
func (t *PlaceholderTable) Lookup(text string) (Placeholder, bool) {
	for _, e := range t.entries {
		if strings.Contains(text, e.Token) {
			return e, true
		}
	}
	return Placeholder{}, false
}

// LookupFilled is Lookup restricted to tokens with a non-empty value.
func (t *PlaceholderTable) LookupFilled(text string) (Placeholder, bool) {
	for _, e := range t.entries {
		if e.Value != "" && strings.Contains(text, e.Token) {
			return e, true
		}
	}
	return Placeholder{}, false
}

// Apply substitutes every occurrence of p.Token in text.
func (p Placeholder) Apply(text string) string {
	return strings.ReplaceAll(text, p.Token, p.Value)
}

// ContainsToken reports whether text still holds any known token.
func ContainsToken(text string) bool {
	for _, src := range placeholderSources {
		if strings.Contains(text, src.token) {
			return true
		}
	}
	return false
}
