package journal

import (
	"strings"
	"unicode/utf8"
)

const (
	minSubstantiveWords  = 5
	minSubstantiveLength = 50
	sectionWindow        = 2
)

// Section names a SectionMap key.
type Section string

const (
	SectionAbstract     Section = "abstract"
	SectionIntroduction Section = "introduction"
	SectionMethod       Section = "method"
	SectionResult       Section = "result"
	SectionDiscussion   Section = "discussion"
	SectionConclusion   Section = "conclusion"
	SectionFullContent  Section = "full_content"
)

// NamedSections lists the positional sections in document order.
var NamedSections = []Section{
	SectionAbstract,
	SectionIntroduction,
	SectionMethod,
	SectionResult,
	SectionDiscussion,
	SectionConclusion,
}

// SectionMap is the classified content. FullContent always joins every
// substantive paragraph; the other fields partition that same sequence.
type SectionMap struct {
	Abstract     string `json:"abstract" yaml:"abstract"`
	Introduction string `json:"introduction" yaml:"introduction"`
	Method       string `json:"method" yaml:"method"`
	Result       string `json:"result" yaml:"result"`
	Discussion   string `json:"discussion" yaml:"discussion"`
	Conclusion   string `json:"conclusion" yaml:"conclusion"`
	FullContent  string `json:"full_content" yaml:"full_content"`
}

// Get returns the value stored under a section key.
func (m SectionMap) Get(s Section) string {
	switch s {
	case SectionAbstract:
		return m.Abstract
	case SectionIntroduction:
		return m.Introduction
	case SectionMethod:
		return m.Method
	case SectionResult:
		return m.Result
	case SectionDiscussion:
		return m.Discussion
	case SectionConclusion:
		return m.Conclusion
	case SectionFullContent:
		return m.FullContent
	}
	return ""
}

// Set stores a value under a section key.
func (m *SectionMap) Set(s Section, value string) {
	switch s {
	case SectionAbstract:
		m.Abstract = value
	case SectionIntroduction:
		m.Introduction = value
	case SectionMethod:
		m.Method = value
	case SectionResult:
		m.Result = value
	case SectionDiscussion:
		m.Discussion = value
	case SectionConclusion:
		m.Conclusion = value
	case SectionFullContent:
		m.FullContent = value
	}
}

// FilledSections counts the named sections with non-blank content.
func (m SectionMap) FilledSections() int {
	n := 0
	for _, s := range NamedSections {
		if strings.TrimSpace(m.Get(s)) != "" {
			n++
		}
	}
	return n
}

// Policy is the partition rule chosen from the substantive paragraph count.
type Policy int

const (
	// PolicyDirect maps paragraphs 0..2 one to one (N < 3).
	PolicyDirect Policy = iota
	// PolicyThirds gives the abstract one paragraph, then blocks of N/3
	// (floored) to introduction and method; the result block takes the rest
	// (3 <= N < 6).
	PolicyThirds
	// PolicyWindows uses fixed two-paragraph windows (N >= 6).
	PolicyWindows
)

func (p Policy) String() string {
	switch p {
	case PolicyWindows:
		return "windows"
	case PolicyThirds:
		return "thirds"
	default:
		return "direct"
	}
}

// PolicyFor selects the partition policy for n substantive paragraphs.
func PolicyFor(n int) Policy {
	switch {
	case n >= 6:
		return PolicyWindows
	case n >= 3:
		return PolicyThirds
	default:
		return PolicyDirect
	}
}

// Substantive keeps paragraphs with more than 5 words and more than 50 runes.
func Substantive(paragraphs []string) []string {
	var out []string
	for _, para := range paragraphs {
		if len(strings.Fields(para)) > minSubstantiveWords && utf8.RuneCountInString(para) > minSubstantiveLength {
			out = append(out, para)
		}
	}
	return out
}

// Classify partitions the substantive paragraphs into sections by position.
func Classify(paragraphs []string) SectionMap {
	clean := Substantive(paragraphs)
	n := len(clean)

	m := SectionMap{FullContent: joinParagraphs(clean)}

	switch PolicyFor(n) {
	case PolicyWindows:
		for i, s := range NamedSections[:len(NamedSections)-1] {
			m.Set(s, joinParagraphs(window(clean, i*sectionWindow, (i+1)*sectionWindow)))
		}
		m.Conclusion = joinParagraphs(window(clean, (len(NamedSections)-1)*sectionWindow, n))
	case PolicyThirds:
		third := n / 3
		m.Abstract = joinParagraphs(clean[0:1])
		m.Introduction = joinParagraphs(clean[1 : 1+third])
		m.Method = joinParagraphs(clean[1+third : 1+2*third])
		m.Result = joinParagraphs(clean[1+2*third:])
	default:
		for i, s := range NamedSections[:3] {
			if i < n {
				m.Set(s, clean[i])
			}
		}
	}
	return m
}

// window returns paragraphs[from:to] clamped to the slice bounds.
func window(paragraphs []string, from, to int) []string {
	if from >= len(paragraphs) {
		return nil
	}
	if to > len(paragraphs) {
		to = len(paragraphs)
	}
	return paragraphs[from:to]
}

func joinParagraphs(paragraphs []string) string {
	return strings.Join(paragraphs, paragraphSeparator)
}
