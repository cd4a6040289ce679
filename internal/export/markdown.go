// Package export writes classified journal content as an editable Markdown
// file and reads such a file back.
//
// The file carries title and authors in YAML front matter followed by one
// second-level heading per non-empty section:
//
//	---
//	title: A Study of Things
//	authors: Jane Doe
//	---
//
//	## Abstract
//
//	...
package export

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/Kunde21/markdownfmt/v3"
	mathjax "github.com/litao91/goldmark-mathjax"
	"github.com/yuin/goldmark"
	meta "github.com/yuin/goldmark-meta"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"gopkg.in/yaml.v3"

	"github.com/nerdneilsfield/jurnal-converter/internal/config"
	"github.com/nerdneilsfield/jurnal-converter/internal/journal"
)

// headingAliases are plural and long forms accepted besides the labels.
var headingAliases = map[string]journal.Section{
	"methods":     journal.SectionMethod,
	"methodology": journal.SectionMethod,
	"metodologi":  journal.SectionMethod,
	"results":     journal.SectionResult,
	"konten":      journal.SectionFullContent,
	"content":     journal.SectionFullContent,
}

type frontMatter struct {
	Title   string `yaml:"title"`
	Authors string `yaml:"authors"`
}

// RenderMarkdown writes meta and the non-empty sections under their labels.
// The full content only gets its own heading when no other section is filled.
func RenderMarkdown(m journal.Metadata, sections journal.SectionMap, labels config.Labels) ([]byte, error) {
	head, err := yaml.Marshal(frontMatter{Title: m.Title, Authors: m.Authors})
	if err != nil {
		return nil, fmt.Errorf("failed to encode front matter: %w", err)
	}

	var body bytes.Buffer
	for _, s := range journal.NamedSections {
		writeSection(&body, labels.Section(s), sections.Get(s))
	}
	if sections.FilledSections() == 0 {
		writeSection(&body, labels.FullContent, sections.FullContent)
	}

	formatted, err := markdownfmt.Process("", body.Bytes())
	if err != nil {
		return nil, fmt.Errorf("failed to format markdown: %w", err)
	}

	var out bytes.Buffer
	out.WriteString("---\n")
	out.Write(head)
	out.WriteString("---\n\n")
	out.Write(formatted)
	return out.Bytes(), nil
}

func writeSection(buf *bytes.Buffer, label, content string) {
	content = strings.TrimSpace(content)
	if content == "" {
		return
	}
	fmt.Fprintf(buf, "## %s\n\n%s\n\n", label, content)
}

// ParseMarkdown reads a file produced by RenderMarkdown, possibly edited by
// hand. Headings are matched case-insensitively against the English and
// Indonesian labels plus any extra label sets; other headings stay part of
// the surrounding section. FullContent is rebuilt from the named sections.
func ParseMarkdown(src []byte, extra ...config.Labels) (journal.Metadata, journal.SectionMap, error) {
	md := goldmark.New(
		goldmark.WithExtensions(
			mathjax.MathJax,
			meta.Meta,
		),
	)
	pctx := parser.NewContext()
	doc := md.Parser().Parse(text.NewReader(src), parser.WithContext(pctx))

	m := journal.Metadata{Title: journal.UntitledDocument, Authors: journal.AuthorNotDetected}
	fm, err := meta.TryGet(pctx)
	if err != nil {
		return m, journal.SectionMap{}, fmt.Errorf("invalid front matter: %w", err)
	}
	if v := stringValue(fm, "title"); v != "" {
		m.Title = v
	}
	if v := stringValue(fm, "authors"); v != "" {
		m.Authors = v
	}

	lookup := headingLookup(append([]config.Labels{config.EnglishLabels(), config.IndonesianLabels()}, extra...))

	type boundary struct {
		section    journal.Section
		start, end int
	}
	var bounds []boundary
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		h, ok := n.(*ast.Heading)
		if !ok || h.Lines().Len() == 0 {
			continue
		}
		first, last := h.Lines().At(0), h.Lines().At(h.Lines().Len()-1)
		label := normalizeLabel(string(last.Value(src)))
		s, ok := lookup[label]
		if !ok {
			continue
		}
		bounds = append(bounds, boundary{
			section: s,
			start:   lineStart(src, first.Start),
			end:     headingEnd(src, last.Stop),
		})
	}

	var sections journal.SectionMap
	for i, b := range bounds {
		stop := len(src)
		if i+1 < len(bounds) {
			stop = bounds[i+1].start
		}
		content := strings.TrimSpace(string(src[b.end:stop]))
		if content == "" {
			continue
		}
		if prev := sections.Get(b.section); prev != "" {
			content = prev + "\n\n" + content
		}
		sections.Set(b.section, content)
	}

	var parts []string
	for _, s := range journal.NamedSections {
		if v := sections.Get(s); v != "" {
			parts = append(parts, v)
		}
	}
	if len(parts) > 0 {
		sections.FullContent = strings.Join(parts, "\n\n")
	}
	return m, sections, nil
}

func headingLookup(sets []config.Labels) map[string]journal.Section {
	lookup := make(map[string]journal.Section, len(headingAliases))
	for alias, s := range headingAliases {
		lookup[alias] = s
	}
	all := append(append([]journal.Section{}, journal.NamedSections...), journal.SectionFullContent)
	for _, labels := range sets {
		for _, s := range all {
			if l := labels.Section(s); l != "" {
				lookup[normalizeLabel(l)] = s
			}
		}
	}
	return lookup
}

func normalizeLabel(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimRight(s, "# ")
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

func stringValue(fm map[string]interface{}, key string) string {
	v, ok := fm[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s)
	}
	return strings.TrimSpace(fmt.Sprint(v))
}

func lineStart(src []byte, pos int) int {
	if i := bytes.LastIndexByte(src[:pos], '\n'); i >= 0 {
		return i + 1
	}
	return 0
}

// headingEnd returns the offset after the heading line, skipping a setext
// underline when one follows.
func headingEnd(src []byte, pos int) int {
	end := lineEnd(src, pos)
	if end >= len(src) {
		return len(src)
	}
	next := lineEnd(src, end)
	underline := strings.TrimSpace(string(src[end:next]))
	if underline != "" && strings.Trim(underline, "=-") == "" {
		return next
	}
	return end
}

func lineEnd(src []byte, pos int) int {
	if i := bytes.IndexByte(src[pos:], '\n'); i >= 0 {
		return pos + i + 1
	}
	return len(src)
}
