// Package template fills DOCX templates with classified journal content and
// builds structured documents for templates that are not DOCX.
package template

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/nerdneilsfield/jurnal-converter/internal/config"
	"github.com/nerdneilsfield/jurnal-converter/internal/document"
	"github.com/nerdneilsfield/jurnal-converter/internal/journal"
)

// instructionKeywords mark template guidance paragraphs, matched against
// lower-cased paragraph text.
var instructionKeywords = []string{"template", "placeholder", "contoh", "example", "[isi", "[masukkan"}

// Report summarises one rewrite.
type Report struct {
	Replacements        int    `json:"replacements"`
	CellReplacements    int    `json:"cell_replacements"`
	Cleared             int    `json:"cleared"`
	InstructionsRemoved int    `json:"instructions_removed"`
	FormatWarnings      int    `json:"format_warnings"`
	FallbackAppended    bool   `json:"fallback_appended"`
	Unresolved          []Hint `json:"unresolved,omitempty"`
}

// Total counts paragraph and cell replacements.
func (r Report) Total() int {
	return r.Replacements + r.CellReplacements
}

// Rewriter substitutes placeholder tokens in a template document while
// keeping the formatting of every rewritten paragraph.
type Rewriter struct {
	logger *zap.Logger
	labels config.Labels
}

// NewRewriter creates a rewriter; labels are used by the fallback dump.
func NewRewriter(logger *zap.Logger, labels config.Labels) *Rewriter {
	return &Rewriter{logger: logger, labels: labels}
}

// Rewrite runs the paragraph pass, the table cell pass and the instruction
// cleanup pass, then appends the fallback dump when nothing was replaced.
func (r *Rewriter) Rewrite(doc *document.Document, table *journal.PlaceholderTable) (Report, error) {
	if doc == nil || table == nil {
		return Report{}, fmt.Errorf("rewrite needs a document and a placeholder table")
	}

	var report Report
	rewritten := make(map[*document.Paragraph]bool)
	paragraphs := doc.Paragraphs()

	for i, para := range paragraphs {
		text := para.Text()
		match, ok := table.Lookup(text)
		if !ok {
			continue
		}

		if match.Value == "" {
			r.setText(para, "", &report)
			report.Cleared++
			rewritten[para] = true
			r.logger.Debug("cleared placeholder with empty value",
				zap.Int("paragraph", i),
				zap.String("placeholder", match.Token))
			continue
		}

		r.setText(para, match.Apply(text), &report)
		report.Replacements++
		rewritten[para] = true
		r.logger.Info("replaced placeholder",
			zap.Int("paragraph", i),
			zap.String("placeholder", match.Token),
			zap.Int("chars", len([]rune(match.Value))))
	}

	for _, tbl := range doc.Tables() {
		for ri, row := range tbl.Rows() {
			for ci, cell := range row.Cells() {
				if r.rewriteCell(cell, table, &report) {
					r.logger.Info("replaced placeholder in table",
						zap.Int("row", ri),
						zap.Int("cell", ci))
				}
			}
		}
	}

	for i, para := range paragraphs {
		if rewritten[para] {
			continue
		}
		text := para.Text()
		if !isInstruction(text) {
			continue
		}
		r.setText(para, "", &report)
		report.InstructionsRemoved++
		r.logger.Debug("removed template instruction", zap.Int("paragraph", i))
	}

	report.Unresolved = r.collectUnresolved(doc)

	r.logger.Info("rewrite finished",
		zap.Int("replacements", report.Total()),
		zap.Int("cleared", report.Cleared),
		zap.Int("instructions_removed", report.InstructionsRemoved))

	if report.Total() == 0 {
		r.logger.Warn("no placeholders found, appending extracted content")
		r.AppendFallback(doc, table)
		report.FallbackAppended = true
	}
	return report, nil
}

// rewriteCell replaces the first filled token found in the cell text. The
// combined text goes into the first cell paragraph and the others are
// removed. Cells whose only matches are empty stay untouched.
func (r *Rewriter) rewriteCell(cell *document.Cell, table *journal.PlaceholderTable, report *Report) bool {
	text := cell.Text()
	match, ok := table.LookupFilled(text)
	if !ok {
		return false
	}
	paras := cell.Paragraphs()
	if len(paras) == 0 {
		return false
	}

	r.setText(paras[0], match.Apply(text), report)
	cell.KeepFirstParagraph()
	report.CellReplacements++
	return true
}

// setText rewrites a paragraph with its formatting preserved and logs the
// attributes that could not be reapplied.
func (r *Rewriter) setText(para *document.Paragraph, text string, report *Report) {
	for _, w := range para.SetTextPreservingFormat(text) {
		report.FormatWarnings++
		r.logger.Warn("could not reapply formatting",
			zap.String("attribute", w.Attribute),
			zap.String("value", w.Value),
			zap.String("reason", w.Reason))
	}
}

// isInstruction reports a guidance paragraph that holds neither a known
// token nor placeholder braces.
func isInstruction(text string) bool {
	if journal.ContainsToken(text) || strings.Contains(text, "{{") || strings.Contains(text, "}}") {
		return false
	}
	lower := strings.ToLower(text)
	for _, kw := range instructionKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// collectUnresolved logs unknown {{...}} markers left in the document.
func (r *Rewriter) collectUnresolved(doc *document.Document) []Hint {
	var texts []string
	for _, para := range doc.Paragraphs() {
		texts = append(texts, para.Text())
	}
	for _, tbl := range doc.Tables() {
		for _, row := range tbl.Rows() {
			for _, cell := range row.Cells() {
				texts = append(texts, cell.Text())
			}
		}
	}

	hints := hintsFor(strings.Join(texts, "\n"))
	for _, h := range hints {
		r.logger.Warn("unknown placeholder left in template",
			zap.String("marker", h.Marker),
			zap.String("did_you_mean", h.Suggestion))
	}
	return hints
}

// AppendFallback adds a page break and a plain dump of the title, the
// authors and the full content at the end of doc.
func (r *Rewriter) AppendFallback(doc *document.Document, table *journal.PlaceholderTable) {
	title, _ := table.Value("{{title}}")
	authors, _ := table.Value("{{authors}}")
	content, _ := table.Value("{{full_content}}")

	doc.AddPageBreak()
	doc.AddHeading(r.labels.Extracted, 1)
	doc.AddParagraph(fmt.Sprintf("%s: %s", r.labels.Title, title), "")
	doc.AddParagraph(fmt.Sprintf("%s: %s", r.labels.Authors, authors), "")
	doc.AddParagraph("", "").AddRun(r.labels.Content + ":").SetBold(true)
	doc.AddParagraph(content, "")
}
