package template

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/nerdneilsfield/jurnal-converter/internal/config"
	"github.com/nerdneilsfield/jurnal-converter/internal/document"
	"github.com/nerdneilsfield/jurnal-converter/internal/journal"
	"github.com/nerdneilsfield/jurnal-converter/internal/testutils"
)

func openDocx(t *testing.T, body string) *document.Document {
	t.Helper()
	data := testutils.BuildDocx(t, body)
	doc, err := document.Read(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	return doc
}

// reopen saves doc and parses it again.
func reopen(t *testing.T, doc *document.Document) *document.Document {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, doc.Write(&buf))
	out, err := document.Read(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)
	return out
}

func testTable(sections journal.SectionMap) *journal.PlaceholderTable {
	meta := journal.Metadata{Title: "Rice Yield Under Drought", Authors: "Budi Santoso"}
	return journal.NewPlaceholderTable(meta, sections)
}

func texts(paras []*document.Paragraph) []string {
	out := make([]string, len(paras))
	for i, p := range paras {
		out[i] = p.Text()
	}
	return out
}

func TestRewriteBilingualAliases(t *testing.T) {
	doc := openDocx(t,
		testutils.Paragraph("Heading1", "Abstract")+
			testutils.Paragraph("", "{{abstract}}")+
			testutils.Paragraph("Heading1", "Abstrak")+
			testutils.Paragraph("", "{{abstrak}}"))

	table := testTable(journal.SectionMap{Abstract: "The abstract text.", FullContent: "The abstract text."})
	report, err := NewRewriter(zap.NewNop(), config.EnglishLabels()).Rewrite(doc, table)
	require.NoError(t, err)

	assert.Equal(t, 2, report.Replacements)
	assert.False(t, report.FallbackAppended)

	got := texts(reopen(t, doc).Paragraphs())
	assert.Equal(t, []string{"Abstract", "The abstract text.", "Abstrak", "The abstract text."}, got)
}

func TestRewriteNoTokensAppendsFallback(t *testing.T) {
	doc := openDocx(t, testutils.Paragraph("", "A template body with no markers at all."))

	table := testTable(journal.SectionMap{FullContent: "Everything extracted."})
	report, err := NewRewriter(zap.NewNop(), config.EnglishLabels()).Rewrite(doc, table)
	require.NoError(t, err)

	assert.Equal(t, 0, report.Total())
	assert.True(t, report.FallbackAppended)

	got := texts(reopen(t, doc).Paragraphs())
	// instruction pass clears the paragraph containing "template"
	assert.Equal(t, "", got[0])
	assert.Contains(t, got, "EXTRACTED JOURNAL CONTENT")
	assert.Contains(t, got, "Title: Rice Yield Under Drought")
	assert.Contains(t, got, "Authors: Budi Santoso")
	assert.Contains(t, got, "Content:")
	assert.Equal(t, "Everything extracted.", got[len(got)-1])
}

func TestRewriteFallbackIndonesianLabels(t *testing.T) {
	doc := openDocx(t, testutils.Paragraph("", "Nothing to replace here."))
	table := testTable(journal.SectionMap{FullContent: "Isi."})
	_, err := NewRewriter(zap.NewNop(), config.IndonesianLabels()).Rewrite(doc, table)
	require.NoError(t, err)

	got := texts(doc.Paragraphs())
	assert.Contains(t, got, "KONTEN JURNAL YANG DIEKSTRAK")
	assert.Contains(t, got, "Judul: Rice Yield Under Drought")
	assert.Contains(t, got, "Penulis: Budi Santoso")
	assert.Contains(t, got, "Konten:")
}

func TestRewritePreservesFormatting(t *testing.T) {
	pPr := `<w:pStyle w:val="BodyText"/><w:spacing w:before="120" w:after="240" w:line="360" w:lineRule="auto"/><w:ind w:left="720" w:firstLine="360"/><w:jc w:val="both"/>`
	rPr := `<w:rFonts w:ascii="Times New Roman" w:hAnsi="Times New Roman"/><w:b/><w:i/><w:sz w:val="24"/>`
	doc := openDocx(t, testutils.FormattedParagraph(pPr, rPr, "Intro: {{introduction}}"))

	table := testTable(journal.SectionMap{Introduction: "New introduction\twith a tab.", FullContent: "x"})
	report, err := NewRewriter(zap.NewNop(), config.EnglishLabels()).Rewrite(doc, table)
	require.NoError(t, err)
	require.Equal(t, 1, report.Replacements)
	assert.Equal(t, 0, report.FormatWarnings)

	para := reopen(t, doc).Paragraphs()[0]
	assert.Equal(t, "Intro: New introduction\twith a tab.", para.Text())

	runs := para.Runs()
	require.Len(t, runs, 1)
	rf := runs[0].Format()
	require.NotNil(t, rf.Bold)
	require.NotNil(t, rf.Italic)
	assert.True(t, *rf.Bold)
	assert.True(t, *rf.Italic)
	size, ok := rf.SizePoints()
	require.True(t, ok)
	assert.Equal(t, 12.0, size)
	assert.Equal(t, "Times New Roman", rf.FontName)

	pf := document.CaptureFormat(para).Paragraph
	assert.Equal(t, "BodyText", pf.Style)
	assert.Equal(t, "both", pf.Alignment)
	assert.Equal(t, "120", pf.SpaceBefore)
	assert.Equal(t, "240", pf.SpaceAfter)
	assert.Equal(t, "360", pf.LineSpacing)
	assert.Equal(t, "720", pf.LeftIndent)
	assert.Equal(t, "360", pf.FirstLineIndent)
}

func TestRewriteInvalidAttributeIsSkipped(t *testing.T) {
	rPr := `<w:b/><w:color w:val="not-a-color"/>`
	doc := openDocx(t, testutils.FormattedParagraph("", rPr, "{{title}}"))

	report, err := NewRewriter(zap.NewNop(), config.EnglishLabels()).Rewrite(doc, testTable(journal.SectionMap{}))
	require.NoError(t, err)
	assert.Equal(t, 1, report.Replacements)
	assert.Equal(t, 1, report.FormatWarnings)

	para := doc.Paragraphs()[0]
	assert.Equal(t, "Rice Yield Under Drought", para.Text())
	rf := para.Runs()[0].Format()
	require.NotNil(t, rf.Bold)
	assert.True(t, *rf.Bold)
	assert.Empty(t, rf.Color)
}

func TestRewriteFirstMatchWins(t *testing.T) {
	doc := openDocx(t, testutils.Paragraph("", "{{abstrak}} / {{title}}"))
	table := testTable(journal.SectionMap{Abstract: "Body", FullContent: "Body"})

	report, err := NewRewriter(zap.NewNop(), config.EnglishLabels()).Rewrite(doc, table)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Replacements)
	assert.Equal(t, "{{abstrak}} / Rice Yield Under Drought", doc.Paragraphs()[0].Text())
}

func TestRewriteEmptyValuePolicies(t *testing.T) {
	body := testutils.Paragraph("", "{{discussion}}") +
		testutils.Table([][]string{{"{{discussion}}"}, {"{{title}}", "second line"}}) +
		testutils.Paragraph("", "{{authors}}")
	doc := openDocx(t, body)

	report, err := NewRewriter(zap.NewNop(), config.EnglishLabels()).Rewrite(doc, testTable(journal.SectionMap{}))
	require.NoError(t, err)

	assert.Equal(t, 1, report.Cleared)
	assert.Equal(t, 1, report.Replacements)
	assert.Equal(t, 1, report.CellReplacements)
	assert.False(t, report.FallbackAppended)

	doc = reopen(t, doc)
	paras := doc.Paragraphs()
	// paragraph with an empty value is cleared
	assert.Equal(t, "", paras[0].Text())
	assert.Equal(t, "Budi Santoso", paras[1].Text())

	cells := doc.Tables()[0].Rows()[0].Cells()
	// cell with an empty value keeps its text
	assert.Equal(t, "{{discussion}}", cells[0].Text())
	// filled cell collapses into its first paragraph
	require.Len(t, cells[1].Paragraphs(), 1)
	assert.Equal(t, "Rice Yield Under Drought\nsecond line", cells[1].Text())
}

func TestRewriteInstructionCleanup(t *testing.T) {
	body := testutils.Paragraph("", "Example: write your abstract below [isi abstrak]") +
		testutils.Paragraph("", "{{abstract}}") +
		testutils.Paragraph("", "Contoh placeholder {{unknown_field}}") +
		testutils.Paragraph("", "Regular paragraph stays.")
	doc := openDocx(t, body)

	table := testTable(journal.SectionMap{
		Abstract:    "An example of substituted content mentioning a template.",
		FullContent: "x",
	})
	report, err := NewRewriter(zap.NewNop(), config.EnglishLabels()).Rewrite(doc, table)
	require.NoError(t, err)

	assert.Equal(t, 1, report.InstructionsRemoved)
	got := texts(doc.Paragraphs())
	assert.Equal(t, "", got[0])
	// substituted content is never wiped by the cleanup pass
	assert.Equal(t, table.Entries()[2].Value, got[1])
	// braces protect the paragraph
	assert.Equal(t, "Contoh placeholder {{unknown_field}}", got[2])
	assert.Equal(t, "Regular paragraph stays.", got[3])

	require.Len(t, report.Unresolved, 1)
	assert.Equal(t, "{{unknown_field}}", report.Unresolved[0].Marker)
}

func TestRewriteMultilineValue(t *testing.T) {
	doc := openDocx(t, testutils.Paragraph("", "{{full_content}}"))
	content := "First paragraph.\n\nSecond paragraph."
	_, err := NewRewriter(zap.NewNop(), config.EnglishLabels()).Rewrite(doc, testTable(journal.SectionMap{FullContent: content}))
	require.NoError(t, err)

	assert.Equal(t, content, reopen(t, doc).Paragraphs()[0].Text())
}

func TestRewriteRejectsNil(t *testing.T) {
	_, err := NewRewriter(zap.NewNop(), config.EnglishLabels()).Rewrite(nil, nil)
	assert.Error(t, err)
}

func TestHints(t *testing.T) {
	assert.Equal(t, []string{"{{a}}", "{{ b }}"}, findMarkers("x {{a}} y {{ b }} z"))

	hints := hintsFor("{{abstrac}} {{Judul}} {{title}} {{zzzzzzzzzzzzzzzz}}")
	require.Len(t, hints, 3)
	assert.Equal(t, "{{abstract}}", hints[0].Suggestion)
	assert.Equal(t, "{{judul}}", hints[1].Suggestion)
	assert.Empty(t, hints[2].Suggestion)
}

func TestIsInstruction(t *testing.T) {
	assert.True(t, isInstruction("Replace this TEMPLATE text"))
	assert.True(t, isInstruction("[Masukkan nama penulis]"))
	assert.False(t, isInstruction("Template {{title}}"))
	assert.False(t, isInstruction("Contoh: {{judul}}"))
	assert.False(t, isInstruction("An ordinary sentence."))
	assert.False(t, isInstruction(strings.Repeat(" ", 3)))
}
