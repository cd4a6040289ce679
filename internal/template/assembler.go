package template

import (
	"fmt"
	"strings"

	"github.com/nerdneilsfield/jurnal-converter/internal/config"
	"github.com/nerdneilsfield/jurnal-converter/internal/document"
	"github.com/nerdneilsfield/jurnal-converter/internal/journal"
)

// minFilledSections is the count below which the full content is appended.
const minFilledSections = 3

// Assemble builds a fresh document: a title heading, an italic authors line,
// then a heading and a paragraph for every non-blank section. When fewer
// than three sections carry text the full content follows under its own
// heading.
func Assemble(meta journal.Metadata, sections journal.SectionMap, labels config.Labels) (*document.Document, error) {
	doc, err := document.New()
	if err != nil {
		return nil, fmt.Errorf("failed to create document: %w", err)
	}

	doc.AddHeading(meta.Title, 0)

	authors := doc.AddParagraph("", "")
	authors.AddRun(fmt.Sprintf("%s: %s", labels.Authors, meta.Authors)).SetItalic(true)

	for _, s := range journal.NamedSections {
		content := sections.Get(s)
		if strings.TrimSpace(content) == "" {
			continue
		}
		doc.AddHeading(labels.Section(s), 1)
		doc.AddParagraph(content, "")
	}

	if sections.FilledSections() < minFilledSections {
		doc.AddHeading(labels.FullContent, 1)
		doc.AddParagraph(sections.FullContent, "")
	}
	return doc, nil
}
