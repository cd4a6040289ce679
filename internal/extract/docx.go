package extract

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/nerdneilsfield/jurnal-converter/internal/document"
)

// paragraphBreak separates DOCX paragraphs so that each one survives
// segmentation as its own candidate.
const paragraphBreak = "\n\n"

// DocxExtractor joins the non-blank body paragraphs of a DOCX file.
type DocxExtractor struct {
	logger *zap.Logger
}

// NewDocxExtractor creates a DOCX extractor.
func NewDocxExtractor(logger *zap.Logger) *DocxExtractor {
	return &DocxExtractor{logger: logger}
}

// Extract implements Extractor.
func (e *DocxExtractor) Extract(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	doc, err := document.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open DOCX: %w", err)
	}
	text := doc.ExtractText(paragraphBreak)
	e.logger.Debug("read docx paragraphs", zap.String("path", path), zap.Int("paragraphs", len(doc.Paragraphs())))
	return text, nil
}
