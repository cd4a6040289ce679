package extract

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"go.uber.org/zap"
)

// pdfcpu writes a config.yml under the user config dir unless told otherwise.
var disablePDFCPUConfig sync.Once

func pdfcpuConfig() *model.Configuration {
	disablePDFCPUConfig.Do(func() { model.ConfigPath = "disable" })
	return model.NewDefaultConfiguration()
}

// PDFExtractor reads the plain text of every page, each followed by a newline.
type PDFExtractor struct {
	logger *zap.Logger
}

// NewPDFExtractor creates a PDF extractor.
func NewPDFExtractor(logger *zap.Logger) *PDFExtractor {
	return &PDFExtractor{logger: logger}
}

// Extract implements Extractor.
func (e *PDFExtractor) Extract(ctx context.Context, path string) (text string, err error) {
	// the pdf reader panics on some malformed streams
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("pdf reader panic: %v", r)
		}
	}()

	raw, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to open PDF: %w", err)
	}
	data, expectedPages := e.prepare(path, raw)

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to open PDF: %w", err)
	}

	totalPages := r.NumPage()
	if expectedPages > 0 && expectedPages != totalPages {
		e.logger.Warn("page count mismatch",
			zap.String("path", path),
			zap.Int("reader_pages", totalPages),
			zap.Int("pdfcpu_pages", expectedPages))
	}

	var sb strings.Builder
	for pageNum := 1; pageNum <= totalPages; pageNum++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		page := r.Page(pageNum)
		if page.V.IsNull() {
			sb.WriteByte('\n')
			continue
		}
		content, err := page.GetPlainText(nil)
		if err != nil {
			e.logger.Warn("failed to read page text",
				zap.String("path", path),
				zap.Int("page", pageNum),
				zap.Error(err))
		}
		sb.WriteString(content)
		sb.WriteByte('\n')
	}
	return sb.String(), nil
}

// prepare reads the file with pdfcpu first. Encrypted files that open with
// an empty user password are decrypted so the text reader sees plain
// streams. It returns the bytes to extract from and pdfcpu's page count,
// or 0 when pdfcpu could not read the file.
func (e *PDFExtractor) prepare(path string, raw []byte) ([]byte, int) {
	pctx, err := api.ReadContext(bytes.NewReader(raw), pdfcpuConfig())
	if err != nil {
		e.logger.Debug("pdfcpu could not read file", zap.String("path", path), zap.Error(err))
		return raw, 0
	}
	if pctx.Encrypt == nil {
		return raw, pctx.PageCount
	}

	var out bytes.Buffer
	if err := api.Decrypt(bytes.NewReader(raw), &out, pdfcpuConfig()); err != nil {
		e.logger.Warn("failed to decrypt PDF", zap.String("path", path), zap.Error(err))
		return raw, pctx.PageCount
	}
	e.logger.Debug("decrypted PDF before extraction", zap.String("path", path))
	return out.Bytes(), pctx.PageCount
}
