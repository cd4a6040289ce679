// Package extract turns journal files into plain text. Failures never
// propagate: an unreadable or unsupported file yields an empty string and a
// log entry, and the caller decides what an empty extraction means.
package extract

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/text/unicode/norm"
)

var (
	// ErrExtraction wraps every failure of a format extractor.
	ErrExtraction = errors.New("text extraction failed")
	// ErrUnsupportedFormat is returned for extensions without an extractor.
	ErrUnsupportedFormat = errors.New("unsupported input format")
)

// Extractor returns the plain text of one file format.
type Extractor interface {
	Extract(ctx context.Context, path string) (string, error)
}

// Options tune a Registry.
type Options struct {
	// NormalizeUnicode applies NFC to the extracted text.
	NormalizeUnicode bool
}

// Registry dispatches on the lower-cased file extension.
type Registry struct {
	extractors map[string]Extractor
	opts       Options
	logger     *zap.Logger
}

// NewRegistry creates a registry with the PDF and DOCX extractors.
func NewRegistry(logger *zap.Logger, opts Options) *Registry {
	r := &Registry{
		extractors: make(map[string]Extractor),
		opts:       opts,
		logger:     logger,
	}
	r.Register(".pdf", NewPDFExtractor(logger))
	r.Register(".docx", NewDocxExtractor(logger))
	return r
}

// Register binds an extractor to an extension such as ".pdf".
func (r *Registry) Register(ext string, e Extractor) {
	r.extractors[strings.ToLower(ext)] = e
}

// Format returns the lower-cased extension of path.
func Format(path string) string {
	return strings.ToLower(filepath.Ext(path))
}

// Extract returns the text of path. Errors wrap ErrUnsupportedFormat or
// ErrExtraction.
func (r *Registry) Extract(ctx context.Context, path string) (string, error) {
	ext := Format(path)
	e, ok := r.extractors[ext]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}

	text, err := e.Extract(ctx, path)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrExtraction, path, err)
	}
	if r.opts.NormalizeUnicode {
		text = norm.NFC.String(text)
	}
	return text, nil
}

// ExtractText returns the text of path, or "" when the format is not
// supported or extraction fails.
func (r *Registry) ExtractText(ctx context.Context, path string) string {
	text, err := r.Extract(ctx, path)
	switch {
	case errors.Is(err, ErrUnsupportedFormat):
		r.logger.Warn("unsupported input format", zap.String("path", path), zap.Error(err))
		return ""
	case err != nil:
		r.logger.Error("text extraction failed", zap.String("path", path), zap.Error(err))
		return ""
	}

	r.logger.Info("extracted text",
		zap.String("path", path),
		zap.Int("chars", utf8.RuneCountInString(text)))
	return text
}
