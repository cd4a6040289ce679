package extract

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/nerdneilsfield/jurnal-converter/internal/testutils"
)

type stubExtractor struct {
	text string
	err  error
}

func (s stubExtractor) Extract(context.Context, string) (string, error) {
	return s.text, s.err
}

func TestRegistry(t *testing.T) {
	ctx := context.Background()

	t.Run("Unsupported Extension", func(t *testing.T) {
		r := NewRegistry(zap.NewNop(), Options{})
		assert.Equal(t, "", r.ExtractText(ctx, "notes.txt"))
	})

	t.Run("Extension Is Case Insensitive", func(t *testing.T) {
		assert.Equal(t, ".pdf", Format("PAPER.PDF"))
		assert.Equal(t, ".docx", Format("paper.Docx"))

		dir := t.TempDir()
		path := testutils.WritePDF(t, dir, "PAPER.PDF", "Upper case extension")
		r := NewRegistry(zap.NewNop(), Options{})
		assert.Contains(t, r.ExtractText(ctx, path), "Upper case extension")
	})

	t.Run("Failure Yields Empty Text", func(t *testing.T) {
		r := NewRegistry(zap.NewNop(), Options{})
		r.Register(".txt", stubExtractor{text: "partial", err: errors.New("broken")})
		assert.Equal(t, "", r.ExtractText(ctx, "a.txt"))

		_, err := r.Extract(ctx, "a.txt")
		assert.ErrorIs(t, err, ErrExtraction)
		assert.Contains(t, err.Error(), "broken")
	})

	t.Run("Unsupported Error", func(t *testing.T) {
		r := NewRegistry(zap.NewNop(), Options{})
		_, err := r.Extract(ctx, "slides.pptx")
		assert.ErrorIs(t, err, ErrUnsupportedFormat)
	})

	t.Run("Unicode Normalisation", func(t *testing.T) {
		decomposed := "Cafe\u0301"
		r := NewRegistry(zap.NewNop(), Options{NormalizeUnicode: true})
		r.Register(".txt", stubExtractor{text: decomposed})
		assert.Equal(t, "Caf\u00e9", r.ExtractText(ctx, "a.txt"))

		r = NewRegistry(zap.NewNop(), Options{})
		r.Register(".txt", stubExtractor{text: decomposed})
		assert.Equal(t, decomposed, r.ExtractText(ctx, "a.txt"))
	})

	t.Run("Corrupt PDF", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "broken.pdf")
		require.NoError(t, os.WriteFile(path, []byte("not a pdf"), 0o644))
		r := NewRegistry(zap.NewNop(), Options{})
		assert.Equal(t, "", r.ExtractText(ctx, path))
	})

	t.Run("Missing File", func(t *testing.T) {
		r := NewRegistry(zap.NewNop(), Options{})
		assert.Equal(t, "", r.ExtractText(ctx, filepath.Join(t.TempDir(), "absent.docx")))
	})
}

func TestDocxExtractor(t *testing.T) {
	dir := t.TempDir()
	path := testutils.WriteDocx(t, dir, "journal.docx",
		testutils.Paragraph("Title", "A Study of Things")+
			testutils.Paragraph("", "")+
			testutils.Paragraph("", "   ")+
			testutils.Paragraph("", "Jane Doe")+
			testutils.Table([][]string{{"table text is not extracted"}})+
			testutils.Paragraph("", "Body paragraph."))

	text, err := NewDocxExtractor(zap.NewNop()).Extract(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "A Study of Things\n\nJane Doe\n\nBody paragraph.", text)
}

func TestDocxExtractorCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewDocxExtractor(zap.NewNop()).Extract(ctx, "whatever.docx")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPDFExtractor(t *testing.T) {
	ctx := context.Background()

	t.Run("Pages Separated By Newline", func(t *testing.T) {
		path := testutils.WritePDF(t, t.TempDir(), "journal.pdf", "Page one text", "Page two text")

		text, err := NewPDFExtractor(zap.NewNop()).Extract(ctx, path)
		require.NoError(t, err)
		// every text object starts on a new line and every page ends with one
		assert.Equal(t, "\nPage one text\n\nPage two text\n", text)
		assert.Equal(t, 4, strings.Count(text, "\n"))
	})

	t.Run("Through Registry", func(t *testing.T) {
		path := testutils.WritePDF(t, t.TempDir(), "journal.pdf", "Single (page) text")
		text := NewRegistry(zap.NewNop(), Options{}).ExtractText(ctx, path)
		assert.Equal(t, "\nSingle (page) text\n", text)
	})

	t.Run("Encrypted With Empty User Password", func(t *testing.T) {
		plain := testutils.BuildPDF(t, "Secret page text")

		conf := pdfcpuConfig()
		conf.OwnerPW = "owner-secret"
		conf.EncryptUsingAES = true
		conf.EncryptKeyLength = 256
		var encrypted bytes.Buffer
		require.NoError(t, api.Encrypt(bytes.NewReader(plain), &encrypted, conf))

		path := filepath.Join(t.TempDir(), "locked.pdf")
		require.NoError(t, os.WriteFile(path, encrypted.Bytes(), 0o644))

		text, err := NewPDFExtractor(zap.NewNop()).Extract(ctx, path)
		require.NoError(t, err)
		assert.Contains(t, text, "Secret page text")
	})

	t.Run("Corrupt File Errors", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "broken.pdf")
		require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4\ngarbage"), 0o644))
		_, err := NewPDFExtractor(zap.NewNop()).Extract(ctx, path)
		assert.Error(t, err)
	})

	t.Run("Cancelled", func(t *testing.T) {
		path := testutils.WritePDF(t, t.TempDir(), "journal.pdf", "Page one text")
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, err := NewPDFExtractor(zap.NewNop()).Extract(cctx, path)
		assert.ErrorIs(t, err, context.Canceled)
	})
}
