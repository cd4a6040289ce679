// Package pipeline runs one journal conversion end to end and reports the
// outcome as a result envelope.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/nerdneilsfield/jurnal-converter/internal/config"
	"github.com/nerdneilsfield/jurnal-converter/internal/document"
	"github.com/nerdneilsfield/jurnal-converter/internal/extract"
	"github.com/nerdneilsfield/jurnal-converter/internal/journal"
	"github.com/nerdneilsfield/jurnal-converter/internal/stats"
	"github.com/nerdneilsfield/jurnal-converter/internal/template"
)

const (
	// ModeRewrite fills a DOCX template in place.
	ModeRewrite = "rewrite"
	// ModeAssemble builds a fresh document for non-DOCX templates.
	ModeAssemble = "assemble"
)

// Request names the three files of one conversion.
type Request struct {
	InputPath    string `json:"input" yaml:"input"`
	TemplatePath string `json:"template" yaml:"template"`
	OutputPath   string `json:"output" yaml:"output"`
}

// Processor converts journals. A Processor may serve concurrent runs as long
// as their output paths differ.
type Processor struct {
	logger    *zap.Logger
	extractor *extract.Registry
	labels    config.Labels
	history   *stats.Database
}

// NewProcessor creates a processor. history may be nil to skip run recording.
func NewProcessor(logger *zap.Logger, extractor *extract.Registry, labels config.Labels, history *stats.Database) *Processor {
	return &Processor{
		logger:    logger,
		extractor: extractor,
		labels:    labels,
		history:   history,
	}
}

// Analysis is the text-side outcome of a journal: everything the document
// side needs.
type Analysis struct {
	Text       string
	Paragraphs []string
	Metadata   journal.Metadata
	Sections   journal.SectionMap
}

// Analyze extracts, normalises, segments and classifies the journal at path.
func (p *Processor) Analyze(ctx context.Context, path string) (*Analysis, error) {
	raw := p.extractor.ExtractText(ctx, path)
	text := journal.Normalize(raw)
	if text == "" {
		return nil, errors.WithStack(&ValidationError{Msg: MsgNoText})
	}

	paragraphs := journal.Segment(text)
	return &Analysis{
		Text:       text,
		Paragraphs: paragraphs,
		Metadata:   journal.ExtractMetadata(paragraphs),
		Sections:   journal.Classify(paragraphs),
	}, nil
}

// Run converts req.InputPath through req.TemplatePath into req.OutputPath.
// It never panics; every failure is reported in the returned Result.
func (p *Processor) Run(ctx context.Context, req Request) *Result {
	return p.execute(ctx, req, func(log *zap.Logger, res *Result) error {
		if err := checkExists("Journal", req.InputPath); err != nil {
			return err
		}
		if err := p.prepare(req); err != nil {
			return err
		}

		log.Info("processing journal", zap.String("input", req.InputPath))
		analysis, err := p.Analyze(ctx, req.InputPath)
		if err != nil {
			return err
		}
		res.Metadata = &analysis.Metadata
		res.ParagraphsProcessed = len(analysis.Paragraphs)
		res.TextLength = utf8.RuneCountInString(analysis.Text)

		return p.render(log, res, analysis.Metadata, analysis.Sections, req)
	})
}

// RunWithSections renders pre-made metadata and sections, skipping the
// extraction stage. The input path is only recorded.
func (p *Processor) RunWithSections(ctx context.Context, meta journal.Metadata, sections journal.SectionMap, req Request) *Result {
	return p.execute(ctx, req, func(log *zap.Logger, res *Result) error {
		if err := ctx.Err(); err != nil {
			return errors.WithStack(err)
		}
		if err := p.prepare(req); err != nil {
			return err
		}
		res.Metadata = &meta
		res.TextLength = utf8.RuneCountInString(sections.FullContent)
		return p.render(log, res, meta, sections, req)
	})
}

// execute wraps a run body with the run id, panic recovery, output
// verification and history recording.
func (p *Processor) execute(ctx context.Context, req Request, body func(*zap.Logger, *Result) error) (res *Result) {
	start := time.Now()
	runID := uuid.NewString()
	log := p.logger.With(zap.String("run_id", runID))
	res = &Result{RunID: runID, OutputPath: req.OutputPath}

	defer func() {
		if r := recover(); r != nil {
			res.fail(errors.Errorf("panic: %v", r))
		}
		if !res.Success {
			log.Error("processing failed", zap.String("error", res.Error))
		}
		p.record(log, req, res, time.Since(start))
	}()

	if err := body(log, res); err != nil {
		res.fail(err)
		return res
	}

	info, err := os.Stat(req.OutputPath)
	if err != nil {
		res.fail(errors.New("Output file not created"))
		return res
	}
	res.Success = true
	res.FileSize = info.Size()

	log.Info("journal processed",
		zap.String("output", req.OutputPath),
		zap.String("mode", res.TemplateMode),
		zap.Int("replacements", res.Replacements),
		zap.Int64("size", res.FileSize),
		zap.Duration("duration", time.Since(start)))
	return res
}

// prepare validates the template and creates the output directory.
func (p *Processor) prepare(req Request) error {
	if err := checkExists("Template", req.TemplatePath); err != nil {
		return err
	}
	if req.OutputPath == "" {
		return errors.WithStack(&ValidationError{Msg: "Output path is empty"})
	}
	if err := os.MkdirAll(filepath.Dir(req.OutputPath), 0o755); err != nil {
		return errors.Wrap(err, "create output directory")
	}
	return nil
}

func (p *Processor) render(log *zap.Logger, res *Result, meta journal.Metadata, sections journal.SectionMap, req Request) error {
	if extract.Format(req.TemplatePath) != ".docx" {
		res.TemplateMode = ModeAssemble
		doc, err := template.Assemble(meta, sections, p.labels)
		if err != nil {
			return errors.WithStack(&RewriteError{Op: "assemble", Template: req.TemplatePath, Err: err})
		}
		if err := doc.Save(req.OutputPath); err != nil {
			return errors.WithStack(&RewriteError{Op: "save", Template: req.TemplatePath, Err: err})
		}
		return nil
	}

	res.TemplateMode = ModeRewrite
	doc, err := document.Open(req.TemplatePath)
	if err != nil {
		return errors.WithStack(&RewriteError{Op: "open", Template: req.TemplatePath, Err: err})
	}

	table := journal.NewPlaceholderTable(meta, sections)
	report, err := template.NewRewriter(log, p.labels).Rewrite(doc, table)
	if err != nil {
		return errors.WithStack(&RewriteError{Op: "rewrite", Template: req.TemplatePath, Err: err})
	}
	if err := doc.Save(req.OutputPath); err != nil {
		return errors.WithStack(&RewriteError{Op: "save", Template: req.TemplatePath, Err: err})
	}

	res.Replacements = report.Total()
	res.FallbackAppended = report.FallbackAppended
	res.FormattingPreserved = true
	res.Report = &report
	return nil
}

func (p *Processor) record(log *zap.Logger, req Request, res *Result, elapsed time.Duration) {
	if p.history == nil {
		return
	}

	rec := &stats.RunRecord{
		ID:               res.RunID,
		Timestamp:        time.Now(),
		InputFile:        req.InputPath,
		TemplateFile:     req.TemplatePath,
		OutputFile:       req.OutputPath,
		Format:           formatName(req.InputPath),
		TemplateMode:     res.TemplateMode,
		Paragraphs:       res.ParagraphsProcessed,
		CharacterCount:   res.TextLength,
		Replacements:     res.Replacements,
		FallbackAppended: res.FallbackAppended,
		OutputSize:       res.FileSize,
		Duration:         elapsed,
		Status:           stats.StatusCompleted,
	}
	if !res.Success {
		rec.Status = stats.StatusFailed
		rec.ErrorMessage = res.Error
	}
	if err := p.history.AddRunRecord(rec); err != nil {
		log.Warn("failed to record run", zap.Error(err))
	}
}

func checkExists(kind, path string) error {
	if _, err := os.Stat(path); err != nil {
		return errors.WithStack(&ValidationError{Msg: fmt.Sprintf("%s file not found: %s", kind, path)})
	}
	return nil
}

func formatName(path string) string {
	ext := extract.Format(path)
	if ext == "" {
		return "unknown"
	}
	return ext[1:]
}
