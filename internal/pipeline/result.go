package pipeline

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/nerdneilsfield/jurnal-converter/internal/journal"
	"github.com/nerdneilsfield/jurnal-converter/internal/template"
)

// Result is the envelope of one run. It marshals to the success shape or
// the failure shape depending on Success.
type Result struct {
	Success             bool
	OutputPath          string
	Metadata            *journal.Metadata
	FileSize            int64
	ParagraphsProcessed int
	TextLength          int
	FormattingPreserved bool
	RunID               string
	Replacements        int
	FallbackAppended    bool
	TemplateMode        string
	Report              *template.Report

	Error     string
	Traceback string

	err error
}

type successEnvelope struct {
	Success             bool              `json:"success" yaml:"success"`
	OutputPath          string            `json:"output_path" yaml:"output_path"`
	Metadata            *journal.Metadata `json:"metadata" yaml:"metadata"`
	FileSize            int64             `json:"file_size" yaml:"file_size"`
	ParagraphsProcessed int               `json:"paragraphs_processed" yaml:"paragraphs_processed"`
	TextLength          int               `json:"text_length" yaml:"text_length"`
	FormattingPreserved bool              `json:"formatting_preserved" yaml:"formatting_preserved"`
	RunID               string            `json:"run_id" yaml:"run_id"`
	Replacements        int               `json:"replacements" yaml:"replacements"`
	FallbackAppended    bool              `json:"fallback_appended" yaml:"fallback_appended"`
	TemplateMode        string            `json:"template_mode" yaml:"template_mode"`
}

type failureEnvelope struct {
	Success   bool   `json:"success" yaml:"success"`
	Error     string `json:"error" yaml:"error"`
	Traceback string `json:"traceback,omitempty" yaml:"traceback,omitempty"`
	RunID     string `json:"run_id,omitempty" yaml:"run_id,omitempty"`
}

// Envelope returns the value that is serialised for r.
func (r *Result) Envelope() interface{} {
	if !r.Success {
		return failureEnvelope{Error: r.Error, Traceback: r.Traceback, RunID: r.RunID}
	}
	meta := r.Metadata
	if meta == nil {
		meta = &journal.Metadata{}
	}
	return successEnvelope{
		Success:             true,
		OutputPath:          r.OutputPath,
		Metadata:            meta,
		FileSize:            r.FileSize,
		ParagraphsProcessed: r.ParagraphsProcessed,
		TextLength:          r.TextLength,
		FormattingPreserved: r.FormattingPreserved,
		RunID:               r.RunID,
		Replacements:        r.Replacements,
		FallbackAppended:    r.FallbackAppended,
		TemplateMode:        r.TemplateMode,
	}
}

// MarshalJSON implements json.Marshaler. HTML characters are kept as is so
// that messages such as the usage line print verbatim.
func (r *Result) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(r.Envelope()); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// MarshalYAML implements yaml.Marshaler.
func (r *Result) MarshalYAML() (interface{}, error) {
	return r.Envelope(), nil
}

// Err returns the failure cause, or nil on success.
func (r *Result) Err() error {
	return r.err
}

func (r *Result) fail(err error) {
	r.Success = false
	r.err = err
	r.Error = err.Error()
	r.Traceback = fmt.Sprintf("%+v", err)
}

// UsageError returns the envelope printed when arguments are missing.
func UsageError(usage string) *Result {
	return &Result{Error: usage}
}
