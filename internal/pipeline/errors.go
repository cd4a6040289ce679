package pipeline

import (
	"fmt"

	"github.com/nerdneilsfield/jurnal-converter/internal/extract"
)

// MsgNoText is the failure message when the journal yields no text.
const MsgNoText = "No text extracted from journal"

// ErrExtraction is the extractor failure sentinel.
var ErrExtraction = extract.ErrExtraction

// ValidationError reports bad input before any output is written.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return e.Msg
}

// RewriteError reports a failure while producing the output document.
type RewriteError struct {
	Op       string
	Template string
	Err      error
}

func (e *RewriteError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Template, e.Err)
}

func (e *RewriteError) Unwrap() error {
	return e.Err
}
