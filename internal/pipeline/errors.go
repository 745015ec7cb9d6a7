package pipeline

import (
	"errors"
	"fmt"
)

var (
	// ErrNoExtractableText means every document fell short in every
	// extraction strategy.
	ErrNoExtractableText = errors.New("no extractable text in any document")

	ErrUnsupportedFormat = errors.New("unsupported file format")

	// ErrReportFailed wraps failures of the report generator.
	ErrReportFailed = errors.New("report generation failed")
)

// InputError reports a document that cannot be processed at all: missing,
// not a regular file, or not a PDF.
type InputError struct {
	Document string
	Err      error
}

func (e *InputError) Error() string {
	if e.Document == "" {
		return fmt.Sprintf("invalid input: %v", e.Err)
	}
	return fmt.Sprintf("invalid input %s: %v", e.Document, e.Err)
}

func (e *InputError) Unwrap() error { return e.Err }

// IsInputError reports whether err was caused by the caller's input.
func IsInputError(err error) bool {
	var ie *InputError
	return errors.As(err, &ie)
}
