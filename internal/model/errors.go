package model

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyDocument means the input had no usable text
	ErrEmptyDocument = errors.New("empty document")

	// ErrSegmentationFailure means the segmenter produced zero clauses for
	// non-empty input. The fallback chain makes this unreachable; seeing it
	// is a bug.
	ErrSegmentationFailure = errors.New("segmentation produced no clauses")

	// ErrEntityExtractionDegraded means the NLP tagger was unavailable and
	// only pattern-based entities were produced
	ErrEntityExtractionDegraded = errors.New("entity extraction degraded")

	// ErrUnsupportedLanguage is returned for a language tag outside en/hi-normalized
	ErrUnsupportedLanguage = errors.New("unsupported language")
)

// DocumentError is a document-level failure surfaced to the caller
type DocumentError struct {
	Stage string
	Err   error
}

func (e *DocumentError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *DocumentError) Unwrap() error {
	return e.Err
}
