package engine

import (
	"errors"
	"fmt"
)

// Sentinel errors for the two terminal input conditions. Both are wrapped
// in an *ExtractionError carrying the source name; match with errors.Is.
var (
	ErrEmptyInput       = errors.New("input contains no data")
	ErrNoTextualContent = errors.New("input contains no textual content")
)

// ExtractionError is the typed error returned by Process for unusable
// input. Nothing is retried and the store is never touched.
type ExtractionError struct {
	Source string // source name of the offending document
	Err    error  // ErrEmptyInput or ErrNoTextualContent
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("processing %q: %v", e.Source, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }
