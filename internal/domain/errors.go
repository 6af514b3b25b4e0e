package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrStoryNotFound signals a lookup miss in the corpus.
	ErrStoryNotFound = errors.New("story not found")
	// ErrDataLoad signals a missing or malformed corpus or index file.
	ErrDataLoad = errors.New("data load error")
	// ErrVectorDimMismatch signals a vector dimension mismatch.
	ErrVectorDimMismatch = errors.New("vector dimension mismatch")
	// ErrInvalidK signals a non-positive neighbor count.
	ErrInvalidK = errors.New("k must be a positive integer")
	// ErrInvalidQuery signals an unusable query or filter set.
	ErrInvalidQuery = errors.New("invalid query")

	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrGenerationProviderError signals a text generation provider failure.
	ErrGenerationProviderError = errors.New("generation provider error")
	// ErrTokenBudgetExceeded signals an exhausted token budget.
	ErrTokenBudgetExceeded = errors.New("token budget exceeded")
)

// DataLoadError carries the file and line of a corpus or index load failure.
// It matches both ErrDataLoad and the underlying cause with errors.Is.
type DataLoadError struct {
	Path string
	Line int
	Err  error
}

func (e *DataLoadError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s: %s:%d: %v", ErrDataLoad.Error(), e.Path, e.Line, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", ErrDataLoad.Error(), e.Path, e.Err)
}

func (e *DataLoadError) Unwrap() []error { return []error{ErrDataLoad, e.Err} }

// NewDataLoadError creates a load error. line is 1-based, 0 when not line-oriented.
func NewDataLoadError(path string, line int, err error) error {
	return &DataLoadError{Path: path, Line: line, Err: err}
}
