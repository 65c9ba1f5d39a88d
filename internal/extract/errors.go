package extract

import (
	"errors"
	"fmt"
)

// ErrTableNotFound is returned when the document has no element matching the
// extractor's selector.
var ErrTableNotFound = errors.New("table not found")

// TableNotFoundError carries the full document content for diagnostics.
type TableNotFoundError struct {
	// Selector is the rule that failed to match.
	Selector Selector

	// Page is the document content that was searched.
	Page string
}

// Error implements the error interface.
func (e *TableNotFoundError) Error() string {
	return fmt.Sprintf("%s: no element matches %s", ErrTableNotFound.Error(), e.Selector)
}

// Unwrap allows errors.Is(err, ErrTableNotFound).
func (e *TableNotFoundError) Unwrap() error {
	return ErrTableNotFound
}
