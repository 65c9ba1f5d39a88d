package store

import (
	"errors"
	"fmt"
)

// ErrWriteFailure is returned when the store failed during scan, delete,
// insert or replace. Rows written or removed before the failure stay that way.
var ErrWriteFailure = errors.New("store write failure")

var (
	// ErrInvalidTableName is returned when a table name is not a plain identifier.
	ErrInvalidTableName = errors.New("invalid table name")

	// ErrUnknownKind is returned by Open for an unsupported backend.
	ErrUnknownKind = errors.New("unknown store kind")

	// ErrMissingID is returned when a row without an id is written.
	ErrMissingID = errors.New("row has no id")

	// ErrUnprocessedItems is returned when DynamoDB keeps rejecting part of
	// a batch after every pass.
	ErrUnprocessedItems = errors.New("unprocessed items remain")
)

// Operations reported in WriteError.Op.
const (
	OpScan    = "scan"
	OpDelete  = "delete"
	OpPut     = "put"
	OpReplace = "replace"
)

// WriteError reports which store operation failed.
type WriteError struct {
	// Op is one of OpScan, OpDelete, OpPut or OpReplace.
	Op string

	// Err is the backend error.
	Err error
}

// Error implements the error interface.
func (e *WriteError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrWriteFailure.Error(), e.Op, e.Err)
}

// Unwrap returns the backend error.
func (e *WriteError) Unwrap() error {
	return e.Err
}

// Is allows errors.Is(err, ErrWriteFailure).
func (e *WriteError) Is(target error) bool {
	return target == ErrWriteFailure
}
