package store

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/nao1215/sismoscrape/internal/model"
)

// Outcome describes a replace-semantics write.
type Outcome struct {
	// Rows is the enriched ResultSet, in rank order.
	Rows model.ResultSet `json:"rows"`

	// Deleted is the number of prior records removed.
	Deleted int `json:"deleted"`

	// Written is the number of records inserted.
	Written int `json:"written"`

	// Atomic reports whether the store replaced the table in one transaction.
	Atomic bool `json:"atomic"`
}

// Writer substitutes the contents of a store with a new ResultSet.
type Writer struct {
	newID  func() string
	logger *slog.Logger
}

// WriterOption configures a Writer.
type WriterOption func(*Writer)

// WithIDGenerator sets the function producing row ids.
func WithIDGenerator(gen func() string) WriterOption {
	return func(w *Writer) {
		if gen != nil {
			w.newID = gen
		}
	}
}

// WithWriterLogger sets a custom logger.
func WithWriterLogger(logger *slog.Logger) WriterOption {
	return func(w *Writer) {
		w.logger = logger
	}
}

// NewWriter creates a Writer that assigns random UUIDs.
func NewWriter(opts ...WriterOption) *Writer {
	w := &Writer{
		newID:  uuid.NewString,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Enrich returns copies of rows with the rank and id fields set.
// The i-th row gets rank i+1 and a fresh id. rows is not modified.
func (w *Writer) Enrich(rows model.ResultSet) model.ResultSet {
	enriched := make(model.ResultSet, 0, len(rows))
	for i, row := range rows {
		r := row.Clone()
		r.Set(model.FieldRank, i+1)
		r.Set(model.FieldID, w.newID())
		enriched = append(enriched, r)
	}
	return enriched
}

// ReplaceAll enriches rows and makes them the only records in s.
//
// Stores implementing AtomicReplacer do this in one transaction. Otherwise
// every existing record is deleted before the new ones are inserted. Failures
// are returned as *WriteError. The returned Outcome is never nil: on failure
// it carries the enriched rows and the work applied before the failure.
func (w *Writer) ReplaceAll(ctx context.Context, s Store, rows model.ResultSet) (*Outcome, error) {
	outcome := &Outcome{Rows: w.Enrich(rows)}

	if r, ok := s.(AtomicReplacer); ok {
		outcome.Atomic = true
		deleted, err := r.Replace(ctx, outcome.Rows)
		if err != nil {
			return outcome, &WriteError{Op: OpReplace, Err: err}
		}
		outcome.Deleted = deleted
		outcome.Written = len(outcome.Rows)
		w.logger.Debug("table replaced", "deleted", outcome.Deleted, "written", outcome.Written, "atomic", true)
		return outcome, nil
	}

	existing, err := s.Scan(ctx)
	if err != nil {
		return outcome, &WriteError{Op: OpScan, Err: err}
	}

	ids := make([]string, 0, len(existing))
	for _, row := range existing {
		if id := row.ID(); id != "" {
			ids = append(ids, id)
		}
	}

	if len(ids) > 0 {
		if err := s.Delete(ctx, ids...); err != nil {
			return outcome, &WriteError{Op: OpDelete, Err: err}
		}
	}
	outcome.Deleted = len(ids)

	if len(outcome.Rows) > 0 {
		if err := s.Put(ctx, outcome.Rows...); err != nil {
			return outcome, &WriteError{Op: OpPut, Err: err}
		}
	}
	outcome.Written = len(outcome.Rows)

	w.logger.Debug("table replaced", "deleted", outcome.Deleted, "written", outcome.Written, "atomic", false)
	return outcome, nil
}
