package pipeline

import (
	"context"
	"errors"
	"log/slog"

	"github.com/nao1215/sismoscrape/internal/model"
	"github.com/nao1215/sismoscrape/internal/store"
)

// ErrNoDocument is returned by ExtractStep when no document was fetched.
var ErrNoDocument = errors.New("no document to extract from")

// Step names, as recorded in model.Run.PerformedSteps.
const (
	StepFetch   = "fetch"
	StepExtract = "extract"
	StepStore   = "store"
)

// DocumentSource retrieves the page to scrape.
type DocumentSource interface {
	Fetch(ctx context.Context, url string) (*model.Document, error)
}

// TableExtractor turns a page into rows.
type TableExtractor interface {
	Extract(content []byte) (model.ResultSet, error)
}

// FetchStep retrieves run.SourceURL into run.Document.
type FetchStep struct {
	source DocumentSource
}

// NewFetchStep creates a fetch step reading from source.
func NewFetchStep(source DocumentSource) *FetchStep {
	return &FetchStep{source: source}
}

// Name returns the step name.
func (s *FetchStep) Name() string {
	return StepFetch
}

// Do fetches the document.
func (s *FetchStep) Do(ctx context.Context, run *model.Run) error {
	doc, err := s.source.Fetch(ctx, run.SourceURL)
	if err != nil {
		return err
	}
	run.Document = doc
	return nil
}

// ExtractStep parses run.Document into run.Rows.
type ExtractStep struct {
	extractor TableExtractor
	logger    *slog.Logger
}

// ExtractStepOption configures an ExtractStep.
type ExtractStepOption func(*ExtractStep)

// WithExtractLogger sets a custom logger for the extract step.
func WithExtractLogger(logger *slog.Logger) ExtractStepOption {
	return func(s *ExtractStep) {
		s.logger = logger
	}
}

// NewExtractStep creates an extract step using extractor.
func NewExtractStep(extractor TableExtractor, opts ...ExtractStepOption) *ExtractStep {
	s := &ExtractStep{
		extractor: extractor,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the step name.
func (s *ExtractStep) Name() string {
	return StepExtract
}

// Do extracts the rows.
func (s *ExtractStep) Do(_ context.Context, run *model.Run) error {
	if run.Document == nil {
		return ErrNoDocument
	}

	rows, err := s.extractor.Extract(run.Document.Raw)
	if err != nil {
		return err
	}

	s.logger.Info("table extracted",
		"rows", len(rows),
		"columns", len(rows.Columns()),
		"document_hash", run.Document.Hash,
	)
	if len(rows) == 0 {
		s.logger.Warn("table has no data rows; the store will be emptied", "source", run.SourceURL)
	}

	run.Rows = rows
	return nil
}

// StoreStep replaces the store contents with run.Rows.
// On success and on write failure run.Rows holds the enriched rows.
type StoreStep struct {
	writer *store.Writer
	store  store.Store
}

// NewStoreStep creates a store step writing to s with writer.
func NewStoreStep(writer *store.Writer, s store.Store) *StoreStep {
	return &StoreStep{writer: writer, store: s}
}

// Name returns the step name.
func (s *StoreStep) Name() string {
	return StepStore
}

// Do writes the rows.
func (s *StoreStep) Do(ctx context.Context, run *model.Run) error {
	outcome, err := s.writer.ReplaceAll(ctx, s.store, run.Rows)
	if outcome != nil {
		run.Rows = outcome.Rows
		run.Deleted = outcome.Deleted
		run.Written = outcome.Written
	}
	return err
}

// Default creates the fetch, extract, store pipeline.
func Default(source DocumentSource, extractor TableExtractor, writer *store.Writer, s store.Store, opts ...Option) *Pipeline {
	p := New(opts...)
	p.AddSteps(
		NewFetchStep(source),
		NewExtractStep(extractor, WithExtractLogger(p.logger)),
		NewStoreStep(writer, s),
	)
	return p
}
