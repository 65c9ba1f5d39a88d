package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/jonboulle/clockwork"

	"github.com/nao1215/sismoscrape/internal/config"
	"github.com/nao1215/sismoscrape/internal/extract"
	"github.com/nao1215/sismoscrape/internal/fetch"
	"github.com/nao1215/sismoscrape/internal/metrics"
	"github.com/nao1215/sismoscrape/internal/model"
	"github.com/nao1215/sismoscrape/internal/pipeline"
	"github.com/nao1215/sismoscrape/internal/store"
)

// Handler runs the fetch, extract, store pipeline once per invocation.
// Concurrent invocations against the same table race; the scheduler must
// keep at most one in flight.
type Handler struct {
	sourceURL string
	tableName string
	pipeline  *pipeline.Pipeline
	store     store.Store
	pusher    *metrics.Pusher
	clock     clockwork.Clock
	logger    *slog.Logger
}

// Option configures a Handler.
type Option func(*Handler)

// WithSourceURL sets the page to scrape.
func WithSourceURL(u string) Option {
	return func(h *Handler) {
		h.sourceURL = u
	}
}

// WithTableName sets the table name recorded on runs and metrics.
func WithTableName(name string) Option {
	return func(h *Handler) {
		h.tableName = name
	}
}

// WithPusher pushes run metrics after every invocation.
func WithPusher(p *metrics.Pusher) Option {
	return func(h *Handler) {
		h.pusher = p
	}
}

// WithClock sets the clock used for run timestamps.
func WithClock(c clockwork.Clock) Option {
	return func(h *Handler) {
		h.clock = c
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Handler) {
		h.logger = logger
	}
}

// New creates a Handler that fetches with source, extracts with extractor and
// replaces the contents of s using writer.
func New(source pipeline.DocumentSource, extractor pipeline.TableExtractor, writer *store.Writer, s store.Store, opts ...Option) *Handler {
	h := &Handler{
		sourceURL: config.DefaultSourceURL,
		tableName: config.DefaultTableName,
		store:     s,
		clock:     clockwork.NewRealClock(),
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(h)
	}
	h.pipeline = pipeline.Default(source, extractor, writer, s, pipeline.WithLogger(h.logger))
	return h
}

// Build wires a Handler from cfg, opening the configured store.
// The caller must Close the Handler.
func Build(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Handler, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	s, err := store.Open(ctx, store.OpenOptions{
		Kind:      cfg.StoreKind(),
		TableName: cfg.TableName,
		DBDir:     cfg.DBDir,
		Region:    cfg.AWSRegion,
		Endpoint:  cfg.DynamoDBEndpoint,
		Logger:    logger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open %s store: %w", cfg.Store, err)
	}

	sourceOpts := []fetch.Option{
		fetch.WithMaxBodySize(cfg.MaxBodySize),
		fetch.WithSettleDelay(cfg.SettleDelay),
		fetch.WithHeaders(cfg.Headers),
		fetch.WithLogger(logger),
	}
	if cfg.UserAgent != "" {
		sourceOpts = append(sourceOpts, fetch.WithUserAgent(cfg.UserAgent))
	}
	source := fetch.NewHTTPSource(&http.Client{Timeout: cfg.Timeout}, sourceOpts...)

	extractor := extract.New(
		extract.WithSelector(cfg.TableTag, cfg.TableClass),
		extract.WithSkipHeaderRow(cfg.SkipHeaderRow),
		extract.WithMaxRows(cfg.MaxRows),
	)

	opts := []Option{
		WithSourceURL(cfg.SourceURL),
		WithTableName(cfg.TableName),
		WithLogger(logger),
	}
	if cfg.PushgatewayURL != "" {
		opts = append(opts, WithPusher(metrics.NewPusher(cfg.PushgatewayURL)))
	}

	return New(source, extractor, store.NewWriter(store.WithWriterLogger(logger)), s, opts...), nil
}

// Handle runs one scrape. The event is ignored; it only exists so Handle
// can serve as a function entry point. The error is always nil: every
// failure is described by the Response.
func (h *Handler) Handle(ctx context.Context, event json.RawMessage) (Response, error) {
	if len(event) > 0 {
		h.logger.Debug("invocation event", "size", len(event))
	}
	_, resp := h.Run(ctx)
	return resp, nil
}

// Run executes the pipeline and returns the run alongside its Response.
func (h *Handler) Run(ctx context.Context) (*model.Run, Response) {
	run := model.NewRun(h.sourceURL, h.tableName, h.clock.Now())
	_ = h.pipeline.Execute(ctx, run) //nolint:errcheck // recorded in run.Err
	run.Finish(h.clock.Now())

	resp := respond(run)
	h.logger.Info("run finished",
		"source", run.SourceURL,
		"table", run.TableName,
		"status_code", resp.StatusCode,
		"rows", len(run.Rows),
		"deleted", run.Deleted,
		"written", run.Written,
		"duration", run.Duration(),
	)

	h.observe(ctx, run, resp.StatusCode)
	return run, resp
}

// observe records run metrics and pushes them when a Pushgateway is set.
// A failed push is logged; it does not change the Response.
func (h *Handler) observe(ctx context.Context, run *model.Run, statusCode int) {
	m := metrics.New()
	m.Observe(run, statusCode)

	if h.pusher == nil {
		return
	}
	if err := h.pusher.Push(ctx, m, h.tableName); err != nil {
		h.logger.Warn("metrics push failed", "error", err)
	}
}

// Store returns the store the Handler writes to.
func (h *Handler) Store() store.Store {
	return h.store
}

// Close releases the store.
func (h *Handler) Close() error {
	if h.store == nil {
		return nil
	}
	return h.store.Close()
}
