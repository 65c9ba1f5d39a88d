package fetch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/nao1215/sismoscrape/internal/model"
)

// Defaults for HTTPSource.
const (
	// DefaultUserAgent mimics a desktop browser; the source site serves a
	// reduced page to unknown clients.
	DefaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"

	// DefaultAccept is the Accept header a browser sends for navigation.
	DefaultAccept = "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8"

	// DefaultAcceptLanguage prefers Spanish, the language of the source site.
	DefaultAcceptLanguage = "es-PE,es;q=0.9,en;q=0.5"

	// DefaultMaxBodySize limits how much of the response body is read.
	DefaultMaxBodySize = 5 * 1024 * 1024
)

// HTTPSource fetches documents with a plain HTTP GET.
type HTTPSource struct {
	// client performs the requests. Its Timeout bounds the whole exchange.
	client *http.Client

	// userAgent is the User-Agent header to send.
	userAgent string

	// headers are extra request headers.
	headers map[string]string

	// maxBodySize limits the size of response bodies to read.
	maxBodySize int64

	// settleDelay is waited after a successful response before the
	// document is handed over.
	settleDelay time.Duration

	// clock drives the settle delay.
	clock clockwork.Clock

	// logger for structured logging.
	logger *slog.Logger
}

// Option configures an HTTPSource.
type Option func(*HTTPSource)

// WithUserAgent sets a custom User-Agent header.
func WithUserAgent(ua string) Option {
	return func(s *HTTPSource) {
		if ua != "" {
			s.userAgent = ua
		}
	}
}

// WithHeaders adds request headers. They override the defaults.
func WithHeaders(headers map[string]string) Option {
	return func(s *HTTPSource) {
		for k, v := range headers {
			s.headers[k] = v
		}
	}
}

// WithMaxBodySize sets the maximum response body size.
// Non-positive values keep the default; sizes above model.MaxDocumentSize
// are capped to it.
func WithMaxBodySize(size int64) Option {
	return func(s *HTTPSource) {
		if size > 0 {
			s.maxBodySize = min(size, model.MaxDocumentSize)
		}
	}
}

// WithSettleDelay waits d after the response is read.
func WithSettleDelay(d time.Duration) Option {
	return func(s *HTTPSource) {
		s.settleDelay = d
	}
}

// WithClock sets the clock used for the settle delay.
func WithClock(c clockwork.Clock) Option {
	return func(s *HTTPSource) {
		s.clock = c
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *HTTPSource) {
		s.logger = logger
	}
}

// NewHTTPSource creates an HTTPSource using client.
// A nil client is replaced by one with a 30 second timeout.
func NewHTTPSource(client *http.Client, opts ...Option) *HTTPSource {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}

	s := &HTTPSource{
		client:    client,
		userAgent: DefaultUserAgent,
		headers: map[string]string{
			"Accept":          DefaultAccept,
			"Accept-Language": DefaultAcceptLanguage,
		},
		maxBodySize: DefaultMaxBodySize,
		clock:       clockwork.NewRealClock(),
		logger:      slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Fetch retrieves the document at pageURL.
func (s *HTTPSource) Fetch(ctx context.Context, pageURL string) (*model.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("invalid source URL %q: %w", pageURL, err)
	}

	req.Header.Set("User-Agent", s.userAgent)
	for k, v := range s.headers {
		req.Header.Set(k, v)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, &TransportError{URL: pageURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// Drain a little of the body so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096)) //nolint:errcheck // best effort
		return nil, &UpstreamStatusError{URL: pageURL, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, s.maxBodySize))
	if err != nil {
		return nil, &TransportError{URL: pageURL, Err: fmt.Errorf("failed to read body: %w", err)}
	}

	doc := &model.Document{
		URL:         pageURL,
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Headers:     resp.Header,
		Raw:         body,
	}
	doc.ComputeHash()

	s.logger.Debug("document fetched",
		"url", pageURL,
		"bytes", len(doc.Raw),
		"content_type", doc.ContentType,
		"hash", doc.Hash,
	)

	if !doc.IsHTML() {
		s.logger.Warn("unexpected content type", "url", pageURL, "content_type", doc.ContentType)
	}

	if s.settleDelay > 0 {
		select {
		case <-ctx.Done():
			return nil, &TransportError{URL: pageURL, Err: ctx.Err()}
		case <-s.clock.After(s.settleDelay):
		}
	}

	return doc, nil
}
