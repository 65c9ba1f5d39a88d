package log

import (
	"context"
	"io"
	"log/slog"
	"net/url"
	"regexp"
	"strings"
)

// MaskValue is the string used to replace sensitive values.
const MaskValue = "***REDACTED***"

// Log output formats accepted by New.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// sensitiveKeys are attribute keys whose value is always masked.
var sensitiveKeys = map[string]bool{
	// HTTP headers sent to the source or the Pushgateway
	"authorization":        true,
	"proxy-authorization":  true,
	"cookie":               true,
	"set-cookie":           true,
	"x-api-key":            true,
	"x-amz-security-token": true,

	// AWS credentials as they appear in the function environment
	"aws_access_key_id":     true,
	"aws_secret_access_key": true,
	"aws_session_token":     true,
	"access_key_id":         true,
	"secret_access_key":     true,
	"session_token":         true,

	"api_key":    true,
	"apikey":     true,
	"session_id": true,
}

// sensitiveKeywords mask any key containing them. A bare "key" is not one
// of them: "partition_key" and "sort_key" are harmless DynamoDB terms.
var sensitiveKeywords = []string{
	"password", "passwd", "secret", "token", "credential", "private",
}

// sensitivePatterns mask a string value regardless of its key.
var sensitivePatterns = []*regexp.Regexp{
	// AWS access key ids, long-term and temporary
	regexp.MustCompile(`^(AKIA|ASIA)[0-9A-Z]{16}$`),

	// AWS secret access keys
	regexp.MustCompile(`^[A-Za-z0-9/+]{40}$`),

	// AWS SigV4 authorization header
	regexp.MustCompile(`^AWS4-HMAC-SHA256 Credential=`),

	// JWT, bearer and basic credentials
	regexp.MustCompile(`^eyJ[A-Za-z0-9_-]*\.eyJ[A-Za-z0-9_-]*\.[A-Za-z0-9_-]*$`),
	regexp.MustCompile(`(?i)^bearer\s+.+`),
	regexp.MustCompile(`(?i)^basic\s+[A-Za-z0-9+/=]+$`),

	regexp.MustCompile(`(?i)-----BEGIN.*(PRIVATE|SECRET).*KEY-----`),
}

// urlPattern finds absolute http(s) URLs inside a longer string, such as
// an error message.
var urlPattern = regexp.MustCompile(`https?://[^\s"'<>]+`)

// signedQueryParams carry SigV4 credentials in presigned URLs.
var signedQueryParams = []string{
	"X-Amz-Credential", "X-Amz-Signature", "X-Amz-Security-Token",
}

// SecureHandler wraps an slog.Handler and masks credentials before records
// reach it. Values are masked when their key is sensitive or when they look
// like a credential. Credentials embedded in URLs, either as user info or as
// presigned query parameters, are masked in place so the rest of the URL
// stays readable; this also applies to error values.
type SecureHandler struct {
	handler slog.Handler
}

// NewSecureHandler creates a SecureHandler wrapping handler.
// A nil handler is replaced by slog.Default().Handler().
func NewSecureHandler(handler slog.Handler) *SecureHandler {
	if handler == nil {
		handler = slog.Default().Handler()
	}
	return &SecureHandler{handler: handler}
}

// Enabled delegates to the wrapped handler.
func (h *SecureHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

// Handle masks the record's attributes and passes it on.
func (h *SecureHandler) Handle(ctx context.Context, r slog.Record) error {
	masked := slog.NewRecord(r.Time, r.Level, redactURLs(r.Message), r.PC)
	r.Attrs(func(a slog.Attr) bool {
		masked.AddAttrs(maskAttr(a))
		return true
	})
	return h.handler.Handle(ctx, masked)
}

// WithAttrs masks attrs before attaching them.
func (h *SecureHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &SecureHandler{handler: h.handler.WithAttrs(maskAttrs(attrs))}
}

// WithGroup returns a handler nesting later attributes under name.
func (h *SecureHandler) WithGroup(name string) slog.Handler {
	return &SecureHandler{handler: h.handler.WithGroup(name)}
}

func maskAttrs(attrs []slog.Attr) []slog.Attr {
	out := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		out[i] = maskAttr(a)
	}
	return out
}

// maskAttr masks one attribute, descending into groups.
func maskAttr(a slog.Attr) slog.Attr {
	a.Value = a.Value.Resolve()

	if a.Value.Kind() == slog.KindGroup {
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(maskAttrs(a.Value.Group())...)}
	}

	if isSensitiveKey(a.Key) {
		return slog.String(a.Key, MaskValue)
	}

	switch a.Value.Kind() {
	case slog.KindString:
		s := a.Value.String()
		if isSensitiveValue(s) {
			return slog.String(a.Key, MaskValue)
		}
		if r := redactURLs(s); r != s {
			return slog.String(a.Key, r)
		}
	case slog.KindAny:
		if err, ok := a.Value.Any().(error); ok {
			msg := err.Error()
			if r := redactURLs(msg); r != msg {
				return slog.String(a.Key, r)
			}
		}
	}

	return a
}

// isSensitiveKey reports whether values under key must be masked.
func isSensitiveKey(key string) bool {
	key = strings.ToLower(key)
	if sensitiveKeys[key] {
		return true
	}
	for _, keyword := range sensitiveKeywords {
		if strings.Contains(key, keyword) {
			return true
		}
	}
	return false
}

// isSensitiveValue reports whether value looks like a credential.
func isSensitiveValue(value string) bool {
	for _, pattern := range sensitivePatterns {
		if pattern.MatchString(value) {
			return true
		}
	}
	return false
}

// redactURLs masks user passwords and presigned query credentials of every
// URL in s.
func redactURLs(s string) string {
	if !strings.Contains(s, "://") {
		return s
	}
	return urlPattern.ReplaceAllStringFunc(s, redactURL)
}

func redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}

	changed := false
	if _, ok := u.User.Password(); ok {
		u.User = url.UserPassword(u.User.Username(), MaskValue)
		changed = true
	}

	q := u.Query()
	for _, p := range signedQueryParams {
		if q.Has(p) {
			q.Set(p, MaskValue)
			changed = true
		}
	}
	if !changed {
		return raw
	}
	u.RawQuery = q.Encode()

	// Keep the mask readable instead of percent-encoded.
	out := u.String()
	out = strings.ReplaceAll(out, url.QueryEscape(MaskValue), MaskValue)
	out = strings.ReplaceAll(out, url.PathEscape(MaskValue), MaskValue)
	return out
}

// New creates a secure logger writing format to w. Any format other than
// FormatJSON produces text, which suits a terminal; JSON suits CloudWatch
// Logs. The level is Debug when verbose, Warn otherwise.
func New(w io.Writer, format string, verbose bool) *slog.Logger {
	opts := &slog.HandlerOptions{Level: slog.LevelWarn}
	if verbose {
		opts.Level = slog.LevelDebug
	}

	var handler slog.Handler
	if format == FormatJSON {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(NewSecureHandler(handler))
}
