package report

import (
	"bytes"
	"encoding/json"
	"io"

	"github.com/nao1215/sismoscrape/internal/model"
)

// JSONWriter outputs runs and rows in JSON format.
// Non-ASCII and HTML characters are written literally, so place names such
// as "Huánuco" stay readable.
type JSONWriter struct {
	baseWriter

	// indent enables pretty-printed JSON output.
	// When false, output is compact (no extra whitespace).
	indent bool

	// indentPrefix is the prefix for each line in indented output.
	indentPrefix string

	// indentString is the indentation string (typically "  " or "\t").
	indentString string

	// version is written into run reports.
	version string
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithIndent enables pretty-printed JSON output.
// The prefix is prepended to each line, and indent is used for each level.
func WithIndent(prefix, indent string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = true
		w.indentPrefix = prefix
		w.indentString = indent
	}
}

// WithPrettyPrint enables pretty-printed JSON with default indentation.
// This is a convenience wrapper for WithIndent("", "  ").
func WithPrettyPrint() JSONWriterOption {
	return WithIndent("", "  ")
}

// WithVersion sets the version recorded in run reports.
func WithVersion(version string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.version = version
	}
}

// NewJSONWriter creates a JSONWriter that outputs to the given writer.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{
		baseWriter: newBaseWriter(output),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// JSONReport wraps a run with output metadata.
type JSONReport struct {
	// Version is the sismoscrape version that produced the run.
	Version string `json:"version,omitempty"`

	// Status is "Complete" or the error that aborted the run.
	Status string `json:"status"`

	// DurationMS is the run duration in milliseconds.
	DurationMS int64 `json:"duration_ms"`

	// Run is the run itself.
	Run *model.Run `json:"run"`
}

// Write outputs the run wrapped with metadata.
func (w *JSONWriter) Write(run *model.Run) (int, error) {
	return w.Encode(&JSONReport{
		Version:    w.version,
		Status:     statusText(run),
		DurationMS: run.Duration().Milliseconds(),
		Run:        run,
	})
}

// WriteRows outputs the rows as a JSON array.
func (w *JSONWriter) WriteRows(rows model.ResultSet) (int, error) {
	if rows == nil {
		rows = model.ResultSet{}
	}
	return w.Encode(rows)
}

// Encode writes v as JSON followed by a newline.
func (w *JSONWriter) Encode(v any) (int, error) {
	data, err := Marshal(v, w.indentPrefix, w.indentString, w.indent)
	if err != nil {
		return 0, err
	}
	return w.output.Write(append(data, '\n'))
}

// Marshal encodes v without HTML escaping. The result has no trailing newline.
func Marshal(v any, prefix, indent string, pretty bool) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if pretty {
		enc.SetIndent(prefix, indent)
	}
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
