package report

import (
	"io"
	"unicode/utf8"

	"github.com/nao1215/sismoscrape/internal/model"
)

// Writer defines the interface for report output.
type Writer interface {
	// Write outputs a run: its outcome and the rows it produced.
	// Returns the number of bytes written and any error encountered.
	Write(run *model.Run) (int, error)

	// WriteRows outputs rows alone, e.g. the current store contents.
	WriteRows(rows model.ResultSet) (int, error)
}

// MultiWriter writes to multiple Writers simultaneously.
// This is useful for outputting to both terminal and file.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write outputs the run to all configured Writers.
// Returns the total bytes written across all writers.
// Stops on first error encountered.
func (m *MultiWriter) Write(run *model.Run) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.Write(run)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// WriteRows outputs the rows to all configured Writers.
func (m *MultiWriter) WriteRows(rows model.ResultSet) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.WriteRows(rows)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// baseWriter provides common functionality for report writers.
type baseWriter struct {
	output io.Writer
}

// newBaseWriter creates a baseWriter with the given output destination.
func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}

// statusText describes how a run ended.
func statusText(run *model.Run) string {
	switch {
	case run.ErrorMessage != "":
		return "Error - " + run.ErrorMessage
	case run.Err != nil:
		return "Error - " + run.Err.Error()
	default:
		return "Complete"
	}
}

// truncateString truncates s to maxLen characters with ellipsis.
func truncateString(s string, maxLen int) string {
	if utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	runes := []rune(s)
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}
