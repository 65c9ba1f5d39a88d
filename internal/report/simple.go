package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/nao1215/sismoscrape/internal/model"
)

// SimpleWriter outputs human-readable text.
type SimpleWriter struct {
	baseWriter

	// verbose adds the performed steps and document digest to run output.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithVerbose enables verbose output with additional details.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the run summary and its rows.
func (w *SimpleWriter) Write(run *model.Run) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, run)
	w.writeRows(&sb, run.Rows)
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")

	return w.output.Write([]byte(sb.String()))
}

// WriteRows outputs rows only.
func (w *SimpleWriter) WriteRows(rows model.ResultSet) (int, error) {
	var sb strings.Builder
	w.writeRows(&sb, rows)
	return w.output.Write([]byte(sb.String()))
}

// writeHeader writes the run information.
func (w *SimpleWriter) writeHeader(sb *strings.Builder, run *model.Run) {
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("                        SISMOS REPORTADOS\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")

	sb.WriteString(fmt.Sprintf("Source:   %s\n", run.SourceURL))
	sb.WriteString(fmt.Sprintf("Table:    %s\n", run.TableName))
	sb.WriteString(fmt.Sprintf("Run Date: %s\n", run.StartedAt.Format("2006-01-02 15:04:05 MST")))
	sb.WriteString(fmt.Sprintf("Duration: %s\n", run.Duration()))
	sb.WriteString(fmt.Sprintf("Deleted:  %d\n", run.Deleted))
	sb.WriteString(fmt.Sprintf("Written:  %d\n", run.Written))
	sb.WriteString(fmt.Sprintf("Status:   %s\n", statusText(run)))

	if w.verbose {
		sb.WriteString(fmt.Sprintf("Steps:    %s\n", strings.Join(run.PerformedSteps, ", ")))
		if run.Document != nil {
			sb.WriteString(fmt.Sprintf("Digest:   %s\n", run.Document.Hash))
		}
	}
	sb.WriteString("\n")
}

// writeRows writes each row as an indented block of key: value lines.
func (w *SimpleWriter) writeRows(sb *strings.Builder, rows model.ResultSet) {
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("ROWS (%d)\n", len(rows)))
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	if len(rows) == 0 {
		sb.WriteString("  No rows\n\n")
		return
	}

	for i, row := range rows {
		rank := row.Rank()
		if rank == 0 {
			rank = i + 1
		}
		sb.WriteString(fmt.Sprintf("[%d]\n", rank))
		for _, key := range row.Keys() {
			if key == model.FieldRank {
				continue
			}
			sb.WriteString(fmt.Sprintf("  %s: %s\n", key, row.Text(key)))
		}
		sb.WriteString("\n")
	}
}
