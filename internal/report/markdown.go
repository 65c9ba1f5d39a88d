package report

import (
	"io"
	"strconv"

	"github.com/nao1215/markdown"

	"github.com/nao1215/sismoscrape/internal/model"
)

// maxCellWidth bounds the characters shown per table cell.
const maxCellWidth = 80

// MarkdownWriter outputs runs and rows in Markdown format.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the run summary followed by its rows.
func (w *MarkdownWriter) Write(run *model.Run) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, run)
	w.writeAlert(md, run)

	md.H2("Rows")
	md.PlainText("")
	w.writeRowsTable(md, run.Rows)

	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// WriteRows outputs the rows as a table.
func (w *MarkdownWriter) WriteRows(rows model.ResultSet) (int, error) {
	md := markdown.NewMarkdown(w.output)

	md.H1("Stored rows")
	md.PlainText("")
	w.writeRowsTable(md, rows)

	return len(md.String()), md.Build()
}

// writeHeader writes the run information table.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, run *model.Run) {
	md.H1("Sismos reportados")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Source", run.SourceURL},
			{"Table", "`" + run.TableName + "`"},
			{"Run Date", run.StartedAt.Format("2006-01-02 15:04:05 MST")},
			{"Duration", run.Duration().String()},
			{"Rows", strconv.Itoa(len(run.Rows))},
			{"Deleted", strconv.Itoa(run.Deleted)},
			{"Written", strconv.Itoa(run.Written)},
			{"Status", statusText(run)},
		},
	})
	md.PlainText("")
}

// writeAlert summarizes the outcome.
func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, run *model.Run) {
	switch {
	case run.Err != nil || run.ErrorMessage != "":
		md.Cautionf("The run failed after %d step(s); see Status above.", len(run.PerformedSteps))
	case len(run.Rows) == 0:
		md.Warningf("The table had no data rows. %d prior record(s) were removed.", run.Deleted)
	default:
		md.Tip("The store holds the latest rows.")
	}
	md.PlainText("")
}

// writeRowsTable writes rows with one column per key, in first-seen order.
func (w *MarkdownWriter) writeRowsTable(md *markdown.Markdown, rows model.ResultSet) {
	if len(rows) == 0 {
		md.PlainText("No rows.")
		md.PlainText("")
		return
	}

	columns := rows.Columns()
	body := make([][]string, len(rows))
	for i, row := range rows {
		cells := make([]string, len(columns))
		for j, col := range columns {
			cell := row.Text(col)
			if cell == "" {
				cell = "-"
			}
			cells[j] = truncateString(cell, maxCellWidth)
		}
		body[i] = cells
	}

	md.Table(markdown.TableSet{
		Header: columns,
		Rows:   body,
	})
	md.PlainText("")
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Data from [IGP - Instituto Geofísico del Perú](https://ultimosismo.igp.gob.pe)*")
}
