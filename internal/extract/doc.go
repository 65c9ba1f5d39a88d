// Package extract turns an HTML document into a capped sequence of table rows.
//
// # Algorithm
//
// The Extractor locates the first element matching its Selector (tag name,
// optionally qualified by a CSS class), reads every th cell beneath it as the
// column keys, and walks every tr beneath it in document order:
//
//   - The first tr is dropped when SkipHeaderRow is enabled (the default).
//     Tables without a header row lose their first data row in that mode.
//   - Rows without td cells are skipped and do not count toward the cap.
//   - Once MaxRows rows are accepted, the remaining rows are not inspected.
//   - Cells beyond the header count are keyed col_<index> (0-based).
//
// Cell and header text is the visible text of the element with runs of
// whitespace collapsed, trimmed, and normalized to Unicode NFC.
//
// # Usage
//
//	ex := extract.New(extract.WithMaxRows(10))
//	rows, err := ex.Extract(doc.Raw)
//	if errors.Is(err, extract.ErrTableNotFound) {
//	    // the page did not contain the table
//	}
package extract
