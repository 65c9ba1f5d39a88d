package extract

import (
	"bytes"
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/text/unicode/norm"

	"github.com/nao1215/sismoscrape/internal/model"
)

// Defaults for the extractor.
const (
	// DefaultTag is the element name of the table to extract.
	DefaultTag = "table"

	// DefaultMaxRows is the maximum number of data rows kept per run.
	DefaultMaxRows = 10
)

// HTML element names the extractor reads.
const (
	elementHeaderCell = "th"
	elementRow        = "tr"
	elementDataCell   = "td"
)

// Selector identifies the table element to extract.
type Selector struct {
	// Tag is the element name, e.g. "table".
	Tag string

	// Class, when non-empty, must be one of the element's CSS classes.
	Class string
}

// String renders the selector in CSS notation.
func (s Selector) String() string {
	if s.Class == "" {
		return s.Tag
	}
	return s.Tag + "." + s.Class
}

// matches reports whether n is an element satisfying the selector.
func (s Selector) matches(n *html.Node) bool {
	if n.Type != html.ElementNode || n.Data != s.Tag {
		return false
	}
	if s.Class == "" {
		return true
	}
	for _, class := range strings.Fields(getAttr(n, "class")) {
		if class == s.Class {
			return true
		}
	}
	return false
}

// Extractor converts HTML documents into ResultSets.
// An Extractor holds no per-document state and is safe for concurrent use.
type Extractor struct {
	selector      Selector
	skipHeaderRow bool
	maxRows       int
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithSelector sets the table selection rule.
// An empty tag keeps the default tag.
func WithSelector(tag, class string) Option {
	return func(e *Extractor) {
		if tag != "" {
			e.selector.Tag = strings.ToLower(tag)
		}
		e.selector.Class = class
	}
}

// WithSkipHeaderRow controls whether the first tr of the table is discarded.
func WithSkipHeaderRow(skip bool) Option {
	return func(e *Extractor) {
		e.skipHeaderRow = skip
	}
}

// WithMaxRows sets the maximum number of data rows to return.
// Non-positive values are ignored.
func WithMaxRows(n int) Option {
	return func(e *Extractor) {
		if n > 0 {
			e.maxRows = n
		}
	}
}

// New creates an Extractor with the given options.
func New(opts ...Option) *Extractor {
	e := &Extractor{
		selector:      Selector{Tag: DefaultTag},
		skipHeaderRow: true,
		maxRows:       DefaultMaxRows,
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Selector returns the table selection rule.
func (e *Extractor) Selector() Selector {
	return e.selector
}

// Extract parses content and returns the rows of the selected table.
// It returns a *TableNotFoundError when no element matches the selector.
// A table with headers but no data rows yields an empty, non-nil ResultSet.
func (e *Extractor) Extract(content []byte) (model.ResultSet, error) {
	root, err := html.Parse(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("failed to parse document: %w", err)
	}

	table := findFirst(root, e.selector.matches)
	if table == nil {
		return nil, &TableNotFoundError{Selector: e.selector, Page: string(content)}
	}

	headerCells := findAll(table, elementHeaderCell)
	headers := make([]string, len(headerCells))
	for i, th := range headerCells {
		headers[i] = textContent(th)
	}

	rows := findAll(table, elementRow)
	if e.skipHeaderRow && len(rows) > 0 {
		rows = rows[1:]
	}

	result := make(model.ResultSet, 0, min(len(rows), e.maxRows))
	for _, tr := range rows {
		cells := findAll(tr, elementDataCell)
		if len(cells) == 0 {
			continue
		}
		if len(result) >= e.maxRows {
			break
		}

		row := model.NewRow()
		for i, td := range cells {
			row.Set(columnKey(headers, i), textContent(td))
		}
		result = append(result, row)
	}

	return result, nil
}

// columnKey returns the header at index i, or col_<i> past the last header.
func columnKey(headers []string, i int) string {
	if i < len(headers) {
		return headers[i]
	}
	return fmt.Sprintf("col_%d", i)
}

// findFirst returns the first node in document order for which match is true.
func findFirst(n *html.Node, match func(*html.Node) bool) *html.Node {
	if match(n) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findFirst(c, match); found != nil {
			return found
		}
	}
	return nil
}

// findAll returns every descendant element of n named tag, in document order.
// n itself is not included.
func findAll(n *html.Node, tag string) []*html.Node {
	nodes := make([]*html.Node, 0)
	var walk func(*html.Node)
	walk = func(p *html.Node) {
		for c := p.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.ElementNode && c.Data == tag {
				nodes = append(nodes, c)
			}
			walk(c)
		}
	}
	walk(n)
	return nodes
}

// blockElements are separated from their neighbours by whitespace when
// rendered, so their text must not run together.
var blockElements = map[string]bool{
	"p": true, "div": true, "li": true, "ul": true, "ol": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
}

// textContent returns the visible text of n: text nodes concatenated,
// script and style skipped, whitespace collapsed, NFC normalized.
func textContent(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(p *html.Node) {
		switch p.Type {
		case html.TextNode:
			sb.WriteString(p.Data)
		case html.ElementNode:
			switch p.Data {
			case "script", "style", "template":
				return
			case "br":
				sb.WriteString(" ")
			}
		}
		for c := p.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if p.Type == html.ElementNode && blockElements[p.Data] {
			sb.WriteString(" ")
		}
	}
	walk(n)

	return norm.NFC.String(strings.Join(strings.Fields(sb.String()), " "))
}

// getAttr retrieves an attribute value from an HTML node.
func getAttr(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}
