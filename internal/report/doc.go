// Package report renders runs and stored rows for people and tools.
//
// This package contains writers for different output formats:
//   - SimpleWriter: plain text for the terminal
//   - JSONWriter: JSON with non-ASCII and HTML characters written literally
//   - MarkdownWriter: GitHub Flavored Markdown tables
//
// Writers implement the Writer interface, allowing them to be used
// interchangeably and composed for multi-format output.
package report
