package model

import (
	"encoding/hex"
	"strings"

	"golang.org/x/crypto/sha3"
)

// MaxDocumentSize is the largest body a Document may hold. It bounds the
// configurable body size limit of the document source.
const MaxDocumentSize = 10 * 1024 * 1024

// Document is a page retrieved from the document source.
// It is created fresh for every run and discarded once the table is parsed.
type Document struct {
	// URL is the address the document was fetched from.
	URL string `json:"url"`

	// StatusCode is the HTTP response status code.
	StatusCode int `json:"status_code"`

	// ContentType is the MIME type reported by the server.
	ContentType string `json:"content_type"`

	// Headers contains the HTTP response headers.
	Headers map[string][]string `json:"headers,omitempty"`

	// Raw is the response body.
	Raw []byte `json:"-"`

	// Hash is the hex encoded SHA3-256 digest of Raw.
	Hash string `json:"hash"`
}

// ComputeHash calculates and sets the SHA3-256 digest of the raw content.
// The digest identifies the exact page a run parsed in logs.
func (d *Document) ComputeHash() {
	if len(d.Raw) == 0 {
		d.Hash = ""
		return
	}

	sum := sha3.Sum256(d.Raw)
	d.Hash = hex.EncodeToString(sum[:])
}

// Content returns the body as a string.
func (d *Document) Content() string {
	return string(d.Raw)
}

// IsHTML reports whether the content type indicates HTML.
// An empty content type is treated as HTML because some servers omit it.
func (d *Document) IsHTML() bool {
	ct := strings.ToLower(d.ContentType)
	return ct == "" ||
		strings.HasPrefix(ct, "text/html") ||
		strings.HasPrefix(ct, "application/xhtml+xml")
}
