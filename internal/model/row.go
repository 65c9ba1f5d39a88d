package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
)

// Names of the fields added to every row after extraction.
const (
	// FieldRank holds the 1-based position of the row in its ResultSet.
	FieldRank = "#"

	// FieldID holds the unique identifier the row is stored under.
	FieldID = "id"
)

// Row is an ordered mapping from column key to value.
//
// Setting an existing key replaces its value but keeps the key at its
// original position, so duplicated header names collapse into one field
// holding the last cell's text.
type Row struct {
	keys   []string
	values map[string]any
}

// NewRow creates an empty row.
func NewRow() *Row {
	return &Row{
		keys:   make([]string, 0),
		values: make(map[string]any),
	}
}

// Set assigns value to key.
func (r *Row) Set(key string, value any) {
	if r.values == nil {
		r.values = make(map[string]any)
	}
	if _, ok := r.values[key]; !ok {
		r.keys = append(r.keys, key)
	}
	r.values[key] = value
}

// Get returns the value stored under key.
func (r *Row) Get(key string) (any, bool) {
	v, ok := r.values[key]
	return v, ok
}

// Text returns the value stored under key formatted as a string.
// Missing keys yield an empty string.
func (r *Row) Text(key string) string {
	v, ok := r.values[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// Keys returns the keys in insertion order.
func (r *Row) Keys() []string {
	keys := make([]string, len(r.keys))
	copy(keys, r.keys)
	return keys
}

// Len returns the number of fields in the row.
func (r *Row) Len() int {
	return len(r.keys)
}

// ID returns the row identifier, or an empty string if none was assigned.
func (r *Row) ID() string {
	v, ok := r.values[FieldID].(string)
	if !ok {
		return ""
	}
	return v
}

// Rank returns the row rank, or 0 if none was assigned.
// Numbers decoded from a store may come back as float64 or json.Number,
// so every numeric representation is accepted.
func (r *Row) Rank() int {
	switch v := r.values[FieldRank].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return 0
		}
		return int(n)
	default:
		return 0
	}
}

// Map returns a copy of the row as a plain map. Key order is lost.
func (r *Row) Map() map[string]any {
	m := make(map[string]any, len(r.values))
	for k, v := range r.values {
		m[k] = v
	}
	return m
}

// Clone returns a copy of the row.
func (r *Row) Clone() *Row {
	c := NewRow()
	for _, k := range r.keys {
		c.Set(k, r.values[k])
	}
	return c
}

// MarshalJSON encodes the row as a JSON object with keys in insertion order.
// Non-ASCII text and HTML characters are written literally.
func (r *Row) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range r.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := encodeLiteral(k)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		val, err := encodeLiteral(r.values[k])
		if err != nil {
			return nil, fmt.Errorf("failed to encode field %q: %w", k, err)
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object into the row, keeping the key order of
// the input. Integral numbers are decoded as int.
func (r *Row) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		return nil
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return errors.New("row must be a JSON object")
	}

	*r = Row{keys: make([]string, 0), values: make(map[string]any)}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("unexpected object key %v", keyTok)
		}
		var value any
		if err := dec.Decode(&value); err != nil {
			return fmt.Errorf("failed to decode field %q: %w", key, err)
		}
		r.Set(key, normalizeNumber(value))
	}

	if _, err := dec.Token(); err != nil {
		return err
	}
	return nil
}

// encodeLiteral encodes v without HTML escaping.
func encodeLiteral(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// normalizeNumber converts json.Number values to int when they are integral
// and to float64 otherwise.
func normalizeNumber(v any) any {
	n, ok := v.(json.Number)
	if !ok {
		return v
	}
	if i, err := n.Int64(); err == nil && i >= math.MinInt && i <= math.MaxInt {
		return int(i)
	}
	if f, err := n.Float64(); err == nil {
		return f
	}
	return n.String()
}

// ResultSet is the ordered sequence of rows extracted in one run.
type ResultSet []*Row

// IDs returns the identifiers of all rows that have one.
func (rs ResultSet) IDs() []string {
	ids := make([]string, 0, len(rs))
	for _, row := range rs {
		if id := row.ID(); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

// Columns returns the union of all row keys in first-seen order.
func (rs ResultSet) Columns() []string {
	seen := make(map[string]bool)
	columns := make([]string, 0)
	for _, row := range rs {
		for _, k := range row.keys {
			if !seen[k] {
				seen[k] = true
				columns = append(columns, k)
			}
		}
	}
	return columns
}
