// Package model defines the data structures shared by the fetch, extract,
// store and handler packages.
//
// This package contains the following main types:
//   - Document: The raw page retrieved from the seismology website
//   - Row: One earthquake report, an ordered column-to-value mapping
//   - ResultSet: The capped, ordered sequence of rows produced by a run
//   - Run: The state accumulated while a single invocation executes
//
// Rows keep the column order of the source table so that the JSON written
// to the store and returned to the caller lists fields the way the page
// shows them.
package model
