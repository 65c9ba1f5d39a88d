// Package store persists scraped rows with replace semantics.
//
// A Store holds the records of exactly one table. Three backends exist:
//   - SQLite, a single file in the data directory, used for local runs
//   - DynamoDB, the production table written by the scheduled function
//   - memory, used for dry runs and tests
//
// The Writer enriches a ResultSet with rank and id fields and substitutes
// the table contents with it. Backends that implement AtomicReplacer
// (SQLite) do the substitution in one transaction; the others delete every
// existing record and then insert the new ones, so a failure between the
// two phases can leave the table empty or short.
package store
