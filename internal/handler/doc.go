// Package handler runs one scrape and answers with a status code and a JSON
// body, the shape returned to a scheduled function invocation.
//
// Failures are reported in the Response, never as a Go error:
//
//	404  the page has no matching table; body {"error","page"}
//	500  the page could not be fetched; body {"error","details"}
//	5xx  the source answered non-2xx; body {"error","status_code"}
//	500  the store failed; body {"error","operation","details","rows"}
//
// A successful run answers 200 with the JSON array of stored rows.
package handler
