// Package pipeline runs the steps of a scrape in sequence.
//
// A run is fetch, extract, store. Each step is a Step that reads what the
// earlier steps left in the model.Run and records its own output there. The
// pipeline stops at the first failing step, so nothing is written to the
// store unless the page was fetched and its table was found.
package pipeline
