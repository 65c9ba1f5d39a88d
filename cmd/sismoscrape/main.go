// Package main provides the entry point for the sismoscrape CLI.
//
// sismoscrape copies the latest earthquakes reported by the Instituto
// Geofísico del Perú into a key-value table, replacing what was there.
//
// Usage:
//
//	sismoscrape run
//	sismoscrape run --store memory --markdown
//	sismoscrape show
//
// See --help for all available options.
package main

// main is the entry point for sismoscrape.
func main() {
	Execute()
}
