// Package config provides the configuration of a scrape run: where the page
// comes from, how its table is located, which store receives the rows, and
// how the run logs and reports metrics.
//
// Values are layered: defaults from NewConfig, then the YAML file, then
// environment variables, then command line flags.
package config
