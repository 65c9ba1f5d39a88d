package config

import "errors"

// Configuration validation errors.
// These errors are returned by Config.Validate() and provide specific
// information about what is wrong with the configuration.
var (
	// ErrInvalidSourceURL is returned when the source URL is not an absolute
	// http or https URL.
	ErrInvalidSourceURL = errors.New("invalid source URL: must be an absolute http(s) URL")

	// ErrInvalidTimeout is returned when the timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidSettleDelay is returned when the settle delay is negative.
	// Use 0 to return the page as soon as it is read.
	ErrInvalidSettleDelay = errors.New("invalid settle delay: must be non-negative")

	// ErrInvalidMaxRows is returned when the row cap is not positive.
	ErrInvalidMaxRows = errors.New("invalid max rows: must be positive")

	// ErrInvalidMaxBodySize is returned when the max body size is negative or
	// above model.MaxDocumentSize. Use 0 for the default limit.
	ErrInvalidMaxBodySize = errors.New("invalid max body size: must be between 0 and 10MB")

	// ErrUnknownStore is returned when the store kind is not sqlite, dynamodb or memory.
	ErrUnknownStore = errors.New("unknown store: must be sqlite, dynamodb or memory")

	// ErrInvalidTableName is returned when the table name is not accepted by
	// the selected store.
	ErrInvalidTableName = errors.New("invalid table name for the selected store")

	// ErrInvalidLogFormat is returned when the log format is neither text nor json.
	ErrInvalidLogFormat = errors.New("invalid log format: must be text or json")
)
