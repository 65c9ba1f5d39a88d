// Package log builds the slog loggers used by sismoscrape.
//
// Every logger wraps its handler in a SecureHandler, which masks attribute
// values that look like credentials: AWS keys and session tokens, HTTP
// authorization and cookie headers, bearer tokens and private keys. The
// scheduled function runs with AWS credentials in its environment, so a
// careless debug line must not leak them into the log stream.
//
// # Usage
//
//	logger := log.New(os.Stderr, log.FormatJSON, verbose)
//	slog.SetDefault(logger)
//
//	logger.Debug("request sent",
//	    "url", "https://ultimosismo.igp.gob.pe/...",
//	    "authorization", "Bearer ...", // logged as ***REDACTED***
//	)
package log
