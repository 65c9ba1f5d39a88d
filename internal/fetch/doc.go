// Package fetch retrieves the raw report page from the seismology website.
//
// HTTPSource performs a single GET with browser-like headers. It reports
// failures in two distinct classes so callers can tell them apart:
//
//   - TransportError (ErrFetchTransport): DNS, connection, TLS, timeout or
//     body read failures. Nothing usable was received.
//   - UpstreamStatusError (ErrFetchUpstream): the server answered with a
//     status other than 200 OK.
//
// A page that loads but lacks the expected table is not a fetch error; the
// extract package reports that case.
package fetch
