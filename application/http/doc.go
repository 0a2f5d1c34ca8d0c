// Package http implements a strict HTTP/1.1 response parser and the request
// encoder used to provoke responses.
//
// The parser reports every deviation from the message grammar as an
// [rfc.Violation]; stream and resource failures are reported through the
// classes of package failure.
//
// Reference:
//
// - https://datatracker.ietf.org/doc/html/rfc7230
//
// - https://datatracker.ietf.org/doc/html/rfc7231
package http
