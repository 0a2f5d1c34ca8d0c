// Package uri implements a strict parser for absolute Uniform Resource
// Identifiers. Every component is checked against its production and a
// failure is reported as an [rfc.Violation] naming the offending characters.
//
// Reference:
//
// - https://datatracker.ietf.org/doc/html/rfc3986
//
// - TODO: IP-literal hosts (https://datatracker.ietf.org/doc/html/rfc3986#section-3.2.2)
package uri
