// Package status holds the registered status codes of RFC 7231 together
// with the section defining each.
package status

import (
	"fmt"
	"sort"
)

type Status struct {
	Code         uint
	ReasonPhrase string
	Reference    string
}

// Informational 1XX
// Reference: https://datatracker.ietf.org/doc/html/rfc7231#section-6.2
var (
	Continue           = add(Status{100, "Continue", "RFC 7231 §6.2.1"})
	SwitchingProtocols = add(Status{101, "Switching Protocols", "RFC 7231 §6.2.2"})
)

// Successful 2XX
// Reference: https://datatracker.ietf.org/doc/html/rfc7231#section-6.3
var (
	OK                   = add(Status{200, "OK", "RFC 7231 §6.3.1"})
	Created              = add(Status{201, "Created", "RFC 7231 §6.3.2"})
	Accepted             = add(Status{202, "Accepted", "RFC 7231 §6.3.3"})
	NonAuthoritativeInfo = add(Status{203, "Non-Authoritative Information", "RFC 7231 §6.3.4"})
	NoContent            = add(Status{204, "No Content", "RFC 7231 §6.3.5"})
	ResetContent         = add(Status{205, "Reset Content", "RFC 7231 §6.3.6"})
	PartialContent       = add(Status{206, "Partial Content", "RFC 7233 §4.1"})
)

// Redirection 3xx
// Reference: https://datatracker.ietf.org/doc/html/rfc7231#section-6.4
var (
	MultipleChoices   = add(Status{300, "Multiple Choices", "RFC 7231 §6.4.1"})
	MovedPermanently  = add(Status{301, "Moved Permanently", "RFC 7231 §6.4.2"})
	Found             = add(Status{302, "Found", "RFC 7231 §6.4.3"})
	SeeOther          = add(Status{303, "See Other", "RFC 7231 §6.4.4"})
	NotModified       = add(Status{304, "Not Modified", "RFC 7232 §4.1"})
	UseProxy          = add(Status{305, "Use Proxy", "RFC 7231 §6.4.5"})
	_                 = add(Status{306, "(Unused)", "RFC 7231 §6.4.6"})
	TemporaryRedirect = add(Status{307, "Temporary Redirect", "RFC 7231 §6.4.7"})
)

// Client Error 4xx
// Reference: https://datatracker.ietf.org/doc/html/rfc7231#section-6.5
var (
	BadRequest           = add(Status{400, "Bad Request", "RFC 7231 §6.5.1"})
	Unauthorized         = add(Status{401, "Unauthorized", "RFC 7235 §3.1"})
	PaymentRequired      = add(Status{402, "Payment Required", "RFC 7231 §6.5.2"})
	Forbidden            = add(Status{403, "Forbidden", "RFC 7231 §6.5.3"})
	NotFound             = add(Status{404, "Not Found", "RFC 7231 §6.5.4"})
	MethodNotAllowed     = add(Status{405, "Method Not Allowed", "RFC 7231 §6.5.5"})
	NotAcceptable        = add(Status{406, "Not Acceptable", "RFC 7231 §6.5.6"})
	ProxyAuthRequired    = add(Status{407, "Proxy Authentication Required", "RFC 7235 §3.2"})
	RequestTimeout       = add(Status{408, "Request Timeout", "RFC 7231 §6.5.7"})
	Conflict             = add(Status{409, "Conflict", "RFC 7231 §6.5.8"})
	Gone                 = add(Status{410, "Gone", "RFC 7231 §6.5.9"})
	LengthRequired       = add(Status{411, "Length Required", "RFC 7231 §6.5.10"})
	PreconditionFailed   = add(Status{412, "Precondition Failed", "RFC 7232 §4.2"})
	PayloadTooLarge      = add(Status{413, "Payload Too Large", "RFC 7231 §6.5.11"})
	URITooLong           = add(Status{414, "URI Too Long", "RFC 7231 §6.5.12"})
	UnsupportedMediaType = add(Status{415, "Unsupported Media Type", "RFC 7231 §6.5.13"})
	RangeNotSatisfiable  = add(Status{416, "Range Not Satisfiable", "RFC 7233 §4.4"})
	ExpectationFailed    = add(Status{417, "Expectation Failed", "RFC 7231 §6.5.14"})
	UpgradeRequired      = add(Status{426, "Upgrade Required", "RFC 7231 §6.5.15"})
)

// Server Error 5xx
// Reference: https://datatracker.ietf.org/doc/html/rfc7231#section-6.6
var (
	InternalServerError     = add(Status{500, "Internal Server Error", "RFC 7231 §6.6.1"})
	NotImplemented          = add(Status{501, "Not Implemented", "RFC 7231 §6.6.2"})
	BadGateway              = add(Status{502, "Bad Gateway", "RFC 7231 §6.6.3"})
	ServiceUnavailable      = add(Status{503, "Service Unavailable", "RFC 7231 §6.6.4"})
	GatewayTimeout          = add(Status{504, "Gateway Timeout", "RFC 7231 §6.6.5"})
	HTTPVersionNotSupported = add(Status{505, "HTTP Version Not Supported", "RFC 7231 §6.6.6"})
)

var sm = make(map[uint]*Status)

func add(status Status) Status {
	sm[status.Code] = &status
	return status
}

// Lookup returns the registered status of code.
func Lookup(code uint) (status Status, ok bool) {
	s, ok := sm[code]
	if !ok {
		return Status{Code: code}, false
	}

	return *s, true
}

// Class returns the class section of code, e.g. "RFC 7231 §6.5" for 4xx.
// Unregistered codes inside 1xx-5xx are treated as the x00 code of their class.
//
// Reference: https://datatracker.ietf.org/doc/html/rfc7231#section-6
func Class(code uint) string {
	if code < 100 || code > 599 {
		return ""
	}
	return fmt.Sprintf("RFC 7231 §6.%d", code/100+1)
}

// Describe formats code for diagnostics, e.g. `404 Not Found (RFC 7231 §6.5.4)`.
func Describe(code uint) string {
	s, ok := Lookup(code)
	if !ok {
		if class := Class(code); class != "" {
			return fmt.Sprintf("%d unregistered (%s)", code, class)
		}
		return fmt.Sprintf("%d unregistered", code)
	}
	return fmt.Sprintf("%d %s (%s)", s.Code, s.ReasonPhrase, s.Reference)
}

// Codes returns every registered code in ascending order.
func Codes() []uint {
	codes := make([]uint, 0, len(sm))
	for code := range sm {
		codes = append(codes, code)
	}
	sort.Slice(codes, func(i, j int) bool { return codes[i] < codes[j] })
	return codes
}
