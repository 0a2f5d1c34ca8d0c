package http

import (
	"strconv"

	"http-conformance/application/util/rfc"
	"http-conformance/application/util/rule"

	"github.com/indigo-web/utils/strcomp"
)

const (
	MethodGet     = "GET"
	MethodHead    = "HEAD"
	MethodPost    = "POST"
	MethodPut     = "PUT"
	MethodDelete  = "DELETE"
	MethodConnect = "CONNECT"
	MethodOptions = "OPTIONS"
	MethodTrace   = "TRACE"
)

// [Major, Minor]
type Version [2]uint

var (
	Version10 = Version{1, 0}
	Version11 = Version{1, 1}
)

// ParseVersion parses HTTP-version = "HTTP/" DIGIT "." DIGIT.
//
// Reference: https://datatracker.ietf.org/doc/html/rfc7230#section-2.6
func ParseVersion(s string) (Version, *rfc.Violation) {
	const prefix = "HTTP/"

	if len(s) != len("HTTP/1.1") {
		return Version{}, rfc.Newf(rfc.RFC7230Sec2_6, s, 0,
			"HTTP-version must be exactly 8 characters, got %d", len(s))
	}
	for idx := 0; idx < len(prefix); idx++ {
		if s[idx] != prefix[idx] {
			return Version{}, rfc.Newf(rfc.RFC7230Sec2_6, s, idx,
				"HTTP-version must start with %q (case-sensitive)", prefix)
		}
	}

	major, dot, minor := s[5], s[6], s[7]
	switch {
	case !rule.IsDigit(major):
		return Version{}, rfc.Newf(rfc.RFC7230Sec2_6, s, 5, "major version %q is not a DIGIT", major)
	case dot != '.':
		return Version{}, rfc.Newf(rfc.RFC7230Sec2_6, s, 6, "expected '.' between versions, got %q", dot)
	case !rule.IsDigit(minor):
		return Version{}, rfc.Newf(rfc.RFC7230Sec2_6, s, 7, "minor version %q is not a DIGIT", minor)
	}

	return Version{uint(major - '0'), uint(minor - '0')}, nil
}

func (ver Version) Text() []byte {
	b := make([]byte, 0, 8)
	b = append(b, "HTTP/"...)
	b = strconv.AppendUint(b, uint64(ver[0]), 10)
	b = append(b, '.')
	b = strconv.AppendUint(b, uint64(ver[1]), 10)
	return b
}

func (ver Version) String() string { return string(ver.Text()) }

type Field struct{ Name, Value string }

func (f Field) Text() []byte {
	b := make([]byte, 0, len(f.Name)+len(f.Value)+2)
	b = append(b, f.Name...)
	b = append(b, ':', rule.SP)
	b = append(b, f.Value...)
	return b
}

// Headers keeps fields in arrival order, duplicates included.
// Name lookups are case-insensitive.
//
// Reference: https://datatracker.ietf.org/doc/html/rfc7230#section-3.2
type Headers []Field

// Get returns the first value of name.
func (h Headers) Get(name string) (value string, ok bool) {
	for _, f := range h {
		if strcomp.EqualFold(f.Name, name) {
			return f.Value, true
		}
	}
	return "", false
}

// Values returns every value of name in arrival order.
func (h Headers) Values(name string) []string {
	var values []string
	for _, f := range h {
		if strcomp.EqualFold(f.Name, name) {
			values = append(values, f.Value)
		}
	}
	return values
}

func (h Headers) Contains(name string) bool {
	_, ok := h.Get(name)
	return ok
}

func (h *Headers) Add(name, value string) {
	*h = append(*h, Field{Name: name, Value: value})
}

// Set replaces every field of name with a single one, keeping the position
// of the first.
func (h *Headers) Set(name, value string) {
	replaced := false
	out := (*h)[:0]
	for _, f := range *h {
		if !strcomp.EqualFold(f.Name, name) {
			out = append(out, f)
			continue
		}
		if !replaced {
			out = append(out, Field{Name: f.Name, Value: value})
			replaced = true
		}
	}
	if !replaced {
		out = append(out, Field{Name: name, Value: value})
	}
	*h = out
}

type Request struct {
	Method  string
	Target  string
	Version Version
	Headers Headers
	Body    []byte
}

// Response is one parsed response. The reason-phrase is read but not kept.
type Response struct {
	Version    Version
	StatusCode uint
	Headers    Headers

	// Body is nil when the response carries no body,
	// and empty when it carries a zero-length one.
	Body []byte
}

func (r *Response) HasBody() bool { return r.Body != nil }
