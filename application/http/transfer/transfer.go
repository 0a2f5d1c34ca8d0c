// Package transfer decodes transfer-coded message bodies.
//
// Only a single "chunked" coding is supported. Coding chains, chunk
// extensions and trailer fields are reported as [failure.ErrUnsupported].
//
// Reference: https://datatracker.ietf.org/doc/html/rfc7230#section-4
package transfer

import (
	"strings"

	"http-conformance/application/http/failure"
	"http-conformance/application/util/rfc"
	"http-conformance/application/util/rule"

	"github.com/pkg/errors"
)

type Coding string

const (
	CodingChunked Coding = "chunked"
)

// ParseCodings splits a Transfer-Encoding field value into codings.
// Coding names are case-insensitive, so they are lowercased.
//
// Reference: https://datatracker.ietf.org/doc/html/rfc7230#section-3.3.1
func ParseCodings(value string) []Coding {
	codings := make([]Coding, 0, 1)
	for _, part := range strings.Split(value, ",") {
		part = strings.Trim(part, string(rule.OWS))
		if part == "" {
			continue
		}
		codings = append(codings, Coding(strings.ToLower(part)))
	}
	return codings
}

// RequireChunked accepts exactly one "chunked" coding.
func RequireChunked(value string) error {
	codings := ParseCodings(value)
	switch {
	case len(codings) == 1 && codings[0] == CodingChunked:
		return nil
	case len(codings) == 0:
		return rfc.New(rfc.RFC7230Sec3_3_1, value, rfc.NoPosition, "Transfer-Encoding has no coding")
	case len(codings) > 1:
		return errors.Wrapf(failure.ErrUnsupported, "transfer coding chain %q", value)
	}
	return errors.Wrapf(failure.ErrUnsupported, "transfer coding %q", codings[0])
}
