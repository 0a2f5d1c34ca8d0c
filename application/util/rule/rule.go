// Package rule holds the core ABNF character classes shared by the URI and
// HTTP grammars.
//
// Reference:
//
// - https://datatracker.ietf.org/doc/html/rfc5234#appendix-B.1
//
// - https://datatracker.ietf.org/doc/html/rfc7230#section-3.2.6
package rule

func IsAlpha(c byte) bool { return ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z') }
func IsDigit(c byte) bool { return '0' <= c && c <= '9' }

func IsHexDigit(c byte) bool {
	return IsDigit(c) || ('a' <= c && c <= 'f') || ('A' <= c && c <= 'F')
}

// IsVChar reports whether c is a visible (printing) US-ASCII character.
func IsVChar(c byte) bool { return 0x21 <= c && c <= 0x7E }

// Reference: https://datatracker.ietf.org/doc/html/rfc7230#section-3.2.6
func IsObsText(c byte) bool { return c >= 0x80 }

func IsOWS(c byte) bool { return c == SP || c == HTAB }

// IsFieldVChar reports whether c may appear inside a field-value,
// whitespace excluded.
func IsFieldVChar(c byte) bool { return IsVChar(c) || IsObsText(c) }

// HexValue converts a HEXDIG into its numeric value.
func HexValue(c byte) (byte, bool) {
	switch {
	case IsDigit(c):
		return c - '0', true
	case 'a' <= c && c <= 'f':
		return c - 'a' + 10, true
	case 'A' <= c && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}
