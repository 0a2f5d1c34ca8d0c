package uri

import (
	"strings"

	"http-conformance/application/util/rfc"
	"http-conformance/application/util/rule"
)

func isDigit(c byte) bool { return rule.IsDigit(c) }

// Reference: https://datatracker.ietf.org/doc/html/rfc3986#section-2.2
func isSubDelim(c byte) bool {
	switch c {
	case '!', '$', '&', '\'', '(', ')', '*', '+', ',', ';', '=':
		return true
	}
	return false
}

// Reference: https://datatracker.ietf.org/doc/html/rfc3986#section-2.3
func isUnreserved(c byte) bool {
	if rule.IsAlpha(c) || rule.IsDigit(c) {
		return true
	}
	switch c {
	case '-', '.', '_', '~':
		return true
	}
	return false
}

// checkPercentEncoded checks s[idx:] starts with pct-encoded.
// s[idx] must be '%'.
//
// Reference: https://datatracker.ietf.org/doc/html/rfc3986#section-2.1
func checkPercentEncoded(s string, idx int) *rfc.Violation {
	end := min(idx+3, len(s))
	for i := idx + 1; i < idx+3; i++ {
		if i >= len(s) {
			return rfc.New(rfc.RFC3986Sec2_1, s[idx:end], idx,
				"'%' must be followed by two HEXDIG, input ended")
		}
		if !rule.IsHexDigit(s[i]) {
			return rfc.Newf(rfc.RFC3986Sec2_1, s[idx:end], idx,
				"'%%' must be followed by two HEXDIG, got %q at %d", s[i], i)
		}
	}
	return nil
}

// checkChars validates every byte of s with allowed, accepting pct-encoded as well.
func checkChars(s string, section rfc.Section, what string, allowed func(c byte) bool) *rfc.Violation {
	for idx := 0; idx < len(s); idx++ {
		c := s[idx]
		if allowed(c) {
			continue
		}
		if c == '%' {
			if v := checkPercentEncoded(s, idx); v != nil {
				return v
			}
			idx += 2
			continue
		}

		return rfc.Newf(section, s[idx:idx+1], idx, "invalid character %q in %s", c, what)
	}

	return nil
}

// Reference: https://datatracker.ietf.org/doc/html/rfc3986#section-3.1
func checkScheme(scheme string) *rfc.Violation {
	if !rule.IsAlpha(scheme[0]) {
		return rfc.Newf(rfc.RFC3986Sec3_1, scheme[:1], 0, "scheme must start with ALPHA, got %q", scheme[0])
	}

	for idx := 1; idx < len(scheme); idx++ {
		c := scheme[idx]
		switch {
		case rule.IsAlpha(c) || rule.IsDigit(c):
		case c == '+' || c == '-' || c == '.':
		default:
			return rfc.Newf(rfc.RFC3986Sec3_1, scheme[idx:idx+1], idx, "invalid character %q in scheme", c)
		}
	}

	return nil
}

// userinfo = *( unreserved / pct-encoded / sub-delims / ":" )
//
// Reference: https://datatracker.ietf.org/doc/html/rfc3986#section-3.2.1
func checkUserInfo(s string) *rfc.Violation {
	return checkChars(s, rfc.RFC3986Sec3_2_1, "userinfo", func(c byte) bool {
		return isUnreserved(c) || isSubDelim(c) || c == ':'
	})
}

// reg-name = *( unreserved / pct-encoded / sub-delims )
//
// Reference: https://datatracker.ietf.org/doc/html/rfc3986#section-3.2.2
func checkRegName(s string) *rfc.Violation {
	return checkChars(s, rfc.RFC3986Sec3_2_2, "reg-name", func(c byte) bool {
		return isUnreserved(c) || isSubDelim(c)
	})
}

// path = *( pchar / "/" ), pchar = unreserved / pct-encoded / sub-delims / ":" / "@"
//
// Reference: https://datatracker.ietf.org/doc/html/rfc3986#section-3.3
func checkPath(s string) *rfc.Violation {
	return checkChars(s, rfc.RFC3986Sec3_3, "path", func(c byte) bool {
		return isUnreserved(c) || isSubDelim(c) || c == ':' || c == '@' || c == '/'
	})
}

// IPv4address = dec-octet "." dec-octet "." dec-octet "." dec-octet
//
// Reference: https://datatracker.ietf.org/doc/html/rfc3986#section-3.2.2
func isIPv4(host string) bool {
	octets := strings.Split(host, ".")
	if len(octets) != 4 {
		return false
	}

	for _, octet := range octets {
		if !isDecOctet(octet) {
			return false
		}
	}

	return true
}

// dec-octet = DIGIT / %x31-39 DIGIT / "1" 2DIGIT / "2" %x30-34 DIGIT / "25" %x30-35
func isDecOctet(s string) bool {
	switch len(s) {
	case 1:
		return isDigit(s[0])
	case 2:
		return '1' <= s[0] && s[0] <= '9' && isDigit(s[1])
	case 3:
		switch s[0] {
		case '1':
			return isDigit(s[1]) && isDigit(s[2])
		case '2':
			if '0' <= s[1] && s[1] <= '4' {
				return isDigit(s[2])
			}
			return s[1] == '5' && '0' <= s[2] && s[2] <= '5'
		}
	}
	return false
}
