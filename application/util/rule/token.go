package rule

// Reference: https://datatracker.ietf.org/doc/html/rfc7230#section-3.2.6
func IsTokenChar(c byte) bool {
	if IsAlpha(c) || IsDigit(c) {
		return true
	}

	switch c {
	case '!', '#', '$', '%', '&', '\'', '*', '+',
		'-', '.', '^', '_', '`', '|', '~':
		return true
	}

	return false
}

// InvalidTokenIndex returns the index of the first byte of s that is not a
// tchar. Empty s returns 0, as a token needs at least one character.
// It returns -1 when s is a valid token.
func InvalidTokenIndex(s string) int {
	if len(s) == 0 {
		return 0
	}
	for idx := 0; idx < len(s); idx++ {
		if !IsTokenChar(s[idx]) {
			return idx
		}
	}
	return -1
}

func IsValidToken(s string) bool { return InvalidTokenIndex(s) < 0 }
