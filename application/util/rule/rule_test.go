package rule

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCharacterClasses(t *testing.T) {
	assert.True(t, IsAlpha('a'))
	assert.True(t, IsAlpha('Z'))
	assert.False(t, IsAlpha('0'))

	assert.True(t, IsDigit('9'))
	assert.False(t, IsDigit('a'))

	for _, c := range []byte("0123456789abcdefABCDEF") {
		assert.True(t, IsHexDigit(c), "%q", c)
	}
	assert.False(t, IsHexDigit('g'))
	assert.False(t, IsHexDigit('G'))

	assert.True(t, IsVChar('!'))
	assert.True(t, IsVChar('~'))
	assert.False(t, IsVChar(SP))
	assert.False(t, IsVChar(DEL))

	assert.True(t, IsObsText(0x80))
	assert.True(t, IsObsText(0xFF))
	assert.False(t, IsObsText(0x7F))

	assert.True(t, IsOWS(SP))
	assert.True(t, IsOWS(HTAB))
	assert.False(t, IsOWS(CR))

	assert.True(t, IsFieldVChar(0x90))
	assert.False(t, IsFieldVChar(HTAB))
}

func TestHexValue(t *testing.T) {
	testcases := []struct {
		input    byte
		expected byte
		ok       bool
	}{
		{input: '0', expected: 0, ok: true},
		{input: '9', expected: 9, ok: true},
		{input: 'a', expected: 10, ok: true},
		{input: 'F', expected: 15, ok: true},
		{input: 'g', ok: false},
	}
	for _, tc := range testcases {
		v, ok := HexValue(tc.input)
		assert.Equal(t, tc.ok, ok)
		assert.Equal(t, tc.expected, v)
	}
}
