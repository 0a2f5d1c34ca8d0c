package transfer

import (
	"strings"
	"testing"
	"testing/iotest"

	"http-conformance/application/http/failure"
	"http-conformance/application/util/rfc"
	iolib "http-conformance/lib/io"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

const testMaxSize = 1 << 20

type ChunkedDecoderTestSuite struct {
	suite.Suite
}

func TestChunkedDecoderTestSuite(t *testing.T) {
	suite.Run(t, new(ChunkedDecoderTestSuite))
}

func newDecoder(input string) *ChunkedDecoder {
	return NewChunkedDecoder(iolib.NewLineReader(strings.NewReader(input), 0), testMaxSize, false)
}

func (s *ChunkedDecoderTestSuite) TestDecode() {
	testcases := []struct {
		desc     string
		input    string
		expected string
	}{
		{
			desc:     "single chunk",
			input:    "5\r\nhello\r\n0\r\n\r\n",
			expected: "hello",
		},
		{
			desc: "multiple chunks",
			input: "" +
				"5\r\nABCDE\r\n" +
				"a\r\nFGHIJKLMNO\r\n" +
				"0\r\n\r\n",
			expected: "ABCDEFGHIJKLMNO",
		},
		{
			desc:     "uppercase hex",
			input:    "A\r\n0123456789\r\n0\r\n\r\n",
			expected: "0123456789",
		},
		{
			desc:     "leading zeros",
			input:    "0003\r\nabc\r\n000\r\n\r\n",
			expected: "abc",
		},
		{
			desc:     "chunk data containing CRLF",
			input:    "4\r\n\r\n\r\n\r\n0\r\n\r\n",
			expected: "\r\n\r\n",
		},
		{
			desc:     "empty body",
			input:    "0\r\n\r\n",
			expected: "",
		},
	}

	for _, tc := range testcases {
		s.Run(tc.desc, func() {
			body, err := newDecoder(tc.input).Decode()
			s.Require().NoError(err)
			s.Equal(tc.expected, string(body))
		})
	}
}

func (s *ChunkedDecoderTestSuite) TestDecodeStopsAtLastChunk() {
	lr := iolib.NewLineReader(strings.NewReader("5\r\nhello\r\n0\r\n\r\nNEXT"), 0)
	body, err := NewChunkedDecoder(lr, testMaxSize, false).Decode()
	s.Require().NoError(err)
	s.Equal("hello", string(body))

	rest := make([]byte, 4)
	_, err = lr.ReadFull(rest)
	s.Require().NoError(err)
	s.Equal("NEXT", string(rest))
}

func (s *ChunkedDecoderTestSuite) TestDecodeShortReads() {
	input := "3\r\nabc\r\n4\r\ndefg\r\n0\r\n\r\n"
	lr := iolib.NewLineReader(iotest.OneByteReader(strings.NewReader(input)), 0)

	body, err := NewChunkedDecoder(lr, testMaxSize, false).Decode()
	s.Require().NoError(err)
	s.Equal("abcdefg", string(body))
}

func (s *ChunkedDecoderTestSuite) TestDecodeViolation() {
	testcases := []struct {
		desc     string
		input    string
		section  rfc.Section
		position int
	}{
		{
			desc:     "non hex chunk size",
			input:    "5g\r\nhello\r\n0\r\n\r\n",
			section:  rfc.RFC7230Sec4_1,
			position: 1,
		},
		{
			desc:     "empty chunk size",
			input:    "\r\nhello\r\n",
			section:  rfc.RFC7230Sec4_1,
			position: 0,
		},
		{
			desc:     "whitespace in chunk size",
			input:    "5 \r\nhello\r\n0\r\n\r\n",
			section:  rfc.RFC7230Sec4_1,
			position: 1,
		},
		{
			desc:     "chunk data longer than size",
			input:    "3\r\nhello\r\n0\r\n\r\n",
			section:  rfc.RFC7230Sec4_1,
			position: rfc.NoPosition,
		},
		{
			desc:     "sole LF",
			input:    "5\nhello\r\n0\r\n\r\n",
			section:  rfc.RFC7230Sec3_5,
			position: 1,
		},
	}

	for _, tc := range testcases {
		s.Run(tc.desc, func() {
			_, err := newDecoder(tc.input).Decode()
			s.Require().Error(err)

			var v *rfc.Violation
			s.Require().True(errors.As(err, &v), "error: %v", err)
			s.Equal(tc.section, v.Section)
			s.Equal(tc.position, v.Position)
		})
	}
}

func (s *ChunkedDecoderTestSuite) TestDecodeSoleLFAllowed() {
	lr := iolib.NewLineReader(strings.NewReader("5\nhello\r\n0\n\r\n"), 0)
	body, err := NewChunkedDecoder(lr, testMaxSize, true).Decode()
	s.Require().NoError(err)
	s.Equal("hello", string(body))
}

func (s *ChunkedDecoderTestSuite) TestDecodeFailureClass() {
	testcases := []struct {
		desc     string
		input    string
		maxSize  int
		expected failure.Class
	}{
		{
			desc:     "stream ends inside chunk data",
			input:    "5\r\nhel",
			expected: failure.ConnectionLost,
		},
		{
			desc:     "stream ends before last chunk",
			input:    "5\r\nhello\r\n",
			expected: failure.ConnectionLost,
		},
		{
			desc:     "stream ends inside chunk size line",
			input:    "5",
			expected: failure.ConnectionLost,
		},
		{
			desc:     "stream ends after last chunk line",
			input:    "5\r\nhello\r\n0\r\n",
			expected: failure.ConnectionLost,
		},
		{
			desc:     "chunk extension",
			input:    "5;name=value\r\nhello\r\n0\r\n\r\n",
			expected: failure.Unsupported,
		},
		{
			desc:     "trailer fields",
			input:    "5\r\nhello\r\n0\r\nExpires: never\r\n\r\n",
			expected: failure.Unsupported,
		},
		{
			desc:     "chunk larger than limit",
			input:    "11\r\n" + strings.Repeat("a", 17) + "\r\n0\r\n\r\n",
			maxSize:  16,
			expected: failure.OutOfMemory,
		},
		{
			desc:     "sum of chunks larger than limit",
			input:    "8\r\naaaaaaaa\r\n9\r\naaaaaaaaa\r\n0\r\n\r\n",
			maxSize:  16,
			expected: failure.OutOfMemory,
		},
		{
			desc:     "overflowing chunk size",
			input:    "FFFFFFFFFFFFFFFFFFFF\r\n",
			expected: failure.OutOfMemory,
		},
	}

	for _, tc := range testcases {
		s.Run(tc.desc, func() {
			maxSize := tc.maxSize
			if maxSize == 0 {
				maxSize = testMaxSize
			}

			lr := iolib.NewLineReader(strings.NewReader(tc.input), 0)
			_, err := NewChunkedDecoder(lr, maxSize, false).Decode()
			s.Require().Error(err)
			s.Equal(tc.expected, failure.Classify(err), "error: %v", err)
		})
	}
}

func TestRequireChunked(t *testing.T) {
	assert.NoError(t, RequireChunked("chunked"))
	assert.NoError(t, RequireChunked("Chunked "))
	assert.ErrorIs(t, RequireChunked("gzip, chunked"), failure.ErrUnsupported)
	assert.ErrorIs(t, RequireChunked("gzip"), failure.ErrUnsupported)

	var v *rfc.Violation
	require.True(t, errors.As(RequireChunked(" , "), &v))
	assert.Equal(t, rfc.RFC7230Sec3_3_1, v.Section)
}

func TestParseCodings(t *testing.T) {
	assert.Equal(t, []Coding{"gzip", CodingChunked}, ParseCodings("GZIP ,\tchunked"))
	assert.Empty(t, ParseCodings(""))
}
