package http

import (
	"bytes"
	"io"
	"strconv"
	"strings"

	"http-conformance/application/http/failure"
	"http-conformance/application/http/transfer"
	"http-conformance/application/util/rfc"
	"http-conformance/application/util/rule"
	iolib "http-conformance/lib/io"

	"github.com/pkg/errors"
)

type DecodeOptions struct {
	// AllowSoleLF specifies wheter a single LF character should be recognized as a valid line terminator.
	//
	// Reference: https://datatracker.ietf.org/doc/html/rfc7230#section-3.5
	AllowSoleLF bool

	// MaxLineLength sets the limit of a status line, field line or chunk line,
	// terminator included. Zero means no limit.
	MaxLineLength uint

	// MaxBodySize sets the limit of a decoded body.
	MaxBodySize uint32
}

var DefaultDecodeOptions = DecodeOptions{
	AllowSoleLF:   false,
	MaxLineLength: 8 << 10,
	MaxBodySize:   64 << 20,
}

// ResponseDecoder parses responses from one stream, one per call to Decode.
//
// Initialization -> StatusLine -> Headers -> Body -> Done, with any state
// able to move to Failed.
type ResponseDecoder struct {
	lr   *iolib.LineReader
	opts DecodeOptions

	state    State
	failedIn State
}

func NewResponseDecoder(r io.Reader, opts DecodeOptions) *ResponseDecoder {
	if opts.MaxBodySize == 0 {
		opts.MaxBodySize = DefaultDecodeOptions.MaxBodySize
	}
	return &ResponseDecoder{
		lr:    iolib.NewLineReader(r, opts.MaxLineLength),
		opts:  opts,
		state: StateInitialization,
	}
}

func (rd *ResponseDecoder) State() State { return rd.state }

// FailedIn returns the state the last failure was detected in.
func (rd *ResponseDecoder) FailedIn() State { return rd.failedIn }

// Decode parses the next response. method is the method of the request the
// response answers; it decides whether a body may follow.
//
// Violations are returned as [*rfc.Violation] carrying the detecting state.
// Other failures wrap the sentinels of package failure.
func (rd *ResponseDecoder) Decode(method string) (res *Response, err error) {
	rd.state = StateInitialization
	res = &Response{}

	defer func() {
		if err == nil {
			return
		}
		var v *rfc.Violation
		if errors.As(err, &v) && v.State == "" {
			v.InState(rd.state)
		}
		rd.failedIn = rd.state
		rd.state = StateFailed
		res = nil
	}()

	rd.state = StateStatusLine
	if err := rd.decodeStatusLine(res); err != nil {
		return nil, errors.Wrap(err, "decoding status line")
	}

	rd.state = StateHeaders
	if err := rd.decodeHeaders(&res.Headers); err != nil {
		return nil, errors.Wrap(err, "decoding headers")
	}

	rd.state = StateBody
	body, err := rd.decodeBody(method, res)
	if err != nil {
		return nil, errors.Wrap(err, "decoding body")
	}
	res.Body = body

	rd.state = StateDone

	return res, nil
}

var errNoLine = errors.New("stream ended before line")

// readLine returns a line without its terminator.
// A stream that ends before any byte of the line returns errNoLine.
func (rd *ResponseDecoder) readLine() ([]byte, error) {
	line, err := rd.lr.ReadLine()
	if err == io.EOF {
		return nil, errNoLine
	}
	if err != nil {
		return nil, rd.lineError(err)
	}

	return rd.trimTerminator(line)
}

func (rd *ResponseDecoder) decodeStatusLine(res *Response) error {
	line, err := rd.lr.ReadLine()
	if err == io.EOF || errors.Is(err, io.ErrUnexpectedEOF) {
		return rfc.New(rfc.RFC7230Sec3_1_2, string(line), rfc.NoPosition, "stream ended before a complete status line")
	}
	if err != nil {
		return rd.lineError(err)
	}

	line, err = rd.trimTerminator(line)
	if err != nil {
		return err
	}

	ver, code, v := parseStatusLine(line)
	if v != nil {
		return v
	}

	res.Version, res.StatusCode = ver, code

	return nil
}

func (rd *ResponseDecoder) lineError(err error) error {
	if errors.Is(err, iolib.ErrLineTooLong) {
		return errors.Wrapf(failure.ErrOutOfMemory, "line length exceeds limit(%d)", rd.opts.MaxLineLength)
	}
	return failure.ConnectionLostf(err, "reading line")
}

func (rd *ResponseDecoder) trimTerminator(line []byte) ([]byte, error) {
	line = line[:len(line)-1] // Remove LF.
	if n := len(line); n > 0 && line[n-1] == rule.CR {
		return line[:n-1], nil
	}

	if !rd.opts.AllowSoleLF {
		return nil, rfc.New(rfc.RFC7230Sec3_5, string(line), len(line), "missing CR before LF")
	}
	return line, nil
}

// parseStatusLine parses status-line = HTTP-version SP status-code SP reason-phrase.
// The reason-phrase is read but neither validated nor kept.
//
// Reference: https://datatracker.ietf.org/doc/html/rfc7230#section-3.1.2
func parseStatusLine(line []byte) (Version, uint, *rfc.Violation) {
	s := string(line)

	first := strings.IndexByte(s, rule.SP)
	if first < 0 {
		return Version{}, 0, rfc.New(rfc.RFC7230Sec3_1_2, s, rfc.NoPosition,
			"status line must have 3 parts separated by SP")
	}
	second := strings.IndexByte(s[first+1:], rule.SP)
	if second < 0 {
		return Version{}, 0, rfc.New(rfc.RFC7230Sec3_1_2, s, rfc.NoPosition,
			"status line must have 3 parts separated by SP")
	}
	second += first + 1

	ver, v := ParseVersion(s[:first])
	if v != nil {
		return Version{}, 0, v
	}

	code, v := parseStatusCode(s[first+1 : second])
	if v != nil {
		return Version{}, 0, v.Shift(first + 1)
	}

	return ver, code, nil
}

// Reference: https://datatracker.ietf.org/doc/html/rfc7231#section-6
func parseStatusCode(s string) (uint, *rfc.Violation) {
	if len(s) != 3 {
		return 0, rfc.Newf(rfc.RFC7231Sec6, s, 0, "status-code must be 3 digits, got %d characters", len(s))
	}
	for idx := 0; idx < len(s); idx++ {
		if !rule.IsDigit(s[idx]) {
			return 0, rfc.Newf(rfc.RFC7231Sec6, s[idx:idx+1], idx, "status-code character %q is not a DIGIT", s[idx])
		}
	}
	if s[0] > '5' {
		return 0, rfc.Newf(rfc.RFC7231Sec6, s[:1], 0, "status-code class %q is above 5xx", s[0])
	}

	code := uint(s[0]-'0')*100 + uint(s[1]-'0')*10 + uint(s[2]-'0')
	return code, nil
}

// decodeHeaders reads field lines until an empty line or the end of stream.
func (rd *ResponseDecoder) decodeHeaders(headers *Headers) error {
	tmpHeaders := make(Headers, 0)
	for {
		fieldLine, err := rd.readLine()
		if err != nil {
			if errors.Is(err, errNoLine) {
				break
			}
			return errors.Wrap(err, "reading field line")
		}

		if len(fieldLine) == 0 {
			// An empty line. This means that there are no more headers.
			break
		}

		field, v := ParseField(fieldLine)
		if v != nil {
			return v
		}

		tmpHeaders = append(tmpHeaders, field)
	}

	*headers = tmpHeaders

	return nil
}

// ParseField parses header-field = field-name ":" OWS field-value OWS.
// Only the last whitespace run of the value is trimmed.
//
// Reference: https://datatracker.ietf.org/doc/html/rfc7230#section-3.2
func ParseField(line []byte) (Field, *rfc.Violation) {
	colon := bytes.IndexByte(line, ':')
	if colon < 0 {
		return Field{}, rfc.New(rfc.RFC7230AppB, string(line), rfc.NoPosition, "field line has no ':'")
	}

	name := string(line[:colon])
	if idx := rule.InvalidTokenIndex(name); idx >= 0 {
		if len(name) == 0 {
			return Field{}, rfc.New(rfc.RFC7230AppB, string(line), 0, "field-name is empty")
		}
		return Field{}, rfc.Newf(rfc.RFC7230AppB, name[idx:idx+1], idx,
			"field-name character %q is not a tchar", name[idx])
	}

	start := colon + 1
	for start < len(line) && rule.IsOWS(line[start]) {
		start++
	}

	end := start
	for idx := start; idx < len(line); idx++ {
		c := line[idx]
		switch {
		case rule.IsFieldVChar(c):
			end = idx + 1
		case rule.IsOWS(c):
		default:
			return Field{}, rfc.Newf(rfc.RFC7230AppB1, string(c), idx,
				"field-value character %q is neither field-vchar nor whitespace", c)
		}
	}

	return Field{Name: name, Value: string(line[start:end])}, nil
}

func isInformational(code uint) bool { return 100 <= code && code <= 199 }

func isSuccessful(code uint) bool { return 200 <= code && code <= 299 }

// hasNoBody reports whether a response cannot have a body regardless of
// its framing headers.
//
// Reference: https://datatracker.ietf.org/doc/html/rfc7230#section-3.3.3
func hasNoBody(method string, code uint) bool {
	return method == MethodHead || isInformational(code) || code == 204 || code == 304
}

// checkFraming applies the rules relating status code, request method and
// framing headers.
func checkFraming(method string, code uint, headers Headers) *rfc.Violation {
	hasCL := headers.Contains("Content-Length")
	hasTE := headers.Contains("Transfer-Encoding")
	hasLength := hasCL || hasTE

	switch {
	case hasLength && isInformational(code):
		return rfc.Newf(rfc.RFC7230Sec3_3_2, strconv.FormatUint(uint64(code), 10), rfc.NoPosition,
			"1xx response must not carry Content-Length or Transfer-Encoding")
	case hasLength && code == 204:
		return rfc.New(rfc.RFC7230Sec3_3_2NoContent, "204", rfc.NoPosition,
			"204 response must not carry Content-Length or Transfer-Encoding")
	case hasCL && code == 304:
		return rfc.New(rfc.RFC7230Sec3_3_3_1, "304", rfc.NoPosition,
			"304 response must not carry Content-Length")
	case method == MethodOptions && !hasLength:
		return rfc.New(rfc.RFC7231Sec4_3_7, method, rfc.NoPosition,
			"response to OPTIONS must carry Content-Length or Transfer-Encoding")
	case method == MethodConnect && hasLength && isSuccessful(code):
		return rfc.New(rfc.RFC7231Sec4_3_6, method, rfc.NoPosition,
			"2xx response to CONNECT must not carry Content-Length or Transfer-Encoding")
	case hasCL && hasTE:
		return rfc.New(rfc.RFC7230Sec3_3_3, "Content-Length", rfc.NoPosition,
			"response must not carry both Content-Length and Transfer-Encoding")
	}

	return nil
}

func (rd *ResponseDecoder) decodeBody(method string, res *Response) ([]byte, error) {
	if v := checkFraming(method, res.StatusCode, res.Headers); v != nil {
		return nil, v
	}

	if hasNoBody(method, res.StatusCode) {
		return nil, nil
	}

	if values := res.Headers.Values("Content-Length"); len(values) > 0 {
		length, err := rd.parseContentLength(values)
		if err != nil {
			return nil, err
		}
		return rd.readFixedBody(length)
	}

	if values := res.Headers.Values("Transfer-Encoding"); len(values) > 0 {
		if err := transfer.RequireChunked(strings.Join(values, ", ")); err != nil {
			return nil, err
		}
		body, err := transfer.NewChunkedDecoder(rd.lr, int(rd.opts.MaxBodySize), rd.opts.AllowSoleLF).Decode()
		if err != nil {
			return nil, err
		}
		if body == nil {
			body = []byte{}
		}
		return body, nil
	}

	return nil, nil
}

// parseContentLength accepts repeated fields only when they agree.
//
// Reference: https://datatracker.ietf.org/doc/html/rfc7230#section-3.3.2
func (rd *ResponseDecoder) parseContentLength(values []string) (uint32, error) {
	for _, value := range values {
		if value == "" {
			return 0, rfc.New(rfc.RFC7230Sec3_3_2, value, 0, "Content-Length is empty")
		}
		for idx := 0; idx < len(value); idx++ {
			if !rule.IsDigit(value[idx]) {
				return 0, rfc.Newf(rfc.RFC7230Sec3_3_2, value[idx:idx+1], idx,
					"Content-Length character %q is not a DIGIT", value[idx])
			}
		}
		if value != values[0] {
			return 0, rfc.Newf(rfc.RFC7230Sec3_3_2, value, rfc.NoPosition,
				"Content-Length %q conflicts with %q", value, values[0])
		}
	}

	length, err := strconv.ParseUint(values[0], 10, 32)
	if err != nil {
		return 0, errors.Wrapf(failure.ErrOutOfMemory, "Content-Length %s does not fit in 32 bits", values[0])
	}
	if uint32(length) > rd.opts.MaxBodySize {
		return 0, errors.Wrapf(failure.ErrOutOfMemory, "Content-Length %d exceeds limit(%d)", length, rd.opts.MaxBodySize)
	}

	return uint32(length), nil
}

func (rd *ResponseDecoder) readFixedBody(length uint32) ([]byte, error) {
	body := make([]byte, length)
	if _, err := rd.lr.ReadFull(body); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return nil, failure.ConnectionLostf(err, "reading %d bytes of body", length)
	}
	return body, nil
}
