package http

import (
	"bufio"
	"bytes"
	"io"
	"strconv"

	"http-conformance/application/util/rule"

	"github.com/pkg/errors"
	"golang.org/x/net/http/httpguts"
)

type EncodeOptions struct {
	// UseSoleLF specifies wheter a single LF character should be used as a line terminator.
	//
	// Reference: https://datatracker.ietf.org/doc/html/rfc7230#section-3.5
	UseSoleLF bool

	// Unchecked skips validation so that deliberately malformed requests
	// can be sent.
	Unchecked bool
}

var DefaultEncodeOptions = EncodeOptions{
	UseSoleLF: false,
	Unchecked: false,
}

var (
	ErrInvalidMethod      = errors.New("method is not a valid token")
	ErrInvalidTarget      = errors.New("request target is empty or contains non-visible characters")
	ErrInvalidFieldName   = errors.New("field name is not a valid token")
	ErrInvalidFieldValue  = errors.New("field value contains invalid characters")
	ErrConflictingBodyLen = errors.New("Content-Length does not match body length")
)

type RequestEncoder struct {
	bw   *bufio.Writer
	opts EncodeOptions
}

func NewRequestEncoder(w io.Writer, opts EncodeOptions) *RequestEncoder {
	return &RequestEncoder{
		bw:   bufio.NewWriter(w),
		opts: opts,
	}
}

// Encode writes request and flushes it.
// A Content-Length field is added when the request has a body and no framing field.
func (re *RequestEncoder) Encode(request Request) error {
	if !re.opts.Unchecked {
		if err := ValidateRequest(request); err != nil {
			return errors.Wrap(err, "validating request")
		}
	}

	headers := request.Headers
	if request.Body != nil && !headers.Contains("Content-Length") && !headers.Contains("Transfer-Encoding") {
		headers = append(headers[:len(headers):len(headers)], Field{
			Name:  "Content-Length",
			Value: strconv.Itoa(len(request.Body)),
		})
	}

	if err := re.encodeRequestLine(request); err != nil {
		return errors.Wrap(err, "encoding request line")
	}

	if err := re.encodeHeaders(headers); err != nil {
		return errors.Wrap(err, "encoding headers")
	}

	if _, err := re.bw.Write(request.Body); err != nil {
		return errors.Wrap(err, "writing request body")
	}

	if err := re.bw.Flush(); err != nil {
		return errors.Wrap(err, "flushing request")
	}

	return nil
}

// ValidateRequest checks the parts of request that a well-formed sender controls.
func ValidateRequest(request Request) error {
	if !rule.IsValidToken(request.Method) {
		return errors.Wrapf(ErrInvalidMethod, "%q", request.Method)
	}

	if request.Target == "" {
		return ErrInvalidTarget
	}
	for idx := 0; idx < len(request.Target); idx++ {
		if !rule.IsVChar(request.Target[idx]) {
			return errors.Wrapf(ErrInvalidTarget, "%q at %d", request.Target[idx], idx)
		}
	}

	for _, field := range request.Headers {
		if !httpguts.ValidHeaderFieldName(field.Name) {
			return errors.Wrapf(ErrInvalidFieldName, "%q", field.Name)
		}
		if !httpguts.ValidHeaderFieldValue(field.Value) {
			return errors.Wrapf(ErrInvalidFieldValue, "%q: %q", field.Name, field.Value)
		}
	}

	if cl, ok := request.Headers.Get("Content-Length"); ok && cl != strconv.Itoa(len(request.Body)) {
		return errors.Wrapf(ErrConflictingBodyLen, "%s != %d", cl, len(request.Body))
	}

	return nil
}

func (re *RequestEncoder) writeLine(line []byte) error {
	if _, err := re.bw.Write(line); err != nil {
		return errors.Wrap(err, "writing line")
	}

	term := rule.CRLF
	if re.opts.UseSoleLF {
		term = term[1:]
	}

	if _, err := re.bw.Write(term); err != nil {
		return errors.Wrap(err, "writing line terminator")
	}

	return nil
}

func (re *RequestEncoder) encodeRequestLine(request Request) error {
	buf := bytes.NewBuffer(nil)

	buf.WriteString(request.Method)
	buf.WriteByte(rule.SP)
	buf.WriteString(request.Target)
	buf.WriteByte(rule.SP)
	buf.Write(request.Version.Text())

	if err := re.writeLine(buf.Bytes()); err != nil {
		return errors.Wrap(err, "writing line")
	}

	return nil
}

func (re *RequestEncoder) encodeHeaders(headers Headers) error {
	for _, field := range headers {
		if err := re.writeLine(field.Text()); err != nil {
			return errors.Wrap(err, "writing field")
		}
	}

	// Write a empty line as all the headers are written.
	if err := re.writeLine(nil); err != nil {
		return errors.Wrap(err, "writing line terminator")
	}

	return nil
}
