package transfer

import (
	"bytes"
	"io"

	"http-conformance/application/http/failure"
	"http-conformance/application/util/rfc"
	"http-conformance/application/util/rule"
	iolib "http-conformance/lib/io"

	"github.com/indigo-web/utils/arena"
	"github.com/pkg/errors"
)

// LineSource is what the decoder reads from. [*iolib.LineReader] satisfies it.
type LineSource interface {
	ReadLine() ([]byte, error)
	ReadFull(p []byte) (int, error)
}

var _ LineSource = (*iolib.LineReader)(nil)

const (
	initialBodySize = 4 << 10
	readChunkSize   = 32 << 10
)

// ChunkedDecoder reassembles a chunked body into one contiguous buffer.
// The buffer grows as chunks arrive since the total length is unknown.
type ChunkedDecoder struct {
	src LineSource

	body    *arena.Arena[byte]
	maxSize int
	scratch []byte

	allowSoleLF bool
}

// NewChunkedDecoder creates a decoder whose body may grow up to maxSize bytes.
func NewChunkedDecoder(src LineSource, maxSize int, allowSoleLF bool) *ChunkedDecoder {
	return &ChunkedDecoder{
		src:         src,
		body:        arena.NewArena[byte](min(initialBodySize, maxSize), maxSize),
		maxSize:     maxSize,
		allowSoleLF: allowSoleLF,
	}
}

// Decode reads chunks until the last chunk and returns the body.
//
// Reference: https://datatracker.ietf.org/doc/html/rfc7230#section-4.1
func (cd *ChunkedDecoder) Decode() ([]byte, error) {
	defer cd.body.Clear()

	for {
		size, err := cd.decodeChunkSize()
		if err != nil {
			return nil, errors.Wrap(err, "decoding chunk size")
		}

		if size == 0 {
			if err := cd.decodeLastChunkEnd(); err != nil {
				return nil, err
			}
			break
		}

		if err := cd.appendChunkData(size); err != nil {
			return nil, errors.Wrap(err, "reading chunk data")
		}
	}

	// Arena memory is reused after Clear, so hand out a copy.
	return bytes.Clone(cd.body.Finish()), nil
}

// Len returns the number of body bytes decoded so far.
func (cd *ChunkedDecoder) Len() int { return cd.body.SegmentLength() }

// chunk-size = 1*HEXDIG
func (cd *ChunkedDecoder) decodeChunkSize() (uint64, error) {
	line, err := cd.readLine()
	if err != nil {
		return 0, err
	}

	if idx := bytes.IndexByte(line, ';'); idx >= 0 {
		return 0, errors.Wrapf(failure.ErrUnsupported, "chunk extension %q", line[idx:])
	}

	if len(line) == 0 {
		return 0, rfc.New(rfc.RFC7230Sec4_1, "", 0, "chunk-size is empty")
	}

	budget := uint64(cd.maxSize - cd.Len())

	var size uint64
	for idx, c := range line {
		v, ok := rule.HexValue(c)
		if !ok {
			return 0, rfc.Newf(rfc.RFC7230Sec4_1, string(line), idx,
				"chunk-size contains non-HEXDIG character %q", c)
		}

		size = size<<4 | uint64(v)
		if size > budget {
			return 0, errors.Wrapf(failure.ErrOutOfMemory,
				"chunk-size %q exceeds remaining body limit(%d)", line, budget)
		}
	}

	return size, nil
}

func (cd *ChunkedDecoder) appendChunkData(size uint64) error {
	if cd.scratch == nil {
		cd.scratch = make([]byte, readChunkSize)
	}

	for remain := size; remain > 0; {
		p := cd.scratch[:min(remain, uint64(len(cd.scratch)))]

		n, err := cd.src.ReadFull(p)
		if !cd.body.Append(p[:n]...) {
			return errors.Wrapf(failure.ErrOutOfMemory, "body exceeds limit(%d)", cd.maxSize)
		}
		if err != nil {
			return failure.ConnectionLostf(err, "%d bytes of chunk data missing", remain-uint64(n))
		}

		remain -= uint64(n)
	}

	crlf, err := cd.readDelimiter()
	if err != nil {
		return err
	}
	if !bytes.Equal(crlf, rule.CRLF) {
		return rfc.Newf(rfc.RFC7230Sec4_1, string(crlf), rfc.NoPosition,
			"chunk-data of size %d is not followed by CRLF", size)
	}

	return nil
}

// decodeLastChunkEnd consumes CRLF ending the chunked body.
// Anything else means trailer fields, which are not parsed.
func (cd *ChunkedDecoder) decodeLastChunkEnd() error {
	crlf, err := cd.readDelimiter()
	if err != nil {
		return errors.Wrap(err, "reading end of chunked body")
	}

	if !bytes.Equal(crlf, rule.CRLF) {
		return errors.Wrapf(failure.ErrUnsupported,
			"trailer fields after last chunk (%s): %q", rfc.RFC7230Sec4_1_2, crlf)
	}

	return nil
}

func (cd *ChunkedDecoder) readDelimiter() ([]byte, error) {
	b := make([]byte, len(rule.CRLF))
	if _, err := cd.src.ReadFull(b); err != nil {
		return nil, failure.ConnectionLostf(err, "reading CRLF")
	}
	return b, nil
}

// readLine reads a line and cuts its terminator.
func (cd *ChunkedDecoder) readLine() ([]byte, error) {
	line, err := cd.src.ReadLine()
	if err != nil {
		if errors.Is(err, iolib.ErrLineTooLong) {
			return nil, errors.Wrap(failure.ErrOutOfMemory, err.Error())
		}
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return nil, failure.ConnectionLostf(err, "reading chunk line")
	}

	line = line[:len(line)-1] // Remove LF.
	if n := len(line); n > 0 && line[n-1] == rule.CR {
		return line[:n-1], nil
	}

	if !cd.allowSoleLF {
		return nil, rfc.New(rfc.RFC7230Sec3_5, string(line), len(line), "missing CR before LF")
	}
	return line, nil
}
