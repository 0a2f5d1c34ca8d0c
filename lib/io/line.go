package iolib

import (
	"bufio"
	"io"

	"github.com/pkg/errors"
)

var ErrLineTooLong = errors.New("line length exceeds limit")

// LineReader is the byte/line source a parser consumes: LF-terminated lines,
// exact-length blocks and end-of-stream detection over one stream.
type LineReader struct {
	br    *bufio.Reader
	limit uint // 0 means no limit.
}

var _ io.Reader = (*LineReader)(nil)

// NewLineReader wraps r. limit bounds a single line including its terminator.
func NewLineReader(r io.Reader, limit uint) *LineReader {
	return &LineReader{br: bufio.NewReader(r), limit: limit}
}

// ReadLine reads until LF. The output will include LF.
//
// It returns [io.EOF] if the stream ended before any byte,
// and [io.ErrUnexpectedEOF] with the partial line if it ended before LF.
func (lr *LineReader) ReadLine() ([]byte, error) {
	var line []byte
	for {
		chunk, err := lr.br.ReadSlice('\n')
		line = append(line, chunk...)

		if lr.limit > 0 && uint(len(line)) > lr.limit {
			return nil, ErrLineTooLong
		}

		switch {
		case err == nil:
			return line, nil
		case errors.Is(err, bufio.ErrBufferFull):
			continue
		case errors.Is(err, io.EOF):
			if len(line) == 0 {
				return nil, io.EOF
			}
			return line, io.ErrUnexpectedEOF
		default:
			return line, err
		}
	}
}

// ReadFull fills p, retrying short reads.
// A stream ending before p is full returns [io.ErrUnexpectedEOF]
// (or [io.EOF] if nothing was read).
func (lr *LineReader) ReadFull(p []byte) (int, error) {
	return io.ReadFull(lr.br, p)
}

func (lr *LineReader) Read(p []byte) (int, error) {
	return lr.br.Read(p)
}

// Buffered returns the number of bytes already read from the stream but not consumed.
func (lr *LineReader) Buffered() int { return lr.br.Buffered() }
