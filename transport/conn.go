package transport

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

var (
	ErrConnClosed         = errors.New("connection is closed")
	ErrConnListenerClosed = errors.New("conn listener is closed")
	ErrConnRefused        = errors.New("connection refused")
	ErrAddrAlreadyInUse   = errors.New("address already in use")
	ErrDeadLineExceeded   = errors.New("deadline exceeded")
)

// Conn is a full-duplex byte stream.
// Read returns io.EOF once the peer has closed and everything sent was read.
type Conn interface {
	Read(p []byte) (n int, err error)
	Write(p []byte) (n int, err error)
	Close() error

	LocalAddr() Addr
	RemoteAddr() Addr

	SetReadDeadLine(t time.Time)
	SetWriteDeadLine(t time.Time)
}

type BufferedConn interface {
	Conn
	ReadBufSize() uint
	WriteBufSize() uint
}

type ConnListener interface {
	Accept(ctx context.Context) (Conn, error)
	Close() error
}

type ConnDialer interface {
	Dial(ctx context.Context, target Target) (Conn, error)
}
