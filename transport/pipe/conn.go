// Package pipe provides in-memory connections and a network of scripted
// listeners, so exchanges can run without sockets.
package pipe

import (
	"bytes"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"http-conformance/transport"

	"github.com/benbjohnson/clock"
)

type Addr struct {
	Name string
}

func (a Addr) Network() string { return "pipe" }
func (a Addr) String() string  { return a.Name }

var _ transport.Addr = Addr{}

// Conn is one end of an asynchronous pipe. Writes land in the peer's bounded
// inbox and block while it is full.
//
// See:
// - https://github.com/golang/go/issues/24205
// - https://github.com/golang/go/issues/34502
type Conn struct {
	addr Addr

	inbox *bytes.Buffer // guarded by readable.L

	readable, writable sync.Cond
	writeMu            sync.Mutex // serializes writers

	stateMu     sync.Mutex
	closed      bool
	writeClosed bool

	readDeadline, writeDeadline *deadline

	nread, nwritten atomic.Int64

	peer *Conn
}

var (
	_ transport.Conn         = (*Conn)(nil)
	_ transport.BufferedConn = (*Conn)(nil)
)

// New creates a connected pair. Each end buffers up to bufSize unread bytes,
// so bufSize MUST be more than 0.
func New(name1, name2 string, clock clock.Clock, bufSize uint) (c1, c2 *Conn) {
	if bufSize == 0 {
		panic("buffer size cannot be 0")
	}

	c1, c2 = newConn(name1, clock, bufSize), newConn(name2, clock, bufSize)
	c1.peer, c2.peer = c2, c1
	return c1, c2
}

func newConn(name string, clock clock.Clock, bufSize uint) *Conn {
	c := &Conn{
		addr:          Addr{Name: name},
		inbox:         bytes.NewBuffer(make([]byte, 0, bufSize)),
		readDeadline:  &deadline{clock: clock},
		writeDeadline: &deadline{clock: clock},
	}
	c.readable.L, c.writable.L = &sync.Mutex{}, &sync.Mutex{}
	return c
}

func (c *Conn) ReadBufSize() uint          { return uint(c.inbox.Cap()) }
func (c *Conn) WriteBufSize() uint         { return uint(c.peer.inbox.Cap()) }
func (c *Conn) LocalAddr() transport.Addr  { return c.addr }
func (c *Conn) RemoteAddr() transport.Addr { return c.peer.addr }

// BytesRead and BytesWritten count payload moved through this end.
func (c *Conn) BytesRead() int64    { return c.nread.Load() }
func (c *Conn) BytesWritten() int64 { return c.nwritten.Load() }

func (c *Conn) Close() error {
	c.stateMu.Lock()
	c.closed, c.writeClosed = true, true
	c.stateMu.Unlock()

	c.wakeAll()
	return nil
}

// CloseWrite stops sending; the peer reads io.EOF after draining its inbox.
// Reading from this end keeps working.
func (c *Conn) CloseWrite() error {
	c.stateMu.Lock()
	c.writeClosed = true
	c.stateMu.Unlock()

	c.wakeAll()
	return nil
}

func (c *Conn) wakeAll() {
	for _, conn := range [2]*Conn{c, c.peer} {
		for _, cond := range [2]*sync.Cond{&conn.readable, &conn.writable} {
			cond.L.Lock()
			cond.Broadcast()
			cond.L.Unlock()
		}
	}
}

func (c *Conn) isClosed() bool {
	c.stateMu.Lock()
	defer c.stateMu.Unlock()
	return c.closed
}

func (c *Conn) isWriteClosed() bool {
	c.stateMu.Lock()
	defer c.stateMu.Unlock()
	return c.writeClosed
}

func (c *Conn) Read(b []byte) (n int, err error) {
	c.readable.L.Lock()
	for {
		if c.readDeadline.exceeded() {
			c.readable.L.Unlock()
			return 0, transport.ErrDeadLineExceeded
		}
		if c.isClosed() {
			c.readable.L.Unlock()
			return 0, transport.ErrConnClosed
		}
		if c.inbox.Len() > 0 {
			break
		}
		if c.peer.isWriteClosed() {
			c.readable.L.Unlock()
			return 0, io.EOF
		}
		c.readable.Wait()
	}

	n, err = c.inbox.Read(b)
	c.readable.L.Unlock()
	c.nread.Add(int64(n))

	// A writer may be waiting for room in our inbox.
	c.peer.writable.L.Lock()
	c.peer.writable.Signal()
	c.peer.writable.L.Unlock()

	return n, err
}

// Write blocks until all of b is in the peer's inbox.
func (c *Conn) Write(b []byte) (n int, err error) {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	c.writable.L.Lock()
	defer c.writable.L.Unlock()

	for first := true; first || len(b) > 0; first = false {
		if c.writeDeadline.exceeded() {
			return n, transport.ErrDeadLineExceeded
		}
		if c.isWriteClosed() || c.peer.isClosed() {
			return n, transport.ErrConnClosed
		}

		c.peer.readable.L.Lock()
		room := c.peer.inbox.Cap() - c.peer.inbox.Len()
		if chunk := min(len(b), room); chunk > 0 {
			c.peer.inbox.Write(b[:chunk])
			c.peer.readable.Signal()
			c.peer.readable.L.Unlock()

			b = b[chunk:]
			n += chunk
			c.nwritten.Add(int64(chunk))
			continue
		}
		c.peer.readable.L.Unlock()

		c.writable.Wait()
	}

	return n, nil
}

func (c *Conn) SetReadDeadLine(t time.Time) {
	c.readDeadline.set(t, func() {
		c.readable.L.Lock()
		c.readable.Broadcast()
		c.readable.L.Unlock()
	})
}

func (c *Conn) SetWriteDeadLine(t time.Time) {
	c.writeDeadline.set(t, func() {
		c.writable.L.Lock()
		c.writable.Broadcast()
		c.writable.L.Unlock()
	})
}

type deadline struct {
	clock clock.Clock
	mu    sync.Mutex

	timer *clock.Timer
	t     time.Time
}

func (d *deadline) set(t time.Time, onExceed func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}

	d.t = t

	if !t.IsZero() {
		d.timer = d.clock.AfterFunc(d.clock.Until(t), onExceed)
	}
}

func (d *deadline) exceeded() bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.t.IsZero() {
		return false
	}

	return d.clock.Until(d.t) <= 0
}
