// Package tcp dials targets over the host's TCP stack, wrapping the stream
// in TLS for secure targets.
package tcp

import (
	"context"
	"crypto/tls"
	"io"
	"log/slog"
	"net"
	"os"
	"syscall"
	"time"

	"http-conformance/transport"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
)

type DialOptions struct {
	// Timeout bounds connecting and the TLS handshake together.
	// Zero means only the context bounds them.
	Timeout time.Duration

	KeepAlive time.Duration

	// InsecureSkipVerify accepts any certificate the server presents.
	InsecureSkipVerify bool
}

var DefaultDialOptions = DialOptions{
	Timeout:            10 * time.Second,
	KeepAlive:          30 * time.Second,
	InsecureSkipVerify: false,
}

type Dialer struct {
	opts   DialOptions
	clock  clock.Clock
	logger *slog.Logger
}

var _ transport.ConnDialer = (*Dialer)(nil)

func NewDialer(clock clock.Clock, logger *slog.Logger, opts DialOptions) *Dialer {
	return &Dialer{opts: opts, clock: clock, logger: logger}
}

func (d *Dialer) Dial(ctx context.Context, target transport.Target) (transport.Conn, error) {
	if d.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = d.clock.WithTimeout(ctx, d.opts.Timeout)
		defer cancel()
	}

	nd := net.Dialer{KeepAlive: d.opts.KeepAlive}
	nc, err := nd.DialContext(ctx, "tcp", target.Address())
	if err != nil {
		return nil, errors.Wrapf(mapError(err), "dialing %s", target.Address())
	}

	if target.Secure {
		tc := tls.Client(nc, &tls.Config{
			ServerName:         target.Host,
			InsecureSkipVerify: d.opts.InsecureSkipVerify,
			NextProtos:         []string{"http/1.1"},
			MinVersion:         tls.VersionTLS12,
		})
		if err := tc.HandshakeContext(ctx); err != nil {
			nc.Close()
			return nil, errors.Wrapf(mapError(err), "TLS handshake with %s", target.Address())
		}

		state := tc.ConnectionState()
		d.logger.Debug("TLS established",
			slog.String("target", target.String()),
			slog.String("version", tls.VersionName(state.Version)),
			slog.String("cipher", tls.CipherSuiteName(state.CipherSuite)),
		)
		nc = tc
	}

	d.logger.Debug("connected",
		slog.String("target", target.String()),
		slog.String("local", nc.LocalAddr().String()),
	)

	return &conn{nc: nc}, nil
}

// mapError translates stack errors onto the transport sentinels,
// keeping the original in the chain.
func mapError(err error) error {
	var sentinel error
	switch {
	case err == nil:
		return nil
	case errors.Is(err, io.EOF):
		return err
	case errors.Is(err, os.ErrDeadlineExceeded), errors.Is(err, context.DeadlineExceeded):
		sentinel = transport.ErrDeadLineExceeded
	case errors.Is(err, net.ErrClosed):
		sentinel = transport.ErrConnClosed
	case errors.Is(err, syscall.ECONNREFUSED):
		sentinel = transport.ErrConnRefused
	default:
		return err
	}
	return &mappedError{sentinel: sentinel, cause: err}
}

type mappedError struct{ sentinel, cause error }

func (e *mappedError) Error() string   { return e.sentinel.Error() + ": " + e.cause.Error() }
func (e *mappedError) Unwrap() []error { return []error{e.sentinel, e.cause} }

type conn struct {
	nc net.Conn
}

var _ transport.Conn = (*conn)(nil)

func (c *conn) Read(p []byte) (int, error) {
	n, err := c.nc.Read(p)
	return n, mapError(err)
}

func (c *conn) Write(p []byte) (int, error) {
	n, err := c.nc.Write(p)
	return n, mapError(err)
}

func (c *conn) Close() error { return mapError(c.nc.Close()) }

func (c *conn) LocalAddr() transport.Addr  { return c.nc.LocalAddr() }
func (c *conn) RemoteAddr() transport.Addr { return c.nc.RemoteAddr() }

// net.Conn only fails to set deadlines once closed, which the next
// Read or Write reports anyway.
func (c *conn) SetReadDeadLine(t time.Time)  { _ = c.nc.SetReadDeadline(t) }
func (c *conn) SetWriteDeadLine(t time.Time) { _ = c.nc.SetWriteDeadline(t) }
