package pipe

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"http-conformance/transport"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
)

var ErrSecureUnsupported = errors.New("pipe network does not support TLS targets")

const DefaultBufSize = 4 << 10

type dialRequest struct {
	conn     *Conn
	accepted chan struct{}
}

// Network routes dials to listeners registered under a target address.
type Network struct {
	listeners map[string]*Listener
	clock     clock.Clock
	bufSize   uint
	dials     atomic.Uint64

	mu sync.Mutex
}

func NewNetwork(clock clock.Clock, bufSize uint) *Network {
	return &Network{
		listeners: make(map[string]*Listener),
		clock:     clock,
		bufSize:   bufSize,
	}
}

var _ transport.ConnDialer = (*Network)(nil)

// Dial connects to the listener of target and blocks until it accepts.
func (n *Network) Dial(ctx context.Context, target transport.Target) (transport.Conn, error) {
	if target.Secure {
		return nil, errors.Wrap(ErrSecureUnsupported, target.String())
	}

	address := target.Address()

	n.mu.Lock()
	listener, ok := n.listeners[address]
	n.mu.Unlock()

	if !ok {
		return nil, errors.Wrap(transport.ErrConnRefused, address)
	}

	name := fmt.Sprintf("dialer-%d", n.dials.Add(1))
	local, remote := New(name, address, n.clock, n.bufSize)

	req := dialRequest{
		conn:     remote,
		accepted: make(chan struct{}, 1),
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-listener.closed:
		return nil, errors.Wrap(transport.ErrConnRefused, address)
	case listener.requests <- req:
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case _, accepted := <-req.accepted:
		if !accepted {
			return nil, errors.Wrap(transport.ErrConnRefused, address)
		}
	}

	return local, nil
}

func (n *Network) Listen(address string) (*Listener, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if _, ok := n.listeners[address]; ok {
		return nil, errors.Wrap(transport.ErrAddrAlreadyInUse, address)
	}

	l := &Listener{
		address:  address,
		network:  n,
		requests: make(chan dialRequest),
		closed:   make(chan struct{}),
	}
	n.listeners[address] = l

	return l, nil
}

type Listener struct {
	address string
	network *Network

	requests chan dialRequest
	closed   chan struct{}

	mu sync.Mutex
}

var _ transport.ConnListener = (*Listener)(nil)

func (l *Listener) Accept(ctx context.Context) (transport.Conn, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-l.closed:
		return nil, transport.ErrConnListenerClosed
	case req := <-l.requests:
		req.accepted <- struct{}{}
		return req.conn, nil
	}
}

func (l *Listener) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	select {
	case <-l.closed:
		return transport.ErrConnListenerClosed
	default:
	}

	close(l.closed)

	l.network.mu.Lock()
	delete(l.network.listeners, l.address)
	l.network.mu.Unlock()

	return nil
}

// Handler scripts the server side of one connection.
// The connection is closed after it returns.
type Handler func(conn *Conn)

// Server accepts connections of a listener and runs a handler for each.
type Server struct {
	listener *Listener
	handler  Handler
	logger   *slog.Logger

	conns map[*Conn]struct{}
	mu    sync.Mutex
	wg    sync.WaitGroup

	cancel context.CancelFunc
}

// Serve starts accepting on address until the returned server is closed.
func (n *Network) Serve(address string, handler Handler, logger *slog.Logger) (*Server, error) {
	l, err := n.Listen(address)
	if err != nil {
		return nil, errors.Wrap(err, "listening")
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		listener: l,
		handler:  handler,
		logger:   logger,
		conns:    make(map[*Conn]struct{}),
		cancel:   cancel,
	}

	s.wg.Add(1)
	go s.acceptLoop(ctx)

	return s, nil
}

func (s *Server) acceptLoop(ctx context.Context) {
	defer s.wg.Done()

	for {
		conn, err := s.listener.Accept(ctx)
		if err != nil {
			s.logger.Debug("stop accepting", slog.String("address", s.listener.address), slog.Any("reason", err))
			return
		}

		c := conn.(*Conn)
		s.mu.Lock()
		if ctx.Err() != nil {
			s.mu.Unlock()
			c.Close()
			return
		}
		s.conns[c] = struct{}{}
		s.mu.Unlock()

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			defer func() {
				s.mu.Lock()
				delete(s.conns, c)
				s.mu.Unlock()
				c.Close()
			}()

			s.logger.Debug("serving connection", slog.String("remote", c.RemoteAddr().String()))
			s.handler(c)
		}()
	}
}

// Close stops accepting, closes live connections and waits for handlers.
func (s *Server) Close() error {
	s.cancel()
	err := s.listener.Close()

	s.mu.Lock()
	for c := range s.conns {
		c.Close()
	}
	s.mu.Unlock()

	s.wg.Wait()

	if errors.Is(err, transport.ErrConnListenerClosed) {
		return nil
	}
	return err
}
