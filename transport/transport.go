// Package transport defines the byte-stream connections an exchange runs over.
package transport

import (
	"net"
	"strconv"
)

// Addr is satisfied by [net.Addr].
type Addr interface {
	Network() string
	String() string
}

// Target is the endpoint a dialer connects to.
type Target struct {
	Host   string
	Port   uint16
	Secure bool // wrap the stream in TLS
}

// Address returns host:port, bracketing the host when needed.
func (t Target) Address() string {
	return net.JoinHostPort(t.Host, strconv.FormatUint(uint64(t.Port), 10))
}

func (t Target) String() string {
	if t.Secure {
		return "tls://" + t.Address()
	}
	return "tcp://" + t.Address()
}
