package client

import (
	"net"
	"strconv"
)

// Broker is a single cluster node the worker holds a socket to. Identity is
// (host, port); the socket may be absent after a failed connect.
type Broker struct {
	Host string
	Port int32

	conn net.Conn
}

// Addr returns the host:port form of the broker address
func (b *Broker) Addr() string {
	return net.JoinHostPort(b.Host, strconv.Itoa(int(b.Port)))
}

// Connected reports whether the broker has a live socket
func (b *Broker) Connected() bool {
	return b.conn != nil
}

func (b *Broker) is(host string, port int32) bool {
	return b.Host == host && b.Port == port
}
