package client

import (
	"net"
	"time"

	"github.com/issac1998/kafka-client/internal/network"
)

// NetworkClient performs the socket work for a worker: connect, synchronous
// request/reply, fire-and-forget send, close. The default implementation is
// the framed TCP client in internal/network; tests substitute fakes.
type NetworkClient interface {
	Dial(host string, port int32, timeout time.Duration) (net.Conn, error)
	SendSync(conn net.Conn, request []byte, timeout time.Duration) ([]byte, error)
	SendAsync(conn net.Conn, request []byte) error
	Close(conn net.Conn)
}

// DefaultNetworkClient returns the TCP NetworkClient
func DefaultNetworkClient() NetworkClient {
	return network.NewClient()
}
