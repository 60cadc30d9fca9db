// Package network moves size-prefixed frames over broker sockets. It knows
// nothing about the payloads; request/response pairing is the caller's
// concern.
package network

import (
	"encoding/binary"
	"fmt"
	"io"
	"net"
	"strconv"
	"time"

	"github.com/issac1998/kafka-client/internal/errors"
)

// MaxFrameSize bounds a single response frame
const MaxFrameSize = 64 << 20

// Client performs framed exchanges over TCP
type Client struct{}

// NewClient creates a TCP network client
func NewClient() *Client {
	return &Client{}
}

// Dial opens a socket to a broker
func (c *Client) Dial(host string, port int32, timeout time.Duration) (net.Conn, error) {
	addr := net.JoinHostPort(host, strconv.Itoa(int(port)))
	conn, err := net.DialTimeout("tcp", addr, timeout)
	if err != nil {
		return nil, &errors.TypedError{
			Type:    errors.ConnectionError,
			Message: fmt.Sprintf("failed to connect to broker %s", addr),
			Cause:   err,
		}
	}
	return conn, nil
}

// SendSync writes a request frame and blocks for the response frame,
// bounded by the timeout.
func (c *Client) SendSync(conn net.Conn, request []byte, timeout time.Duration) ([]byte, error) {
	if err := conn.SetDeadline(time.Now().Add(timeout)); err != nil {
		return nil, err
	}
	defer conn.SetDeadline(time.Time{})

	if err := writeFrame(conn, request); err != nil {
		return nil, &errors.TypedError{
			Type:    errors.ConnectionError,
			Message: "failed to send request",
			Cause:   err,
		}
	}

	response, err := readFrame(conn)
	if err != nil {
		if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
			return nil, &errors.TypedError{
				Type:    errors.TimeoutError,
				Message: "request timed out",
				Cause:   err,
			}
		}
		return nil, &errors.TypedError{
			Type:    errors.ConnectionError,
			Message: "failed to read response",
			Cause:   err,
		}
	}

	return response, nil
}

// SendAsync writes a request frame without waiting for a reply
func (c *Client) SendAsync(conn net.Conn, request []byte) error {
	if err := writeFrame(conn, request); err != nil {
		return &errors.TypedError{
			Type:    errors.ConnectionError,
			Message: "failed to send request",
			Cause:   err,
		}
	}
	return nil
}

// Close closes a broker socket
func (c *Client) Close(conn net.Conn) {
	if conn != nil {
		conn.Close()
	}
}

func writeFrame(conn net.Conn, payload []byte) error {
	if err := binary.Write(conn, binary.BigEndian, int32(len(payload))); err != nil {
		return fmt.Errorf("failed to write frame length: %v", err)
	}
	if _, err := conn.Write(payload); err != nil {
		return fmt.Errorf("failed to write frame payload: %v", err)
	}
	return nil
}

func readFrame(conn net.Conn) ([]byte, error) {
	var length int32
	if err := binary.Read(conn, binary.BigEndian, &length); err != nil {
		return nil, err
	}
	if length < 0 || length > MaxFrameSize {
		return nil, fmt.Errorf("invalid frame length: %d", length)
	}

	payload := make([]byte, length)
	if _, err := io.ReadFull(conn, payload); err != nil {
		return nil, err
	}
	return payload, nil
}
