// Package transport provides the byte-stream socket capability the
// miniq core consumes: acquiring a plain or TLS-wrapped connection,
// applying a per-call read timeout, and reporting transport errors
// distinctly from protocol errors, per spec.md section 4.4.
package transport

import (
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"time"
)

// Socket is the minimal byte-stream capability the core depends on:
// send, bounded receive, close, and a configurable per-call read
// timeout. It mirrors the send/recv_into/close/settimeout capability
// spec.md section 6 describes, and is satisfied by both a plain
// net.Conn and a WebSocket-backed connection (see websocket.go).
type Socket interface {
	// Send writes p and returns the number of bytes written, which may
	// be fewer than len(p); the caller retries the remainder.
	Send(p []byte) (int, error)
	// RecvInto reads into buf and returns the number of bytes read.
	// It returns a timeout error if no data arrives within the
	// duration set by the most recent SetTimeout call.
	RecvInto(buf []byte) (int, error)
	Close() error
	// SetTimeout bounds the duration of the next blocking Send/RecvInto
	// call. A zero duration disables the timeout.
	SetTimeout(d time.Duration) error
}

// ErrSocketUnavailable is returned by a Dialer when socket acquisition
// fails for a reason that should not be counted against the connect
// back-off schedule (spec.md section 4.4 and section 4.5), such as a
// socket pool being momentarily exhausted. Ordinary network failures
// (DNS, connection refused, TLS handshake failure) are not wrapped in
// this error and do count against back-off.
var ErrSocketUnavailable = errors.New("transport: socket temporarily unavailable")

// Dialer acquires a Socket for (host, port). Implementations may pool
// connections or hand out sockets from a fixed-size arena, matching the
// "socket_pool" constructor option spec.md section 6 names.
type Dialer interface {
	Dial(host string, port int, tlsConfig *tls.Config) (Socket, error)
}

// NetDialer is the default Dialer, backed by net.Dial / tls.Dial.
type NetDialer struct {
	// Timeout bounds the TCP connect (and TLS handshake, if requested).
	// Zero means no timeout.
	Timeout time.Duration
}

// Dial acquires a net.Conn to host:port, wrapping it in TLS first if
// tlsConfig is non-nil, per spec.md section 4.4 and section 6.
func (d NetDialer) Dial(host string, port int, tlsConfig *tls.Config) (Socket, error) {
	addr := fmt.Sprintf("%s:%d", host, port)
	netDialer := &net.Dialer{Timeout: d.Timeout}

	if tlsConfig != nil {
		conn, err := tls.DialWithDialer(netDialer, "tcp", addr, tlsConfig)
		if err != nil {
			return nil, fmt.Errorf("transport: tls dial %s: %w", addr, err)
		}
		return &netSocket{conn: conn}, nil
	}

	conn, err := netDialer.Dial("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("transport: dial %s: %w", addr, err)
	}
	return &netSocket{conn: conn}, nil
}

// netSocket adapts a net.Conn (including *tls.Conn) to Socket.
type netSocket struct {
	conn net.Conn
}

func (s *netSocket) Send(p []byte) (int, error) {
	n, err := s.conn.Write(p)
	if err != nil {
		return n, fmt.Errorf("transport: write: %w", err)
	}
	return n, nil
}

func (s *netSocket) RecvInto(buf []byte) (int, error) {
	n, err := s.conn.Read(buf)
	if err != nil {
		return n, fmt.Errorf("transport: read: %w", err)
	}
	return n, nil
}

func (s *netSocket) Close() error {
	return s.conn.Close()
}

func (s *netSocket) SetTimeout(d time.Duration) error {
	if d <= 0 {
		return s.conn.SetDeadline(time.Time{})
	}
	return s.conn.SetDeadline(time.Now().Add(d))
}
