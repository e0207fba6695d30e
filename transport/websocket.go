package transport

import (
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

// errNotBinary is returned when a WebSocket text message arrives where
// a binary MQTT frame was expected.
var errNotBinary = errors.New("transport: received non-binary websocket message")

var closeMessage = websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")

// websocketSocket adapts a *websocket.Conn to Socket, framing each
// MQTT byte stream chunk as one binary WebSocket message on write and
// reassembling possibly-chunked messages on read, following
// breezymind/gomqtt's webSocketStream.
type websocketSocket struct {
	conn   *websocket.Conn
	reader io.Reader
}

// NewWebSocketDialer returns a Dialer that connects to an MQTT-over-WebSocket
// endpoint at the given URL (e.g. "wss://broker.example.com/mqtt"), the
// transport some constrained gateways expose when a raw TCP/TLS socket
// is not reachable (spec.md section 4.4's socket capability is transport
// agnostic by design).
func NewWebSocketDialer(url string, requestHeader http.Header) Dialer {
	return &websocketDialer{url: url, header: requestHeader}
}

type websocketDialer struct {
	url    string
	header http.Header
}

func (d *websocketDialer) Dial(_ string, _ int, tlsConfig *tls.Config) (Socket, error) {
	dialer := websocket.Dialer{
		Subprotocols:    []string{"mqtt"},
		TLSClientConfig: tlsConfig,
	}
	conn, _, err := dialer.Dial(d.url, d.header)
	if err != nil {
		return nil, fmt.Errorf("transport: websocket dial %s: %w", d.url, err)
	}
	return &websocketSocket{conn: conn}, nil
}

func (s *websocketSocket) Send(p []byte) (int, error) {
	w, err := s.conn.NextWriter(websocket.BinaryMessage)
	if err != nil {
		return 0, fmt.Errorf("transport: websocket write: %w", err)
	}
	n, err := w.Write(p)
	if err != nil {
		return n, fmt.Errorf("transport: websocket write: %w", err)
	}
	if err := w.Close(); err != nil {
		return n, fmt.Errorf("transport: websocket write: %w", err)
	}
	return n, nil
}

func (s *websocketSocket) RecvInto(buf []byte) (int, error) {
	total := 0
	for total < len(buf) {
		if s.reader == nil {
			messageType, reader, err := s.conn.NextReader()
			var closeErr *websocket.CloseError
			if errors.As(err, &closeErr) {
				return total, io.EOF
			}
			if err != nil {
				return total, fmt.Errorf("transport: websocket read: %w", err)
			}
			if messageType != websocket.BinaryMessage {
				return total, errNotBinary
			}
			s.reader = reader
		}

		n, err := s.reader.Read(buf[total:])
		total += n
		if err == io.EOF {
			s.reader = nil
			if total > 0 {
				return total, nil
			}
			continue
		}
		if err != nil {
			return total, fmt.Errorf("transport: websocket read: %w", err)
		}
		return total, nil
	}
	return total, nil
}

func (s *websocketSocket) Close() error {
	_ = s.conn.WriteMessage(websocket.CloseMessage, closeMessage)
	return s.conn.Close()
}

// SetTimeout sets only the read deadline; Send on this adapter is not
// bounded by it.
func (s *websocketSocket) SetTimeout(d time.Duration) error {
	if d <= 0 {
		return s.conn.SetReadDeadline(time.Time{})
	}
	return s.conn.SetReadDeadline(time.Now().Add(d))
}
