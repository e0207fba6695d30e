package miniq

import (
	"bytes"
	"crypto/tls"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/coreiot/miniq/internal/wire"
	"github.com/coreiot/miniq/transport"
)

// pipeSocket adapts one end of a net.Pipe to transport.Socket, the same
// adaptation transport.netSocket performs for a real net.Conn.
type pipeSocket struct {
	conn net.Conn
}

func (s *pipeSocket) Send(p []byte) (int, error)       { return s.conn.Write(p) }
func (s *pipeSocket) RecvInto(buf []byte) (int, error) { return s.conn.Read(buf) }
func (s *pipeSocket) Close() error                      { return s.conn.Close() }
func (s *pipeSocket) SetTimeout(d time.Duration) error {
	if d <= 0 {
		return s.conn.SetDeadline(time.Time{})
	}
	return s.conn.SetDeadline(time.Now().Add(d))
}

// fakeDialer hands out one pre-wired Socket, or lastErr if it is set.
type fakeDialer struct {
	sock    transport.Socket
	lastErr error
}

func (d *fakeDialer) Dial(host string, port int, tlsConfig *tls.Config) (transport.Socket, error) {
	if d.lastErr != nil {
		return nil, d.lastErr
	}
	return d.sock, nil
}

// newPipeClient builds a Client wired to one end of a net.Pipe, with the
// server end returned for the test to drive directly, mirroring the
// keepalive_test.go fake-connection pattern.
func newPipeClient(t *testing.T, opts ...ClientOption) (*Client, net.Conn) {
	t.Helper()
	serverConn, clientConn := net.Pipe()
	t.Cleanup(func() {
		serverConn.Close()
		clientConn.Close()
	})

	dialer := &fakeDialer{sock: &pipeSocket{conn: clientConn}}
	base := []ClientOption{
		WithClientID("test-client"),
		WithDialer(dialer),
		WithSocketTimeout(20 * time.Millisecond),
		WithRecvTimeout(200 * time.Millisecond),
	}
	c, err := New("test-broker", append(base, opts...)...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c, serverConn
}

func readFull(t *testing.T, conn net.Conn, n int) []byte {
	t.Helper()
	buf := make([]byte, n)
	conn.SetReadDeadline(time.Now().Add(time.Second))
	total := 0
	for total < n {
		k, err := conn.Read(buf[total:])
		if err != nil {
			t.Fatalf("server read: %v", err)
		}
		total += k
	}
	return buf
}

func writeAll(t *testing.T, conn net.Conn, p []byte) {
	t.Helper()
	conn.SetWriteDeadline(time.Now().Add(time.Second))
	if _, err := conn.Write(p); err != nil {
		t.Fatalf("server write: %v", err)
	}
}

// TestConnectPublishDisconnectBytes exercises CONNECT/CONNACK, a QoS-0
// PUBLISH, and a clean DISCONNECT, asserting the exact wire bytes the
// client emits, per the scenario in SPEC_FULL.md section 9.
func TestConnectPublishDisconnectBytes(t *testing.T) {
	c, server := newPipeClient(t)

	done := make(chan struct{})
	go func() {
		defer close(done)
		// CONNECT variable header + payload for client id "test-client",
		// clean session, keep_alive default (60s), no will/credentials.
		wantPrefixLen := len("MQTT") + 2 + 1 + 1 + 2 + len("test-client") + 2
		header := readFull(t, server, 2)
		if header[0] != 0x10 {
			t.Errorf("connect header byte = 0x%02X, want 0x10", header[0])
		}
		remaining := int(header[1])
		body := readFull(t, server, remaining)
		if len(body) != wantPrefixLen {
			t.Errorf("connect body len = %d, want %d", len(body), wantPrefixLen)
		}
		writeAll(t, server, []byte{0x20, 0x02, 0x00, 0x00}) // CONNACK, accepted

		pub := readFull(t, server, 2)
		if pub[0] != 0x30 {
			t.Fatalf("publish header byte = 0x%02X, want 0x30", pub[0])
		}
		body = readFull(t, server, int(pub[1]))
		want := []byte{0x00, 0x03, 'a', '/', 'b', 'h', 'i'}
		if !bytes.Equal(body, want) {
			t.Errorf("publish body = %x, want %x", body, want)
		}

		disc := readFull(t, server, 2)
		if disc[0] != 0xE0 || disc[1] != 0x00 {
			t.Errorf("disconnect bytes = %x, want e0 00", disc)
		}
	}()

	if _, err := c.Connect(true); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if err := c.Publish("a/b", []byte("hi"), false, 0); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if err := c.Disconnect(); err != nil {
		t.Fatalf("Disconnect: %v", err)
	}
	<-done
}

// TestSubscribeShortTopic checks the exact SUBSCRIBE bytes for a short
// topic filter and that the matching SUBACK is consumed. The longer
// filter's two-byte remaining length is covered by
// internal/wire's TestSubscribeLongTopic.
func TestSubscribeShortTopic(t *testing.T) {
	c, server := newPipeClient(t)

	done := make(chan struct{})
	go func() {
		defer close(done)
		readFull(t, server, 1)
		remaining := readRemaining(t, server)
		readFull(t, server, remaining)
		writeAll(t, server, []byte{0x20, 0x02, 0x00, 0x00})

		subHeader := readFull(t, server, 2)
		if subHeader[0] != 0x82 {
			t.Fatalf("subscribe header byte = 0x%02X, want 0x82", subHeader[0])
		}
		body := readFull(t, server, int(subHeader[1]))
		want := []byte{0x00, 0x01, 0x00, 0x07, 'f', 'o', 'o', '/', 'b', 'a', 'r', 0x00}
		if !bytes.Equal(body, want) {
			t.Errorf("subscribe body = %x, want %x", body, want)
		}
		writeAll(t, server, []byte{0x90, 0x03, 0x00, 0x01, 0x00})
	}()

	if _, err := c.Connect(true); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if err := c.Subscribe(Subscription{Topic: "foo/bar", QoS: 0}); err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	<-done
}

func readRemaining(t *testing.T, conn net.Conn) int {
	t.Helper()
	buf := readFull(t, conn, 1)
	remaining := int(buf[0] & 0x7F)
	for buf[0]&0x80 != 0 {
		buf = readFull(t, conn, 1)
		remaining = remaining<<7 | int(buf[0]&0x7F)
	}
	return remaining
}

// TestPublishQoS1WaitsForPubAck verifies a QoS-1 publish blocks until
// the PUBACK carrying its packet id arrives.
func TestPublishQoS1WaitsForPubAck(t *testing.T) {
	c, server := newPipeClient(t)

	done := make(chan struct{})
	go func() {
		defer close(done)
		readFull(t, server, 1)
		n := readRemaining(t, server)
		readFull(t, server, n)
		writeAll(t, server, []byte{0x20, 0x02, 0x00, 0x00})

		pubHeader := readFull(t, server, 2)
		body := readFull(t, server, int(pubHeader[1]))
		// Topic "x" (len 1) + packet id (2 bytes) + payload "y".
		if len(body) != 2+1+2+1 {
			t.Fatalf("publish body len = %d", len(body))
		}
		packetID := body[3:5]
		puback := append([]byte{0x40, 0x02}, packetID...)
		writeAll(t, server, puback)
	}()

	if _, err := c.Connect(true); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if err := c.Publish("x", []byte("y"), false, 1); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	<-done
}

// TestWildcardRoutingDispatchesToMatchingCallback checks that an
// inbound PUBLISH reaches only the callbacks whose pattern matches.
func TestWildcardRoutingDispatchesToMatchingCallback(t *testing.T) {
	c, server := newPipeClient(t)

	var matchedA, matchedB []string
	c.AddTopicCallback("sensors/+/temperature", func(_ *Client, topic string, _ []byte) {
		matchedA = append(matchedA, topic)
	})
	c.AddTopicCallback("sensors/bedroom/#", func(_ *Client, topic string, _ []byte) {
		matchedB = append(matchedB, topic)
	})

	done := make(chan struct{})
	go func() {
		defer close(done)
		readFull(t, server, 1)
		n := readRemaining(t, server)
		readFull(t, server, n)
		writeAll(t, server, []byte{0x20, 0x02, 0x00, 0x00})

		var pub bytes.Buffer
		wire.Publish{Topic: "sensors/bedroom/temperature", QoS: 0, Payload: []byte("21C")}.WriteTo(&pub)
		writeAll(t, server, pub.Bytes())
	}()

	if _, err := c.Connect(true); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if _, err := c.Loop(500 * time.Millisecond); err != nil {
		t.Fatalf("Loop: %v", err)
	}
	<-done

	if len(matchedA) != 1 || matchedA[0] != "sensors/bedroom/temperature" {
		t.Errorf("matchedA = %v", matchedA)
	}
	if len(matchedB) != 1 || matchedB[0] != "sensors/bedroom/temperature" {
		t.Errorf("matchedB = %v", matchedB)
	}
}

// perAttemptDialer hands out a fresh net.Pipe per Dial call, since a
// closed pipe conn cannot be reused across retry attempts.
type perAttemptDialer struct {
	servers chan net.Conn
}

func (d *perAttemptDialer) Dial(host string, port int, tlsConfig *tls.Config) (transport.Socket, error) {
	server, client := net.Pipe()
	d.servers <- server
	return &pipeSocket{conn: client}, nil
}

// TestConnectBackoffExhaustsIntoRepeatedFailures verifies Connect gives
// up after ConnectRetries protocol-level refusals and reports
// ErrRepeatedConnectFailures.
func TestConnectBackoffExhaustsIntoRepeatedFailures(t *testing.T) {
	dialer := &perAttemptDialer{servers: make(chan net.Conn, 2)}
	c, err := New("test-broker",
		WithClientID("test-client"),
		WithDialer(dialer),
		WithSocketTimeout(5*time.Millisecond),
		WithRecvTimeout(50*time.Millisecond),
		WithConnectRetries(2),
	)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	go func() {
		for i := 0; i < 2; i++ {
			server := <-dialer.servers
			readFull(t, server, 1)
			n := readRemaining(t, server)
			readFull(t, server, n)
			// Server unavailable (0x03): not fatal, retried.
			writeAll(t, server, []byte{0x20, 0x02, 0x00, 0x03})
			server.Close()
		}
	}()

	_, err = c.Connect(true)
	if err == nil {
		t.Fatal("expected Connect to fail after exhausting retries")
	}
	if !errors.Is(err, ErrRepeatedConnectFailures) {
		t.Errorf("Connect error = %v, want wrapping ErrRepeatedConnectFailures", err)
	}
}
