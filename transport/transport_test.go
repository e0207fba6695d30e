package transport

import (
	"net"
	"testing"
	"time"
)

func TestNetSocketSendRecv(t *testing.T) {
	server, client := net.Pipe()
	defer server.Close()
	defer client.Close()

	clientSocket := &netSocket{conn: client}

	go func() {
		buf := make([]byte, 5)
		server.Read(buf)
		server.Write(buf)
	}()

	if _, err := clientSocket.Send([]byte("hello")); err != nil {
		t.Fatalf("Send: %v", err)
	}

	if err := clientSocket.SetTimeout(time.Second); err != nil {
		t.Fatalf("SetTimeout: %v", err)
	}
	buf := make([]byte, 5)
	n, err := clientSocket.RecvInto(buf)
	if err != nil {
		t.Fatalf("RecvInto: %v", err)
	}
	if string(buf[:n]) != "hello" {
		t.Fatalf("got %q, want %q", buf[:n], "hello")
	}
}

func TestNetSocketRecvTimeout(t *testing.T) {
	server, client := net.Pipe()
	defer server.Close()
	defer client.Close()

	clientSocket := &netSocket{conn: client}
	if err := clientSocket.SetTimeout(50 * time.Millisecond); err != nil {
		t.Fatalf("SetTimeout: %v", err)
	}

	buf := make([]byte, 5)
	_, err := clientSocket.RecvInto(buf)
	if err == nil {
		t.Fatal("expected timeout error, got nil")
	}
}
