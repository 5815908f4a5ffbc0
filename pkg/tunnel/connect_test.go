package tunnel

import (
	"context"
	"errors"
	"net"
	"strconv"
	"strings"
	"testing"
	"time"

	"candor-hq/skyhook/internal/proxytest"
	"candor-hq/skyhook/pkg/proxystore"
)

// settingsFor splits a test proxy address into proxy settings of the given
// kind.
func settingsFor(t *testing.T, addr string, kind proxystore.Kind) proxystore.Settings {
	t.Helper()

	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		t.Fatalf("bad proxy address %q: %v", addr, err)
	}
	port, err := strconv.ParseUint(portStr, 10, 16)
	if err != nil {
		t.Fatalf("bad proxy port %q: %v", portStr, err)
	}
	return proxystore.Settings{Host: host, Port: uint16(port), Kind: kind}
}

// TestEstablish_ConnectGranted tests a full CONNECT handshake against a
// granting proxy.
func TestEstablish_ConnectGranted(t *testing.T) {
	proxy := &proxytest.ConnectProxy{}
	addr := proxy.Start(t)

	counter := &proxytest.ConnCounter{}
	est := NewEstablisher(Config{StepTimeout: 2 * time.Second, Dial: counter.Dial})

	conn, err := est.Establish(context.Background(), settingsFor(t, addr, proxystore.KindHTTPConnect), "api.example.com", 443)
	if err != nil {
		t.Fatalf("Establish() failed: %v", err)
	}
	conn.Close()

	requests := proxy.Requests()
	if len(requests) != 1 {
		t.Fatalf("proxy saw %d requests, want 1", len(requests))
	}
	want := "CONNECT api.example.com:443 HTTP/1.1"
	if requests[0] != want {
		t.Errorf("request line = %q, want %q", requests[0], want)
	}
	if counter.Leaked() != 0 {
		t.Errorf("%d connections leaked", counter.Leaked())
	}
}

// TestEstablish_ConnectRejected tests that a refusing proxy yields a
// RejectedError and no leaked socket.
func TestEstablish_ConnectRejected(t *testing.T) {
	proxy := &proxytest.ConnectProxy{
		Response: "HTTP/1.1 407 Proxy Authentication Required\r\n\r\n",
	}
	addr := proxy.Start(t)

	counter := &proxytest.ConnCounter{}
	est := NewEstablisher(Config{StepTimeout: 2 * time.Second, Dial: counter.Dial})

	_, err := est.Establish(context.Background(), settingsFor(t, addr, proxystore.KindHTTPConnect), "api.example.com", 443)
	var rejected *RejectedError
	if !errors.As(err, &rejected) {
		t.Fatalf("Establish() error = %v, want *RejectedError", err)
	}
	if !strings.Contains(rejected.Line, "407") {
		t.Errorf("rejected line = %q, want the 407 status line", rejected.Line)
	}
	if counter.Leaked() != 0 {
		t.Errorf("%d connections leaked after rejection", counter.Leaked())
	}
}

// TestEstablish_ConnectUnreachable tests the error for a dead proxy address.
func TestEstablish_ConnectUnreachable(t *testing.T) {
	// Reserve a port and close it so nothing listens there.
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to listen: %v", err)
	}
	addr := listener.Addr().String()
	listener.Close()

	counter := &proxytest.ConnCounter{}
	est := NewEstablisher(Config{StepTimeout: time.Second, Dial: counter.Dial})

	_, err = est.Establish(context.Background(), settingsFor(t, addr, proxystore.KindHTTPConnect), "api.example.com", 443)
	var connectErr *ConnectError
	if !errors.As(err, &connectErr) {
		t.Fatalf("Establish() error = %v, want *ConnectError", err)
	}
	if counter.Opened() != 0 {
		t.Errorf("counter opened %d connections, want 0", counter.Opened())
	}
}

// TestEstablish_Canceled tests that a canceled context aborts before dialing.
func TestEstablish_Canceled(t *testing.T) {
	proxy := &proxytest.ConnectProxy{}
	addr := proxy.Start(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	est := NewEstablisher(Config{StepTimeout: time.Second})
	_, err := est.Establish(ctx, settingsFor(t, addr, proxystore.KindHTTPConnect), "api.example.com", 443)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Establish() error = %v, want context.Canceled", err)
	}
}

// TestStatusLineAccepts tests status-line parsing against lookalike lines.
func TestStatusLineAccepts(t *testing.T) {
	tests := []struct {
		line string
		want bool
	}{
		{"HTTP/1.1 200 Connection Established", true},
		{"HTTP/1.0 200 OK", true},
		{"HTTP/1.1 200", true},
		{"HTTP/1.1 407 Proxy Authentication Required", false},
		{"HTTP/1.1 403 Forbidden", false},
		{"HTTP/1.1 2000 Bogus", false},
		{"HTTP/1.1 404 Not 200 Found", false},
		{"SIP/2.0 200 OK", false},
		{"HTTP/1.1", false},
		{"", false},
		{"garbage", false},
	}

	for _, tt := range tests {
		if got := statusLineAccepts(tt.line); got != tt.want {
			t.Errorf("statusLineAccepts(%q) = %v, want %v", tt.line, got, tt.want)
		}
	}
}

// TestEstablish_ConnectTimeout tests that a silent proxy trips the step
// timeout instead of hanging.
func TestEstablish_ConnectTimeout(t *testing.T) {
	// A raw listener that accepts and never responds.
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to listen: %v", err)
	}
	t.Cleanup(func() { listener.Close() })
	go func() {
		for {
			conn, err := listener.Accept()
			if err != nil {
				return
			}
			defer conn.Close()
		}
	}()

	counter := &proxytest.ConnCounter{}
	est := NewEstablisher(Config{StepTimeout: 100 * time.Millisecond, Dial: counter.Dial})

	start := time.Now()
	_, err = est.Establish(context.Background(), settingsFor(t, listener.Addr().String(), proxystore.KindHTTPConnect), "api.example.com", 443)
	if err == nil {
		t.Fatal("Establish() against a silent proxy succeeded, want timeout")
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("Establish() took %v, step timeout did not engage", elapsed)
	}
	if counter.Leaked() != 0 {
		t.Errorf("%d connections leaked after timeout", counter.Leaked())
	}
}
