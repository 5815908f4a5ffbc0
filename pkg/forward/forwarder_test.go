package forward

import (
	"bytes"
	"context"
	"net"
	"strconv"
	"testing"
	"time"

	"candor-hq/skyhook/internal/proxytest"
	"candor-hq/skyhook/pkg/config"
	"candor-hq/skyhook/pkg/kv"
	"candor-hq/skyhook/pkg/proxystore"
	"candor-hq/skyhook/pkg/secure"
	"candor-hq/skyhook/pkg/transport"
)

// startForwarder wires a forwarder to a fake CONNECT proxy with a TLS echo
// target and returns the forwarder's listen address.
func startForwarder(t *testing.T, ctx context.Context) string {
	t.Helper()

	cert, pool := proxytest.GenerateCert(t, "target.test")
	proxy := &proxytest.ConnectProxy{Cert: &cert}
	proxyAddr := proxy.Start(t)

	host, portStr, err := net.SplitHostPort(proxyAddr)
	if err != nil {
		t.Fatalf("bad proxy address: %v", err)
	}
	port, _ := strconv.ParseUint(portStr, 10, 16)

	store := proxystore.New(kv.NewMemoryStore())
	store.Init(ctx, proxystore.Settings{})
	if err := store.Set(ctx, host, uint16(port), proxystore.KindHTTPConnect); err != nil {
		t.Fatalf("Set() failed: %v", err)
	}

	dialer := transport.NewDialer(store, transport.Options{
		Secure: secure.Config{RootCAs: pool},
	})

	forwarder := New(config.ForwardConfig{
		ListenAddress: "127.0.0.1:0",
		TargetHost:    "target.test",
		TargetPort:    443,
		OpenTimeout:   2 * time.Second,
	}, dialer)

	done := make(chan error, 1)
	go func() { done <- forwarder.ListenAndServe(ctx) }()
	t.Cleanup(func() {
		forwarder.Shutdown()
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Error("forwarder did not shut down")
		}
	})

	// Wait for the listener to bind.
	deadline := time.Now().Add(2 * time.Second)
	for forwarder.Addr() == nil && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	addr := forwarder.Addr()
	if addr == nil {
		t.Fatal("forwarder never bound its listener")
	}
	return addr.String()
}

// TestForwarder_EchoRoundTrip tests a full relay: local TCP in, CONNECT
// tunnel, TLS target, bytes echoed back.
func TestForwarder_EchoRoundTrip(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	addr := startForwarder(t, ctx)

	client, err := net.Dial("tcp", addr)
	if err != nil {
		t.Fatalf("failed to dial forwarder: %v", err)
	}
	defer client.Close()

	payload := []byte("relay me")
	if _, err := client.Write(payload); err != nil {
		t.Fatalf("Write() failed: %v", err)
	}

	client.SetReadDeadline(time.Now().Add(5 * time.Second))
	got := make([]byte, 0, len(payload))
	buf := make([]byte, 64)
	for len(got) < len(payload) {
		n, err := client.Read(buf)
		if err != nil {
			t.Fatalf("Read() failed after %d bytes: %v", len(got), err)
		}
		got = append(got, buf[:n]...)
	}
	if !bytes.Equal(got, payload) {
		t.Errorf("echo = %q, want %q", got, payload)
	}
}

// TestForwarder_ConcurrentSessions tests that simultaneous local
// connections each get an independent relay.
func TestForwarder_ConcurrentSessions(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	addr := startForwarder(t, ctx)

	results := make(chan error, 3)
	for i := 0; i < 3; i++ {
		go func(id int) {
			client, err := net.Dial("tcp", addr)
			if err != nil {
				results <- err
				return
			}
			defer client.Close()

			payload := []byte{byte('a' + id), byte('0' + id)}
			if _, err := client.Write(payload); err != nil {
				results <- err
				return
			}
			client.SetReadDeadline(time.Now().Add(5 * time.Second))
			buf := make([]byte, len(payload))
			if _, err := client.Read(buf); err != nil {
				results <- err
				return
			}
			if !bytes.Equal(buf, payload) {
				results <- &net.AddrError{Err: "echo mismatch", Addr: addr}
				return
			}
			results <- nil
		}(i)
	}

	for i := 0; i < 3; i++ {
		if err := <-results; err != nil {
			t.Errorf("session %d failed: %v", i, err)
		}
	}
}

// TestForwarder_NoTargetHost tests the configuration guard.
func TestForwarder_NoTargetHost(t *testing.T) {
	store := proxystore.New(kv.NewMemoryStore())
	store.Init(context.Background(), proxystore.Settings{})
	dialer := transport.NewDialer(store, transport.Options{})

	forwarder := New(config.ForwardConfig{ListenAddress: "127.0.0.1:0"}, dialer)
	if err := forwarder.ListenAndServe(context.Background()); err == nil {
		t.Error("ListenAndServe() without a target host succeeded, want error")
	}
}

// TestForwarder_ShutdownDrains tests that Shutdown unblocks ListenAndServe.
func TestForwarder_ShutdownDrains(t *testing.T) {
	store := proxystore.New(kv.NewMemoryStore())
	store.Init(context.Background(), proxystore.Settings{})
	dialer := transport.NewDialer(store, transport.Options{})

	forwarder := New(config.ForwardConfig{
		ListenAddress: "127.0.0.1:0",
		TargetHost:    "target.test",
		TargetPort:    443,
	}, dialer)

	done := make(chan error, 1)
	go func() { done <- forwarder.ListenAndServe(context.Background()) }()

	deadline := time.Now().Add(2 * time.Second)
	for forwarder.Addr() == nil && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}

	forwarder.Shutdown()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("ListenAndServe() after Shutdown = %v, want nil", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("ListenAndServe() did not return after Shutdown")
	}
}
