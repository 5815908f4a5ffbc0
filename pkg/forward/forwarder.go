package forward

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"candor-hq/skyhook/pkg/config"
	"candor-hq/skyhook/pkg/transport"
)

// relayBufSize is the copy buffer for each relay direction.
const relayBufSize = 32 * 1024

// remotePollTimeout bounds each remote read so the drain loop notices a
// closed session promptly.
const remotePollTimeout = 500 * time.Millisecond

// Forwarder relays local TCP connections through the proxied transport.
type Forwarder struct {
	cfg    config.ForwardConfig
	dialer *transport.Dialer
	logger *slog.Logger

	mu       sync.Mutex
	listener net.Listener
	closed   bool
	sessions sync.WaitGroup
}

// New creates a Forwarder. The dialer supplies proxied connections to
// cfg.TargetHost:cfg.TargetPort.
func New(cfg config.ForwardConfig, dialer *transport.Dialer) *Forwarder {
	return &Forwarder{
		cfg:    cfg,
		dialer: dialer,
		logger: slog.Default().With("component", "forward"),
	}
}

// ListenAndServe accepts connections until ctx is cancelled or Shutdown is
// called, then waits for in-flight sessions to drain.
func (f *Forwarder) ListenAndServe(ctx context.Context) error {
	if f.cfg.TargetHost == "" {
		return fmt.Errorf("forward: no target host configured")
	}

	listener, err := net.Listen("tcp", f.cfg.ListenAddress)
	if err != nil {
		return fmt.Errorf("forward: listen %s: %w", f.cfg.ListenAddress, err)
	}

	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		listener.Close()
		return fmt.Errorf("forward: already shut down")
	}
	f.listener = listener
	f.mu.Unlock()

	f.logger.Info("forwarder listening",
		"listen", f.cfg.ListenAddress,
		"target", net.JoinHostPort(f.cfg.TargetHost, fmt.Sprint(f.cfg.TargetPort)),
	)

	go func() {
		<-ctx.Done()
		f.Shutdown()
	}()

	for {
		local, err := listener.Accept()
		if err != nil {
			f.sessions.Wait()
			if f.isClosed() {
				return nil
			}
			return fmt.Errorf("forward: accept: %w", err)
		}
		f.sessions.Add(1)
		go func() {
			defer f.sessions.Done()
			f.handle(ctx, local)
		}()
	}
}

// Shutdown stops accepting and unblocks ListenAndServe. Safe to call more
// than once.
func (f *Forwarder) Shutdown() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return
	}
	f.closed = true
	if f.listener != nil {
		f.listener.Close()
	}
}

// Addr returns the bound listener address, for tests using port 0.
func (f *Forwarder) Addr() net.Addr {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listener == nil {
		return nil
	}
	return f.listener.Addr()
}

func (f *Forwarder) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

// handle relays one local connection through a dedicated transport handle.
func (f *Forwarder) handle(ctx context.Context, local net.Conn) {
	defer local.Close()

	logger := f.logger.With("client", local.RemoteAddr().String())

	remote, err := f.dialer.Open(ctx, f.cfg.TargetHost, f.cfg.TargetPort, f.cfg.OpenTimeout)
	if err != nil {
		logger.Warn("relay open failed",
			"category", transport.Category(err), "error", err)
		return
	}
	defer remote.Close()

	logger.Debug("relay session started")

	done := make(chan struct{}, 2)

	// local -> remote
	go func() {
		defer func() { done <- struct{}{} }()
		buf := make([]byte, relayBufSize)
		for {
			n, err := local.Read(buf)
			if n > 0 {
				if _, werr := remote.Write(buf[:n]); werr != nil {
					return
				}
			}
			if err != nil {
				return
			}
		}
	}()

	// remote -> local
	go func() {
		defer func() { done <- struct{}{} }()
		buf := make([]byte, relayBufSize)
		for {
			if ctx.Err() != nil {
				return
			}
			n, err := remote.Read(buf, remotePollTimeout)
			if n > 0 {
				if _, werr := local.Write(buf[:n]); werr != nil {
					return
				}
			}
			if err != nil {
				var closedErr *transport.ClosedError
				if !errors.As(err, &closedErr) {
					logger.Debug("relay remote read ended", "error", err)
				}
				return
			}
			if n == 0 && remote.EOF() {
				return
			}
		}
	}()

	// First direction to finish tears the session down; closing both ends
	// unblocks the peer goroutine.
	<-done
	local.Close()
	remote.Close()
	<-done

	logger.Debug("relay session finished")
}
