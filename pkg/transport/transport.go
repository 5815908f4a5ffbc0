package transport

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"candor-hq/skyhook/pkg/proxystore"
	"candor-hq/skyhook/pkg/secure"
	"candor-hq/skyhook/pkg/telemetry/metrics"
	"candor-hq/skyhook/pkg/tunnel"
)

// Options configures a Dialer.
type Options struct {
	// Tunnel configures tunnel establishment. StepTimeout is superseded by
	// the per-call timeout passed to Open.
	Tunnel tunnel.Config

	// Secure configures the TLS channel. HandshakeTimeout is superseded by
	// the per-call timeout passed to Open when unset.
	Secure secure.Config

	// Metrics, when non-nil, receives transport metrics.
	Metrics *metrics.TransportMetrics
}

// Dialer opens secure connections to target hosts through the configured
// proxy. Handles opened by the same Dialer are fully independent.
type Dialer struct {
	store   *proxystore.Store
	options Options
	logger  *slog.Logger
}

// NewDialer creates a Dialer consulting store for the proxy target.
func NewDialer(store *proxystore.Store, options Options) *Dialer {
	return &Dialer{
		store:   store,
		options: options,
		logger:  slog.Default().With("component", "transport"),
	}
}

// connState tags which stage currently owns the underlying socket.
type connState int

const (
	stateSecured connState = iota
	stateClosed
)

// Conn is a caller-facing connection handle. The underlying socket is owned
// by the TLS session; Close is the only teardown path.
type Conn struct {
	secure *secure.Conn
	dialer *Dialer
	id     string
	mu     sync.Mutex
	state  connState
}

// Open establishes a secure connection to host:port through the configured
// proxy. Each blocking step (resolve, connect, tunnel I/O, handshake) is
// bounded independently by timeout; total latency is the sum of those
// bounds. With no usable proxy configured it fails immediately with
// *DisabledError, before any network syscall.
func (d *Dialer) Open(ctx context.Context, host string, port uint16, timeout time.Duration) (*Conn, error) {
	attemptID := uuid.NewString()
	logger := d.logger.With("attempt_id", attemptID, "host", host, "port", port)

	settings := d.store.Snapshot()
	if !settings.Enabled() {
		err := &DisabledError{}
		d.recordOpen(settings.Kind, err)
		return nil, err
	}
	logger = logger.With("kind", settings.Kind)

	tunnelCfg := d.options.Tunnel
	if timeout > 0 {
		tunnelCfg.StepTimeout = timeout
	}
	establisher := tunnel.NewEstablisher(tunnelCfg)

	tunnelStart := time.Now()
	raw, err := establisher.Establish(ctx, settings, host, port)
	if err != nil {
		logger.Warn("tunnel establishment failed", "category", Category(err), "error", err)
		d.recordOpen(settings.Kind, err)
		return nil, err
	}
	d.recordStage(metrics.StageTunnel, time.Since(tunnelStart))

	secureCfg := d.options.Secure
	if secureCfg.HandshakeTimeout <= 0 {
		secureCfg.HandshakeTimeout = timeout
	}

	// Ownership of raw moves into the secure channel here; on handshake
	// failure the channel has already closed it.
	handshakeStart := time.Now()
	sc, err := secure.Client(ctx, raw, host, secureCfg)
	if err != nil {
		logger.Warn("tls handshake failed", "error", err)
		d.recordOpen(settings.Kind, err)
		return nil, err
	}
	d.recordStage(metrics.StageHandshake, time.Since(handshakeStart))
	d.recordOpen(settings.Kind, nil)
	if d.options.Metrics != nil {
		d.options.Metrics.HandleOpened()
	}

	logger.Info("secure connection open",
		"tunnel_ms", time.Since(tunnelStart).Milliseconds(),
	)

	return &Conn{
		secure: sc,
		dialer: d,
		id:     attemptID,
		state:  stateSecured,
	}, nil
}

// Write sends all of p, never returning a short count without an error.
func (c *Conn) Write(p []byte) (int, error) {
	if c.closed() {
		return 0, &ClosedError{}
	}
	n, err := c.secure.Write(p)
	if c.dialer.options.Metrics != nil {
		c.dialer.options.Metrics.RecordBytes("tx", n)
	}
	return n, err
}

// Read fills p, waiting up to timeout. A return of (0, nil) means no data
// yet, not an error.
func (c *Conn) Read(p []byte, timeout time.Duration) (int, error) {
	if c.closed() {
		return 0, &ClosedError{}
	}
	n, err := c.secure.Read(p, timeout)
	if c.dialer.options.Metrics != nil {
		c.dialer.options.Metrics.RecordBytes("rx", n)
	}
	return n, err
}

// EOF reports whether the remote peer has cleanly closed the stream.
func (c *Conn) EOF() bool {
	return c.secure.EOF()
}

// Close tears down the TLS session and the socket it owns. Subsequent I/O
// fails with *ClosedError; repeated Close is a no-op.
func (c *Conn) Close() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	if c.state == stateClosed {
		c.mu.Unlock()
		return nil
	}
	c.state = stateClosed
	c.mu.Unlock()

	if c.dialer.options.Metrics != nil {
		c.dialer.options.Metrics.HandleClosed()
	}
	return c.secure.Close()
}

func (c *Conn) closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state == stateClosed
}

func (d *Dialer) recordOpen(kind proxystore.Kind, err error) {
	if d.options.Metrics != nil {
		d.options.Metrics.RecordOpen(kindLabel(kind), outcomeLabel(err))
	}
}

func (d *Dialer) recordStage(stage string, elapsed time.Duration) {
	if d.options.Metrics != nil {
		d.options.Metrics.RecordStage(stage, elapsed)
	}
}
