package tunnel

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"time"

	"candor-hq/skyhook/pkg/proxystore"
)

// DialFunc opens a TCP connection to addr ("host:port"). It exists so tests
// can substitute a descriptor-counting fake for the real dialer.
type DialFunc func(ctx context.Context, addr string) (net.Conn, error)

// DefaultStepTimeout bounds each blocking establishment step when the
// configuration leaves it unset.
const DefaultStepTimeout = 10 * time.Second

// Config controls tunnel establishment.
type Config struct {
	// StepTimeout bounds each blocking step (resolve, connect, each
	// handshake read and write) independently. Zero means
	// DefaultStepTimeout.
	StepTimeout time.Duration

	// Dial overrides the proxy dialer. If nil, a dialer restricted to
	// IPv4 A records is used.
	Dial DialFunc

	// Resolver overrides DNS resolution for the default dialer.
	Resolver *net.Resolver
}

// Establisher opens transparent relays to target hosts through a proxy.
type Establisher struct {
	config Config
	logger *slog.Logger
}

// NewEstablisher creates an Establisher with the given configuration.
func NewEstablisher(config Config) *Establisher {
	if config.StepTimeout <= 0 {
		config.StepTimeout = DefaultStepTimeout
	}
	return &Establisher{
		config: config,
		logger: slog.Default().With("component", "tunnel"),
	}
}

// Establish connects to the proxy described by settings and performs the
// handshake matching its kind, returning a connection that relays bytes to
// targetHost:targetPort. On failure the socket, if one was opened, is closed
// before returning. The caller exclusively owns the returned connection.
func (e *Establisher) Establish(ctx context.Context, settings proxystore.Settings, targetHost string, targetPort uint16) (net.Conn, error) {
	conn, err := e.dialProxy(ctx, settings.Host, settings.Port)
	if err != nil {
		return nil, err
	}

	switch settings.Kind {
	case proxystore.KindSOCKS5:
		err = e.socks5Handshake(ctx, conn, targetHost, targetPort)
	default:
		err = e.httpConnectHandshake(ctx, conn, targetHost, targetPort)
	}
	if err != nil {
		conn.Close()
		return nil, err
	}

	// The handshake is done; deadlines from the last step must not bleed
	// into the caller's use of the relay.
	conn.SetDeadline(time.Time{})

	e.logger.Info("tunnel established",
		"kind", settings.Kind,
		"proxy", net.JoinHostPort(settings.Host, fmt.Sprint(settings.Port)),
		"target", net.JoinHostPort(targetHost, fmt.Sprint(targetPort)),
	)
	return conn, nil
}

// dialProxy resolves the proxy host to IPv4 and opens a TCP connection.
func (e *Establisher) dialProxy(ctx context.Context, host string, port uint16) (net.Conn, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	addr := net.JoinHostPort(host, fmt.Sprint(port))
	if e.config.Dial != nil {
		conn, err := e.config.Dial(ctx, addr)
		if err != nil {
			return nil, &ConnectError{Addr: addr, Cause: err}
		}
		return conn, nil
	}

	resolver := e.config.Resolver
	if resolver == nil {
		resolver = net.DefaultResolver
	}
	resolveCtx, cancel := context.WithTimeout(ctx, e.config.StepTimeout)
	defer cancel()
	ips, err := resolver.LookupIP(resolveCtx, "ip4", host)
	if err != nil {
		return nil, &ResolveError{Host: host, Cause: err}
	}
	if len(ips) == 0 {
		return nil, &ResolveError{Host: host}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	dialer := &net.Dialer{Timeout: e.config.StepTimeout}
	ipAddr := net.JoinHostPort(ips[0].String(), fmt.Sprint(port))
	conn, err := dialer.DialContext(ctx, "tcp4", ipAddr)
	if err != nil {
		return nil, &ConnectError{Addr: addr, Cause: err}
	}
	return conn, nil
}

// stepDeadline arms the per-step timeout on conn before a blocking
// read or write.
func (e *Establisher) stepDeadline(conn net.Conn) {
	conn.SetDeadline(time.Now().Add(e.config.StepTimeout))
}
