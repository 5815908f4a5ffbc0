package secure

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"io"
	"net"
	"os"
	"time"
)

// DefaultHandshakeTimeout bounds the TLS handshake when the configuration
// leaves it unset.
const DefaultHandshakeTimeout = 15 * time.Second

// DefaultWriteRetryLimit bounds how many zero-progress write rounds are
// tolerated before the write is declared fatal. The socket's own send
// timeout is the real bound on a blocking transport; the counter keeps a
// non-blocking reimplementation from spinning.
const DefaultWriteRetryLimit = 64

// Config controls the TLS session.
type Config struct {
	// RootCAs is the trust bundle for chain validation. Nil means the
	// system roots.
	RootCAs *x509.CertPool

	// HandshakeTimeout bounds the synchronous handshake. Zero means
	// DefaultHandshakeTimeout.
	HandshakeTimeout time.Duration

	// WriteRetryLimit bounds zero-progress write rounds. Zero means
	// DefaultWriteRetryLimit.
	WriteRetryLimit int

	// InsecureSkipVerify disables certificate verification. Testing only.
	InsecureSkipVerify bool
}

// Conn is a secured channel over a tunneled socket. After a successful
// handshake the raw socket belongs to the TLS session; the retained raw
// reference is used only to arm read deadlines.
type Conn struct {
	tls        *tls.Conn
	raw        net.Conn
	retryLimit int
	eof        bool
}

// Client performs a TLS client handshake over the already-tunneled conn,
// presenting host for SNI and certificate verification. On failure the TLS
// session is closed, which also releases the socket, and a *HandshakeError
// is returned. On success ownership of conn moves into the returned channel.
func Client(ctx context.Context, conn net.Conn, host string, config Config) (*Conn, error) {
	if config.HandshakeTimeout <= 0 {
		config.HandshakeTimeout = DefaultHandshakeTimeout
	}
	if config.WriteRetryLimit <= 0 {
		config.WriteRetryLimit = DefaultWriteRetryLimit
	}

	tlsConn := tls.Client(conn, &tls.Config{
		ServerName:         host,
		RootCAs:            config.RootCAs,
		InsecureSkipVerify: config.InsecureSkipVerify,
	})

	hsCtx, cancel := context.WithTimeout(ctx, config.HandshakeTimeout)
	defer cancel()
	if err := tlsConn.HandshakeContext(hsCtx); err != nil {
		tlsConn.Close()
		return nil, &HandshakeError{Host: host, Cause: err}
	}

	return &Conn{
		tls:        tlsConn,
		raw:        conn,
		retryLimit: config.WriteRetryLimit,
	}, nil
}

// Write sends all of p through the TLS session, retrying rounds that made
// partial progress. A round with no progress and no error counts against
// the retry limit; any error is a fatal *WriteError carrying the byte count
// sent so far. On success the returned count always equals len(p).
func (c *Conn) Write(p []byte) (int, error) {
	written := 0
	stalls := 0
	for written < len(p) {
		n, err := c.tls.Write(p[written:])
		written += n
		if err != nil {
			return written, &WriteError{Written: written, Cause: err}
		}
		if n == 0 {
			stalls++
			if stalls >= c.retryLimit {
				return written, &WriteError{Written: written, Cause: errors.New("write made no progress")}
			}
			continue
		}
		stalls = 0
	}
	return written, nil
}

// Read fills p with decrypted bytes, waiting up to timeout. Deadline expiry
// and clean end-of-stream both mean "no data yet" and return 0 with a nil
// error; only genuine faults return a *ReadError. The receive deadline is
// re-armed on the underlying descriptor before every call.
func (c *Conn) Read(p []byte, timeout time.Duration) (int, error) {
	c.raw.SetReadDeadline(time.Now().Add(timeout))

	n, err := c.tls.Read(p)
	if err != nil {
		if errors.Is(err, io.EOF) {
			c.eof = true
			return n, nil
		}
		if errors.Is(err, os.ErrDeadlineExceeded) {
			return n, nil
		}
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return n, nil
		}
		return n, &ReadError{Cause: err}
	}
	return n, nil
}

// EOF reports whether the peer has cleanly closed its side of the stream.
// Read keeps returning (0, nil) after that point.
func (c *Conn) EOF() bool {
	return c.eof
}

// Close tears down the TLS session and with it the underlying socket.
// Safe on a nil channel.
func (c *Conn) Close() error {
	if c == nil || c.tls == nil {
		return nil
	}
	return c.tls.Close()
}

// ConnectionState exposes the negotiated TLS state, for diagnostics.
func (c *Conn) ConnectionState() tls.ConnectionState {
	return c.tls.ConnectionState()
}
