package proxytest

import (
	"context"
	"net"
	"sync/atomic"
)

// ConnCounter tracks how many connections a test dialer has opened and
// closed, so tests can assert that no descriptor outlives a failure path.
type ConnCounter struct {
	opened atomic.Int64
	closed atomic.Int64
}

// Dial opens a TCP connection to addr and wraps it for counting. It has the
// tunnel.DialFunc shape.
func (c *ConnCounter) Dial(ctx context.Context, addr string) (net.Conn, error) {
	d := &net.Dialer{}
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, err
	}
	c.opened.Add(1)
	return &countedConn{Conn: conn, counter: c}, nil
}

// Opened returns the number of connections handed out.
func (c *ConnCounter) Opened() int64 {
	return c.opened.Load()
}

// Leaked returns the number of connections opened but never closed.
func (c *ConnCounter) Leaked() int64 {
	return c.opened.Load() - c.closed.Load()
}

type countedConn struct {
	net.Conn
	counter   *ConnCounter
	closeOnce atomic.Bool
}

func (c *countedConn) Close() error {
	// Count the first close only; double closes are harmless here and the
	// TLS layer closes the socket it owns on teardown.
	if c.closeOnce.CompareAndSwap(false, true) {
		c.counter.closed.Add(1)
	}
	return c.Conn.Close()
}
