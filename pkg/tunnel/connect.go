package tunnel

import (
	"context"
	"fmt"
	"io"
	"net"
	"strings"
)

// statusLineMax bounds a single proxy response line. A status line or header
// longer than this fails the handshake.
const statusLineMax = 256

// httpConnectHandshake sends a CONNECT request for targetHost:targetPort and
// consumes the proxy's response. On return with nil error the connection
// relays the target's bytes transparently. The caller closes conn on error.
func (e *Establisher) httpConnectHandshake(ctx context.Context, conn net.Conn, targetHost string, targetPort uint16) error {
	hostPort := net.JoinHostPort(targetHost, fmt.Sprint(targetPort))
	req := fmt.Sprintf("CONNECT %s HTTP/1.1\r\nHost: %s\r\n\r\n", hostPort, hostPort)

	e.stepDeadline(conn)
	if _, err := io.WriteString(conn, req); err != nil {
		return &WriteError{Op: "connect request", Cause: err}
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	line, err := e.readLine(conn)
	if err != nil {
		return &ReadError{Op: "status line", Cause: err}
	}
	if !statusLineAccepts(line) {
		return &RejectedError{Strategy: "connect", Line: line}
	}

	// Discard the remaining response headers up to the blank line.
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		line, err := e.readLine(conn)
		if err != nil || line == "" {
			break
		}
	}
	return nil
}

// statusLineAccepts reports whether an HTTP status line grants the tunnel.
// The status code is parsed as the second whitespace-delimited token; a
// reason phrase that merely contains "200" does not qualify.
func statusLineAccepts(line string) bool {
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return false
	}
	if !strings.HasPrefix(fields[0], "HTTP/") {
		return false
	}
	return fields[1] == "200"
}

// readLine reads one LF-terminated line, stripping CR, bounded by
// statusLineMax and the step timeout. A line hitting the bound without a
// terminator is returned as-is, matching the tolerant framing proxies in the
// field require.
func (e *Establisher) readLine(conn net.Conn) (string, error) {
	e.stepDeadline(conn)

	var b strings.Builder
	buf := make([]byte, 1)
	for b.Len() < statusLineMax-1 {
		if _, err := conn.Read(buf); err != nil {
			return "", err
		}
		switch buf[0] {
		case '\n':
			return b.String(), nil
		case '\r':
		default:
			b.WriteByte(buf[0])
		}
	}
	return b.String(), nil
}
