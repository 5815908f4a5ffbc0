package tunnel

import (
	"context"
	"fmt"
	"io"
	"net"
)

// SOCKS5 protocol constants (RFC 1928).
const (
	socksVersion    = 0x05
	socksCmdConnect = 0x01
	socksAuthNone   = 0x00
	socksAtypIPv4   = 0x01
	socksAtypDomain = 0x03
	socksAtypIPv6   = 0x04
	socksReplyOK    = 0x00
	socksMaxHostLen = 255
)

// socks5Handshake negotiates the no-auth method and issues a CONNECT request
// for targetHost:targetPort using the domain-name address type. On return
// with nil error the connection relays the target's bytes transparently and
// the full RFC 1928 reply, bound address included, has been consumed. The
// caller closes conn on error.
func (e *Establisher) socks5Handshake(ctx context.Context, conn net.Conn, targetHost string, targetPort uint16) error {
	// The domain-name length must fit one byte; refuse before sending
	// anything.
	if len(targetHost) > socksMaxHostLen {
		return &ProtocolError{Message: fmt.Sprintf("hostname length %d exceeds %d", len(targetHost), socksMaxHostLen)}
	}

	e.stepDeadline(conn)
	greeting := []byte{socksVersion, 0x01, socksAuthNone}
	if _, err := conn.Write(greeting); err != nil {
		return &WriteError{Op: "greeting", Cause: err}
	}

	var sel [2]byte
	e.stepDeadline(conn)
	if _, err := io.ReadFull(conn, sel[:]); err != nil {
		return &ReadError{Op: "method selection", Cause: err}
	}
	if sel[0] != socksVersion || sel[1] != socksAuthNone {
		return &AuthError{Method: sel[1]}
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	req := make([]byte, 0, 4+1+len(targetHost)+2)
	req = append(req, socksVersion, socksCmdConnect, 0x00, socksAtypDomain)
	req = append(req, byte(len(targetHost)))
	req = append(req, targetHost...)
	req = append(req, byte(targetPort>>8), byte(targetPort&0xFF))

	e.stepDeadline(conn)
	if _, err := conn.Write(req); err != nil {
		return &WriteError{Op: "connect request", Cause: err}
	}

	// Reply: VER REP RSV ATYP BND.ADDR BND.PORT. The bound address is
	// consumed in full so no trailing bytes alias into whatever the caller
	// layers on the relay next.
	var hdr [4]byte
	e.stepDeadline(conn)
	if _, err := io.ReadFull(conn, hdr[:]); err != nil {
		return &ReadError{Op: "connect reply", Cause: err}
	}
	if hdr[0] != socksVersion || hdr[1] != socksReplyOK {
		return &RejectedError{Strategy: "socks5", Status: hdr[1]}
	}
	if err := e.discardBoundAddr(conn, hdr[3]); err != nil {
		return &ReadError{Op: "connect reply address", Cause: err}
	}
	return nil
}

// discardBoundAddr consumes BND.ADDR and BND.PORT from a reply based on its
// address type.
func (e *Establisher) discardBoundAddr(conn net.Conn, atyp byte) error {
	e.stepDeadline(conn)
	switch atyp {
	case socksAtypIPv4:
		var tmp [4 + 2]byte
		_, err := io.ReadFull(conn, tmp[:])
		return err
	case socksAtypIPv6:
		var tmp [16 + 2]byte
		_, err := io.ReadFull(conn, tmp[:])
		return err
	case socksAtypDomain:
		var l [1]byte
		if _, err := io.ReadFull(conn, l[:]); err != nil {
			return err
		}
		buf := make([]byte, int(l[0])+2)
		_, err := io.ReadFull(conn, buf)
		return err
	default:
		return fmt.Errorf("unknown reply address type 0x%02x", atyp)
	}
}
