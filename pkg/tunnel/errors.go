package tunnel

import "fmt"

// ResolveError reports a DNS failure for the proxy host, including the case
// where the name has no IPv4 A records.
type ResolveError struct {
	Host  string
	Cause error
}

// Error implements the error interface.
func (e *ResolveError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("resolve %s: %v", e.Host, e.Cause)
	}
	return fmt.Sprintf("resolve %s: no IPv4 address", e.Host)
}

// Unwrap returns the underlying cause error.
func (e *ResolveError) Unwrap() error {
	return e.Cause
}

// ConnectError reports a failed TCP connection to the proxy.
type ConnectError struct {
	Addr  string
	Cause error
}

// Error implements the error interface.
func (e *ConnectError) Error() string {
	return fmt.Sprintf("connect %s: %v", e.Addr, e.Cause)
}

// Unwrap returns the underlying cause error.
func (e *ConnectError) Unwrap() error {
	return e.Cause
}

// ProtocolError reports a request this layer refuses to encode, such as a
// hostname too long for the SOCKS5 domain-name length byte. It is raised
// before any bytes are sent.
type ProtocolError struct {
	Message string
}

// Error implements the error interface.
func (e *ProtocolError) Error() string {
	return fmt.Sprintf("tunnel protocol: %s", e.Message)
}

// AuthError reports that the SOCKS5 proxy refused the no-auth method.
// Method is the method byte the proxy selected (0xFF for "no acceptable
// methods").
type AuthError struct {
	Method byte
}

// Error implements the error interface.
func (e *AuthError) Error() string {
	return fmt.Sprintf("socks5 proxy refused no-auth method (selected 0x%02x)", e.Method)
}

// RejectedError reports that the proxy was reachable and spoke the protocol
// but declined to open the tunnel.
type RejectedError struct {
	// Strategy is "connect" or "socks5".
	Strategy string

	// Line is the HTTP status line for the CONNECT strategy.
	Line string

	// Status is the SOCKS5 reply code for the socks5 strategy.
	Status byte
}

// Error implements the error interface.
func (e *RejectedError) Error() string {
	if e.Strategy == "socks5" {
		return fmt.Sprintf("socks5 tunnel rejected: %s", socksReplyString(e.Status))
	}
	return fmt.Sprintf("connect tunnel rejected: %q", e.Line)
}

// WriteError reports a failed or short write during tunnel establishment.
type WriteError struct {
	Op    string
	Cause error
}

// Error implements the error interface.
func (e *WriteError) Error() string {
	return fmt.Sprintf("tunnel write (%s): %v", e.Op, e.Cause)
}

// Unwrap returns the underlying cause error.
func (e *WriteError) Unwrap() error {
	return e.Cause
}

// ReadError reports a failed or truncated read during tunnel establishment,
// including step-timeout expiry.
type ReadError struct {
	Op    string
	Cause error
}

// Error implements the error interface.
func (e *ReadError) Error() string {
	return fmt.Sprintf("tunnel read (%s): %v", e.Op, e.Cause)
}

// Unwrap returns the underlying cause error.
func (e *ReadError) Unwrap() error {
	return e.Cause
}

// socksReplyString maps RFC 1928 reply codes to human-readable strings.
func socksReplyString(rep byte) string {
	switch rep {
	case 0x00:
		return "succeeded"
	case 0x01:
		return "general SOCKS server failure"
	case 0x02:
		return "connection not allowed by ruleset"
	case 0x03:
		return "network unreachable"
	case 0x04:
		return "host unreachable"
	case 0x05:
		return "connection refused by destination host"
	case 0x06:
		return "TTL expired"
	case 0x07:
		return "command not supported"
	case 0x08:
		return "address type not supported"
	default:
		return fmt.Sprintf("unknown reply code 0x%02x", rep)
	}
}
