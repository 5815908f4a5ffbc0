// Package tunnel turns a TCP connection to a proxy into a transparent relay
// to a target host:port.
//
// Two strategies are implemented, selected by the configured proxy kind:
//
//   - HTTP CONNECT (RFC 9110 §9.3.6): a one-line request followed by a
//     status line and headers, after which the proxy relays raw bytes.
//   - SOCKS5 (RFC 1928): a short binary handshake using the no-auth method
//     and the domain-name address type, CONNECT command only.
//
// Both strategies resolve the proxy host to IPv4 A records only, connect
// over TCP, and bound every blocking step with an independent step timeout
// rather than a single end-to-end deadline. The context is checked between
// steps so a caller can abort an in-flight establishment.
//
// On any failure the socket is closed before the error is returned; on
// success the returned connection carries the target's bytes transparently
// and is exclusively owned by the caller. This layer never retries; retry
// and backoff policy belong to the caller.
package tunnel
