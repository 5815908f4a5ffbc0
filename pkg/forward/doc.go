// Package forward provides a local TCP forwarder over the proxied
// transport.
//
// The forwarder accepts plaintext connections on a loopback listener and
// relays each one byte-for-byte through a freshly opened secure connection
// to the configured target host:port. It exists so device-local clients
// (and operators debugging a proxy path) can exercise the full
// tunnel-then-TLS transport without speaking it themselves.
//
// Each accepted connection gets its own transport handle; the forwarder
// never multiplexes sessions onto one tunnel.
package forward
