// Skyhook is a proxied TLS transport for devices whose direct egress is
// blocked.
//
// It reaches a remote API host by tunneling through an HTTP CONNECT or
// SOCKS5 proxy and performing a TLS client handshake on top of the tunnel:
//
//   - Persistent proxy target configuration (host, port, protocol kind)
//   - HTTP CONNECT and SOCKS5 (RFC 1928, no-auth) tunnel establishment
//   - TLS with SNI and a configurable trust bundle over the tunnel
//   - A local TCP forwarder exercising the full path
//
// Usage:
//
//	# Configure the proxy target
//	skyhook proxy set proxy.example.net 3128 --kind http
//
//	# Inspect the active target
//	skyhook proxy show
//
//	# Open one test connection through the tunnel
//	skyhook probe api.example.com 443
//
//	# Run the local forwarder with metrics and health endpoints
//	skyhook run
//
//	# Remove the persisted target
//	skyhook proxy clear
package main

func main() {
	Execute()
}
