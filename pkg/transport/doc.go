// Package transport is the caller-facing surface of the proxied TLS
// transport. It composes the proxy configuration store, the tunnel
// establisher, and the secure channel into a single connection handle.
//
// # Usage
//
//	dialer := transport.NewDialer(store, transport.Options{})
//	conn, err := dialer.Open(ctx, "api.example.com", 443, 10*time.Second)
//	if err != nil {
//	    // errors.As against tunnel and secure error types, or
//	    // transport.Category(err) for a user-facing summary
//	}
//	defer conn.Close()
//
//	n, err := conn.Write(requestBytes)
//	n, err = conn.Read(buf, 5*time.Second)
//
// Open captures a snapshot of the proxy target at call time; configuration
// changes during an in-flight establishment never retarget it. Each handle
// performs strictly synchronous blocking I/O and shares no state with other
// handles. There is no retry or backoff in this layer.
package transport
