// Package secure layers a TLS client session over an already-tunneled
// connection and exposes byte-level read and write.
//
// The TLS engine is crypto/tls. The pre-connected socket is injected into
// tls.Client directly, so no TCP connect happens here; the handshake runs
// synchronously, bounded by a timeout. From the moment Client returns
// successfully the raw socket is owned by the TLS session: the only direct
// use of the descriptor afterwards is deadline control on reads, and Close
// on the session is the only teardown path.
//
// Certificate verification uses the target hostname for SNI and a trust
// bundle assembled from the system roots, optionally extended or replaced
// by a PEM file (see TrustBundle).
package secure
