// Package proxystore holds the active proxy target for the upstream
// transport: host, port, and tunnel kind (HTTP CONNECT or SOCKS5).
//
// The store is a process-lifetime service with one exclusive lock guarding
// its snapshot. It is created at boot from a precedence chain: persisted
// values (set via the admin CLI) override compiled-in defaults. Updates go
// through Set, which persists durably before mutating the in-memory
// snapshot, so readers never observe a value that would not survive a
// restart. Readers always receive a full copy of the snapshot; a connection
// attempt captures the target at call time and is never retargeted by a
// concurrent Set or Clear.
//
// The proxy is considered enabled when both a host and a non-zero port are
// configured, regardless of kind.
package proxystore
