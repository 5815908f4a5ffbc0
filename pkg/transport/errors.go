package transport

import (
	"context"
	"errors"

	"candor-hq/skyhook/pkg/proxystore"
	"candor-hq/skyhook/pkg/secure"
	"candor-hq/skyhook/pkg/telemetry/metrics"
	"candor-hq/skyhook/pkg/tunnel"
)

// DisabledError is returned by Open when no usable proxy target is
// configured. No network syscall has been performed.
type DisabledError struct{}

// Error implements the error interface.
func (e *DisabledError) Error() string {
	return "transport: no proxy configured"
}

// ClosedError is returned for I/O on a handle after Close.
type ClosedError struct{}

// Error implements the error interface.
func (e *ClosedError) Error() string {
	return "transport: connection is closed"
}

// Category summarizes err for user-facing reporting: "disabled",
// "unreachable", "rejected", "tls failed", "io", "canceled", or "error".
// Protocol detail stays in the error chain for logs.
func Category(err error) string {
	var (
		disabled  *DisabledError
		resolve   *tunnel.ResolveError
		connect   *tunnel.ConnectError
		protocol  *tunnel.ProtocolError
		auth      *tunnel.AuthError
		rejected  *tunnel.RejectedError
		handshake *secure.HandshakeError
		readErr   *secure.ReadError
		writeErr  *secure.WriteError
	)
	switch {
	case errors.As(err, &disabled):
		return "disabled"
	case errors.As(err, &resolve), errors.As(err, &connect):
		return "unreachable"
	case errors.As(err, &protocol), errors.As(err, &auth), errors.As(err, &rejected):
		return "rejected"
	case errors.As(err, &handshake):
		return "tls failed"
	case errors.As(err, &readErr), errors.As(err, &writeErr):
		return "io"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "error"
	}
}

// outcomeLabel maps err to a bounded metrics label. A nil err is a
// successful open.
func outcomeLabel(err error) string {
	if err == nil {
		return metrics.OutcomeOK
	}
	var (
		disabled  *DisabledError
		resolve   *tunnel.ResolveError
		connect   *tunnel.ConnectError
		protocol  *tunnel.ProtocolError
		auth      *tunnel.AuthError
		rejected  *tunnel.RejectedError
		handshake *secure.HandshakeError
	)
	switch {
	case errors.As(err, &disabled):
		return metrics.OutcomeDisabled
	case errors.As(err, &resolve):
		return metrics.OutcomeResolve
	case errors.As(err, &connect):
		return metrics.OutcomeConnect
	case errors.As(err, &protocol):
		return metrics.OutcomeProtocol
	case errors.As(err, &auth):
		return metrics.OutcomeAuth
	case errors.As(err, &rejected):
		return metrics.OutcomeRejected
	case errors.As(err, &handshake):
		return metrics.OutcomeHandshake
	default:
		return metrics.OutcomeCanceled
	}
}

// kindLabel maps a proxy kind to its metrics label.
func kindLabel(kind proxystore.Kind) string {
	return string(kind)
}
