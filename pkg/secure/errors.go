package secure

import "fmt"

// HandshakeError reports a failed TLS negotiation with the target.
type HandshakeError struct {
	Host  string
	Cause error
}

// Error implements the error interface.
func (e *HandshakeError) Error() string {
	return fmt.Sprintf("tls handshake with %s: %v", e.Host, e.Cause)
}

// Unwrap returns the underlying cause error.
func (e *HandshakeError) Unwrap() error {
	return e.Cause
}

// WriteError reports a fatal post-handshake write fault. Written is the
// number of bytes sent before the fault; there is no partial-write recovery.
type WriteError struct {
	Written int
	Cause   error
}

// Error implements the error interface.
func (e *WriteError) Error() string {
	return fmt.Sprintf("tls write after %d bytes: %v", e.Written, e.Cause)
}

// Unwrap returns the underlying cause error.
func (e *WriteError) Unwrap() error {
	return e.Cause
}

// ReadError reports a fatal post-handshake read fault. Timeouts and clean
// end-of-stream are not faults; see Conn.Read.
type ReadError struct {
	Cause error
}

// Error implements the error interface.
func (e *ReadError) Error() string {
	return fmt.Sprintf("tls read: %v", e.Cause)
}

// Unwrap returns the underlying cause error.
func (e *ReadError) Unwrap() error {
	return e.Cause
}

// TrustError reports a failure assembling the trust bundle.
type TrustError struct {
	Path  string
	Cause error
}

// Error implements the error interface.
func (e *TrustError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("trust bundle %s: %v", e.Path, e.Cause)
	}
	return fmt.Sprintf("trust bundle: %v", e.Cause)
}

// Unwrap returns the underlying cause error.
func (e *TrustError) Unwrap() error {
	return e.Cause
}
