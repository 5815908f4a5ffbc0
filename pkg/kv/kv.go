package kv

import (
	"context"
	"errors"
	"fmt"
)

// ErrNotFound is returned by Get operations when no value is stored under
// the requested (namespace, key) pair.
var ErrNotFound = errors.New("kv: key not found")

// Store is the persistence boundary for namespaced string and small-integer
// values. Implementations must be safe for concurrent use.
type Store interface {
	// GetString returns the string stored under (namespace, key).
	// Returns ErrNotFound if no value is stored.
	GetString(ctx context.Context, namespace, key string) (string, error)

	// SetString durably stores value under (namespace, key), replacing any
	// previous value.
	SetString(ctx context.Context, namespace, key, value string) error

	// GetUint returns the unsigned integer stored under (namespace, key).
	// Returns ErrNotFound if no value is stored.
	GetUint(ctx context.Context, namespace, key string) (uint64, error)

	// SetUint durably stores value under (namespace, key), replacing any
	// previous value.
	SetUint(ctx context.Context, namespace, key string, value uint64) error

	// Erase removes the value stored under (namespace, key). Erasing an
	// absent key is not an error.
	Erase(ctx context.Context, namespace, key string) error

	// Close releases the backend's resources.
	Close() error
}

// StorageError represents a failure in a storage backend operation.
type StorageError struct {
	Backend   string // backend type ("sqlite", "memory")
	Operation string // operation that failed ("get", "set", "erase", ...)
	Cause     error  // underlying error
}

// Error implements the error interface.
func (e *StorageError) Error() string {
	return fmt.Sprintf("kv error [backend=%s, operation=%s]: %v", e.Backend, e.Operation, e.Cause)
}

// Unwrap returns the underlying cause error.
func (e *StorageError) Unwrap() error {
	return e.Cause
}

// NewStorageError creates a new StorageError.
func NewStorageError(backend, operation string, cause error) *StorageError {
	return &StorageError{
		Backend:   backend,
		Operation: operation,
		Cause:     cause,
	}
}
