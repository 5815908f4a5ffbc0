package kv

import (
	"context"
	"fmt"
	"strconv"
	"sync"
)

// MemoryStore implements the Store interface using an in-memory map.
// This implementation is intended for testing only and should not be used
// in production.
type MemoryStore struct {
	entries map[string]string
	mu      sync.RWMutex

	// FailWrites, when set, makes every mutation fail. Used by tests to
	// exercise persistence-failure paths.
	FailWrites bool
}

// NewMemoryStore creates a new in-memory storage backend.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]string),
	}
}

func memKey(namespace, key string) string {
	return namespace + "\x00" + key
}

// GetString returns the string stored under (namespace, key).
func (s *MemoryStore) GetString(ctx context.Context, namespace, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	value, ok := s.entries[memKey(namespace, key)]
	if !ok {
		return "", ErrNotFound
	}
	return value, nil
}

// SetString stores value under (namespace, key).
func (s *MemoryStore) SetString(ctx context.Context, namespace, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.FailWrites {
		return NewStorageError("memory", "set", fmt.Errorf("writes disabled"))
	}
	s.entries[memKey(namespace, key)] = value
	return nil
}

// GetUint returns the unsigned integer stored under (namespace, key).
func (s *MemoryStore) GetUint(ctx context.Context, namespace, key string) (uint64, error) {
	raw, err := s.GetString(ctx, namespace, key)
	if err != nil {
		return 0, err
	}
	n, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, NewStorageError("memory", "get", fmt.Errorf("value %q is not an unsigned integer: %w", raw, err))
	}
	return n, nil
}

// SetUint stores value under (namespace, key).
func (s *MemoryStore) SetUint(ctx context.Context, namespace, key string, value uint64) error {
	return s.SetString(ctx, namespace, key, strconv.FormatUint(value, 10))
}

// Erase removes the value stored under (namespace, key).
func (s *MemoryStore) Erase(ctx context.Context, namespace, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.FailWrites {
		return NewStorageError("memory", "erase", fmt.Errorf("writes disabled"))
	}
	delete(s.entries, memKey(namespace, key))
	return nil
}

// Close is a no-op for the memory backend.
func (s *MemoryStore) Close() error {
	return nil
}
