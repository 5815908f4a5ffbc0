package proxystore

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"candor-hq/skyhook/pkg/kv"
)

// Kind identifies the tunnel protocol spoken to the proxy.
type Kind string

const (
	// KindNone disables tunneling.
	KindNone Kind = "none"
	// KindHTTPConnect tunnels through an HTTP CONNECT proxy.
	KindHTTPConnect Kind = "http"
	// KindSOCKS5 tunnels through a SOCKS5 proxy.
	KindSOCKS5 Kind = "socks5"
)

// ParseKind maps a stored string to a Kind. Unrecognized or empty values
// fall back to KindHTTPConnect, matching the wire-compatible default.
func ParseKind(s string) Kind {
	switch Kind(s) {
	case KindNone, KindSOCKS5:
		return Kind(s)
	default:
		return KindHTTPConnect
	}
}

// MaxHostLen bounds the configurable proxy hostname, the longest name DNS
// itself permits.
const MaxHostLen = 253

// Namespace and keys used in the kv store.
const (
	Namespace = "proxy"
	keyHost   = "host"
	keyPort   = "port"
	keyKind   = "kind"
)

// Settings is an immutable snapshot of the proxy target.
type Settings struct {
	Host string
	Port uint16
	Kind Kind
}

// Enabled reports whether the snapshot describes a usable proxy target.
func (s Settings) Enabled() bool {
	return s.Host != "" && s.Port != 0
}

// ConfigError reports an invalid proxy target passed to Set.
type ConfigError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	return fmt.Sprintf("proxy config: %s: %s", e.Field, e.Message)
}

// Store is the singleton proxy configuration service. It owns the current
// snapshot and funnels all mutations through durable persistence.
type Store struct {
	kv     kv.Store
	logger *slog.Logger

	mu       sync.RWMutex
	current  Settings
	initOnce sync.Once
}

// New creates a Store backed by the given kv store. Call Init before use.
func New(store kv.Store) *Store {
	return &Store{
		kv:     store,
		logger: slog.Default().With("component", "proxystore"),
	}
}

// Init loads the snapshot from the precedence chain: defaults first, then
// persisted values on top (persisted wins). It never fails; an unreadable or
// missing store yields the defaults, and absent defaults yield the disabled
// state. Subsequent calls are ignored.
func (s *Store) Init(ctx context.Context, defaults Settings) {
	s.initOnce.Do(func() {
		snap := defaults
		snap.Kind = ParseKind(string(snap.Kind))

		if host, err := s.kv.GetString(ctx, Namespace, keyHost); err == nil && host != "" {
			snap.Host = host
			if port, err := s.kv.GetUint(ctx, Namespace, keyPort); err == nil && port != 0 && port <= 0xFFFF {
				snap.Port = uint16(port)
			}
			if kindRaw, err := s.kv.GetString(ctx, Namespace, keyKind); err == nil && kindRaw != "" {
				snap.Kind = ParseKind(kindRaw)
			}
		}

		s.mu.Lock()
		s.current = snap
		s.mu.Unlock()

		if snap.Enabled() {
			s.logger.Info("proxy configured",
				"host", snap.Host, "port", snap.Port, "kind", snap.Kind)
		} else {
			s.logger.Info("no proxy configured, using direct connections")
		}
	})
}

// Set validates and persists a new proxy target, then updates the in-memory
// snapshot. On a persistence error the in-memory snapshot is left unchanged.
func (s *Store) Set(ctx context.Context, host string, port uint16, kind Kind) error {
	if host == "" {
		return &ConfigError{Field: "host", Message: "must not be empty"}
	}
	if len(host) > MaxHostLen {
		return &ConfigError{Field: "host", Message: fmt.Sprintf("exceeds %d bytes", MaxHostLen)}
	}
	if port == 0 {
		return &ConfigError{Field: "port", Message: "must not be zero"}
	}
	kind = ParseKind(string(kind))

	if err := s.kv.SetString(ctx, Namespace, keyHost, host); err != nil {
		return err
	}
	if err := s.kv.SetUint(ctx, Namespace, keyPort, uint64(port)); err != nil {
		return err
	}
	if err := s.kv.SetString(ctx, Namespace, keyKind, string(kind)); err != nil {
		return err
	}

	s.mu.Lock()
	s.current = Settings{Host: host, Port: port, Kind: kind}
	s.mu.Unlock()

	s.logger.Info("proxy target updated", "host", host, "port", port, "kind", kind)
	return nil
}

// Clear erases the persisted target and resets the snapshot to the disabled
// state. The in-memory reset happens even if persistence fails; the error is
// still reported.
func (s *Store) Clear(ctx context.Context) error {
	var firstErr error
	for _, key := range []string{keyHost, keyPort, keyKind} {
		if err := s.kv.Erase(ctx, Namespace, key); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	s.mu.Lock()
	s.current = Settings{Kind: KindHTTPConnect}
	s.mu.Unlock()

	s.logger.Info("proxy target cleared")
	return firstErr
}

// Enabled reports whether a usable proxy target is configured.
func (s *Store) Enabled() bool {
	return s.Snapshot().Enabled()
}

// Snapshot returns a copy of the current proxy target taken under the lock.
func (s *Store) Snapshot() Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}
