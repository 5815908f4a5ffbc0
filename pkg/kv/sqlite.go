package kv

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteConfig contains configuration for the SQLite storage backend.
type SQLiteConfig struct {
	// Path is the database file path.
	Path string

	// MaxOpenConns is the maximum number of open connections to the database.
	// Default: 4
	MaxOpenConns int

	// WALMode enables Write-Ahead Logging mode for better concurrency.
	// Default: true
	WALMode bool

	// BusyTimeout is the duration to wait when the database is locked.
	// Default: 5 seconds
	BusyTimeout time.Duration
}

// DefaultSQLiteConfig returns the default SQLite configuration.
func DefaultSQLiteConfig() *SQLiteConfig {
	return &SQLiteConfig{
		Path:         "data/skyhook.db",
		MaxOpenConns: 4,
		WALMode:      true,
		BusyTimeout:  5 * time.Second,
	}
}

// SQLiteStore implements the Store interface using SQLite.
// Every successful mutation is additionally recorded in the kv_changelog
// audit table; see Sweeper for pruning.
type SQLiteStore struct {
	db     *sql.DB
	config *SQLiteConfig
	logger *slog.Logger
}

// NewSQLiteStore creates a new SQLite storage backend.
// It initializes the database schema and enables WAL mode if configured.
func NewSQLiteStore(config *SQLiteConfig) (*SQLiteStore, error) {
	if config == nil {
		config = DefaultSQLiteConfig()
	}

	logger := slog.Default().With("component", "kv.sqlite")

	db, err := sql.Open("sqlite3", config.Path)
	if err != nil {
		return nil, NewStorageError("sqlite", "open", err)
	}
	db.SetMaxOpenConns(config.MaxOpenConns)

	s := &SQLiteStore{
		db:     db,
		config: config,
		logger: logger,
	}

	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info("SQLite key-value store initialized",
		"path", config.Path,
		"wal_mode", config.WALMode,
	)

	return s, nil
}

// initialize sets up the database schema and pragmas.
func (s *SQLiteStore) initialize() error {
	if s.config.WALMode {
		if _, err := s.db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			return NewStorageError("sqlite", "pragma", err)
		}
	}
	if s.config.BusyTimeout > 0 {
		pragma := fmt.Sprintf("PRAGMA busy_timeout=%d", s.config.BusyTimeout.Milliseconds())
		if _, err := s.db.Exec(pragma); err != nil {
			return NewStorageError("sqlite", "pragma", err)
		}
	}

	if _, err := s.db.Exec(Schema); err != nil {
		return NewStorageError("sqlite", "schema", err)
	}

	_, err := s.db.Exec(
		"INSERT OR IGNORE INTO schema_version (version, applied_at) VALUES (?, ?)",
		SchemaVersion, time.Now().UTC(),
	)
	if err != nil {
		return NewStorageError("sqlite", "schema", err)
	}
	return nil
}

// GetString returns the string stored under (namespace, key).
func (s *SQLiteStore) GetString(ctx context.Context, namespace, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx,
		"SELECT value FROM kv_entries WHERE namespace = ? AND key = ?",
		namespace, key,
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", NewStorageError("sqlite", "get", err)
	}
	return value, nil
}

// SetString durably stores value under (namespace, key).
func (s *SQLiteStore) SetString(ctx context.Context, namespace, key, value string) error {
	return s.set(ctx, namespace, key, value)
}

// GetUint returns the unsigned integer stored under (namespace, key).
func (s *SQLiteStore) GetUint(ctx context.Context, namespace, key string) (uint64, error) {
	raw, err := s.GetString(ctx, namespace, key)
	if err != nil {
		return 0, err
	}
	n, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, NewStorageError("sqlite", "get", fmt.Errorf("value %q is not an unsigned integer: %w", raw, err))
	}
	return n, nil
}

// SetUint durably stores value under (namespace, key).
func (s *SQLiteStore) SetUint(ctx context.Context, namespace, key string, value uint64) error {
	return s.set(ctx, namespace, key, strconv.FormatUint(value, 10))
}

func (s *SQLiteStore) set(ctx context.Context, namespace, key, value string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return NewStorageError("sqlite", "set", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	_, err = tx.ExecContext(ctx,
		`INSERT INTO kv_entries (namespace, key, value, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(namespace, key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		namespace, key, value, now,
	)
	if err != nil {
		return NewStorageError("sqlite", "set", err)
	}

	_, err = tx.ExecContext(ctx,
		"INSERT INTO kv_changelog (namespace, key, action, value, changed_at) VALUES (?, ?, 'set', ?, ?)",
		namespace, key, value, now,
	)
	if err != nil {
		return NewStorageError("sqlite", "set", err)
	}

	if err := tx.Commit(); err != nil {
		return NewStorageError("sqlite", "set", err)
	}
	return nil
}

// Erase removes the value stored under (namespace, key).
// Erasing an absent key is not an error.
func (s *SQLiteStore) Erase(ctx context.Context, namespace, key string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return NewStorageError("sqlite", "erase", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		"DELETE FROM kv_entries WHERE namespace = ? AND key = ?",
		namespace, key,
	)
	if err != nil {
		return NewStorageError("sqlite", "erase", err)
	}

	// Only removed keys show up in the audit trail.
	if n, _ := res.RowsAffected(); n > 0 {
		_, err = tx.ExecContext(ctx,
			"INSERT INTO kv_changelog (namespace, key, action, value, changed_at) VALUES (?, ?, 'erase', NULL, ?)",
			namespace, key, time.Now().UTC(),
		)
		if err != nil {
			return NewStorageError("sqlite", "erase", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return NewStorageError("sqlite", "erase", err)
	}
	return nil
}

// PruneChangelog deletes audit rows older than cutoff and returns the number
// of rows removed.
func (s *SQLiteStore) PruneChangelog(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM kv_changelog WHERE changed_at < ?", cutoff.UTC(),
	)
	if err != nil {
		return 0, NewStorageError("sqlite", "prune", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, NewStorageError("sqlite", "prune", err)
	}
	return n, nil
}

// ChangelogCount returns the number of rows currently in the audit trail.
func (s *SQLiteStore) ChangelogCount(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM kv_changelog").Scan(&n)
	if err != nil {
		return 0, NewStorageError("sqlite", "count", err)
	}
	return n, nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	if err := s.db.Close(); err != nil {
		return NewStorageError("sqlite", "close", err)
	}
	return nil
}
