package kv

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// createTempStore creates a temporary SQLite store for testing.
func createTempStore(t *testing.T) (*SQLiteStore, string) {
	t.Helper()

	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	config := &SQLiteConfig{
		Path:         dbPath,
		MaxOpenConns: 2,
		WALMode:      true,
		BusyTimeout:  5 * time.Second,
	}

	store, err := NewSQLiteStore(config)
	if err != nil {
		t.Fatalf("Failed to create SQLite store: %v", err)
	}

	return store, dbPath
}

// TestSQLiteStore_Initialize tests database initialization.
func TestSQLiteStore_Initialize(t *testing.T) {
	store, dbPath := createTempStore(t)
	defer store.Close()

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("Database file was not created")
	}
}

// TestSQLiteStore_SetAndGet tests storing and reading string values.
func TestSQLiteStore_SetAndGet(t *testing.T) {
	store, _ := createTempStore(t)
	defer store.Close()

	ctx := context.Background()

	if err := store.SetString(ctx, "ns", "host", "proxy.example.com"); err != nil {
		t.Fatalf("SetString() failed: %v", err)
	}

	got, err := store.GetString(ctx, "ns", "host")
	if err != nil {
		t.Fatalf("GetString() failed: %v", err)
	}
	if got != "proxy.example.com" {
		t.Errorf("GetString() = %q, want %q", got, "proxy.example.com")
	}
}

// TestSQLiteStore_GetMissing verifies ErrNotFound for absent keys.
func TestSQLiteStore_GetMissing(t *testing.T) {
	store, _ := createTempStore(t)
	defer store.Close()

	ctx := context.Background()

	if _, err := store.GetString(ctx, "ns", "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetString() error = %v, want ErrNotFound", err)
	}
	if _, err := store.GetUint(ctx, "ns", "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetUint() error = %v, want ErrNotFound", err)
	}
}

// TestSQLiteStore_Overwrite tests that Set replaces a previous value.
func TestSQLiteStore_Overwrite(t *testing.T) {
	store, _ := createTempStore(t)
	defer store.Close()

	ctx := context.Background()

	if err := store.SetString(ctx, "ns", "key", "first"); err != nil {
		t.Fatalf("SetString() failed: %v", err)
	}
	if err := store.SetString(ctx, "ns", "key", "second"); err != nil {
		t.Fatalf("SetString() failed: %v", err)
	}

	got, err := store.GetString(ctx, "ns", "key")
	if err != nil {
		t.Fatalf("GetString() failed: %v", err)
	}
	if got != "second" {
		t.Errorf("GetString() = %q, want %q", got, "second")
	}
}

// TestSQLiteStore_Uint tests unsigned integer round-tripping.
func TestSQLiteStore_Uint(t *testing.T) {
	store, _ := createTempStore(t)
	defer store.Close()

	ctx := context.Background()

	if err := store.SetUint(ctx, "ns", "port", 8080); err != nil {
		t.Fatalf("SetUint() failed: %v", err)
	}

	got, err := store.GetUint(ctx, "ns", "port")
	if err != nil {
		t.Fatalf("GetUint() failed: %v", err)
	}
	if got != 8080 {
		t.Errorf("GetUint() = %d, want 8080", got)
	}
}

// TestSQLiteStore_GetUintMalformed verifies a StorageError when the stored
// value is not an unsigned integer.
func TestSQLiteStore_GetUintMalformed(t *testing.T) {
	store, _ := createTempStore(t)
	defer store.Close()

	ctx := context.Background()

	if err := store.SetString(ctx, "ns", "port", "not-a-number"); err != nil {
		t.Fatalf("SetString() failed: %v", err)
	}

	_, err := store.GetUint(ctx, "ns", "port")
	var storageErr *StorageError
	if !errors.As(err, &storageErr) {
		t.Fatalf("GetUint() error = %v, want *StorageError", err)
	}
	if storageErr.Operation != "get" {
		t.Errorf("Operation = %q, want %q", storageErr.Operation, "get")
	}
}

// TestSQLiteStore_Erase tests removal and that erasing an absent key
// succeeds.
func TestSQLiteStore_Erase(t *testing.T) {
	store, _ := createTempStore(t)
	defer store.Close()

	ctx := context.Background()

	if err := store.SetString(ctx, "ns", "key", "value"); err != nil {
		t.Fatalf("SetString() failed: %v", err)
	}
	if err := store.Erase(ctx, "ns", "key"); err != nil {
		t.Fatalf("Erase() failed: %v", err)
	}
	if _, err := store.GetString(ctx, "ns", "key"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetString() after erase error = %v, want ErrNotFound", err)
	}

	// Erasing again must not fail.
	if err := store.Erase(ctx, "ns", "key"); err != nil {
		t.Errorf("Erase() of absent key failed: %v", err)
	}
}

// TestSQLiteStore_NamespaceIsolation tests that identical keys in different
// namespaces do not collide.
func TestSQLiteStore_NamespaceIsolation(t *testing.T) {
	store, _ := createTempStore(t)
	defer store.Close()

	ctx := context.Background()

	if err := store.SetString(ctx, "alpha", "key", "a"); err != nil {
		t.Fatalf("SetString() failed: %v", err)
	}
	if err := store.SetString(ctx, "beta", "key", "b"); err != nil {
		t.Fatalf("SetString() failed: %v", err)
	}

	if got, _ := store.GetString(ctx, "alpha", "key"); got != "a" {
		t.Errorf("alpha/key = %q, want %q", got, "a")
	}
	if got, _ := store.GetString(ctx, "beta", "key"); got != "b" {
		t.Errorf("beta/key = %q, want %q", got, "b")
	}
}

// TestSQLiteStore_SurvivesReopen tests that values persist across store
// instances on the same file.
func TestSQLiteStore_SurvivesReopen(t *testing.T) {
	store, dbPath := createTempStore(t)

	ctx := context.Background()
	if err := store.SetString(ctx, "ns", "key", "persisted"); err != nil {
		t.Fatalf("SetString() failed: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close() failed: %v", err)
	}

	reopened, err := NewSQLiteStore(&SQLiteConfig{Path: dbPath, MaxOpenConns: 2, WALMode: true})
	if err != nil {
		t.Fatalf("Failed to reopen store: %v", err)
	}
	defer reopened.Close()

	got, err := reopened.GetString(ctx, "ns", "key")
	if err != nil {
		t.Fatalf("GetString() after reopen failed: %v", err)
	}
	if got != "persisted" {
		t.Errorf("GetString() = %q, want %q", got, "persisted")
	}
}

// TestSQLiteStore_Changelog tests that mutations are recorded in the audit
// trail and that erasing an absent key is not.
func TestSQLiteStore_Changelog(t *testing.T) {
	store, _ := createTempStore(t)
	defer store.Close()

	ctx := context.Background()

	if err := store.SetString(ctx, "ns", "key", "v1"); err != nil {
		t.Fatalf("SetString() failed: %v", err)
	}
	if err := store.SetString(ctx, "ns", "key", "v2"); err != nil {
		t.Fatalf("SetString() failed: %v", err)
	}
	if err := store.Erase(ctx, "ns", "key"); err != nil {
		t.Fatalf("Erase() failed: %v", err)
	}
	// No-op erase must not add an audit row.
	if err := store.Erase(ctx, "ns", "key"); err != nil {
		t.Fatalf("Erase() failed: %v", err)
	}

	n, err := store.ChangelogCount(ctx)
	if err != nil {
		t.Fatalf("ChangelogCount() failed: %v", err)
	}
	if n != 3 {
		t.Errorf("ChangelogCount() = %d, want 3", n)
	}
}

// TestSQLiteStore_PruneChangelog tests cutoff-based audit pruning.
func TestSQLiteStore_PruneChangelog(t *testing.T) {
	store, _ := createTempStore(t)
	defer store.Close()

	ctx := context.Background()

	if err := store.SetString(ctx, "ns", "key", "value"); err != nil {
		t.Fatalf("SetString() failed: %v", err)
	}

	// A cutoff in the past removes nothing.
	removed, err := store.PruneChangelog(ctx, time.Now().Add(-time.Hour))
	if err != nil {
		t.Fatalf("PruneChangelog() failed: %v", err)
	}
	if removed != 0 {
		t.Errorf("PruneChangelog(past) removed %d rows, want 0", removed)
	}

	// A cutoff in the future removes everything.
	removed, err = store.PruneChangelog(ctx, time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("PruneChangelog() failed: %v", err)
	}
	if removed != 1 {
		t.Errorf("PruneChangelog(future) removed %d rows, want 1", removed)
	}

	n, _ := store.ChangelogCount(ctx)
	if n != 0 {
		t.Errorf("ChangelogCount() after prune = %d, want 0", n)
	}
}
