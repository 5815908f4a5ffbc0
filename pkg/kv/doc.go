// Package kv provides the namespaced key-value persistence boundary used by
// the proxy configuration store.
//
// # Backends
//
// The package defines the Store interface and provides two implementations:
//
//   - SQLite: durable single-file storage for device deployments
//   - Memory: in-memory storage for testing
//
// Values are strings and small unsigned integers addressed by a
// (namespace, key) pair. A persisted value always takes precedence over a
// compiled-in default at the layer above; this package only stores and
// retrieves.
//
// # SQLite Backend
//
// The SQLite backend keeps all entries in one kv_entries table and records
// every mutation in a kv_changelog audit table. The changelog is pruned on a
// schedule by the retention sweeper (see Sweeper).
//
// # Basic Usage
//
//	store, err := kv.NewSQLiteStore(&kv.SQLiteConfig{Path: "data/skyhook.db"})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer store.Close()
//
//	err = store.SetString(ctx, "proxy", "host", "proxy.example.net")
//	host, err := store.GetString(ctx, "proxy", "host")
package kv
