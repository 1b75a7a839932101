// Package securestore is the encrypted key-value store backing the client's
// persisted session state (auth tokens and the cached user profile).
//
// # Overview
//
// The package provides:
//  1. A storage contract (see the Store interface) with single-entry and
//     transactional multi-entry operations. Values are arbitrary
//     JSON-serializable Go values; callers never see ciphertext.
//  2. A concrete SQLite implementation (see SQLiteStore) that seals every
//     value with AES-256-GCM before it reaches the database file.
//  3. Bootstrap utilities (InitDatabase, RunMigrations, LoadDeviceKey) wiring
//     an SQLite database with embedded goose migrations and deriving the
//     sealing key from a device secret kept in a key file.
//
// # Error Handling
//
// A missing key is reported as common.ErrNotFound; a wrong or replaced key
// file is reported as ErrKeyMismatch. Both can be matched with errors.Is.
//
// # Concurrency & Contexts
//
// SQLiteStore is safe for concurrent use. All operations accept
// context.Context and honor cancellation/timeouts.
package securestore
