package securestore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/parkit-app/parkit-go/internal/common"
	"github.com/parkit-app/parkit-go/internal/cryptox"
	"github.com/parkit-app/parkit-go/internal/dbx"
)

// Store is the contract the session services persist through. Values are
// JSON-serialized and sealed before they hit disk; Get unseals into v.
//
// Contract:
//   - Get: decode the value stored under key into v; common.ErrNotFound if
//     the key is absent.
//   - Set: insert or overwrite a single entry.
//   - SetMany / DeleteMany: apply all writes in one transaction, so related
//     entries (user + tokens) can never be observed half-written.
//   - Delete / Clear: idempotent removal.
type Store interface {
	Get(ctx context.Context, key string, v any) error
	Set(ctx context.Context, key string, v any) error
	SetMany(ctx context.Context, entries map[string]any) error
	Delete(ctx context.Context, key string) error
	DeleteMany(ctx context.Context, keys ...string) error
	Clear(ctx context.Context) error
}

// SQLiteStore is the Store implementation over a migrated SQLite database.
// Every value is sealed with AES-256-GCM under the device key.
type SQLiteStore struct {
	db  *sql.DB
	key []byte
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore binds a store to an open database and a sealing key
// obtained from LoadDeviceKey.
func NewSQLiteStore(db *sql.DB, key []byte) *SQLiteStore {
	return &SQLiteStore{db: db, key: key}
}

func (s *SQLiteStore) Get(ctx context.Context, key string, v any) error {
	var nonce, value []byte
	err := s.db.QueryRowContext(ctx, `SELECT nonce, value FROM secrets WHERE key = ?`, key).Scan(&nonce, &value)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("secrets[%s]: %w", key, common.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to get secrets[%s]: %w", key, err)
	}
	if err := cryptox.DecryptEntry(value, nonce, s.key, v); err != nil {
		return fmt.Errorf("failed to unseal secrets[%s]: %w", key, err)
	}
	return nil
}

func (s *SQLiteStore) Set(ctx context.Context, key string, v any) error {
	return s.set(ctx, s.db, key, v)
}

func (s *SQLiteStore) SetMany(ctx context.Context, entries map[string]any) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		for key, v := range entries {
			if err := s.set(ctx, tx, key, v); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *SQLiteStore) Delete(ctx context.Context, key string) error {
	return s.delete(ctx, s.db, key)
}

func (s *SQLiteStore) DeleteMany(ctx context.Context, keys ...string) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		for _, key := range keys {
			if err := s.delete(ctx, tx, key); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *SQLiteStore) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM secrets`); err != nil {
		return fmt.Errorf("failed to clear secrets: %w", err)
	}
	return nil
}

func (s *SQLiteStore) set(ctx context.Context, q dbx.DBTX, key string, v any) error {
	ciphertext, nonce, err := cryptox.EncryptEntry(v, s.key)
	if err != nil {
		return fmt.Errorf("failed to seal secrets[%s]: %w", key, err)
	}
	_, err = q.ExecContext(ctx, `
		INSERT INTO secrets (key, nonce, value) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET nonce = excluded.nonce, value = excluded.value
	`, key, nonce, ciphertext)
	if err != nil {
		return fmt.Errorf("failed to set secrets[%s]: %w", key, err)
	}
	return nil
}

func (s *SQLiteStore) delete(ctx context.Context, q dbx.DBTX, key string) error {
	if _, err := q.ExecContext(ctx, `DELETE FROM secrets WHERE key = ?`, key); err != nil {
		return fmt.Errorf("failed to delete secrets[%s]: %w", key, err)
	}
	return nil
}
