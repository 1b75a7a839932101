package securestore

import (
	"context"
	"crypto/subtle"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/parkit-app/parkit-go/internal/common"
	"github.com/parkit-app/parkit-go/internal/cryptox"
)

// deviceSecretBytes is the size of the random device secret kept in the key
// file; the hex-encoded file is twice as long.
const deviceSecretBytes = 32

// ErrKeyMismatch is returned when the key file does not match the key the
// database was sealed with (swapped file, restored backup, manual edit).
var ErrKeyMismatch = errors.New("secure store key mismatch")

// LoadDeviceKey returns the AES-256 sealing key for the store.
//
// The key is derived (argon2id) from a random device secret stored in the
// key file at keyPath and a per-database salt. On first run both the key
// file and the salt/verifier row are created. On subsequent runs the derived
// key is checked against the stored verifier; a mismatch means the key file
// no longer belongs to this database and is reported as ErrKeyMismatch.
func LoadDeviceKey(ctx context.Context, db *sql.DB, keyPath string) ([]byte, error) {
	secret, err := readOrCreateSecret(keyPath)
	if err != nil {
		return nil, err
	}
	defer common.WipeByteArray(secret)

	var salt, verifier []byte
	err = db.QueryRowContext(ctx, `SELECT salt, verifier FROM device WHERE id = 1`).Scan(&salt, &verifier)

	if errors.Is(err, sql.ErrNoRows) {
		salt = common.GenerateRandByteArray(16)
		key := cryptox.DeriveMasterKey(secret, salt)
		verifier = cryptox.MakeVerifier(key)

		if _, err := db.ExecContext(ctx,
			`INSERT INTO device (id, salt, verifier) VALUES (1, ?, ?)`, salt, verifier); err != nil {
			return nil, fmt.Errorf("failed to store device salt: %w", err)
		}
		return key, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load device salt: %w", err)
	}

	key := cryptox.DeriveMasterKey(secret, salt)
	if subtle.ConstantTimeCompare(verifier, cryptox.MakeVerifier(key)) == 0 {
		return nil, ErrKeyMismatch
	}
	return key, nil
}

// readOrCreateSecret loads the hex-encoded device secret from path, creating
// a fresh one with 0600 permissions when the file does not exist yet.
func readOrCreateSecret(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err == nil {
		secret, err := hex.DecodeString(strings.TrimSpace(string(data)))
		if err != nil {
			return nil, fmt.Errorf("decode key file %s: %w", path, err)
		}
		return secret, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("read key file %s: %w", path, err)
	}

	encoded, err := common.MakeRandHexString(deviceSecretBytes)
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(path, []byte(encoded+"\n"), 0o600); err != nil {
		return nil, fmt.Errorf("write key file %s: %w", path, err)
	}
	return hex.DecodeString(encoded)
}
