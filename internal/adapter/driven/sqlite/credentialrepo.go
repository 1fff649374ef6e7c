package sqlite

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"database/sql"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/vanadium23/obsidian-digital-garden/internal/domain/model"
	"github.com/vanadium23/obsidian-digital-garden/internal/domain/port/driven"
)

var _ driven.CredentialStore = (*CredentialRepo)(nil)

// CredentialRepo keeps service tokens in the credentials table, sealed with
// AES-256-GCM. The service name is bound as additional data, so a sealed
// value copied to another row does not open.
type CredentialRepo struct {
	db  *DB
	key []byte
	now func() time.Time
}

// NewCredentialRepo creates a CredentialRepo. With a nil key every operation
// except Delete returns driven.ErrEncryptionKeyNotSet.
func NewCredentialRepo(db *DB, key []byte) *CredentialRepo {
	return &CredentialRepo{db: db, key: key, now: time.Now}
}

// Set stores or replaces the token for service.
func (r *CredentialRepo) Set(ctx context.Context, service, token string) error {
	sealed, err := r.seal(service, token)
	if err != nil {
		return err
	}

	_, err = r.db.Writer.ExecContext(ctx,
		`INSERT INTO credentials (service, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(service) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		service, sealed, formatTime(r.now()),
	)
	if err != nil {
		return fmt.Errorf("store %s credential: %w", service, err)
	}
	return nil
}

// Get returns ("", nil) when nothing is stored for service.
func (r *CredentialRepo) Get(ctx context.Context, service string) (string, error) {
	if r.key == nil {
		return "", driven.ErrEncryptionKeyNotSet
	}

	var sealed string
	err := r.db.Reader.QueryRowContext(ctx, `SELECT value FROM credentials WHERE service = ?`, service).Scan(&sealed)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return "", nil
	case err != nil:
		return "", fmt.Errorf("load %s credential: %w", service, err)
	}
	return r.open(service, sealed)
}

// List returns every stored credential, opened, ordered by service.
func (r *CredentialRepo) List(ctx context.Context) ([]model.Credential, error) {
	if r.key == nil {
		return nil, driven.ErrEncryptionKeyNotSet
	}

	rows, err := r.db.Reader.QueryContext(ctx, `SELECT id, service, value, updated_at FROM credentials ORDER BY service`)
	if err != nil {
		return nil, fmt.Errorf("list credentials: %w", err)
	}
	defer rows.Close()

	var out []model.Credential
	for rows.Next() {
		var (
			c         model.Credential
			sealed    string
			updatedAt string
		)
		if err := rows.Scan(&c.ID, &c.Service, &sealed, &updatedAt); err != nil {
			return nil, fmt.Errorf("scan credential: %w", err)
		}
		if c.Value, err = r.open(c.Service, sealed); err != nil {
			return nil, err
		}
		if c.UpdatedAt, err = parseTime(updatedAt); err != nil {
			return nil, fmt.Errorf("%s credential updated_at: %w", c.Service, err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Delete removes the token for service. It does not need the key.
func (r *CredentialRepo) Delete(ctx context.Context, service string) error {
	if _, err := r.db.Writer.ExecContext(ctx, `DELETE FROM credentials WHERE service = ?`, service); err != nil {
		return fmt.Errorf("delete %s credential: %w", service, err)
	}
	return nil
}

// seal returns base64(nonce || ciphertext).
func (r *CredentialRepo) seal(service, token string) (string, error) {
	aead, err := r.aead()
	if err != nil {
		return "", err
	}

	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("credential nonce: %w", err)
	}
	return base64.StdEncoding.EncodeToString(aead.Seal(nonce, nonce, []byte(token), []byte(service))), nil
}

func (r *CredentialRepo) open(service, sealed string) (string, error) {
	aead, err := r.aead()
	if err != nil {
		return "", err
	}

	raw, err := base64.StdEncoding.DecodeString(sealed)
	if err != nil {
		return "", fmt.Errorf("%s credential is not base64: %w", service, err)
	}
	n := aead.NonceSize()
	if len(raw) < n {
		return "", fmt.Errorf("%s credential is truncated", service)
	}

	token, err := aead.Open(nil, raw[:n], raw[n:], []byte(service))
	if err != nil {
		return "", fmt.Errorf("%s credential does not open with the configured key: %w", service, err)
	}
	return string(token), nil
}

func (r *CredentialRepo) aead() (cipher.AEAD, error) {
	if r.key == nil {
		return nil, driven.ErrEncryptionKeyNotSet
	}
	block, err := aes.NewCipher(r.key)
	if err != nil {
		return nil, fmt.Errorf("credential key: %w", err)
	}
	return cipher.NewGCM(block)
}
