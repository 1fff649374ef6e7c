package sqlite

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vanadium23/obsidian-digital-garden/internal/domain/port/driven"
)

func testKey() []byte {
	return bytes.Repeat([]byte{0x42}, 32)
}

func TestCredentialRepo_SetAndGet(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCredentialRepo(db, testKey())
	ctx := context.Background()

	require.NoError(t, repo.Set(ctx, "github", "ghp_abc123"))

	val, err := repo.Get(ctx, "github")
	require.NoError(t, err)
	assert.Equal(t, "ghp_abc123", val)
}

func TestCredentialRepo_GetMissing(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCredentialRepo(db, testKey())

	val, err := repo.Get(context.Background(), "github")
	require.NoError(t, err)
	assert.Empty(t, val)
}

func TestCredentialRepo_UpsertOverwrites(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCredentialRepo(db, testKey())
	ctx := context.Background()

	require.NoError(t, repo.Set(ctx, "github", "old-value"))
	require.NoError(t, repo.Set(ctx, "github", "new-value"))

	val, err := repo.Get(ctx, "github")
	require.NoError(t, err)
	assert.Equal(t, "new-value", val)

	creds, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, creds, 1)
}

func TestCredentialRepo_StoredValueIsEncrypted(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCredentialRepo(db, testKey())
	ctx := context.Background()

	require.NoError(t, repo.Set(ctx, "github", "ghp_secret"))

	var raw string
	require.NoError(t, db.Reader.QueryRowContext(ctx, `SELECT value FROM credentials WHERE service = ?`, "github").Scan(&raw))
	assert.NotContains(t, raw, "ghp_secret")
}

func TestCredentialRepo_List(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCredentialRepo(db, testKey())
	ctx := context.Background()

	require.NoError(t, repo.Set(ctx, "github", "ghp_abc"))
	require.NoError(t, repo.Set(ctx, "netlify", "nf_xyz"))

	creds, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, creds, 2)

	assert.Equal(t, "github", creds[0].Service)
	assert.Equal(t, "ghp_abc", creds[0].Value)
	assert.Equal(t, "netlify", creds[1].Service)
	assert.False(t, creds[0].UpdatedAt.IsZero())
}

func TestCredentialRepo_Delete(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCredentialRepo(db, testKey())
	ctx := context.Background()

	require.NoError(t, repo.Set(ctx, "github", "ghp_abc"))
	require.NoError(t, repo.Delete(ctx, "github"))

	val, err := repo.Get(ctx, "github")
	require.NoError(t, err)
	assert.Empty(t, val)
}

func TestCredentialRepo_WrongKeyFailsToDecrypt(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	require.NoError(t, NewCredentialRepo(db, testKey()).Set(ctx, "github", "ghp_abc"))

	other := NewCredentialRepo(db, bytes.Repeat([]byte{0x07}, 32))
	_, err := other.Get(ctx, "github")
	require.Error(t, err)
}

func TestCredentialRepo_NoKey(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCredentialRepo(db, nil)
	ctx := context.Background()

	err := repo.Set(ctx, "github", "ghp_abc")
	require.ErrorIs(t, err, driven.ErrEncryptionKeyNotSet)

	_, err = repo.Get(ctx, "github")
	require.ErrorIs(t, err, driven.ErrEncryptionKeyNotSet)

	_, err = repo.List(ctx)
	require.ErrorIs(t, err, driven.ErrEncryptionKeyNotSet)
}

func TestCredentialRepo_SealedValueBoundToService(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCredentialRepo(db, testKey())
	ctx := context.Background()

	require.NoError(t, repo.Set(ctx, "github", "ghp_abc"))
	require.NoError(t, repo.Set(ctx, "netlify", "nf_xyz"))

	_, err := db.Writer.ExecContext(ctx,
		`UPDATE credentials SET value = (SELECT value FROM credentials WHERE service = 'github') WHERE service = 'netlify'`)
	require.NoError(t, err)

	_, err = repo.Get(ctx, "netlify")
	assert.Error(t, err)
}
