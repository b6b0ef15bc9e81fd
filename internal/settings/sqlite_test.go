package settings

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plmdeck/backend/internal/plm"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()

	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "settings.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	return repo
}

func TestRepositoryRoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	// Missing keys read as empty, not as errors.
	value, err := repo.Get(ctx, "missing")
	require.NoError(t, err)
	assert.Equal(t, "", value)

	require.NoError(t, repo.Set(ctx, "detail_level", "brief"))
	value, err = repo.Get(ctx, "detail_level")
	require.NoError(t, err)
	assert.Equal(t, "brief", value)

	// Upsert overwrites in place.
	require.NoError(t, repo.Set(ctx, "detail_level", "detailed"))
	value, err = repo.Get(ctx, "detail_level")
	require.NoError(t, err)
	assert.Equal(t, "detailed", value)

	require.NoError(t, repo.Delete(ctx, "detail_level"))
	value, err = repo.Get(ctx, "detail_level")
	require.NoError(t, err)
	assert.Equal(t, "", value)
}

func TestStoreSessionLifecycle(t *testing.T) {
	store := NewStore(newTestRepo(t))
	ctx := context.Background()

	sess := plm.Session{
		Token:       "tok-123",
		UserEmail:   "eng@example.com",
		WorkspaceID: "ws-9",
		CreatedAt:   time.Now().UTC().Truncate(time.Second),
	}
	require.NoError(t, store.SaveSession(ctx, sess))

	loaded := store.Session(ctx)
	assert.Equal(t, sess.Token, loaded.Token)
	assert.Equal(t, sess.UserEmail, loaded.UserEmail)
	assert.Equal(t, sess.WorkspaceID, loaded.WorkspaceID)
	assert.True(t, sess.CreatedAt.Equal(loaded.CreatedAt))

	assert.Equal(t, "tok-123", store.SessionToken(ctx))

	store.ClearSession(ctx)
	assert.Equal(t, "", store.SessionToken(ctx))
	assert.Equal(t, "", store.Session(ctx).UserEmail)
}

func TestStoreValidityCache(t *testing.T) {
	store := NewStore(newTestRepo(t))
	ctx := context.Background()

	_, ok := store.ValidityCache(ctx)
	assert.False(t, ok, "unset cache must read as absent")

	store.SetValidityCache(ctx, true)
	cached, ok := store.ValidityCache(ctx)
	require.True(t, ok)
	assert.True(t, cached.Valid)
	assert.WithinDuration(t, time.Now(), cached.CheckedAt, time.Minute)

	store.SetValidityCache(ctx, false)
	cached, ok = store.ValidityCache(ctx)
	require.True(t, ok)
	assert.False(t, cached.Valid)
}

func TestStoreDefaults(t *testing.T) {
	store := NewStore(newTestRepo(t))
	ctx := context.Background()

	assert.Equal(t, "medium", store.DetailLevel(ctx))
	assert.Equal(t, "", store.APIKey(ctx))

	require.NoError(t, store.SetDetailLevel(ctx, "brief"))
	assert.Equal(t, "brief", store.DetailLevel(ctx))

	require.NoError(t, store.SetAPIKey(ctx, "secret-key"))
	assert.Equal(t, "secret-key", store.APIKey(ctx))
}

func TestStoreSchemaConfig(t *testing.T) {
	store := NewStore(newTestRepo(t))
	ctx := context.Background()

	// Unset config reads as the empty skeleton.
	cfg := store.Schema(ctx)
	assert.Empty(t, cfg.Item.Fields)

	cfg.Item.Fields = []string{"number", "name"}
	cfg.Item.Instructions = "focus on sourcing"
	require.NoError(t, store.SetSchemaConfig(ctx, cfg))

	loaded := store.Schema(ctx)
	assert.Equal(t, []string{"number", "name"}, loaded.Item.Fields)
	assert.Equal(t, "focus on sourcing", loaded.Item.Instructions)

	// Corrupt blobs degrade to the skeleton instead of erroring.
	require.NoError(t, store.Repo().Set(ctx, KeySchemaConfig, "{not json"))
	assert.Empty(t, store.Schema(ctx).Item.Fields)
}
