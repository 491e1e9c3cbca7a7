package sqlitestore

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	authclient "github.com/goliatone/go-auth-client"
)

func setupStorage(t *testing.T) *Storage {
	t.Helper()

	s, err := Open(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStorage_SetGetRemove(t *testing.T) {
	s := setupStorage(t)
	ctx := context.Background()

	_, found, err := s.Get(ctx, "token")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, s.Set(ctx, "token", "first"))
	require.NoError(t, s.Set(ctx, "token", "second"))

	value, found, err := s.Get(ctx, "token")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "second", value)

	require.NoError(t, s.Remove(ctx, "token"))
	require.NoError(t, s.Remove(ctx, "token"))

	_, found, err = s.Get(ctx, "token")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestStorage_SessionSurvivesReopen(t *testing.T) {
	dsn := "file:" + filepath.Join(t.TempDir(), "session.db")
	ctx := context.Background()

	first, err := Open(ctx, dsn)
	require.NoError(t, err)

	store := authclient.NewStore(first)
	require.NoError(t, store.SetCurrent(ctx, &authclient.Identity{
		ID:       1,
		Username: "admin",
		Email:    "admin@example.com",
		Role:     authclient.RoleAdmin,
		Token:    "tok-admin",
	}))
	require.NoError(t, first.Close())

	second, err := Open(ctx, dsn)
	require.NoError(t, err)
	defer second.Close()

	restored := authclient.NewStore(second).Restore(ctx)
	require.NotNil(t, restored)
	assert.Equal(t, int64(1), restored.ID)
	assert.Equal(t, authclient.RoleAdmin, restored.Role)
	assert.Equal(t, "tok-admin", restored.Token)
}

func TestStorage_CorruptRecordRestoresAnonymous(t *testing.T) {
	s := setupStorage(t)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, authclient.StorageKeyToken, "tok"))
	require.NoError(t, s.Set(ctx, authclient.StorageKeyCurrentUser, "{not json"))

	store := authclient.NewStore(s, authclient.WithStoreLogger(authclient.NopLogger()))
	assert.Nil(t, store.Restore(ctx))
	assert.False(t, store.IsAuthenticated())
}
