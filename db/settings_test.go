package db

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dgexport/core"
)

func setupSettingsRepoTest(t *testing.T, path string) *SQLiteSettingsRepository {
	conn, err := NewConnection(path)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	return NewSQLiteSettingsRepository(conn)
}

func TestSQLiteSettingsRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("get missing key returns not found", func(t *testing.T) {
		repo := setupSettingsRepoTest(t, ":memory:")

		_, err := repo.Get(ctx, "github/oauth_token")
		assert.True(t, core.IsNotFoundError(err))
	})

	t.Run("set then get", func(t *testing.T) {
		repo := setupSettingsRepoTest(t, ":memory:")

		require.NoError(t, repo.Set(ctx, "github/selected_repo", "octo/notes"))
		value, err := repo.Get(ctx, "github/selected_repo")
		require.NoError(t, err)
		assert.Equal(t, "octo/notes", value)
	})

	t.Run("set overwrites", func(t *testing.T) {
		repo := setupSettingsRepoTest(t, ":memory:")

		require.NoError(t, repo.Set(ctx, "github/destination", "Issue"))
		require.NoError(t, repo.Set(ctx, "github/destination", "File"))
		value, err := repo.Get(ctx, "github/destination")
		require.NoError(t, err)
		assert.Equal(t, "File", value)

		settings, err := repo.List(ctx)
		require.NoError(t, err)
		assert.Len(t, settings, 1)
	})

	t.Run("delete is idempotent", func(t *testing.T) {
		repo := setupSettingsRepoTest(t, ":memory:")

		require.NoError(t, repo.Set(ctx, "github/oauth_token", "gho_abc"))
		require.NoError(t, repo.Delete(ctx, "github/oauth_token"))
		require.NoError(t, repo.Delete(ctx, "github/oauth_token"))

		_, err := repo.Get(ctx, "github/oauth_token")
		assert.True(t, core.IsNotFoundError(err))
	})

	t.Run("values survive reopening the file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "store", "dgexport.db")

		first, err := NewConnection(path)
		require.NoError(t, err)
		require.NoError(t, NewSQLiteSettingsRepository(first).Set(ctx, "github/selected_repo", "octo/graph"))
		require.NoError(t, first.Close())

		repo := setupSettingsRepoTest(t, path)
		value, err := repo.Get(ctx, "github/selected_repo")
		require.NoError(t, err)
		assert.Equal(t, "octo/graph", value)
	})
}
