package settings

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"dgexport/db"
	"dgexport/models"
)

func setupSettingsTest(t *testing.T) (*SettingsService, context.Context) {
	conn, err := db.NewConnection(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	return NewSettingsService(db.NewSQLiteSettingsRepository(conn)), context.Background()
}

func TestSettingsService_AccessToken(t *testing.T) {
	service, ctx := setupSettingsTest(t)

	t.Run("missing token is None", func(t *testing.T) {
		token, err := service.GetGitHubAccessToken(ctx)
		require.NoError(t, err)
		assert.True(t, token.IsAbsent())
	})

	t.Run("stored token is returned", func(t *testing.T) {
		require.NoError(t, service.SetGitHubAccessToken(ctx, "gho_123"))

		token, err := service.GetGitHubAccessToken(ctx)
		require.NoError(t, err)
		assert.Equal(t, "gho_123", token.OrEmpty())
	})

	t.Run("cleared token is None", func(t *testing.T) {
		require.NoError(t, service.ClearGitHubAccessToken(ctx))

		token, err := service.GetGitHubAccessToken(ctx)
		require.NoError(t, err)
		assert.True(t, token.IsAbsent())
	})
}

func TestSettingsService_Destination(t *testing.T) {
	t.Run("round trips valid destinations", func(t *testing.T) {
		service, ctx := setupSettingsTest(t)

		require.NoError(t, service.SetGitHubDestination(ctx, models.GitHubDestinationFile))
		dest, err := service.GetGitHubDestination(ctx)
		require.NoError(t, err)
		assert.Equal(t, models.GitHubDestinationFile, dest.MustGet())
	})

	t.Run("rejects unknown destination", func(t *testing.T) {
		service, ctx := setupSettingsTest(t)

		err := service.SetGitHubDestination(ctx, "Wiki")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "expects one of")
	})

	t.Run("ignores a corrupt stored value", func(t *testing.T) {
		store := NewMemoryStore()
		ctx := context.Background()
		require.NoError(t, store.Set(ctx, models.SettingKeyGitHubDestination, "Wiki"))

		dest, err := NewSettingsService(store).GetGitHubDestination(ctx)
		require.NoError(t, err)
		assert.True(t, dest.IsAbsent())
	})
}

func TestSettingsService_SelectedRepo(t *testing.T) {
	service, ctx := setupSettingsTest(t)

	require.NoError(t, service.SetSelectedRepo(ctx, "octo/notes"))
	repo, err := service.GetSelectedRepo(ctx)
	require.NoError(t, err)
	assert.Equal(t, "octo/notes", repo.OrEmpty())
}

func TestSettingsService_ValidateKey(t *testing.T) {
	service := &SettingsService{}

	t.Run("rejects unsupported key", func(t *testing.T) {
		err := service.validateKey("invalid/key", "x")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "unsupported setting key")
	})

	t.Run("accepts free-form string keys", func(t *testing.T) {
		assert.NoError(t, service.validateKey(models.SettingKeyGitHubSelectedRepo, "anything/goes"))
	})

	t.Run("unsupported key on read", func(t *testing.T) {
		_, err := NewSettingsService(NewMemoryStore()).GetStringSetting(context.Background(), "invalid/key")
		assert.Error(t, err)
	})
}

func TestSettingsService_StoreErrors(t *testing.T) {
	ctx := context.Background()
	store := new(MockKeyValueStore)
	service := NewSettingsService(store)

	store.On("Get", mock.Anything, models.SettingKeyGitHubOAuthToken).Return("", errors.New("disk I/O error"))
	store.On("Set", mock.Anything, models.SettingKeyGitHubSelectedRepo, "octo/notes").Return(errors.New("readonly database"))

	_, err := service.GetGitHubAccessToken(ctx)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to get string setting")

	err = service.SetSelectedRepo(ctx, "octo/notes")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to upsert string setting")

	store.AssertExpectations(t)
}
