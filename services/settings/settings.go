package settings

import (
	"context"
	"fmt"
	"slices"

	"github.com/samber/mo"

	"dgexport/core"
	"dgexport/core/log"
	"dgexport/models"
)

// KeyValueStore is the durable local storage the session reads its defaults from
type KeyValueStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

type SettingsService struct {
	store KeyValueStore
}

func NewSettingsService(store KeyValueStore) *SettingsService {
	return &SettingsService{store: store}
}

func (s *SettingsService) UpsertStringSetting(ctx context.Context, key string, value string) error {
	log.Debug("📋 Starting to upsert string setting", "key", key)
	if err := s.validateKey(key, value); err != nil {
		return fmt.Errorf("invalid setting: %w", err)
	}

	if err := s.store.Set(ctx, key, value); err != nil {
		return fmt.Errorf("failed to upsert string setting: %w", err)
	}

	log.Debug("📋 Completed successfully - upserted string setting", "key", key)
	return nil
}

func (s *SettingsService) GetStringSetting(ctx context.Context, key string) (mo.Option[string], error) {
	if _, exists := models.SupportedSettings[key]; !exists {
		return mo.None[string](), fmt.Errorf("unsupported setting key: %s", key)
	}

	value, err := s.store.Get(ctx, key)
	if err != nil {
		if core.IsNotFoundError(err) {
			return mo.None[string](), nil
		}
		return mo.None[string](), fmt.Errorf("failed to get string setting: %w", err)
	}

	if value == "" {
		return mo.None[string](), nil
	}
	return mo.Some(value), nil
}

func (s *SettingsService) DeleteSetting(ctx context.Context, key string) error {
	if _, exists := models.SupportedSettings[key]; !exists {
		return fmt.Errorf("unsupported setting key: %s", key)
	}

	if err := s.store.Delete(ctx, key); err != nil {
		return fmt.Errorf("failed to delete setting: %w", err)
	}

	log.Debug("📋 Completed successfully - deleted setting", "key", key)
	return nil
}

func (s *SettingsService) GetGitHubAccessToken(ctx context.Context) (mo.Option[string], error) {
	return s.GetStringSetting(ctx, models.SettingKeyGitHubOAuthToken)
}

func (s *SettingsService) SetGitHubAccessToken(ctx context.Context, token string) error {
	return s.UpsertStringSetting(ctx, models.SettingKeyGitHubOAuthToken, token)
}

func (s *SettingsService) ClearGitHubAccessToken(ctx context.Context) error {
	return s.DeleteSetting(ctx, models.SettingKeyGitHubOAuthToken)
}

func (s *SettingsService) GetSelectedRepo(ctx context.Context) (mo.Option[string], error) {
	return s.GetStringSetting(ctx, models.SettingKeyGitHubSelectedRepo)
}

func (s *SettingsService) SetSelectedRepo(ctx context.Context, fullName string) error {
	return s.UpsertStringSetting(ctx, models.SettingKeyGitHubSelectedRepo, fullName)
}

// GetGitHubDestination falls back to None when the stored value is not a known destination
func (s *SettingsService) GetGitHubDestination(ctx context.Context) (mo.Option[models.GitHubDestination], error) {
	value, err := s.GetStringSetting(ctx, models.SettingKeyGitHubDestination)
	if err != nil {
		return mo.None[models.GitHubDestination](), err
	}
	raw, ok := value.Get()
	if !ok {
		return mo.None[models.GitHubDestination](), nil
	}

	dest, err := models.ParseGitHubDestination(raw)
	if err != nil {
		log.Warn("⚠️ Ignoring stored github destination", "value", raw)
		return mo.None[models.GitHubDestination](), nil
	}
	return mo.Some(dest), nil
}

func (s *SettingsService) SetGitHubDestination(ctx context.Context, dest models.GitHubDestination) error {
	return s.UpsertStringSetting(ctx, models.SettingKeyGitHubDestination, string(dest))
}

func (s *SettingsService) validateKey(key string, value string) error {
	keyDef, exists := models.SupportedSettings[key]
	if !exists {
		return fmt.Errorf("unsupported setting key: %s", key)
	}

	if keyDef.Type == models.SettingTypeEnum && !slices.Contains(keyDef.Allowed, value) {
		return fmt.Errorf("setting key %s expects one of %v, got %q", key, keyDef.Allowed, value)
	}

	return nil
}
