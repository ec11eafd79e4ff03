package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/user/remind-me/personal/internal/models"
)

const SettingsKey = "settings"

type SettingsRepository struct {
	blobs BlobStore
}

func NewSettingsRepository(blobs BlobStore) *SettingsRepository {
	return &SettingsRepository{blobs: blobs}
}

// Load returns the stored notification settings, or the defaults when none
// are stored. Unreadable settings also yield the defaults, alongside the error.
func (r *SettingsRepository) Load(ctx context.Context) (models.NotificationSettings, error) {
	settings := models.DefaultNotificationSettings()

	data, err := r.blobs.Get(ctx, SettingsKey)
	if err != nil {
		if errors.Is(err, ErrBlobNotFound) {
			return settings, nil
		}
		return settings, err
	}

	if err := json.Unmarshal(data, &settings); err != nil {
		return models.DefaultNotificationSettings(), fmt.Errorf("failed to decode settings: %w", err)
	}
	if !settings.Permission.IsValid() {
		settings.Permission = models.PermissionDefault
	}
	if settings.AdvanceNotice < 0 {
		settings.AdvanceNotice = 0
	}
	return settings, nil
}

func (r *SettingsRepository) Save(ctx context.Context, settings models.NotificationSettings) error {
	data, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}
	return r.blobs.Put(ctx, SettingsKey, data)
}
