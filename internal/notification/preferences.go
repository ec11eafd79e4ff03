package notification

import (
	"context"
	"sync"

	"github.com/user/remind-me/personal/internal/models"
	"go.uber.org/zap"
)

// SettingsRepository persists the notification settings.
type SettingsRepository interface {
	Load(ctx context.Context) (models.NotificationSettings, error)
	Save(ctx context.Context, settings models.NotificationSettings) error
}

// Preferences is the in-memory, write-through copy of the notification settings.
type Preferences struct {
	repo   SettingsRepository
	logger *zap.Logger

	mu       sync.RWMutex
	settings models.NotificationSettings
}

func NewPreferences(repo SettingsRepository, logger *zap.Logger) *Preferences {
	return &Preferences{
		repo:     repo,
		logger:   logger.Named("preferences"),
		settings: models.DefaultNotificationSettings(),
	}
}

// Load reads the stored settings. On error the defaults stay in effect.
func (p *Preferences) Load(ctx context.Context) error {
	settings, err := p.repo.Load(ctx)

	p.mu.Lock()
	p.settings = settings
	p.mu.Unlock()

	if err != nil {
		p.logger.Warn("Failed to load notification settings, using defaults", zap.Error(err))
		return err
	}
	return nil
}

func (p *Preferences) Current() models.NotificationSettings {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.settings
}

// Replace stores new user-editable settings. The permission state is owned
// by SetPermission and is carried over unchanged.
func (p *Preferences) Replace(ctx context.Context, settings models.NotificationSettings) (models.NotificationSettings, error) {
	if settings.AdvanceNotice < 0 {
		settings.AdvanceNotice = 0
	}

	p.mu.Lock()
	settings.Permission = p.settings.Permission
	p.settings = settings
	p.mu.Unlock()

	return settings, p.save(ctx, settings)
}

func (p *Preferences) SetPermission(ctx context.Context, perm models.Permission) (models.NotificationSettings, error) {
	p.mu.Lock()
	p.settings.Permission = perm
	settings := p.settings
	p.mu.Unlock()

	return settings, p.save(ctx, settings)
}

func (p *Preferences) save(ctx context.Context, settings models.NotificationSettings) error {
	if err := p.repo.Save(ctx, settings); err != nil {
		p.logger.Error("Failed to persist notification settings", zap.Error(err))
		return err
	}
	return nil
}
