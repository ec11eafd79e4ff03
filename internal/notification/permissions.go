package notification

import (
	"context"

	"github.com/user/remind-me/personal/internal/models"
	"go.uber.org/zap"
)

// Platform reports whether alerts can be delivered at all.
type Platform interface {
	Supported() bool
}

// Permissions tracks whether the user allowed alerts. Once granted or denied
// the state only changes through an explicit Set.
type Permissions struct {
	prefs    *Preferences
	platform Platform
	logger   *zap.Logger
}

func NewPermissions(prefs *Preferences, platform Platform, logger *zap.Logger) *Permissions {
	return &Permissions{
		prefs:    prefs,
		platform: platform,
		logger:   logger.Named("permissions"),
	}
}

func (p *Permissions) Status() models.Permission {
	return p.prefs.Current().Permission
}

func (p *Permissions) Granted() bool {
	return p.Status() == models.PermissionGranted
}

// Request resolves a pending permission. With no delivery channel available
// the answer is denied. The resolved state is persisted even if that write fails.
func (p *Permissions) Request(ctx context.Context) bool {
	switch p.Status() {
	case models.PermissionGranted:
		return true
	case models.PermissionDenied:
		return false
	}

	perm := models.PermissionDenied
	if p.platform != nil && p.platform.Supported() {
		perm = models.PermissionGranted
	}
	if _, err := p.prefs.SetPermission(ctx, perm); err != nil {
		p.logger.Warn("Permission resolved but not persisted", zap.String("permission", string(perm)))
	}
	p.logger.Info("Notification permission resolved", zap.String("permission", string(perm)))
	return perm == models.PermissionGranted
}

// Set overrides the permission state, for example after the user changes
// their mind in the settings page.
func (p *Permissions) Set(ctx context.Context, perm models.Permission) (models.NotificationSettings, error) {
	return p.prefs.SetPermission(ctx, perm)
}
