package dto

import (
	"time"

	"github.com/user/remind-me/personal/internal/models"
	"github.com/user/remind-me/personal/internal/notification"
)

// NotificationSettingsRequest updates the user-editable settings. Omitted
// fields keep their current value.
type NotificationSettingsRequest struct {
	Enabled        *bool `json:"enabled,omitempty"`
	SoundEnabled   *bool `json:"soundEnabled,omitempty"`
	DesktopEnabled *bool `json:"desktopEnabled,omitempty"`
	AdvanceNotice  *int  `json:"advanceNotice,omitempty" binding:"omitempty,min=0,max=10080"`
}

func (r NotificationSettingsRequest) ApplyTo(current models.NotificationSettings) models.NotificationSettings {
	if r.Enabled != nil {
		current.Enabled = *r.Enabled
	}
	if r.SoundEnabled != nil {
		current.SoundEnabled = *r.SoundEnabled
	}
	if r.DesktopEnabled != nil {
		current.DesktopEnabled = *r.DesktopEnabled
	}
	if r.AdvanceNotice != nil {
		current.AdvanceNotice = *r.AdvanceNotice
	}
	return current
}

type SetPermissionRequest struct {
	Permission models.Permission `json:"permission" binding:"required,oneof=default granted denied"`
}

type PermissionResponse struct {
	Granted    bool              `json:"granted"`
	Permission models.Permission `json:"permission"`
	Message    string            `json:"message,omitempty"`
}

type ScheduleAlertResponse struct {
	Armed  bool       `json:"armed"`
	FireAt *time.Time `json:"fireAt,omitempty"`
}

type AlertsResponse struct {
	Alerts []notification.Alert `json:"alerts"`
}
