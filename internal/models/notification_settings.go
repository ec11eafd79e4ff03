package models

import "time"

// Permission mirrors the platform notification permission states.
type Permission string

const (
	PermissionDefault Permission = "default"
	PermissionGranted Permission = "granted"
	PermissionDenied  Permission = "denied"
)

func (p Permission) IsValid() bool {
	switch p {
	case PermissionDefault, PermissionGranted, PermissionDenied:
		return true
	}
	return false
}

// NotificationSettings controls how alerts are delivered.
type NotificationSettings struct {
	Enabled        bool       `json:"enabled"`
	SoundEnabled   bool       `json:"soundEnabled"`
	DesktopEnabled bool       `json:"desktopEnabled"`
	AdvanceNotice  int        `json:"advanceNotice"` // minutes before the due time
	Permission     Permission `json:"permission"`
}

func DefaultNotificationSettings() NotificationSettings {
	return NotificationSettings{
		Enabled:        true,
		SoundEnabled:   true,
		DesktopEnabled: true,
		AdvanceNotice:  0,
		Permission:     PermissionDefault,
	}
}

func (s NotificationSettings) AdvanceDuration() time.Duration {
	if s.AdvanceNotice <= 0 {
		return 0
	}
	return time.Duration(s.AdvanceNotice) * time.Minute
}
