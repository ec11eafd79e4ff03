package notification

import (
	"time"

	"github.com/google/uuid"
	"github.com/user/remind-me/personal/internal/models"
)

const (
	// DismissAfter is how long an alert stays up without interaction.
	DismissAfter = 10 * time.Second

	FallbackMessage = "Please enable notifications to receive reminders."

	ToneURL = "/api/alerts/tone.wav"
)

// Alert is the rendered notification for one reminder. Tag equals the
// reminder id so a second alert for the same reminder replaces the first.
type Alert struct {
	Tag         uuid.UUID           `json:"tag"`
	Title       string              `json:"title"`
	Body        string              `json:"body"`
	Type        models.ReminderType `json:"type"`
	Priority    models.Priority     `json:"priority"`
	DueAt       time.Time           `json:"dueAt"`
	MeetingLink *string             `json:"meetingLink,omitempty"`
	Sound       bool                `json:"sound"`
	FiredAt     time.Time           `json:"firedAt"`
	DismissAt   time.Time           `json:"dismissAt"`
}

func NewAlert(r models.Reminder, firedAt time.Time, sound bool) Alert {
	description := ""
	if r.Description != nil {
		description = *r.Description
	}
	return Alert{
		Tag:         r.ID,
		Title:       "Reminder: " + r.Title,
		Body:        description + "\nType: " + string(r.Type),
		Type:        r.Type,
		Priority:    r.Priority,
		DueAt:       r.DateTime,
		MeetingLink: r.MeetingLink,
		Sound:       sound,
		FiredAt:     firedAt,
		DismissAt:   firedAt.Add(DismissAfter),
	}
}
