package notification

import "github.com/google/uuid"

type EventType string

const (
	EventAlert          EventType = "alert"
	EventAlertDismissed EventType = "alert_dismissed"
	EventFocus          EventType = "focus"
	EventNotice         EventType = "notice"
)

// Event is pushed to connected clients.
type Event struct {
	Type       EventType `json:"type"`
	ReminderID uuid.UUID `json:"reminderId"`
	Alert      *Alert    `json:"alert,omitempty"`
	Reason     string    `json:"reason,omitempty"`
	Message    string    `json:"message,omitempty"`
	ToneURL    string    `json:"toneUrl,omitempty"`
}

// Publisher fans events out to connected clients.
type Publisher interface {
	Publish(event interface{})
}
