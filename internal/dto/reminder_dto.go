package dto

import (
	"strings"
	"time"

	"github.com/user/remind-me/personal/internal/models"
	"github.com/user/remind-me/personal/internal/views"
	apperrors "github.com/user/remind-me/personal/pkg/errors"
)

// CreateReminderRequest is the request body for creating a reminder
type CreateReminderRequest struct {
	Title            string                   `json:"title" binding:"required,max=500"`
	Description      *string                  `json:"description,omitempty" binding:"omitempty,max=5000"`
	Type             models.ReminderType      `json:"type" binding:"omitempty,oneof=general meeting birthday task"`
	DateTime         time.Time                `json:"dateTime" binding:"required"`
	IsRecurring      bool                     `json:"isRecurring"`
	RecurringPattern *models.RecurringPattern `json:"recurringPattern,omitempty" binding:"omitempty,oneof=daily weekly monthly yearly"`
	MeetingLink      *string                  `json:"meetingLink,omitempty" binding:"omitempty,url"`
	Priority         models.Priority          `json:"priority" binding:"omitempty,oneof=low medium high"`
}

// Validate applies the checks binding tags cannot express.
func (r CreateReminderRequest) Validate(now time.Time) error {
	if strings.TrimSpace(r.Title) == "" {
		return apperrors.ValidationError("title is required")
	}
	if !r.DateTime.After(now) {
		return apperrors.ValidationError("dateTime must be in the future")
	}
	if r.RecurringPattern != nil && !r.IsRecurring {
		return apperrors.ValidationError("recurringPattern requires isRecurring")
	}
	return nil
}

func (r CreateReminderRequest) ToDraft() models.Draft {
	return models.Draft{
		Title:            strings.TrimSpace(r.Title),
		Description:      r.Description,
		Type:             r.Type,
		DateTime:         r.DateTime,
		IsRecurring:      r.IsRecurring,
		RecurringPattern: r.RecurringPattern,
		MeetingLink:      r.MeetingLink,
		Priority:         r.Priority,
	}
}

// UpdateReminderRequest is the request body for updating a reminder
type UpdateReminderRequest struct {
	Title            *string                  `json:"title,omitempty" binding:"omitempty,max=500"`
	Description      *string                  `json:"description,omitempty" binding:"omitempty,max=5000"`
	Type             *models.ReminderType     `json:"type,omitempty" binding:"omitempty,oneof=general meeting birthday task"`
	DateTime         *time.Time               `json:"dateTime,omitempty"`
	IsCompleted      *bool                    `json:"isCompleted,omitempty"`
	IsRecurring      *bool                    `json:"isRecurring,omitempty"`
	RecurringPattern *models.RecurringPattern `json:"recurringPattern,omitempty" binding:"omitempty,oneof=daily weekly monthly yearly"`
	MeetingLink      *string                  `json:"meetingLink,omitempty" binding:"omitempty,url"`
	Priority         *models.Priority         `json:"priority,omitempty" binding:"omitempty,oneof=low medium high"`
}

func (r UpdateReminderRequest) Validate() error {
	if r.Title != nil && strings.TrimSpace(*r.Title) == "" {
		return apperrors.ValidationError("title cannot be blank")
	}
	if r.DateTime != nil && r.DateTime.IsZero() {
		return apperrors.ValidationError("dateTime cannot be empty")
	}
	if r.RecurringPattern != nil && r.IsRecurring != nil && !*r.IsRecurring {
		return apperrors.ValidationError("recurringPattern requires isRecurring")
	}
	return nil
}

// ValidateFor checks the request against the reminder it will change.
func (r UpdateReminderRequest) ValidateFor(current models.Reminder) error {
	if r.RecurringPattern != nil && r.IsRecurring == nil && !current.IsRecurring {
		return apperrors.ValidationError("recurringPattern requires isRecurring")
	}
	return nil
}

func (r UpdateReminderRequest) ToPatch() models.Patch {
	patch := models.Patch{
		Description:      r.Description,
		Type:             r.Type,
		DateTime:         r.DateTime,
		IsCompleted:      r.IsCompleted,
		IsRecurring:      r.IsRecurring,
		RecurringPattern: r.RecurringPattern,
		MeetingLink:      r.MeetingLink,
		Priority:         r.Priority,
	}
	if r.Title != nil {
		title := strings.TrimSpace(*r.Title)
		patch.Title = &title
	}
	return patch
}

// ListQuery selects a view over the collection.
type ListQuery struct {
	View  string `form:"view" binding:"omitempty,oneof=all upcoming today overdue"`
	Limit int    `form:"limit" binding:"omitempty,min=0,max=1000"`
}

type CalendarQuery struct {
	Date string `form:"date" binding:"required"`
}

type CalendarDaysQuery struct {
	From string `form:"from" binding:"required"`
	To   string `form:"to" binding:"required"`
}

// ReminderDTO represents a reminder in responses
type ReminderDTO struct {
	models.Reminder
	State models.TemporalState `json:"state"`
}

// ReminderToDTO converts a Reminder model to ReminderDTO
func ReminderToDTO(r models.Reminder, now time.Time) ReminderDTO {
	return ReminderDTO{Reminder: r, State: r.State(now)}
}

// RemindersToDTO converts a slice of Reminder models to DTOs
func RemindersToDTO(reminders []models.Reminder, now time.Time) []ReminderDTO {
	dtos := make([]ReminderDTO, len(reminders))
	for i, r := range reminders {
		dtos[i] = ReminderToDTO(r, now)
	}
	return dtos
}

// ReminderListResponse is the response for listing reminders
type ReminderListResponse struct {
	View      string        `json:"view"`
	Reminders []ReminderDTO `json:"reminders"`
	Total     int           `json:"total"`
}

// MutationResponse reports the reminder after a change and whether the
// change reached durable storage.
type MutationResponse struct {
	Reminder  ReminderDTO `json:"reminder"`
	Persisted bool        `json:"persisted"`
}

type CalendarResponse struct {
	Date      string        `json:"date"`
	Reminders []ReminderDTO `json:"reminders"`
}

type CalendarDaysResponse struct {
	Days []string `json:"days"`
}

type StatsResponse struct {
	views.Summary
	Upcoming []ReminderDTO `json:"upcomingReminders"`
}
