package models

import (
	"time"

	"github.com/google/uuid"
)

type ReminderType string

const (
	TypeGeneral  ReminderType = "general"
	TypeMeeting  ReminderType = "meeting"
	TypeBirthday ReminderType = "birthday"
	TypeTask     ReminderType = "task"
)

func (t ReminderType) IsValid() bool {
	switch t {
	case TypeGeneral, TypeMeeting, TypeBirthday, TypeTask:
		return true
	}
	return false
}

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

func (p Priority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// RecurringPattern is stored for display only; no occurrences are generated from it.
type RecurringPattern string

const (
	PatternDaily   RecurringPattern = "daily"
	PatternWeekly  RecurringPattern = "weekly"
	PatternMonthly RecurringPattern = "monthly"
	PatternYearly  RecurringPattern = "yearly"
)

func (p RecurringPattern) IsValid() bool {
	switch p {
	case PatternDaily, PatternWeekly, PatternMonthly, PatternYearly:
		return true
	}
	return false
}

// Reminder is the single persisted entity. JSON names follow the browser
// blob format so exported data can be imported as-is.
type Reminder struct {
	ID               uuid.UUID         `json:"id"`
	Title            string            `json:"title"`
	Description      *string           `json:"description,omitempty"`
	Type             ReminderType      `json:"type"`
	DateTime         time.Time         `json:"dateTime"`
	IsCompleted      bool              `json:"isCompleted"`
	IsRecurring      bool              `json:"isRecurring"`
	RecurringPattern *RecurringPattern `json:"recurringPattern,omitempty"`
	MeetingLink      *string           `json:"meetingLink,omitempty"`
	Priority         Priority          `json:"priority"`
	CreatedAt        time.Time         `json:"createdAt"`
	UpdatedAt        time.Time         `json:"updatedAt"`
}

// Clone returns a copy that shares no pointers with r.
func (r Reminder) Clone() Reminder {
	c := r
	if r.Description != nil {
		d := *r.Description
		c.Description = &d
	}
	if r.RecurringPattern != nil {
		p := *r.RecurringPattern
		c.RecurringPattern = &p
	}
	if r.MeetingLink != nil {
		l := *r.MeetingLink
		c.MeetingLink = &l
	}
	return c
}

// TemporalState is derived from DateTime at query time and never stored.
type TemporalState string

const (
	StateFuture    TemporalState = "future"
	StateDueToday  TemporalState = "due_today"
	StateOverdue   TemporalState = "overdue"
	StateCompleted TemporalState = "completed"
)

// State classifies the reminder relative to now. The calendar day is taken
// in now's location.
func (r *Reminder) State(now time.Time) TemporalState {
	if r.IsCompleted {
		return StateCompleted
	}
	if r.DateTime.Before(now) {
		return StateOverdue
	}
	y1, m1, d1 := r.DateTime.In(now.Location()).Date()
	y2, m2, d2 := now.Date()
	if y1 == y2 && m1 == m2 && d1 == d2 {
		return StateDueToday
	}
	return StateFuture
}

// Draft is a reminder before the store assigns its identity and timestamps.
type Draft struct {
	Title            string
	Description      *string
	Type             ReminderType
	DateTime         time.Time
	IsCompleted      bool
	IsRecurring      bool
	RecurringPattern *RecurringPattern
	MeetingLink      *string
	Priority         Priority
}

// ToReminder stamps the draft. The recurring pattern is kept only when the
// recurring flag is set.
func (d Draft) ToReminder(id uuid.UUID, now time.Time) Reminder {
	r := Reminder{
		ID:          id,
		Title:       d.Title,
		Description: d.Description,
		Type:        d.Type,
		DateTime:    d.DateTime,
		IsCompleted: d.IsCompleted,
		IsRecurring: d.IsRecurring,
		MeetingLink: d.MeetingLink,
		Priority:    d.Priority,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if r.Type == "" {
		r.Type = TypeGeneral
	}
	if r.Priority == "" {
		r.Priority = PriorityMedium
	}
	if d.IsRecurring && d.RecurringPattern != nil {
		r.RecurringPattern = d.RecurringPattern
	}
	return r.Clone()
}

// Patch holds the fields of a partial update; nil means unchanged.
type Patch struct {
	Title            *string
	Description      *string
	Type             *ReminderType
	DateTime         *time.Time
	IsCompleted      *bool
	IsRecurring      *bool
	RecurringPattern *RecurringPattern
	MeetingLink      *string
	Priority         *Priority
}

func (p Patch) IsEmpty() bool {
	return p.Title == nil && p.Description == nil && p.Type == nil &&
		p.DateTime == nil && p.IsCompleted == nil && p.IsRecurring == nil &&
		p.RecurringPattern == nil && p.MeetingLink == nil && p.Priority == nil
}

// Apply merges the patch into r. A reminder that ends up non-recurring
// holds no pattern.
func (p Patch) Apply(r *Reminder) {
	if p.Title != nil {
		r.Title = *p.Title
	}
	if p.Description != nil {
		d := *p.Description
		r.Description = &d
	}
	if p.Type != nil {
		r.Type = *p.Type
	}
	if p.DateTime != nil {
		r.DateTime = *p.DateTime
	}
	if p.IsCompleted != nil {
		r.IsCompleted = *p.IsCompleted
	}
	if p.IsRecurring != nil {
		r.IsRecurring = *p.IsRecurring
	}
	if p.RecurringPattern != nil {
		pattern := *p.RecurringPattern
		r.RecurringPattern = &pattern
	}
	if !r.IsRecurring {
		r.RecurringPattern = nil
	}
	if p.MeetingLink != nil {
		l := *p.MeetingLink
		r.MeetingLink = &l
	}
	if p.Priority != nil {
		r.Priority = *p.Priority
	}
}
