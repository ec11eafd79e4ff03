package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/user/remind-me/personal/internal/dto"
	"github.com/user/remind-me/personal/internal/models"
	"github.com/user/remind-me/personal/internal/views"
	apperrors "github.com/user/remind-me/personal/pkg/errors"
)

const (
	ViewAll      = "all"
	ViewUpcoming = "upcoming"
	ViewToday    = "today"
	ViewOverdue  = "overdue"
)

// ListReminders handles GET /api/reminders?view=&limit=
func (h *Handler) ListReminders(c *gin.Context) {
	var query dto.ListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		respondError(c, bindError(err))
		return
	}
	if query.View == "" {
		query.View = ViewAll
	}

	now := h.now()
	var reminders []models.Reminder
	switch query.View {
	case ViewUpcoming:
		reminders = h.store.Upcoming(now)
	case ViewToday:
		reminders = h.store.Today(now)
	case ViewOverdue:
		reminders = h.store.Overdue(now)
	default:
		reminders = h.store.All()
	}
	total := len(reminders)
	reminders = views.Limit(reminders, query.Limit)

	c.JSON(http.StatusOK, dto.ReminderListResponse{
		View:      query.View,
		Reminders: dto.RemindersToDTO(reminders, now),
		Total:     total,
	})
}

// GetReminder handles GET /api/reminders/:id
func (h *Handler) GetReminder(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		respondError(c, err)
		return
	}

	reminder, ok := h.store.Get(id)
	if !ok {
		respondError(c, apperrors.ErrReminderNotFound)
		return
	}

	c.JSON(http.StatusOK, dto.ReminderToDTO(reminder, h.now()))
}

// CreateReminder handles POST /api/reminders
func (h *Handler) CreateReminder(c *gin.Context) {
	var req dto.CreateReminderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, bindError(err))
		return
	}

	now := h.now()
	if err := req.Validate(now); err != nil {
		respondError(c, err)
		return
	}

	reminder, outcome := h.store.Add(c.Request.Context(), req.ToDraft())

	c.JSON(http.StatusCreated, dto.MutationResponse{
		Reminder:  dto.ReminderToDTO(reminder, now),
		Persisted: outcome.Persisted,
	})
}

// UpdateReminder handles PATCH /api/reminders/:id
func (h *Handler) UpdateReminder(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		respondError(c, err)
		return
	}

	var req dto.UpdateReminderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, bindError(err))
		return
	}
	if err := req.Validate(); err != nil {
		respondError(c, err)
		return
	}

	patch := req.ToPatch()
	if patch.IsEmpty() {
		respondError(c, apperrors.ValidationError("no fields to update"))
		return
	}

	current, ok := h.store.Get(id)
	if !ok {
		respondError(c, apperrors.ErrReminderNotFound)
		return
	}
	if err := req.ValidateFor(current); err != nil {
		respondError(c, err)
		return
	}

	reminder, outcome := h.store.Update(c.Request.Context(), id, patch)
	if !outcome.Found {
		respondError(c, apperrors.ErrReminderNotFound)
		return
	}

	c.JSON(http.StatusOK, dto.MutationResponse{
		Reminder:  dto.ReminderToDTO(reminder, h.now()),
		Persisted: outcome.Persisted,
	})
}

// ToggleReminder handles POST /api/reminders/:id/toggle
func (h *Handler) ToggleReminder(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		respondError(c, err)
		return
	}

	reminder, outcome := h.store.ToggleComplete(c.Request.Context(), id)
	if !outcome.Found {
		respondError(c, apperrors.ErrReminderNotFound)
		return
	}

	c.JSON(http.StatusOK, dto.MutationResponse{
		Reminder:  dto.ReminderToDTO(reminder, h.now()),
		Persisted: outcome.Persisted,
	})
}

// DeleteReminder handles DELETE /api/reminders/:id
func (h *Handler) DeleteReminder(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		respondError(c, err)
		return
	}

	outcome := h.store.Remove(c.Request.Context(), id)
	if !outcome.Found {
		respondError(c, apperrors.ErrReminderNotFound)
		return
	}

	c.JSON(http.StatusOK, gin.H{"id": id, "deleted": true, "persisted": outcome.Persisted})
}

// ScheduleAlert handles POST /api/reminders/:id/alert
func (h *Handler) ScheduleAlert(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		respondError(c, err)
		return
	}

	reminder, ok := h.store.Get(id)
	if !ok {
		respondError(c, apperrors.ErrReminderNotFound)
		return
	}

	resp := dto.ScheduleAlertResponse{Armed: h.scheduler.ScheduleOneShot(reminder)}
	if fireAt, ok := h.scheduler.Pending()[id]; ok && resp.Armed {
		resp.FireAt = &fireAt
	}
	c.JSON(http.StatusOK, resp)
}
