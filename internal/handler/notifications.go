package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/user/remind-me/personal/internal/dto"
	"github.com/user/remind-me/personal/internal/models"
	"github.com/user/remind-me/personal/internal/notification"
	apperrors "github.com/user/remind-me/personal/pkg/errors"
)

// GetNotificationSettings handles GET /api/settings/notifications
func (h *Handler) GetNotificationSettings(c *gin.Context) {
	c.JSON(http.StatusOK, h.prefs.Current())
}

// UpdateNotificationSettings handles PUT /api/settings/notifications
func (h *Handler) UpdateNotificationSettings(c *gin.Context) {
	var req dto.NotificationSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, bindError(err))
		return
	}

	previous := h.prefs.Current()
	settings, err := h.prefs.Replace(c.Request.Context(), req.ApplyTo(previous))
	if err != nil {
		respondError(c, apperrors.StorageError(err))
		return
	}
	if settings.AdvanceNotice != previous.AdvanceNotice {
		h.scheduler.Rearm()
	}
	c.JSON(http.StatusOK, settings)
}

// RequestPermission handles POST /api/notifications/permission
func (h *Handler) RequestPermission(c *gin.Context) {
	granted := h.scheduler.RequestPermission(c.Request.Context())

	resp := dto.PermissionResponse{
		Granted:    granted,
		Permission: h.permissions.Status(),
	}
	if !granted {
		resp.Message = notification.FallbackMessage
	}
	c.JSON(http.StatusOK, resp)
}

// SetPermission handles PUT /api/notifications/permission
func (h *Handler) SetPermission(c *gin.Context) {
	var req dto.SetPermissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, bindError(err))
		return
	}

	settings, err := h.permissions.Set(c.Request.Context(), req.Permission)
	if err != nil {
		respondError(c, apperrors.StorageError(err))
		return
	}
	c.JSON(http.StatusOK, dto.PermissionResponse{
		Granted:    settings.Permission == models.PermissionGranted,
		Permission: settings.Permission,
	})
}

// ListAlerts handles GET /api/alerts
func (h *Handler) ListAlerts(c *gin.Context) {
	c.JSON(http.StatusOK, dto.AlertsResponse{Alerts: h.board.Active()})
}

// ClickAlert handles POST /api/alerts/:id/click
func (h *Handler) ClickAlert(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		respondError(c, err)
		return
	}

	alert, ok := h.board.Click(id)
	if !ok {
		respondError(c, apperrors.ErrAlertNotFound)
		return
	}
	c.JSON(http.StatusOK, alert)
}

// Tone handles GET /api/alerts/tone.wav
func (h *Handler) Tone(c *gin.Context) {
	c.Header("Cache-Control", "public, max-age=86400")
	c.Data(http.StatusOK, "audio/wav", notification.ToneWAV())
}
