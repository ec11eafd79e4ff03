package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/user/remind-me/personal/internal/notification"
	"github.com/user/remind-me/personal/internal/pubsub"
	"github.com/user/remind-me/personal/internal/service"
	apperrors "github.com/user/remind-me/personal/pkg/errors"
	"go.uber.org/zap"
)

// Handler serves the REST API and the websocket event stream.
type Handler struct {
	store       *service.ReminderStore
	scheduler   *notification.Scheduler
	prefs       *notification.Preferences
	permissions *notification.Permissions
	board       *notification.Board
	hub         *pubsub.Hub
	now         func() time.Time
	logger      *zap.Logger
}

type Deps struct {
	Store       *service.ReminderStore
	Scheduler   *notification.Scheduler
	Preferences *notification.Preferences
	Permissions *notification.Permissions
	Board       *notification.Board
	Hub         *pubsub.Hub
	// Now returns the current time in the location "today" is computed in.
	Now func() time.Time
}

func New(deps Deps, logger *zap.Logger) *Handler {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &Handler{
		store:       deps.Store,
		scheduler:   deps.Scheduler,
		prefs:       deps.Preferences,
		permissions: deps.Permissions,
		board:       deps.Board,
		hub:         deps.Hub,
		now:         now,
		logger:      logger.Named("handler"),
	}
}

// RegisterRoutes mounts the API and websocket routes on r.
func (h *Handler) RegisterRoutes(r gin.IRouter) {
	api := r.Group("/api")
	{
		reminders := api.Group("/reminders")
		reminders.GET("", h.ListReminders)
		reminders.POST("", h.CreateReminder)
		reminders.GET("/:id", h.GetReminder)
		reminders.PATCH("/:id", h.UpdateReminder)
		reminders.DELETE("/:id", h.DeleteReminder)
		reminders.POST("/:id/toggle", h.ToggleReminder)
		reminders.POST("/:id/alert", h.ScheduleAlert)

		api.GET("/calendar", h.Calendar)
		api.GET("/calendar/days", h.CalendarDays)
		api.GET("/stats", h.Stats)

		api.GET("/settings/notifications", h.GetNotificationSettings)
		api.PUT("/settings/notifications", h.UpdateNotificationSettings)
		api.POST("/notifications/permission", h.RequestPermission)
		api.PUT("/notifications/permission", h.SetPermission)

		api.GET("/alerts", h.ListAlerts)
		api.GET("/alerts/tone.wav", h.Tone)
		api.POST("/alerts/:id/click", h.ClickAlert)
	}

	r.GET("/ws", h.WebSocket)
}

func respondError(c *gin.Context, err error) {
	if appErr := apperrors.GetAppError(err); appErr != nil {
		if appErr.StatusCode >= http.StatusInternalServerError {
			_ = c.Error(err)
		}
		c.JSON(appErr.StatusCode, gin.H{"error": appErr})
		return
	}
	_ = c.Error(err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": apperrors.ErrInternalError})
}

func bindError(err error) error {
	return apperrors.ValidationError(err.Error())
}

func parseID(c *gin.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, apperrors.ValidationError("invalid id")
	}
	return id, nil
}
