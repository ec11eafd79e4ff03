package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/user/remind-me/personal/internal/dto"
	"github.com/user/remind-me/personal/internal/views"
	apperrors "github.com/user/remind-me/personal/pkg/errors"
)

const (
	dateLayout   = "2006-01-02"
	maxRangeDays = 366
	statsTopN    = 5
)

func (h *Handler) parseDate(value string) (time.Time, error) {
	day, err := time.ParseInLocation(dateLayout, value, h.now().Location())
	if err != nil {
		return time.Time{}, apperrors.ValidationError("dates must use the YYYY-MM-DD format")
	}
	return day, nil
}

// Calendar handles GET /api/calendar?date=YYYY-MM-DD
func (h *Handler) Calendar(c *gin.Context) {
	var query dto.CalendarQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		respondError(c, bindError(err))
		return
	}
	day, err := h.parseDate(query.Date)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.CalendarResponse{
		Date:      query.Date,
		Reminders: dto.RemindersToDTO(views.OnDate(h.store.Snapshot(), day), h.now()),
	})
}

// CalendarDays handles GET /api/calendar/days?from=&to=
func (h *Handler) CalendarDays(c *gin.Context) {
	var query dto.CalendarDaysQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		respondError(c, bindError(err))
		return
	}
	from, err := h.parseDate(query.From)
	if err != nil {
		respondError(c, err)
		return
	}
	to, err := h.parseDate(query.To)
	if err != nil {
		respondError(c, err)
		return
	}
	if to.Before(from) {
		respondError(c, apperrors.ValidationError("to must not be before from"))
		return
	}
	if to.Sub(from) > maxRangeDays*24*time.Hour {
		respondError(c, apperrors.ValidationError("range is limited to one year"))
		return
	}

	days := views.DatesWithReminders(h.store.Snapshot(), from, to)
	resp := dto.CalendarDaysResponse{Days: make([]string, len(days))}
	for i, d := range days {
		resp.Days[i] = d.Format(dateLayout)
	}
	c.JSON(http.StatusOK, resp)
}

// Stats handles GET /api/stats
func (h *Handler) Stats(c *gin.Context) {
	now := h.now()
	reminders := h.store.Snapshot()

	c.JSON(http.StatusOK, dto.StatsResponse{
		Summary:  views.Summarize(reminders, now),
		Upcoming: dto.RemindersToDTO(views.Limit(views.Upcoming(reminders, now), statsTopN), now),
	})
}
