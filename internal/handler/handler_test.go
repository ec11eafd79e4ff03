package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/user/remind-me/personal/internal/dto"
	"github.com/user/remind-me/personal/internal/models"
	"github.com/user/remind-me/personal/internal/notification"
	"github.com/user/remind-me/personal/internal/pubsub"
	"github.com/user/remind-me/personal/internal/repository"
	"github.com/user/remind-me/personal/internal/service"
	"go.uber.org/goleak"
	"go.uber.org/zap"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	goleak.VerifyTestMain(m)
}

var testNow = time.Date(2026, 6, 15, 14, 30, 0, 0, time.UTC)

type heldTimer struct{}

func (heldTimer) Stop() bool { return true }

// frozenClock never fires; alerts stay armed for inspection.
type frozenClock struct{}

func (frozenClock) Now() time.Time { return testNow }

func (frozenClock) AfterFunc(time.Duration, func()) notification.Timer { return heldTimer{} }

type testServer struct {
	router    *gin.Engine
	store     *service.ReminderStore
	scheduler *notification.Scheduler
	board     *notification.Board
	hub       *pubsub.Hub
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	logger := zap.NewNop()

	blobs, err := repository.NewFileBlobStore(afero.NewMemMapFs(), "/data")
	require.NoError(t, err)

	now := func() time.Time { return testNow }
	store := service.NewReminderStore(repository.NewReminderRepository(blobs), logger, service.WithClock(now))
	prefs := notification.NewPreferences(repository.NewSettingsRepository(blobs), logger)
	hub := pubsub.NewHub()

	dispatcher := notification.NewDispatcher(logger, notification.NewDesktopChannel(hub))
	board := notification.NewBoard(frozenClock{}, hub, logger)
	perms := notification.NewPermissions(prefs, dispatcher, logger)
	scheduler := notification.NewScheduler(notification.SchedulerDeps{
		Clock:       frozenClock{},
		Dispatcher:  dispatcher,
		Permissions: perms,
		Preferences: prefs,
		Board:       board,
		Publisher:   hub,
	}, logger)
	t.Cleanup(func() {
		scheduler.Close()
		board.Close()
	})

	store.Subscribe(scheduler.OnReminderChanged)
	store.Subscribe(BroadcastChanges(hub))

	h := New(Deps{
		Store:       store,
		Scheduler:   scheduler,
		Preferences: prefs,
		Permissions: perms,
		Board:       board,
		Hub:         hub,
		Now:         now,
	}, logger)

	router := gin.New()
	h.RegisterRoutes(router)

	return &testServer{router: router, store: store, scheduler: scheduler, board: board, hub: hub}
}

func (s *testServer) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

type errorBody struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (s *testServer) create(t *testing.T, title string, due time.Time) dto.ReminderDTO {
	t.Helper()
	w := s.do(t, http.MethodPost, "/api/reminders", gin.H{
		"title":    title,
		"dateTime": due,
		"type":     "task",
		"priority": "high",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[dto.MutationResponse](t, w).Reminder
}

func TestCreateReminder(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/api/reminders", gin.H{
		"title":       "  Pay rent  ",
		"description": "Landlord account",
		"dateTime":    testNow.Add(18 * time.Hour),
		"type":        "task",
		"priority":    "high",
		"meetingLink": "https://bank.example.com",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	resp := decode[dto.MutationResponse](t, w)
	assert.True(t, resp.Persisted)
	assert.Equal(t, "Pay rent", resp.Reminder.Title)
	assert.Equal(t, models.TypeTask, resp.Reminder.Type)
	assert.Equal(t, models.StateFuture, resp.Reminder.State)
	assert.Equal(t, 1, s.store.Len())
	assert.True(t, s.scheduler.IsArmed(resp.Reminder.ID), "new reminders are armed")
}

func TestCreateReminderDefaults(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/api/reminders", gin.H{
		"title":    "Water plants",
		"dateTime": testNow.Add(time.Hour),
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	r := decode[dto.MutationResponse](t, w).Reminder
	assert.Equal(t, models.TypeGeneral, r.Type)
	assert.Equal(t, models.PriorityMedium, r.Priority)
	assert.Equal(t, models.StateDueToday, r.State)
}

func TestCreateReminderValidation(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name string
		body gin.H
	}{
		{"missing title", gin.H{"dateTime": testNow.Add(time.Hour)}},
		{"blank title", gin.H{"title": "   ", "dateTime": testNow.Add(time.Hour)}},
		{"past date", gin.H{"title": "x", "dateTime": testNow.Add(-time.Minute)}},
		{"bad type", gin.H{"title": "x", "dateTime": testNow.Add(time.Hour), "type": "party"}},
		{"pattern without recurring", gin.H{"title": "x", "dateTime": testNow.Add(time.Hour), "recurringPattern": "daily"}},
		{"bad link", gin.H{"title": "x", "dateTime": testNow.Add(time.Hour), "meetingLink": "not a url"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do(t, http.MethodPost, "/api/reminders", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, "VALIDATION_ERROR", decode[errorBody](t, w).Error.Code)
		})
	}
	assert.Equal(t, 0, s.store.Len())
}

func TestListReminders(t *testing.T) {
	s := newTestServer(t)
	ctx := t.Context()

	s.create(t, "soon", testNow.Add(time.Hour))
	s.create(t, "tomorrow", testNow.Add(24*time.Hour))
	s.store.Add(ctx, models.Draft{Title: "missed", DateTime: testNow.Add(-2 * time.Hour)})

	tests := []struct {
		query string
		want  []string
	}{
		{"", []string{"missed", "tomorrow", "soon"}},
		{"?view=upcoming", []string{"soon", "tomorrow"}},
		{"?view=today", []string{"soon", "missed"}},
		{"?view=overdue", []string{"missed"}},
		{"?view=upcoming&limit=1", []string{"soon"}},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			w := s.do(t, http.MethodGet, "/api/reminders"+tt.query, nil)
			require.Equal(t, http.StatusOK, w.Code, w.Body.String())

			resp := decode[dto.ReminderListResponse](t, w)
			titles := make([]string, len(resp.Reminders))
			for i, r := range resp.Reminders {
				titles[i] = r.Title
			}
			assert.ElementsMatch(t, tt.want, titles)
		})
	}

	w := s.do(t, http.MethodGet, "/api/reminders?view=someday", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListUpcomingOrderAndTotal(t *testing.T) {
	s := newTestServer(t)
	s.create(t, "later", testNow.Add(3*time.Hour))
	s.create(t, "sooner", testNow.Add(time.Hour))

	w := s.do(t, http.MethodGet, "/api/reminders?view=upcoming&limit=1", nil)
	resp := decode[dto.ReminderListResponse](t, w)
	require.Len(t, resp.Reminders, 1)
	assert.Equal(t, "sooner", resp.Reminders[0].Title)
	assert.Equal(t, 2, resp.Total)
	assert.Equal(t, "upcoming", resp.View)
}

func TestGetReminder(t *testing.T) {
	s := newTestServer(t)
	created := s.create(t, "Call mom", testNow.Add(time.Hour))

	w := s.do(t, http.MethodGet, "/api/reminders/"+created.ID.String(), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, created.ID, decode[dto.ReminderDTO](t, w).ID)

	w = s.do(t, http.MethodGet, "/api/reminders/00000000-0000-4000-8000-000000000000", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "REMINDER_NOT_FOUND", decode[errorBody](t, w).Error.Code)

	w = s.do(t, http.MethodGet, "/api/reminders/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdateReminder(t *testing.T) {
	s := newTestServer(t)
	created := s.create(t, "Draft report", testNow.Add(time.Hour))
	path := "/api/reminders/" + created.ID.String()

	w := s.do(t, http.MethodPatch, path, gin.H{"title": "Final report", "dateTime": testNow.Add(48 * time.Hour)})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	updated := decode[dto.MutationResponse](t, w).Reminder
	assert.Equal(t, "Final report", updated.Title)
	assert.Equal(t, models.StateFuture, updated.State)
	assert.True(t, updated.UpdatedAt.After(created.UpdatedAt))
	assert.Equal(t, testNow.Add(48*time.Hour), s.scheduler.Pending()[created.ID], "edits re-arm the alert")

	w = s.do(t, http.MethodPatch, path, gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodPatch, path, gin.H{"title": " "})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodPatch, path, gin.H{"recurringPattern": "weekly"})
	assert.Equal(t, http.StatusBadRequest, w.Code, "reminder is not recurring")
	assert.Equal(t, "VALIDATION_ERROR", decode[errorBody](t, w).Error.Code)

	w = s.do(t, http.MethodPatch, path, gin.H{"isRecurring": true, "recurringPattern": "weekly"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	w = s.do(t, http.MethodPatch, path, gin.H{"recurringPattern": "monthly"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	recurring := decode[dto.MutationResponse](t, w).Reminder
	assert.True(t, recurring.IsRecurring)
	require.NotNil(t, recurring.RecurringPattern)
	assert.Equal(t, models.PatternMonthly, *recurring.RecurringPattern)

	w = s.do(t, http.MethodPatch, "/api/reminders/00000000-0000-4000-8000-000000000000", gin.H{"title": "x"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestToggleAndDeleteReminder(t *testing.T) {
	s := newTestServer(t)
	created := s.create(t, "Gym", testNow.Add(time.Hour))
	path := "/api/reminders/" + created.ID.String()

	w := s.do(t, http.MethodPost, path+"/toggle", nil)
	require.Equal(t, http.StatusOK, w.Code)
	toggled := decode[dto.MutationResponse](t, w).Reminder
	assert.True(t, toggled.IsCompleted)
	assert.Equal(t, models.StateCompleted, toggled.State)
	assert.False(t, s.scheduler.IsArmed(created.ID), "completed reminders lose their alert")

	w = s.do(t, http.MethodDelete, path, nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode[map[string]interface{}](t, w)
	assert.Equal(t, true, body["deleted"])
	assert.Equal(t, true, body["persisted"])

	for _, req := range []struct{ method, path string }{
		{http.MethodDelete, path},
		{http.MethodPost, path + "/toggle"},
		{http.MethodGet, path},
	} {
		w = s.do(t, req.method, req.path, nil)
		assert.Equal(t, http.StatusNotFound, w.Code, req.method+" "+req.path)
	}
}

func TestScheduleAlert(t *testing.T) {
	s := newTestServer(t)
	created := s.create(t, "Standup", testNow.Add(time.Hour))
	s.scheduler.Cancel(created.ID)

	w := s.do(t, http.MethodPost, "/api/reminders/"+created.ID.String()+"/alert", nil)
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[dto.ScheduleAlertResponse](t, w)
	assert.True(t, resp.Armed)
	require.NotNil(t, resp.FireAt)
	assert.True(t, testNow.Add(time.Hour).Equal(*resp.FireAt))

	s.store.Add(t.Context(), models.Draft{Title: "past", DateTime: testNow.Add(-time.Hour)})
	past := s.store.Overdue(testNow)[0]
	w = s.do(t, http.MethodPost, "/api/reminders/"+past.ID.String()+"/alert", nil)
	resp = decode[dto.ScheduleAlertResponse](t, w)
	assert.False(t, resp.Armed)
	assert.Nil(t, resp.FireAt)
}

func TestCalendar(t *testing.T) {
	s := newTestServer(t)
	s.create(t, "today", testNow.Add(time.Hour))
	s.create(t, "in three days", testNow.Add(72*time.Hour))

	w := s.do(t, http.MethodGet, "/api/calendar?date=2026-06-18", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	day := decode[dto.CalendarResponse](t, w)
	require.Len(t, day.Reminders, 1)
	assert.Equal(t, "in three days", day.Reminders[0].Title)

	w = s.do(t, http.MethodGet, "/api/calendar/days?from=2026-06-01&to=2026-06-30", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, []string{"2026-06-15", "2026-06-18"}, decode[dto.CalendarDaysResponse](t, w).Days)

	for _, bad := range []string{
		"/api/calendar",
		"/api/calendar?date=18/06/2026",
		"/api/calendar/days?from=2026-06-30&to=2026-06-01",
		"/api/calendar/days?from=2026-01-01&to=2027-06-01",
	} {
		w = s.do(t, http.MethodGet, bad, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code, bad)
	}
}

func TestStats(t *testing.T) {
	s := newTestServer(t)
	s.create(t, "a", testNow.Add(time.Hour))
	done := s.create(t, "b", testNow.Add(2*time.Hour))
	s.do(t, http.MethodPost, "/api/reminders/"+done.ID.String()+"/toggle", nil)
	s.store.Add(t.Context(), models.Draft{Title: "c", DateTime: testNow.Add(-48 * time.Hour)})

	w := s.do(t, http.MethodGet, "/api/stats", nil)
	require.Equal(t, http.StatusOK, w.Code)
	stats := decode[dto.StatsResponse](t, w)
	assert.Equal(t, 1, stats.Today)
	assert.Equal(t, 1, stats.Summary.Upcoming)
	assert.Equal(t, 1, stats.Completed)
	assert.Equal(t, 1, stats.Overdue)
	assert.Equal(t, 3, stats.Total)
	require.Len(t, stats.Upcoming, 1)
	assert.Equal(t, "a", stats.Upcoming[0].Title)
}

func TestNotificationSettings(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/api/settings/notifications", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.DefaultNotificationSettings(), decode[models.NotificationSettings](t, w))

	w = s.do(t, http.MethodPut, "/api/settings/notifications", gin.H{"soundEnabled": false, "advanceNotice": 15})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	got := decode[models.NotificationSettings](t, w)
	assert.False(t, got.SoundEnabled)
	assert.True(t, got.Enabled)
	assert.Equal(t, 15, got.AdvanceNotice)

	w = s.do(t, http.MethodPut, "/api/settings/notifications", gin.H{"advanceNotice": -1})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPermission(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/api/notifications/permission", nil)
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[dto.PermissionResponse](t, w)
	assert.False(t, resp.Granted, "no client is connected to show alerts")
	assert.Equal(t, models.PermissionDenied, resp.Permission)
	assert.Equal(t, notification.FallbackMessage, resp.Message)

	w = s.do(t, http.MethodPut, "/api/notifications/permission", gin.H{"permission": "granted"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decode[dto.PermissionResponse](t, w).Granted)

	w = s.do(t, http.MethodPost, "/api/notifications/permission", nil)
	assert.True(t, decode[dto.PermissionResponse](t, w).Granted)

	w = s.do(t, http.MethodPut, "/api/notifications/permission", gin.H{"permission": "denied"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, decode[dto.PermissionResponse](t, w).Granted)

	w = s.do(t, http.MethodPost, "/api/notifications/permission", nil)
	resp = decode[dto.PermissionResponse](t, w)
	assert.False(t, resp.Granted)
	assert.Equal(t, notification.FallbackMessage, resp.Message)

	w = s.do(t, http.MethodPut, "/api/notifications/permission", gin.H{"permission": "maybe"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAdvanceNoticeChangeRearmsAlerts(t *testing.T) {
	s := newTestServer(t)
	created := s.create(t, "Standup", testNow.Add(time.Hour))
	require.Equal(t, testNow.Add(time.Hour), s.scheduler.Pending()[created.ID])

	w := s.do(t, http.MethodPut, "/api/settings/notifications", gin.H{"advanceNotice": 20})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, testNow.Add(40*time.Minute), s.scheduler.Pending()[created.ID])
}

func TestAlerts(t *testing.T) {
	s := newTestServer(t)
	created := s.create(t, "Tea", testNow.Add(time.Hour))

	reminder, ok := s.store.Get(created.ID)
	require.True(t, ok)
	s.board.Show(notification.NewAlert(reminder, testNow, true))

	w := s.do(t, http.MethodGet, "/api/alerts", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, decode[dto.AlertsResponse](t, w).Alerts, 1)

	w = s.do(t, http.MethodPost, "/api/alerts/"+created.ID.String()+"/click", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Reminder: Tea", decode[notification.Alert](t, w).Title)

	w = s.do(t, http.MethodPost, "/api/alerts/"+created.ID.String()+"/click", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "ALERT_NOT_FOUND", decode[errorBody](t, w).Error.Code)
}

func TestTone(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/api/alerts/tone.wav", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "audio/wav", w.Header().Get("Content-Type"))
	assert.Equal(t, "RIFF", w.Body.String()[:4])
}
