package notification

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/user/remind-me/personal/internal/models"
	"github.com/user/remind-me/personal/internal/service"
	"github.com/user/remind-me/personal/internal/views"
	"go.uber.org/zap"
)

const deliverTimeout = 30 * time.Second

type pending struct {
	timer    Timer
	fireAt   time.Time
	reminder models.Reminder
}

// Scheduler arms one in-memory timer per reminder and delivers the alert
// when it fires. Timers are not persisted; ArmUpcoming rebuilds them.
type Scheduler struct {
	clock       Clock
	dispatcher  *Dispatcher
	permissions *Permissions
	prefs       *Preferences
	board       *Board
	publisher   Publisher
	logger      *zap.Logger

	mu     sync.Mutex
	timers map[uuid.UUID]*pending
	// fired holds the due time each reminder was last alerted for, so an
	// alert raised early by the advance notice is not raised again.
	fired  map[uuid.UUID]time.Time
	closed bool
	wg     sync.WaitGroup
}

type SchedulerDeps struct {
	Clock       Clock
	Dispatcher  *Dispatcher
	Permissions *Permissions
	Preferences *Preferences
	Board       *Board
	Publisher   Publisher
}

func NewScheduler(deps SchedulerDeps, logger *zap.Logger) *Scheduler {
	clock := deps.Clock
	if clock == nil {
		clock = SystemClock()
	}
	return &Scheduler{
		clock:       clock,
		dispatcher:  deps.Dispatcher,
		permissions: deps.Permissions,
		prefs:       deps.Preferences,
		board:       deps.Board,
		publisher:   deps.Publisher,
		logger:      logger.Named("scheduler"),
		timers:      make(map[uuid.UUID]*pending),
		fired:       make(map[uuid.UUID]time.Time),
	}
}

func (s *Scheduler) RequestPermission(ctx context.Context) bool {
	return s.permissions.Request(ctx)
}

// ScheduleOneShot arms a single alert for the reminder's due time, shifted
// earlier by the advance notice. It reports whether a timer was armed; a
// reminder that is already due, or already alerted for its current due
// time, is never alerted. Any earlier timer for the same reminder is replaced.
func (s *Scheduler) ScheduleOneShot(r models.Reminder) bool {
	advance := s.prefs.Current().AdvanceDuration()

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.armLocked(r, advance)
}

func (s *Scheduler) armLocked(r models.Reminder, advance time.Duration) bool {
	now := s.clock.Now()
	delay := r.DateTime.Sub(now)
	if delay <= 0 || s.closed {
		return false
	}
	if due, ok := s.fired[r.ID]; ok {
		if due.Equal(r.DateTime) {
			return false
		}
		delete(s.fired, r.ID)
	}

	delay -= advance
	if delay < 0 {
		delay = 0
	}

	if prev, ok := s.timers[r.ID]; ok {
		prev.timer.Stop()
	}

	entry := &pending{fireAt: now.Add(delay), reminder: r.Clone()}
	entry.timer = s.clock.AfterFunc(delay, func() {
		s.fire(entry.reminder, entry)
	})
	s.timers[r.ID] = entry

	s.logger.Debug("Alert armed",
		zap.Stringer("reminder_id", r.ID),
		zap.Time("fire_at", entry.fireAt))
	return true
}

func (s *Scheduler) fire(r models.Reminder, entry *pending) {
	s.mu.Lock()
	if s.closed || s.timers[r.ID] != entry {
		s.mu.Unlock()
		return
	}
	delete(s.timers, r.ID)
	s.fired[r.ID] = r.DateTime
	s.wg.Add(1)
	s.mu.Unlock()
	defer s.wg.Done()

	ctx, cancel := context.WithTimeout(context.Background(), deliverTimeout)
	defer cancel()

	s.deliver(ctx, r)
}

func (s *Scheduler) deliver(ctx context.Context, r models.Reminder) {
	settings := s.prefs.Current()
	if !settings.Enabled {
		s.logger.Debug("Notifications disabled, alert skipped", zap.Stringer("reminder_id", r.ID))
		return
	}

	if !s.permissions.Granted() && !s.permissions.Request(ctx) {
		s.logger.Info("Permission not granted, alert abandoned", zap.Stringer("reminder_id", r.ID))
		if s.publisher != nil {
			s.publisher.Publish(Event{
				Type:       EventNotice,
				ReminderID: r.ID,
				Message:    FallbackMessage,
			})
		}
		return
	}

	alert := NewAlert(r, s.clock.Now(), settings.SoundEnabled)
	if s.board != nil {
		s.board.Show(alert)
	}

	var exclude []string
	if !settings.DesktopEnabled {
		exclude = append(exclude, DesktopChannelName)
	}
	if err := s.dispatcher.Dispatch(ctx, alert, exclude...); err != nil {
		s.logger.Warn("Alert delivered with errors", zap.Stringer("reminder_id", r.ID), zap.Error(err))
		return
	}
	s.logger.Info("Alert delivered", zap.Stringer("reminder_id", r.ID))
}

// Cancel stops the pending alert for id, if any.
func (s *Scheduler) Cancel(id uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.timers[id]
	if !ok {
		return false
	}
	entry.timer.Stop()
	delete(s.timers, id)
	return true
}

func (s *Scheduler) IsArmed(id uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.timers[id]
	return ok
}

// Rearm recomputes the fire time of every pending alert, e.g. after the
// advance notice changed. Alerts whose new time has passed fire right away.
func (s *Scheduler) Rearm() int {
	advance := s.prefs.Current().AdvanceDuration()

	s.mu.Lock()
	defer s.mu.Unlock()

	armed := 0
	for _, entry := range s.timers {
		if s.armLocked(entry.reminder, advance) {
			armed++
		}
	}
	return armed
}

// Pending returns the fire time of each armed alert.
func (s *Scheduler) Pending() map[uuid.UUID]time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[uuid.UUID]time.Time, len(s.timers))
	for id, entry := range s.timers {
		out[id] = entry.fireAt
	}
	return out
}

// ArmUpcoming arms alerts for the currently upcoming reminders that have
// none pending. It returns how many were armed.
func (s *Scheduler) ArmUpcoming(reminders []models.Reminder) int {
	now := s.clock.Now()
	s.forgetFiredBefore(now)

	armed := 0
	for _, r := range views.Upcoming(reminders, now) {
		if s.IsArmed(r.ID) {
			continue
		}
		if s.ScheduleOneShot(r) {
			armed++
		}
	}
	return armed
}

// OnReminderChanged keeps pending alerts in step with the store: deleted or
// completed reminders lose their alert and edits re-arm it.
func (s *Scheduler) OnReminderChanged(event service.ChangeEvent) {
	switch event.Action {
	case service.ActionDeleted:
		s.Cancel(event.Reminder.ID)
		s.mu.Lock()
		delete(s.fired, event.Reminder.ID)
		s.mu.Unlock()
	case service.ActionCreated, service.ActionUpdated:
		s.Cancel(event.Reminder.ID)
		if !event.Reminder.IsCompleted {
			s.ScheduleOneShot(event.Reminder)
		}
	}
}

// forgetFiredBefore drops fired records for due times that have passed;
// those reminders can no longer be armed anyway.
func (s *Scheduler) forgetFiredBefore(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, due := range s.fired {
		if !due.After(now) {
			delete(s.fired, id)
		}
	}
}

// Close stops every pending timer and waits for in-flight deliveries.
func (s *Scheduler) Close() {
	s.mu.Lock()
	for id, entry := range s.timers {
		entry.timer.Stop()
		delete(s.timers, id)
	}
	s.closed = true
	s.mu.Unlock()

	s.wg.Wait()
}
