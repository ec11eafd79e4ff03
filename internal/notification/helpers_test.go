package notification

import (
	"context"
	"errors"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/user/remind-me/personal/internal/models"
	"go.uber.org/goleak"
	"go.uber.org/zap"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var epoch = time.Date(2026, 6, 15, 14, 30, 0, 0, time.UTC)

// fakeClock fires timers only from Advance, outside its own lock.
type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*fakeTimer
}

type fakeTimer struct {
	clock   *fakeClock
	at      time.Time
	f       func()
	stopped bool
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: epoch}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{clock: c, at: c.now.Add(d), f: f}
	c.timers = append(c.timers, t)
	return t
}

func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	if t.stopped {
		return false
	}
	t.stopped = true
	return true
}

// Advance moves the clock forward and runs every timer that came due, in
// due order. Timers armed by callbacks are picked up in the same call.
func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	target := c.now.Add(d)
	c.mu.Unlock()

	for {
		c.mu.Lock()
		var next *fakeTimer
		for _, t := range c.timers {
			if t.stopped || t.at.After(target) {
				continue
			}
			if next == nil || t.at.Before(next.at) {
				next = t
			}
		}
		if next == nil {
			c.now = target
			c.mu.Unlock()
			return
		}
		next.stopped = true
		if next.at.After(c.now) {
			c.now = next.at
		}
		c.mu.Unlock()

		next.f()
	}
}

func (c *fakeClock) Live() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, t := range c.timers {
		if !t.stopped {
			n++
		}
	}
	return n
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []Event
}

func (p *recordingPublisher) Publish(event interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if e, ok := event.(Event); ok {
		p.events = append(p.events, e)
	}
}

func (p *recordingPublisher) Events() []Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return slices.Clone(p.events)
}

func (p *recordingPublisher) OfType(typ EventType) []Event {
	var out []Event
	for _, e := range p.Events() {
		if e.Type == typ {
			out = append(out, e)
		}
	}
	return out
}

type countingPublisher struct {
	recordingPublisher
	n int
}

func (p *countingPublisher) Subscribers() int { return p.n }

type recordingChannel struct {
	name string
	err  error

	mu     sync.Mutex
	alerts []Alert
}

func (c *recordingChannel) Name() string { return c.name }

func (c *recordingChannel) Deliver(_ context.Context, alert Alert) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.alerts = append(c.alerts, alert)
	return c.err
}

func (c *recordingChannel) Alerts() []Alert {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.alerts)
}

type memSettings struct {
	mu       sync.Mutex
	saved    *models.NotificationSettings
	failSave bool
	saves    int
}

func (m *memSettings) Load(context.Context) (models.NotificationSettings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saved == nil {
		return models.DefaultNotificationSettings(), nil
	}
	return *m.saved, nil
}

func (m *memSettings) Save(_ context.Context, s models.NotificationSettings) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves++
	if m.failSave {
		return errors.New("read-only storage")
	}
	m.saved = &s
	return nil
}

type staticPlatform bool

func (p staticPlatform) Supported() bool { return bool(p) }

func reminderDue(title string, due time.Time) models.Reminder {
	return models.Reminder{
		ID:        uuid.New(),
		Title:     title,
		Type:      models.TypeGeneral,
		Priority:  models.PriorityMedium,
		DateTime:  due,
		CreatedAt: epoch,
		UpdatedAt: epoch,
	}
}

type schedulerFixture struct {
	clock     *fakeClock
	publisher *recordingPublisher
	desktop   *recordingChannel
	slack     *recordingChannel
	settings  *memSettings
	prefs     *Preferences
	perms     *Permissions
	board     *Board
	scheduler *Scheduler
}

func newSchedulerFixture(t *testing.T) *schedulerFixture {
	t.Helper()
	logger := zap.NewNop()

	f := &schedulerFixture{
		clock:     newFakeClock(),
		publisher: &recordingPublisher{},
		desktop:   &recordingChannel{name: DesktopChannelName},
		slack:     &recordingChannel{name: SlackChannelName},
		settings:  &memSettings{},
	}
	f.prefs = NewPreferences(f.settings, logger)
	dispatcher := NewDispatcher(logger, f.desktop, f.slack)
	f.perms = NewPermissions(f.prefs, dispatcher, logger)
	f.board = NewBoard(f.clock, f.publisher, logger)
	f.scheduler = NewScheduler(SchedulerDeps{
		Clock:       f.clock,
		Dispatcher:  dispatcher,
		Permissions: f.perms,
		Preferences: f.prefs,
		Board:       f.board,
		Publisher:   f.publisher,
	}, logger)

	t.Cleanup(func() {
		f.scheduler.Close()
		f.board.Close()
	})
	return f
}

func (f *schedulerFixture) grant(t *testing.T) {
	t.Helper()
	if _, err := f.perms.Set(context.Background(), models.PermissionGranted); err != nil {
		t.Fatalf("grant permission: %v", err)
	}
}
