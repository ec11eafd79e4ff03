package notification

import (
	"slices"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	DismissReasonTimeout  = "timeout"
	DismissReasonClicked  = "clicked"
	DismissReasonReplaced = "replaced"
	DismissReasonClosed   = "closed"
)

type shownAlert struct {
	alert Alert
	timer Timer
}

// Board holds the alerts currently on screen. Each alert closes itself after
// DismissAfter, and at most one alert per tag is shown.
type Board struct {
	clock     Clock
	publisher Publisher
	logger    *zap.Logger

	mu     sync.Mutex
	active map[uuid.UUID]*shownAlert
	closed bool
}

func NewBoard(clock Clock, publisher Publisher, logger *zap.Logger) *Board {
	return &Board{
		clock:     clock,
		publisher: publisher,
		logger:    logger.Named("board"),
		active:    make(map[uuid.UUID]*shownAlert),
	}
}

// Show puts the alert up, replacing any alert with the same tag.
func (b *Board) Show(alert Alert) {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	prev, replaced := b.active[alert.Tag]
	if replaced {
		prev.timer.Stop()
	}
	entry := &shownAlert{alert: alert}
	entry.timer = b.clock.AfterFunc(DismissAfter, func() {
		b.expire(alert.Tag, entry)
	})
	b.active[alert.Tag] = entry
	b.mu.Unlock()

	if replaced {
		b.publish(Event{Type: EventAlertDismissed, ReminderID: alert.Tag, Reason: DismissReasonReplaced})
	}
}

func (b *Board) expire(tag uuid.UUID, entry *shownAlert) {
	b.mu.Lock()
	if b.active[tag] != entry {
		b.mu.Unlock()
		return
	}
	delete(b.active, tag)
	b.mu.Unlock()

	b.publish(Event{Type: EventAlertDismissed, ReminderID: tag, Reason: DismissReasonTimeout})
}

// Click focuses the application on the alert's reminder and closes the alert.
func (b *Board) Click(tag uuid.UUID) (Alert, bool) {
	alert, ok := b.remove(tag)
	if !ok {
		return Alert{}, false
	}
	b.publish(Event{Type: EventFocus, ReminderID: tag, Alert: &alert})
	b.publish(Event{Type: EventAlertDismissed, ReminderID: tag, Reason: DismissReasonClicked})
	return alert, true
}

// Dismiss closes the alert without focusing.
func (b *Board) Dismiss(tag uuid.UUID, reason string) bool {
	if _, ok := b.remove(tag); !ok {
		return false
	}
	b.publish(Event{Type: EventAlertDismissed, ReminderID: tag, Reason: reason})
	return true
}

func (b *Board) remove(tag uuid.UUID) (Alert, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	entry, ok := b.active[tag]
	if !ok {
		return Alert{}, false
	}
	entry.timer.Stop()
	delete(b.active, tag)
	return entry.alert, true
}

// Active lists the alerts on screen, oldest first.
func (b *Board) Active() []Alert {
	b.mu.Lock()
	out := make([]Alert, 0, len(b.active))
	for _, entry := range b.active {
		out = append(out, entry.alert)
	}
	b.mu.Unlock()

	slices.SortFunc(out, func(x, y Alert) int {
		return x.FiredAt.Compare(y.FiredAt)
	})
	return out
}

func (b *Board) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	for tag, entry := range b.active {
		entry.timer.Stop()
		delete(b.active, tag)
	}
	b.closed = true
}

func (b *Board) publish(event Event) {
	if b.publisher == nil {
		return
	}
	b.publisher.Publish(event)
}
