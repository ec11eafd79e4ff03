package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/user/remind-me/personal/internal/models"
	"github.com/user/remind-me/personal/internal/repository"
	"github.com/user/remind-me/personal/internal/views"
	"go.uber.org/zap"
)

// ReminderRepository is the durable side of the store.
type ReminderRepository interface {
	Load(ctx context.Context) ([]models.Reminder, error)
	SaveAll(ctx context.Context, reminders []models.Reminder) error
	Discard(ctx context.Context) error
	Backup(ctx context.Context, version int) error
}

type Action string

const (
	ActionCreated Action = "created"
	ActionUpdated Action = "updated"
	ActionDeleted Action = "deleted"
)

// ChangeEvent describes a completed mutation. Previous is set for updates.
type ChangeEvent struct {
	Action   Action           `json:"action"`
	Reminder models.Reminder  `json:"reminder"`
	Previous *models.Reminder `json:"-"`
}

type Listener func(ChangeEvent)

// Outcome reports what a mutation did. Found is false when the id was not in
// the collection and nothing happened. Persisted is false when the durable
// write failed; the in-memory change is kept either way.
type Outcome struct {
	Found     bool `json:"found"`
	Persisted bool `json:"persisted"`
}

// LoadResult describes how the collection was initialized.
type LoadResult struct {
	Count        int  `json:"count"`
	Discarded    bool `json:"discarded"`
	Incompatible bool `json:"incompatible"`
	ReadFailed   bool `json:"readFailed"`
	Version      int  `json:"version,omitempty"`
}

// ReminderStore owns the reminder collection. Every mutation runs under one
// lock from the in-memory change through the durable write.
type ReminderStore struct {
	repo   ReminderRepository
	logger *zap.Logger
	now    func() time.Time
	newID  func() uuid.UUID

	mu        sync.Mutex
	reminders []models.Reminder

	listenersMu sync.RWMutex
	listeners   []Listener
}

type Option func(*ReminderStore)

func WithClock(now func() time.Time) Option {
	return func(s *ReminderStore) {
		s.now = now
	}
}

func WithIDGenerator(newID func() uuid.UUID) Option {
	return func(s *ReminderStore) {
		s.newID = newID
	}
}

func NewReminderStore(repo ReminderRepository, logger *zap.Logger, opts ...Option) *ReminderStore {
	s := &ReminderStore{
		repo:   repo,
		logger: logger.Named("store"),
		now:    time.Now,
		newID:  uuid.New,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load replaces the collection with the durable copy. It never fails: a
// corrupt blob is deleted, a blob from a newer schema is backed up, and a
// read error leaves the store empty.
func (s *ReminderStore) Load(ctx context.Context) LoadResult {
	var result LoadResult

	reminders, err := s.repo.Load(ctx)
	if err != nil {
		reminders = nil
		var incompatible *repository.IncompatibleVersionError
		switch {
		case errors.As(err, &incompatible):
			result.Incompatible = true
			result.Version = incompatible.Version
			s.logger.Warn("Stored reminders use a newer schema, starting empty",
				zap.Int("version", incompatible.Version))
			if berr := s.repo.Backup(ctx, incompatible.Version); berr != nil {
				s.logger.Error("Failed to back up incompatible reminders", zap.Error(berr))
			}
		case errors.Is(err, repository.ErrCorruptBlob):
			result.Discarded = true
			s.logger.Error("Discarding corrupt reminder storage", zap.Error(err))
			if derr := s.repo.Discard(ctx); derr != nil {
				s.logger.Error("Failed to clear corrupt reminder storage", zap.Error(derr))
			}
		default:
			result.ReadFailed = true
			s.logger.Error("Failed to read reminder storage", zap.Error(err))
		}
	}

	s.mu.Lock()
	s.reminders = reminders
	result.Count = len(reminders)
	s.mu.Unlock()

	if result.Count == 0 && !result.Discarded && !result.Incompatible && !result.ReadFailed {
		s.logger.Info("No stored reminders found")
	} else {
		s.logger.Info("Loaded reminders", zap.Int("count", result.Count))
	}
	return result
}

// Subscribe registers a listener for completed mutations. Listeners run
// synchronously after the store lock is released.
func (s *ReminderStore) Subscribe(listener Listener) {
	s.listenersMu.Lock()
	defer s.listenersMu.Unlock()
	s.listeners = append(s.listeners, listener)
}

func (s *ReminderStore) emit(event ChangeEvent) {
	s.listenersMu.RLock()
	listeners := make([]Listener, len(s.listeners))
	copy(listeners, s.listeners)
	s.listenersMu.RUnlock()

	for _, l := range listeners {
		l(event)
	}
}

// Add stamps the draft with a fresh id and timestamps and appends it.
// Duplicate titles and times are allowed.
func (s *ReminderStore) Add(ctx context.Context, draft models.Draft) (models.Reminder, Outcome) {
	s.mu.Lock()
	id := s.newID()
	for s.indexOf(id) >= 0 {
		id = s.newID()
	}
	reminder := draft.ToReminder(id, s.now())
	s.reminders = append(s.reminders, reminder)
	persisted := s.persistLocked(ctx)
	s.mu.Unlock()

	s.logger.Debug("Reminder created", zap.Stringer("id", reminder.ID))
	s.emit(ChangeEvent{Action: ActionCreated, Reminder: reminder.Clone()})
	return reminder.Clone(), Outcome{Found: true, Persisted: persisted}
}

// Update merges patch into the reminder and refreshes UpdatedAt.
func (s *ReminderStore) Update(ctx context.Context, id uuid.UUID, patch models.Patch) (models.Reminder, Outcome) {
	return s.mutate(ctx, id, patch.Apply)
}

// ToggleComplete flips the completion flag.
func (s *ReminderStore) ToggleComplete(ctx context.Context, id uuid.UUID) (models.Reminder, Outcome) {
	return s.mutate(ctx, id, func(r *models.Reminder) {
		r.IsCompleted = !r.IsCompleted
	})
}

func (s *ReminderStore) mutate(ctx context.Context, id uuid.UUID, change func(*models.Reminder)) (models.Reminder, Outcome) {
	s.mu.Lock()
	idx := s.indexOf(id)
	if idx < 0 {
		s.mu.Unlock()
		return models.Reminder{}, Outcome{}
	}

	previous := s.reminders[idx].Clone()
	updated := s.reminders[idx].Clone()
	change(&updated)
	updated.UpdatedAt = s.stamp(previous.UpdatedAt)
	s.reminders[idx] = updated
	persisted := s.persistLocked(ctx)
	s.mu.Unlock()

	s.emit(ChangeEvent{Action: ActionUpdated, Reminder: updated.Clone(), Previous: &previous})
	return updated.Clone(), Outcome{Found: true, Persisted: persisted}
}

// Remove deletes the reminder permanently.
func (s *ReminderStore) Remove(ctx context.Context, id uuid.UUID) Outcome {
	s.mu.Lock()
	idx := s.indexOf(id)
	if idx < 0 {
		s.mu.Unlock()
		return Outcome{}
	}

	removed := s.reminders[idx]
	s.reminders = append(s.reminders[:idx:idx], s.reminders[idx+1:]...)
	persisted := s.persistLocked(ctx)
	s.mu.Unlock()

	s.emit(ChangeEvent{Action: ActionDeleted, Reminder: removed})
	return Outcome{Found: true, Persisted: persisted}
}

func (s *ReminderStore) Get(id uuid.UUID) (models.Reminder, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(id)
	if idx < 0 {
		return models.Reminder{}, false
	}
	return s.reminders[idx].Clone(), true
}

// Snapshot returns a copy of the collection in insertion order.
func (s *ReminderStore) Snapshot() []models.Reminder {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.Reminder, len(s.reminders))
	for i, r := range s.reminders {
		out[i] = r.Clone()
	}
	return out
}

func (s *ReminderStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.reminders)
}

func (s *ReminderStore) Upcoming(now time.Time) []models.Reminder {
	return views.Upcoming(s.Snapshot(), now)
}

func (s *ReminderStore) Today(now time.Time) []models.Reminder {
	return views.Today(s.Snapshot(), now)
}

func (s *ReminderStore) Overdue(now time.Time) []models.Reminder {
	return views.Overdue(s.Snapshot(), now)
}

func (s *ReminderStore) All() []models.Reminder {
	return views.All(s.Snapshot())
}

func (s *ReminderStore) indexOf(id uuid.UUID) int {
	for i := range s.reminders {
		if s.reminders[i].ID == id {
			return i
		}
	}
	return -1
}

// stamp returns the current time, nudged forward so UpdatedAt strictly
// increases even when the clock has not moved.
func (s *ReminderStore) stamp(previous time.Time) time.Time {
	now := s.now()
	if !now.After(previous) {
		now = previous.Add(time.Nanosecond)
	}
	return now
}

func (s *ReminderStore) persistLocked(ctx context.Context) bool {
	if err := s.repo.SaveAll(ctx, s.reminders); err != nil {
		s.logger.Error("Failed to persist reminders",
			zap.Error(err),
			zap.Int("count", len(s.reminders)))
		return false
	}
	return true
}
