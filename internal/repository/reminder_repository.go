package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/user/remind-me/personal/internal/models"
)

const (
	RemindersKey = "reminders"

	// CurrentSchemaVersion is written into every envelope. Version 0 is the
	// bare JSON array the browser client used to store.
	CurrentSchemaVersion = 1
)

var ErrCorruptBlob = errors.New("corrupt reminder blob")

// IncompatibleVersionError reports a blob written by a newer schema.
type IncompatibleVersionError struct {
	Version int
}

func (e *IncompatibleVersionError) Error() string {
	return fmt.Sprintf("reminder blob schema version %d is newer than supported version %d", e.Version, CurrentSchemaVersion)
}

type envelope struct {
	SchemaVersion int               `json:"schemaVersion"`
	Reminders     []models.Reminder `json:"reminders"`
}

type rawEnvelope struct {
	SchemaVersion *int            `json:"schemaVersion"`
	Reminders     json.RawMessage `json:"reminders"`
}

// ReminderRepository stores the whole reminder collection as a single blob.
type ReminderRepository struct {
	blobs BlobStore
}

func NewReminderRepository(blobs BlobStore) *ReminderRepository {
	return &ReminderRepository{blobs: blobs}
}

// Load returns the stored collection. A missing blob is an empty collection.
// Decoding failures wrap ErrCorruptBlob or are an *IncompatibleVersionError.
func (r *ReminderRepository) Load(ctx context.Context) ([]models.Reminder, error) {
	data, err := r.blobs.Get(ctx, RemindersKey)
	if err != nil {
		if errors.Is(err, ErrBlobNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return DecodeReminders(data)
}

func (r *ReminderRepository) SaveAll(ctx context.Context, reminders []models.Reminder) error {
	data, err := EncodeReminders(reminders)
	if err != nil {
		return err
	}
	return r.blobs.Put(ctx, RemindersKey, data)
}

// Discard removes the stored blob.
func (r *ReminderRepository) Discard(ctx context.Context) error {
	return r.blobs.Delete(ctx, RemindersKey)
}

// Backup copies the current blob aside under a version-tagged key.
func (r *ReminderRepository) Backup(ctx context.Context, version int) error {
	data, err := r.blobs.Get(ctx, RemindersKey)
	if err != nil {
		return err
	}
	return r.blobs.Put(ctx, BackupKey(version), data)
}

func BackupKey(version int) string {
	return fmt.Sprintf("%s.v%d.bak", RemindersKey, version)
}

func EncodeReminders(reminders []models.Reminder) ([]byte, error) {
	if reminders == nil {
		reminders = []models.Reminder{}
	}
	data, err := json.Marshal(envelope{
		SchemaVersion: CurrentSchemaVersion,
		Reminders:     reminders,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode reminders: %w", err)
	}
	return data, nil
}

// DecodeReminders accepts the current envelope and the legacy bare array.
func DecodeReminders(data []byte) ([]models.Reminder, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}

	var payload json.RawMessage
	switch trimmed[0] {
	case '[':
		payload = trimmed
	case '{':
		var env rawEnvelope
		if err := json.Unmarshal(trimmed, &env); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCorruptBlob, err)
		}
		if env.SchemaVersion == nil {
			return nil, fmt.Errorf("%w: missing schema version", ErrCorruptBlob)
		}
		if *env.SchemaVersion > CurrentSchemaVersion {
			return nil, &IncompatibleVersionError{Version: *env.SchemaVersion}
		}
		if *env.SchemaVersion < 1 {
			return nil, fmt.Errorf("%w: invalid schema version %d", ErrCorruptBlob, *env.SchemaVersion)
		}
		payload = env.Reminders
	default:
		return nil, fmt.Errorf("%w: unexpected payload", ErrCorruptBlob)
	}

	if len(payload) == 0 || bytes.Equal(payload, []byte("null")) {
		return nil, nil
	}

	var reminders []models.Reminder
	if err := json.Unmarshal(payload, &reminders); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptBlob, err)
	}
	if err := validateDecoded(reminders); err != nil {
		return nil, err
	}
	return reminders, nil
}

func validateDecoded(reminders []models.Reminder) error {
	seen := make(map[uuid.UUID]struct{}, len(reminders))
	for i, r := range reminders {
		if r.ID == uuid.Nil {
			return fmt.Errorf("%w: record %d has no id", ErrCorruptBlob, i)
		}
		if _, dup := seen[r.ID]; dup {
			return fmt.Errorf("%w: duplicate id %s", ErrCorruptBlob, r.ID)
		}
		seen[r.ID] = struct{}{}
		if r.DateTime.IsZero() {
			return fmt.Errorf("%w: record %s has no dateTime", ErrCorruptBlob, r.ID)
		}
	}
	return nil
}
