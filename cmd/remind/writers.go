package main

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/user/remind-me/personal/internal/apiclient"
	"github.com/user/remind-me/personal/internal/dto"
	"github.com/user/remind-me/personal/internal/models"
	"github.com/user/remind-me/personal/internal/service"
	apperrors "github.com/user/remind-me/personal/pkg/errors"
)

var errNotFound = errors.New("not found")

// reminderWriter applies changes, through the running server when there is
// one and straight to storage otherwise. The bool results report whether
// the change was saved.
type reminderWriter interface {
	Add(ctx context.Context, req dto.CreateReminderRequest) (models.Reminder, bool, error)
	Update(ctx context.Context, id uuid.UUID, req dto.UpdateReminderRequest) (models.Reminder, bool, error)
	Toggle(ctx context.Context, id uuid.UUID) (models.Reminder, bool, error)
	Remove(ctx context.Context, id uuid.UUID) (bool, error)
}

type storeWriter struct {
	store *service.ReminderStore
}

func (w storeWriter) Add(ctx context.Context, req dto.CreateReminderRequest) (models.Reminder, bool, error) {
	r, outcome := w.store.Add(ctx, req.ToDraft())
	return r, outcome.Persisted, nil
}

func (w storeWriter) Update(ctx context.Context, id uuid.UUID, req dto.UpdateReminderRequest) (models.Reminder, bool, error) {
	current, ok := w.store.Get(id)
	if !ok {
		return models.Reminder{}, false, errNotFound
	}
	if err := req.ValidateFor(current); err != nil {
		return models.Reminder{}, false, err
	}
	r, outcome := w.store.Update(ctx, id, req.ToPatch())
	if !outcome.Found {
		return models.Reminder{}, false, errNotFound
	}
	return r, outcome.Persisted, nil
}

func (w storeWriter) Toggle(ctx context.Context, id uuid.UUID) (models.Reminder, bool, error) {
	r, outcome := w.store.ToggleComplete(ctx, id)
	if !outcome.Found {
		return models.Reminder{}, false, errNotFound
	}
	return r, outcome.Persisted, nil
}

func (w storeWriter) Remove(ctx context.Context, id uuid.UUID) (bool, error) {
	outcome := w.store.Remove(ctx, id)
	if !outcome.Found {
		return false, errNotFound
	}
	return outcome.Persisted, nil
}

type serverWriter struct {
	client *apiclient.Client
}

func (w serverWriter) Add(ctx context.Context, req dto.CreateReminderRequest) (models.Reminder, bool, error) {
	resp, err := w.client.CreateReminder(ctx, req)
	return resp.Reminder.Reminder, resp.Persisted, err
}

func (w serverWriter) Update(ctx context.Context, id uuid.UUID, req dto.UpdateReminderRequest) (models.Reminder, bool, error) {
	resp, err := w.client.UpdateReminder(ctx, id, req)
	return resp.Reminder.Reminder, resp.Persisted, notFound(err)
}

func (w serverWriter) Toggle(ctx context.Context, id uuid.UUID) (models.Reminder, bool, error) {
	resp, err := w.client.ToggleReminder(ctx, id)
	return resp.Reminder.Reminder, resp.Persisted, notFound(err)
}

func (w serverWriter) Remove(ctx context.Context, id uuid.UUID) (bool, error) {
	persisted, err := w.client.DeleteReminder(ctx, id)
	return persisted, notFound(err)
}

// notFound maps the server's not-found answer onto errNotFound.
func notFound(err error) error {
	if appErr := apperrors.GetAppError(err); appErr != nil && appErr.Code == apperrors.CodeReminderNotFound {
		return errNotFound
	}
	return err
}
