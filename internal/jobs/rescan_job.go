package jobs

import (
	"context"
	"time"

	"github.com/user/remind-me/personal/internal/models"
	"go.uber.org/zap"
)

// ReminderSource provides the current reminder collection.
type ReminderSource interface {
	Snapshot() []models.Reminder
}

// AlertArmer arms alerts for upcoming reminders that have none pending.
type AlertArmer interface {
	ArmUpcoming(reminders []models.Reminder) int
}

// RescanJob re-arms alerts for upcoming reminders. Armed reminders are
// skipped, so running it often is harmless.
type RescanJob struct {
	source ReminderSource
	armer  AlertArmer
	logger *zap.Logger
}

// NewRescanJob creates a new rescan job handler
func NewRescanJob(source ReminderSource, armer AlertArmer, logger *zap.Logger) *RescanJob {
	return &RescanJob{
		source: source,
		armer:  armer,
		logger: logger.Named("rescan_job"),
	}
}

// Run arms what is missing and returns how many alerts were armed.
func (j *RescanJob) Run(ctx context.Context) int {
	if ctx.Err() != nil {
		return 0
	}

	start := time.Now()
	reminders := j.source.Snapshot()
	armed := j.armer.ArmUpcoming(reminders)

	if armed > 0 {
		j.logger.Info("Armed alerts",
			zap.Int("armed", armed),
			zap.Int("reminders", len(reminders)),
			zap.Duration("took", time.Since(start)))
	} else {
		j.logger.Debug("No alerts to arm", zap.Int("reminders", len(reminders)))
	}
	return armed
}
