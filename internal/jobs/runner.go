package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const jobTimeout = 55 * time.Second

// Runner runs jobs on cron schedules.
type Runner struct {
	cron   *cron.Cron
	logger *zap.Logger
}

func NewRunner(loc *time.Location, logger *zap.Logger) *Runner {
	logger = logger.Named("cron")
	cl := cronLogger{logger.Sugar()}

	return &Runner{
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		logger: logger,
	}
}

// Add registers fn under the schedule. Each run gets its own timeout.
func (r *Runner) Add(name, schedule string, fn func(ctx context.Context)) error {
	_, err := r.cron.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()
		fn(ctx)
	})
	if err != nil {
		return fmt.Errorf("invalid schedule %q for %s: %w", schedule, name, err)
	}
	r.logger.Info("Job scheduled", zap.String("job", name), zap.String("schedule", schedule))
	return nil
}

func (r *Runner) Start() {
	r.cron.Start()
}

// Stop halts the scheduler and waits for running jobs until ctx is done.
func (r *Runner) Stop(ctx context.Context) {
	select {
	case <-r.cron.Stop().Done():
	case <-ctx.Done():
		r.logger.Warn("Timed out waiting for running jobs")
	}
}

type cronLogger struct {
	s *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.s.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.s.Errorw(msg, append(keysAndValues, "error", err)...)
}
