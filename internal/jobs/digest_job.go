package jobs

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/user/remind-me/personal/internal/models"
	"github.com/user/remind-me/personal/internal/views"
	"go.uber.org/zap"
)

const digestMaxItems = 10

// MessageSender posts a text message, e.g. to a Slack webhook.
type MessageSender interface {
	Send(ctx context.Context, text string) error
}

// DigestJob posts a morning summary of today's and overdue reminders.
type DigestJob struct {
	source ReminderSource
	sender MessageSender
	now    func() time.Time
	logger *zap.Logger
}

// NewDigestJob creates a new digest job handler. now decides the
// location "today" is computed in.
func NewDigestJob(source ReminderSource, sender MessageSender, now func() time.Time, logger *zap.Logger) *DigestJob {
	if now == nil {
		now = time.Now
	}
	return &DigestJob{
		source: source,
		sender: sender,
		now:    now,
		logger: logger.Named("digest_job"),
	}
}

// Run sends the digest. It reports whether a message was sent; an empty day
// sends nothing.
func (j *DigestJob) Run(ctx context.Context) (bool, error) {
	text := BuildDigest(j.source.Snapshot(), j.now())
	if text == "" {
		j.logger.Debug("Nothing due, digest skipped")
		return false, nil
	}

	if err := j.sender.Send(ctx, text); err != nil {
		j.logger.Warn("Failed to send digest", zap.Error(err))
		return false, err
	}

	j.logger.Info("Digest sent")
	return true, nil
}

// BuildDigest renders the summary, or "" when nothing is due today or overdue.
func BuildDigest(reminders []models.Reminder, now time.Time) string {
	today := views.Today(reminders, now)
	overdue := views.Overdue(reminders, now)
	if len(today) == 0 && len(overdue) == 0 {
		return ""
	}

	summary := views.Summarize(reminders, now)

	var b strings.Builder
	fmt.Fprintf(&b, ":calendar: *Reminders for %s*\n", now.Format("Monday, January 2"))
	fmt.Fprintf(&b, "%d today, %d upcoming, %d overdue, %d completed\n",
		summary.Today, summary.Upcoming, summary.Overdue, summary.Completed)

	writeSection(&b, "Today", today, now)
	writeSection(&b, "Overdue", overdue, now)

	return strings.TrimRight(b.String(), "\n")
}

func writeSection(b *strings.Builder, heading string, reminders []models.Reminder, now time.Time) {
	if len(reminders) == 0 {
		return
	}
	fmt.Fprintf(b, "\n*%s*\n", heading)
	for _, r := range views.Limit(reminders, digestMaxItems) {
		due := r.DateTime.In(now.Location())
		stamp := due.Format("15:04")
		if !sameDay(due, now) {
			stamp = due.Format("Jan 2 15:04")
		}
		fmt.Fprintf(b, "• %s %s (%s, %s)\n", stamp, r.Title, r.Type, r.Priority)
	}
	if extra := len(reminders) - digestMaxItems; extra > 0 {
		fmt.Fprintf(b, "…and %d more\n", extra)
	}
}

func sameDay(a, b time.Time) bool {
	return views.StartOfDay(a).Equal(views.StartOfDay(b))
}
