package notification

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/user/remind-me/personal/internal/models"
	"github.com/user/remind-me/personal/internal/service"
)

func TestScheduleOneShotFiresAtDueTime(t *testing.T) {
	f := newSchedulerFixture(t)
	f.grant(t)

	r := reminderDue("Stand-up", epoch.Add(time.Hour))
	require.True(t, f.scheduler.ScheduleOneShot(r))
	assert.True(t, f.scheduler.IsArmed(r.ID))
	assert.Equal(t, epoch.Add(time.Hour), f.scheduler.Pending()[r.ID])

	f.clock.Advance(59 * time.Minute)
	assert.Empty(t, f.desktop.Alerts())

	f.clock.Advance(time.Minute)
	alerts := f.desktop.Alerts()
	require.Len(t, alerts, 1)
	assert.Equal(t, r.ID, alerts[0].Tag)
	assert.Equal(t, "Reminder: Stand-up", alerts[0].Title)
	assert.Equal(t, "\nType: general", alerts[0].Body)
	assert.True(t, alerts[0].Sound)
	assert.Len(t, f.slack.Alerts(), 1)
	assert.False(t, f.scheduler.IsArmed(r.ID))

	active := f.board.Active()
	require.Len(t, active, 1)
	assert.Equal(t, epoch.Add(time.Hour), active[0].FiredAt)
}

func TestScheduleOneShotSkipsPastDue(t *testing.T) {
	f := newSchedulerFixture(t)
	f.grant(t)

	assert.False(t, f.scheduler.ScheduleOneShot(reminderDue("late", epoch.Add(-time.Minute))))
	assert.False(t, f.scheduler.ScheduleOneShot(reminderDue("now", epoch)))
	assert.Empty(t, f.scheduler.Pending())
	assert.Equal(t, 0, f.clock.Live())
}

func TestScheduleOneShotAppliesAdvanceNotice(t *testing.T) {
	f := newSchedulerFixture(t)
	f.grant(t)

	settings := f.prefs.Current()
	settings.AdvanceNotice = 15
	_, err := f.prefs.Replace(context.Background(), settings)
	require.NoError(t, err)

	r := reminderDue("Dentist", epoch.Add(time.Hour))
	require.True(t, f.scheduler.ScheduleOneShot(r))
	assert.Equal(t, epoch.Add(45*time.Minute), f.scheduler.Pending()[r.ID])

	soon := reminderDue("Soon", epoch.Add(5*time.Minute))
	require.True(t, f.scheduler.ScheduleOneShot(soon))
	assert.Equal(t, epoch, f.scheduler.Pending()[soon.ID], "notice longer than the delay fires right away")

	f.clock.Advance(0)
	assert.Len(t, f.desktop.Alerts(), 1)
	f.clock.Advance(45 * time.Minute)
	assert.Len(t, f.desktop.Alerts(), 2)
}

func TestScheduleOneShotReplacesEarlierTimer(t *testing.T) {
	f := newSchedulerFixture(t)
	f.grant(t)

	r := reminderDue("Call", epoch.Add(time.Hour))
	require.True(t, f.scheduler.ScheduleOneShot(r))
	r.DateTime = epoch.Add(2 * time.Hour)
	require.True(t, f.scheduler.ScheduleOneShot(r))
	assert.Equal(t, 1, f.clock.Live())

	f.clock.Advance(time.Hour)
	assert.Empty(t, f.desktop.Alerts(), "the replaced timer never fires")

	f.clock.Advance(time.Hour)
	assert.Len(t, f.desktop.Alerts(), 1)
}

func TestCancel(t *testing.T) {
	f := newSchedulerFixture(t)
	f.grant(t)

	r := reminderDue("Call", epoch.Add(time.Hour))
	f.scheduler.ScheduleOneShot(r)

	assert.True(t, f.scheduler.Cancel(r.ID))
	assert.False(t, f.scheduler.Cancel(r.ID))

	f.clock.Advance(2 * time.Hour)
	assert.Empty(t, f.desktop.Alerts())
}

func TestOnReminderChanged(t *testing.T) {
	f := newSchedulerFixture(t)
	f.grant(t)

	r := reminderDue("Review", epoch.Add(time.Hour))
	f.scheduler.OnReminderChanged(service.ChangeEvent{Action: service.ActionCreated, Reminder: r})
	require.True(t, f.scheduler.IsArmed(r.ID))

	t.Run("edit re-arms at the new time", func(t *testing.T) {
		moved := r
		moved.DateTime = epoch.Add(3 * time.Hour)
		f.scheduler.OnReminderChanged(service.ChangeEvent{Action: service.ActionUpdated, Reminder: moved, Previous: &r})
		assert.Equal(t, epoch.Add(3*time.Hour), f.scheduler.Pending()[r.ID])
	})

	t.Run("completion cancels", func(t *testing.T) {
		done := r
		done.IsCompleted = true
		f.scheduler.OnReminderChanged(service.ChangeEvent{Action: service.ActionUpdated, Reminder: done})
		assert.False(t, f.scheduler.IsArmed(r.ID))
	})

	t.Run("delete cancels", func(t *testing.T) {
		f.scheduler.ScheduleOneShot(r)
		f.scheduler.OnReminderChanged(service.ChangeEvent{Action: service.ActionDeleted, Reminder: r})
		assert.False(t, f.scheduler.IsArmed(r.ID))
	})

	f.clock.Advance(4 * time.Hour)
	assert.Empty(t, f.desktop.Alerts())
}

func TestDeliverRequestsPermissionOnFire(t *testing.T) {
	f := newSchedulerFixture(t)

	r := reminderDue("Lunch", epoch.Add(time.Minute))
	f.scheduler.ScheduleOneShot(r)
	f.clock.Advance(time.Minute)

	assert.Equal(t, models.PermissionGranted, f.perms.Status())
	assert.Len(t, f.desktop.Alerts(), 1)
	assert.Empty(t, f.publisher.OfType(EventNotice))
}

func TestDeliverWithDeniedPermissionPublishesNotice(t *testing.T) {
	f := newSchedulerFixture(t)
	_, err := f.perms.Set(context.Background(), models.PermissionDenied)
	require.NoError(t, err)

	r := reminderDue("Lunch", epoch.Add(time.Minute))
	f.scheduler.ScheduleOneShot(r)
	f.clock.Advance(time.Minute)

	assert.Empty(t, f.desktop.Alerts())
	assert.Empty(t, f.board.Active())
	notices := f.publisher.OfType(EventNotice)
	require.Len(t, notices, 1)
	assert.Equal(t, FallbackMessage, notices[0].Message)
	assert.Equal(t, r.ID, notices[0].ReminderID)
}

func TestDeliverSkippedWhenDisabled(t *testing.T) {
	f := newSchedulerFixture(t)
	f.grant(t)

	settings := f.prefs.Current()
	settings.Enabled = false
	_, err := f.prefs.Replace(context.Background(), settings)
	require.NoError(t, err)

	f.scheduler.ScheduleOneShot(reminderDue("Quiet", epoch.Add(time.Minute)))
	f.clock.Advance(time.Minute)

	assert.Empty(t, f.desktop.Alerts())
	assert.Empty(t, f.slack.Alerts())
	assert.Empty(t, f.publisher.Events())
}

func TestDeliverHonorsDesktopAndSoundSettings(t *testing.T) {
	f := newSchedulerFixture(t)
	f.grant(t)

	settings := f.prefs.Current()
	settings.DesktopEnabled = false
	settings.SoundEnabled = false
	_, err := f.prefs.Replace(context.Background(), settings)
	require.NoError(t, err)

	f.scheduler.ScheduleOneShot(reminderDue("Silent", epoch.Add(time.Minute)))
	f.clock.Advance(time.Minute)

	assert.Empty(t, f.desktop.Alerts())
	alerts := f.slack.Alerts()
	require.Len(t, alerts, 1)
	assert.False(t, alerts[0].Sound)
}

func TestDeliveryErrorsDoNotStopOtherChannels(t *testing.T) {
	f := newSchedulerFixture(t)
	f.grant(t)
	f.slack.err = assert.AnError

	f.scheduler.ScheduleOneShot(reminderDue("Flaky", epoch.Add(time.Minute)))
	f.clock.Advance(time.Minute)

	assert.Len(t, f.desktop.Alerts(), 1)
	assert.Len(t, f.slack.Alerts(), 1)
}

func TestArmUpcoming(t *testing.T) {
	f := newSchedulerFixture(t)
	f.grant(t)

	future := reminderDue("future", epoch.Add(time.Hour))
	past := reminderDue("past", epoch.Add(-time.Hour))
	done := reminderDue("done", epoch.Add(time.Hour))
	done.IsCompleted = true

	assert.Equal(t, 1, f.scheduler.ArmUpcoming([]models.Reminder{future, past, done}))
	assert.Equal(t, 0, f.scheduler.ArmUpcoming([]models.Reminder{future, past, done}), "armed reminders are skipped")
	assert.Equal(t, 1, f.clock.Live())
}

func TestCloseStopsTimers(t *testing.T) {
	f := newSchedulerFixture(t)
	f.grant(t)

	r := reminderDue("later", epoch.Add(time.Hour))
	f.scheduler.ScheduleOneShot(r)
	f.scheduler.Close()

	assert.Empty(t, f.scheduler.Pending())
	assert.False(t, f.scheduler.ScheduleOneShot(reminderDue("after close", epoch.Add(time.Hour))))
	f.clock.Advance(2 * time.Hour)
	assert.Empty(t, f.desktop.Alerts())
}

func setAdvanceNotice(t *testing.T, f *schedulerFixture, minutes int) {
	t.Helper()
	settings := f.prefs.Current()
	settings.AdvanceNotice = minutes
	_, err := f.prefs.Replace(context.Background(), settings)
	require.NoError(t, err)
}

func TestEarlyAlertIsNotRepeatedByRescans(t *testing.T) {
	f := newSchedulerFixture(t)
	f.grant(t)
	setAdvanceNotice(t, f, 10)

	r := reminderDue("Flight check-in", epoch.Add(time.Hour))
	reminders := []models.Reminder{r}
	require.Equal(t, 1, f.scheduler.ArmUpcoming(reminders))

	f.clock.Advance(50 * time.Minute)
	require.Len(t, f.desktop.Alerts(), 1)

	for i := 0; i < 9; i++ {
		f.clock.Advance(time.Minute)
		assert.Equal(t, 0, f.scheduler.ArmUpcoming(reminders))
	}
	assert.Len(t, f.desktop.Alerts(), 1)
	assert.False(t, f.scheduler.IsArmed(r.ID))
}

func TestEditAfterEarlyAlert(t *testing.T) {
	f := newSchedulerFixture(t)
	f.grant(t)
	setAdvanceNotice(t, f, 10)

	r := reminderDue("Pick up keys", epoch.Add(time.Hour))
	require.True(t, f.scheduler.ScheduleOneShot(r))
	f.clock.Advance(50 * time.Minute)
	require.Len(t, f.desktop.Alerts(), 1)

	t.Run("same due time stays quiet", func(t *testing.T) {
		renamed := r
		renamed.Title = "Pick up spare keys"
		f.scheduler.OnReminderChanged(service.ChangeEvent{Action: service.ActionUpdated, Reminder: renamed, Previous: &r})
		assert.False(t, f.scheduler.IsArmed(r.ID))
	})

	t.Run("new due time arms again", func(t *testing.T) {
		moved := r
		moved.DateTime = epoch.Add(3 * time.Hour)
		f.scheduler.OnReminderChanged(service.ChangeEvent{Action: service.ActionUpdated, Reminder: moved, Previous: &r})
		assert.Equal(t, epoch.Add(170*time.Minute), f.scheduler.Pending()[r.ID])
	})

	f.clock.Advance(2 * time.Hour)
	assert.Len(t, f.desktop.Alerts(), 2)
}

func TestRearmAppliesNewAdvanceNotice(t *testing.T) {
	f := newSchedulerFixture(t)
	f.grant(t)

	later := reminderDue("later", epoch.Add(time.Hour))
	soon := reminderDue("soon", epoch.Add(5*time.Minute))
	require.Equal(t, 2, f.scheduler.ArmUpcoming([]models.Reminder{later, soon}))

	setAdvanceNotice(t, f, 15)
	assert.Equal(t, 2, f.scheduler.Rearm())

	pending := f.scheduler.Pending()
	assert.Equal(t, epoch.Add(45*time.Minute), pending[later.ID])
	assert.Equal(t, epoch, pending[soon.ID])
	assert.Equal(t, 2, f.clock.Live())

	f.clock.Advance(0)
	require.Len(t, f.desktop.Alerts(), 1)
	assert.Equal(t, soon.ID, f.desktop.Alerts()[0].Tag)
}
