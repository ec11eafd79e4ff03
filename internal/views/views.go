// Package views derives read-only projections over a reminder collection.
// Every function is pure: the collection and "now" are passed in, and the
// local calendar day is taken in now's location.
package views

import (
	"slices"
	"time"

	"github.com/user/remind-me/personal/internal/models"
)

// Upcoming returns incomplete reminders due strictly after now, soonest first.
func Upcoming(reminders []models.Reminder, now time.Time) []models.Reminder {
	out := make([]models.Reminder, 0, len(reminders))
	for _, r := range reminders {
		if !r.IsCompleted && r.DateTime.After(now) {
			out = append(out, r)
		}
	}
	slices.SortStableFunc(out, func(a, b models.Reminder) int {
		return a.DateTime.Compare(b.DateTime)
	})
	return out
}

// Today returns incomplete reminders due within [startOfToday, startOfTomorrow).
// It overlaps with Overdue for reminders due earlier today.
func Today(reminders []models.Reminder, now time.Time) []models.Reminder {
	start := StartOfDay(now)
	end := start.AddDate(0, 0, 1)

	out := make([]models.Reminder, 0)
	for _, r := range reminders {
		if r.IsCompleted {
			continue
		}
		if !r.DateTime.Before(start) && r.DateTime.Before(end) {
			out = append(out, r)
		}
	}
	return out
}

// Overdue returns incomplete reminders due strictly before now.
func Overdue(reminders []models.Reminder, now time.Time) []models.Reminder {
	out := make([]models.Reminder, 0)
	for _, r := range reminders {
		if !r.IsCompleted && r.DateTime.Before(now) {
			out = append(out, r)
		}
	}
	return out
}

// All returns the full collection, newest first by creation time.
func All(reminders []models.Reminder) []models.Reminder {
	out := make([]models.Reminder, len(reminders))
	copy(out, reminders)
	slices.SortStableFunc(out, func(a, b models.Reminder) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return out
}

// OnDate returns every reminder, completed or not, due on day's calendar date.
func OnDate(reminders []models.Reminder, day time.Time) []models.Reminder {
	out := make([]models.Reminder, 0)
	for _, r := range reminders {
		if sameDate(r.DateTime.In(day.Location()), day) {
			out = append(out, r)
		}
	}
	slices.SortStableFunc(out, func(a, b models.Reminder) int {
		return a.DateTime.Compare(b.DateTime)
	})
	return out
}

// DatesWithReminders lists the calendar days in [from, to] that carry at
// least one reminder, in from's location.
func DatesWithReminders(reminders []models.Reminder, from, to time.Time) []time.Time {
	loc := from.Location()
	first := StartOfDay(from)
	last := StartOfDay(to.In(loc))

	seen := make(map[time.Time]struct{})
	out := make([]time.Time, 0)
	for _, r := range reminders {
		day := StartOfDay(r.DateTime.In(loc))
		if day.Before(first) || day.After(last) {
			continue
		}
		if _, ok := seen[day]; ok {
			continue
		}
		seen[day] = struct{}{}
		out = append(out, day)
	}
	slices.SortFunc(out, func(a, b time.Time) int {
		return a.Compare(b)
	})
	return out
}

// Summary holds the dashboard counters.
type Summary struct {
	Today     int `json:"today"`
	Upcoming  int `json:"upcoming"`
	Completed int `json:"completed"`
	Overdue   int `json:"overdue"`
	Total     int `json:"total"`
}

func Summarize(reminders []models.Reminder, now time.Time) Summary {
	s := Summary{
		Today:    len(Today(reminders, now)),
		Upcoming: len(Upcoming(reminders, now)),
		Overdue:  len(Overdue(reminders, now)),
		Total:    len(reminders),
	}
	for _, r := range reminders {
		if r.IsCompleted {
			s.Completed++
		}
	}
	return s
}

// Limit returns at most n reminders; n <= 0 means no limit.
func Limit(reminders []models.Reminder, n int) []models.Reminder {
	if n <= 0 || len(reminders) <= n {
		return reminders
	}
	return reminders[:n]
}

func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func sameDate(a, b time.Time) bool {
	y1, m1, d1 := a.Date()
	y2, m2, d2 := b.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}
