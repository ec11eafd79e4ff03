package notification

import "time"

// Timer is a pending deferred callback.
type Timer interface {
	Stop() bool
}

// Clock is the time source the scheduler and the alert board arm timers against.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

type systemClock struct{}

func (systemClock) Now() time.Time {
	return time.Now()
}

func (systemClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// SystemClock returns a Clock backed by the runtime timer.
func SystemClock() Clock {
	return systemClock{}
}
