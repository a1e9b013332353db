package persist

import "time"

// Clock abstracts time for the Saver so debounce intervals and the
// safety-flush bound are testable with a fake clock instead of sleeps.
type Clock interface {
	// Now returns the current time.
	Now() time.Time

	// AfterFunc schedules f to run after d and returns a handle to
	// cancel it.
	AfterFunc(d time.Duration, f func()) Timer
}

// Timer is a cancellable delayed call returned by [Clock.AfterFunc].
type Timer interface {
	// Stop cancels the timer. It reports whether the call was stopped
	// before it ran.
	Stop() bool
}

// systemClock implements Clock with the time package.
type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

func (systemClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}
