package framework

import (
	"context"
	"time"
)

// Named is an abstraction for things with a name.
type Named interface {
	Name() string
}

// Runnable defines a generic interface for background runners.
type Runnable interface {
	Run(context.Context) error
}

// TimerFunc is invoked when a timer fires. It returns the next time
// the timer should fire, or the zero time to stop it.
type TimerFunc func(now time.Time) time.Time

// Timer is an opaque handle of a registered timer.
type Timer interface {
	Name() string
}

// Scheduler is the capability a cooperative driver needs from its
// embedding host: re-arming timer callbacks and a monotonic clock.
// Callbacks registered on the same Scheduler never run concurrently,
// so driver code needs no locking against its own ticks.
type Scheduler interface {
	// RegisterTimer arms fn to fire at the given time.
	RegisterTimer(name string, at time.Time, fn TimerFunc) Timer
	// UnregisterTimer cancels a timer. A nil timer is ignored.
	UnregisterTimer(Timer)
	// Monotonic gets the scheduler's notion of the current time.
	Monotonic() time.Time
}
