package framework

import (
	"context"
	"sync"
	"time"

	"github.com/golang/glog"
)

// Reactor implements Scheduler with a single dispatching goroutine:
// all timer callbacks run from the same goroutine, earliest deadline
// first. Registering or removing a timer wakes the dispatcher so a
// nearer deadline takes effect immediately.
type Reactor struct {
	timers   []*reactorTimer
	lock     sync.Mutex
	wakeUpCh chan struct{}
}

type reactorTimer struct {
	name     string
	fn       TimerFunc
	deadline time.Time
	stopped  bool
}

// Name implements Timer.
func (t *reactorTimer) Name() string {
	return t.name
}

// NewReactor creates a Reactor.
func NewReactor() *Reactor {
	return &Reactor{wakeUpCh: make(chan struct{}, 1)}
}

// RegisterTimer implements Scheduler.
func (r *Reactor) RegisterTimer(name string, at time.Time, fn TimerFunc) Timer {
	t := &reactorTimer{name: name, fn: fn, deadline: at}
	r.lock.Lock()
	r.timers = append(r.timers, t)
	r.lock.Unlock()
	glog.V(4).Infof("timer[%s] registered", name)
	r.wakeUp()
	return t
}

// UnregisterTimer implements Scheduler.
func (r *Reactor) UnregisterTimer(timer Timer) {
	t, ok := timer.(*reactorTimer)
	if !ok {
		return
	}
	r.lock.Lock()
	t.stopped = true
	r.remove(t)
	r.lock.Unlock()
	glog.V(4).Infof("timer[%s] unregistered", t.name)
	r.wakeUp()
}

// Monotonic implements Scheduler.
func (r *Reactor) Monotonic() time.Time {
	return time.Now()
}

// Run implements Runnable. It dispatches timers until the context is
// canceled.
func (r *Reactor) Run(ctx context.Context) error {
	for {
		next, armed := r.nextDeadline()
		if !armed {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-r.wakeUpCh:
			}
			continue
		}
		if now := r.Monotonic(); next.After(now) {
			wait := time.NewTimer(next.Sub(now))
			select {
			case <-ctx.Done():
				wait.Stop()
				return ctx.Err()
			case <-r.wakeUpCh:
				wait.Stop()
				continue
			case <-wait.C:
			}
		}
		r.fireDue()
	}
}

func (r *Reactor) wakeUp() {
	select {
	case r.wakeUpCh <- struct{}{}:
	default:
	}
}

// remove must be called with the lock held.
func (r *Reactor) remove(t *reactorTimer) {
	for i, reg := range r.timers {
		if reg == t {
			r.timers = append(r.timers[:i], r.timers[i+1:]...)
			return
		}
	}
}

func (r *Reactor) nextDeadline() (next time.Time, armed bool) {
	r.lock.Lock()
	defer r.lock.Unlock()
	for _, t := range r.timers {
		if !armed || t.deadline.Before(next) {
			next, armed = t.deadline, true
		}
	}
	return
}

func (r *Reactor) fireDue() {
	now := r.Monotonic()
	var due []*reactorTimer
	r.lock.Lock()
	for _, t := range r.timers {
		if !t.deadline.After(now) {
			due = append(due, t)
		}
	}
	r.lock.Unlock()

	for _, t := range due {
		r.lock.Lock()
		stopped := t.stopped
		r.lock.Unlock()
		if stopped {
			// unregistered by an earlier callback in this batch
			continue
		}
		next := t.fn(now)
		r.lock.Lock()
		if next.IsZero() {
			t.stopped = true
			r.remove(t)
		} else {
			t.deadline = next
		}
		r.lock.Unlock()
	}
}
