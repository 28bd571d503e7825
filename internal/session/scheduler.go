package session

import "time"

// Timer is the handle for a single armed timer. Stop reports whether the
// timer was stopped before firing (same contract as time.Timer.Stop).
type Timer interface {
	Stop() bool
}

// Scheduler abstracts "run f after d". The monitor never touches the
// time package directly — it asks its Scheduler.
//
// WHY THE ABSTRACTION?
// The monitor's whole job is timer composition: a pre-warning timer, a
// 1-second countdown, resets on activity. Testing that against real time
// means 180-second tests or flaky sleeps. With the scheduler injected,
// tests install a fake that advances a virtual clock instantly and fires
// timers deterministically — every transition in the state machine becomes
// an exact assertion.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

// systemScheduler drives timers off the real clock via time.AfterFunc.
type systemScheduler struct{}

// SystemScheduler returns the production Scheduler.
func SystemScheduler() Scheduler {
	return systemScheduler{}
}

func (systemScheduler) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}
