// Package session implements the client-side inactivity monitor: the state
// machine that watches user activity, warns before the session is about to
// end, and forces a sign-out when the warning goes unanswered.
//
// STATE MACHINE:
//
//	Idle ──Start──▶ Active ──(timeout−lead elapses)──▶ Warning ──(countdown hits 0)──▶ Expired
//	                  ▲  ▲                               │  │
//	                  │  └───────── Activity (re-arm) ────┘  │ (StayActive)
//	                  └──────────────────────────────────────┘
//
// Warning also exposes SignOutNow, which behaves like the countdown
// reaching 0 immediately. Stop tears everything down back to Idle from any
// state. Expired is terminal for that monitor run: the sign-out hook fires
// exactly once, then the navigate-home hook.
//
// TIMER DISCIPLINE — THE RESOURCE-SAFETY INVARIANT:
// Every armed timer has a matching cancel on every exit path. On top of
// Timer.Stop, each armed timer captures an epoch number; the monitor bumps
// the epoch on every transition and teardown, so a callback that already
// fired and is waiting on the mutex finds its epoch stale and does nothing.
// Without the epoch, Stop() racing a just-fired AfterFunc would let a dead
// timer sign the user out after teardown.
//
// Activity is deliberately NOT monitored while in Warning: once the dialog
// is up, only the explicit StayActive / SignOutNow actions (or the
// countdown) move the state. Wiggling the mouse does not dismiss a
// security warning.
package session

import (
	"log/slog"
	"sync"
	"time"
)

// State is the monitor's current position in the machine.
type State int

const (
	// Idle: no signed-in user; nothing armed.
	Idle State = iota
	// Active: session running, pre-warning timer armed, no warning shown.
	Active
	// Warning: countdown visible, ticking once per second.
	Warning
	// Expired: terminal; sign-out has been invoked.
	Expired
)

// String returns the state name, for logs and test failure messages.
func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Active:
		return "active"
	case Warning:
		return "warning"
	case Expired:
		return "expired"
	default:
		return "unknown"
	}
}

// Default policy: 3 minutes of inactivity, with the warning dialog
// appearing for the final 30 seconds.
const (
	DefaultInactivityTimeout = 3 * time.Minute
	DefaultWarningLeadTime   = 30 * time.Second
)

// Config holds the monitor's two durations.
// Invariant: 0 < WarningLeadTime < InactivityTimeout (normalize enforces it).
type Config struct {
	InactivityTimeout time.Duration
	WarningLeadTime   time.Duration
}

// normalize fills defaults and clamps the lead time under the timeout.
func (c Config) normalize() Config {
	if c.InactivityTimeout <= 0 {
		c.InactivityTimeout = DefaultInactivityTimeout
	}
	if c.WarningLeadTime <= 0 {
		c.WarningLeadTime = DefaultWarningLeadTime
	}
	if c.WarningLeadTime >= c.InactivityTimeout {
		c.WarningLeadTime = c.InactivityTimeout / 2
	}
	return c
}

// Hooks are the monitor's outputs. All are optional (nil hooks are skipped).
//
// Hooks are invoked OUTSIDE the monitor's lock, in order, on whichever
// goroutine drove the transition (a timer goroutine for expiry, the caller
// for SignOutNow). SignOut runs before GoHome, and SignOut+GoHome run at
// most once per monitor run regardless of how expiry was reached.
type Hooks struct {
	// OnCountdown receives the seconds remaining: once when the warning
	// appears (with the full lead time) and once per tick after that.
	OnCountdown func(secondsRemaining int)
	// SignOut ends the session, e.g. AuthService.Logout via the API.
	SignOut func()
	// GoHome navigates to the home route after a forced sign-out.
	GoHome func()
}

// Monitor is the inactivity state machine. Create one per signed-in
// session with NewMonitor, call Start when the user appears, Activity on
// every tracked interaction, and Stop when the user goes away.
type Monitor struct {
	cfg    Config
	sched  Scheduler
	hooks  Hooks
	logger *slog.Logger

	mu               sync.Mutex
	state            State
	epoch            uint64 // bumped on every transition; stale timers bail out
	preWarnTimer     Timer
	tickTimer        Timer
	secondsRemaining int
}

// NewMonitor creates a Monitor in Idle. Nothing is armed until Start.
func NewMonitor(cfg Config, sched Scheduler, hooks Hooks, logger *slog.Logger) *Monitor {
	if sched == nil {
		sched = SystemScheduler()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Monitor{
		cfg:    cfg.normalize(),
		sched:  sched,
		hooks:  hooks,
		logger: logger,
		state:  Idle,
	}
}

// State returns the current state.
func (m *Monitor) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// SecondsRemaining returns the countdown value while in Warning, 0 otherwise.
func (m *Monitor) SecondsRemaining() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != Warning {
		return 0
	}
	return m.secondsRemaining
}

// Start moves Idle → Active and arms the pre-warning timer. Calling Start
// while already running resets the window, same as an activity event.
// Calling it on an Expired monitor restarts a fresh run.
func (m *Monitor) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.enterActiveLocked()
	m.logger.Debug("inactivity monitor started",
		slog.Duration("timeout", m.cfg.InactivityTimeout),
		slog.Duration("warningLead", m.cfg.WarningLeadTime),
	)
}

// Activity records a tracked user interaction (pointer move/down, key
// press, touch start, scroll).
//
// In Active it re-arms the pre-warning timer — latest event wins, resets
// don't accumulate. In every other state it is a no-op: Idle has nothing
// to reset, Warning only listens to the dialog, Expired is terminal.
func (m *Monitor) Activity() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != Active {
		return
	}
	m.enterActiveLocked()
}

// StayActive is the dialog's "Stay signed in" action. Only meaningful in
// Warning: it cancels the countdown and re-arms the full inactivity window.
func (m *Monitor) StayActive() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != Warning {
		return
	}
	m.logger.Debug("session extended from warning dialog")
	m.enterActiveLocked()
}

// SignOutNow is the dialog's "Sign out now" action. Only meaningful in
// Warning: it behaves exactly like the countdown reaching zero.
func (m *Monitor) SignOutNow() {
	m.mu.Lock()
	if m.state != Warning {
		m.mu.Unlock()
		return
	}
	m.expireLocked() // unlocks before running hooks
}

// Stop tears the monitor down: all timers cancelled, all state back to
// Idle. No hook fires after Stop returns. Call it whenever the signed-in
// user becomes absent; Start re-initializes from scratch.
func (m *Monitor) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.cancelTimersLocked()
	m.state = Idle
	m.secondsRemaining = 0
}

// enterActiveLocked (re)enters Active: cancel whatever is armed, arm the
// pre-warning single-shot for timeout−lead. Caller holds the lock.
func (m *Monitor) enterActiveLocked() {
	m.cancelTimersLocked()
	m.state = Active
	m.secondsRemaining = 0

	epoch := m.epoch
	delay := m.cfg.InactivityTimeout - m.cfg.WarningLeadTime
	m.preWarnTimer = m.sched.AfterFunc(delay, func() {
		m.onPreWarnFired(epoch)
	})
}

// cancelTimersLocked stops both timers and bumps the epoch so any callback
// already in flight becomes a no-op. Caller holds the lock.
func (m *Monitor) cancelTimersLocked() {
	m.epoch++
	if m.preWarnTimer != nil {
		m.preWarnTimer.Stop()
		m.preWarnTimer = nil
	}
	if m.tickTimer != nil {
		m.tickTimer.Stop()
		m.tickTimer = nil
	}
}

// onPreWarnFired transitions Active → Warning and starts the countdown.
func (m *Monitor) onPreWarnFired(epoch uint64) {
	m.mu.Lock()
	if epoch != m.epoch || m.state != Active {
		m.mu.Unlock()
		return
	}

	m.state = Warning
	m.secondsRemaining = int(m.cfg.WarningLeadTime / time.Second)
	m.preWarnTimer = nil
	m.armTickLocked()
	seconds := m.secondsRemaining
	onCountdown := m.hooks.OnCountdown
	m.mu.Unlock()

	m.logger.Debug("inactivity warning shown", slog.Int("secondsRemaining", seconds))
	if onCountdown != nil {
		onCountdown(seconds)
	}
}

// armTickLocked schedules the next 1-second countdown tick under the
// current epoch. Caller holds the lock.
func (m *Monitor) armTickLocked() {
	epoch := m.epoch
	m.tickTimer = m.sched.AfterFunc(time.Second, func() {
		m.onTick(epoch)
	})
}

// onTick decrements the countdown; at zero it expires the session.
func (m *Monitor) onTick(epoch uint64) {
	m.mu.Lock()
	if epoch != m.epoch || m.state != Warning {
		m.mu.Unlock()
		return
	}

	m.secondsRemaining--
	if m.secondsRemaining <= 0 {
		m.expireLocked() // unlocks before running hooks
		return
	}

	m.armTickLocked()
	seconds := m.secondsRemaining
	onCountdown := m.hooks.OnCountdown
	m.mu.Unlock()

	if onCountdown != nil {
		onCountdown(seconds)
	}
}

// expireLocked performs the terminal transition: cancel everything, mark
// Expired, then — after releasing the lock — run SignOut and GoHome.
//
// The caller MUST hold the lock; expireLocked releases it. The state check
// in every entry point plus the epoch bump here guarantee the hooks run at
// most once per monitor run.
func (m *Monitor) expireLocked() {
	m.cancelTimersLocked()
	m.state = Expired
	m.secondsRemaining = 0
	signOut := m.hooks.SignOut
	goHome := m.hooks.GoHome
	m.mu.Unlock()

	m.logger.Info("session expired due to inactivity")
	if signOut != nil {
		signOut()
	}
	if goHome != nil {
		goHome()
	}
}
