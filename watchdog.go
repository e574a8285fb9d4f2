package backoffice

import (
	"sync"
	"time"
)

// SignalKind defines a public type used by backoffice APIs.
//
// SignalKind instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type SignalKind string

const (
	// SignalPointerDown is an exported constant or variable used by the back-office engine.
	SignalPointerDown SignalKind = "pointer_down"
	// SignalPointerMove is an exported constant or variable used by the back-office engine.
	SignalPointerMove SignalKind = "pointer_move"
	// SignalKeyPress is an exported constant or variable used by the back-office engine.
	SignalKeyPress SignalKind = "key_press"
	// SignalScroll is an exported constant or variable used by the back-office engine.
	SignalScroll SignalKind = "scroll"
	// SignalTouchStart is an exported constant or variable used by the back-office engine.
	SignalTouchStart SignalKind = "touch_start"
	// SignalClick is an exported constant or variable used by the back-office engine.
	SignalClick SignalKind = "click"
	// SignalFocusGain is an exported constant or variable used by the back-office engine.
	SignalFocusGain SignalKind = "focus_gain"
)

// AllSignalKinds returns every interaction signal the [Watchdog] treats as
// activity. The slice is freshly allocated on each call.
func AllSignalKinds() []SignalKind {
	return []SignalKind{
		SignalPointerDown,
		SignalPointerMove,
		SignalKeyPress,
		SignalScroll,
		SignalTouchStart,
		SignalClick,
		SignalFocusGain,
	}
}

// SignalSource delivers raw interaction signals. The concrete source
// (browser bridge, test harness, demo loop) is a collaborator outside this
// package; the watchdog only needs subscribe-with-unsubscribe semantics.
type SignalSource interface {
	Subscribe(kind SignalKind, fn func()) (unsubscribe func())
}

// WatchdogCallbacks carries the notifications a [Watchdog] can emit.
// All fields are optional; a nil callback is skipped.
type WatchdogCallbacks struct {
	// OnWarning fires once per deadline cycle when the warning lead is
	// reached, with the time remaining until forced timeout.
	OnWarning func(remaining time.Duration)
	// OnTimeout fires exactly once when the deadline elapses with no
	// intervening activity. The watchdog tears itself down first.
	OnTimeout func()
	// OnExtended fires when activity arrives after a warning was shown,
	// exactly once per warning-then-activity transition.
	OnExtended func()
}

// Watchdog translates a stream of interaction signals into session-extension
// resets. Each reset cancels both pending deadline timers before scheduling
// replacements, so a stale timer can never fire after a legitimate reset.
//
// The zero value is not usable; construct via [NewWatchdog]. All methods are
// safe for concurrent use.
type Watchdog struct {
	mu sync.Mutex

	clock       Clock
	timeout     time.Duration
	warningLead time.Duration
	callbacks   WatchdogCallbacks

	warningTimer Timer
	timeoutTimer Timer
	unsubscribes []func()

	lastActivityAt time.Time
	deadline       time.Time
	warningShown   bool
	stopped        bool

	// cycle invalidates timer callbacks scheduled before the latest reset.
	// Stop alone is not enough: a timer may have fired concurrently with
	// the reset and already be past its Stop check.
	cycle uint64
}

// NewWatchdog creates a [Watchdog] with the given idle-timeout parameters.
// A nil clock selects [SystemClock]. The watchdog is idle until [Watchdog.Observe]
// or [Watchdog.OnActivity] arms it.
func NewWatchdog(cfg InactivityConfig, clock Clock, cb WatchdogCallbacks) (*Watchdog, error) {
	if cfg.Timeout == 0 && cfg.WarningLead == 0 {
		cfg.Timeout = DefaultInactivityTimeout
		cfg.WarningLead = DefaultWarningLead
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if clock == nil {
		clock = SystemClock()
	}

	return &Watchdog{
		clock:       clock,
		timeout:     cfg.Timeout,
		warningLead: cfg.WarningLead,
		callbacks:   cb,
	}, nil
}

// Observe subscribes to every signal kind on src and arms the deadline
// timers. Each delivered signal is one activity reset; bursts collapse into
// idempotent resets with no extra timer churn beyond cancel-and-reschedule.
// A repeat Observe without an intervening [Watchdog.Stop] replaces the
// previous subscriptions instead of stacking a second set.
func (w *Watchdog) Observe(src SignalSource) {
	if src != nil {
		w.mu.Lock()
		for _, unsubscribe := range w.unsubscribes {
			unsubscribe()
		}
		w.unsubscribes = w.unsubscribes[:0]
		w.stopped = false
		for _, kind := range AllSignalKinds() {
			w.unsubscribes = append(w.unsubscribes, src.Subscribe(kind, w.OnActivity))
		}
		w.mu.Unlock()
	}

	w.OnActivity()
}

// OnActivity records the current time as the last activity instant and
// reschedules both deadlines: warning at deadline-warningLead, timeout at
// lastActivity+timeout. If a warning had been shown this cycle, the flag is
// cleared and OnExtended fires exactly once.
func (w *Watchdog) OnActivity() {
	w.mu.Lock()

	now := w.clock.Now()
	w.stopped = false
	w.lastActivityAt = now
	w.deadline = now.Add(w.timeout)

	w.cancelTimersLocked()
	w.cycle++
	cycle := w.cycle
	w.warningTimer = w.clock.AfterFunc(w.timeout-w.warningLead, func() { w.fireWarning(cycle) })
	w.timeoutTimer = w.clock.AfterFunc(w.timeout, func() { w.fireTimeout(cycle) })

	wasWarned := w.warningShown
	w.warningShown = false
	extended := w.callbacks.OnExtended

	w.mu.Unlock()

	if wasWarned && extended != nil {
		extended()
	}
}

// Stop unsubscribes from all signal kinds and cancels both pending timers.
// It is idempotent: calling it twice, or without a prior Observe, is a no-op.
func (w *Watchdog) Stop() {
	w.mu.Lock()
	w.teardownLocked()
	w.mu.Unlock()
}

// TimeRemaining reports max(0, deadline-now). It is a pure query for UI
// display and has no side effect on timers or state.
func (w *Watchdog) TimeRemaining() time.Duration {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.stopped || w.deadline.IsZero() {
		return 0
	}
	remaining := w.deadline.Sub(w.clock.Now())
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Deadline returns the instant the current cycle times out, or the zero
// time when the watchdog is not armed.
func (w *Watchdog) Deadline() time.Time {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.stopped {
		return time.Time{}
	}
	return w.deadline
}

// LastActivity returns the instant of the most recent activity reset.
func (w *Watchdog) LastActivity() time.Time {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastActivityAt
}

// WarningShown reports whether the warning for the current cycle has fired
// without a subsequent activity reset.
func (w *Watchdog) WarningShown() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.warningShown
}

func (w *Watchdog) fireWarning(cycle uint64) {
	w.mu.Lock()
	if w.stopped || cycle != w.cycle || w.warningShown {
		w.mu.Unlock()
		return
	}
	w.warningShown = true
	remaining := w.deadline.Sub(w.clock.Now())
	if remaining < 0 {
		remaining = 0
	}
	cb := w.callbacks.OnWarning
	w.mu.Unlock()

	if cb != nil {
		cb(remaining)
	}
}

func (w *Watchdog) fireTimeout(cycle uint64) {
	w.mu.Lock()
	if w.stopped || cycle != w.cycle {
		w.mu.Unlock()
		return
	}
	w.teardownLocked()
	cb := w.callbacks.OnTimeout
	w.mu.Unlock()

	if cb != nil {
		cb()
	}
}

func (w *Watchdog) cancelTimersLocked() {
	if w.warningTimer != nil {
		w.warningTimer.Stop()
		w.warningTimer = nil
	}
	if w.timeoutTimer != nil {
		w.timeoutTimer.Stop()
		w.timeoutTimer = nil
	}
}

func (w *Watchdog) teardownLocked() {
	if w.stopped {
		return
	}
	w.stopped = true
	w.cycle++
	w.cancelTimersLocked()
	for _, unsubscribe := range w.unsubscribes {
		unsubscribe()
	}
	w.unsubscribes = nil
	w.warningShown = false
	w.deadline = time.Time{}
}
