package backoffice

import "time"

// Clock is the time source used for deadline scheduling. Production code
// uses [SystemClock]; tests substitute a manual clock so warning and
// timeout firings can be driven deterministically.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, fn func()) Timer
}

// Timer is a cancellable pending callback returned by [Clock.AfterFunc].
type Timer interface {
	// Stop cancels the pending callback. It reports false when the
	// callback already fired or was stopped before.
	Stop() bool
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

func (systemClock) AfterFunc(d time.Duration, fn func()) Timer {
	return time.AfterFunc(d, fn)
}

// SystemClock returns the wall-clock [Clock] backed by the time package.
func SystemClock() Clock { return systemClock{} }
