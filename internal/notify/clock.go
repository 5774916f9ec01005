package notify

import "time"

// Timer is a pending callback that can be cancelled.
type Timer interface {
	Stop() bool
}

// Clock supplies the current time and schedules callbacks.
//
// AfterFunc must run f on another goroutine or later from the caller's point of view, never synchronously,
// because [Center] holds its lock while scheduling.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

func (systemClock) AfterFunc(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) }

// SystemClock is the wall clock backed by [time.AfterFunc].
var SystemClock Clock = systemClock{}
