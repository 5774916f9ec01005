package testing

import (
	"slices"
	"sync"
	"time"

	"github.com/desertthunder/filmx/internal/notify"
)

var _ notify.Clock = (*FakeClock)(nil)

// FakeClock is a manually advanced [notify.Clock]. Callbacks run synchronously inside [FakeClock.Advance],
// in deadline order, and never from AfterFunc itself.
type FakeClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*FakeTimer
}

// FakeTimer is returned by [FakeClock.AfterFunc].
type FakeTimer struct {
	clock   *FakeClock
	at      time.Time
	fn      func()
	stopped bool
	fired   bool
}

// NewFakeClock starts a clock at start, or at a fixed date when start is zero.
func NewFakeClock(start time.Time) *FakeClock {
	if start.IsZero() {
		start = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	}
	return &FakeClock{now: start}
}

func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *FakeClock) AfterFunc(d time.Duration, f func()) notify.Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &FakeTimer{clock: c, at: c.now.Add(d), fn: f}
	c.timers = append(c.timers, t)
	return t
}

// Advance moves the clock forward by d, firing every timer that comes due on the way.
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	target := c.now.Add(d)
	c.mu.Unlock()

	for {
		c.mu.Lock()
		next := c.nextDue(target)
		if next == nil {
			c.now = target
			c.mu.Unlock()
			return
		}
		if next.at.After(c.now) {
			c.now = next.at
		}
		next.fired = true
		c.mu.Unlock()

		next.fn()
	}
}

// Pending counts timers that are neither stopped nor fired.
func (c *FakeClock) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, t := range c.timers {
		if !t.stopped && !t.fired {
			n++
		}
	}
	return n
}

func (c *FakeClock) nextDue(target time.Time) *FakeTimer {
	due := slices.DeleteFunc(slices.Clone(c.timers), func(t *FakeTimer) bool {
		return t.stopped || t.fired || t.at.After(target)
	})
	if len(due) == 0 {
		return nil
	}
	return slices.MinFunc(due, func(a, b *FakeTimer) int { return a.at.Compare(b.at) })
}

// Stop cancels the timer, reporting whether it was still pending.
func (t *FakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}

// Stopped reports whether Stop cancelled the timer.
func (t *FakeTimer) Stopped() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	return t.stopped
}
