package notify

import (
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/filmx/internal/shared"
)

const (
	DefaultWindow    = 5 * time.Second
	DefaultExitDelay = 300 * time.Millisecond
)

// Kind is the severity of a notification and only affects presentation.
type Kind int

const (
	Success Kind = iota
	Error
	Warning
	Info
)

func (k Kind) String() string {
	switch k {
	case Success:
		return "success"
	case Error:
		return "error"
	case Warning:
		return "warning"
	case Info:
		return "info"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// ParseKind maps "success", "error", "warning" or "info" to a [Kind]. An empty string is [Success].
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "success":
		return Success, nil
	case "error":
		return Error, nil
	case "warning", "warn":
		return Warning, nil
	case "info":
		return Info, nil
	}
	return Success, fmt.Errorf("%w: notification kind %q", shared.ErrInvalidArgument, s)
}

// Notification is an ephemeral message shown to the user.
type Notification struct {
	ID        string
	Message   string
	Kind      Kind
	CreatedAt time.Time
	Exiting   bool // dismissal started, removal pending
}

// Remaining is how much of window is left for n at now, never negative.
func (n Notification) Remaining(window time.Duration, now time.Time) time.Duration {
	return max(window-now.Sub(n.CreatedAt), 0)
}

type entry struct {
	n     Notification
	timer Timer
}

// Center owns a queue of notifications and their expiry timers.
//
// Notifications are kept oldest first. Each one is removed automatically once its window has elapsed
// since CreatedAt, or earlier through [Center.Dismiss]. Removal is two-phase: the notification is first
// marked Exiting and removed for good after the exit delay.
type Center struct {
	mu        sync.Mutex
	clock     Clock
	window    time.Duration
	exitDelay time.Duration
	logger    *log.Logger
	entries   []*entry
	changes   chan struct{}
	closed    bool
}

// Option configures a [Center].
type Option func(*Center)

// WithWindow sets how long a notification stays before it is dismissed automatically.
func WithWindow(d time.Duration) Option {
	return func(c *Center) {
		if d > 0 {
			c.window = d
		}
	}
}

// WithExitDelay sets the pause between the exiting phase and removal. Zero removes immediately.
func WithExitDelay(d time.Duration) Option {
	return func(c *Center) {
		if d >= 0 {
			c.exitDelay = d
		}
	}
}

// WithClock replaces the wall clock, mostly for tests.
func WithClock(clock Clock) Option {
	return func(c *Center) {
		if clock != nil {
			c.clock = clock
		}
	}
}

func WithLogger(l *log.Logger) Option {
	return func(c *Center) {
		if l != nil {
			c.logger = l
		}
	}
}

// New creates an empty [Center].
func New(opts ...Option) *Center {
	c := &Center{
		clock:     SystemClock,
		window:    DefaultWindow,
		exitDelay: DefaultExitDelay,
		logger:    shared.DiscardLogger(),
		changes:   make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Window returns the configured auto-dismiss window.
func (c *Center) Window() time.Duration { return c.window }

// Push appends a notification and schedules its automatic dismissal. It returns the new id.
//
// After [Center.Close] the notification is dropped but an id is still returned.
func (c *Center) Push(message string, kind Kind) string {
	n := Notification{
		ID:        shared.GenerateID(),
		Message:   message,
		Kind:      kind,
		CreatedAt: c.clock.Now(),
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		c.logger.Debug("push after close dropped", "id", n.ID)
		return n.ID
	}

	e := &entry{n: n}
	c.entries = append(c.entries, e)
	c.armExpiry(e)
	c.logger.Debug("notification pushed", "id", n.ID, "kind", kind)
	c.signal()
	return n.ID
}

// Success pushes a [Success] notification.
func (c *Center) Success(message string) string { return c.Push(message, Success) }

// Error pushes an [Error] notification.
func (c *Center) Error(message string) string { return c.Push(message, Error) }

// Warning pushes a [Warning] notification.
func (c *Center) Warning(message string) string { return c.Push(message, Warning) }

// Info pushes an [Info] notification.
func (c *Center) Info(message string) string { return c.Push(message, Info) }

// Adopt takes over a notification created by another center, keeping its id and CreatedAt so only the
// remaining part of the window is scheduled. A notification that was already exiting finishes its exit here.
//
// Returns false when the center is closed or already holds the id.
func (c *Center) Adopt(n Notification) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return false
	}
	if n.ID == "" {
		n.ID = shared.GenerateID()
	}
	if c.find(n.ID) >= 0 {
		return false
	}

	e := &entry{n: n}
	at := slices.IndexFunc(c.entries, func(o *entry) bool { return o.n.CreatedAt.After(n.CreatedAt) })
	if at < 0 {
		c.entries = append(c.entries, e)
	} else {
		c.entries = slices.Insert(c.entries, at, e)
	}

	if n.Exiting {
		c.armRemoval(e)
	} else {
		c.armExpiry(e)
	}
	c.logger.Debug("notification adopted", "id", n.ID, "remaining", n.Remaining(c.window, c.clock.Now()))
	c.signal()
	return true
}

// Dismiss starts removal of the notification with id. Unknown ids and notifications that are already
// exiting are ignored. Returns whether a removal was started.
func (c *Center) Dismiss(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return false
	}
	i := c.find(id)
	if i < 0 || c.entries[i].n.Exiting {
		return false
	}
	c.beginExit(c.entries[i])
	return true
}

// DismissAll starts removal of every live notification.
func (c *Center) DismissAll() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	for _, e := range c.entries {
		if !e.n.Exiting {
			c.beginExit(e)
		}
	}
}

// Snapshot returns the current notifications, oldest first.
func (c *Center) Snapshot() []Notification {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]Notification, len(c.entries))
	for i, e := range c.entries {
		out[i] = e.n
	}
	return out
}

// Len counts notifications not yet removed, including exiting ones.
func (c *Center) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Changes delivers a signal after any mutation. Signals coalesce; the channel is closed by [Center.Close].
func (c *Center) Changes() <-chan struct{} {
	return c.changes
}

// Close cancels every pending timer and empties the center. It returns the notifications that were still
// live so they can be handed to another center with [Center.Adopt]. Calling Close twice returns nil.
func (c *Center) Close() []Notification {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true

	live := make([]Notification, 0, len(c.entries))
	for _, e := range c.entries {
		if e.timer != nil {
			e.timer.Stop()
			e.timer = nil
		}
		live = append(live, e.n)
	}
	c.entries = nil
	close(c.changes)
	return live
}

func (c *Center) find(id string) int {
	return slices.IndexFunc(c.entries, func(e *entry) bool { return e.n.ID == id })
}

// armExpiry schedules the automatic dismissal of e. Callers hold c.mu.
func (c *Center) armExpiry(e *entry) {
	remaining := e.n.Remaining(c.window, c.clock.Now())
	e.timer = c.clock.AfterFunc(remaining, func() { c.expire(e) })
}

// armRemoval schedules the final removal of an exiting e. Callers hold c.mu.
func (c *Center) armRemoval(e *entry) {
	if c.exitDelay == 0 {
		c.removeLocked(e)
		return
	}
	e.timer = c.clock.AfterFunc(c.exitDelay, func() { c.remove(e) })
}

// beginExit stops the expiry timer and marks e exiting. Callers hold c.mu.
func (c *Center) beginExit(e *entry) {
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
	e.n.Exiting = true
	c.logger.Debug("notification exiting", "id", e.n.ID)
	c.armRemoval(e)
	c.signal()
}

func (c *Center) expire(e *entry) {
	c.mu.Lock()
	defer c.mu.Unlock()

	// the entry may have been dismissed or the center closed while the timer was firing
	if c.closed || e.n.Exiting || !slices.Contains(c.entries, e) {
		return
	}
	c.beginExit(e)
}

func (c *Center) remove(e *entry) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.removeLocked(e)
}

func (c *Center) removeLocked(e *entry) {
	i := slices.Index(c.entries, e)
	if i < 0 {
		return
	}
	e.timer = nil
	c.entries = slices.Delete(c.entries, i, i+1)
	c.logger.Debug("notification removed", "id", e.n.ID)
	c.signal()
}

// signal performs a non-blocking send on the change channel. Callers hold c.mu.
func (c *Center) signal() {
	if c.closed {
		return
	}
	select {
	case c.changes <- struct{}{}:
	default:
	}
}
