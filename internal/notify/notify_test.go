package notify_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/desertthunder/filmx/internal/notify"
	tu "github.com/desertthunder/filmx/internal/testing"
)

const (
	window    = 5 * time.Second
	exitDelay = 300 * time.Millisecond
)

func newCenter(t *testing.T) (*notify.Center, *tu.FakeClock) {
	t.Helper()
	clock := tu.NewFakeClock(time.Time{})
	c := notify.New(notify.WithClock(clock), notify.WithWindow(window), notify.WithExitDelay(exitDelay))
	t.Cleanup(func() { c.Close() })
	return c, clock
}

func ids(ns []notify.Notification) []string {
	out := make([]string, len(ns))
	for i, n := range ns {
		out[i] = n.ID
	}
	return out
}

func TestCenterPush(t *testing.T) {
	t.Run("appends oldest first", func(t *testing.T) {
		c, clock := newCenter(t)

		first := c.Push("Film added", notify.Success)
		clock.Advance(time.Second)
		second := c.Error("Lookup failed")

		snap := c.Snapshot()
		require.Len(t, snap, 2)
		assert.Equal(t, []string{first, second}, ids(snap))
		assert.Equal(t, notify.Success, snap[0].Kind)
		assert.Equal(t, notify.Error, snap[1].Kind)
		assert.Equal(t, "Lookup failed", snap[1].Message)
		assert.Equal(t, time.Second, snap[1].CreatedAt.Sub(snap[0].CreatedAt))
		assert.False(t, snap[0].Exiting)
	})

	t.Run("ids are unique", func(t *testing.T) {
		c, _ := newCenter(t)
		seen := map[string]bool{}
		for range 50 {
			id := c.Info("same message")
			require.False(t, seen[id], "duplicate id %s", id)
			seen[id] = true
		}
		assert.Equal(t, 50, c.Len())
	})

	t.Run("snapshot is a copy", func(t *testing.T) {
		c, _ := newCenter(t)
		c.Success("a")

		snap := c.Snapshot()
		snap[0].Message = "changed"
		assert.Equal(t, "a", c.Snapshot()[0].Message)
	})
}

func TestCenterAutoDismiss(t *testing.T) {
	t.Run("removed after window plus exit delay", func(t *testing.T) {
		c, clock := newCenter(t)
		c.Success("hello")

		clock.Advance(window - time.Millisecond)
		require.Equal(t, 1, c.Len())
		assert.False(t, c.Snapshot()[0].Exiting, "must not start exiting before the window elapses")

		clock.Advance(time.Millisecond)
		require.Equal(t, 1, c.Len())
		assert.True(t, c.Snapshot()[0].Exiting)

		clock.Advance(exitDelay - time.Millisecond)
		assert.Equal(t, 1, c.Len())

		clock.Advance(time.Millisecond)
		assert.Equal(t, 0, c.Len())
		assert.Zero(t, clock.Pending())
	})

	t.Run("each notification keeps its own deadline", func(t *testing.T) {
		c, clock := newCenter(t)
		c.Success("first")
		clock.Advance(2 * time.Second)
		second := c.Success("second")

		clock.Advance(3*time.Second + exitDelay)
		snap := c.Snapshot()
		require.Len(t, snap, 1)
		assert.Equal(t, second, snap[0].ID)

		clock.Advance(2 * time.Second)
		assert.Equal(t, 0, c.Len())
	})

	t.Run("push then five seconds is gone", func(t *testing.T) {
		clock := tu.NewFakeClock(time.Time{})
		c := notify.New(notify.WithClock(clock))
		defer c.Close()

		c.Success("Film added")
		clock.Advance(notify.DefaultWindow + notify.DefaultExitDelay)
		assert.Empty(t, c.Snapshot())
	})
}

func TestCenterDismiss(t *testing.T) {
	t.Run("manual dismiss cancels the auto timer", func(t *testing.T) {
		c, clock := newCenter(t)
		id := c.Warning("careful")

		clock.Advance(time.Second)
		require.True(t, c.Dismiss(id))
		assert.True(t, c.Snapshot()[0].Exiting, "exiting phase should be observable right away")
		assert.Equal(t, 1, clock.Pending(), "only the removal timer should remain")

		clock.Advance(exitDelay)
		assert.Equal(t, 0, c.Len())

		clock.Advance(window)
		assert.Equal(t, 0, c.Len())
		assert.Zero(t, clock.Pending())
	})

	t.Run("double dismiss is a single removal", func(t *testing.T) {
		c, clock := newCenter(t)
		id := c.Success("a")
		c.Success("b")

		assert.True(t, c.Dismiss(id))
		assert.False(t, c.Dismiss(id))

		clock.Advance(exitDelay)
		assert.Equal(t, 1, c.Len())
		assert.False(t, c.Dismiss(id), "dismissing a removed id is a no-op")
		assert.Equal(t, 1, c.Len())
	})

	t.Run("dismiss after auto expiry started is ignored", func(t *testing.T) {
		c, clock := newCenter(t)
		id := c.Success("a")

		clock.Advance(window)
		require.True(t, c.Snapshot()[0].Exiting)
		assert.False(t, c.Dismiss(id))

		clock.Advance(exitDelay)
		assert.Equal(t, 0, c.Len())
	})

	t.Run("unknown id", func(t *testing.T) {
		c, _ := newCenter(t)
		c.Success("a")
		assert.False(t, c.Dismiss("missing"))
		assert.Equal(t, 1, c.Len())
	})

	t.Run("live count equals pushes minus completed removals", func(t *testing.T) {
		c, clock := newCenter(t)
		a := c.Success("a")
		c.Success("b")
		c.Success("c")

		c.Dismiss(a)
		assert.Equal(t, 3, c.Len(), "exiting notifications still count")
		clock.Advance(exitDelay)
		assert.Equal(t, 2, c.Len())
	})

	t.Run("dismiss all", func(t *testing.T) {
		c, clock := newCenter(t)
		c.Success("a")
		c.Success("b")

		c.DismissAll()
		for _, n := range c.Snapshot() {
			assert.True(t, n.Exiting)
		}
		clock.Advance(exitDelay)
		assert.Equal(t, 0, c.Len())
	})

	t.Run("zero exit delay removes immediately", func(t *testing.T) {
		clock := tu.NewFakeClock(time.Time{})
		c := notify.New(notify.WithClock(clock), notify.WithExitDelay(0))
		defer c.Close()

		id := c.Success("a")
		require.True(t, c.Dismiss(id))
		assert.Equal(t, 0, c.Len())
	})
}

func TestCenterAdopt(t *testing.T) {
	t.Run("schedules only the remaining window", func(t *testing.T) {
		c, clock := newCenter(t)
		n := notify.Notification{ID: "x", Message: "carried", Kind: notify.Info, CreatedAt: clock.Now().Add(-3 * time.Second)}

		require.True(t, c.Adopt(n))
		clock.Advance(2*time.Second - time.Millisecond)
		assert.False(t, c.Snapshot()[0].Exiting)

		clock.Advance(time.Millisecond)
		assert.True(t, c.Snapshot()[0].Exiting)

		clock.Advance(exitDelay)
		assert.Equal(t, 0, c.Len())
	})

	t.Run("already expired starts exiting at once", func(t *testing.T) {
		c, clock := newCenter(t)
		n := notify.Notification{ID: "old", CreatedAt: clock.Now().Add(-10 * time.Second)}

		require.True(t, c.Adopt(n))
		clock.Advance(0)
		assert.True(t, c.Snapshot()[0].Exiting)
	})

	t.Run("exiting notification finishes its exit", func(t *testing.T) {
		c, clock := newCenter(t)
		require.True(t, c.Adopt(notify.Notification{ID: "bye", CreatedAt: clock.Now(), Exiting: true}))

		clock.Advance(exitDelay)
		assert.Equal(t, 0, c.Len())
	})

	t.Run("keeps creation order", func(t *testing.T) {
		c, clock := newCenter(t)
		now := clock.Now()
		mine := c.Success("mine")

		c.Adopt(notify.Notification{ID: "older", CreatedAt: now.Add(-time.Second)})
		c.Adopt(notify.Notification{ID: "newer", CreatedAt: now.Add(time.Millisecond)})

		assert.Equal(t, []string{"older", mine, "newer"}, ids(c.Snapshot()))
	})

	t.Run("duplicate id rejected", func(t *testing.T) {
		c, clock := newCenter(t)
		n := notify.Notification{ID: "dup", CreatedAt: clock.Now()}
		assert.True(t, c.Adopt(n))
		assert.False(t, c.Adopt(n))
		assert.Equal(t, 1, c.Len())
	})

	t.Run("hand over between centers", func(t *testing.T) {
		clock := tu.NewFakeClock(time.Time{})
		from := notify.New(notify.WithClock(clock))
		to := notify.New(notify.WithClock(clock))
		defer to.Close()

		from.Success("saved")
		clock.Advance(4 * time.Second)

		for _, n := range from.Close() {
			to.Adopt(n)
		}
		require.Equal(t, 1, to.Len())

		clock.Advance(time.Second + notify.DefaultExitDelay)
		assert.Equal(t, 0, to.Len(), "hand over must not extend the window")
	})
}

func TestCenterClose(t *testing.T) {
	t.Run("cancels timers and returns live notifications", func(t *testing.T) {
		clock := tu.NewFakeClock(time.Time{})
		c := notify.New(notify.WithClock(clock))
		c.Success("a")
		c.Success("b")

		live := c.Close()
		assert.Len(t, live, 2)
		assert.Zero(t, clock.Pending())
		assert.Equal(t, 0, c.Len())
		assert.Nil(t, c.Close())
	})

	t.Run("later operations are no-ops", func(t *testing.T) {
		clock := tu.NewFakeClock(time.Time{})
		c := notify.New(notify.WithClock(clock))
		id := c.Success("a")
		c.Close()

		assert.NotEmpty(t, c.Push("late", notify.Info))
		assert.False(t, c.Dismiss(id))
		assert.False(t, c.Adopt(notify.Notification{ID: "z"}))
		c.DismissAll()
		clock.Advance(time.Minute)
		assert.Equal(t, 0, c.Len())
	})

	t.Run("changes channel is closed", func(t *testing.T) {
		c := notify.New()
		c.Close()
		_, ok := <-c.Changes()
		assert.False(t, ok)
	})
}

func TestCenterChanges(t *testing.T) {
	c, clock := newCenter(t)

	c.Success("a")
	c.Success("b")
	select {
	case <-c.Changes():
	default:
		t.Fatal("expected a change signal")
	}
	select {
	case <-c.Changes():
		t.Fatal("signals should coalesce")
	default:
	}

	clock.Advance(window)
	select {
	case <-c.Changes():
	default:
		t.Fatal("expected a change signal after expiry")
	}
}

func TestCenterSystemClock(t *testing.T) {
	c := notify.New(notify.WithWindow(20*time.Millisecond), notify.WithExitDelay(5*time.Millisecond))
	defer c.Close()

	c.Success("real timers")
	require.Equal(t, 1, c.Len())
	assert.Eventually(t, func() bool { return c.Len() == 0 }, time.Second, 5*time.Millisecond)
}

func TestKind(t *testing.T) {
	tc := []struct {
		in   string
		want notify.Kind
	}{
		{"", notify.Success},
		{"success", notify.Success},
		{"ERROR", notify.Error},
		{"warn", notify.Warning},
		{"info", notify.Info},
	}
	for _, tt := range tc {
		got, err := notify.ParseKind(tt.in)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}

	_, err := notify.ParseKind("shout")
	assert.Error(t, err)
	assert.Equal(t, "warning", notify.Warning.String())
}

func TestNotificationRemaining(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 10, 0, time.UTC)
	n := notify.Notification{CreatedAt: now.Add(-2 * time.Second)}

	assert.Equal(t, 3*time.Second, n.Remaining(window, now))
	assert.Equal(t, time.Duration(0), n.Remaining(time.Second, now))
}
