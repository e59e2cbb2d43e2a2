package toast_test

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/ErlanBelekov/blog-newsletter/internal/toast"
)

// ---- fake clock ----

type fakeTimer struct {
	at      time.Duration
	f       func()
	stopped bool
	fired   bool
}

func (t *fakeTimer) Stop() bool {
	active := !t.stopped && !t.fired
	t.stopped = true
	return active
}

type fakeClock struct {
	mu     sync.Mutex
	now    time.Duration
	timers []*fakeTimer
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) toast.Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{at: c.now + d, f: f}
	c.timers = append(c.timers, t)
	return t
}

// Advance moves time forward, firing due timers in deadline order.
func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	target := c.now + d
	c.mu.Unlock()

	for {
		c.mu.Lock()
		var due []*fakeTimer
		for _, t := range c.timers {
			if !t.stopped && !t.fired && t.at <= target {
				due = append(due, t)
			}
		}
		if len(due) == 0 {
			c.now = target
			c.mu.Unlock()
			return
		}
		sort.Slice(due, func(i, j int) bool { return due[i].at < due[j].at })
		next := due[0]
		next.fired = true
		c.now = next.at
		c.mu.Unlock()
		next.f()
	}
}

// ---- helpers ----

func newManager(opts ...toast.Option) (*toast.Manager, *fakeClock) {
	clock := &fakeClock{}
	opts = append([]toast.Option{toast.WithClock(clock)}, opts...)
	return toast.NewManager(opts...), clock
}

func current(m *toast.Manager) string {
	msg, _ := m.Current()
	return msg
}

// ---- tests ----

func TestShowToast_VisibleUntilTTL(t *testing.T) {
	m, clock := newManager()

	m.ShowToast("A")
	clock.Advance(6999 * time.Millisecond)
	if got := current(m); got != "A" {
		t.Fatalf("at 6999ms current = %q, want %q", got, "A")
	}

	clock.Advance(2 * time.Millisecond)
	if msg, ok := m.Current(); ok || msg != "" {
		t.Fatalf("at 7001ms current = %q (visible=%v), want empty", msg, ok)
	}
}

func TestShowToast_OverwriteRearmsTimer(t *testing.T) {
	m, clock := newManager()

	m.ShowToast("A")
	clock.Advance(1000 * time.Millisecond)
	m.ShowToast("B")

	clock.Advance(6500 * time.Millisecond)
	if got := current(m); got != "B" {
		t.Fatalf("at 7500ms current = %q, want %q", got, "B")
	}

	clock.Advance(499 * time.Millisecond)
	if got := current(m); got != "B" {
		t.Fatalf("at 7999ms current = %q, want %q", got, "B")
	}

	clock.Advance(2 * time.Millisecond)
	if got := current(m); got != "" {
		t.Fatalf("at 8001ms current = %q, want empty", got)
	}
}

func TestShowToast_UncancelledTimersClearNewerToastEarly(t *testing.T) {
	m, clock := newManager(toast.WithUncancelledTimers())

	m.ShowToast("A")
	clock.Advance(1000 * time.Millisecond)
	m.ShowToast("B")

	clock.Advance(6500 * time.Millisecond)
	if got := current(m); got != "" {
		t.Fatalf("at 7500ms current = %q, want empty (first timer still armed)", got)
	}
}

func TestShow_KeepsLevel(t *testing.T) {
	m, _ := newManager()

	m.Show(toast.LevelError, "boom")
	got := m.CurrentToast()
	if got.Level != toast.LevelError || got.Message != "boom" {
		t.Fatalf("toast = %+v, want error/boom", got)
	}
}

func TestSubscribe_NotifiedOnShowAndDismiss(t *testing.T) {
	m, clock := newManager()

	var seen []string
	unsubscribe := m.Subscribe(func(tt toast.Toast) {
		seen = append(seen, tt.Message)
	})

	m.ShowToast("hello")
	clock.Advance(toast.DefaultTTL)

	if len(seen) != 2 || seen[0] != "hello" || seen[1] != "" {
		t.Fatalf("notifications = %q, want [hello \"\"]", seen)
	}

	unsubscribe()
	unsubscribe()
	m.ShowToast("again")
	if len(seen) != 2 {
		t.Fatalf("got notification after unsubscribe: %q", seen)
	}
}

func TestClose_StopsPendingDismissal(t *testing.T) {
	m, clock := newManager()

	m.ShowToast("sticky")
	m.Close()
	clock.Advance(time.Minute)

	if got := current(m); got != "sticky" {
		t.Fatalf("current = %q, want %q", got, "sticky")
	}
}

func TestClose_StopsSupersededTimersToo(t *testing.T) {
	m, clock := newManager(toast.WithUncancelledTimers())

	m.ShowToast("A")
	clock.Advance(1000 * time.Millisecond)
	m.ShowToast("B")
	m.Close()
	clock.Advance(time.Minute)

	if got := current(m); got != "B" {
		t.Fatalf("current = %q, want %q", got, "B")
	}
	for i, tm := range clock.timers {
		if tm.fired {
			t.Errorf("timer %d fired after Close", i)
		}
	}
}

func TestWithTTL(t *testing.T) {
	m, clock := newManager(toast.WithTTL(time.Second))

	m.ShowToast("short")
	clock.Advance(time.Second)
	if got := current(m); got != "" {
		t.Fatalf("current = %q, want empty", got)
	}
}

func TestContext_RoundTrip(t *testing.T) {
	m, _ := newManager()

	ctx := toast.NewContext(context.Background(), m)
	if toast.FromContext(ctx) != m {
		t.Fatal("FromContext did not return the stored manager")
	}
	if toast.FromContext(context.Background()) != nil {
		t.Fatal("FromContext on empty context should be nil")
	}
}
