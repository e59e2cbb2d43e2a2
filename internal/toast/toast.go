package toast

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// DefaultTTL is how long a toast stays visible after ShowToast.
const DefaultTTL = 7000 * time.Millisecond

type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
	LevelInfo    Level = "info"
)

// Toast is the single active notification.
type Toast struct {
	Message string
	Level   Level
}

// Timer is the subset of *time.Timer the manager needs.
type Timer interface {
	Stop() bool
}

// Clock schedules dismissal callbacks. Satisfied by RealClock.
type Clock interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type RealClock struct{}

func (RealClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// Manager holds at most one message and clears it TTL after it was set.
// A newer message overwrites the current one and re-arms the timer.
type Manager struct {
	mu        sync.Mutex
	clock     Clock
	ttl       time.Duration
	keepStale bool
	logger    *slog.Logger

	current Toast
	timer   Timer
	gen     uint64
	// superseded timers left armed by WithUncancelledTimers, by generation
	stale map[uint64]Timer

	nextSub int
	subs    map[int]func(Toast)
}

type Option func(*Manager)

func WithClock(c Clock) Option {
	return func(m *Manager) { m.clock = c }
}

func WithTTL(d time.Duration) Option {
	return func(m *Manager) { m.ttl = d }
}

func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) { m.logger = l }
}

// WithUncancelledTimers leaves previous dismissal timers armed when a new
// toast replaces the current one. An older timer then clears whatever is
// showing when it fires, so a newer toast can disappear early.
func WithUncancelledTimers() Option {
	return func(m *Manager) { m.keepStale = true }
}

func NewManager(opts ...Option) *Manager {
	m := &Manager{
		clock:  RealClock{},
		ttl:    DefaultTTL,
		logger: slog.Default(),
		subs:   make(map[int]func(Toast)),
		stale:  make(map[uint64]Timer),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.logger = m.logger.With("component", "toast")
	return m
}

// ShowToast displays message at info level.
func (m *Manager) ShowToast(message string) {
	m.Show(LevelInfo, message)
}

// Show replaces the current toast and arms a fresh dismissal timer.
func (m *Manager) Show(level Level, message string) {
	m.mu.Lock()
	if m.timer != nil {
		if m.keepStale {
			m.stale[m.gen] = m.timer
		} else {
			m.timer.Stop()
		}
	}
	m.gen++
	gen := m.gen
	m.current = Toast{Message: message, Level: level}
	m.timer = m.clock.AfterFunc(m.ttl, func() { m.expire(gen) })
	t := m.current
	subs := m.snapshotLocked()
	m.mu.Unlock()

	m.logger.Debug("toast shown", "level", level, "message", message)
	notify(subs, t)
}

func (m *Manager) expire(gen uint64) {
	m.mu.Lock()
	delete(m.stale, gen)
	if !m.keepStale && gen != m.gen {
		m.mu.Unlock()
		return
	}
	if m.current.Message == "" {
		m.mu.Unlock()
		return
	}
	m.current = Toast{}
	if gen == m.gen {
		m.timer = nil
	}
	subs := m.snapshotLocked()
	m.mu.Unlock()

	m.logger.Debug("toast dismissed")
	notify(subs, Toast{})
}

// Current returns the visible message, if any.
func (m *Manager) Current() (string, bool) {
	t := m.CurrentToast()
	return t.Message, t.Message != ""
}

func (m *Manager) CurrentToast() Toast {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// Subscribe registers fn to be called after every change, including
// dismissal (with an empty Toast). The returned func unregisters it.
func (m *Manager) Subscribe(fn func(Toast)) func() {
	m.mu.Lock()
	id := m.nextSub
	m.nextSub++
	m.subs[id] = fn
	m.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			delete(m.subs, id)
			m.mu.Unlock()
		})
	}
}

// Close stops every pending dismissal timer, including superseded ones kept
// by WithUncancelledTimers. The current message stays.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
	for gen, t := range m.stale {
		t.Stop()
		delete(m.stale, gen)
	}
}

func (m *Manager) snapshotLocked() []func(Toast) {
	subs := make([]func(Toast), 0, len(m.subs))
	for _, fn := range m.subs {
		subs = append(subs, fn)
	}
	return subs
}

func notify(subs []func(Toast), t Toast) {
	for _, fn := range subs {
		fn(t)
	}
}

type ctxKey struct{}

// NewContext returns a copy of ctx carrying m.
func NewContext(ctx context.Context, m *Manager) context.Context {
	return context.WithValue(ctx, ctxKey{}, m)
}

// FromContext returns the Manager stored in ctx, or nil.
func FromContext(ctx context.Context) *Manager {
	m, _ := ctx.Value(ctxKey{}).(*Manager)
	return m
}
