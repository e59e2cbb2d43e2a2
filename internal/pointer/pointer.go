// Package pointer delivers global pointer-down events to registered
// listeners and hit-tests them against screen regions.
package pointer

import "sync"

// Event is a pointer-down at a cell position.
type Event struct {
	X, Y int
}

// Region reports whether an event landed inside it.
type Region interface {
	Contains(e Event) bool
}

// Rect is an axis-aligned region. Width and Height are exclusive bounds.
type Rect struct {
	X, Y          int
	Width, Height int
}

func (r Rect) Contains(e Event) bool {
	return e.X >= r.X && e.X < r.X+r.Width &&
		e.Y >= r.Y && e.Y < r.Y+r.Height
}

func (r Rect) Empty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// RegionFunc adapts a function to Region, for regions computed at render time.
type RegionFunc func(e Event) bool

func (f RegionFunc) Contains(e Event) bool { return f(e) }

// Observer fans pointer events out to listeners.
type Observer struct {
	mu        sync.Mutex
	next      int
	listeners map[int]func(Event)
}

func NewObserver() *Observer {
	return &Observer{listeners: make(map[int]func(Event))}
}

// Subscribe registers fn. The returned func unregisters it and is safe to
// call more than once, including from inside fn.
func (o *Observer) Subscribe(fn func(Event)) (unsubscribe func()) {
	o.mu.Lock()
	id := o.next
	o.next++
	o.listeners[id] = fn
	o.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			o.mu.Lock()
			delete(o.listeners, id)
			o.mu.Unlock()
		})
	}
}

// Dispatch delivers e to every listener registered at the time of the call.
func (o *Observer) Dispatch(e Event) {
	o.mu.Lock()
	fns := make([]func(Event), 0, len(o.listeners))
	for _, fn := range o.listeners {
		fns = append(fns, fn)
	}
	o.mu.Unlock()

	for _, fn := range fns {
		fn(e)
	}
}

// Len returns the number of registered listeners.
func (o *Observer) Len() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.listeners)
}
