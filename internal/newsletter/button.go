package newsletter

import (
	"sync"

	"github.com/ErlanBelekov/blog-newsletter/internal/pointer"
)

const DefaultButtonLabel = "Subscribe"

// Button mounts a fresh Popup on Open and unmounts it on Close.
type Button struct {
	Label string

	newPopup func(onClose func()) *Popup
	observer *pointer.Observer
	root     pointer.Region

	mu    sync.Mutex
	open  bool
	popup *Popup
}

// NewButton builds a toggle whose popups are configured from cfg. cfg.OnClose
// is replaced with the button's own Close. Popups listen on obs and treat
// pointer-downs outside root as dismissal.
func NewButton(cfg PopupConfig, obs *pointer.Observer, root pointer.Region) *Button {
	return &Button{
		Label: DefaultButtonLabel,
		newPopup: func(onClose func()) *Popup {
			c := cfg
			c.OnClose = onClose
			return NewPopup(c)
		},
		observer: obs,
		root:     root,
	}
}

// Open shows the popup. Opening an open button does nothing.
func (b *Button) Open() {
	b.mu.Lock()
	if b.open {
		b.mu.Unlock()
		return
	}
	var p *Popup
	p = b.newPopup(func() { b.closePopup(p) })
	b.open = true
	b.popup = p
	b.mu.Unlock()

	p.Mount(b.observer, b.root)
}

// Close hides and unmounts the popup.
func (b *Button) Close() {
	b.closePopup(nil)
}

// closePopup closes the button if target is nil or still the mounted popup,
// so a stale popup cannot close its successor.
func (b *Button) closePopup(target *Popup) {
	b.mu.Lock()
	if !b.open || (target != nil && target != b.popup) {
		b.mu.Unlock()
		return
	}
	p := b.popup
	b.open = false
	b.popup = nil
	b.mu.Unlock()

	p.Unmount()
}

func (b *Button) IsOpen() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.open
}

// Popup returns the mounted popup, or nil when closed.
func (b *Button) Popup() *Popup {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.popup
}
