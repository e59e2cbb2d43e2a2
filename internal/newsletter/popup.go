package newsletter

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/ErlanBelekov/blog-newsletter/internal/pointer"
	"github.com/ErlanBelekov/blog-newsletter/internal/toast"
)

// User-facing texts.
const (
	MessageConsentRequired = "You need to agree to our Privacy Policy and GDPR regulations to subscribe."
	MessageInvalidOrDup    = "Your e-mail address is invalid or you are already subscribed!"
	MessageSubscribed      = "Successfully! 🎉 You are now subscribed."
	MessageRequestFailed   = "Something went wrong. Please try again later."
	PlaceholderEmail       = "Enter your email"
	PlaceholderSubscribed  = "You're subscribed !  🎉"
	DefaultPopupTitle      = "Subscribe to the newsletter"
	consentLabel           = "I consent to receive the newsletter and understand that my email will be handled in accordance with GDPR regulations."
)

var (
	ErrConsentRequired = errors.New("consent required")
	ErrSubmitPending   = errors.New("subscription request already in flight")
	ErrUnmounted       = errors.New("popup is unmounted")
	ErrSubscribed      = errors.New("already subscribed")
)

type Phase int

const (
	PhaseIdle Phase = iota
	PhaseError
	PhaseSubscribed
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseError:
		return "error"
	case PhaseSubscribed:
		return "subscribed"
	default:
		return "unknown"
	}
}

// Variant selects how the popup talks to the endpoint and reports outcomes.
type Variant int

const (
	// VariantGDPR sends consent with the email and shows a fixed message on
	// rejection. No toasts.
	VariantGDPR Variant = iota
	// VariantRich sends only the email, shows the server's message and
	// mirrors outcomes to the toast manager.
	VariantRich
)

// Subscriber is the endpoint the popup submits to. Satisfied by *Client.
type Subscriber interface {
	Subscribe(ctx context.Context, req Request) (Result, error)
}

// Toaster receives outcome notifications. Satisfied by *toast.Manager.
type Toaster interface {
	Show(level toast.Level, message string)
}

// State is a snapshot of the form for renderers.
type State struct {
	Email        string
	Consent      bool
	Phase        Phase
	ErrorMessage string
	Pending      bool
}

// Disabled reports whether the inputs accept edits.
func (s State) Disabled() bool { return s.Phase == PhaseSubscribed }

func (s State) Placeholder() string {
	if s.Phase == PhaseSubscribed {
		return PlaceholderSubscribed
	}
	return PlaceholderEmail
}

type PopupConfig struct {
	Title   string
	Variant Variant
	Client  Subscriber
	Toasts  Toaster // optional
	OnClose func()
	Logger  *slog.Logger
}

// Popup is the subscription form. It owns no visibility: closing is always
// delegated to OnClose.
type Popup struct {
	cfg    PopupConfig
	logger *slog.Logger

	mu        sync.Mutex
	state     State
	mounted   bool
	unmounted bool
	cancel    context.CancelFunc
	unsub     func()
	root      pointer.Region
}

func NewPopup(cfg PopupConfig) *Popup {
	if cfg.Title == "" {
		cfg.Title = DefaultPopupTitle
	}
	if cfg.OnClose == nil {
		cfg.OnClose = func() {}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Popup{
		cfg:    cfg,
		logger: logger.With("component", "newsletter_popup"),
	}
}

func (p *Popup) Title() string { return p.cfg.Title }

func (p *Popup) ConsentLabel() string { return consentLabel }

func (p *Popup) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Mount starts listening for pointer-downs. Events outside root close the
// popup. A nil root treats every event as outside.
func (p *Popup) Mount(obs *pointer.Observer, root pointer.Region) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.mounted || p.unmounted {
		return
	}
	p.mounted = true
	p.root = root
	if obs != nil {
		p.unsub = obs.Subscribe(p.handlePointerDown)
	}
}

// Unmount stops the pointer listener and abandons any in-flight request.
// Nothing the popup does after Unmount reaches the owner or the toasts.
func (p *Popup) Unmount() {
	p.mu.Lock()
	if p.unmounted {
		p.mu.Unlock()
		return
	}
	p.unmounted = true
	unsub, cancel := p.unsub, p.cancel
	p.unsub, p.cancel = nil, nil
	p.mu.Unlock()

	if unsub != nil {
		unsub()
	}
	if cancel != nil {
		cancel()
	}
}

func (p *Popup) handlePointerDown(e pointer.Event) {
	p.mu.Lock()
	if p.unmounted {
		p.mu.Unlock()
		return
	}
	root := p.root
	p.mu.Unlock()

	if root != nil && root.Contains(e) {
		return
	}
	p.logger.Debug("pointer down outside popup", "x", e.X, "y", e.Y)
	p.cfg.OnClose()
}

// Cancel closes the popup regardless of phase.
func (p *Popup) Cancel() {
	p.cfg.OnClose()
}

func (p *Popup) SetEmail(v string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state.Phase == PhaseSubscribed {
		return
	}
	p.state.Email = v
}

func (p *Popup) SetConsent(v bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state.Phase == PhaseSubscribed {
		return
	}
	p.state.Consent = v
}

// Submit runs one subscription attempt and blocks until it resolves. The
// returned error only reports why no attempt was made; outcomes of an
// attempt are reflected in State.
func (p *Popup) Submit(ctx context.Context) error {
	p.mu.Lock()
	switch {
	case p.unmounted:
		p.mu.Unlock()
		return ErrUnmounted
	case p.state.Phase == PhaseSubscribed:
		p.mu.Unlock()
		return ErrSubscribed
	case p.state.Pending:
		p.mu.Unlock()
		return ErrSubmitPending
	}

	if !p.state.Consent {
		p.state.Phase = PhaseError
		p.state.ErrorMessage = MessageConsentRequired
		p.mu.Unlock()
		p.logger.Debug("submit rejected locally", "reason", ErrConsentRequired)
		return nil
	}

	p.state.Phase = PhaseIdle
	p.state.ErrorMessage = ""
	p.state.Pending = true
	req := Request{Email: p.state.Email}
	if p.cfg.Variant == VariantGDPR {
		consent := p.state.Consent
		req.Consent = &consent
	}
	reqCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.mu.Unlock()

	res, err := p.cfg.Client.Subscribe(reqCtx, req)
	cancel()

	p.mu.Lock()
	if p.unmounted {
		p.mu.Unlock()
		p.logger.Debug("discarding subscription result after unmount")
		return nil
	}
	p.cancel = nil
	p.state.Pending = false

	switch {
	case err != nil:
		p.logger.Warn("subscription request failed", "error", err)
		p.fail(MessageRequestFailed)
		return nil
	case res.Rejected():
		msg := MessageInvalidOrDup
		if p.cfg.Variant == VariantRich && res.Message != "" {
			msg = res.Message
		}
		p.logger.Info("subscription rejected", "message", res.Message)
		p.fail(msg)
		return nil
	}

	p.state.Email = ""
	p.state.ErrorMessage = ""
	p.state.Phase = PhaseSubscribed
	p.mu.Unlock()

	p.logger.Info("subscribed")
	p.cfg.OnClose()
	p.notify(toast.LevelSuccess, MessageSubscribed)
	return nil
}

// fail is called with p.mu held and releases it.
func (p *Popup) fail(msg string) {
	p.state.Phase = PhaseError
	p.state.ErrorMessage = msg
	p.mu.Unlock()
	p.notify(toast.LevelError, msg)
}

func (p *Popup) notify(level toast.Level, msg string) {
	if p.cfg.Variant != VariantRich || p.cfg.Toasts == nil {
		return
	}
	p.cfg.Toasts.Show(level, msg)
}
