// Package tui renders the subscribe button, the newsletter popup and the
// toast banner in a terminal, translating mouse presses into pointer events.
package tui

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/ErlanBelekov/blog-newsletter/internal/newsletter"
	"github.com/ErlanBelekov/blog-newsletter/internal/pointer"
	"github.com/ErlanBelekov/blog-newsletter/internal/toast"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const popupWidth = 60

type focus int

const (
	focusEmail focus = iota
	focusConsent
	focusCancel
	focusSubmit
	focusCount
)

type Config struct {
	// Popup configures every popup the button opens. OnClose and Toasts are
	// set by the model.
	Popup  newsletter.PopupConfig
	Toasts *toast.Manager
	Logger *slog.Logger
}

type toastMsg toast.Toast

type submitDoneMsg struct {
	popup *newsletter.Popup
	err   error
}

// layout holds the screen rectangles of the last render. Hit tests and the
// popup's outside-click region read it.
type layout struct {
	button  pointer.Rect
	popup   pointer.Rect
	email   pointer.Rect
	consent pointer.Rect
	cancel  pointer.Rect
	submit  pointer.Rect
}

type Model struct {
	ctx      context.Context
	logger   *slog.Logger
	styles   styles
	observer *pointer.Observer
	button   *newsletter.Button
	toasts   *toast.Manager
	layout   *layout

	toastCh chan toast.Toast
	unsub   func()

	popup    *newsletter.Popup
	input    textinput.Model
	spinner  spinner.Model
	focus    focus
	inflight bool
}

// New builds the model. Call Close when the program exits.
func New(ctx context.Context, cfg Config) Model {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	toasts := cfg.Toasts
	if toasts == nil {
		toasts = toast.NewManager(toast.WithLogger(logger))
	}

	l := &layout{}
	obs := pointer.NewObserver()
	popupCfg := cfg.Popup
	popupCfg.Toasts = toasts
	popupCfg.Logger = logger
	root := pointer.RegionFunc(func(e pointer.Event) bool {
		return !l.popup.Empty() && l.popup.Contains(e)
	})

	ch := make(chan toast.Toast, 1)
	unsub := toasts.Subscribe(func(t toast.Toast) {
		select {
		case ch <- t:
		default:
		}
	})

	in := textinput.New()
	in.Placeholder = newsletter.PlaceholderEmail
	in.CharLimit = 254
	in.Width = popupWidth - 8
	in.Cursor.Style = lipgloss.NewStyle().Foreground(colorAccent)

	sp := spinner.New(spinner.WithSpinner(spinner.Dot))

	return Model{
		ctx:      ctx,
		logger:   logger.With("component", "tui"),
		styles:   newStyles(),
		observer: obs,
		button:   newsletter.NewButton(popupCfg, obs, root),
		toasts:   toasts,
		layout:   l,
		toastCh:  ch,
		unsub:    unsub,
		input:    in,
		spinner:  sp,
	}
}

// Close detaches the model from the toast manager.
func (m Model) Close() {
	m.unsub()
}

func (m Model) Init() tea.Cmd {
	return m.waitForToast()
}

func (m Model) waitForToast() tea.Cmd {
	ch := m.toastCh
	return func() tea.Msg {
		return toastMsg(<-ch)
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case toastMsg:
		return m, m.waitForToast()

	case submitDoneMsg:
		m.inflight = false
		if msg.err != nil && !errors.Is(msg.err, newsletter.ErrUnmounted) {
			m.logger.Debug("submit skipped", "error", msg.err)
		}
		m.sync()
		return m, nil

	case spinner.TickMsg:
		if !m.inflight {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.MouseMsg:
		if msg.Action != tea.MouseActionPress || msg.Button != tea.MouseButtonLeft {
			return m, nil
		}
		return m.click(pointer.Event{X: msg.X, Y: msg.Y})

	case tea.KeyMsg:
		return m.key(msg)
	}
	return m, nil
}

// sync resets the form when the button swapped popups.
func (m *Model) sync() {
	p := m.button.Popup()
	if p == m.popup {
		return
	}
	m.popup = p
	m.input.Reset()
	m.focus = focusEmail
	if p != nil {
		m.input.Focus()
	} else {
		m.input.Blur()
	}
}

func (m Model) click(e pointer.Event) (tea.Model, tea.Cmd) {
	wasOpen := m.button.IsOpen()
	m.observer.Dispatch(e)

	if m.layout.button.Contains(e) {
		if wasOpen {
			m.button.Close()
		} else {
			m.button.Open()
		}
		m.sync()
		return m, nil
	}

	m.sync()
	p := m.button.Popup()
	if p == nil {
		return m, nil
	}
	switch {
	case m.layout.email.Contains(e):
		m.setFocus(focusEmail)
	case m.layout.consent.Contains(e):
		m.setFocus(focusConsent)
		p.SetConsent(!p.State().Consent)
	case m.layout.cancel.Contains(e):
		p.Cancel()
		m.sync()
	case m.layout.submit.Contains(e):
		m.setFocus(focusSubmit)
		return m, m.submit(p)
	}
	return m, nil
}

func (m Model) key(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}

	p := m.button.Popup()
	if p == nil {
		switch msg.String() {
		case "q", "esc":
			return m, tea.Quit
		case "enter", " ", "s":
			m.button.Open()
			m.sync()
		}
		return m, nil
	}

	switch msg.String() {
	case "esc":
		p.Cancel()
		m.sync()
		return m, nil
	case "tab", "down":
		m.setFocus((m.focus + 1) % focusCount)
		return m, nil
	case "shift+tab", "up":
		m.setFocus((m.focus + focusCount - 1) % focusCount)
		return m, nil
	case "enter":
		switch m.focus {
		case focusConsent:
			p.SetConsent(!p.State().Consent)
			return m, nil
		case focusCancel:
			p.Cancel()
			m.sync()
			return m, nil
		default:
			return m, m.submit(p)
		}
	case " ":
		if m.focus == focusConsent {
			p.SetConsent(!p.State().Consent)
			return m, nil
		}
	}

	if m.focus != focusEmail || p.State().Disabled() {
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	p.SetEmail(m.input.Value())
	return m, cmd
}

func (m *Model) setFocus(f focus) {
	m.focus = f
	if f == focusEmail {
		m.input.Focus()
	} else {
		m.input.Blur()
	}
}

func (m *Model) submit(p *newsletter.Popup) tea.Cmd {
	if m.inflight || p.State().Pending {
		return nil
	}
	m.inflight = true
	p.SetEmail(strings.TrimSpace(m.input.Value()))
	ctx := m.ctx
	return tea.Batch(m.spinner.Tick, func() tea.Msg {
		return submitDoneMsg{popup: p, err: p.Submit(ctx)}
	})
}

func (m Model) View() string {
	var b strings.Builder
	row := 0
	line := func(s string) {
		b.WriteString(s)
		b.WriteString("\n")
		row += lipgloss.Height(s)
	}

	line(m.styles.header.Render("Newsletter"))
	line("")

	label := "[ " + m.button.Label + " ]"
	m.layout.button = pointer.Rect{X: 0, Y: row, Width: lipgloss.Width(label), Height: 1}
	line(m.styles.button.Render(label))
	line("")

	p := m.button.Popup()
	if p == nil {
		*m.layout = layout{button: m.layout.button}
	} else {
		line(m.renderPopup(p, row))
	}

	if t := m.toasts.CurrentToast(); t.Message != "" {
		line(m.styles.toastStyle(t.Level).Render(t.Message))
	} else {
		line("")
	}
	line(m.styles.help.Render("enter/click: toggle • tab: move • space: consent • esc: close • q: quit"))
	return b.String()
}

// renderPopup draws the popup box with its top-left corner at (0, top) and
// records the hit areas.
func (m Model) renderPopup(p *newsletter.Popup, top int) string {
	st := p.State()
	inner := popupWidth - 4
	// content origin: border plus one column of padding
	ox, oy := 2, top+1

	var lines []string
	add := func(s string) int {
		at := len(lines)
		lines = append(lines, strings.Split(s, "\n")...)
		return at
	}

	add(m.styles.title.Render(p.Title()))
	add("")

	in := m.input
	in.Placeholder = st.Placeholder()
	emailRow := add(in.View())
	add("")

	box := "[ ] "
	if st.Consent {
		box = "[x] "
	}
	wrapped := strings.Split(lipgloss.NewStyle().Width(inner-4).Render(p.ConsentLabel()), "\n")
	for i := range wrapped {
		prefix := "    "
		if i == 0 {
			prefix = box
		}
		wrapped[i] = prefix + strings.TrimRight(wrapped[i], " ")
	}
	consentText := strings.Join(wrapped, "\n")
	if m.focus == focusConsent {
		consentText = m.styles.focused.Render(consentText)
	} else if st.Disabled() {
		consentText = m.styles.disabled.Render(consentText)
	}
	consentRow := add(consentText)
	consentHeight := len(wrapped)
	add("")

	if st.Phase == newsletter.PhaseError && st.ErrorMessage != "" {
		add(m.styles.errorMsg.Width(inner).Render(st.ErrorMessage))
		add("")
	}

	cancel := "[ Cancel ]"
	submit := "[ Subscribe ]"
	if st.Pending || m.inflight {
		submit = "[ " + m.spinner.View() + " Sending ]"
	}
	cancelStyle, submitStyle := m.styles.action, m.styles.action
	if m.focus == focusCancel {
		cancelStyle = m.styles.focused
	}
	if m.focus == focusSubmit {
		submitStyle = m.styles.focused
	}
	gap := "  "
	actionsRow := add(cancelStyle.Render(cancel) + gap + submitStyle.Render(submit))

	rendered := m.styles.box.Width(popupWidth - 2).Render(strings.Join(lines, "\n"))

	cancelWidth := lipgloss.Width(cancel)
	*m.layout = layout{
		button:  m.layout.button,
		popup:   pointer.Rect{X: 0, Y: top, Width: lipgloss.Width(rendered), Height: lipgloss.Height(rendered)},
		email:   pointer.Rect{X: ox, Y: oy + emailRow, Width: inner, Height: 1},
		consent: pointer.Rect{X: ox, Y: oy + consentRow, Width: inner, Height: consentHeight},
		cancel:  pointer.Rect{X: ox, Y: oy + actionsRow, Width: cancelWidth, Height: 1},
		submit: pointer.Rect{
			X:      ox + cancelWidth + len(gap),
			Y:      oy + actionsRow,
			Width:  lipgloss.Width(submit),
			Height: 1,
		},
	}
	return rendered
}

// Run starts the program on the alternate screen with mouse support and
// blocks until the user quits or ctx is cancelled.
func Run(ctx context.Context, cfg Config, opts ...tea.ProgramOption) error {
	m := New(ctx, cfg)
	defer m.Close()

	opts = append([]tea.ProgramOption{
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithContext(ctx),
	}, opts...)
	if _, err := tea.NewProgram(m, opts...).Run(); err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return nil
		}
		return err
	}
	return nil
}
