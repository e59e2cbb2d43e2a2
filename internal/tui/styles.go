package tui

import (
	"github.com/ErlanBelekov/blog-newsletter/internal/toast"
	"github.com/charmbracelet/lipgloss"
)

const (
	colorAccent  = lipgloss.Color("#7C3AED")
	colorMuted   = lipgloss.Color("#6B7280")
	colorSuccess = lipgloss.Color("#16A34A")
	colorError   = lipgloss.Color("#DC2626")
	colorInfo    = lipgloss.Color("#2563EB")
)

type styles struct {
	header   lipgloss.Style
	button   lipgloss.Style
	box      lipgloss.Style
	title    lipgloss.Style
	action   lipgloss.Style
	focused  lipgloss.Style
	disabled lipgloss.Style
	errorMsg lipgloss.Style
	help     lipgloss.Style
	toast    lipgloss.Style
}

func newStyles() styles {
	return styles{
		header:   lipgloss.NewStyle().Bold(true),
		button:   lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF")).Background(colorAccent),
		box:      lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(colorAccent).Padding(0, 1),
		title:    lipgloss.NewStyle().Bold(true).Foreground(colorAccent),
		action:   lipgloss.NewStyle(),
		focused:  lipgloss.NewStyle().Bold(true).Foreground(colorAccent),
		disabled: lipgloss.NewStyle().Foreground(colorMuted),
		errorMsg: lipgloss.NewStyle().Foreground(colorError),
		help:     lipgloss.NewStyle().Foreground(colorMuted),
		toast:    lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF")).Padding(0, 1),
	}
}

func (s styles) toastStyle(level toast.Level) lipgloss.Style {
	switch level {
	case toast.LevelSuccess:
		return s.toast.Background(colorSuccess)
	case toast.LevelError:
		return s.toast.Background(colorError)
	default:
		return s.toast.Background(colorInfo)
	}
}
