// Package toaster provides a notification toast overlay component.
package toaster

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"github.com/zjrosen/datachannel/internal/domain/message"
	"github.com/zjrosen/datachannel/internal/ui/overlay"
	"github.com/zjrosen/datachannel/internal/ui/styles"
)

// maxWidth caps the toast text width before wrapping.
const maxWidth = 48

// Model holds the toaster state.
type Model struct {
	text    string
	kind    message.Kind
	visible bool
	seq     int
}

// New creates a new toaster model.
func New() Model {
	return Model{}
}

// Show displays text styled for kind. Each call gets a new sequence number so
// stale DismissMsgs can be told apart.
func (m Model) Show(text string, kind message.Kind) Model {
	m.text = text
	m.kind = kind
	m.visible = true
	m.seq++
	return m
}

// Hide dismisses the toast.
func (m Model) Hide() Model {
	m.visible = false
	m.text = ""
	return m
}

// Visible returns whether the toast is currently showing.
func (m Model) Visible() bool {
	return m.visible
}

// Seq identifies the toast currently shown.
func (m Model) Seq() int {
	return m.seq
}

// View renders the toast box.
func (m Model) View() string {
	if !m.visible || m.text == "" {
		return ""
	}

	style := lipgloss.NewStyle().
		Padding(0, 1).
		Border(lipgloss.RoundedBorder())

	var icon string
	switch m.kind {
	case message.KindError:
		style = style.BorderForeground(styles.StatusErrorColor)
		icon = "❌ "
	case message.KindSuccess:
		style = style.BorderForeground(styles.StatusSuccessColor)
		icon = "✅ "
	default:
		style = style.BorderForeground(styles.StatusInfoColor)
		icon = "ℹ️ "
	}

	return style.Render(wordwrap.String(icon+m.text, maxWidth))
}

// Overlay renders the toast at the bottom center of bg.
func (m Model) Overlay(bg string, width, height int) string {
	if !m.visible || m.text == "" {
		return bg
	}

	return overlay.Place(overlay.Config{
		Width:    width,
		Height:   height,
		Position: overlay.Bottom,
		PadY:     1,
	}, m.View(), bg)
}

// DismissMsg signals that the toast with sequence Seq should go away.
type DismissMsg struct {
	Seq int
}

// ScheduleDismiss returns a command that dismisses the current toast after d.
func (m Model) ScheduleDismiss(d time.Duration) tea.Cmd {
	seq := m.seq
	return tea.Tick(d, func(time.Time) tea.Msg {
		return DismissMsg{Seq: seq}
	})
}
