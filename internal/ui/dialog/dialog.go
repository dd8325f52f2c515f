// Package dialog shows a blocking message box whose body is markdown.
package dialog

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/zjrosen/datachannel/internal/domain/message"
	"github.com/zjrosen/datachannel/internal/log"
	"github.com/zjrosen/datachannel/internal/ui/markdown"
	"github.com/zjrosen/datachannel/internal/ui/overlay"
	"github.com/zjrosen/datachannel/internal/ui/styles"
)

const (
	boxMaxWidth = 64
	boxMinWidth = 24
)

// Model is the dialog state.
type Model struct {
	style   string
	visible bool
	kind    message.Kind
	raw     string
	body    string
	width   int
	height  int
}

// New creates a hidden dialog rendering markdown with style.
func New(style string) Model {
	return Model{style: style}
}

// Show opens the dialog for msg.
func (m Model) Show(msg message.Message) Model {
	m.visible = true
	m.kind = msg.Kind
	m.raw = msg.Text
	m.body = m.render(msg.Text)
	return m
}

// Hide closes the dialog.
func (m Model) Hide() Model {
	m.visible = false
	m.raw = ""
	m.body = ""
	return m
}

// Visible reports whether the dialog is open.
func (m Model) Visible() bool {
	return m.visible
}

// SetSize updates the viewport dimensions and re-renders the body.
func (m Model) SetSize(width, height int) Model {
	m.width = width
	m.height = height
	if m.visible {
		m.body = m.render(m.raw)
	}
	return m
}

// View renders the dialog box.
func (m Model) View() string {
	if !m.visible {
		return ""
	}

	var title string
	border := styles.OverlayBorderColor
	switch m.kind {
	case message.KindError:
		title, border = "Error", styles.StatusErrorColor
	case message.KindSuccess:
		title, border = "Done", styles.StatusSuccessColor
	default:
		title = "Notice"
	}

	var b strings.Builder
	b.WriteString(styles.TitleStyle.Render(title))
	b.WriteString("\n\n")
	b.WriteString(m.body)
	b.WriteString("\n\n")
	b.WriteString(styles.MutedStyle.Render("enter/esc dismiss"))

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(border).
		Padding(0, 1).
		Width(m.boxWidth()).
		Render(b.String())
}

// Overlay renders the dialog centered on bg.
func (m Model) Overlay(bg string) string {
	if !m.visible {
		return bg
	}
	return overlay.Place(overlay.Config{
		Width:    m.width,
		Height:   m.height,
		Position: overlay.Center,
	}, m.View(), bg)
}

func (m Model) boxWidth() int {
	return max(min(m.width-4, boxMaxWidth), boxMinWidth)
}

// render falls back to the raw text when glamour fails.
func (m Model) render(text string) string {
	r, err := markdown.New(m.style, m.boxWidth()-4)
	if err != nil {
		log.ErrorErr(log.CatUI, "markdown renderer unavailable", err)
		return text
	}
	out, err := r.Render(text)
	if err != nil {
		log.ErrorErr(log.CatUI, "markdown render failed", err)
		return text
	}
	return out
}
