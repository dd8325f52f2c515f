// Package logoverlay provides an in-app viewer for recent log entries.
package logoverlay

import (
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/zjrosen/datachannel/internal/log"
	"github.com/zjrosen/datachannel/internal/ui/overlay"
	"github.com/zjrosen/datachannel/internal/ui/styles"
)

const (
	maxEntries        = 500
	viewportMaxHeight = 20
	viewportMinHeight = 5
	boxMaxWidth       = 140
	boxMinWidth       = 40
)

// Model is the log overlay state. Entries accumulate while hidden.
type Model struct {
	visible  bool
	minLevel log.Level
	entries  []string
	width    int
	height   int
	viewport viewport.Model
}

// New creates a hidden overlay.
func New() Model {
	return Model{minLevel: log.LevelDebug}
}

// Append records one log line.
func (m *Model) Append(entry string) {
	m.entries = append(m.entries, strings.TrimSuffix(entry, "\n"))
	if over := len(m.entries) - maxEntries; over > 0 {
		m.entries = m.entries[over:]
	}
	if m.visible {
		m.refresh()
	}
}

// Len is the number of buffered entries.
func (m Model) Len() int {
	return len(m.entries)
}

// Update handles keys while visible and log events at any time.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case log.LogEvent:
		m.Append(msg.Payload)
		return m, nil

	case tea.KeyMsg:
		if !m.visible {
			return m, nil
		}
		switch msg.String() {
		case "c":
			m.entries = nil
		case "d":
			m.minLevel = log.LevelDebug
		case "i":
			m.minLevel = log.LevelInfo
		case "w":
			m.minLevel = log.LevelWarn
		case "e":
			m.minLevel = log.LevelError
		case "j", "down":
			m.viewport.ScrollDown(1)
			return m, nil
		case "k", "up":
			m.viewport.ScrollUp(1)
			return m, nil
		case "esc", "ctrl+x":
			m.visible = false
			return m, nil
		default:
			return m, nil
		}
		m.refresh()
	}
	return m, nil
}

// Toggle flips visibility.
func (m *Model) Toggle() {
	m.visible = !m.visible
	if m.visible {
		m.refresh()
	}
}

// Visible reports whether the overlay is open.
func (m Model) Visible() bool {
	return m.visible
}

// SetSize updates the viewport dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.refresh()
}

// View renders the overlay box.
func (m Model) View() string {
	if !m.visible {
		return ""
	}

	w := m.boxWidth()
	divider := lipgloss.NewStyle().Foreground(styles.OverlayBorderColor).Render(strings.Repeat("─", w))

	var b strings.Builder
	b.WriteString(lipgloss.NewStyle().Bold(true).Foreground(styles.OverlayTitleColor).PaddingLeft(1).Render("Logs"))
	b.WriteString("\n" + divider + "\n")
	b.WriteString(m.viewport.View())
	b.WriteString("\n" + divider + "\n")
	b.WriteString(m.filterHint())

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(styles.OverlayBorderColor).
		Width(w).
		Render(b.String())
}

// Overlay renders the log viewer centered on bg.
func (m Model) Overlay(bg string) string {
	if !m.visible {
		return bg
	}
	return overlay.Place(overlay.Config{Width: m.width, Height: m.height, Position: overlay.Center}, m.View(), bg)
}

// Filtered returns the entries at or above the current level.
func (m Model) Filtered() []string {
	var out []string
	for _, e := range m.entries {
		if entryLevel(e) >= m.minLevel {
			out = append(out, e)
		}
	}
	return out
}

func (m *Model) refresh() {
	if m.width == 0 || m.height == 0 {
		return
	}

	contentWidth := m.boxWidth() - 2
	height := max(min(viewportMaxHeight, m.height-6), viewportMinHeight)

	m.viewport = viewport.New(contentWidth, height)

	filtered := m.Filtered()
	if len(filtered) == 0 {
		m.viewport.SetContent(styles.MutedStyle.Italic(true).Render("No logs to display"))
		return
	}

	lines := make([]string, 0, len(filtered))
	for _, e := range filtered {
		lines = append(lines, colorize(e, contentWidth))
	}
	m.viewport.SetContent(strings.Join(lines, "\n"))
	m.viewport.GotoBottom()
}

func (m Model) boxWidth() int {
	return max(min(m.width-4, boxMaxWidth), boxMinWidth)
}

func (m Model) filterHint() string {
	hint := styles.MutedStyle
	active := lipgloss.NewStyle().Foreground(styles.TextPrimaryColor).Bold(true)

	parts := []string{hint.Render("[c] Clear")}
	for _, f := range []struct {
		level log.Level
		label string
	}{
		{log.LevelDebug, "[d] Debug"},
		{log.LevelInfo, "[i] Info"},
		{log.LevelWarn, "[w] Warn"},
		{log.LevelError, "[e] Error"},
	} {
		if f.level == m.minLevel {
			parts = append(parts, active.Render(f.label))
		} else {
			parts = append(parts, hint.Render(f.label))
		}
	}
	return strings.Join(parts, "  ")
}

// entryLevel reads the level tag written by the log package. Unknown entries
// count as errors so they are never filtered out.
func entryLevel(entry string) log.Level {
	switch {
	case strings.Contains(entry, "[DEBUG]"):
		return log.LevelDebug
	case strings.Contains(entry, "[INFO]"):
		return log.LevelInfo
	case strings.Contains(entry, "[WARN]"):
		return log.LevelWarn
	default:
		return log.LevelError
	}
}

func colorize(entry string, width int) string {
	if ansi.StringWidth(entry) > width {
		entry = ansi.Truncate(entry, width-3, "...")
	}

	var style lipgloss.Style
	switch entryLevel(entry) {
	case log.LevelError:
		style = lipgloss.NewStyle().Foreground(styles.StatusErrorColor)
	case log.LevelWarn:
		style = lipgloss.NewStyle().Foreground(styles.StatusWarningColor)
	case log.LevelInfo:
		style = lipgloss.NewStyle().Foreground(styles.StatusInfoColor)
	default:
		style = lipgloss.NewStyle().Foreground(styles.TextMutedColor)
	}
	return style.Render(entry)
}
