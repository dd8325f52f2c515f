package logoverlay

import (
	"fmt"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"

	"github.com/zjrosen/datachannel/internal/log"
	"github.com/zjrosen/datachannel/internal/pubsub"
)

func keyMsg(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func withEntries() Model {
	m := New()
	m.SetSize(100, 30)
	m.Append("2026-01-01T00:00:00 [DEBUG] [queue] pushed\n")
	m.Append("2026-01-01T00:00:00 [INFO] [dispatch] launch admitted")
	m.Append("2026-01-01T00:00:00 [WARN] [loop] post after close dropped")
	m.Append("2026-01-01T00:00:00 [ERROR] [queue] index out of range")
	return m
}

func TestAppend_FromLogEvent(t *testing.T) {
	m := New()

	m, _ = m.Update(log.LogEvent{Type: pubsub.CreatedEvent, Payload: "x [INFO] [ui] hello\n"})

	require.Equal(t, 1, m.Len())
	require.Equal(t, []string{"x [INFO] [ui] hello"}, m.Filtered())
}

func TestAppend_KeepsMostRecent(t *testing.T) {
	m := New()
	for i := 0; i < maxEntries+10; i++ {
		m.Append(fmt.Sprintf("[INFO] %d", i))
	}

	require.Equal(t, maxEntries, m.Len())
	require.Equal(t, "[INFO] 10", m.Filtered()[0])
}

func TestFilterKeys(t *testing.T) {
	m := withEntries()
	m.Toggle()

	m, _ = m.Update(keyMsg("w"))
	require.Len(t, m.Filtered(), 2)

	m, _ = m.Update(keyMsg("e"))
	require.Len(t, m.Filtered(), 1)

	m, _ = m.Update(keyMsg("d"))
	require.Len(t, m.Filtered(), 4)

	m, _ = m.Update(keyMsg("c"))
	require.Equal(t, 0, m.Len())
	require.Contains(t, m.View(), "No logs to display")
}

func TestKeysIgnoredWhileHidden(t *testing.T) {
	m := withEntries()

	m, _ = m.Update(keyMsg("e"))

	require.Len(t, m.Filtered(), 4)
	require.Empty(t, m.View())
}

func TestToggleAndClose(t *testing.T) {
	m := withEntries()
	bg := strings.TrimSuffix(strings.Repeat(strings.Repeat(" ", 100)+"\n", 30), "\n")

	require.Equal(t, bg, m.Overlay(bg))

	m.Toggle()
	require.True(t, m.Visible())
	view := m.View()
	require.Contains(t, view, "Logs")
	require.Contains(t, view, "launch admitted")
	require.Contains(t, m.Overlay(bg), "Logs")

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	require.False(t, m.Visible())
}
