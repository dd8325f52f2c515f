package dialog

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zjrosen/datachannel/internal/domain/message"
)

func TestDialog_ShowAndHide(t *testing.T) {
	m := New("notty").SetSize(80, 24)
	require.False(t, m.Visible())
	require.Empty(t, m.View())

	m = m.Show(message.New("## Save failed\n\n`boom`", message.HintDialog, message.KindError))

	require.True(t, m.Visible())
	view := m.View()
	require.Contains(t, view, "Error")
	require.Contains(t, view, "Save failed")
	require.Contains(t, view, "boom")
	require.Contains(t, view, "enter/esc dismiss")

	m = m.Hide()
	require.False(t, m.Visible())
	require.Empty(t, m.View())
}

func TestDialog_TitleFollowsKind(t *testing.T) {
	m := New("notty").SetSize(80, 24)

	require.Contains(t, m.Show(message.New("ok", message.HintDialog, message.KindSuccess)).View(), "Done")
	require.Contains(t, m.Show(message.New("fyi", message.HintDialog, message.KindInfo)).View(), "Notice")
}

func TestDialog_Overlay(t *testing.T) {
	bg := strings.TrimSuffix(strings.Repeat(strings.Repeat(".", 80)+"\n", 24), "\n")
	m := New("notty").SetSize(80, 24)

	require.Equal(t, bg, m.Overlay(bg))

	out := m.Show(message.New("centered", message.HintDialog, message.KindInfo)).Overlay(bg)
	require.Contains(t, out, "centered")
	require.Len(t, strings.Split(out, "\n"), 24)
}
