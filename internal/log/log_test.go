package log

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLog_FormatAndLevels(t *testing.T) {
	var buf bytes.Buffer
	InitWriter(&buf)
	SetMinLevel(LevelInfo)

	Debug(CatQueue, "hidden")
	Info(CatQueue, "pushed", "len", 2)
	Warn(CatLoop, "orphan", "key")
	ErrorErr(CatDispatch, "failed", nil, "event", "load")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	require.Contains(t, lines[0], "[INFO] [queue] pushed len=2")
	require.Contains(t, lines[1], "[WARN] [loop] orphan key=<missing>")
	require.Contains(t, lines[2], "[ERROR] [dispatch] failed event=load error=<nil>")
}

func TestLog_Disabled(t *testing.T) {
	var buf bytes.Buffer
	InitWriter(&buf)
	SetEnabled(false)

	Error(CatUI, "nope")
	require.Empty(t, buf.String())

	SetEnabled(true)
	Error(CatUI, "yes")
	require.Contains(t, buf.String(), "yes")
}

func TestLog_ListenerReceivesEntries(t *testing.T) {
	InitWriter(&bytes.Buffer{})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	l := NewListener(ctx)
	require.NotNil(t, l)

	got := make(chan any, 1)
	go func() { got <- l.Listen()() }()

	Info(CatConfig, "hello")

	select {
	case msg := <-got:
		ev, ok := msg.(LogEvent)
		require.True(t, ok)
		require.Contains(t, ev.Payload, "[config] hello")
	case <-time.After(time.Second):
		require.Fail(t, "no log event")
	}
}

func TestParseLevel(t *testing.T) {
	require.Equal(t, LevelInfo, ParseLevel("info"))
	require.Equal(t, LevelWarn, ParseLevel("WARN"))
	require.Equal(t, LevelError, ParseLevel("error"))
	require.Equal(t, LevelDebug, ParseLevel("verbose"))
	require.Equal(t, "ERROR", LevelError.String())
}

func TestInitWithTeaLog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "debug.log")

	cleanup, err := InitWithTeaLog(path, "test")
	require.NoError(t, err)
	defer cleanup()

	Info(CatTrace, "to file")
}
