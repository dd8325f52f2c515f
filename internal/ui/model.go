// Package ui is the Bubble Tea front end for the notes demo. The Update loop
// is the dispatcher's serialized context: job deliveries arrive as RunMsgs
// posted by ProgramExecutor.
package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/zjrosen/datachannel/internal/demo"
	"github.com/zjrosen/datachannel/internal/domain/message"
	"github.com/zjrosen/datachannel/internal/domain/state"
	"github.com/zjrosen/datachannel/internal/log"
	"github.com/zjrosen/datachannel/internal/pubsub"
	"github.com/zjrosen/datachannel/internal/ui/dialog"
	"github.com/zjrosen/datachannel/internal/ui/logoverlay"
	"github.com/zjrosen/datachannel/internal/ui/styles"
	"github.com/zjrosen/datachannel/internal/ui/toaster"
	"github.com/zjrosen/datachannel/internal/viewmodel"
)

// Watcher keys.
const (
	keyLoading = "loading"
	keyHead    = "head"
)

// Options configures the screen.
type Options struct {
	ToastDuration time.Duration
	MarkdownStyle string
	DebugFooter   bool
	// Debug enables the log overlay.
	Debug bool
	// AutoLoad starts LoadNotes from Init.
	AutoLoad bool
}

// startMsg asks Update to start an event.
type startMsg struct {
	event state.Event
}

// Model is the root application state.
type Model struct {
	owner *viewmodel.Owner[demo.State]
	opts  Options

	keys    KeyMap
	help    help.Model
	spinner spinner.Model
	toaster toaster.Model
	dialog  dialog.Model
	logs    logoverlay.Model

	loadingWatch *pubsub.Watcher[bool]
	headWatch    *pubsub.Watcher[*message.Message]
	logListener  *log.LogListener

	loading bool
	head    *message.Message

	width  int
	height int
}

// New creates the screen for owner. The watchers live until ctx is done.
func New(ctx context.Context, owner *viewmodel.Owner[demo.State], opts Options) Model {
	if opts.ToastDuration <= 0 {
		opts.ToastDuration = 3 * time.Second
	}

	m := Model{
		owner:        owner,
		opts:         opts,
		keys:         DefaultKeyMap(),
		help:         help.New(),
		spinner:      spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(styles.SpinnerStyle)),
		toaster:      toaster.New(),
		dialog:       dialog.New(opts.MarkdownStyle),
		logs:         logoverlay.New(),
		loadingWatch: pubsub.NewWatcher[bool](ctx, keyLoading, owner.IsLoading()),
		headWatch:    pubsub.NewWatcher[*message.Message](ctx, keyHead, owner.Message()),
	}
	if opts.Debug {
		m.logListener = log.NewListener(ctx)
	}
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.loadingWatch.Next(), m.headWatch.Next()}
	if m.logListener != nil {
		cmds = append(cmds, m.logListener.Listen())
	}
	if m.opts.AutoLoad {
		cmds = append(cmds, func() tea.Msg { return startMsg{event: demo.LoadNotes} })
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.dialog = m.dialog.SetSize(msg.Width, msg.Height)
		m.logs.SetSize(msg.Width, msg.Height)
		return m, nil

	case RunMsg:
		if msg.fn != nil {
			msg.fn()
		}
		return m, nil

	case startMsg:
		m.owner.StartEvent(msg.event)
		return m, nil

	case pubsub.ChangedMsg[bool]:
		m.loading = msg.Value
		cmds := []tea.Cmd{m.loadingWatch.Next()}
		if m.loading {
			cmds = append(cmds, m.spinner.Tick)
		}
		return m, tea.Batch(cmds...)

	case pubsub.ChangedMsg[*message.Message]:
		var cmd tea.Cmd
		m, cmd = m.showHead(msg.Value)
		return m, tea.Batch(cmd, m.headWatch.Next())

	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case toaster.DismissMsg:
		if m.toaster.Visible() && msg.Seq == m.toaster.Seq() {
			m.toaster = m.toaster.Hide()
			m.owner.RemoveMessage()
		}
		return m, nil

	case log.LogEvent:
		if m.logListener == nil {
			return m, nil
		}
		var cmd tea.Cmd
		m.logs, cmd = m.logs.Update(msg)
		return m, tea.Batch(cmd, m.logListener.Listen())

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.opts.Debug && key.Matches(msg, m.keys.Logs) {
		m.logs.Toggle()
		return m, nil
	}
	if m.logs.Visible() {
		var cmd tea.Cmd
		m.logs, cmd = m.logs.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		m.owner.CancelJobs()
		return m, tea.Quit
	case key.Matches(msg, m.keys.Load):
		m.owner.StartEvent(demo.LoadNotes)
	case key.Matches(msg, m.keys.Save):
		m.owner.StartEvent(demo.SaveNote)
	case key.Matches(msg, m.keys.Refresh):
		m.owner.StartEvent(demo.Refresh)
	case key.Matches(msg, m.keys.Broken):
		m.owner.StartEvent(demo.Broken)
	case key.Matches(msg, m.keys.Dismiss):
		if m.head != nil {
			m.owner.RemoveMessage()
		}
	case key.Matches(msg, m.keys.DismissAll):
		m.owner.RemoveAllMessages()
	case key.Matches(msg, m.keys.Cancel):
		m.owner.CancelJobs()
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	}
	return m, nil
}

// showHead reflects the queue head in the toaster or dialog.
func (m Model) showHead(head *message.Message) (Model, tea.Cmd) {
	m.head = head
	m.dialog = m.dialog.Hide()

	if head == nil {
		m.toaster = m.toaster.Hide()
		return m, nil
	}

	switch head.Hint {
	case message.HintToast:
		m.toaster = m.toaster.Show(messageText(*head), head.Kind)
		return m, m.toaster.ScheduleDismiss(m.opts.ToastDuration)
	case message.HintDialog:
		m.toaster = m.toaster.Hide()
		m.dialog = m.dialog.Show(*head)
	default:
		// Shown inline in the status line.
		m.toaster = m.toaster.Hide()
	}
	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	var b strings.Builder

	title := styles.TitleStyle.Render("datachannel · notes")
	if m.loading {
		title += " " + m.spinner.View()
	}
	b.WriteString(title)
	b.WriteString("\n\n")
	b.WriteString(m.notesView())
	b.WriteString("\n")

	if line := m.statusLine(); line != "" {
		b.WriteString("\n")
		b.WriteString(line)
	}
	if m.opts.DebugFooter {
		b.WriteString("\n")
		b.WriteString(m.footer())
	}
	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))

	view := b.String()
	if m.height > 0 {
		view = lipgloss.NewStyle().Height(m.height).MaxWidth(max(m.width, 1)).Render(view)
	}

	view = m.dialog.Overlay(view)
	if m.toaster.Visible() {
		view = m.toaster.Overlay(view, m.width, m.height)
	}
	if m.opts.Debug && m.logs.Visible() {
		view = m.logs.Overlay(view)
	}
	return view
}

func (m Model) notesView() string {
	st := m.owner.State().Get()
	if len(st.Notes) == 0 {
		return styles.MutedStyle.Render("No notes yet. Press l to load.")
	}

	var b strings.Builder
	switch st.Source {
	case demo.SourceCache:
		b.WriteString(styles.BadgeStyle.Foreground(styles.StatusWarningColor).Render("cached"))
	case demo.SourceFresh:
		b.WriteString(styles.BadgeStyle.Foreground(styles.StatusSuccessColor).Render("fresh"))
	}
	b.WriteString("\n")

	for _, n := range st.Notes {
		marker := "  "
		if n.ID == st.LastSaved {
			marker = "+ "
		}
		b.WriteString(marker + n.Title + "\n")
	}
	return b.String()
}

func (m Model) statusLine() string {
	var parts []string
	if m.head != nil && m.head.Hint == message.HintNone {
		parts = append(parts, styles.ErrorStyle.Render("! "+messageText(*m.head)))
	}
	if n := len(m.owner.Messages()); n > 1 {
		parts = append(parts, styles.SecondaryStyle.Render(fmt.Sprintf("%d messages queued", n)))
	}
	return strings.Join(parts, "  ")
}

func (m Model) footer() string {
	line := "active: " + m.owner.ActiveEventNames().String()
	if m.width > 2 {
		line = runewidth.Truncate(line, m.width-2, "…")
	}
	return styles.FooterStyle.Render(line)
}

func messageText(msg message.Message) string {
	if msg.HasText {
		return msg.Text
	}
	return msg.Kind.String()
}
