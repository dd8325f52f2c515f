package ui

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"
)

// Sender delivers a message into a running Bubble Tea program. *tea.Program
// satisfies it.
type Sender interface {
	Send(msg tea.Msg)
}

// RunMsg carries a posted function into Update, which runs it.
type RunMsg struct {
	fn func()
}

// ProgramExecutor posts functions into the Bubble Tea update loop, making
// Update the dispatcher's serialized context. Functions posted before Bind
// are held and sent, in order, when Bind is called.
type ProgramExecutor struct {
	// flush is held exclusively while Bind sends the held functions and
	// shared by every Post, so nothing overtakes them.
	flush sync.RWMutex

	mu      sync.Mutex
	sender  Sender
	pending []func()
}

// NewProgramExecutor creates an unbound executor.
func NewProgramExecutor() *ProgramExecutor {
	return &ProgramExecutor{}
}

// Bind attaches the program. It must be called once, before the program's
// event loop could be waiting on posted work, and blocks until the held
// functions have been sent.
func (e *ProgramExecutor) Bind(s Sender) {
	e.flush.Lock()
	defer e.flush.Unlock()

	e.mu.Lock()
	e.sender = s
	pending := e.pending
	e.pending = nil
	e.mu.Unlock()

	for _, fn := range pending {
		s.Send(RunMsg{fn: fn})
	}
}

// Post sends fn to the program. It blocks until Update accepts the message
// and returns immediately once the program has exited.
func (e *ProgramExecutor) Post(fn func()) {
	if fn == nil {
		return
	}

	e.flush.RLock()
	defer e.flush.RUnlock()

	e.mu.Lock()
	s := e.sender
	if s == nil {
		e.pending = append(e.pending, fn)
		e.mu.Unlock()
		return
	}
	e.mu.Unlock()

	s.Send(RunMsg{fn: fn})
}
