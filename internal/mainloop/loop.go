// Package mainloop provides a serialized execution context: a single
// goroutine that runs posted functions one at a time, in posting order.
//
// It plays the role a UI thread plays in a GUI toolkit. Everything that must
// not race (registry and queue mutation, state-owner callbacks) is posted
// here.
package mainloop

import (
	"errors"
	"fmt"
	"runtime/debug"
	"sync"

	"github.com/zjrosen/datachannel/internal/log"
)

// ErrClosed is returned by Sync once the loop has been closed.
var ErrClosed = errors.New("main loop is closed")

// Loop runs posted functions sequentially on a dedicated goroutine. Post
// never blocks: the backlog is unbounded.
type Loop struct {
	mu      sync.Mutex
	pending []func()
	closed  bool

	wake    chan struct{}
	stopped chan struct{}
}

// New starts a loop.
func New() *Loop {
	l := &Loop{
		wake:    make(chan struct{}, 1),
		stopped: make(chan struct{}),
	}
	go l.run()
	return l
}

// Post schedules fn. Functions posted from the same goroutine run in the
// order they were posted. After Close, fn is dropped.
func (l *Loop) Post(fn func()) {
	if fn == nil {
		return
	}

	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		log.Warn(log.CatLoop, "post after close dropped")
		return
	}
	l.pending = append(l.pending, fn)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// Sync posts fn and waits for it to finish. Everything posted before it has
// run by the time Sync returns. Must not be called from inside the loop.
func (l *Loop) Sync(fn func()) error {
	done := make(chan struct{})

	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return ErrClosed
	}
	l.pending = append(l.pending, func() {
		defer close(done)
		if fn != nil {
			fn()
		}
	})
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}

	<-done
	return nil
}

// Pending returns the number of functions waiting to run.
func (l *Loop) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.pending)
}

// Close stops accepting work, runs what is already queued, and waits for the
// loop goroutine to exit. Safe to call more than once.
func (l *Loop) Close() {
	l.mu.Lock()
	if !l.closed {
		l.closed = true
		select {
		case l.wake <- struct{}{}:
		default:
		}
	}
	l.mu.Unlock()

	<-l.stopped
}

func (l *Loop) run() {
	defer close(l.stopped)

	for {
		l.mu.Lock()
		for len(l.pending) == 0 && !l.closed {
			l.mu.Unlock()
			<-l.wake
			l.mu.Lock()
		}
		if len(l.pending) == 0 {
			l.mu.Unlock()
			return
		}
		batch := l.pending
		l.pending = nil
		l.mu.Unlock()

		for _, fn := range batch {
			runSafely(fn)
		}
	}
}

// runSafely keeps one bad callback from taking the loop down with it.
func runSafely(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			log.Error(log.CatLoop, "posted function panicked",
				"panic", fmt.Sprint(r),
				"stack", string(debug.Stack()))
		}
	}()
	fn()
}
