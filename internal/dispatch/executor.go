package dispatch

import "sync"

// Executor is the serialized delivery context. Implementations must run
// posted functions one at a time, and functions posted from one goroutine
// in the order they were posted.
type Executor interface {
	Post(fn func())
}

// ExecutorFunc adapts a function to Executor.
type ExecutorFunc func(fn func())

// Post calls f(fn).
func (f ExecutorFunc) Post(fn func()) { f(fn) }

// SerialExecutor runs each posted function immediately on the posting
// goroutine while holding a lock, so no two run at once. Posted functions
// must not Post to the same executor.
type SerialExecutor struct {
	mu sync.Mutex
}

// NewSerialExecutor returns a ready SerialExecutor.
func NewSerialExecutor() *SerialExecutor {
	return &SerialExecutor{}
}

// Post runs fn under the executor's lock.
func (e *SerialExecutor) Post(fn func()) {
	if fn == nil {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	fn()
}
