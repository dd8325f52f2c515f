package pubsub

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
)

// ListenCmd creates a Bubble Tea command that waits for the next event on ch
// and returns it as a tea.Msg. Returns nil if ctx is cancelled or ch closes.
func ListenCmd[T any](ctx context.Context, ch <-chan Event[T]) tea.Cmd {
	return func() tea.Msg {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-ch:
			if !ok {
				return nil
			}
			return event
		}
	}
}

// ContinuousListener maintains a broker subscription for the Bubble Tea
// update loop.
type ContinuousListener[T any] struct {
	ctx context.Context
	ch  <-chan Event[T]
}

// NewContinuousListener subscribes to broker for the lifetime of ctx.
func NewContinuousListener[T any](ctx context.Context, broker *Broker[T]) *ContinuousListener[T] {
	return &ContinuousListener[T]{
		ctx: ctx,
		ch:  broker.Subscribe(ctx),
	}
}

// Listen returns a tea.Cmd that waits for the next event.
// Call it again from Update after handling each event.
func (l *ContinuousListener[T]) Listen() tea.Cmd {
	return ListenCmd(l.ctx, l.ch)
}

// ChangedMsg carries a new observation of a Value into Update. Key tells
// watchers sharing one model apart.
type ChangedMsg[T any] struct {
	Key   string
	Value T
}

// Watcher follows a Value from the Bubble Tea update loop.
type Watcher[T any] struct {
	key string
	ctx context.Context
	ch  <-chan T
}

// NewWatcher subscribes to v for the lifetime of ctx.
func NewWatcher[T any](ctx context.Context, key string, v Observable[T]) *Watcher[T] {
	return &Watcher[T]{key: key, ctx: ctx, ch: v.Subscribe(ctx)}
}

// Next returns a tea.Cmd yielding the next ChangedMsg, or nil once the
// subscription ends.
func (w *Watcher[T]) Next() tea.Cmd {
	return func() tea.Msg {
		select {
		case <-w.ctx.Done():
			return nil
		case x, ok := <-w.ch:
			if !ok {
				return nil
			}
			return ChangedMsg[T]{Key: w.key, Value: x}
		}
	}
}
