// Package viewmodel provides Owner, a state holder that turns events into
// job streams and folds their payloads into an observable state.
//
// An Owner pairs one Dispatcher with one state value. Everything except the
// observables must be called on the Owner's executor.
package viewmodel

import (
	"context"

	"github.com/zjrosen/datachannel/internal/dispatch"
	"github.com/zjrosen/datachannel/internal/domain/message"
	"github.com/zjrosen/datachannel/internal/domain/state"
	"github.com/zjrosen/datachannel/internal/log"
	"github.com/zjrosen/datachannel/internal/pubsub"
	"github.com/zjrosen/datachannel/internal/registry"
)

// Handler maps an event to the stream that performs its work. Returning nil
// means the event is not handled; the Owner then launches InvalidEvent.
type Handler[S any] func(event state.Event) state.Stream[S]

// Option configures an Owner.
type Option[S any] func(*Owner[S])

// WithDataHandler replaces the default payload handling, which is
// HandleNewState. fn runs on the executor.
func WithDataHandler[S any](fn func(o *Owner[S], payload S)) Option[S] {
	return func(o *Owner[S]) {
		if fn != nil {
			o.onData = fn
		}
	}
}

// WithDispatchOptions forwards opts to the underlying Dispatcher.
func WithDispatchOptions[S any](opts ...dispatch.Option) Option[S] {
	return func(o *Owner[S]) {
		o.dispatchOpts = append(o.dispatchOpts, opts...)
	}
}

// Owner holds state S and runs the jobs that update it.
type Owner[S any] struct {
	state        *pubsub.Value[S]
	handler      Handler[S]
	onData       func(o *Owner[S], payload S)
	dispatchOpts []dispatch.Option
	dispatcher   *dispatch.Dispatcher[S]
}

// New creates an Owner seeded with initial. handler may be nil, in which case
// every event is invalid.
func New[S any](initial S, exec dispatch.Executor, handler Handler[S], opts ...Option[S]) *Owner[S] {
	o := &Owner[S]{
		state:   pubsub.NewValue(initial),
		handler: handler,
		onData:  func(o *Owner[S], payload S) { o.HandleNewState(payload) },
	}
	for _, opt := range opts {
		opt(o)
	}
	o.dispatcher = dispatch.New(exec, func(payload S) { o.onData(o, payload) }, o.dispatchOpts...)
	return o
}

// State is the observable current state.
func (o *Owner[S]) State() *pubsub.Value[S] {
	return o.state
}

// SetState replaces the state with reducer applied to the current one.
func (o *Owner[S]) SetState(reducer func(S) S) {
	o.state.Set(reducer(o.state.Get()))
}

// HandleNewState replaces the state with s.
func (o *Owner[S]) HandleNewState(s S) {
	o.SetState(func(S) S { return s })
}

// StartEvent launches the handler's stream for event. Admission rules are the
// Dispatcher's; a rejected event is dropped.
func (o *Owner[S]) StartEvent(event state.Event) {
	if event == nil {
		return
	}

	var stream state.Stream[S]
	if o.handler != nil {
		stream = o.handler(event)
	}
	if stream == nil {
		log.Warn(log.CatDispatch, "no handler for event", "event", event.Name())
		stream = o.InvalidEvent(event)
	}
	o.dispatcher.Launch(event, stream)
}

// InvalidEvent is the stream for an event that has no handler: a single
// error message without a UI hint that also completes event.
func (o *Owner[S]) InvalidEvent(event state.Event) state.Stream[S] {
	return state.Invalid[S](event)
}

// CanStart reports whether StartEvent would be admitted now.
func (o *Owner[S]) CanStart(event state.Event) bool {
	return o.dispatcher.CanExecute(event)
}

// RemoveMessage dismisses the message at the head of the queue.
func (o *Owner[S]) RemoveMessage() {
	o.dispatcher.DismissHead()
}

// RemoveMessageAt dismisses the message at index. Out-of-range indexes are
// ignored.
func (o *Owner[S]) RemoveMessageAt(index int) {
	o.dispatcher.Dismiss(index)
}

// RemoveAllMessages dismisses every pending message.
func (o *Owner[S]) RemoveAllMessages() {
	o.dispatcher.DismissAll()
}

// IsLoading is true while any running event wants a progress indicator.
func (o *Owner[S]) IsLoading() *pubsub.Value[bool] {
	return o.dispatcher.Progress()
}

// Message is the message to show, or nil.
func (o *Owner[S]) Message() *pubsub.Value[*message.Message] {
	return o.dispatcher.Head()
}

// Messages returns every pending message, head first.
func (o *Owner[S]) Messages() []message.Message {
	return o.dispatcher.Messages()
}

// ActiveEventNames is a live view of the running events.
func (o *Owner[S]) ActiveEventNames() registry.Names {
	return o.dispatcher.ActiveEventNames()
}

// CancelJobs cancels every running event.
func (o *Owner[S]) CancelJobs() {
	o.dispatcher.CancelAll()
}

// Shutdown cancels every running event and waits for its stream to stop.
// Must not be called on the executor.
func (o *Owner[S]) Shutdown(ctx context.Context) error {
	return o.dispatcher.Shutdown(ctx)
}
