package state

import (
	"context"

	"github.com/zjrosen/datachannel/internal/domain/message"
)

// InvalidEventText is the message text emitted for events no handler knows.
const InvalidEventText = "invalid state event"

// Envelope is one result unit from a job stream. Every field is optional:
// Payload goes to the state owner, Message to the queue, and Completed marks
// the named event as finished.
type Envelope[T any] struct {
	Payload   *T
	Message   *message.Message
	Completed Event
}

// Data builds an envelope carrying payload. completed may be nil for an
// intermediate result.
func Data[T any](payload T, completed Event) Envelope[T] {
	return Envelope[T]{Payload: &payload, Completed: completed}
}

// Error builds an envelope reporting a failure: msg should be of kind Error,
// and completed should be set when the failure ends the event's work.
func Error[T any](msg message.Message, completed Event) Envelope[T] {
	return Envelope[T]{Message: &msg, Completed: completed}
}

// Done builds an envelope that only marks completed as finished.
func Done[T any](completed Event) Envelope[T] {
	return Envelope[T]{Completed: completed}
}

// WithMessage returns a copy of e carrying msg.
func (e Envelope[T]) WithMessage(msg message.Message) Envelope[T] {
	e.Message = &msg
	return e
}

// Stream starts a job and returns its envelopes. The producer must close the
// channel when it has nothing more to send, and must stop sending once ctx
// is done. A stream that never emits a Completed envelope for its event
// keeps that event active.
type Stream[T any] func(ctx context.Context) <-chan Envelope[T]

// Emit sends one envelope. It returns false once the stream's context is
// done, after which the producer should return.
type Emit[T any] func(Envelope[T]) bool

// Produce turns fn into a Stream. fn runs on its own goroutine; the channel
// is closed when fn returns.
func Produce[T any](fn func(ctx context.Context, emit Emit[T])) Stream[T] {
	return func(ctx context.Context) <-chan Envelope[T] {
		ch := make(chan Envelope[T])
		go func() {
			defer close(ch)
			fn(ctx, func(e Envelope[T]) bool {
				select {
				case ch <- e:
					return true
				case <-ctx.Done():
					return false
				}
			})
		}()
		return ch
	}
}

// Just is a Stream that emits envs in order and ends.
func Just[T any](envs ...Envelope[T]) Stream[T] {
	return Produce(func(_ context.Context, emit Emit[T]) {
		for _, e := range envs {
			if !emit(e) {
				return
			}
		}
	})
}

// Invalid is the stream handed out for an event nobody handles: one Error
// message with no UI hint, completing event.
func Invalid[T any](event Event) Stream[T] {
	return Just(Error[T](
		message.New(InvalidEventText, message.HintNone, message.KindError),
		event,
	))
}

// Drain collects every envelope of s. Intended for tests and the script
// runner; it blocks until the stream ends or ctx is done.
func Drain[T any](ctx context.Context, s Stream[T]) []Envelope[T] {
	var out []Envelope[T]
	ch := s(ctx)
	for {
		select {
		case <-ctx.Done():
			return out
		case e, ok := <-ch:
			if !ok {
				return out
			}
			out = append(out, e)
		}
	}
}
