package pubsub

import (
	"context"
	"sync"
	"sync/atomic"
)

// Value holds the latest value of some piece of state and notifies
// subscribers whenever it is Set.
//
// Readers call Get without taking a lock. Each subscriber channel has a
// single slot: a new subscriber immediately receives the current value, and a
// subscriber that falls behind only ever sees the most recent value.
type Value[T any] struct {
	cur atomic.Pointer[T]

	mu     sync.Mutex
	subs   map[chan T]struct{}
	closed bool
	// done is closed by Close and releases the subscription watchers.
	done     chan struct{}
	watchers sync.WaitGroup
}

// NewValue creates a Value seeded with initial.
func NewValue[T any](initial T) *Value[T] {
	v := &Value[T]{
		subs: make(map[chan T]struct{}),
		done: make(chan struct{}),
	}
	v.cur.Store(&initial)
	return v
}

// Get returns the current value.
func (v *Value[T]) Get() T {
	return *v.cur.Load()
}

// Set replaces the current value and publishes it to all subscribers.
func (v *Value[T]) Set(x T) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.cur.Store(&x)
	if v.closed {
		return
	}
	for sub := range v.subs {
		offerLatest(sub, x)
	}
}

// Subscribe returns a channel that first yields the current value and then
// every subsequent one (conflated). The channel is closed when ctx is
// cancelled or the Value is closed.
func (v *Value[T]) Subscribe(ctx context.Context) <-chan T {
	v.mu.Lock()
	defer v.mu.Unlock()

	sub := make(chan T, 1)
	if v.closed {
		close(sub)
		return sub
	}
	sub <- *v.cur.Load()
	v.subs[sub] = struct{}{}

	v.watchers.Add(1)
	go func() {
		defer v.watchers.Done()
		select {
		case <-ctx.Done():
		case <-v.done:
			return
		}
		v.mu.Lock()
		defer v.mu.Unlock()
		if _, ok := v.subs[sub]; ok {
			delete(v.subs, sub)
			close(sub)
		}
	}()

	return sub
}

// SubscriberCount returns the number of active subscribers.
func (v *Value[T]) SubscriberCount() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.subs)
}

// Close closes every subscriber channel. Get keeps returning the last value.
func (v *Value[T]) Close() {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.closed {
		return
	}
	v.closed = true
	close(v.done)
	for sub := range v.subs {
		delete(v.subs, sub)
		close(sub)
	}
}

// offerLatest replaces whatever is buffered in sub with x. Callers hold v.mu,
// so no other sender races for the slot.
func offerLatest[T any](sub chan T, x T) {
	select {
	case sub <- x:
		return
	default:
	}
	select {
	case <-sub:
	default:
	}
	select {
	case sub <- x:
	default:
	}
}
