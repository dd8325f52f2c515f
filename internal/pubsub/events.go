// Package pubsub provides the publish/subscribe primitives used across
// datachannel: a fan-out Broker for discrete events and a Value for
// observable state with latest-value replay.
package pubsub

import (
	"context"
	"time"
)

// EventType represents the type of event being published.
type EventType string

const (
	CreatedEvent EventType = "created"
	UpdatedEvent EventType = "updated"
	DeletedEvent EventType = "deleted"
)

// Event represents a published event with a typed payload.
type Event[T any] struct {
	Type      EventType
	Payload   T
	Timestamp time.Time
}

// Subscriber provides a subscription channel for events.
type Subscriber[T any] interface {
	Subscribe(ctx context.Context) <-chan Event[T]
}

// Publisher allows publishing events with a typed payload.
type Publisher[T any] interface {
	Publish(eventType EventType, payload T)
}

// Observable is a read-only view of a Value.
type Observable[T any] interface {
	Get() T
	Subscribe(ctx context.Context) <-chan T
}
