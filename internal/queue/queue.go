// Package queue provides the ordered, duplicate-free queue of pending
// notification messages. The first element is the active notification and
// is published through an observable head.
package queue

import (
	"slices"
	"sync"

	"github.com/zjrosen/datachannel/internal/domain/message"
	"github.com/zjrosen/datachannel/internal/log"
	"github.com/zjrosen/datachannel/internal/pubsub"
)

// MessageQueue is a thread-safe FIFO of messages that never holds two equal
// entries.
type MessageQueue struct {
	mu      sync.Mutex
	entries []message.Message
	head    *pubsub.Value[*message.Message]
}

// New returns an empty queue whose head is nil.
func New() *MessageQueue {
	return &MessageQueue{
		entries: make([]message.Message, 0),
		head:    pubsub.NewValue[*message.Message](nil),
	}
}

// Push appends msg unless an equal message is already queued. Returns false
// without changing anything for a duplicate. The head is published when msg
// becomes the first element.
func (q *MessageQueue) Push(msg message.Message) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if slices.Contains(q.entries, msg) {
		return false
	}

	q.entries = append(q.entries, msg)
	if len(q.entries) == 1 {
		q.head.Set(msg.Ptr())
	}
	log.Debug(log.CatQueue, "message queued", "message", msg.String(), "len", len(q.entries))
	return true
}

// PushAll pushes each message in order and reports how many were added.
func (q *MessageQueue) PushAll(msgs ...message.Message) int {
	added := 0
	for _, m := range msgs {
		if q.Push(m) {
			added++
		}
	}
	return added
}

// RemoveAt removes and returns the message at index, then publishes the new
// head. An out-of-range index is not an error for the caller: the head is
// reset, the fault is logged, and the sentinel message is returned.
func (q *MessageQueue) RemoveAt(index int) message.Message {
	q.mu.Lock()
	defer q.mu.Unlock()

	if index < 0 || index >= len(q.entries) {
		q.head.Set(nil)
		log.Error(log.CatQueue, "remove index out of range", "index", index, "len", len(q.entries))
		return message.Sentinel()
	}

	removed := q.entries[index]
	q.entries = slices.Delete(q.entries, index, index+1)
	q.publishHeadLocked()
	log.Debug(log.CatQueue, "message removed", "index", index, "len", len(q.entries))
	return removed
}

// Clear empties the queue and publishes a nil head.
func (q *MessageQueue) Clear() {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.entries = q.entries[:0]
	q.head.Set(nil)
}

// IsEmpty reports whether no message is pending.
func (q *MessageQueue) IsEmpty() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.entries) == 0
}

// Len returns the number of pending messages.
func (q *MessageQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.entries)
}

// Messages returns a copy of the pending messages, head first.
func (q *MessageQueue) Messages() []message.Message {
	q.mu.Lock()
	defer q.mu.Unlock()
	return slices.Clone(q.entries)
}

// Head is the observable first message; nil when the queue is empty.
func (q *MessageQueue) Head() *pubsub.Value[*message.Message] {
	return q.head
}

func (q *MessageQueue) publishHeadLocked() {
	if len(q.entries) == 0 {
		q.head.Set(nil)
		return
	}
	q.head.Set(q.entries[0].Ptr())
}
