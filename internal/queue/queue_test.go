package queue

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/zjrosen/datachannel/internal/domain/message"
)

var (
	saved  = message.New("saved", message.HintToast, message.KindSuccess)
	failed = message.New("save failed", message.HintDialog, message.KindError)
	info   = message.New("3 notes", message.HintToast, message.KindInfo)
)

func TestQueue_New(t *testing.T) {
	q := New()
	require.True(t, q.IsEmpty())
	require.Equal(t, 0, q.Len())
	require.Nil(t, q.Head().Get())
}

func TestQueue_PushPublishesFirstAsHead(t *testing.T) {
	q := New()

	require.True(t, q.Push(failed))
	require.Equal(t, failed, *q.Head().Get())

	require.True(t, q.Push(saved))
	require.Equal(t, failed, *q.Head().Get(), "head stays on the first message")
	require.Equal(t, []message.Message{failed, saved}, q.Messages())
}

func TestQueue_PushDuplicate(t *testing.T) {
	q := New()

	require.True(t, q.Push(failed))
	require.False(t, q.Push(failed))
	require.Equal(t, 1, q.Len())

	// Duplicate of a non-head entry is rejected too.
	require.True(t, q.Push(saved))
	require.False(t, q.Push(message.New("saved", message.HintToast, message.KindSuccess)))
	require.Equal(t, 2, q.Len())
}

func TestQueue_PushAll(t *testing.T) {
	q := New()
	added := q.PushAll(saved, failed, saved, info)
	require.Equal(t, 3, added)
	require.Equal(t, []message.Message{saved, failed, info}, q.Messages())
}

func TestQueue_RemoveAt(t *testing.T) {
	tests := []struct {
		name     string
		index    int
		removed  message.Message
		wantHead *message.Message
		wantLen  int
	}{
		{"head", 0, saved, &failed, 2},
		{"middle", 1, failed, &saved, 2},
		{"last", 2, info, &saved, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := New()
			q.PushAll(saved, failed, info)

			got := q.RemoveAt(tt.index)
			require.Equal(t, tt.removed, got)
			require.Equal(t, tt.wantLen, q.Len())
			require.Equal(t, *tt.wantHead, *q.Head().Get())
		})
	}
}

func TestQueue_RemoveLastPublishesNil(t *testing.T) {
	q := New()
	q.Push(failed)

	require.Equal(t, failed, q.RemoveAt(0))
	require.True(t, q.IsEmpty())
	require.Nil(t, q.Head().Get())
}

func TestQueue_RemoveAtOutOfRange(t *testing.T) {
	for _, index := range []int{-1, 0, 1, 99} {
		t.Run(fmt.Sprintf("empty/%d", index), func(t *testing.T) {
			q := New()
			got := q.RemoveAt(index)
			require.True(t, got.IsSentinel())
			require.Nil(t, q.Head().Get())
		})
	}

	t.Run("non-empty resets head", func(t *testing.T) {
		q := New()
		q.Push(failed)

		got := q.RemoveAt(5)
		require.True(t, got.IsSentinel())
		require.Equal(t, 1, q.Len(), "entries are left alone")
		require.Nil(t, q.Head().Get())
	})
}

func TestQueue_Clear(t *testing.T) {
	q := New()
	q.PushAll(saved, failed)

	q.Clear()

	require.True(t, q.IsEmpty())
	require.Nil(t, q.Head().Get())
	require.True(t, q.Push(saved), "cleared messages can be queued again")
}

func TestQueue_MessagesIsCopy(t *testing.T) {
	q := New()
	q.Push(saved)

	msgs := q.Messages()
	msgs[0] = failed

	require.Equal(t, saved, q.Messages()[0])
}

func TestQueue_ConcurrentPush(t *testing.T) {
	q := New()

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 20; i++ {
				q.Push(message.New(fmt.Sprintf("m-%d", i), message.HintToast, message.KindInfo))
			}
		}()
	}
	wg.Wait()

	require.Equal(t, 20, q.Len(), "every writer pushed the same 20 messages")
}

// ============================================================================
// Property-Based Tests
// ============================================================================

func drawMessage(t *rapid.T, label string) message.Message {
	text := rapid.SampledFrom([]string{"a", "b", "c"}).Draw(t, label+"-text")
	hint := message.UIHint(rapid.IntRange(0, 2).Draw(t, label+"-hint"))
	kind := message.Kind(rapid.IntRange(0, 3).Draw(t, label+"-kind"))
	return message.New(text, hint, kind)
}

// TestProperty_NoDuplicatesAndHeadTracksFirst checks after every operation
// that the queue holds no equal pair and that the head is the first entry.
func TestProperty_NoDuplicatesAndHeadTracksFirst(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		q := New()

		steps := rapid.IntRange(1, 50).Draw(t, "steps")
		for i := 0; i < steps; i++ {
			label := fmt.Sprintf("step-%d", i)
			switch rapid.IntRange(0, 5).Draw(t, label+"-op") {
			case 0:
				q.Clear()
			case 1:
				q.RemoveAt(rapid.IntRange(0, q.Len()).Draw(t, label+"-index"))
			default:
				m := drawMessage(t, label)
				before := q.Len()
				dup := false
				for _, e := range q.Messages() {
					dup = dup || e == m
				}
				added := q.Push(m)
				if added == dup {
					t.Fatalf("Push(%v) = %v with duplicate=%v", m, added, dup)
				}
				if !added && q.Len() != before {
					t.Fatalf("rejected push changed the queue")
				}
			}

			msgs := q.Messages()
			seen := map[message.Message]bool{}
			for _, m := range msgs {
				if seen[m] {
					t.Fatalf("duplicate %v in %v", m, msgs)
				}
				seen[m] = true
			}
		}

		// A clean removal always republishes the head.
		if q.Len() > 0 {
			q.RemoveAt(0)
		}
		msgs := q.Messages()
		head := q.Head().Get()
		if len(msgs) == 0 {
			if head != nil {
				t.Fatalf("head = %v on empty queue", *head)
			}
		} else if head == nil || *head != msgs[0] {
			t.Fatalf("head does not match first entry")
		}
	})
}
