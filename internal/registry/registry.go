// Package registry tracks which named events currently have work in flight
// and derives the aggregated progress signal from them.
package registry

import (
	"slices"
	"strings"
	"sync"

	"github.com/zjrosen/datachannel/internal/domain/state"
	"github.com/zjrosen/datachannel/internal/log"
	"github.com/zjrosen/datachannel/internal/pubsub"
)

// Registry maps event names to the event currently active under that name.
// The progress signal is true iff some active event wants progress.
type Registry struct {
	mu       sync.RWMutex
	active   map[string]state.Event
	progress *pubsub.Value[bool]
}

// New returns an empty registry with the progress signal set to false.
func New() *Registry {
	return &Registry{
		active:   make(map[string]state.Event),
		progress: pubsub.NewValue(false),
	}
}

// Add records event as active, replacing any entry with the same name.
func (r *Registry) Add(event state.Event) {
	if event == nil {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.active[event.Name()] = event
	log.Debug(log.CatRegistry, "event active", "name", event.Name(), "active", len(r.active))
	r.syncLocked()
}

// Remove drops the entry named by event. A nil or unknown event is a no-op.
func (r *Registry) Remove(event state.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if event != nil {
		if _, ok := r.active[event.Name()]; ok {
			delete(r.active, event.Name())
			log.Debug(log.CatRegistry, "event finished", "name", event.Name(), "active", len(r.active))
		}
	}
	r.syncLocked()
}

// IsActive reports whether an event with the same name is in flight.
func (r *Registry) IsActive(event state.Event) bool {
	if event == nil {
		return false
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.active[event.Name()]
	return ok
}

// Clear removes every entry.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()

	clear(r.active)
	log.Debug(log.CatRegistry, "registry cleared")
	r.syncLocked()
}

// Len returns the number of active events.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.active)
}

// Progress is the observable busy signal.
func (r *Registry) Progress() *pubsub.Value[bool] {
	return r.progress
}

// ActiveNames returns a live view of the active names: reads through the
// view always reflect the registry's current contents.
func (r *Registry) ActiveNames() Names {
	return Names{r: r}
}

func (r *Registry) syncLocked() {
	busy := false
	for _, ev := range r.active {
		if ev.WantsProgress() {
			busy = true
			break
		}
	}
	r.progress.Set(busy)
}

// Names is a read-only, live view of a registry's active event names.
type Names struct {
	r *Registry
}

// Contains reports whether name is currently active.
func (n Names) Contains(name string) bool {
	if n.r == nil {
		return false
	}
	n.r.mu.RLock()
	defer n.r.mu.RUnlock()
	_, ok := n.r.active[name]
	return ok
}

// Len returns the number of active names.
func (n Names) Len() int {
	if n.r == nil {
		return 0
	}
	return n.r.Len()
}

// Slice returns the active names, sorted.
func (n Names) Slice() []string {
	if n.r == nil {
		return nil
	}
	n.r.mu.RLock()
	names := make([]string, 0, len(n.r.active))
	for name := range n.r.active {
		names = append(names, name)
	}
	n.r.mu.RUnlock()

	slices.Sort(names)
	return names
}

func (n Names) String() string {
	return "[" + strings.Join(n.Slice(), " ") + "]"
}
