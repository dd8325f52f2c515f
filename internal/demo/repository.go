package demo

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/zjrosen/datachannel/internal/cachemanager"
	"github.com/zjrosen/datachannel/internal/log"
)

var (
	// ErrSaveRejected is returned by Save for the saves selected by FailEvery.
	ErrSaveRejected = errors.New("save rejected by backend")
	// ErrUnavailable is what Broken always returns.
	ErrUnavailable = errors.New("backend unavailable")
)

const listingKey = "notes:all"

// Note is one stored note.
type Note struct {
	ID        string
	Title     string
	CreatedAt time.Time
}

// Options tunes the simulated backend.
type Options struct {
	// Latency is applied to every backend call.
	Latency time.Duration
	// CacheTTL is how long a listing stays cached. Zero disables the cache.
	CacheTTL time.Duration
	// FailEvery makes every Nth save fail. Zero never fails.
	FailEvery int
	// Seed notes present at start.
	Seed []string
}

// Repository is an in-memory notes store with simulated latency and a
// read-through listing cache.
type Repository struct {
	latency   time.Duration
	failEvery int
	newID     func() string
	now       func() time.Time

	mu    sync.Mutex
	notes []Note
	saves int

	cache   *cachemanager.Memory[string, []Note]
	listing *cachemanager.ReadThrough[string, []Note]
}

// NewRepository creates a repository seeded with opts.Seed.
func NewRepository(opts Options) *Repository {
	r := &Repository{
		latency:   opts.Latency,
		failEvery: opts.FailEvery,
		newID:     uuid.NewString,
		now:       time.Now,
	}

	r.cache = cachemanager.NewMemory[string, []Note]("notes", opts.CacheTTL, cachemanager.DefaultCleanupInterval)
	r.listing = cachemanager.NewReadThrough(
		cachemanager.Cache[string, []Note](r.cache),
		func(ctx context.Context, _ string) ([]Note, error) { return r.fetch(ctx) },
		cachemanager.UseDefaultTTL,
		opts.CacheTTL <= 0,
	)

	for _, title := range opts.Seed {
		r.notes = append(r.notes, Note{ID: r.newID(), Title: title, CreatedAt: r.now()})
	}
	return r
}

// Cached returns the last cached listing without touching the backend.
func (r *Repository) Cached(ctx context.Context) ([]Note, bool) {
	return r.listing.Peek(ctx, listingKey)
}

// List returns the listing, from cache when possible.
func (r *Repository) List(ctx context.Context) ([]Note, error) {
	return r.listing.Get(ctx, listingKey)
}

// Fetch reads the listing from the backend and refreshes the cache.
func (r *Repository) Fetch(ctx context.Context) ([]Note, error) {
	return r.listing.Refresh(ctx, listingKey)
}

// Save stores a new note titled title.
func (r *Repository) Save(ctx context.Context, title string) (Note, error) {
	if err := r.wait(ctx); err != nil {
		return Note{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.saves++
	if r.failEvery > 0 && r.saves%r.failEvery == 0 {
		log.Warn(log.CatDemo, "save rejected", "attempt", r.saves)
		return Note{}, fmt.Errorf("save #%d: %w", r.saves, ErrSaveRejected)
	}

	n := Note{ID: r.newID(), Title: title, CreatedAt: r.now()}
	r.notes = append(r.notes, n)
	r.listing.Invalidate(ctx, listingKey)

	log.Debug(log.CatDemo, "note saved", "id", n.ID, "title", title)
	return n, nil
}

// Saves is the number of save attempts so far.
func (r *Repository) Saves() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.saves
}

// Broken waits like any backend call and then fails.
func (r *Repository) Broken(ctx context.Context) error {
	if err := r.wait(ctx); err != nil {
		return err
	}
	return ErrUnavailable
}

// CacheStats reports listing cache counters.
func (r *Repository) CacheStats() cachemanager.Stats {
	return r.cache.Stats()
}

func (r *Repository) fetch(ctx context.Context) ([]Note, error) {
	if err := r.wait(ctx); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.notes), nil
}

func (r *Repository) wait(ctx context.Context) error {
	if r.latency <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(r.latency)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
