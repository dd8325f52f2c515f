package demo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRepository_SeedAndFetch(t *testing.T) {
	repo := NewRepository(Options{CacheTTL: time.Minute, Seed: []string{"a", "b"}})

	notes, err := repo.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, notes, 2)
	require.Equal(t, "a", notes[0].Title)
	require.NotEmpty(t, notes[0].ID)
	require.NotEqual(t, notes[0].ID, notes[1].ID)
}

func TestRepository_ListServesFromCache(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(Options{CacheTTL: time.Minute, Seed: []string{"a"}})

	_, ok := repo.Cached(ctx)
	require.False(t, ok)

	_, err := repo.List(ctx)
	require.NoError(t, err)
	_, err = repo.List(ctx)
	require.NoError(t, err)

	stats := repo.CacheStats()
	require.EqualValues(t, 1, stats.Hits)
	require.Equal(t, 1, stats.Items)

	cached, ok := repo.Cached(ctx)
	require.True(t, ok)
	require.Len(t, cached, 1)
}

func TestRepository_SaveInvalidatesListing(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(Options{CacheTTL: time.Minute})

	_, err := repo.List(ctx)
	require.NoError(t, err)

	n, err := repo.Save(ctx, "first")
	require.NoError(t, err)
	require.Equal(t, "first", n.Title)

	_, ok := repo.Cached(ctx)
	require.False(t, ok, "save drops the stale listing")

	notes, err := repo.List(ctx)
	require.NoError(t, err)
	require.Equal(t, []Note{n}, notes)
}

func TestRepository_FailEvery(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(Options{FailEvery: 2})

	var failures int
	for i := 0; i < 6; i++ {
		_, err := repo.Save(ctx, "n")
		if err != nil {
			require.ErrorIs(t, err, ErrSaveRejected)
			failures++
		}
	}
	require.Equal(t, 3, failures)
	require.Equal(t, 6, repo.Saves())

	notes, err := repo.Fetch(ctx)
	require.NoError(t, err)
	require.Len(t, notes, 3)
}

func TestRepository_NoCacheWhenTTLIsZero(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(Options{Seed: []string{"a"}})

	_, err := repo.List(ctx)
	require.NoError(t, err)

	_, ok := repo.Cached(ctx)
	require.False(t, ok)
	require.Equal(t, 0, repo.CacheStats().Items)
}

func TestRepository_Broken(t *testing.T) {
	repo := NewRepository(Options{})
	require.ErrorIs(t, repo.Broken(context.Background()), ErrUnavailable)
}

func TestRepository_LatencyHonoursCancellation(t *testing.T) {
	repo := NewRepository(Options{Latency: time.Hour})
	ctx, cancel := context.WithCancel(context.Background())

	errCh := make(chan error, 1)
	go func() {
		_, err := repo.Save(ctx, "never")
		errCh <- err
	}()
	cancel()

	select {
	case err := <-errCh:
		require.True(t, errors.Is(err, context.Canceled))
	case <-time.After(time.Second):
		require.Fail(t, "save did not observe cancellation")
	}
	require.Equal(t, 0, repo.Saves())
}
