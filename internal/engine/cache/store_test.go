package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestGetOrFetch_OneHourTTLWindow(t *testing.T) {
	t.Parallel()

	store := NewStore(Config{
		TTLByClass: map[Class]time.Duration{ClassPlayerSeason: time.Hour},
	})
	current := time.Date(2026, time.August, 24, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return current }

	var fetchCount atomic.Int32
	fetch := func(context.Context) (any, error) {
		fetchCount.Add(1)
		return "payload", nil
	}
	ctx := context.Background()

	payload, hit, err := store.GetOrFetch(ctx, "sportsio:881:2025", ClassPlayerSeason, fetch)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if hit {
		t.Fatal("first read must be a miss")
	}
	if payload != "payload" {
		t.Fatalf("unexpected payload: %v", payload)
	}

	current = current.Add(59 * time.Minute)
	_, hit, err = store.GetOrFetch(ctx, "sportsio:881:2025", ClassPlayerSeason, fetch)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !hit {
		t.Fatal("read before expiry must be a hit")
	}
	if got := fetchCount.Load(); got != 1 {
		t.Fatalf("expected 1 fetch, got=%d", got)
	}

	current = current.Add(2 * time.Minute)
	_, hit, err = store.GetOrFetch(ctx, "sportsio:881:2025", ClassPlayerSeason, fetch)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if hit {
		t.Fatal("read past expiry must re-fetch")
	}
	if got := fetchCount.Load(); got != 2 {
		t.Fatalf("expected exactly one re-fetch, got=%d fetches", got)
	}
}

func TestGetOrFetch_ConcurrentMissesCollapseToOneFetch(t *testing.T) {
	t.Parallel()

	store := NewStore(Config{DefaultTTL: time.Minute})

	var fetchCount atomic.Int32
	fetch := func(context.Context) (any, error) {
		fetchCount.Add(1)
		time.Sleep(10 * time.Millisecond)
		return 42, nil
	}

	const goroutines = 32
	start := make(chan struct{})
	errCh := make(chan error, goroutines)
	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			payload, _, err := store.GetOrFetch(context.Background(), "k", ClassPlayerSeason, fetch)
			if err != nil {
				errCh <- err
				return
			}
			if payload != 42 {
				errCh <- errors.New("unexpected payload")
			}
		}()
	}
	close(start)
	wg.Wait()
	close(errCh)

	for err := range errCh {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := fetchCount.Load(); got != 1 {
		t.Fatalf("expected a single underlying fetch, got=%d", got)
	}
}

func TestGetOrFetch_FailedFetchWritesNothing(t *testing.T) {
	t.Parallel()

	store := NewStore(Config{DefaultTTL: time.Minute})

	wantErr := errors.New("quota exhausted")
	var fetchCount atomic.Int32
	failing := func(context.Context) (any, error) {
		fetchCount.Add(1)
		return nil, wantErr
	}

	_, _, err := store.GetOrFetch(context.Background(), "k", ClassLiveMatch, failing)
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected fetch error to propagate, got %v", err)
	}

	// The failure must not be cached as a false negative.
	_, hit, err := store.GetOrFetch(context.Background(), "k", ClassLiveMatch, func(context.Context) (any, error) {
		return "recovered", nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if hit {
		t.Fatal("failed fetch must not leave an entry behind")
	}
	if got := store.Stats().Entries; got != 1 {
		t.Fatalf("expected one live entry after recovery, got=%d", got)
	}
}

func TestGetOrFetch_PerClassTTL(t *testing.T) {
	t.Parallel()

	store := NewStore(Config{
		DefaultTTL: time.Hour,
		TTLByClass: map[Class]time.Duration{ClassLiveMatch: 5 * time.Minute},
	})
	current := time.Date(2026, time.August, 24, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return current }
	ctx := context.Background()

	fetch := func(context.Context) (any, error) { return "v", nil }
	if _, _, err := store.GetOrFetch(ctx, "live", ClassLiveMatch, fetch); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, _, err := store.GetOrFetch(ctx, "season", ClassPlayerSeason, fetch); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	current = current.Add(10 * time.Minute)

	if _, hit, _ := store.GetOrFetch(ctx, "live", ClassLiveMatch, fetch); hit {
		t.Fatal("live entry should have expired after 5 minutes")
	}
	if _, hit, _ := store.GetOrFetch(ctx, "season", ClassPlayerSeason, fetch); !hit {
		t.Fatal("season entry should still be live under the default TTL")
	}
}

func TestStatsAndSnapshot(t *testing.T) {
	t.Parallel()

	store := NewStore(Config{DefaultTTL: time.Minute})
	ctx := context.Background()
	fetch := func(context.Context) (any, error) { return "v", nil }

	if _, _, err := store.GetOrFetch(ctx, "a", ClassPlayerSeason, fetch); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := 0; i < 3; i++ {
		if _, hit, _ := store.GetOrFetch(ctx, "a", ClassPlayerSeason, fetch); !hit {
			t.Fatal("expected hit")
		}
	}

	stats := store.Stats()
	if stats.Entries != 1 || stats.Hits != 3 || stats.Misses != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}

	snapshot := store.Snapshot()
	if len(snapshot) != 1 || snapshot[0].Key != "a" || snapshot[0].Hits != 3 {
		t.Fatalf("unexpected snapshot: %+v", snapshot)
	}

	store.Invalidate("a")
	if got := store.Stats().Entries; got != 0 {
		t.Fatalf("expected empty store after invalidate, got=%d entries", got)
	}
}
