package cache

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/mkowalczk/footsync/internal/platform/resilience"
)

// Class names a cache-lifetime policy for one category of fetched payload.
// TTLs are configuration; the store only cares that they are per-class.
type Class string

const (
	ClassPlayerSeason Class = "player_season"
	ClassScrapeFeed   Class = "scrape_feed"
	ClassLiveMatch    Class = "live_match"
)

type Config struct {
	DefaultTTL time.Duration
	TTLByClass map[Class]time.Duration
}

type entry struct {
	payload   any
	class     Class
	createdAt time.Time
	expiresAt time.Time
	hits      int64
}

// Stats is an aggregate view over the store for observability endpoints.
type Stats struct {
	Entries int   `json:"entries"`
	Hits    int64 `json:"hits"`
	Misses  int64 `json:"misses"`
}

// EntryInfo describes one live entry in a Snapshot.
type EntryInfo struct {
	Key       string    `json:"key"`
	Class     Class     `json:"class"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
	Hits      int64     `json:"hits"`
}

// Store maps request fingerprints to previously fetched payloads. A live
// entry absorbs repeat reads without consuming quota; concurrent misses
// for the same key collapse into a single fetch.
type Store struct {
	mu      sync.RWMutex
	entries map[string]*entry
	ttls    map[Class]time.Duration
	ttl     time.Duration
	misses  int64
	flight  resilience.SingleFlight
	now     func() time.Time
}

func NewStore(cfg Config) *Store {
	ttl := cfg.DefaultTTL
	if ttl <= 0 {
		ttl = time.Hour
	}

	ttls := make(map[Class]time.Duration, len(cfg.TTLByClass))
	for class, d := range cfg.TTLByClass {
		if d > 0 {
			ttls[class] = d
		}
	}

	return &Store{
		entries: make(map[string]*entry),
		ttls:    ttls,
		ttl:     ttl,
		now:     time.Now,
	}
}

func (s *Store) ttlFor(class Class) time.Duration {
	if d, ok := s.ttls[class]; ok {
		return d
	}
	return s.ttl
}

// GetOrFetch returns the cached payload for key when a live entry exists,
// incrementing its hit counter. On miss or expiry it invokes fetch exactly
// once across concurrent callers and stores the result. A failed fetch
// writes nothing: the next caller gets a fresh miss, not a poisoned entry.
func (s *Store) GetOrFetch(ctx context.Context, key string, class Class, fetch func(context.Context) (any, error)) (any, bool, error) {
	if fetch == nil {
		return nil, false, fmt.Errorf("fetch function is required")
	}
	if key == "" {
		payload, err := fetch(ctx)
		return payload, false, err
	}

	if payload, ok := s.lookup(key, true); ok {
		return payload, true, nil
	}

	var sharedHit bool
	payload, err, shared := s.flight.Do(key, func() (any, error) {
		// Re-check under the flight: a concurrent caller may have
		// populated the key while this one was queueing. Not counted as
		// a second miss.
		if cached, ok := s.lookup(key, false); ok {
			sharedHit = true
			return cached, nil
		}

		fetched, fetchErr := fetch(ctx)
		if fetchErr != nil {
			return nil, fetchErr
		}
		s.put(key, class, fetched)
		return fetched, nil
	})
	if err != nil {
		return nil, false, err
	}

	return payload, shared || sharedHit, nil
}

// Invalidate drops the entry for key, forcing the next read to re-fetch.
func (s *Store) Invalidate(key string) {
	s.mu.Lock()
	delete(s.entries, key)
	s.mu.Unlock()
}

func (s *Store) lookup(key string, countMiss bool) (any, bool) {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		if countMiss {
			s.misses++
		}
		return nil, false
	}
	if !e.expiresAt.After(now) {
		delete(s.entries, key)
		if countMiss {
			s.misses++
		}
		return nil, false
	}

	e.hits++
	return e.payload, true
}

func (s *Store) put(key string, class Class, payload any) {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	// Refresh resets the hit counter along with the payload.
	s.entries[key] = &entry{
		payload:   payload,
		class:     class,
		createdAt: now,
		expiresAt: now.Add(s.ttlFor(class)),
	}
}

func (s *Store) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := Stats{Entries: len(s.entries), Misses: s.misses}
	for _, e := range s.entries {
		stats.Hits += e.hits
	}

	return stats
}

// Snapshot lists live entries sorted by key. Expired entries that have not
// been touched since expiry are excluded.
func (s *Store) Snapshot() []EntryInfo {
	now := s.now()

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]EntryInfo, 0, len(s.entries))
	for key, e := range s.entries {
		if !e.expiresAt.After(now) {
			continue
		}
		out = append(out, EntryInfo{
			Key:       key,
			Class:     e.class,
			CreatedAt: e.createdAt,
			ExpiresAt: e.expiresAt,
			Hits:      e.hits,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })

	return out
}
