package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/mkowalczk/footsync/internal/domain/trackedplayer"
	"github.com/mkowalczk/footsync/internal/provider"
)

type TrackedPlayerRepository struct {
	mu      sync.RWMutex
	players map[string]trackedplayer.Player
}

func NewTrackedPlayerRepository(players []trackedplayer.Player) *TrackedPlayerRepository {
	index := make(map[string]trackedplayer.Player, len(players))
	for _, p := range players {
		index[p.ID] = p
	}

	return &TrackedPlayerRepository{players: index}
}

func (r *TrackedPlayerRepository) List(_ context.Context) ([]trackedplayer.Player, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]trackedplayer.Player, 0, len(r.players))
	for _, p := range r.players {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })

	return out, nil
}

func (r *TrackedPlayerRepository) ListByTier(_ context.Context, tier trackedplayer.Tier) ([]trackedplayer.Player, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]trackedplayer.Player, 0)
	for _, p := range r.players {
		if p.Tier == tier {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })

	return out, nil
}

func (r *TrackedPlayerRepository) GetByID(_ context.Context, id string) (trackedplayer.Player, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.players[id]
	if !ok {
		return trackedplayer.Player{}, trackedplayer.ErrNotFound
	}

	return p, nil
}

func (r *TrackedPlayerRepository) Upsert(_ context.Context, p trackedplayer.Player) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.players[p.ID]
	now := time.Now().UTC()
	if ok {
		p.CreatedAt = existing.CreatedAt
		p.SportsIOSyncedAt = existing.SportsIOSyncedAt
		p.HistScrapeSyncedAt = existing.HistScrapeSyncedAt
		p.LastSyncedAt = existing.LastSyncedAt
		p.LastSyncError = existing.LastSyncError
	} else {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	r.players[p.ID] = p

	return nil
}

func (r *TrackedPlayerRepository) RecordSyncOutcome(_ context.Context, outcome trackedplayer.SyncOutcome) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.players[outcome.PlayerID]
	if !ok {
		return trackedplayer.ErrNotFound
	}

	syncedAt := outcome.SyncedAt
	switch {
	case outcome.Successful && outcome.Provider == provider.NameSportsIO:
		p.SportsIOSyncedAt = &syncedAt
	case outcome.Successful && outcome.Provider == provider.NameHistScrape:
		p.HistScrapeSyncedAt = &syncedAt
	case outcome.Successful && outcome.Provider == "":
		// Whole-player completion: this is the timestamp schedules key on.
		p.LastSyncedAt = &syncedAt
		p.LastSyncError = ""
	case !outcome.Successful:
		p.LastSyncError = outcome.LastError
	}
	p.UpdatedAt = time.Now().UTC()
	r.players[outcome.PlayerID] = p

	return nil
}
