package trackedplayer

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("tracked player not found")

// Repository describes tracked-player persistence needs from the engine.
type Repository interface {
	List(ctx context.Context) ([]Player, error)
	ListByTier(ctx context.Context, tier Tier) ([]Player, error)
	GetByID(ctx context.Context, id string) (Player, error)
	Upsert(ctx context.Context, p Player) error
	RecordSyncOutcome(ctx context.Context, outcome SyncOutcome) error
}
