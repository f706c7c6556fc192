package statrecord

import (
	"context"
	"errors"
)

var (
	ErrNotFound = errors.New("stat record not found")
	ErrConflict = errors.New("stat record version conflict")
)

// Repository describes canonical-record persistence needs from the engine.
// Upsert must be atomic on Key and reject writes carrying a stale Version
// with ErrConflict.
type Repository interface {
	Get(ctx context.Context, key Key) (Record, error)
	ListByPlayer(ctx context.Context, playerID string) ([]Record, error)
	Upsert(ctx context.Context, record Record) error
}
