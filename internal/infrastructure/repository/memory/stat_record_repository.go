package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/mkowalczk/footsync/internal/domain/statrecord"
)

type StatRecordRepository struct {
	mu      sync.RWMutex
	records map[statrecord.Key]statrecord.Record
}

func NewStatRecordRepository() *StatRecordRepository {
	return &StatRecordRepository{records: make(map[statrecord.Key]statrecord.Record)}
}

func (r *StatRecordRepository) Get(_ context.Context, key statrecord.Key) (statrecord.Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	record, ok := r.records[key]
	if !ok {
		return statrecord.Record{}, statrecord.ErrNotFound
	}

	return record, nil
}

func (r *StatRecordRepository) ListByPlayer(_ context.Context, playerID string) ([]statrecord.Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]statrecord.Record, 0)
	for key, record := range r.records {
		if key.PlayerID == playerID {
			out = append(out, record)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key.String() < out[j].Key.String() })

	return out, nil
}

func (r *StatRecordRepository) Upsert(_ context.Context, record statrecord.Record) error {
	if err := record.Key.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.records[record.Key]
	if ok && existing.Version != record.Version {
		return statrecord.ErrConflict
	}

	record.Version++
	r.records[record.Key] = record

	return nil
}
