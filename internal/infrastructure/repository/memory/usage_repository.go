package memory

import (
	"context"
	"sync"
	"time"

	"github.com/mkowalczk/footsync/internal/domain/usage"
)

// UsageRepository keeps usage counters in memory. TryIncrement serializes
// all reservations behind one mutex, which gives the total order the
// engine requires.
type UsageRepository struct {
	mu       sync.Mutex
	byMonth  map[string]usage.Counter
	byDay    map[string]int64
	nowClock func() time.Time
}

func NewUsageRepository() *UsageRepository {
	return &UsageRepository{
		byMonth:  make(map[string]usage.Counter),
		byDay:    make(map[string]int64),
		nowClock: time.Now,
	}
}

func (r *UsageRepository) TryIncrement(_ context.Context, month, day string, ceiling int64) (usage.Stamp, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	counter := r.byMonth[month]
	if ceiling > 0 && counter.Used >= ceiling {
		return usage.Stamp{}, usage.ErrCeilingReached
	}

	counter.Month = month
	counter.Used++
	counter.UpdatedAt = r.nowClock().UTC()
	r.byMonth[month] = counter
	r.byDay[day]++

	return usage.Stamp{MonthUsed: counter.Used, DayUsed: r.byDay[day]}, nil
}

func (r *UsageRepository) CurrentMonth(_ context.Context, month string) (usage.Counter, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	counter, ok := r.byMonth[month]
	if !ok {
		return usage.Counter{Month: month}, nil
	}

	return counter, nil
}
