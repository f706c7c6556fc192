package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/mkowalczk/footsync/internal/domain/usage"
)

const (
	usageKindMonth = "month"
	usageKindDay   = "day"
)

// UsageRepository persists quota counters in the usage_counters table.
// Reservations serialize on a row lock over the month counter, which
// gives every TryIncrement caller a consistent read-check-write cycle.
type UsageRepository struct {
	db *sqlx.DB
}

func NewUsageRepository(db *sqlx.DB) *UsageRepository {
	return &UsageRepository{db: db}
}

func (r *UsageRepository) TryIncrement(ctx context.Context, month, day string, ceiling int64) (usage.Stamp, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return usage.Stamp{}, fmt.Errorf("begin usage transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	now := time.Now().UTC()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO usage_counters (kind, period, used, updated_at) VALUES ($1, $2, 0, $3)
		 ON CONFLICT (kind, period) DO NOTHING`,
		usageKindMonth, month, now,
	); err != nil {
		return usage.Stamp{}, fmt.Errorf("ensure month counter period=%s: %w", month, err)
	}

	var monthUsed int64
	if err := tx.GetContext(ctx, &monthUsed,
		`SELECT used FROM usage_counters WHERE kind = $1 AND period = $2 FOR UPDATE`,
		usageKindMonth, month,
	); err != nil {
		return usage.Stamp{}, fmt.Errorf("lock month counter period=%s: %w", month, err)
	}

	if ceiling > 0 && monthUsed >= ceiling {
		return usage.Stamp{}, usage.ErrCeilingReached
	}

	monthUsed++
	if _, err := tx.ExecContext(ctx,
		`UPDATE usage_counters SET used = $1, updated_at = $2 WHERE kind = $3 AND period = $4`,
		monthUsed, now, usageKindMonth, month,
	); err != nil {
		return usage.Stamp{}, fmt.Errorf("increment month counter period=%s: %w", month, err)
	}

	var dayUsed int64
	if err := tx.GetContext(ctx, &dayUsed,
		`INSERT INTO usage_counters (kind, period, used, updated_at) VALUES ($1, $2, 1, $3)
		 ON CONFLICT (kind, period) DO UPDATE SET used = usage_counters.used + 1, updated_at = EXCLUDED.updated_at
		 RETURNING used`,
		usageKindDay, day, now,
	); err != nil {
		return usage.Stamp{}, fmt.Errorf("increment day counter period=%s: %w", day, err)
	}

	if err := tx.Commit(); err != nil {
		return usage.Stamp{}, fmt.Errorf("commit usage transaction: %w", err)
	}

	return usage.Stamp{MonthUsed: monthUsed, DayUsed: dayUsed}, nil
}

func (r *UsageRepository) CurrentMonth(ctx context.Context, month string) (usage.Counter, error) {
	var row struct {
		Used      int64     `db:"used"`
		UpdatedAt time.Time `db:"updated_at"`
	}
	err := r.db.GetContext(ctx, &row,
		`SELECT used, updated_at FROM usage_counters WHERE kind = $1 AND period = $2`,
		usageKindMonth, month,
	)
	switch {
	case isNotFound(err):
		return usage.Counter{Month: month}, nil
	case err != nil:
		return usage.Counter{}, fmt.Errorf("select month counter period=%s: %w", month, err)
	}

	return usage.Counter{Month: month, Used: row.Used, UpdatedAt: row.UpdatedAt}, nil
}
