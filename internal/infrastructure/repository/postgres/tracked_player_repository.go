package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/mkowalczk/footsync/internal/domain/trackedplayer"
	qb "github.com/mkowalczk/footsync/internal/platform/querybuilder"
	"github.com/mkowalczk/footsync/internal/provider"
)

type TrackedPlayerRepository struct {
	db *sqlx.DB
}

func NewTrackedPlayerRepository(db *sqlx.DB) *TrackedPlayerRepository {
	return &TrackedPlayerRepository{db: db}
}

func (r *TrackedPlayerRepository) List(ctx context.Context) ([]trackedplayer.Player, error) {
	query, args, err := qb.Select(trackedPlayerSelectColumns...).From("tracked_players").
		OrderBy("id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select tracked players query: %w", err)
	}

	var rows []trackedPlayerTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select tracked players: %w", err)
	}

	out := make([]trackedplayer.Player, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}

	return out, nil
}

func (r *TrackedPlayerRepository) ListByTier(ctx context.Context, tier trackedplayer.Tier) ([]trackedplayer.Player, error) {
	query, args, err := qb.Select(trackedPlayerSelectColumns...).From("tracked_players").
		Where(qb.Eq("tier", int(tier))).
		OrderBy("id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select tracked players by tier query: %w", err)
	}

	var rows []trackedPlayerTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select tracked players by tier %d: %w", tier, err)
	}

	out := make([]trackedplayer.Player, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}

	return out, nil
}

func (r *TrackedPlayerRepository) GetByID(ctx context.Context, id string) (trackedplayer.Player, error) {
	query, args, err := qb.Select(trackedPlayerSelectColumns...).From("tracked_players").
		Where(qb.Eq("id", id)).
		ToSQL()
	if err != nil {
		return trackedplayer.Player{}, fmt.Errorf("build select tracked player query: %w", err)
	}

	var row trackedPlayerTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return trackedplayer.Player{}, trackedplayer.ErrNotFound
		}
		return trackedplayer.Player{}, fmt.Errorf("select tracked player id=%s: %w", id, err)
	}

	return row.toDomain(), nil
}

// Upsert writes the roster identity of a player. Sync bookkeeping columns
// are owned by RecordSyncOutcome and never overwritten here.
func (r *TrackedPlayerRepository) Upsert(ctx context.Context, p trackedplayer.Player) error {
	if err := p.Validate(); err != nil {
		return err
	}

	now := time.Now().UTC()
	model := struct {
		ID             string    `db:"id"`
		Name           string    `db:"name"`
		Tier           int       `db:"tier"`
		SportsIOID     *int64    `db:"sportsio_id"`
		HistScrapeSlug *string   `db:"histscrape_slug"`
		CreatedAt      time.Time `db:"created_at"`
		UpdatedAt      time.Time `db:"updated_at"`
	}{
		ID:             p.ID,
		Name:           p.Name,
		Tier:           int(p.Tier),
		SportsIOID:     p.SportsIOID,
		HistScrapeSlug: p.HistScrapeSlug,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	query, args, err := qb.InsertModel("tracked_players", model, `ON CONFLICT (id)
DO UPDATE SET
    name = EXCLUDED.name,
    tier = EXCLUDED.tier,
    sportsio_id = EXCLUDED.sportsio_id,
    histscrape_slug = EXCLUDED.histscrape_slug,
    updated_at = EXCLUDED.updated_at`)
	if err != nil {
		return fmt.Errorf("build upsert tracked player query: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert tracked player id=%s: %w", p.ID, err)
	}

	return nil
}

func (r *TrackedPlayerRepository) RecordSyncOutcome(ctx context.Context, outcome trackedplayer.SyncOutcome) error {
	syncedAt := outcome.SyncedAt.UTC()

	builder := qb.Update("tracked_players").
		Set("updated_at", time.Now().UTC())

	switch {
	case outcome.Successful && outcome.Provider == provider.NameSportsIO:
		builder.Set("sportsio_synced_at", syncedAt)
	case outcome.Successful && outcome.Provider == provider.NameHistScrape:
		builder.Set("histscrape_synced_at", syncedAt)
	case outcome.Successful && outcome.Provider == "":
		// Whole-player completion: this is the timestamp schedules key on.
		builder.Set("last_synced_at", syncedAt)
		builder.Set("last_sync_error", "")
	case !outcome.Successful:
		builder.Set("last_sync_error", outcome.LastError)
	}

	query, args, err := builder.Where(qb.Eq("id", outcome.PlayerID)).ToSQL()
	if err != nil {
		return fmt.Errorf("build record sync outcome query: %w", err)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("record sync outcome player_id=%s: %w", outcome.PlayerID, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("record sync outcome rows affected: %w", err)
	}
	if affected == 0 {
		return trackedplayer.ErrNotFound
	}

	return nil
}
