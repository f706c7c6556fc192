package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/mkowalczk/footsync/internal/infrastructure/repository/memory"
)

// BootstrapSeed inserts the development roster when the tracked_players
// table is empty. Existing rows are never touched.
func BootstrapSeed(ctx context.Context, db *sqlx.DB) error {
	var count int
	if err := db.GetContext(ctx, &count, `SELECT COUNT(1) FROM tracked_players`); err != nil {
		return fmt.Errorf("count tracked players for bootstrap seed: %w", err)
	}
	if count > 0 {
		return nil
	}

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin seed tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for _, p := range memory.SeedTrackedPlayers() {
		sqlQuery, args, err := sqlx.Named(`
INSERT INTO tracked_players (id, name, tier, sportsio_id, histscrape_slug)
VALUES (:id, :name, :tier, :sportsio_id, :histscrape_slug)
ON CONFLICT (id) DO NOTHING`, map[string]any{
			"id":              p.ID,
			"name":            p.Name,
			"tier":            int(p.Tier),
			"sportsio_id":     p.SportsIOID,
			"histscrape_slug": p.HistScrapeSlug,
		})
		if err != nil {
			return fmt.Errorf("bind seed tracked player %s query: %w", p.ID, err)
		}
		sqlQuery = tx.Rebind(sqlQuery)
		if _, err := tx.ExecContext(ctx, sqlQuery, args...); err != nil {
			return fmt.Errorf("seed tracked player %s: %w", p.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit seed tx: %w", err)
	}

	return nil
}
