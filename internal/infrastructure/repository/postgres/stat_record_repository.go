package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/mkowalczk/footsync/internal/domain/statrecord"
	qb "github.com/mkowalczk/footsync/internal/platform/querybuilder"
)

type StatRecordRepository struct {
	db *sqlx.DB
}

func NewStatRecordRepository(db *sqlx.DB) *StatRecordRepository {
	return &StatRecordRepository{db: db}
}

func (r *StatRecordRepository) Get(ctx context.Context, key statrecord.Key) (statrecord.Record, error) {
	query, args, err := qb.Select(statRecordSelectColumns...).From("stat_records").
		Where(
			qb.Eq("player_id", key.PlayerID),
			qb.Eq("season", key.Season),
			qb.Eq("competition_category", key.CompetitionCategory),
			qb.Eq("competition_name", key.CompetitionName),
		).
		ToSQL()
	if err != nil {
		return statrecord.Record{}, fmt.Errorf("build select stat record query: %w", err)
	}

	var row statRecordTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return statrecord.Record{}, statrecord.ErrNotFound
		}
		return statrecord.Record{}, fmt.Errorf("select stat record key=%s: %w", key, err)
	}

	return row.toDomain(), nil
}

func (r *StatRecordRepository) ListByPlayer(ctx context.Context, playerID string) ([]statrecord.Record, error) {
	query, args, err := qb.Select(statRecordSelectColumns...).From("stat_records").
		Where(qb.Eq("player_id", playerID)).
		OrderBy("season", "competition_category", "competition_name").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select stat records by player query: %w", err)
	}

	var rows []statRecordTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select stat records player_id=%s: %w", playerID, err)
	}

	out := make([]statrecord.Record, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}

	return out, nil
}

const upsertStatRecordQuery = `
INSERT INTO stat_records (
    player_id, season, competition_category, competition_name,
    appearances, minutes_played, goals, assists,
    yellow_cards, red_cards, fouls_drawn,
    expected_goals, expected_assists, non_penalty_xg, progressive_passes,
    saves, clean_sheets, goals_conceded,
    origin_basic, origin_discipline, origin_advanced, origin_keeper,
    version, synced_at
) VALUES (
    :player_id, :season, :competition_category, :competition_name,
    :appearances, :minutes_played, :goals, :assists,
    :yellow_cards, :red_cards, :fouls_drawn,
    :expected_goals, :expected_assists, :non_penalty_xg, :progressive_passes,
    :saves, :clean_sheets, :goals_conceded,
    :origin_basic, :origin_discipline, :origin_advanced, :origin_keeper,
    :version + 1, :synced_at
)
ON CONFLICT (player_id, season, competition_category, competition_name)
DO UPDATE SET
    appearances = EXCLUDED.appearances,
    minutes_played = EXCLUDED.minutes_played,
    goals = EXCLUDED.goals,
    assists = EXCLUDED.assists,
    yellow_cards = EXCLUDED.yellow_cards,
    red_cards = EXCLUDED.red_cards,
    fouls_drawn = EXCLUDED.fouls_drawn,
    expected_goals = EXCLUDED.expected_goals,
    expected_assists = EXCLUDED.expected_assists,
    non_penalty_xg = EXCLUDED.non_penalty_xg,
    progressive_passes = EXCLUDED.progressive_passes,
    saves = EXCLUDED.saves,
    clean_sheets = EXCLUDED.clean_sheets,
    goals_conceded = EXCLUDED.goals_conceded,
    origin_basic = EXCLUDED.origin_basic,
    origin_discipline = EXCLUDED.origin_discipline,
    origin_advanced = EXCLUDED.origin_advanced,
    origin_keeper = EXCLUDED.origin_keeper,
    version = stat_records.version + 1,
    synced_at = EXCLUDED.synced_at
WHERE stat_records.version = :version`

// Upsert writes one canonical row with optimistic concurrency: the write
// only lands when the stored version still matches the version the caller
// read. A zero-row outcome means another writer got there first.
func (r *StatRecordRepository) Upsert(ctx context.Context, record statrecord.Record) error {
	if err := record.Key.Validate(); err != nil {
		return err
	}

	model := statRecordToModel(record)
	query, args, err := sqlx.Named(upsertStatRecordQuery, model)
	if err != nil {
		return fmt.Errorf("build upsert stat record query: %w", err)
	}
	query = r.db.Rebind(query)

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("upsert stat record key=%s: %w", record.Key, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("upsert stat record rows affected: %w", err)
	}
	if affected == 0 {
		return statrecord.ErrConflict
	}

	return nil
}
