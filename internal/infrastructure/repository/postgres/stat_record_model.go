package postgres

import (
	"time"

	"github.com/mkowalczk/footsync/internal/domain/statrecord"
)

type statRecordTableModel struct {
	PlayerID            string `db:"player_id"`
	Season              int    `db:"season"`
	CompetitionCategory string `db:"competition_category"`
	CompetitionName     string `db:"competition_name"`

	Appearances   *int `db:"appearances"`
	MinutesPlayed *int `db:"minutes_played"`
	Goals         *int `db:"goals"`
	Assists       *int `db:"assists"`

	YellowCards *int `db:"yellow_cards"`
	RedCards    *int `db:"red_cards"`
	FoulsDrawn  *int `db:"fouls_drawn"`

	ExpectedGoals     *float64 `db:"expected_goals"`
	ExpectedAssists   *float64 `db:"expected_assists"`
	NonPenaltyXG      *float64 `db:"non_penalty_xg"`
	ProgressivePasses *int     `db:"progressive_passes"`

	Saves         *int `db:"saves"`
	CleanSheets   *int `db:"clean_sheets"`
	GoalsConceded *int `db:"goals_conceded"`

	OriginBasic      string `db:"origin_basic"`
	OriginDiscipline string `db:"origin_discipline"`
	OriginAdvanced   string `db:"origin_advanced"`
	OriginKeeper     string `db:"origin_keeper"`

	Version  int64     `db:"version"`
	SyncedAt time.Time `db:"synced_at"`
}

var statRecordSelectColumns = []string{
	"player_id",
	"season",
	"competition_category",
	"competition_name",
	"appearances",
	"minutes_played",
	"goals",
	"assists",
	"yellow_cards",
	"red_cards",
	"fouls_drawn",
	"expected_goals",
	"expected_assists",
	"non_penalty_xg",
	"progressive_passes",
	"saves",
	"clean_sheets",
	"goals_conceded",
	"origin_basic",
	"origin_discipline",
	"origin_advanced",
	"origin_keeper",
	"version",
	"synced_at",
}

func statRecordToModel(record statrecord.Record) statRecordTableModel {
	return statRecordTableModel{
		PlayerID:            record.Key.PlayerID,
		Season:              record.Key.Season,
		CompetitionCategory: record.Key.CompetitionCategory,
		CompetitionName:     record.Key.CompetitionName,
		Appearances:         record.Metrics.Appearances,
		MinutesPlayed:       record.Metrics.MinutesPlayed,
		Goals:               record.Metrics.Goals,
		Assists:             record.Metrics.Assists,
		YellowCards:         record.Metrics.YellowCards,
		RedCards:            record.Metrics.RedCards,
		FoulsDrawn:          record.Metrics.FoulsDrawn,
		ExpectedGoals:       record.Metrics.ExpectedGoals,
		ExpectedAssists:     record.Metrics.ExpectedAssists,
		NonPenaltyXG:        record.Metrics.NonPenaltyXG,
		ProgressivePasses:   record.Metrics.ProgressivePasses,
		Saves:               record.Metrics.Saves,
		CleanSheets:         record.Metrics.CleanSheets,
		GoalsConceded:       record.Metrics.GoalsConceded,
		OriginBasic:         record.Origins.Basic,
		OriginDiscipline:    record.Origins.Discipline,
		OriginAdvanced:      record.Origins.Advanced,
		OriginKeeper:        record.Origins.Keeper,
		Version:             record.Version,
		SyncedAt:            record.SyncedAt.UTC(),
	}
}

func (m statRecordTableModel) toDomain() statrecord.Record {
	return statrecord.Record{
		Key: statrecord.Key{
			PlayerID:            m.PlayerID,
			Season:              m.Season,
			CompetitionCategory: m.CompetitionCategory,
			CompetitionName:     m.CompetitionName,
		},
		Metrics: statrecord.Metrics{
			Appearances:       m.Appearances,
			MinutesPlayed:     m.MinutesPlayed,
			Goals:             m.Goals,
			Assists:           m.Assists,
			YellowCards:       m.YellowCards,
			RedCards:          m.RedCards,
			FoulsDrawn:        m.FoulsDrawn,
			ExpectedGoals:     m.ExpectedGoals,
			ExpectedAssists:   m.ExpectedAssists,
			NonPenaltyXG:      m.NonPenaltyXG,
			ProgressivePasses: m.ProgressivePasses,
			Saves:             m.Saves,
			CleanSheets:       m.CleanSheets,
			GoalsConceded:     m.GoalsConceded,
		},
		Origins: statrecord.Origins{
			Basic:      m.OriginBasic,
			Discipline: m.OriginDiscipline,
			Advanced:   m.OriginAdvanced,
			Keeper:     m.OriginKeeper,
		},
		Version:  m.Version,
		SyncedAt: m.SyncedAt,
	}
}
