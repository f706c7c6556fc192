package postgres

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mkowalczk/footsync/internal/domain/statrecord"
)

func TestStatRecordModelRoundTrip(t *testing.T) {
	t.Parallel()

	goals := 12
	xg := 9.7
	syncedAt := time.Date(2026, 5, 10, 21, 0, 0, 0, time.UTC)

	record := statrecord.Record{
		Key: statrecord.Key{
			PlayerID:            "tp-haaland",
			Season:              2026,
			CompetitionCategory: "league",
			CompetitionName:     "Premier League",
		},
		Metrics: statrecord.Metrics{
			Goals:         &goals,
			ExpectedGoals: &xg,
		},
		Origins: statrecord.Origins{
			Basic:    "sportsio",
			Advanced: "histscrape",
		},
		Version:  3,
		SyncedAt: syncedAt,
	}

	model := statRecordToModel(record)
	require.Equal(t, "tp-haaland", model.PlayerID)
	require.Equal(t, int64(3), model.Version)
	require.Nil(t, model.Assists)
	require.NotNil(t, model.Goals)

	back := model.toDomain()
	require.Equal(t, record, back)
}

func TestStatRecordModelPreservesNilMetrics(t *testing.T) {
	t.Parallel()

	record := statrecord.Record{
		Key: statrecord.Key{
			PlayerID:            "tp-raya",
			Season:              2026,
			CompetitionCategory: "cup",
			CompetitionName:     "FA Cup",
		},
		SyncedAt: time.Now().UTC(),
	}

	model := statRecordToModel(record)
	back := model.toDomain()

	require.Nil(t, back.Metrics.Goals)
	require.Nil(t, back.Metrics.Saves)
	require.False(t, back.Metrics.GroupPresent(statrecord.GroupBasic))
	require.False(t, back.Metrics.GroupPresent(statrecord.GroupKeeper))
}
