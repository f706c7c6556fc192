package postgres

import (
	"time"

	"github.com/mkowalczk/footsync/internal/domain/trackedplayer"
)

type trackedPlayerTableModel struct {
	ID                 string     `db:"id"`
	Name               string     `db:"name"`
	Tier               int        `db:"tier"`
	SportsIOID         *int64     `db:"sportsio_id"`
	HistScrapeSlug     *string    `db:"histscrape_slug"`
	SportsIOSyncedAt   *time.Time `db:"sportsio_synced_at"`
	HistScrapeSyncedAt *time.Time `db:"histscrape_synced_at"`
	LastSyncedAt       *time.Time `db:"last_synced_at"`
	LastSyncError      string     `db:"last_sync_error"`
	CreatedAt          time.Time  `db:"created_at"`
	UpdatedAt          time.Time  `db:"updated_at"`
}

var trackedPlayerSelectColumns = []string{
	"id",
	"name",
	"tier",
	"sportsio_id",
	"histscrape_slug",
	"sportsio_synced_at",
	"histscrape_synced_at",
	"last_synced_at",
	"last_sync_error",
	"created_at",
	"updated_at",
}

func (m trackedPlayerTableModel) toDomain() trackedplayer.Player {
	return trackedplayer.Player{
		ID:                 m.ID,
		Name:               m.Name,
		Tier:               trackedplayer.Tier(m.Tier),
		SportsIOID:         m.SportsIOID,
		HistScrapeSlug:     m.HistScrapeSlug,
		SportsIOSyncedAt:   m.SportsIOSyncedAt,
		HistScrapeSyncedAt: m.HistScrapeSyncedAt,
		LastSyncedAt:       m.LastSyncedAt,
		LastSyncError:      m.LastSyncError,
		CreatedAt:          m.CreatedAt,
		UpdatedAt:          m.UpdatedAt,
	}
}
