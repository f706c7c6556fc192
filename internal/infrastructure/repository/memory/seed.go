package memory

import "github.com/mkowalczk/footsync/internal/domain/trackedplayer"

// SeedTrackedPlayers returns a small development roster so the engine has
// something to sync when no database is configured.
func SeedTrackedPlayers() []trackedplayer.Player {
	return []trackedplayer.Player{
		{ID: "tp-haaland", Name: "Erling Haaland", Tier: trackedplayer.TierOne, SportsIOID: ptrInt64(881), HistScrapeSlug: ptrString("erling-haaland")},
		{ID: "tp-saka", Name: "Bukayo Saka", Tier: trackedplayer.TierOne, SportsIOID: ptrInt64(1024), HistScrapeSlug: ptrString("bukayo-saka")},
		{ID: "tp-raya", Name: "David Raya", Tier: trackedplayer.TierTwo, SportsIOID: ptrInt64(977)},
		{ID: "tp-mainoo", Name: "Kobbie Mainoo", Tier: trackedplayer.TierThree, HistScrapeSlug: ptrString("kobbie-mainoo")},
	}
}

func ptrInt64(v int64) *int64 {
	return &v
}

func ptrString(v string) *string {
	return &v
}
