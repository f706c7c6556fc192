package trackedplayer

import (
	"fmt"
	"time"
)

// Tier is the sync-priority class of a tracked player. Lower values sync
// more frequently.
type Tier int

const (
	TierOne   Tier = 1
	TierTwo   Tier = 2
	TierThree Tier = 3
)

var AllTiers = []Tier{TierOne, TierTwo, TierThree}

func (t Tier) Valid() bool {
	return t >= TierOne && t <= TierThree
}

// Player is an athlete whose statistics the engine keeps fresh.
//
// Provider identifiers are nullable: a nil identifier means the provider has
// not mapped this player yet, and syncs against that provider are skipped
// without consuming quota.
type Player struct {
	ID             string
	Name           string
	Tier           Tier
	SportsIOID     *int64
	HistScrapeSlug *string

	SportsIOSyncedAt   *time.Time
	HistScrapeSyncedAt *time.Time

	LastSyncedAt  *time.Time
	LastSyncError string

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (p Player) Validate() error {
	if p.ID == "" {
		return fmt.Errorf("player id is required")
	}
	if p.Name == "" {
		return fmt.Errorf("player name is required")
	}
	if !p.Tier.Valid() {
		return fmt.Errorf("invalid player tier: %d", p.Tier)
	}
	if p.SportsIOID != nil && *p.SportsIOID <= 0 {
		return fmt.Errorf("sportsio id must be > 0")
	}
	if p.HistScrapeSlug != nil && *p.HistScrapeSlug == "" {
		return fmt.Errorf("histscrape slug cannot be empty")
	}

	return nil
}

// SyncOutcome is the per-provider result recorded after a sync attempt.
type SyncOutcome struct {
	PlayerID   string
	Provider   string
	SyncedAt   time.Time
	LastError  string
	Successful bool
}
