package batchreport

import (
	"fmt"
	"time"

	"github.com/mkowalczk/footsync/internal/domain/trackedplayer"
)

// Failure captures one player that could not be synced during a batch.
type Failure struct {
	PlayerID string
	Reason   string
}

// Report is the aggregate outcome of one tier batch. A failed player never
// aborts its batch; it shows up here instead.
type Report struct {
	ID         string
	Tier       trackedplayer.Tier
	StartedAt  time.Time
	FinishedAt time.Time
	Attempted  int
	Succeeded  int
	Failed     int
	Failures   []Failure
}

func (r Report) Validate() error {
	if r.ID == "" {
		return fmt.Errorf("report id is required")
	}
	if !r.Tier.Valid() {
		return fmt.Errorf("invalid report tier: %d", r.Tier)
	}
	if r.Attempted < 0 || r.Succeeded < 0 || r.Failed < 0 {
		return fmt.Errorf("report counts cannot be negative")
	}
	if r.Succeeded+r.Failed > r.Attempted {
		return fmt.Errorf("report counts exceed attempted total")
	}

	return nil
}
