package provider

import (
	"context"
	"errors"

	"github.com/mkowalczk/footsync/internal/domain/statrecord"
	"github.com/mkowalczk/footsync/internal/domain/trackedplayer"
)

const (
	// NameSportsIO is the primary REST provider.
	NameSportsIO = "sportsio"
	// NameHistScrape is the legacy scrape-feed provider.
	NameHistScrape = "histscrape"
)

var (
	ErrNotFound    = errors.New("provider has no data for entity")
	ErrRateLimited = errors.New("provider rate limited")
	ErrTransient   = errors.New("provider transient failure")
	ErrMalformed   = errors.New("provider payload malformed")
)

// Record is one provider response row already normalized into the canonical
// metric schema. Metrics the provider does not supply stay nil.
type Record struct {
	Provider            string
	Season              int
	CompetitionCategory string
	CompetitionName     string
	Metrics             statrecord.Metrics
}

// Adapter is the capability interface over the closed set of provider
// variants. Adapters perform exactly one outbound attempt per call; retry
// and quota policy live with the caller so every attempt is accounted for.
type Adapter interface {
	Name() string

	// RefFor resolves the provider-side identifier for a player. ok is
	// false when the provider has not mapped the player; such players must
	// be skipped without any outbound call.
	RefFor(p trackedplayer.Player) (ref string, ok bool)

	// FetchPlayerSeason returns all competition rows the provider has for
	// the player and season. Errors are classified into the package
	// sentinels; anything else is treated as transient by callers.
	FetchPlayerSeason(ctx context.Context, ref string, season int) ([]Record, error)
}
