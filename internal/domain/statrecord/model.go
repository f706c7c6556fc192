package statrecord

import (
	"fmt"
	"time"
)

// MetricGroup names a cluster of metrics that is always sourced from a
// single provider during reconciliation.
type MetricGroup string

const (
	GroupBasic      MetricGroup = "basic"
	GroupDiscipline MetricGroup = "discipline"
	GroupAdvanced   MetricGroup = "advanced"
	GroupKeeper     MetricGroup = "keeper"
)

var AllMetricGroups = []MetricGroup{GroupBasic, GroupDiscipline, GroupAdvanced, GroupKeeper}

// Metrics holds the canonical metric schema. Every field is a pointer:
// nil means the metric was never supplied by any provider, which is
// distinct from a provider reporting zero.
type Metrics struct {
	Appearances   *int
	MinutesPlayed *int
	Goals         *int
	Assists       *int

	YellowCards *int
	RedCards    *int
	FoulsDrawn  *int

	ExpectedGoals     *float64
	ExpectedAssists   *float64
	NonPenaltyXG      *float64
	ProgressivePasses *int

	Saves         *int
	CleanSheets   *int
	GoalsConceded *int
}

// GroupPresent reports whether any metric of the group carries a value.
func (m Metrics) GroupPresent(group MetricGroup) bool {
	switch group {
	case GroupBasic:
		return m.Appearances != nil || m.MinutesPlayed != nil || m.Goals != nil || m.Assists != nil
	case GroupDiscipline:
		return m.YellowCards != nil || m.RedCards != nil || m.FoulsDrawn != nil
	case GroupAdvanced:
		return m.ExpectedGoals != nil || m.ExpectedAssists != nil || m.NonPenaltyXG != nil || m.ProgressivePasses != nil
	case GroupKeeper:
		return m.Saves != nil || m.CleanSheets != nil || m.GoalsConceded != nil
	default:
		return false
	}
}

// Origins records which provider most recently supplied each metric group.
type Origins struct {
	Basic      string
	Discipline string
	Advanced   string
	Keeper     string
}

func (o Origins) For(group MetricGroup) string {
	switch group {
	case GroupBasic:
		return o.Basic
	case GroupDiscipline:
		return o.Discipline
	case GroupAdvanced:
		return o.Advanced
	case GroupKeeper:
		return o.Keeper
	default:
		return ""
	}
}

func (o *Origins) Set(group MetricGroup, provider string) {
	switch group {
	case GroupBasic:
		o.Basic = provider
	case GroupDiscipline:
		o.Discipline = provider
	case GroupAdvanced:
		o.Advanced = provider
	case GroupKeeper:
		o.Keeper = provider
	}
}

// Key identifies one canonical row. The quadruple is unique in storage;
// re-syncs upsert against it and never create duplicates.
type Key struct {
	PlayerID            string
	Season              int
	CompetitionCategory string
	CompetitionName     string
}

func (k Key) Validate() error {
	if k.PlayerID == "" {
		return fmt.Errorf("record player id is required")
	}
	if k.Season < 1900 {
		return fmt.Errorf("invalid record season: %d", k.Season)
	}
	if k.CompetitionCategory == "" {
		return fmt.Errorf("record competition category is required")
	}
	if k.CompetitionName == "" {
		return fmt.Errorf("record competition name is required")
	}

	return nil
}

func (k Key) String() string {
	return fmt.Sprintf("%s/%d/%s/%s", k.PlayerID, k.Season, k.CompetitionCategory, k.CompetitionName)
}

// Record is the reconciled statistics row for one player, season, and
// competition, independent of the originating provider.
type Record struct {
	Key     Key
	Metrics Metrics
	Origins Origins

	// Version implements optimistic concurrency: an upsert carrying a
	// stale version fails with ErrConflict.
	Version  int64
	SyncedAt time.Time
}
