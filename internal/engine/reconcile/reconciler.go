package reconcile

import (
	"fmt"
	"sort"

	"github.com/mkowalczk/footsync/internal/domain/statrecord"
	"github.com/mkowalczk/footsync/internal/provider"
)

// Precedence orders providers per metric group; the first listed provider
// wins when both supply a value in the same sync cycle.
type Precedence map[statrecord.MetricGroup][]string

// DefaultPrecedence encodes the operational rule: the primary provider is
// authoritative for the counting-style groups it serves directly, while
// advanced derived metrics always come from the historical scrape feed.
func DefaultPrecedence() Precedence {
	return Precedence{
		statrecord.GroupBasic:      {provider.NameSportsIO, provider.NameHistScrape},
		statrecord.GroupDiscipline: {provider.NameSportsIO, provider.NameHistScrape},
		statrecord.GroupKeeper:     {provider.NameSportsIO, provider.NameHistScrape},
		statrecord.GroupAdvanced:   {provider.NameHistScrape, provider.NameSportsIO},
	}
}

func (p Precedence) Validate() error {
	for _, group := range statrecord.AllMetricGroups {
		if len(p[group]) == 0 {
			return fmt.Errorf("metric group %q has no provider precedence", group)
		}
	}
	return nil
}

func (p Precedence) rank(group statrecord.MetricGroup, providerName string) int {
	for i, name := range p[group] {
		if name == providerName {
			return i
		}
	}
	return len(p[group])
}

// Reconciler folds provider records for the same canonical key into one
// row. Absence never overwrites presence: a metric the incoming cycle did
// not supply keeps whatever value an earlier cycle stored.
type Reconciler struct {
	precedence Precedence
}

func New(precedence Precedence) (*Reconciler, error) {
	if err := precedence.Validate(); err != nil {
		return nil, err
	}
	return &Reconciler{precedence: precedence}, nil
}

// Merge applies one sync cycle's records onto the existing canonical row.
// existing may be nil for a first sync. All incoming records must share
// the canonical key.
func (r *Reconciler) Merge(existing *statrecord.Record, key statrecord.Key, incoming []provider.Record) (statrecord.Record, error) {
	if err := key.Validate(); err != nil {
		return statrecord.Record{}, err
	}

	merged := statrecord.Record{Key: key}
	if existing != nil {
		if existing.Key != key {
			return statrecord.Record{}, fmt.Errorf("existing record key %s does not match merge key %s", existing.Key, key)
		}
		merged = *existing
	}

	for _, group := range statrecord.AllMetricGroups {
		// Order this cycle's records by the group's precedence; earlier
		// records win field conflicts, later ones only fill gaps.
		ranked := make([]provider.Record, 0, len(incoming))
		for _, rec := range incoming {
			if rec.Metrics.GroupPresent(group) {
				ranked = append(ranked, rec)
			}
		}
		if len(ranked) == 0 {
			continue
		}
		sort.SliceStable(ranked, func(i, j int) bool {
			return r.rank(group, ranked[i].Provider) < r.rank(group, ranked[j].Provider)
		})

		applyGroup(&merged.Metrics, group, ranked)
		merged.Origins.Set(group, ranked[0].Provider)
	}

	return merged, nil
}

func (r *Reconciler) rank(group statrecord.MetricGroup, providerName string) int {
	return r.precedence.rank(group, providerName)
}

func applyGroup(target *statrecord.Metrics, group statrecord.MetricGroup, ranked []provider.Record) {
	switch group {
	case statrecord.GroupBasic:
		target.Appearances = pickInt(ranked, func(m statrecord.Metrics) *int { return m.Appearances }, target.Appearances)
		target.MinutesPlayed = pickInt(ranked, func(m statrecord.Metrics) *int { return m.MinutesPlayed }, target.MinutesPlayed)
		target.Goals = pickInt(ranked, func(m statrecord.Metrics) *int { return m.Goals }, target.Goals)
		target.Assists = pickInt(ranked, func(m statrecord.Metrics) *int { return m.Assists }, target.Assists)
	case statrecord.GroupDiscipline:
		target.YellowCards = pickInt(ranked, func(m statrecord.Metrics) *int { return m.YellowCards }, target.YellowCards)
		target.RedCards = pickInt(ranked, func(m statrecord.Metrics) *int { return m.RedCards }, target.RedCards)
		target.FoulsDrawn = pickInt(ranked, func(m statrecord.Metrics) *int { return m.FoulsDrawn }, target.FoulsDrawn)
	case statrecord.GroupAdvanced:
		target.ExpectedGoals = pickFloat(ranked, func(m statrecord.Metrics) *float64 { return m.ExpectedGoals }, target.ExpectedGoals)
		target.ExpectedAssists = pickFloat(ranked, func(m statrecord.Metrics) *float64 { return m.ExpectedAssists }, target.ExpectedAssists)
		target.NonPenaltyXG = pickFloat(ranked, func(m statrecord.Metrics) *float64 { return m.NonPenaltyXG }, target.NonPenaltyXG)
		target.ProgressivePasses = pickInt(ranked, func(m statrecord.Metrics) *int { return m.ProgressivePasses }, target.ProgressivePasses)
	case statrecord.GroupKeeper:
		target.Saves = pickInt(ranked, func(m statrecord.Metrics) *int { return m.Saves }, target.Saves)
		target.CleanSheets = pickInt(ranked, func(m statrecord.Metrics) *int { return m.CleanSheets }, target.CleanSheets)
		target.GoalsConceded = pickInt(ranked, func(m statrecord.Metrics) *int { return m.GoalsConceded }, target.GoalsConceded)
	}
}

func pickInt(ranked []provider.Record, field func(statrecord.Metrics) *int, fallback *int) *int {
	for _, rec := range ranked {
		if v := field(rec.Metrics); v != nil {
			out := *v
			return &out
		}
	}
	return fallback
}

func pickFloat(ranked []provider.Record, field func(statrecord.Metrics) *float64, fallback *float64) *float64 {
	for _, rec := range ranked {
		if v := field(rec.Metrics); v != nil {
			out := *v
			return &out
		}
	}
	return fallback
}
