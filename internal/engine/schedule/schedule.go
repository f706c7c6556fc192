package schedule

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/mkowalczk/footsync/internal/domain/trackedplayer"
)

// Trigger is one weekly wall-clock firing point, evaluated in the plan's
// timezone.
type Trigger struct {
	Weekday time.Weekday
	Hour    int
	Minute  int
}

func (t Trigger) String() string {
	return fmt.Sprintf("%s %02d:%02d", strings.ToLower(t.Weekday.String()[:3]), t.Hour, t.Minute)
}

// TierPlan is the declarative timetable for one priority tier. MinInterval
// optionally stretches the effective cadence beyond the weekly trigger
// grid (e.g. a monthly tier keeps one weekly trigger but a 27-day floor).
type TierPlan struct {
	Triggers    []Trigger
	MinInterval time.Duration
}

// Plan maps every tier to its timetable.
type Plan struct {
	Location *time.Location
	Tiers    map[trackedplayer.Tier]TierPlan
}

// Default is the production timetable: tier one twice a week, tier two
// weekly, tier three weekly with a monthly floor.
func Default(loc *time.Location) Plan {
	if loc == nil {
		loc = time.UTC
	}
	return Plan{
		Location: loc,
		Tiers: map[trackedplayer.Tier]TierPlan{
			trackedplayer.TierOne: {
				Triggers: []Trigger{
					{Weekday: time.Thursday, Hour: 23},
					{Weekday: time.Sunday, Hour: 23},
				},
			},
			trackedplayer.TierTwo: {
				Triggers: []Trigger{{Weekday: time.Sunday, Hour: 23}},
			},
			trackedplayer.TierThree: {
				Triggers:    []Trigger{{Weekday: time.Sunday, Hour: 23}},
				MinInterval: 27 * 24 * time.Hour,
			},
		},
	}
}

// Validate checks the frequency-superset invariant: a higher-priority
// (lower) tier must fire at least as often as every tier below it.
func (p Plan) Validate() error {
	if p.Location == nil {
		return fmt.Errorf("schedule location is required")
	}

	var prevTier trackedplayer.Tier
	var prevCount int
	var prevInterval time.Duration
	for i, tier := range trackedplayer.AllTiers {
		plan, ok := p.Tiers[tier]
		if !ok || len(plan.Triggers) == 0 {
			return fmt.Errorf("tier %d has no triggers", tier)
		}
		for _, trigger := range plan.Triggers {
			if trigger.Hour < 0 || trigger.Hour > 23 || trigger.Minute < 0 || trigger.Minute > 59 {
				return fmt.Errorf("tier %d trigger %q is out of range", tier, trigger)
			}
		}
		if plan.MinInterval < 0 {
			return fmt.Errorf("tier %d min interval cannot be negative", tier)
		}
		if i > 0 {
			if len(plan.Triggers) > prevCount {
				return fmt.Errorf("tier %d fires more often than tier %d", tier, prevTier)
			}
			if plan.MinInterval < prevInterval {
				return fmt.Errorf("tier %d min interval is shorter than tier %d", tier, prevTier)
			}
		}
		prevTier, prevCount, prevInterval = tier, len(plan.Triggers), plan.MinInterval
	}

	return nil
}

// NextDue computes the next trigger instant strictly after lastSync.
// Computing from the persisted last-successful-sync timestamp keeps the
// schedule restart-safe: a missed wall-clock window shows up as overdue
// on the next evaluation instead of being forgotten.
func (p Plan) NextDue(tier trackedplayer.Tier, lastSync time.Time) (time.Time, error) {
	plan, ok := p.Tiers[tier]
	if !ok || len(plan.Triggers) == 0 {
		return time.Time{}, fmt.Errorf("tier %d has no triggers", tier)
	}

	floor := lastSync
	if plan.MinInterval > 0 {
		floor = lastSync.Add(plan.MinInterval)
	}

	var next time.Time
	for _, trigger := range plan.Triggers {
		candidate := nextOccurrence(trigger, floor, p.Location)
		if next.IsZero() || candidate.Before(next) {
			next = candidate
		}
	}

	return next, nil
}

// DueAt reports whether a player last synced at lastSync is due at now.
// A player that never synced is always due.
func (p Plan) DueAt(tier trackedplayer.Tier, lastSync *time.Time, now time.Time) (bool, error) {
	if lastSync == nil {
		return true, nil
	}
	next, err := p.NextDue(tier, *lastSync)
	if err != nil {
		return false, err
	}
	return !next.After(now), nil
}

// nextOccurrence returns the first instant matching the trigger strictly
// after t, in loc.
func nextOccurrence(trigger Trigger, t time.Time, loc *time.Location) time.Time {
	local := t.In(loc)
	candidate := time.Date(local.Year(), local.Month(), local.Day(), trigger.Hour, trigger.Minute, 0, 0, loc)
	daysAhead := (int(trigger.Weekday) - int(local.Weekday()) + 7) % 7
	candidate = candidate.AddDate(0, 0, daysAhead)
	if !candidate.After(local) {
		candidate = candidate.AddDate(0, 0, 7)
	}
	return candidate
}

// ParseTriggers parses a comma-separated trigger list such as
// "thu 23:00,sun 23:00".
func ParseTriggers(raw string) ([]Trigger, error) {
	parts := strings.Split(raw, ",")
	out := make([]Trigger, 0, len(parts))
	for _, part := range parts {
		item := strings.TrimSpace(part)
		if item == "" {
			continue
		}

		fields := strings.Fields(item)
		if len(fields) != 2 {
			return nil, fmt.Errorf("invalid trigger %q, expected \"<weekday> HH:MM\"", item)
		}

		weekday, err := parseWeekday(fields[0])
		if err != nil {
			return nil, fmt.Errorf("invalid trigger %q: %w", item, err)
		}

		clock := strings.SplitN(fields[1], ":", 2)
		if len(clock) != 2 {
			return nil, fmt.Errorf("invalid trigger time in %q", item)
		}
		hour, err := strconv.Atoi(clock[0])
		if err != nil || hour < 0 || hour > 23 {
			return nil, fmt.Errorf("invalid trigger hour in %q", item)
		}
		minute, err := strconv.Atoi(clock[1])
		if err != nil || minute < 0 || minute > 59 {
			return nil, fmt.Errorf("invalid trigger minute in %q", item)
		}

		out = append(out, Trigger{Weekday: weekday, Hour: hour, Minute: minute})
	}

	if len(out) == 0 {
		return nil, fmt.Errorf("trigger list is empty")
	}

	return out, nil
}

func parseWeekday(raw string) (time.Weekday, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "sun", "sunday":
		return time.Sunday, nil
	case "mon", "monday":
		return time.Monday, nil
	case "tue", "tuesday":
		return time.Tuesday, nil
	case "wed", "wednesday":
		return time.Wednesday, nil
	case "thu", "thursday":
		return time.Thursday, nil
	case "fri", "friday":
		return time.Friday, nil
	case "sat", "saturday":
		return time.Saturday, nil
	default:
		return 0, fmt.Errorf("unknown weekday %q", raw)
	}
}
