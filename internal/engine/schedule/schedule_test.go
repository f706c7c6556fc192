package schedule

import (
	"testing"
	"time"

	"github.com/mkowalczk/footsync/internal/domain/trackedplayer"
)

func TestNextDue_ThursdayRollsToSunday(t *testing.T) {
	t.Parallel()

	loc, err := time.LoadLocation("Europe/Warsaw")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}
	plan := Default(loc)

	// 2026-08-20 is a Thursday. A tier-one sync that completed at the
	// Thursday 23:00 trigger must next come due the following Sunday 23:00.
	lastSync := time.Date(2026, time.August, 20, 23, 0, 0, 0, loc)
	next, err := plan.NextDue(trackedplayer.TierOne, lastSync)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := time.Date(2026, time.August, 23, 23, 0, 0, 0, loc)
	if !next.Equal(want) {
		t.Fatalf("expected next due %s, got %s", want, next)
	}
}

func TestNextDue_SundayRollsToThursday(t *testing.T) {
	t.Parallel()

	plan := Default(time.UTC)

	// 2026-08-23 is a Sunday.
	lastSync := time.Date(2026, time.August, 23, 23, 0, 0, 0, time.UTC)
	next, err := plan.NextDue(trackedplayer.TierOne, lastSync)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := time.Date(2026, time.August, 27, 23, 0, 0, 0, time.UTC)
	if !next.Equal(want) {
		t.Fatalf("expected next due %s, got %s", want, next)
	}
}

func TestNextDue_MinIntervalStretchesWeeklyTrigger(t *testing.T) {
	t.Parallel()

	plan := Default(time.UTC)

	lastSync := time.Date(2026, time.August, 2, 23, 0, 0, 0, time.UTC)
	next, err := plan.NextDue(trackedplayer.TierThree, lastSync)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// The 27-day floor lands on Sat Aug 29; the first Sunday trigger after
	// that is Aug 30.
	want := time.Date(2026, time.August, 30, 23, 0, 0, 0, time.UTC)
	if !next.Equal(want) {
		t.Fatalf("expected next due %s, got %s", want, next)
	}
}

func TestDueAt(t *testing.T) {
	t.Parallel()

	plan := Default(time.UTC)
	now := time.Date(2026, time.August, 24, 12, 0, 0, 0, time.UTC)

	due, err := plan.DueAt(trackedplayer.TierOne, nil, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !due {
		t.Fatal("a never-synced player must be due")
	}

	justSynced := now.Add(-time.Hour)
	due, err = plan.DueAt(trackedplayer.TierOne, &justSynced, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if due {
		t.Fatal("a freshly synced player must not be due before its next trigger")
	}

	// A player that missed its window while the process was down is
	// overdue as soon as the schedule is evaluated again.
	staleSync := now.Add(-14 * 24 * time.Hour)
	due, err = plan.DueAt(trackedplayer.TierOne, &staleSync, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !due {
		t.Fatal("a player past its trigger must be due")
	}
}

func TestValidate_FrequencySupersetInvariant(t *testing.T) {
	t.Parallel()

	plan := Default(time.UTC)
	if err := plan.Validate(); err != nil {
		t.Fatalf("default plan must validate: %v", err)
	}

	// Tier two firing more often than tier one inverts the priority order.
	broken := Default(time.UTC)
	broken.Tiers[trackedplayer.TierTwo] = TierPlan{
		Triggers: []Trigger{
			{Weekday: time.Monday, Hour: 9},
			{Weekday: time.Wednesday, Hour: 9},
			{Weekday: time.Friday, Hour: 9},
		},
	}
	if err := broken.Validate(); err == nil {
		t.Fatal("expected frequency-superset violation")
	}

	missing := Default(time.UTC)
	delete(missing.Tiers, trackedplayer.TierThree)
	if err := missing.Validate(); err == nil {
		t.Fatal("expected error for tier without triggers")
	}
}

func TestParseTriggers(t *testing.T) {
	t.Parallel()

	triggers, err := ParseTriggers("thu 23:00, sun 23:30")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(triggers) != 2 {
		t.Fatalf("expected 2 triggers, got=%d", len(triggers))
	}
	if triggers[0].Weekday != time.Thursday || triggers[0].Hour != 23 || triggers[0].Minute != 0 {
		t.Fatalf("unexpected first trigger: %+v", triggers[0])
	}
	if triggers[1].Weekday != time.Sunday || triggers[1].Minute != 30 {
		t.Fatalf("unexpected second trigger: %+v", triggers[1])
	}

	for _, raw := range []string{"", "someday 23:00", "thu 25:00", "thu 23:61", "thu"} {
		if _, err := ParseTriggers(raw); err == nil {
			t.Fatalf("expected parse error for %q", raw)
		}
	}
}
