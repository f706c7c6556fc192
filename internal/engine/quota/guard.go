package quota

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/mkowalczk/footsync/internal/domain/usage"
	"github.com/mkowalczk/footsync/internal/notify"
	"github.com/mkowalczk/footsync/internal/platform/logging"
)

// ErrMonthlyQuotaExhausted rejects a fetch once the month counter is at
// the hard ceiling. Fatal for the attempt, never for the batch.
var ErrMonthlyQuotaExhausted = errors.New("monthly quota exhausted")

var alertThresholdPcts = []int64{80, 90}

// Reservation is the outcome of one Allowed decision.
type Reservation struct {
	MonthUsed         int64
	DayUsed           int64
	SoftDailyExceeded bool
}

type Config struct {
	MonthlyCeiling int64
	SoftDailyLimit int64
}

// Guard charges every outbound provider request against the monthly usage
// counter before the request is made. The increment rides on the decision
// itself, so concurrent callers cannot overrun the ceiling.
type Guard struct {
	repo     usage.Repository
	ceiling  int64
	softDay  int64
	notifier notify.Notifier
	logger   *logging.Logger
	now      func() time.Time

	mu      sync.Mutex
	alerted map[string]map[int64]bool
}

func NewGuard(cfg Config, repo usage.Repository, notifier notify.Notifier, logger *logging.Logger) *Guard {
	if notifier == nil {
		notifier = notify.NopNotifier{}
	}
	if logger == nil {
		logger = logging.Default()
	}

	return &Guard{
		repo:     repo,
		ceiling:  cfg.MonthlyCeiling,
		softDay:  cfg.SoftDailyLimit,
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
		alerted:  make(map[string]map[int64]bool),
	}
}

// TryReserve atomically consumes one unit of monthly quota. The unit is
// charged on the attempt: callers must invoke TryReserve once per outbound
// request, including retries, regardless of whether the request later
// succeeds.
func (g *Guard) TryReserve(ctx context.Context) (Reservation, error) {
	now := g.now().UTC()
	month := usage.MonthKey(now)
	day := usage.DayKey(now)

	stamp, err := g.repo.TryIncrement(ctx, month, day, g.ceiling)
	if err != nil {
		if errors.Is(err, usage.ErrCeilingReached) {
			g.notifyExhausted(ctx, month)
			return Reservation{}, fmt.Errorf("%w: month=%s ceiling=%d", ErrMonthlyQuotaExhausted, month, g.ceiling)
		}
		return Reservation{}, fmt.Errorf("increment usage counter: %w", err)
	}

	reservation := Reservation{
		MonthUsed:         stamp.MonthUsed,
		DayUsed:           stamp.DayUsed,
		SoftDailyExceeded: g.softDay > 0 && stamp.DayUsed > g.softDay,
	}
	if reservation.SoftDailyExceeded {
		g.logger.WarnContext(ctx, "soft daily quota exceeded",
			"day", day,
			"day_used", stamp.DayUsed,
			"soft_limit", g.softDay,
		)
	}

	g.raiseThresholdAlerts(ctx, month, stamp.MonthUsed)

	return reservation, nil
}

// CurrentUsage returns the month counter for status endpoints.
func (g *Guard) CurrentUsage(ctx context.Context) (usage.Counter, error) {
	month := usage.MonthKey(g.now().UTC())
	counter, err := g.repo.CurrentMonth(ctx, month)
	if err != nil {
		return usage.Counter{}, fmt.Errorf("read usage counter: %w", err)
	}
	return counter, nil
}

func (g *Guard) MonthlyCeiling() int64 {
	return g.ceiling
}

// raiseThresholdAlerts fires the 80% and 90% advisories exactly once per
// threshold per month. The latch is in-memory; after a restart a threshold
// already crossed fires once more on the next reservation.
func (g *Guard) raiseThresholdAlerts(ctx context.Context, month string, monthUsed int64) {
	if g.ceiling <= 0 {
		return
	}

	var due []int64
	g.mu.Lock()
	fired := g.alerted[month]
	if fired == nil {
		fired = make(map[int64]bool)
		g.alerted[month] = fired
		for past := range g.alerted {
			if past != month {
				delete(g.alerted, past)
			}
		}
	}
	for _, pct := range alertThresholdPcts {
		if fired[pct] {
			continue
		}
		if monthUsed*100 >= g.ceiling*pct {
			fired[pct] = true
			due = append(due, pct)
		}
	}
	g.mu.Unlock()

	for _, pct := range due {
		g.logger.WarnContext(ctx, "monthly quota threshold crossed",
			"month", month,
			"threshold_pct", pct,
			"month_used", monthUsed,
			"ceiling", g.ceiling,
		)
		event := notify.Event{
			Type:    notify.EventQuotaThreshold,
			Message: fmt.Sprintf("monthly quota at %d%% (%d of %d)", pct, monthUsed, g.ceiling),
			Fields: map[string]any{
				"month":         month,
				"threshold_pct": pct,
				"month_used":    monthUsed,
				"ceiling":       g.ceiling,
			},
		}
		if err := g.notifier.Notify(ctx, event); err != nil {
			g.logger.WarnContext(ctx, "quota threshold notification failed", "error", err)
		}
	}
}

func (g *Guard) notifyExhausted(ctx context.Context, month string) {
	g.mu.Lock()
	fired := g.alerted[month]
	if fired == nil {
		fired = make(map[int64]bool)
		g.alerted[month] = fired
	}
	already := fired[100]
	fired[100] = true
	g.mu.Unlock()

	if already {
		return
	}

	event := notify.Event{
		Type:    notify.EventQuotaExhausted,
		Message: fmt.Sprintf("monthly quota exhausted for %s (ceiling=%d)", month, g.ceiling),
		Fields: map[string]any{
			"month":   month,
			"ceiling": g.ceiling,
		},
	}
	if err := g.notifier.Notify(ctx, event); err != nil {
		g.logger.WarnContext(ctx, "quota exhausted notification failed", "error", err)
	}
}
