package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sourcegraph/conc"

	"github.com/mkowalczk/footsync/internal/domain/batchreport"
	"github.com/mkowalczk/footsync/internal/domain/trackedplayer"
	"github.com/mkowalczk/footsync/internal/engine/schedule"
	"github.com/mkowalczk/footsync/internal/platform/logging"
)

const (
	StateIdle    = "idle"
	StateRunning = "running"
)

// BatchRunner executes one tier batch. Implemented by the sync service.
type BatchRunner interface {
	RunBatch(ctx context.Context, tier trackedplayer.Tier, players []trackedplayer.Player) (batchreport.Report, error)
}

// TierStatus is the observable state of one tier's schedule loop.
type TierStatus struct {
	Tier         trackedplayer.Tier `json:"tier"`
	State        string             `json:"state"`
	LastStarted  *time.Time         `json:"last_started,omitempty"`
	LastReportID string             `json:"last_report_id,omitempty"`
}

type Config struct {
	TickInterval time.Duration
}

// Scheduler evaluates the tier timetable on a fixed tick and hands due
// players to the batch runner. Due-ness is always recomputed from each
// player's persisted last-sync timestamp, so a window missed while the
// process was down is picked up on the first tick after restart.
type Scheduler struct {
	plan    schedule.Plan
	players trackedplayer.Repository
	runner  BatchRunner
	logger  *logging.Logger
	tick    time.Duration
	now     func() time.Time

	mu     sync.Mutex
	states map[trackedplayer.Tier]*TierStatus

	batches conc.WaitGroup
}

func New(plan schedule.Plan, players trackedplayer.Repository, runner BatchRunner, cfg Config, logger *logging.Logger) (*Scheduler, error) {
	if err := plan.Validate(); err != nil {
		return nil, fmt.Errorf("validate schedule plan: %w", err)
	}
	if players == nil || runner == nil {
		return nil, fmt.Errorf("player repository and batch runner are required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = time.Minute
	}

	states := make(map[trackedplayer.Tier]*TierStatus, len(trackedplayer.AllTiers))
	for _, tier := range trackedplayer.AllTiers {
		states[tier] = &TierStatus{Tier: tier, State: StateIdle}
	}

	return &Scheduler{
		plan:    plan,
		players: players,
		runner:  runner,
		logger:  logger,
		tick:    cfg.TickInterval,
		now:     time.Now,
		states:  states,
	}, nil
}

// Run blocks until ctx is cancelled, evaluating the timetable once per
// tick. In-flight batches are waited for before Run returns.
func (s *Scheduler) Run(ctx context.Context) error {
	s.logger.InfoContext(ctx, "sync scheduler started", "tick", s.tick.String())

	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	s.Tick(ctx)
	for {
		select {
		case <-ctx.Done():
			s.batches.Wait()
			s.logger.InfoContext(ctx, "sync scheduler stopped")
			return ctx.Err()
		case <-ticker.C:
			s.Tick(ctx)
		}
	}
}

// Tick runs one evaluation pass. Tiers whose previous batch is still in
// flight are left alone; due tiers start their batch concurrently.
func (s *Scheduler) Tick(ctx context.Context) {
	now := s.now()

	for _, tier := range trackedplayer.AllTiers {
		tier := tier

		if s.isRunning(tier) {
			continue
		}

		due, err := s.duePlayers(ctx, tier, now)
		if err != nil {
			s.logger.ErrorContext(ctx, "evaluate tier schedule failed", "tier", int(tier), "error", err)
			continue
		}
		if len(due) == 0 {
			continue
		}

		// Only Tick transitions a tier into running, and ticks are
		// sequential, so this cannot race with another start.
		s.markRunning(tier, now)
		s.logger.InfoContext(ctx, "tier batch due", "tier", int(tier), "players", len(due))
		s.batches.Go(func() {
			report, err := s.runner.RunBatch(ctx, tier, due)
			if err != nil {
				s.markIdle(tier, "")
				s.logger.ErrorContext(ctx, "tier batch failed", "tier", int(tier), "error", err)
				return
			}
			s.markIdle(tier, report.ID)
		})
	}
}

func (s *Scheduler) duePlayers(ctx context.Context, tier trackedplayer.Tier, now time.Time) ([]trackedplayer.Player, error) {
	players, err := s.players.ListByTier(ctx, tier)
	if err != nil {
		return nil, fmt.Errorf("list tier %d players: %w", tier, err)
	}

	due := make([]trackedplayer.Player, 0, len(players))
	for _, p := range players {
		isDue, err := s.plan.DueAt(tier, p.LastSyncedAt, now)
		if err != nil {
			return nil, fmt.Errorf("compute due for player id=%s: %w", p.ID, err)
		}
		if isDue {
			due = append(due, p)
		}
	}

	return due, nil
}

func (s *Scheduler) isRunning(tier trackedplayer.Tier) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.states[tier].State == StateRunning
}

func (s *Scheduler) markRunning(tier trackedplayer.Tier, now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := s.states[tier]
	state.State = StateRunning
	started := now
	state.LastStarted = &started
}

func (s *Scheduler) markIdle(tier trackedplayer.Tier, reportID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := s.states[tier]
	state.State = StateIdle
	if reportID != "" {
		state.LastReportID = reportID
	}
}

// NextDue reports when a player of this tier next comes up for a batch
// sync. A player that never synced is due immediately.
func (s *Scheduler) NextDue(tier trackedplayer.Tier, lastSync *time.Time) (time.Time, error) {
	if lastSync == nil {
		return s.now().UTC(), nil
	}
	return s.plan.NextDue(tier, *lastSync)
}

// TierStatuses reports the loop state per tier, ordered by tier.
func (s *Scheduler) TierStatuses() []TierStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]TierStatus, 0, len(trackedplayer.AllTiers))
	for _, tier := range trackedplayer.AllTiers {
		out = append(out, *s.states[tier])
	}
	return out
}
