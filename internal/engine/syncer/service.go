package syncer

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/mkowalczk/footsync/internal/domain/batchreport"
	"github.com/mkowalczk/footsync/internal/domain/statrecord"
	"github.com/mkowalczk/footsync/internal/domain/trackedplayer"
	"github.com/mkowalczk/footsync/internal/engine/cache"
	"github.com/mkowalczk/footsync/internal/engine/quota"
	"github.com/mkowalczk/footsync/internal/engine/reconcile"
	"github.com/mkowalczk/footsync/internal/notify"
	"github.com/mkowalczk/footsync/internal/platform/id"
	"github.com/mkowalczk/footsync/internal/platform/logging"
	"github.com/mkowalczk/footsync/internal/provider"
)

const (
	ProviderStatusSynced  = "synced"
	ProviderStatusCached  = "cached"
	ProviderStatusSkipped = "skipped"
	ProviderStatusNoData  = "no_data"
	ProviderStatusFailed  = "failed"
)

type Config struct {
	Season       int
	MaxWorkers   int
	MaxAttempts  int
	RetryBackoff time.Duration
}

// ProviderResult is the per-provider outcome of one player sync.
type ProviderResult struct {
	Provider string `json:"provider"`
	Status   string `json:"status"`
	Attempts int    `json:"attempts"`
	Rows     int    `json:"rows"`
	Message  string `json:"message,omitempty"`
}

// PlayerSyncResult is the outcome of one whole-player sync pass.
type PlayerSyncResult struct {
	PlayerID        string           `json:"player_id"`
	Season          int              `json:"season"`
	Providers       []ProviderResult `json:"providers"`
	RecordsUpserted int              `json:"records_upserted"`
	Synced          bool             `json:"synced"`
}

// Service drives the fetch-reconcile-store pipeline. Retry and quota
// policy live here, above the adapters: every outbound attempt, including
// retries, reserves one unit of monthly quota first.
type Service struct {
	adapters   []provider.Adapter
	guard      *quota.Guard
	store      *cache.Store
	reconciler *reconcile.Reconciler
	players    trackedplayer.Repository
	records    statrecord.Repository
	reports    batchreport.Repository
	notifier   notify.Notifier
	idGen      id.Generator
	logger     *logging.Logger
	cfg        Config
	now        func() time.Time
	sleep      func(ctx context.Context, d time.Duration) error
	submit     func(pool *ants.Pool, task func()) error
}

func NewService(
	adapters []provider.Adapter,
	guard *quota.Guard,
	store *cache.Store,
	reconciler *reconcile.Reconciler,
	players trackedplayer.Repository,
	records statrecord.Repository,
	reports batchreport.Repository,
	notifier notify.Notifier,
	cfg Config,
	logger *logging.Logger,
) (*Service, error) {
	if len(adapters) == 0 {
		return nil, fmt.Errorf("at least one provider adapter is required")
	}
	if guard == nil || store == nil || reconciler == nil {
		return nil, fmt.Errorf("quota guard, cache store and reconciler are required")
	}
	if players == nil || records == nil || reports == nil {
		return nil, fmt.Errorf("player, record and report repositories are required")
	}
	if cfg.Season <= 0 {
		return nil, fmt.Errorf("sync season is required")
	}
	if notifier == nil {
		notifier = notify.NopNotifier{}
	}
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.MaxWorkers <= 0 {
		cfg.MaxWorkers = 4
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = 500 * time.Millisecond
	}

	return &Service{
		adapters:   adapters,
		guard:      guard,
		store:      store,
		reconciler: reconciler,
		players:    players,
		records:    records,
		reports:    reports,
		notifier:   notifier,
		idGen:      id.NewRandomGenerator(),
		logger:     logger,
		cfg:        cfg,
		now:        time.Now,
		sleep:      sleepCtx,
		submit:     submitTask,
	}, nil
}

// SyncPlayer runs one full sync pass for a player: every configured
// provider in turn, then one reconciled write per competition row. force
// bypasses cached provider payloads.
func (s *Service) SyncPlayer(ctx context.Context, playerID string, force bool) (PlayerSyncResult, error) {
	ctx, span := startSyncSpan(ctx, "syncer.Service.SyncPlayer")
	defer span.End()

	p, err := s.players.GetByID(ctx, playerID)
	if err != nil {
		return PlayerSyncResult{}, fmt.Errorf("load tracked player id=%s: %w", playerID, err)
	}

	result := PlayerSyncResult{
		PlayerID:  p.ID,
		Season:    s.cfg.Season,
		Providers: make([]ProviderResult, 0, len(s.adapters)),
	}

	collected := make([]provider.Record, 0, 8)
	anySuccess := false
	var firstFailure string

	for _, adapter := range s.adapters {
		pr, rows := s.syncProvider(ctx, adapter, p, force)
		result.Providers = append(result.Providers, pr)
		collected = append(collected, rows...)

		switch pr.Status {
		case ProviderStatusSynced, ProviderStatusCached, ProviderStatusNoData:
			anySuccess = true
		case ProviderStatusFailed:
			if firstFailure == "" {
				firstFailure = adapter.Name() + ": " + pr.Message
			}
		}
	}

	if !anySuccess && firstFailure == "" {
		firstFailure = "no provider is mapped for this player"
	}

	upserted, err := s.storeRecords(ctx, p.ID, collected)
	if err != nil {
		firstFailure = "store records: " + err.Error()
		anySuccess = false
	}
	result.RecordsUpserted = upserted

	now := s.now().UTC()
	outcome := trackedplayer.SyncOutcome{
		PlayerID:   p.ID,
		SyncedAt:   now,
		Successful: anySuccess && firstFailure == "",
		LastError:  firstFailure,
	}
	if err := s.players.RecordSyncOutcome(ctx, outcome); err != nil {
		s.logger.WarnContext(ctx, "record player sync outcome failed", "player_id", p.ID, "error", err)
	}
	result.Synced = outcome.Successful

	if !result.Synced {
		return result, fmt.Errorf("sync player id=%s: %s", p.ID, firstFailure)
	}

	return result, nil
}

// syncProvider performs one provider leg of a player sync. Players the
// provider has not mapped are skipped without touching cache or quota.
func (s *Service) syncProvider(ctx context.Context, adapter provider.Adapter, p trackedplayer.Player, force bool) (ProviderResult, []provider.Record) {
	name := adapter.Name()
	result := ProviderResult{Provider: name}

	ref, ok := adapter.RefFor(p)
	if !ok {
		result.Status = ProviderStatusSkipped
		result.Message = "player is not mapped for this provider"
		return result, nil
	}

	cacheKey := fmt.Sprintf("%s:%s:%d", name, ref, s.cfg.Season)
	if force {
		s.store.Invalidate(cacheKey)
	}

	attempts := 0
	payload, hit, err := s.store.GetOrFetch(ctx, cacheKey, cacheClassFor(name), func(ctx context.Context) (any, error) {
		rows, fetchAttempts, fetchErr := s.fetchWithRetry(ctx, adapter, ref)
		attempts = fetchAttempts
		if fetchErr != nil {
			return nil, fetchErr
		}
		return rows, nil
	})
	result.Attempts = attempts

	if err != nil {
		if errors.Is(err, provider.ErrNotFound) {
			result.Status = ProviderStatusNoData
			result.Message = "provider has no data for this player"
			s.recordProviderOutcome(ctx, p.ID, name, true, "")
			return result, nil
		}
		result.Status = ProviderStatusFailed
		result.Message = err.Error()
		s.recordProviderOutcome(ctx, p.ID, name, false, err.Error())
		return result, nil
	}

	rows, ok := payload.([]provider.Record)
	if !ok {
		result.Status = ProviderStatusFailed
		result.Message = fmt.Sprintf("unexpected cache payload type %T", payload)
		s.recordProviderOutcome(ctx, p.ID, name, false, result.Message)
		return result, nil
	}

	result.Rows = len(rows)
	if hit {
		result.Status = ProviderStatusCached
	} else {
		result.Status = ProviderStatusSynced
	}
	s.recordProviderOutcome(ctx, p.ID, name, true, "")

	return result, rows
}

// fetchWithRetry wraps one adapter call with the attempt policy. Each
// attempt reserves quota before going out; a reservation denied by the
// monthly ceiling stops the loop immediately. Not-found and malformed
// responses are terminal, rate-limit and transient failures retry with
// backoff until the attempt budget runs out.
func (s *Service) fetchWithRetry(ctx context.Context, adapter provider.Adapter, ref string) ([]provider.Record, int, error) {
	var lastErr error
	attempts := 0

	for attempt := 1; attempt <= s.cfg.MaxAttempts; attempt++ {
		if attempt > 1 {
			if err := s.sleep(ctx, s.cfg.RetryBackoff*time.Duration(attempt-1)); err != nil {
				return nil, attempts, err
			}
		}

		if _, err := s.guard.TryReserve(ctx); err != nil {
			return nil, attempts, err
		}
		attempts++

		rows, err := adapter.FetchPlayerSeason(ctx, ref, s.cfg.Season)
		if err == nil {
			return rows, attempts, nil
		}
		lastErr = err

		if errors.Is(err, provider.ErrNotFound) || errors.Is(err, provider.ErrMalformed) {
			return nil, attempts, err
		}
		s.logger.WarnContext(ctx, "provider fetch attempt failed",
			"provider", adapter.Name(),
			"ref", ref,
			"attempt", attempt,
			"error", err,
		)
	}

	return nil, attempts, fmt.Errorf("fetch exhausted %d attempts: %w", attempts, lastErr)
}

// storeRecords folds this cycle's provider rows into canonical records,
// one write per competition row. A concurrent writer surfacing as a
// version conflict gets one fresh read-merge-write before giving up.
func (s *Service) storeRecords(ctx context.Context, playerID string, rows []provider.Record) (int, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	grouped := make(map[statrecord.Key][]provider.Record)
	for _, row := range rows {
		key := statrecord.Key{
			PlayerID:            playerID,
			Season:              row.Season,
			CompetitionCategory: row.CompetitionCategory,
			CompetitionName:     row.CompetitionName,
		}
		grouped[key] = append(grouped[key], row)
	}

	keys := make([]statrecord.Key, 0, len(grouped))
	for key := range grouped {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })

	upserted := 0
	for _, key := range keys {
		if err := s.mergeAndUpsert(ctx, key, grouped[key]); err != nil {
			if errors.Is(err, statrecord.ErrConflict) {
				if err = s.mergeAndUpsert(ctx, key, grouped[key]); err == nil {
					upserted++
					continue
				}
			}
			return upserted, fmt.Errorf("upsert record key=%s: %w", key, err)
		}
		upserted++
	}

	return upserted, nil
}

func (s *Service) mergeAndUpsert(ctx context.Context, key statrecord.Key, rows []provider.Record) error {
	var existing *statrecord.Record
	current, err := s.records.Get(ctx, key)
	switch {
	case err == nil:
		existing = &current
	case errors.Is(err, statrecord.ErrNotFound):
	default:
		return fmt.Errorf("load existing record: %w", err)
	}

	merged, err := s.reconciler.Merge(existing, key, rows)
	if err != nil {
		return fmt.Errorf("merge provider rows: %w", err)
	}
	merged.SyncedAt = s.now().UTC()

	return s.records.Upsert(ctx, merged)
}

func (s *Service) recordProviderOutcome(ctx context.Context, playerID, providerName string, successful bool, message string) {
	outcome := trackedplayer.SyncOutcome{
		PlayerID:   playerID,
		Provider:   providerName,
		SyncedAt:   s.now().UTC(),
		Successful: successful,
		LastError:  message,
	}
	if err := s.players.RecordSyncOutcome(ctx, outcome); err != nil {
		s.logger.WarnContext(ctx, "record provider sync outcome failed",
			"player_id", playerID,
			"provider", providerName,
			"error", err,
		)
	}
}

// RunBatch syncs a tier's players over a bounded worker pool. A failed
// player never aborts the batch; it lands in the report's failure list.
func (s *Service) RunBatch(ctx context.Context, tier trackedplayer.Tier, players []trackedplayer.Player) (batchreport.Report, error) {
	ctx, span := startSyncSpan(ctx, "syncer.Service.RunBatch")
	defer span.End()

	reportID, err := s.idGen.NewID()
	if err != nil {
		return batchreport.Report{}, fmt.Errorf("generate batch report id: %w", err)
	}

	report := batchreport.Report{
		ID:        reportID,
		Tier:      tier,
		StartedAt: s.now().UTC(),
		Attempted: len(players),
	}

	if len(players) > 0 {
		pool, err := ants.NewPool(s.workerCount(len(players)))
		if err != nil {
			return batchreport.Report{}, fmt.Errorf("create sync worker pool: %w", err)
		}
		defer pool.Release()

		var succeeded atomic.Int32
		var mu sync.Mutex
		failures := make([]batchreport.Failure, 0)

		var workers sync.WaitGroup
		for _, p := range players {
			p := p
			workers.Add(1)
			if err := s.submit(pool, func() {
				defer workers.Done()

				if _, syncErr := s.SyncPlayer(ctx, p.ID, false); syncErr != nil {
					mu.Lock()
					failures = append(failures, batchreport.Failure{
						PlayerID: p.ID,
						Reason:   syncErr.Error(),
					})
					mu.Unlock()
					return
				}
				succeeded.Add(1)
			}); err != nil {
				// A rejected submission counts as that player's failure;
				// workers already in flight keep their outcomes.
				workers.Done()
				mu.Lock()
				failures = append(failures, batchreport.Failure{
					PlayerID: p.ID,
					Reason:   "submit sync task: " + err.Error(),
				})
				mu.Unlock()
			}
		}
		workers.Wait()

		sort.Slice(failures, func(i, j int) bool { return failures[i].PlayerID < failures[j].PlayerID })
		report.Succeeded = int(succeeded.Load())
		report.Failed = len(failures)
		report.Failures = failures
	}

	report.FinishedAt = s.now().UTC()

	if err := s.reports.Insert(ctx, report); err != nil {
		s.logger.WarnContext(ctx, "store batch report failed", "report_id", report.ID, "tier", int(tier), "error", err)
	}
	s.notifyBatchCompleted(ctx, report)

	s.logger.InfoContext(ctx, "tier batch completed",
		"report_id", report.ID,
		"tier", int(tier),
		"attempted", report.Attempted,
		"succeeded", report.Succeeded,
		"failed", report.Failed,
	)

	return report, nil
}

func (s *Service) workerCount(playerCount int) int {
	count := s.cfg.MaxWorkers
	if count > playerCount {
		count = playerCount
	}
	if count < 1 {
		count = 1
	}
	return count
}

func (s *Service) notifyBatchCompleted(ctx context.Context, report batchreport.Report) {
	event := notify.Event{
		Type:    notify.EventBatchCompleted,
		Message: fmt.Sprintf("tier %d batch: %d attempted, %d succeeded, %d failed", report.Tier, report.Attempted, report.Succeeded, report.Failed),
		Fields: map[string]any{
			"report_id": report.ID,
			"tier":      int(report.Tier),
			"attempted": report.Attempted,
			"succeeded": report.Succeeded,
			"failed":    report.Failed,
		},
	}
	if err := s.notifier.Notify(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "batch completion notification failed", "report_id", report.ID, "error", err)
	}
}

// PlayerStatus is the sync-state view for one player.
type PlayerStatus struct {
	Player  trackedplayer.Player
	Records []statrecord.Record
}

func (s *Service) Status(ctx context.Context, playerID string) (PlayerStatus, error) {
	ctx, span := startSyncSpan(ctx, "syncer.Service.Status")
	defer span.End()

	p, err := s.players.GetByID(ctx, playerID)
	if err != nil {
		return PlayerStatus{}, fmt.Errorf("load tracked player id=%s: %w", playerID, err)
	}

	records, err := s.records.ListByPlayer(ctx, playerID)
	if err != nil {
		return PlayerStatus{}, fmt.Errorf("list records for player id=%s: %w", playerID, err)
	}

	return PlayerStatus{Player: p, Records: records}, nil
}

func (s *Service) CacheStats() cache.Stats {
	return s.store.Stats()
}

func (s *Service) CacheSnapshot() []cache.EntryInfo {
	return s.store.Snapshot()
}

func cacheClassFor(providerName string) cache.Class {
	if strings.EqualFold(providerName, provider.NameHistScrape) {
		return cache.ClassScrapeFeed
	}
	return cache.ClassPlayerSeason
}

func submitTask(pool *ants.Pool, task func()) error {
	return pool.Submit(task)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
