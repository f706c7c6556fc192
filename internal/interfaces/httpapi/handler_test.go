package httpapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	sonic "github.com/bytedance/sonic"

	"github.com/mkowalczk/footsync/internal/domain/statrecord"
	"github.com/mkowalczk/footsync/internal/domain/trackedplayer"
	"github.com/mkowalczk/footsync/internal/engine/cache"
	"github.com/mkowalczk/footsync/internal/engine/quota"
	"github.com/mkowalczk/footsync/internal/engine/reconcile"
	"github.com/mkowalczk/footsync/internal/engine/schedule"
	"github.com/mkowalczk/footsync/internal/engine/scheduler"
	"github.com/mkowalczk/footsync/internal/engine/syncer"
	"github.com/mkowalczk/footsync/internal/infrastructure/repository/memory"
	"github.com/mkowalczk/footsync/internal/platform/logging"
	"github.com/mkowalczk/footsync/internal/provider"
)

type stubAdapter struct{}

func (stubAdapter) Name() string { return provider.NameSportsIO }

func (stubAdapter) RefFor(p trackedplayer.Player) (string, bool) {
	if p.SportsIOID == nil {
		return "", false
	}
	return "881", true
}

func (stubAdapter) FetchPlayerSeason(_ context.Context, _ string, season int) ([]provider.Record, error) {
	goals := 5
	return []provider.Record{
		{
			Provider:            provider.NameSportsIO,
			Season:              season,
			CompetitionCategory: "league",
			CompetitionName:     "Premier League",
			Metrics:             statrecord.Metrics{Goals: &goals},
		},
	}, nil
}

type testStack struct {
	svc     *syncer.Service
	guard   *quota.Guard
	reports *memory.BatchReportRepository
	players *memory.TrackedPlayerRepository
	logger  *logging.Logger
}

func newTestStack(t *testing.T) testStack {
	t.Helper()

	sportsIOID := int64(881)
	players := memory.NewTrackedPlayerRepository([]trackedplayer.Player{
		{ID: "tp-1", Name: "Robert Lewandowski", Tier: trackedplayer.TierOne, SportsIOID: &sportsIOID},
	})
	records := memory.NewStatRecordRepository()
	reports := memory.NewBatchReportRepository()
	usageRepo := memory.NewUsageRepository()

	logger := logging.NewNop()
	guard := quota.NewGuard(quota.Config{MonthlyCeiling: 100}, usageRepo, nil, logger)
	store := cache.NewStore(cache.Config{})
	reconciler, err := reconcile.New(reconcile.DefaultPrecedence())
	if err != nil {
		t.Fatalf("build reconciler: %v", err)
	}

	svc, err := syncer.NewService(
		[]provider.Adapter{stubAdapter{}},
		guard, store, reconciler,
		players, records, reports,
		nil,
		syncer.Config{Season: 2025},
		logger,
	)
	if err != nil {
		t.Fatalf("build sync service: %v", err)
	}

	return testStack{svc: svc, guard: guard, reports: reports, players: players, logger: logger}
}

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()

	s := newTestStack(t)
	handler := NewHandler(s.svc, s.guard, nil, s.reports, s.logger)
	return NewRouter(handler, s.logger, []string{"*"})
}

func newTestRouterWithScheduler(t *testing.T) http.Handler {
	t.Helper()

	s := newTestStack(t)
	sched, err := scheduler.New(schedule.Default(time.UTC), s.players, s.svc, scheduler.Config{}, s.logger)
	if err != nil {
		t.Fatalf("build scheduler: %v", err)
	}

	handler := NewHandler(s.svc, s.guard, sched, s.reports, s.logger)
	return NewRouter(handler, s.logger, []string{"*"})
}

func doRequest(t *testing.T, router http.Handler, method, target string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var body map[string]any
	if err := sonic.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal response body: %v", err)
	}
	return rec, body
}

func TestHealthz(t *testing.T) {
	router := newTestRouter(t)

	rec, body := doRequest(t, router, http.MethodGet, "/healthz")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	data, _ := body["data"].(map[string]any)
	if data["status"] != "ok" {
		t.Fatalf("unexpected healthz payload: %v", body)
	}
}

func TestTriggerPlayerSync(t *testing.T) {
	router := newTestRouter(t)

	rec, body := doRequest(t, router, http.MethodPost, "/v1/sync/players/tp-1")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d body=%v", rec.Code, body)
	}
	data, _ := body["data"].(map[string]any)
	if synced, _ := data["synced"].(bool); !synced {
		t.Fatalf("expected synced=true, got %v", body)
	}
	if data["player_id"] != "tp-1" {
		t.Fatalf("unexpected player id: %v", data["player_id"])
	}
}

func TestTriggerPlayerSync_UnknownPlayer(t *testing.T) {
	router := newTestRouter(t)

	rec, _ := doRequest(t, router, http.MethodPost, "/v1/sync/players/nope")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", rec.Code)
	}
}

func TestTriggerPlayerSync_InvalidForceFlag(t *testing.T) {
	router := newTestRouter(t)

	rec, _ := doRequest(t, router, http.MethodPost, "/v1/sync/players/tp-1?force=sometimes")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}
}

func TestGetPlayerSyncStatus(t *testing.T) {
	router := newTestRouter(t)

	if rec, body := doRequest(t, router, http.MethodPost, "/v1/sync/players/tp-1"); rec.Code != http.StatusOK {
		t.Fatalf("seed sync failed: %d %v", rec.Code, body)
	}

	rec, body := doRequest(t, router, http.MethodGet, "/v1/sync/players/tp-1/status")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	data, _ := body["data"].(map[string]any)
	records, _ := data["records"].([]any)
	if len(records) != 1 {
		t.Fatalf("expected one canonical record, got %v", data["records"])
	}
	record, _ := records[0].(map[string]any)
	metrics, _ := record["metrics"].(map[string]any)
	if goals, _ := metrics["goals"].(float64); goals != 5 {
		t.Fatalf("expected goals=5, got %v", metrics["goals"])
	}
	if _, present := metrics["expected_goals"]; present {
		t.Fatalf("absent metric must be omitted from the payload: %v", metrics)
	}
	if _, present := data["next_due"]; present {
		t.Fatalf("next_due must be absent without a scheduler: %v", data)
	}
}

func TestGetPlayerSyncStatus_NextDue(t *testing.T) {
	router := newTestRouterWithScheduler(t)

	// Never synced: due immediately.
	rec, body := doRequest(t, router, http.MethodGet, "/v1/sync/players/tp-1/status")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	data, _ := body["data"].(map[string]any)
	raw, _ := data["next_due"].(string)
	if raw == "" {
		t.Fatalf("expected next_due for a never-synced player, got %v", data)
	}
	nextDue, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		t.Fatalf("parse next_due %q: %v", raw, err)
	}
	if nextDue.After(time.Now().Add(time.Minute)) {
		t.Fatalf("never-synced player must be due now, got %v", nextDue)
	}

	if rec, body := doRequest(t, router, http.MethodPost, "/v1/sync/players/tp-1"); rec.Code != http.StatusOK {
		t.Fatalf("seed sync failed: %d %v", rec.Code, body)
	}

	// After a sync, next_due moves to the next trigger past the sync.
	rec, body = doRequest(t, router, http.MethodGet, "/v1/sync/players/tp-1/status")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	data, _ = body["data"].(map[string]any)
	raw, _ = data["next_due"].(string)
	nextDue, err = time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		t.Fatalf("parse next_due %q: %v", raw, err)
	}

	player, _ := data["player"].(map[string]any)
	lastRaw, _ := player["last_synced_at"].(string)
	lastSynced, err := time.Parse(time.RFC3339Nano, lastRaw)
	if err != nil {
		t.Fatalf("parse last_synced_at %q: %v", lastRaw, err)
	}
	if !nextDue.After(lastSynced) {
		t.Fatalf("next_due %v must be after last_synced_at %v", nextDue, lastSynced)
	}
}

func TestGetQuota_ReflectsUsage(t *testing.T) {
	router := newTestRouter(t)

	if rec, body := doRequest(t, router, http.MethodPost, "/v1/sync/players/tp-1"); rec.Code != http.StatusOK {
		t.Fatalf("seed sync failed: %d %v", rec.Code, body)
	}

	rec, body := doRequest(t, router, http.MethodGet, "/v1/quota")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	data, _ := body["data"].(map[string]any)
	if used, _ := data["used"].(float64); used != 1 {
		t.Fatalf("expected used=1 after one sync, got %v", data["used"])
	}
	if ceiling, _ := data["ceiling"].(float64); ceiling != 100 {
		t.Fatalf("expected ceiling=100, got %v", data["ceiling"])
	}
}

func TestListBatchReports(t *testing.T) {
	router := newTestRouter(t)

	rec, body := doRequest(t, router, http.MethodGet, "/v1/batches")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if data, ok := body["data"].([]any); !ok || len(data) != 0 {
		t.Fatalf("expected empty report list, got %v", body["data"])
	}

	rec, _ = doRequest(t, router, http.MethodGet, "/v1/batches?limit=zero")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400 for bad limit, got %d", rec.Code)
	}
}

func TestGetCacheStats(t *testing.T) {
	router := newTestRouter(t)

	if rec, body := doRequest(t, router, http.MethodPost, "/v1/sync/players/tp-1"); rec.Code != http.StatusOK {
		t.Fatalf("seed sync failed: %d %v", rec.Code, body)
	}

	rec, body := doRequest(t, router, http.MethodGet, "/v1/cache/stats")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	data, _ := body["data"].(map[string]any)
	stats, _ := data["stats"].(map[string]any)
	if entries, _ := stats["entries"].(float64); entries != 1 {
		t.Fatalf("expected one cache entry, got %v", stats)
	}
}

func TestListSchedulerTiers_Disabled(t *testing.T) {
	router := newTestRouter(t)

	rec, _ := doRequest(t, router, http.MethodGet, "/v1/scheduler/tiers")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected status 503 when scheduler is off, got %d", rec.Code)
	}
}
