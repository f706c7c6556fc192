package httpapi

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/mkowalczk/footsync/internal/domain/batchreport"
	"github.com/mkowalczk/footsync/internal/engine/cache"
	"github.com/mkowalczk/footsync/internal/engine/syncer"
)

const defaultBatchReportLimit = 20

func (h *Handler) GetQuota(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetQuota")
	defer span.End()

	counter, err := h.guard.CurrentUsage(ctx)
	if err != nil {
		h.logger.WarnContext(ctx, "read quota usage failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	ceiling := h.guard.MonthlyCeiling()
	remaining := ceiling - counter.Used
	if remaining < 0 {
		remaining = 0
	}

	writeSuccess(ctx, w, http.StatusOK, quotaDTO{
		Month:     counter.Month,
		Used:      counter.Used,
		Ceiling:   ceiling,
		Remaining: remaining,
		UpdatedAt: counter.UpdatedAt,
	})
}

func (h *Handler) ListBatchReports(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListBatchReports")
	defer span.End()

	limit := defaultBatchReportLimit
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			writeError(ctx, w, fmt.Errorf("%w: limit must be a positive integer, got %q", syncer.ErrInvalidInput, raw))
			return
		}
		limit = parsed
	}

	reports, err := h.reports.ListRecent(ctx, limit)
	if err != nil {
		h.logger.WarnContext(ctx, "list batch reports failed", "limit", limit, "error", err)
		writeError(ctx, w, err)
		return
	}

	items := make([]batchReportDTO, 0, len(reports))
	for _, report := range reports {
		items = append(items, batchReportToDTO(report))
	}

	writeSuccess(ctx, w, http.StatusOK, items)
}

func (h *Handler) GetCacheStats(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetCacheStats")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, cacheStatsDTO{
		Stats:   h.syncService.CacheStats(),
		Entries: h.syncService.CacheSnapshot(),
	})
}

func (h *Handler) ListSchedulerTiers(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListSchedulerTiers")
	defer span.End()

	if h.scheduler == nil {
		writeError(ctx, w, errSchedulerDisabled)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, h.scheduler.TierStatuses())
}

type quotaDTO struct {
	Month     string    `json:"month"`
	Used      int64     `json:"used"`
	Ceiling   int64     `json:"ceiling"`
	Remaining int64     `json:"remaining"`
	UpdatedAt time.Time `json:"updated_at"`
}

type cacheStatsDTO struct {
	Stats   cache.Stats       `json:"stats"`
	Entries []cache.EntryInfo `json:"entries"`
}

type batchReportDTO struct {
	ID         string            `json:"id"`
	Tier       int               `json:"tier"`
	StartedAt  time.Time         `json:"started_at"`
	FinishedAt time.Time         `json:"finished_at"`
	Attempted  int               `json:"attempted"`
	Succeeded  int               `json:"succeeded"`
	Failed     int               `json:"failed"`
	Failures   []batchFailureDTO `json:"failures,omitempty"`
}

type batchFailureDTO struct {
	PlayerID string `json:"player_id"`
	Reason   string `json:"reason"`
}

func batchReportToDTO(report batchreport.Report) batchReportDTO {
	failures := make([]batchFailureDTO, 0, len(report.Failures))
	for _, failure := range report.Failures {
		failures = append(failures, batchFailureDTO{PlayerID: failure.PlayerID, Reason: failure.Reason})
	}

	return batchReportDTO{
		ID:         report.ID,
		Tier:       int(report.Tier),
		StartedAt:  report.StartedAt,
		FinishedAt: report.FinishedAt,
		Attempted:  report.Attempted,
		Succeeded:  report.Succeeded,
		Failed:     report.Failed,
		Failures:   failures,
	}
}
