package httpapi

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/mkowalczk/footsync/internal/domain/statrecord"
	"github.com/mkowalczk/footsync/internal/domain/trackedplayer"
	"github.com/mkowalczk/footsync/internal/engine/syncer"
)

type triggerSyncRequest struct {
	PlayerID string `validate:"required"`
}

func (h *Handler) TriggerPlayerSync(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.TriggerPlayerSync")
	defer span.End()

	playerID := strings.TrimSpace(r.PathValue("playerID"))
	if err := h.validateRequest(ctx, triggerSyncRequest{PlayerID: playerID}); err != nil {
		writeError(ctx, w, err)
		return
	}

	force := false
	if raw := strings.TrimSpace(r.URL.Query().Get("force")); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			writeError(ctx, w, fmt.Errorf("%w: force must be a boolean, got %q", syncer.ErrInvalidInput, raw))
			return
		}
		force = parsed
	}

	result, err := h.syncService.SyncPlayer(ctx, playerID, force)
	if err != nil {
		h.logger.WarnContext(ctx, "player sync failed", "player_id", playerID, "force", force, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, result)
}

func (h *Handler) GetPlayerSyncStatus(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetPlayerSyncStatus")
	defer span.End()

	playerID := strings.TrimSpace(r.PathValue("playerID"))
	if err := h.validateRequest(ctx, triggerSyncRequest{PlayerID: playerID}); err != nil {
		writeError(ctx, w, err)
		return
	}

	status, err := h.syncService.Status(ctx, playerID)
	if err != nil {
		h.logger.WarnContext(ctx, "player sync status failed", "player_id", playerID, "error", err)
		writeError(ctx, w, err)
		return
	}

	dto := playerStatusDTO{
		Player:  playerToDTO(status.Player),
		Records: recordsToDTO(status.Records),
	}
	if h.scheduler != nil {
		next, err := h.scheduler.NextDue(status.Player.Tier, status.Player.LastSyncedAt)
		if err != nil {
			h.logger.WarnContext(ctx, "compute next due failed", "player_id", playerID, "error", err)
		} else {
			dto.NextDue = &next
		}
	}

	writeSuccess(ctx, w, http.StatusOK, dto)
}

type playerStatusDTO struct {
	Player  playerDTO   `json:"player"`
	Records []recordDTO `json:"records"`

	// NextDue is absent when the background scheduler is disabled.
	NextDue *time.Time `json:"next_due,omitempty"`
}

type playerDTO struct {
	ID                 string     `json:"id"`
	Name               string     `json:"name"`
	Tier               int        `json:"tier"`
	SportsIOID         *int64     `json:"sportsio_id,omitempty"`
	HistScrapeSlug     *string    `json:"histscrape_slug,omitempty"`
	SportsIOSyncedAt   *time.Time `json:"sportsio_synced_at,omitempty"`
	HistScrapeSyncedAt *time.Time `json:"histscrape_synced_at,omitempty"`
	LastSyncedAt       *time.Time `json:"last_synced_at,omitempty"`
	LastSyncError      string     `json:"last_sync_error,omitempty"`
}

type recordDTO struct {
	Season              int        `json:"season"`
	CompetitionCategory string     `json:"competition_category"`
	CompetitionName     string     `json:"competition_name"`
	Metrics             metricsDTO `json:"metrics"`
	Origins             originsDTO `json:"origins"`
	Version             int64      `json:"version"`
	SyncedAt            time.Time  `json:"synced_at"`
}

// metricsDTO keeps the nil-versus-zero distinction on the wire: absent
// metrics are omitted, reported zeroes are emitted as 0.
type metricsDTO struct {
	Appearances   *int `json:"appearances,omitempty"`
	MinutesPlayed *int `json:"minutes_played,omitempty"`
	Goals         *int `json:"goals,omitempty"`
	Assists       *int `json:"assists,omitempty"`

	YellowCards *int `json:"yellow_cards,omitempty"`
	RedCards    *int `json:"red_cards,omitempty"`
	FoulsDrawn  *int `json:"fouls_drawn,omitempty"`

	ExpectedGoals     *float64 `json:"expected_goals,omitempty"`
	ExpectedAssists   *float64 `json:"expected_assists,omitempty"`
	NonPenaltyXG      *float64 `json:"non_penalty_xg,omitempty"`
	ProgressivePasses *int     `json:"progressive_passes,omitempty"`

	Saves         *int `json:"saves,omitempty"`
	CleanSheets   *int `json:"clean_sheets,omitempty"`
	GoalsConceded *int `json:"goals_conceded,omitempty"`
}

type originsDTO struct {
	Basic      string `json:"basic,omitempty"`
	Discipline string `json:"discipline,omitempty"`
	Advanced   string `json:"advanced,omitempty"`
	Keeper     string `json:"keeper,omitempty"`
}

func playerToDTO(p trackedplayer.Player) playerDTO {
	return playerDTO{
		ID:                 p.ID,
		Name:               p.Name,
		Tier:               int(p.Tier),
		SportsIOID:         p.SportsIOID,
		HistScrapeSlug:     p.HistScrapeSlug,
		SportsIOSyncedAt:   p.SportsIOSyncedAt,
		HistScrapeSyncedAt: p.HistScrapeSyncedAt,
		LastSyncedAt:       p.LastSyncedAt,
		LastSyncError:      p.LastSyncError,
	}
}

func recordsToDTO(records []statrecord.Record) []recordDTO {
	out := make([]recordDTO, 0, len(records))
	for _, rec := range records {
		out = append(out, recordDTO{
			Season:              rec.Key.Season,
			CompetitionCategory: rec.Key.CompetitionCategory,
			CompetitionName:     rec.Key.CompetitionName,
			Metrics: metricsDTO{
				Appearances:       rec.Metrics.Appearances,
				MinutesPlayed:     rec.Metrics.MinutesPlayed,
				Goals:             rec.Metrics.Goals,
				Assists:           rec.Metrics.Assists,
				YellowCards:       rec.Metrics.YellowCards,
				RedCards:          rec.Metrics.RedCards,
				FoulsDrawn:        rec.Metrics.FoulsDrawn,
				ExpectedGoals:     rec.Metrics.ExpectedGoals,
				ExpectedAssists:   rec.Metrics.ExpectedAssists,
				NonPenaltyXG:      rec.Metrics.NonPenaltyXG,
				ProgressivePasses: rec.Metrics.ProgressivePasses,
				Saves:             rec.Metrics.Saves,
				CleanSheets:       rec.Metrics.CleanSheets,
				GoalsConceded:     rec.Metrics.GoalsConceded,
			},
			Origins: originsDTO{
				Basic:      rec.Origins.Basic,
				Discipline: rec.Origins.Discipline,
				Advanced:   rec.Origins.Advanced,
				Keeper:     rec.Origins.Keeper,
			},
			Version:  rec.Version,
			SyncedAt: rec.SyncedAt,
		})
	}
	return out
}
