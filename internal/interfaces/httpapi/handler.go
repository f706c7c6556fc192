package httpapi

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/mkowalczk/footsync/internal/domain/batchreport"
	"github.com/mkowalczk/footsync/internal/engine/quota"
	"github.com/mkowalczk/footsync/internal/engine/scheduler"
	"github.com/mkowalczk/footsync/internal/engine/syncer"
	"github.com/mkowalczk/footsync/internal/platform/logging"
)

type Handler struct {
	syncService *syncer.Service
	guard       *quota.Guard
	scheduler   *scheduler.Scheduler
	reports     batchreport.Repository
	logger      *logging.Logger
	validator   *validator.Validate
}

// NewHandler wires the API surface. sched may be nil when the background
// loop is disabled; the tiers endpoint then reports 503.
func NewHandler(
	syncService *syncer.Service,
	guard *quota.Guard,
	sched *scheduler.Scheduler,
	reports batchreport.Repository,
	logger *logging.Logger,
) *Handler {
	if logger == nil {
		logger = logging.Default()
	}

	return &Handler{
		syncService: syncService,
		guard:       guard,
		scheduler:   sched,
		reports:     reports,
		logger:      logger,
		validator:   validator.New(),
	}
}

func (h *Handler) validateRequest(ctx context.Context, payload any) error {
	ctx, span := startSpan(ctx, "httpapi.Handler.validateRequest")
	defer span.End()

	if err := h.validator.StructCtx(ctx, payload); err != nil {
		return fmt.Errorf("%w: validation failed: %v", syncer.ErrInvalidInput, err)
	}

	return nil
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	writeSuccess(r.Context(), w, http.StatusOK, map[string]string{"status": "ok"})
}
