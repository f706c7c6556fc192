package memory

import (
	"context"
	"sync"

	"github.com/mkowalczk/footsync/internal/domain/batchreport"
)

type BatchReportRepository struct {
	mu      sync.RWMutex
	reports []batchreport.Report
}

func NewBatchReportRepository() *BatchReportRepository {
	return &BatchReportRepository{}
}

func (r *BatchReportRepository) Insert(_ context.Context, report batchreport.Report) error {
	if err := report.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.reports = append(r.reports, report)

	return nil
}

func (r *BatchReportRepository) ListRecent(_ context.Context, limit int) ([]batchreport.Report, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if limit <= 0 || limit > len(r.reports) {
		limit = len(r.reports)
	}

	out := make([]batchreport.Report, 0, limit)
	for i := len(r.reports) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, r.reports[i])
	}

	return out, nil
}
