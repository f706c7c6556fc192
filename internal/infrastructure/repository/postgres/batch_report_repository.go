package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/mkowalczk/footsync/internal/domain/batchreport"
	qb "github.com/mkowalczk/footsync/internal/platform/querybuilder"
)

type BatchReportRepository struct {
	db *sqlx.DB
}

func NewBatchReportRepository(db *sqlx.DB) *BatchReportRepository {
	return &BatchReportRepository{db: db}
}

func (r *BatchReportRepository) Insert(ctx context.Context, report batchreport.Report) error {
	if err := report.Validate(); err != nil {
		return err
	}

	model, err := batchReportToModel(report)
	if err != nil {
		return err
	}

	query, args, err := qb.InsertModel("batch_reports", model, "")
	if err != nil {
		return fmt.Errorf("build insert batch report query: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert batch report id=%s: %w", report.ID, err)
	}

	return nil
}

func (r *BatchReportRepository) ListRecent(ctx context.Context, limit int) ([]batchreport.Report, error) {
	builder := qb.Select(batchReportSelectColumns...).From("batch_reports").
		OrderBy("started_at DESC")
	if limit > 0 {
		builder = builder.Limit(limit)
	}

	query, args, err := builder.ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select batch reports query: %w", err)
	}

	var rows []batchReportTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select batch reports: %w", err)
	}

	out := make([]batchreport.Report, 0, len(rows))
	for _, row := range rows {
		report, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, report)
	}

	return out, nil
}
