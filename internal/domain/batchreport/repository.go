package batchreport

import "context"

// Repository stores batch completion reports for observability consumers.
type Repository interface {
	Insert(ctx context.Context, report Report) error
	ListRecent(ctx context.Context, limit int) ([]Report, error)
}
