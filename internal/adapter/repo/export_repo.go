package repo

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgtype"

	"explorer/internal/domain"
	"explorer/internal/infra"
	"explorer/internal/sqlinline"
)

// ExportRepositoryPG implements domain.ExportRepository.
type ExportRepositoryPG struct {
	sql infra.SQLExecutor
}

func NewExportRepository(sql infra.SQLExecutor) *ExportRepositoryPG {
	return &ExportRepositoryPG{sql: sql}
}

func (r *ExportRepositoryPG) ExportReports(ctx context.Context, entityIDs []int64, filters domain.ExportFilters) ([]domain.Report, error) {
	recs, err := queryAll(ctx, r.sql, sqlinline.QExportReports, entityIDs, dateArg(filters.DateFrom), dateArg(filters.DateTo))
	if err != nil {
		return nil, fmt.Errorf("export reports: %w", err)
	}
	items := make([]domain.Report, 0, len(recs))
	for _, rec := range recs {
		items = append(items, reportFromRecord(rec, 0))
	}
	return items, nil
}

func (r *ExportRepositoryPG) ExportTransactions(ctx context.Context, entityIDs []int64, filters domain.ExportFilters) ([]domain.Transaction, error) {
	recs, err := queryAll(ctx, r.sql, sqlinline.QExportTransactions, entityIDs, dateArg(filters.DateFrom), dateArg(filters.DateTo))
	if err != nil {
		return nil, fmt.Errorf("export transactions: %w", err)
	}
	items := make([]domain.Transaction, 0, len(recs))
	for _, rec := range recs {
		items = append(items, transactionFromRecord(rec, 0))
	}
	return items, nil
}

// dateArg sends a zero time as SQL null so the bound stays open.
func dateArg(t time.Time) pgtype.Date {
	if t.IsZero() {
		return pgtype.Date{}
	}
	return pgtype.Date{Time: t, Valid: true}
}

var _ domain.ExportRepository = (*ExportRepositoryPG)(nil)
