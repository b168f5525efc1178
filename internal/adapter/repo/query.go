package repo

import (
	"context"

	"explorer/internal/domain"
	"explorer/internal/infra"
)

func queryAll(ctx context.Context, sql infra.SQLExecutor, query string, args ...any) ([]record, error) {
	rows, err := sql.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return collect(rows)
}

// queryOne runs a single-row function. An empty result maps to domain.ErrNotFound.
func queryOne(ctx context.Context, sql infra.SQLExecutor, query string, args ...any) (record, error) {
	recs, err := queryAll(ctx, sql, query, args...)
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, domain.ErrNotFound
	}
	return recs[0], nil
}

func nonZero(v, fallback int64) int64 {
	if v == 0 {
		return fallback
	}
	return v
}
