package repo

import (
	"context"
	"fmt"
	"strings"

	"explorer/internal/domain"
	"explorer/internal/infra"
	"explorer/internal/sqlinline"
)

// SearchRepositoryPG implements domain.SearchRepository.
type SearchRepositoryPG struct {
	sql infra.SQLExecutor
}

func NewSearchRepository(sql infra.SQLExecutor) *SearchRepositoryPG {
	return &SearchRepositoryPG{sql: sql}
}

func (r *SearchRepositoryPG) Search(ctx context.Context, query string, limit, offset int) ([]domain.SearchResult, error) {
	recs, err := queryAll(ctx, r.sql, sqlinline.QSearchEntitiesAndPeople, strings.TrimSpace(query), limit, offset)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	items := make([]domain.SearchResult, 0, len(recs))
	for _, rec := range recs {
		kind := domain.SearchKindEntity
		if strings.EqualFold(rec.str("result_type"), string(domain.SearchKindPerson)) {
			kind = domain.SearchKindPerson
		}
		items = append(items, domain.SearchResult{
			Kind:     kind,
			ID:       rec.int64("id"),
			Name:     rec.str("name"),
			Subtitle: rec.str("subtitle"),
			Party:    rec.str("party"),
		})
	}
	return items, nil
}

var _ domain.SearchRepository = (*SearchRepositoryPG)(nil)
