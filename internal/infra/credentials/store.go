package credentials

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"explorer/internal/infra"
	"explorer/internal/sqlinline"
)

const (
	ProviderScraperAPI = "scraper-api"
)

// Store reads and writes upstream service tokens kept in integration_tokens.
type Store struct {
	sql infra.SQLExecutor
}

func NewStore(sql infra.SQLExecutor) *Store {
	return &Store{sql: sql}
}

// ScraperAPIToken returns the bearer token for the job-control service, or ""
// when none is stored.
func (s *Store) ScraperAPIToken(ctx context.Context) (string, error) {
	return s.Token(ctx, ProviderScraperAPI)
}

func (s *Store) Token(ctx context.Context, provider string) (string, error) {
	row := s.sql.QueryRow(ctx, sqlinline.QSelectIntegrationToken, provider)
	var token string
	if err := row.Scan(&token); err != nil {
		if infra.IsNoRows(err) {
			return "", nil
		}
		return "", err
	}
	return strings.TrimSpace(token), nil
}

func (s *Store) SetScraperAPIToken(ctx context.Context, token string, props map[string]any) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return errors.New("scraper api token is required")
	}
	return s.upsert(ctx, ProviderScraperAPI, token, props)
}

func (s *Store) upsert(ctx context.Context, provider, token string, props map[string]any) error {
	payload := props
	if payload == nil {
		payload = map[string]any{}
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	_, err = s.sql.Exec(ctx, sqlinline.QUpsertIntegrationToken, provider, token, raw)
	return err
}
