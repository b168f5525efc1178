package repo

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"explorer/internal/domain"
	"explorer/internal/infra"
	"explorer/internal/sqlinline"
)

// LegislatureRepositoryPG implements domain.LegislatureRepository.
type LegislatureRepositoryPG struct {
	sql infra.SQLExecutor
}

// NewLegislatureRepository creates a legislature repository.
func NewLegislatureRepository(sql infra.SQLExecutor) *LegislatureRepositoryPG {
	return &LegislatureRepositoryPG{sql: sql}
}

func (r *LegislatureRepositoryPG) PersonOverview(ctx context.Context, personID int64) (*domain.PersonOverview, error) {
	rec, err := queryOne(ctx, r.sql, sqlinline.QPersonOverview, personID)
	if err != nil {
		return nil, fmt.Errorf("person overview: %w", err)
	}
	return &domain.PersonOverview{
		ID:           nonZero(rec.int64("person_id"), personID),
		DisplayName:  rec.str("display_name"),
		Party:        rec.str("party"),
		Body:         rec.str("body"),
		District:     rec.str("district"),
		FirstSession: rec.str("first_session"),
		LastSession:  rec.str("last_session"),
		VoteCount:    rec.int64("vote_count"),
		SponsorCount: rec.int64("sponsored_count"),
	}, nil
}

func (r *LegislatureRepositoryPG) PersonSessions(ctx context.Context, personID int64) ([]domain.PersonSession, error) {
	recs, err := queryAll(ctx, r.sql, sqlinline.QPersonSessions, personID)
	if err != nil {
		return nil, fmt.Errorf("person sessions: %w", err)
	}
	items := make([]domain.PersonSession, 0, len(recs))
	for _, rec := range recs {
		items = append(items, domain.PersonSession{
			SessionID:   rec.int64("session_id"),
			SessionName: rec.str("session_name"),
			Year:        rec.int64("year"),
			Body:        rec.str("body"),
			VoteCount:   rec.int64("vote_count"),
		})
	}
	return items, nil
}

// PersonFinanceOverview folds the per-entity rows into totals plus the ordered
// entity reference list. Duplicate entity rows are ignored.
func (r *LegislatureRepositoryPG) PersonFinanceOverview(ctx context.Context, personID int64) (*domain.PersonFinanceOverview, error) {
	recs, err := queryAll(ctx, r.sql, sqlinline.QPersonFinanceOverview, personID)
	if err != nil {
		return nil, fmt.Errorf("person finance overview: %w", err)
	}
	overview := &domain.PersonFinanceOverview{TotalRaised: decimal.Zero, TotalSpent: decimal.Zero}
	seen := make(map[int64]struct{}, len(recs))
	for _, rec := range recs {
		id := rec.int64("entity_id")
		if id == 0 {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		overview.Entities = append(overview.Entities, domain.EntityRef{ID: id, Name: rec.str("entity_name")})
		overview.TotalRaised = overview.TotalRaised.Add(rec.decimal("total_raised"))
		overview.TotalSpent = overview.TotalSpent.Add(rec.decimal("total_spent"))
		overview.DonationCount += rec.int64("donation_count")
	}
	return overview, nil
}

func (r *LegislatureRepositoryPG) PersonSessionBillVotes(ctx context.Context, personID, sessionID int64, limit, offset int) ([]domain.BillVote, error) {
	recs, err := queryAll(ctx, r.sql, sqlinline.QPersonSessionBillVotes, personID, sessionID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("person session bill votes: %w", err)
	}
	return billVotesFromRecords(recs, sessionID), nil
}

func (r *LegislatureRepositoryPG) PersonVotes(ctx context.Context, personID int64, limit, offset int) ([]domain.BillVote, error) {
	recs, err := queryAll(ctx, r.sql, sqlinline.QPersonVotes, personID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("person votes: %w", err)
	}
	return billVotesFromRecords(recs, 0), nil
}

func (r *LegislatureRepositoryPG) BillDetails(ctx context.Context, billID int64) (*domain.BillDetails, error) {
	recs, err := queryAll(ctx, r.sql, sqlinline.QBillDetails, billID)
	if err != nil {
		return nil, fmt.Errorf("bill details: %w", err)
	}
	if len(recs) == 0 {
		return nil, fmt.Errorf("bill details: %w", domain.ErrNotFound)
	}
	first := recs[0]
	details := &domain.BillDetails{
		Bill:        billFromRecord(first),
		Title:       first.str("title"),
		Description: first.str("description"),
	}
	details.ID = nonZero(details.ID, billID)
	for _, rec := range recs {
		name := rec.str("sponsor_name")
		if name == "" {
			continue
		}
		details.Sponsors = append(details.Sponsors, domain.Sponsor{
			PersonID:    rec.int64("sponsor_person_id"),
			Name:        name,
			Party:       rec.str("sponsor_party"),
			SponsorType: rec.str("sponsor_type"),
		})
	}
	return details, nil
}

func (r *LegislatureRepositoryPG) BillRollCall(ctx context.Context, billID int64) ([]domain.RollCallVote, error) {
	recs, err := queryAll(ctx, r.sql, sqlinline.QBillRollCall, billID)
	if err != nil {
		return nil, fmt.Errorf("bill roll call: %w", err)
	}
	items := make([]domain.RollCallVote, 0, len(recs))
	for _, rec := range recs {
		items = append(items, domain.RollCallVote{
			PersonID:       rec.int64("person_id"),
			LegislatorName: rec.str("legislator_name"),
			Party:          rec.str("party"),
			Vote:           rec.str("vote"),
			VoteDate:       rec.time("vote_date"),
			Motion:         rec.str("motion"),
		})
	}
	return items, nil
}

func (r *LegislatureRepositoryPG) ListBills(ctx context.Context, query string, sessionID int64, limit, offset int) ([]domain.Bill, error) {
	recs, err := queryAll(ctx, r.sql, sqlinline.QListBills, query, sessionID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list bills: %w", err)
	}
	items := make([]domain.Bill, 0, len(recs))
	for _, rec := range recs {
		items = append(items, billFromRecord(rec))
	}
	return items, nil
}

func (r *LegislatureRepositoryPG) ListSessions(ctx context.Context) ([]domain.Session, error) {
	recs, err := queryAll(ctx, r.sql, sqlinline.QListSessions)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	items := make([]domain.Session, 0, len(recs))
	for _, rec := range recs {
		items = append(items, domain.Session{
			ID:   rec.int64("session_id"),
			Name: rec.str("session_name"),
			Year: rec.int64("year"),
		})
	}
	return items, nil
}

func billFromRecord(rec record) domain.Bill {
	return domain.Bill{
		ID:             rec.int64("bill_id"),
		Number:         rec.str("bill_number"),
		ShortTitle:     rec.str("short_title"),
		SessionID:      rec.int64("session_id"),
		SessionName:    rec.str("session_name"),
		Status:         rec.str("status"),
		PrimarySponsor: rec.str("primary_sponsor"),
		IntroducedAt:   rec.time("introduced_date"),
	}
}

func billVotesFromRecords(recs []record, sessionID int64) []domain.BillVote {
	items := make([]domain.BillVote, 0, len(recs))
	for _, rec := range recs {
		items = append(items, domain.BillVote{
			BillID:     rec.int64("bill_id"),
			BillNumber: rec.str("bill_number"),
			ShortTitle: rec.str("short_title"),
			Vote:       rec.str("vote"),
			VoteDate:   rec.time("vote_date"),
			Motion:     rec.str("motion"),
			Outcome:    rec.str("outcome"),
			SessionID:  nonZero(rec.int64("session_id"), sessionID),
		})
	}
	return items
}

var _ domain.LegislatureRepository = (*LegislatureRepositoryPG)(nil)
