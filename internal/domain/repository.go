package domain

import "context"

// FinanceRepository exposes the campaign-finance remote functions.
type FinanceRepository interface {
	EntityDetails(ctx context.Context, entityID int64) (*EntityDetails, error)
	EntityFinancialSummary(ctx context.Context, entityID int64) (*FinancialSummary, error)
	EntitySummaryStats(ctx context.Context, entityID int64) (*SummaryStats, error)
	EntityTransactions(ctx context.Context, entityID int64, limit, offset int) ([]Transaction, error)
	EntityDonations(ctx context.Context, entityID int64, limit, offset int) ([]Donation, error)
	EntityReports(ctx context.Context, entityID int64, limit, offset int) ([]Report, error)
	EntityTopDonors(ctx context.Context, entityID int64, limit, offset int) ([]TopDonor, error)
}

// LegislatureRepository exposes the person and bill remote functions.
type LegislatureRepository interface {
	PersonOverview(ctx context.Context, personID int64) (*PersonOverview, error)
	PersonSessions(ctx context.Context, personID int64) ([]PersonSession, error)
	PersonFinanceOverview(ctx context.Context, personID int64) (*PersonFinanceOverview, error)
	PersonSessionBillVotes(ctx context.Context, personID, sessionID int64, limit, offset int) ([]BillVote, error)
	PersonVotes(ctx context.Context, personID int64, limit, offset int) ([]BillVote, error)
	BillDetails(ctx context.Context, billID int64) (*BillDetails, error)
	BillRollCall(ctx context.Context, billID int64) ([]RollCallVote, error)
	ListBills(ctx context.Context, query string, sessionID int64, limit, offset int) ([]Bill, error)
	ListSessions(ctx context.Context) ([]Session, error)
}

// SearchRepository runs the free-text entity/person search.
type SearchRepository interface {
	Search(ctx context.Context, query string, limit, offset int) ([]SearchResult, error)
}

// ExportRepository streams every record of a kind for a set of entities.
type ExportRepository interface {
	ExportReports(ctx context.Context, entityIDs []int64, filters ExportFilters) ([]Report, error)
	ExportTransactions(ctx context.Context, entityIDs []int64, filters ExportFilters) ([]Transaction, error)
}
