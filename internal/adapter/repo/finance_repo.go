package repo

import (
	"context"
	"fmt"

	"explorer/internal/domain"
	"explorer/internal/infra"
	"explorer/internal/sqlinline"
)

// FinanceRepositoryPG implements domain.FinanceRepository on the Postgres
// remote functions.
type FinanceRepositoryPG struct {
	sql infra.SQLExecutor
}

// NewFinanceRepository creates a finance repository.
func NewFinanceRepository(sql infra.SQLExecutor) *FinanceRepositoryPG {
	return &FinanceRepositoryPG{sql: sql}
}

func (r *FinanceRepositoryPG) EntityDetails(ctx context.Context, entityID int64) (*domain.EntityDetails, error) {
	rec, err := queryOne(ctx, r.sql, sqlinline.QEntityDetails, entityID)
	if err != nil {
		return nil, fmt.Errorf("entity details: %w", err)
	}
	return &domain.EntityDetails{
		ID:            nonZero(rec.int64("entity_id"), entityID),
		Name:          rec.str("entity_name"),
		EntityType:    rec.str("entity_type"),
		Party:         rec.str("party_name"),
		Office:        rec.str("office_name"),
		Status:        rec.str("status"),
		CandidateName: rec.str("candidate_name"),
		Address:       rec.str("address"),
		RegisteredAt:  rec.time("registration_date"),
	}, nil
}

func (r *FinanceRepositoryPG) EntityFinancialSummary(ctx context.Context, entityID int64) (*domain.FinancialSummary, error) {
	rec, err := queryOne(ctx, r.sql, sqlinline.QEntityFinancialSummary, entityID)
	if err != nil {
		return nil, fmt.Errorf("entity financial summary: %w", err)
	}
	return &domain.FinancialSummary{
		TotalIncome:      rec.decimal("total_income"),
		TotalExpense:     rec.decimal("total_expense"),
		NetFlow:          rec.decimal("net_flow"),
		CashOnHand:       rec.decimal("cash_on_hand"),
		TransactionCount: rec.int64("transaction_count"),
		FirstActivity:    rec.time("first_activity"),
		LastActivity:     rec.time("last_activity"),
	}, nil
}

func (r *FinanceRepositoryPG) EntitySummaryStats(ctx context.Context, entityID int64) (*domain.SummaryStats, error) {
	rec, err := queryOne(ctx, r.sql, sqlinline.QEntitySummaryStats, entityID)
	if err != nil {
		return nil, fmt.Errorf("entity summary stats: %w", err)
	}
	return &domain.SummaryStats{
		DonationCount:   rec.int64("donation_count"),
		UniqueDonors:    rec.int64("unique_donors"),
		AverageDonation: rec.decimal("avg_donation"),
		LargestDonation: rec.decimal("largest_donation"),
		ReportCount:     rec.int64("report_count"),
	}, nil
}

func (r *FinanceRepositoryPG) EntityTransactions(ctx context.Context, entityID int64, limit, offset int) ([]domain.Transaction, error) {
	recs, err := queryAll(ctx, r.sql, sqlinline.QEntityTransactions, entityID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("entity transactions: %w", err)
	}
	items := make([]domain.Transaction, 0, len(recs))
	for _, rec := range recs {
		items = append(items, transactionFromRecord(rec, entityID))
	}
	return items, nil
}

func (r *FinanceRepositoryPG) EntityDonations(ctx context.Context, entityID int64, limit, offset int) ([]domain.Donation, error) {
	recs, err := queryAll(ctx, r.sql, sqlinline.QEntityDonations, entityID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("entity donations: %w", err)
	}
	items := make([]domain.Donation, 0, len(recs))
	for _, rec := range recs {
		items = append(items, domain.Donation{
			ID:          rec.int64("transaction_id"),
			EntityID:    nonZero(rec.int64("entity_id"), entityID),
			EntityName:  rec.str("entity_name"),
			Date:        rec.time("transaction_date"),
			Amount:      rec.decimal("amount"),
			DonorName:   rec.str("donor_name"),
			Description: rec.str("description"),
		})
	}
	return items, nil
}

func (r *FinanceRepositoryPG) EntityReports(ctx context.Context, entityID int64, limit, offset int) ([]domain.Report, error) {
	recs, err := queryAll(ctx, r.sql, sqlinline.QEntityReports, entityID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("entity reports: %w", err)
	}
	items := make([]domain.Report, 0, len(recs))
	for _, rec := range recs {
		items = append(items, reportFromRecord(rec, entityID))
	}
	return items, nil
}

func (r *FinanceRepositoryPG) EntityTopDonors(ctx context.Context, entityID int64, limit, offset int) ([]domain.TopDonor, error) {
	recs, err := queryAll(ctx, r.sql, sqlinline.QEntityTopDonors, entityID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("entity top donors: %w", err)
	}
	items := make([]domain.TopDonor, 0, len(recs))
	for _, rec := range recs {
		items = append(items, domain.TopDonor{
			Name:          rec.str("donor_name"),
			TotalAmount:   rec.decimal("total_amount"),
			DonationCount: rec.int64("donation_count"),
			LastDonation:  rec.time("last_donation_date"),
		})
	}
	return items, nil
}

func transactionFromRecord(rec record, entityID int64) domain.Transaction {
	return domain.Transaction{
		ID:           rec.int64("transaction_id"),
		EntityID:     nonZero(rec.int64("entity_id"), entityID),
		Date:         rec.time("transaction_date"),
		Amount:       rec.decimal("amount"),
		Counterparty: rec.str("name"),
		Category:     rec.str("transaction_type"),
		Occupation:   rec.str("occupation"),
		Employer:     rec.str("employer"),
		Memo:         rec.str("memo"),
		IsIncome:     rec.bool("is_income"),
	}
}

func reportFromRecord(rec record, entityID int64) domain.Report {
	return domain.Report{
		ID:           rec.int64("report_id"),
		EntityID:     nonZero(rec.int64("entity_id"), entityID),
		Name:         rec.str("report_name"),
		FiledAt:      rec.time("filing_date"),
		PeriodStart:  rec.time("period_start"),
		PeriodEnd:    rec.time("period_end"),
		Receipts:     rec.decimal("total_receipts"),
		Expenditures: rec.decimal("total_expenditures"),
		CashBalance:  rec.decimal("cash_balance"),
		URL:          rec.str("pdf_url"),
	}
}

var _ domain.FinanceRepository = (*FinanceRepositoryPG)(nil)
