package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// EntityRef identifies a filing entity (committee or candidate account) linked
// to a person.
type EntityRef struct {
	ID   int64
	Name string
}

// EntityDetails is the header block of the entity page.
type EntityDetails struct {
	ID            int64
	Name          string
	EntityType    string
	Party         string
	Office        string
	Status        string
	CandidateName string
	Address       string
	RegisteredAt  time.Time
}

// FinancialSummary aggregates an entity's money in and out.
type FinancialSummary struct {
	TotalIncome      decimal.Decimal
	TotalExpense     decimal.Decimal
	NetFlow          decimal.Decimal
	CashOnHand       decimal.Decimal
	TransactionCount int64
	FirstActivity    time.Time
	LastActivity     time.Time
}

type SummaryStats struct {
	DonationCount   int64
	UniqueDonors    int64
	AverageDonation decimal.Decimal
	LargestDonation decimal.Decimal
	ReportCount     int64
}

// Transaction is a single line item from an entity's filings.
type Transaction struct {
	ID           int64
	EntityID     int64
	Date         time.Time
	Amount       decimal.Decimal
	Counterparty string
	Category     string
	Occupation   string
	Employer     string
	Memo         string
	IsIncome     bool
}

type Report struct {
	ID           int64
	EntityID     int64
	Name         string
	FiledAt      time.Time
	PeriodStart  time.Time
	PeriodEnd    time.Time
	Receipts     decimal.Decimal
	Expenditures decimal.Decimal
	CashBalance  decimal.Decimal
	URL          string
}

type TopDonor struct {
	Name          string
	TotalAmount   decimal.Decimal
	DonationCount int64
	LastDonation  time.Time
}
