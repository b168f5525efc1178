package handlers

import (
	"explorer/internal/domain"
	"explorer/internal/scrapers"
)

// rowsView is one batch of a "Load More" list. MoreURL is empty once the
// upstream returned a short batch.
type rowsView struct {
	Items   any
	MoreURL string
	Columns int
}

type searchView struct {
	Query    string
	Searched bool
	Rows     rowsView
}

type entityView struct {
	ID           int64
	Details      *domain.EntityDetails
	Summary      *domain.FinancialSummary
	Stats        *domain.SummaryStats
	Transactions rowsView
	Donations    rowsView
	Reports      rowsView
	TopDonors    rowsView
}

type personView struct {
	ID        int64
	Overview  *domain.PersonOverview
	Sessions  []domain.PersonSession
	Finance   *domain.PersonFinanceOverview
	Donations donationPageView
	Votes     rowsView
}

// donationPageView is one page of the merged donation stream of a person.
type donationPageView struct {
	PersonID int64
	View     string
	Page     int
	Records  []domain.Donation
	HasMore  bool
	Message  string
}

func (v donationPageView) HasPrev() bool { return v.Page > 0 }
func (v donationPageView) PrevPage() int { return max(v.Page-1, 0) }
func (v donationPageView) NextPage() int { return v.Page + 1 }
func (v donationPageView) Number() int   { return v.Page + 1 }

type billsView struct {
	Query     string
	SessionID int64
	Sessions  []domain.Session
	Rows      rowsView
}

type billDetailView struct {
	Details  *domain.BillDetails
	RollCall []domain.RollCallVote
}

type exportsView struct {
	MaxEntities int
}

type scrapersView struct {
	Workers []scrapers.WorkerState
}

type errorView struct {
	Status  int
	Message string
}
