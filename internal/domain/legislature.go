package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PersonOverview is the legislative profile of a person.
type PersonOverview struct {
	ID           int64
	DisplayName  string
	Party        string
	Body         string
	District     string
	FirstSession string
	LastSession  string
	VoteCount    int64
	SponsorCount int64
}

type PersonSession struct {
	SessionID   int64
	SessionName string
	Year        int64
	Body        string
	VoteCount   int64
}

// PersonFinanceOverview joins a person to the entities that file on their
// behalf. Entities feeds the donation cache.
type PersonFinanceOverview struct {
	Entities      []EntityRef
	TotalRaised   decimal.Decimal
	TotalSpent    decimal.Decimal
	DonationCount int64
}

type BillVote struct {
	BillID     int64
	BillNumber string
	ShortTitle string
	Vote       string
	VoteDate   time.Time
	Motion     string
	Outcome    string
	SessionID  int64
}

type Bill struct {
	ID             int64
	Number         string
	ShortTitle     string
	SessionID      int64
	SessionName    string
	Status         string
	PrimarySponsor string
	IntroducedAt   time.Time
}

type Sponsor struct {
	PersonID    int64
	Name        string
	Party       string
	SponsorType string
}

type BillDetails struct {
	Bill
	Title       string
	Description string
	Sponsors    []Sponsor
}

type RollCallVote struct {
	PersonID       int64
	LegislatorName string
	Party          string
	Vote           string
	VoteDate       time.Time
	Motion         string
}

type Session struct {
	ID   int64
	Name string
	Year int64
}
