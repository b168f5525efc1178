package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Donation is an immutable contribution record received by an entity.
type Donation struct {
	ID          int64
	EntityID    int64
	EntityName  string
	Date        time.Time
	Amount      decimal.Decimal
	DonorName   string
	Description string
}
