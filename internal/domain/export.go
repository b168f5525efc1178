package domain

import "time"

// ExportKind selects the record family of a bulk export.
type ExportKind string

const (
	ExportReports      ExportKind = "reports"
	ExportTransactions ExportKind = "transactions"
)

// ExportFilters bounds a bulk export by date. Zero values mean unbounded.
type ExportFilters struct {
	DateFrom time.Time
	DateTo   time.Time
}
