package csvexport

import (
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"explorer/internal/domain"
)

const dateLayout = "2006-01-02"

var TransactionColumns = []Column{
	{Key: "entity_id", Label: "Entity ID"},
	{Key: "date", Label: "Date"},
	{Key: "counterparty", Label: "Name"},
	{Key: "category", Label: "Type"},
	{Key: "amount", Label: "Amount"},
	{Key: "direction", Label: "Direction"},
	{Key: "occupation", Label: "Occupation"},
	{Key: "employer", Label: "Employer"},
	{Key: "memo", Label: "Memo"},
}

var DonationColumns = []Column{
	{Key: "date", Label: "Date"},
	{Key: "entity", Label: "Entity"},
	{Key: "donor", Label: "Donor"},
	{Key: "amount", Label: "Amount"},
	{Key: "description", Label: "Description"},
}

var ReportColumns = []Column{
	{Key: "entity_id", Label: "Entity ID"},
	{Key: "name", Label: "Report"},
	{Key: "filed", Label: "Filed"},
	{Key: "period_start", Label: "Period Start"},
	{Key: "period_end", Label: "Period End"},
	{Key: "receipts", Label: "Receipts"},
	{Key: "expenditures", Label: "Expenditures"},
	{Key: "cash_balance", Label: "Cash Balance"},
	{Key: "url", Label: "URL"},
}

func TransactionRows(items []domain.Transaction) []Row {
	rows := make([]Row, 0, len(items))
	for _, t := range items {
		direction := "expense"
		if t.IsIncome {
			direction = "income"
		}
		rows = append(rows, Row{
			"entity_id":    idString(t.EntityID),
			"date":         dateString(t.Date),
			"counterparty": t.Counterparty,
			"category":     t.Category,
			"amount":       moneyString(t.Amount),
			"direction":    direction,
			"occupation":   t.Occupation,
			"employer":     t.Employer,
			"memo":         t.Memo,
		})
	}
	return rows
}

func DonationRows(items []domain.Donation) []Row {
	rows := make([]Row, 0, len(items))
	for _, d := range items {
		rows = append(rows, Row{
			"date":        dateString(d.Date),
			"entity":      d.EntityName,
			"donor":       d.DonorName,
			"amount":      moneyString(d.Amount),
			"description": d.Description,
		})
	}
	return rows
}

func ReportRows(items []domain.Report) []Row {
	rows := make([]Row, 0, len(items))
	for _, r := range items {
		rows = append(rows, Row{
			"entity_id":    idString(r.EntityID),
			"name":         r.Name,
			"filed":        dateString(r.FiledAt),
			"period_start": dateString(r.PeriodStart),
			"period_end":   dateString(r.PeriodEnd),
			"receipts":     moneyString(r.Receipts),
			"expenditures": moneyString(r.Expenditures),
			"cash_balance": moneyString(r.CashBalance),
			"url":          r.URL,
		})
	}
	return rows
}

func dateString(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(dateLayout)
}

func moneyString(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func idString(id int64) string {
	if id == 0 {
		return ""
	}
	return strconv.FormatInt(id, 10)
}
