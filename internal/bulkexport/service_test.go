package bulkexport

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"explorer/internal/domain"
)

type fakeExportRepo struct {
	ids          []int64
	filters      domain.ExportFilters
	reports      []domain.Report
	transactions []domain.Transaction
	err          error
	calls        int
}

func (f *fakeExportRepo) ExportReports(ctx context.Context, ids []int64, filters domain.ExportFilters) ([]domain.Report, error) {
	f.calls++
	f.ids, f.filters = ids, filters
	return f.reports, f.err
}

func (f *fakeExportRepo) ExportTransactions(ctx context.Context, ids []int64, filters domain.ExportFilters) ([]domain.Transaction, error) {
	f.calls++
	f.ids, f.filters = ids, filters
	return f.transactions, f.err
}

type memStore struct {
	files  map[string][]byte
	pruned string
}

func (m *memStore) Write(ctx context.Context, key string, data []byte) (string, error) {
	if m.files == nil {
		m.files = map[string][]byte{}
	}
	m.files[key] = data
	return key, nil
}

func (m *memStore) URL(key string) string { return "http://files.test/static/" + key }

func (m *memStore) Prune(ctx context.Context, prefix string, cutoff time.Time) (int, error) {
	m.pruned = prefix
	return 0, nil
}

func newTestService(repo *fakeExportRepo, store *memStore) *Service {
	s := NewService(repo, store, 3, zerolog.Nop())
	s.now = func() time.Time { return time.Date(2024, 7, 4, 15, 30, 0, 0, time.UTC) }
	s.newID = func() string { return "0b5d" }
	return s
}

func TestExportTransactionsCSV(t *testing.T) {
	repo := &fakeExportRepo{transactions: []domain.Transaction{
		{EntityID: 4, Date: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), Amount: decimal.NewFromInt(100), Counterparty: "Smith, J", IsIncome: true},
		{EntityID: 7, Date: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), Amount: decimal.NewFromInt(20), Counterparty: "Print Shop"},
	}}
	store := &memStore{}
	res, err := newTestService(repo, store).Export(context.Background(), Request{
		Kind:      "transactions",
		EntityIDs: []int64{4, 7, 4},
		Filters:   Filters{DateFrom: "2024-01-01", DateTo: "2024-06-30"},
	})
	if err != nil {
		t.Fatalf("Export error: %v", err)
	}

	if diff := cmp.Diff([]int64{4, 7}, repo.ids); diff != "" {
		t.Fatalf("entity ids not deduplicated (-want +got):\n%s", diff)
	}
	if repo.filters.DateFrom.Format("2006-01-02") != "2024-01-01" || repo.filters.DateTo.Format("2006-01-02") != "2024-06-30" {
		t.Fatalf("unexpected filters %+v", repo.filters)
	}

	key := "exports/0b5d/transactions_20240704-153000.csv"
	data, ok := store.files[key]
	if !ok {
		t.Fatalf("export not stored under %s: %v", key, store.files)
	}
	want := &Result{
		RecordCount: 2,
		EntityCount: 2,
		SizeBytes:   len(data),
		URL:         "http://files.test/static/" + key,
		Filename:    "transactions_20240704-153000.csv",
	}
	if diff := cmp.Diff(want, res); diff != "" {
		t.Fatalf("unexpected result (-want +got):\n%s", diff)
	}
	if !strings.Contains(string(data), `"Smith, J"`) {
		t.Fatalf("csv missing quoted counterparty: %s", data)
	}
	if store.pruned != "exports" {
		t.Fatalf("expected expired exports to be pruned")
	}
}

func TestExportReportsZipPerEntity(t *testing.T) {
	repo := &fakeExportRepo{reports: []domain.Report{
		{EntityID: 2, Name: "Q1"},
		{EntityID: 5, Name: "Q1"},
		{EntityID: 2, Name: "Q2"},
	}}
	store := &memStore{}
	res, err := newTestService(repo, store).Export(context.Background(), Request{
		Kind:      "reports",
		EntityIDs: []int64{2, 5},
		Format:    "zip",
	})
	if err != nil {
		t.Fatalf("Export error: %v", err)
	}
	data := store.files["exports/0b5d/"+res.Filename]
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("open zip: %v", err)
	}
	var names []string
	for _, f := range zr.File {
		names = append(names, f.Name)
	}
	if diff := cmp.Diff([]string{"entity-2.csv", "entity-5.csv"}, names); diff != "" {
		t.Fatalf("unexpected archive entries (-want +got):\n%s", diff)
	}
	if res.RecordCount != 3 {
		t.Fatalf("expected 3 records, got %d", res.RecordCount)
	}
}

func TestExportValidation(t *testing.T) {
	cases := map[string]Request{
		"unknown kind":   {Kind: "votes", EntityIDs: []int64{1}},
		"no entities":    {Kind: "reports"},
		"negative id":    {Kind: "reports", EntityIDs: []int64{1, -2}},
		"id too wide":    {Kind: "reports", EntityIDs: []int64{1, 3000000000}},
		"too many":       {Kind: "reports", EntityIDs: []int64{1, 2, 3, 4}},
		"bad date":       {Kind: "reports", EntityIDs: []int64{1}, Filters: Filters{DateFrom: "01/02/2024"}},
		"inverted range": {Kind: "reports", EntityIDs: []int64{1}, Filters: Filters{DateFrom: "2024-05-01", DateTo: "2024-04-01"}},
		"unknown format": {Kind: "reports", EntityIDs: []int64{1}, Format: "pdf"},
	}
	for name, req := range cases {
		t.Run(name, func(t *testing.T) {
			repo := &fakeExportRepo{}
			_, err := newTestService(repo, &memStore{}).Export(context.Background(), req)
			if !IsInvalid(err) {
				t.Fatalf("expected validation error, got %v", err)
			}
			if repo.calls != 0 {
				t.Fatalf("invalid request must not query")
			}
		})
	}
}

func TestExportQueryFailure(t *testing.T) {
	repo := &fakeExportRepo{err: errors.New("canceling statement")}
	store := &memStore{}
	_, err := newTestService(repo, store).Export(context.Background(), Request{Kind: "reports", EntityIDs: []int64{1}})
	if err == nil || IsInvalid(err) {
		t.Fatalf("expected query error, got %v", err)
	}
	if len(store.files) != 0 {
		t.Fatalf("failed export must not store a file")
	}
}
