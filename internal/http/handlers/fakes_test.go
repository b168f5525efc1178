package handlers

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"explorer/internal/bulkexport"
	"explorer/internal/domain"
	"explorer/internal/infra"
	"explorer/internal/scrapers"
	"explorer/internal/view"
)

var errBoom = errors.New("boom")

type fakeFinance struct {
	mu            sync.Mutex
	details       *domain.EntityDetails
	detailsErr    error
	transactions  []domain.Transaction
	donations     map[int64][]domain.Donation
	donationCalls int
	entered       chan struct{}
	release       chan struct{}
}

func (f *fakeFinance) EntityDetails(ctx context.Context, id int64) (*domain.EntityDetails, error) {
	if f.detailsErr != nil {
		return nil, f.detailsErr
	}
	if f.details != nil {
		return f.details, nil
	}
	return &domain.EntityDetails{ID: id, Name: "Committee to Elect Smith"}, nil
}

func (f *fakeFinance) EntityFinancialSummary(ctx context.Context, id int64) (*domain.FinancialSummary, error) {
	return &domain.FinancialSummary{}, nil
}

func (f *fakeFinance) EntitySummaryStats(ctx context.Context, id int64) (*domain.SummaryStats, error) {
	return &domain.SummaryStats{}, nil
}

func (f *fakeFinance) EntityTransactions(ctx context.Context, id int64, limit, offset int) ([]domain.Transaction, error) {
	return batch(f.transactions, limit, offset), nil
}

func (f *fakeFinance) EntityDonations(ctx context.Context, id int64, limit, offset int) ([]domain.Donation, error) {
	f.mu.Lock()
	f.donationCalls++
	entered, release := f.entered, f.release
	f.mu.Unlock()
	if entered != nil {
		entered <- struct{}{}
		<-release
	}
	return batch(f.donations[id], limit, offset), nil
}

func (f *fakeFinance) EntityReports(ctx context.Context, id int64, limit, offset int) ([]domain.Report, error) {
	return nil, nil
}

func (f *fakeFinance) EntityTopDonors(ctx context.Context, id int64, limit, offset int) ([]domain.TopDonor, error) {
	return nil, nil
}

func (f *fakeFinance) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.donationCalls
}

type fakeLegislature struct {
	mu          sync.Mutex
	overview    *domain.PersonOverview
	sessionsErr error
	finance     *domain.PersonFinanceOverview
	votes       []domain.BillVote
	bills       []domain.Bill
	billCalls   int
	rollCalls   int
	lastQuery   string
	lastSession int64
}

func (f *fakeLegislature) PersonOverview(ctx context.Context, id int64) (*domain.PersonOverview, error) {
	if f.overview == nil {
		return nil, domain.ErrNotFound
	}
	return f.overview, nil
}

func (f *fakeLegislature) PersonSessions(ctx context.Context, id int64) ([]domain.PersonSession, error) {
	if f.sessionsErr != nil {
		return nil, f.sessionsErr
	}
	return []domain.PersonSession{{SessionID: 3, SessionName: "2023 Regular", Year: 2023}}, nil
}

func (f *fakeLegislature) PersonFinanceOverview(ctx context.Context, id int64) (*domain.PersonFinanceOverview, error) {
	if f.finance == nil {
		return &domain.PersonFinanceOverview{}, nil
	}
	return f.finance, nil
}

func (f *fakeLegislature) PersonSessionBillVotes(ctx context.Context, personID, sessionID int64, limit, offset int) ([]domain.BillVote, error) {
	return batch(f.votes, limit, offset), nil
}

func (f *fakeLegislature) PersonVotes(ctx context.Context, id int64, limit, offset int) ([]domain.BillVote, error) {
	return batch(f.votes, limit, offset), nil
}

func (f *fakeLegislature) BillDetails(ctx context.Context, id int64) (*domain.BillDetails, error) {
	f.mu.Lock()
	f.billCalls++
	f.mu.Unlock()
	return &domain.BillDetails{Bill: domain.Bill{ID: id, Number: "HB2001"}, Title: "Water rights"}, nil
}

func (f *fakeLegislature) BillRollCall(ctx context.Context, id int64) ([]domain.RollCallVote, error) {
	f.mu.Lock()
	f.rollCalls++
	f.mu.Unlock()
	return []domain.RollCallVote{{PersonID: 11, LegislatorName: "Ana Reyes", Vote: "Yea"}}, nil
}

func (f *fakeLegislature) ListBills(ctx context.Context, query string, sessionID int64, limit, offset int) ([]domain.Bill, error) {
	f.mu.Lock()
	f.lastQuery, f.lastSession = query, sessionID
	f.mu.Unlock()
	return batch(f.bills, limit, offset), nil
}

func (f *fakeLegislature) ListSessions(ctx context.Context) ([]domain.Session, error) {
	return []domain.Session{{ID: 3, Name: "2023 Regular", Year: 2023}}, nil
}

type fakeSearch struct {
	results []domain.SearchResult
	err     error
}

func (f *fakeSearch) Search(ctx context.Context, q string, limit, offset int) ([]domain.SearchResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	return batch(f.results, limit, offset), nil
}

type fakeExportRepo struct {
	reports []domain.Report
}

func (f *fakeExportRepo) ExportReports(ctx context.Context, ids []int64, filters domain.ExportFilters) ([]domain.Report, error) {
	return f.reports, nil
}

func (f *fakeExportRepo) ExportTransactions(ctx context.Context, ids []int64, filters domain.ExportFilters) ([]domain.Transaction, error) {
	return nil, nil
}

type memStore struct {
	mu    sync.Mutex
	files map[string][]byte
}

func (m *memStore) Write(ctx context.Context, key string, data []byte) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.files == nil {
		m.files = map[string][]byte{}
	}
	m.files[key] = data
	return key, nil
}

func (m *memStore) URL(key string) string { return "/static/" + key }

func (m *memStore) Prune(ctx context.Context, prefix string, cutoff time.Time) (int, error) {
	return 0, nil
}

// fakeController accepts every start and holds each log stream open until
// it is detached.
type fakeController struct {
	startErr error
}

func (c *fakeController) Start(ctx context.Context, worker string) error { return c.startErr }

func (c *fakeController) Stop(ctx context.Context, worker string) error { return nil }

func (c *fakeController) Stream(ctx context.Context, worker string, fn func(domain.LogLine)) error {
	<-ctx.Done()
	return ctx.Err()
}

func batch[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return nil
	}
	return items[offset:min(offset+limit, len(items))]
}

type testEnv struct {
	app         *App
	router      http.Handler
	finance     *fakeFinance
	legislature *fakeLegislature
	search      *fakeSearch
	exports     *fakeExportRepo
	console     *scrapers.Console
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	views, err := view.NewRenderer()
	if err != nil {
		t.Fatalf("NewRenderer error: %v", err)
	}
	cfg := &infra.Config{
		PageSize:          2,
		ListLimit:         2,
		ViewCacheTTL:      time.Minute,
		ExportMaxEntities: 5,
	}
	env := &testEnv{
		finance:     &fakeFinance{},
		legislature: &fakeLegislature{overview: &domain.PersonOverview{ID: 7, DisplayName: "Ana Reyes"}},
		search:      &fakeSearch{},
		exports:     &fakeExportRepo{},
	}
	log := zerolog.Nop()
	env.console = scrapersConsole(t, &fakeController{})
	exporter := bulkexport.NewService(env.exports, &memStore{}, cfg.ExportMaxEntities, log)
	env.app = NewApp(cfg, log, Repositories{
		Finance:     env.finance,
		Legislature: env.legislature,
		Search:      env.search,
	}, views, exporter, env.console)
	env.router = testRoutes(env.app)
	return env
}

func testRoutes(a *App) http.Handler {
	r := chi.NewRouter()
	r.Get("/v1/healthz", a.Health)
	r.Get("/", a.Home)
	r.Get("/search/more", a.SearchMore)
	r.Get("/entities/{id}", a.EntityPage)
	r.Get("/entities/{id}/transactions", a.EntityTransactions)
	r.Get("/entities/{id}/transactions.csv", a.EntityTransactionsCSV)
	r.Get("/people/{id}", a.PersonPage)
	r.Get("/people/{id}/donations", a.PersonDonations)
	r.Get("/people/{id}/donations.csv", a.PersonDonationsCSV)
	r.Get("/people/{id}/sessions/{sessionID}/votes", a.PersonSessionVotes)
	r.Get("/bills", a.BillsPage)
	r.Get("/bills/more", a.BillsMore)
	r.Get("/bills/{id}/detail", a.BillDetail)
	r.Post("/api/legislature/bulk-export", a.BulkExport)
	r.Post("/admin/scrapers/{worker}/start", a.ScraperStart)
	r.Post("/admin/scrapers/{worker}/stop", a.ScraperStop)
	r.Get("/admin/scrapers/{worker}/logs", a.ScraperLogs)
	r.Get("/admin/scrapers/{worker}/events", a.ScraperEvents)
	return r
}

func scrapersConsole(t *testing.T, ctl scrapers.Controller) *scrapers.Console {
	t.Helper()
	c := scrapers.NewConsole(ctl, []string{"campaign-finance", "legislature"}, 50, zerolog.Nop())
	t.Cleanup(c.Close)
	return c
}
