package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"

	"explorer/internal/bulkexport"
	"explorer/internal/domain"
	"explorer/internal/infra"
	"explorer/internal/listing"
	"explorer/internal/middleware"
	"explorer/internal/pagecache"
	"explorer/internal/scrapers"
	"explorer/internal/view"
)

// Pinger is satisfied by *pgxpool.Pool.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Repositories groups the remote data function adapters.
type Repositories struct {
	Finance     domain.FinanceRepository
	Legislature domain.LegislatureRepository
	Search      domain.SearchRepository
}

type sessionKey struct {
	PersonID  int64
	SessionID int64
}

type App struct {
	Config      *infra.Config
	Logger      infra.Logger
	DB          Pinger
	Finance     domain.FinanceRepository
	Legislature domain.LegislatureRepository
	Search      domain.SearchRepository
	Views       *view.Renderer
	Donations   *pagecache.Registry
	Exporter    *bulkexport.Service
	Console     *scrapers.Console

	billDetails  *listing.DetailCache[int64, billDetailView]
	sessionVotes *listing.DetailCache[sessionKey, []domain.BillVote]
}

func NewApp(cfg *infra.Config, logger infra.Logger, repos Repositories, views *view.Renderer, exporter *bulkexport.Service, console *scrapers.Console) *App {
	a := &App{
		Config:      cfg,
		Logger:      logger,
		Finance:     repos.Finance,
		Legislature: repos.Legislature,
		Search:      repos.Search,
		Views:       views,
		Donations:   pagecache.NewRegistry(repos.Finance, cfg.PageSize, cfg.ViewCacheTTL),
		Exporter:    exporter,
		Console:     console,
	}
	a.billDetails = listing.NewDetailCache(cfg.ViewCacheTTL, a.loadBillDetail)
	a.sessionVotes = listing.NewDetailCache(cfg.ViewCacheTTL, func(ctx context.Context, k sessionKey) ([]domain.BillVote, error) {
		return a.Legislature.PersonSessionBillVotes(ctx, k.PersonID, k.SessionID, a.Config.ListLimit, 0)
	})
	return a
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, status int, code, message string) {
	a.json(w, status, map[string]string{"error": message, "code": code})
}

func (a *App) formatter(r *http.Request) *view.Formatter {
	return view.NewFormatter(middleware.LocaleTag(middleware.LocaleFromContext(r.Context())))
}

func (a *App) page(w http.ResponseWriter, r *http.Request, status int, name, title, nav string, data any, warnings []string) {
	p := view.Page{Title: title, Nav: nav, Fmt: a.formatter(r), Warnings: warnings, Data: data}
	if err := a.Views.Page(w, status, name, p); err != nil {
		a.Logger.Error().Err(err).Str("page", name).Msg("render page")
		http.Error(w, "render failed", http.StatusInternalServerError)
	}
}

func (a *App) fragment(w http.ResponseWriter, r *http.Request, status int, name string, data any) {
	p := view.Page{Fmt: a.formatter(r), Data: data}
	if err := a.Views.Fragment(w, status, name, p); err != nil {
		a.Logger.Error().Err(err).Str("fragment", name).Msg("render fragment")
		http.Error(w, "render failed", http.StatusInternalServerError)
	}
}

// errorPage renders the full-page error view; every error reaches the user as
// its message string only.
func (a *App) errorPage(w http.ResponseWriter, r *http.Request, status int, message string) {
	a.page(w, r, status, "error", http.StatusText(status), "", errorView{Status: status, Message: message}, nil)
}

// fragmentError answers a fragment request with a plain message the page
// script shows in place.
func (a *App) fragmentError(w http.ResponseWriter, r *http.Request, status int, err error) {
	a.Logger.Warn().Err(err).Str("path", r.URL.Path).Msg("fragment load failed")
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(err.Error()))
}

// pathID parses a positive integer URL parameter. Ids are int4 upstream, so
// anything wider is rejected here.
func pathID(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(strings.TrimSpace(chi.URLParam(r, name)), 10, 32)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func queryInt(r *http.Request, name string) int {
	v, err := strconv.Atoi(r.URL.Query().Get(name))
	if err != nil || v < 0 {
		return 0
	}
	return v
}

func (a *App) window(r *http.Request) listing.Window {
	return listing.NewWindow(a.Config.ListLimit, queryInt(r, "offset"), a.Config.ListLimit)
}

// moreURL builds the next "Load More" address for a window, or "" when the
// list is exhausted.
func moreURL(path string, w listing.Window, params url.Values) string {
	if !w.HasMore {
		return ""
	}
	q := url.Values{}
	for k, v := range params {
		q[k] = v
	}
	q.Set("offset", strconv.Itoa(w.NextOffset()))
	return path + "?" + q.Encode()
}

// section is one independently loaded part of a page.
type section struct {
	name string
	load func(ctx context.Context) error
}

// loadSections runs every section concurrently and waits for all of them. A
// failed section becomes a warning; the others still render.
func (a *App) loadSections(ctx context.Context, sections ...section) []string {
	errs := make([]error, len(sections))
	var wg sync.WaitGroup
	for i, s := range sections {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = s.load(ctx)
		}()
	}
	wg.Wait()

	var warnings []string
	for i, err := range errs {
		if err == nil {
			continue
		}
		a.Logger.Warn().Err(err).Str("section", sections[i].name).Msg("section load failed")
		warnings = append(warnings, sections[i].name+": "+err.Error())
	}
	return warnings
}
