package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"explorer/internal/domain"
	"explorer/internal/listing"
)

const billColumns = 6

// BillsPage lists bills filtered by a free-text query and an optional session.
func (a *App) BillsPage(w http.ResponseWriter, r *http.Request) {
	query, sessionID := billFilters(r)
	v := billsView{Query: query, SessionID: sessionID}
	warnings := a.loadSections(r.Context(),
		section{"Sessions", func(ctx context.Context) (err error) {
			v.Sessions, err = a.Legislature.ListSessions(ctx)
			return err
		}},
		section{"Bills", func(ctx context.Context) (err error) {
			v.Rows, err = a.bills(ctx, query, sessionID, a.firstWindow())
			return err
		}},
	)
	a.page(w, r, http.StatusOK, "bills", "Bills", "bills", v, warnings)
}

// BillsMore serves the next batch of bill rows for the same filters.
func (a *App) BillsMore(w http.ResponseWriter, r *http.Request) {
	query, sessionID := billFilters(r)
	rows, err := a.bills(r.Context(), query, sessionID, a.window(r))
	if err != nil {
		a.fragmentError(w, r, http.StatusBadGateway, err)
		return
	}
	a.fragment(w, r, http.StatusOK, "bill_rows", rows)
}

func (a *App) bills(ctx context.Context, query string, sessionID int64, win listing.Window) (rowsView, error) {
	items, err := a.Legislature.ListBills(ctx, query, sessionID, win.Limit, win.Offset)
	if err != nil {
		return rowsView{}, err
	}
	win.Advance(len(items))
	params := url.Values{}
	if query != "" {
		params.Set("q", query)
	}
	if sessionID > 0 {
		params.Set("session", strconv.FormatInt(sessionID, 10))
	}
	return rowsView{Items: items, MoreURL: moreURL("/bills/more", win, params), Columns: billColumns}, nil
}

func billFilters(r *http.Request) (string, int64) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	session, err := strconv.ParseInt(r.URL.Query().Get("session"), 10, 64)
	if err != nil || session < 0 {
		session = 0
	}
	return q, session
}

// BillDetail renders the expanded row of a bill. Details and roll call are
// fetched together once and then served from the detail cache.
func (a *App) BillDetail(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		a.fragmentError(w, r, http.StatusBadRequest, errors.New("Invalid bill ID"))
		return
	}
	v, err := a.billDetails.Get(r.Context(), id)
	if err != nil {
		status := http.StatusBadGateway
		if errors.Is(err, domain.ErrNotFound) {
			status = http.StatusNotFound
		}
		a.fragmentError(w, r, status, err)
		return
	}
	a.fragment(w, r, http.StatusOK, "bill_detail", v)
}

func (a *App) loadBillDetail(ctx context.Context, id int64) (billDetailView, error) {
	var v billDetailView
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		v.Details, err = a.Legislature.BillDetails(ctx, id)
		return err
	})
	g.Go(func() (err error) {
		v.RollCall, err = a.Legislature.BillRollCall(ctx, id)
		return err
	})
	if err := g.Wait(); err != nil {
		return billDetailView{}, err
	}
	return v, nil
}
