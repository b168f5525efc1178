package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"explorer/internal/csvexport"
	"explorer/internal/domain"
	"explorer/internal/listing"
)

// EntityPage loads the header, money summary and stats of an entity
// independently, plus the first batch of every list.
func (a *App) EntityPage(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		a.errorPage(w, r, http.StatusBadRequest, "Invalid entity ID")
		return
	}

	v := entityView{ID: id}
	var detailsErr error
	warnings := a.loadSections(r.Context(),
		section{"Entity details", func(ctx context.Context) error {
			v.Details, detailsErr = a.Finance.EntityDetails(ctx, id)
			return detailsErr
		}},
		section{"Financial summary", func(ctx context.Context) (err error) {
			v.Summary, err = a.Finance.EntityFinancialSummary(ctx, id)
			return err
		}},
		section{"Summary stats", func(ctx context.Context) (err error) {
			v.Stats, err = a.Finance.EntitySummaryStats(ctx, id)
			return err
		}},
		section{"Transactions", func(ctx context.Context) (err error) {
			v.Transactions, err = a.entityTransactions(ctx, id, a.firstWindow())
			return err
		}},
		section{"Donations", func(ctx context.Context) (err error) {
			v.Donations, err = a.entityDonations(ctx, id, a.firstWindow())
			return err
		}},
		section{"Reports", func(ctx context.Context) (err error) {
			v.Reports, err = a.entityReports(ctx, id, a.firstWindow())
			return err
		}},
		section{"Top donors", func(ctx context.Context) (err error) {
			v.TopDonors, err = a.entityTopDonors(ctx, id, a.firstWindow())
			return err
		}},
	)
	if errors.Is(detailsErr, domain.ErrNotFound) {
		a.errorPage(w, r, http.StatusNotFound, "Entity not found")
		return
	}

	title := "Entity " + strconv.FormatInt(id, 10)
	if v.Details != nil && v.Details.Name != "" {
		title = v.Details.Name
	}
	a.page(w, r, http.StatusOK, "entity", title, "search", v, warnings)
}

func (a *App) firstWindow() listing.Window {
	return listing.NewWindow(a.Config.ListLimit, 0, a.Config.ListLimit)
}

func (a *App) EntityTransactions(w http.ResponseWriter, r *http.Request) {
	a.entityFragment(w, r, "transaction_rows", a.entityTransactions)
}

func (a *App) EntityDonations(w http.ResponseWriter, r *http.Request) {
	a.entityFragment(w, r, "donation_rows", a.entityDonations)
}

func (a *App) EntityReports(w http.ResponseWriter, r *http.Request) {
	a.entityFragment(w, r, "report_rows", a.entityReports)
}

func (a *App) EntityTopDonors(w http.ResponseWriter, r *http.Request) {
	a.entityFragment(w, r, "top_donor_rows", a.entityTopDonors)
}

type entityLoader func(ctx context.Context, id int64, win listing.Window) (rowsView, error)

func (a *App) entityFragment(w http.ResponseWriter, r *http.Request, name string, load entityLoader) {
	id, ok := pathID(r, "id")
	if !ok {
		a.fragmentError(w, r, http.StatusBadRequest, errors.New("Invalid entity ID"))
		return
	}
	rows, err := load(r.Context(), id, a.window(r))
	if err != nil {
		a.fragmentError(w, r, http.StatusBadGateway, err)
		return
	}
	a.fragment(w, r, http.StatusOK, name, rows)
}

func (a *App) entityTransactions(ctx context.Context, id int64, win listing.Window) (rowsView, error) {
	items, err := a.Finance.EntityTransactions(ctx, id, win.Limit, win.Offset)
	if err != nil {
		return rowsView{}, err
	}
	win.Advance(len(items))
	return rowsView{Items: items, MoreURL: moreURL(fmt.Sprintf("/entities/%d/transactions", id), win, nil), Columns: 5}, nil
}

func (a *App) entityDonations(ctx context.Context, id int64, win listing.Window) (rowsView, error) {
	items, err := a.Finance.EntityDonations(ctx, id, win.Limit, win.Offset)
	if err != nil {
		return rowsView{}, err
	}
	win.Advance(len(items))
	return rowsView{Items: items, MoreURL: moreURL(fmt.Sprintf("/entities/%d/donations", id), win, nil), Columns: 4}, nil
}

func (a *App) entityReports(ctx context.Context, id int64, win listing.Window) (rowsView, error) {
	items, err := a.Finance.EntityReports(ctx, id, win.Limit, win.Offset)
	if err != nil {
		return rowsView{}, err
	}
	win.Advance(len(items))
	return rowsView{Items: items, MoreURL: moreURL(fmt.Sprintf("/entities/%d/reports", id), win, nil), Columns: 6}, nil
}

func (a *App) entityTopDonors(ctx context.Context, id int64, win listing.Window) (rowsView, error) {
	items, err := a.Finance.EntityTopDonors(ctx, id, win.Limit, win.Offset)
	if err != nil {
		return rowsView{}, err
	}
	win.Advance(len(items))
	return rowsView{Items: items, MoreURL: moreURL(fmt.Sprintf("/entities/%d/top-donors", id), win, nil), Columns: 4}, nil
}

// exportBatch is the page size used when walking a paged function to the end
// for a download.
const exportBatch = 500

// EntityTransactionsCSV downloads every transaction of an entity.
func (a *App) EntityTransactionsCSV(w http.ResponseWriter, r *http.Request) {
	id, format, ok := a.exportParams(w, r)
	if !ok {
		return
	}
	items, err := collectAll(r.Context(), func(ctx context.Context, limit, offset int) ([]domain.Transaction, error) {
		return a.Finance.EntityTransactions(ctx, id, limit, offset)
	})
	if err != nil {
		a.errorPage(w, r, http.StatusBadGateway, err.Error())
		return
	}
	a.serveTable(w, format, fmt.Sprintf("entity-%d-transactions", id), csvexport.TransactionColumns, csvexport.TransactionRows(items))
}

// EntityDonationsCSV downloads every donation of an entity.
func (a *App) EntityDonationsCSV(w http.ResponseWriter, r *http.Request) {
	id, format, ok := a.exportParams(w, r)
	if !ok {
		return
	}
	items, err := collectAll(r.Context(), func(ctx context.Context, limit, offset int) ([]domain.Donation, error) {
		return a.Finance.EntityDonations(ctx, id, limit, offset)
	})
	if err != nil {
		a.errorPage(w, r, http.StatusBadGateway, err.Error())
		return
	}
	a.serveTable(w, format, fmt.Sprintf("entity-%d-donations", id), csvexport.DonationColumns, csvexport.DonationRows(items))
}

func (a *App) exportParams(w http.ResponseWriter, r *http.Request) (int64, csvexport.Format, bool) {
	id, ok := pathID(r, "id")
	if !ok {
		a.errorPage(w, r, http.StatusBadRequest, "Invalid entity ID")
		return 0, "", false
	}
	format, err := csvexport.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		a.errorPage(w, r, http.StatusBadRequest, err.Error())
		return 0, "", false
	}
	return id, format, true
}

func (a *App) serveTable(w http.ResponseWriter, format csvexport.Format, base string, cols []csvexport.Column, rows []csvexport.Row) {
	if err := csvexport.Serve(w, format, base, cols, rows); err != nil {
		a.Logger.Error().Err(err).Str("file", base).Msg("serve export")
	}
}

// collectAll pages through fetch until a short batch.
func collectAll[T any](ctx context.Context, fetch func(ctx context.Context, limit, offset int) ([]T, error)) ([]T, error) {
	var all []T
	win := listing.NewWindow(exportBatch, 0, exportBatch)
	for {
		items, err := fetch(ctx, win.Limit, win.Offset)
		if err != nil {
			return nil, err
		}
		all = append(all, items...)
		win.Advance(len(items))
		if !win.HasMore {
			return all, nil
		}
	}
}
