package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"explorer/internal/csvexport"
	"explorer/internal/domain"
	"explorer/internal/listing"
	"explorer/internal/pagecache"
)

// PersonPage joins the overview, sessions, finance overview and first votes
// best-effort, then opens a donation view over the person's entities.
func (a *App) PersonPage(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		a.errorPage(w, r, http.StatusBadRequest, "Invalid person ID")
		return
	}

	v := personView{ID: id}
	var overviewErr error
	warnings := a.loadSections(r.Context(),
		section{"Overview", func(ctx context.Context) error {
			v.Overview, overviewErr = a.Legislature.PersonOverview(ctx, id)
			return overviewErr
		}},
		section{"Sessions", func(ctx context.Context) (err error) {
			v.Sessions, err = a.Legislature.PersonSessions(ctx, id)
			return err
		}},
		section{"Finance overview", func(ctx context.Context) (err error) {
			v.Finance, err = a.Legislature.PersonFinanceOverview(ctx, id)
			return err
		}},
		section{"Votes", func(ctx context.Context) (err error) {
			v.Votes, err = a.personVotes(ctx, id, a.firstWindow())
			return err
		}},
	)
	if errors.Is(overviewErr, domain.ErrNotFound) {
		a.errorPage(w, r, http.StatusNotFound, "Person not found")
		return
	}

	var entities []domain.EntityRef
	if v.Finance != nil {
		entities = v.Finance.Entities
	}
	v.Donations, _ = a.openDonationView(r.Context(), id, entities)

	title := "Person " + strconv.FormatInt(id, 10)
	if v.Overview != nil && v.Overview.DisplayName != "" {
		title = v.Overview.DisplayName
	}
	a.page(w, r, http.StatusOK, "person", title, "search", v, warnings)
}

// openDonationView registers a fresh donation cache for this page load and
// requests its first page.
func (a *App) openDonationView(ctx context.Context, personID int64, entities []domain.EntityRef) (donationPageView, error) {
	viewID := uuid.NewString()
	cache := a.Donations.Open(viewID, personID)
	cache.SetEntities(entities)
	return a.donationPage(ctx, cache, personID, viewID, 0)
}

// donationPage always returns a renderable view; a failed request carries its
// message instead of records.
func (a *App) donationPage(ctx context.Context, cache *pagecache.Cache, personID int64, viewID string, page int) (donationPageView, error) {
	v := donationPageView{PersonID: personID, View: viewID, Page: page}
	p, err := cache.RequestPage(ctx, page)
	if err != nil {
		a.Logger.Warn().Err(err).Int64("person_id", personID).Int("page", page).Msg("donation page failed")
		v.HasMore = cache.HasMore()
		v.Message = err.Error()
		return v, err
	}
	v.Records = p.Records
	v.HasMore = p.HasMore
	return v, nil
}

// PersonDonations serves one page of a donation view. An unknown or expired
// view is reopened from the finance overview.
func (a *App) PersonDonations(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		a.fragmentError(w, r, http.StatusBadRequest, errors.New("Invalid person ID"))
		return
	}
	page := queryInt(r, "page")
	viewID := r.URL.Query().Get("view")

	cache, found := a.Donations.Get(viewID, id)
	if !found {
		fin, err := a.Legislature.PersonFinanceOverview(r.Context(), id)
		if err != nil {
			a.fragmentError(w, r, http.StatusBadGateway, err)
			return
		}
		viewID = uuid.NewString()
		cache = a.Donations.Open(viewID, id)
		cache.SetEntities(fin.Entities)
	}

	v, err := a.donationPage(r.Context(), cache, id, viewID, page)
	status := http.StatusOK
	switch {
	case errors.Is(err, pagecache.ErrLoading):
		status = http.StatusConflict
		v.Message = a.formatter(r).T("Still loading, try again")
	case errors.Is(err, pagecache.ErrPageRange):
		status = http.StatusBadRequest
		v.Message = a.formatter(r).T("Invalid page")
		v.Page, v.HasMore = 0, false
	case err != nil:
		status = http.StatusBadGateway
	}
	a.fragment(w, r, status, "donation_page", v)
}

// PersonDonationsCSV downloads the records the view has cached so far.
func (a *App) PersonDonationsCSV(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		a.errorPage(w, r, http.StatusBadRequest, "Invalid person ID")
		return
	}
	format, err := csvexport.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		a.errorPage(w, r, http.StatusBadRequest, err.Error())
		return
	}
	cache, found := a.Donations.Get(r.URL.Query().Get("view"), id)
	if !found {
		a.errorPage(w, r, http.StatusNotFound, "Donation view expired, reload the person page")
		return
	}
	a.serveTable(w, format, fmt.Sprintf("person-%d-donations", id), csvexport.DonationColumns, csvexport.DonationRows(cache.Records()))
}

// PersonVotes serves the next batch of a person's votes.
func (a *App) PersonVotes(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		a.fragmentError(w, r, http.StatusBadRequest, errors.New("Invalid person ID"))
		return
	}
	rows, err := a.personVotes(r.Context(), id, a.window(r))
	if err != nil {
		a.fragmentError(w, r, http.StatusBadGateway, err)
		return
	}
	a.fragment(w, r, http.StatusOK, "vote_rows", rows)
}

func (a *App) personVotes(ctx context.Context, id int64, win listing.Window) (rowsView, error) {
	items, err := a.Legislature.PersonVotes(ctx, id, win.Limit, win.Offset)
	if err != nil {
		return rowsView{}, err
	}
	win.Advance(len(items))
	return rowsView{Items: items, MoreURL: moreURL(fmt.Sprintf("/people/%d/votes", id), win, nil), Columns: 5}, nil
}

// PersonSessionVotes expands a session row. The first batch is fetched once
// per person and session and cached; later batches are plain "Load More" rows.
func (a *App) PersonSessionVotes(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		a.fragmentError(w, r, http.StatusBadRequest, errors.New("Invalid person ID"))
		return
	}
	sessionID, ok := pathID(r, "sessionID")
	if !ok {
		a.fragmentError(w, r, http.StatusBadRequest, errors.New("Invalid session ID"))
		return
	}

	win := a.window(r)
	var items []domain.BillVote
	var err error
	if win.Offset == 0 {
		items, err = a.sessionVotes.Get(r.Context(), sessionKey{PersonID: id, SessionID: sessionID})
	} else {
		items, err = a.Legislature.PersonSessionBillVotes(r.Context(), id, sessionID, win.Limit, win.Offset)
	}
	if err != nil {
		a.fragmentError(w, r, http.StatusBadGateway, err)
		return
	}

	first := win.Offset == 0
	win.Advance(len(items))
	rows := rowsView{
		Items:   items,
		MoreURL: moreURL(fmt.Sprintf("/people/%d/sessions/%d/votes", id, sessionID), win, nil),
		Columns: 5,
	}
	if first {
		a.fragment(w, r, http.StatusOK, "session_votes", rows)
		return
	}
	a.fragment(w, r, http.StatusOK, "vote_rows", rows)
}
