package handlers

import (
	"net/http"
	"net/url"
	"strings"
)

const searchColumns = 4

// Home renders the search form and, when q is set, the first batch of results.
func (a *App) Home(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	data := searchView{Query: q}
	if q == "" {
		a.page(w, r, http.StatusOK, "search", "Search", "search", data, nil)
		return
	}

	rows, err := a.searchRows(r, q)
	if err != nil {
		a.Logger.Error().Err(err).Str("q", q).Msg("search failed")
		a.page(w, r, http.StatusBadGateway, "search", "Search", "search", data, []string{"Search: " + err.Error()})
		return
	}
	data.Searched = true
	data.Rows = rows
	a.page(w, r, http.StatusOK, "search", q, "search", data, nil)
}

// SearchMore renders the next batch of result rows.
func (a *App) SearchMore(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		a.fragment(w, r, http.StatusOK, "search_rows", rowsView{Columns: searchColumns})
		return
	}
	rows, err := a.searchRows(r, q)
	if err != nil {
		a.fragmentError(w, r, http.StatusBadGateway, err)
		return
	}
	a.fragment(w, r, http.StatusOK, "search_rows", rows)
}

func (a *App) searchRows(r *http.Request, q string) (rowsView, error) {
	win := a.window(r)
	items, err := a.Search.Search(r.Context(), q, win.Limit, win.Offset)
	if err != nil {
		return rowsView{}, err
	}
	win.Advance(len(items))
	return rowsView{
		Items:   items,
		MoreURL: moreURL("/search/more", win, url.Values{"q": {q}}),
		Columns: searchColumns,
	}, nil
}
