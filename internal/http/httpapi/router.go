package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"explorer/internal/http/handlers"
	"explorer/internal/middleware"
	"explorer/internal/view"
)

// NewRouter wires every page, fragment and JSON endpoint. lookup may be nil
// when no GeoIP database is configured.
func NewRouter(app *handlers.App, lookup middleware.CountryLookup) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	if app.Config.TrustProxyHeaders {
		r.Use(chimw.RealIP)
	}
	r.Use(
		chimw.Recoverer,
		middleware.Logger(app.Logger),
		middleware.I18N(app.Config.DefaultLocale, lookup),
	)

	limited := middleware.RateLimit(app.Config.RateLimitPerMin, time.Minute)
	cors := middleware.CORS(app.Config.CORSAllowedOrigins)

	r.Get("/v1/healthz", app.Health)
	r.Get("/v1/openapi.json", app.OpenAPIJSON)
	r.Get("/v1/docs", app.OpenAPIDocs)

	r.Handle("/assets/*", http.StripPrefix("/assets/", view.Assets()))
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.Dir(app.Config.StoragePath))))

	r.Get("/", app.Home)
	r.Get("/search/more", app.SearchMore)

	r.Route("/entities/{id}", func(r chi.Router) {
		r.Get("/", app.EntityPage)
		r.Get("/transactions", app.EntityTransactions)
		r.Get("/donations", app.EntityDonations)
		r.Get("/reports", app.EntityReports)
		r.Get("/top-donors", app.EntityTopDonors)
		r.Get("/transactions.csv", app.EntityTransactionsCSV)
		r.Get("/donations.csv", app.EntityDonationsCSV)
	})

	r.Route("/people/{id}", func(r chi.Router) {
		r.Get("/", app.PersonPage)
		r.Get("/donations", app.PersonDonations)
		r.Get("/donations.csv", app.PersonDonationsCSV)
		r.Get("/votes", app.PersonVotes)
		r.Get("/sessions/{sessionID}/votes", app.PersonSessionVotes)
	})

	r.Get("/bills", app.BillsPage)
	r.Get("/bills/more", app.BillsMore)
	r.Get("/bills/{id}/detail", app.BillDetail)

	r.Get("/exports", app.ExportsPage)
	r.Route("/api", func(r chi.Router) {
		r.Use(cors, limited)
		r.Post("/legislature/bulk-export", app.BulkExport)
	})

	r.Route("/admin/scrapers", func(r chi.Router) {
		r.Get("/", app.ScrapersPage)
		r.Get("/{worker}/logs", app.ScraperLogs)
		r.Get("/{worker}/events", app.ScraperEvents)
		r.With(limited).Post("/{worker}/start", app.ScraperStart)
		r.With(limited).Post("/{worker}/stop", app.ScraperStop)
	})

	return r
}
