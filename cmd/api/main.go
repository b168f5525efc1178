package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"explorer/internal/adapter/repo"
	"explorer/internal/bulkexport"
	"explorer/internal/http/handlers"
	httpapi "explorer/internal/http/httpapi"
	"explorer/internal/infra"
	"explorer/internal/infra/credentials"
	"explorer/internal/infra/geoip"
	"explorer/internal/middleware"
	"explorer/internal/scrapers"
	"explorer/internal/storage"
	"explorer/internal/view"
)

func main() {
	// .env is optional
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx := context.Background()
	dbpool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect database")
	}
	defer dbpool.Close()
	runner := infra.NewSQLRunner(dbpool, logger)

	var lookup middleware.CountryLookup
	if cfg.GeoIPDBPath != "" {
		resolver, err := geoip.NewResolver(cfg.GeoIPDBPath)
		if err != nil {
			logger.Warn().Err(err).Str("path", cfg.GeoIPDBPath).Msg("geoip disabled")
		} else {
			defer resolver.Close()
			lookup = resolver.LookupFunc()
		}
	}

	store, err := storage.NewFileStore(cfg.StoragePath, cfg.StorageBaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open storage")
	}

	creds := credentials.NewStore(runner)
	token := func(ctx context.Context) (string, error) {
		if cfg.ScraperAPIToken != "" {
			return cfg.ScraperAPIToken, nil
		}
		return creds.ScraperAPIToken(ctx)
	}
	client := scrapers.NewClient(cfg.ScraperAPIURL, &http.Client{}, token)
	console := scrapers.NewConsole(client, cfg.ScraperWorkers, cfg.ScraperLogCapacity, logger)
	defer console.Close()

	views, err := view.NewRenderer()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to parse templates")
	}

	exporter := bulkexport.NewService(repo.NewExportRepository(runner), store, cfg.ExportMaxEntities, logger)
	app := handlers.NewApp(cfg, logger, handlers.Repositories{
		Finance:     repo.NewFinanceRepository(runner),
		Legislature: repo.NewLegislatureRepository(runner),
		Search:      repo.NewSearchRepository(runner),
	}, views, exporter, console)
	app.DB = dbpool

	router := httpapi.NewRouter(app, lookup)
	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().Msgf("explorer listening on :%s", cfg.Port)
		if err := server.Start(); err != nil {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	// Event streams never finish on their own; closing the console ends them
	// before the server waits for open requests.
	console.Close()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	logger.Info().Msg("server stopped")
}
