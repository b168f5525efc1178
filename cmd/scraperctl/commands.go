package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"explorer/internal/domain"
	"explorer/internal/infra"
	"explorer/internal/infra/credentials"
	"explorer/internal/scrapers"
)

type options struct {
	apiURL      string
	token       string
	databaseURL string
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:           "scraperctl",
		Short:         "Control the campaign finance and legislature scrapers",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.apiURL, "api", envOr("SCRAPER_API_URL", "http://localhost:8000"), "scraper API base URL")
	root.PersistentFlags().StringVar(&opts.token, "token", os.Getenv("SCRAPER_API_TOKEN"), "bearer token (falls back to the stored token)")
	root.PersistentFlags().StringVar(&opts.databaseURL, "database-url", os.Getenv("DATABASE_URL"), "database holding integration tokens")

	root.AddCommand(
		newActionCmd(opts, "start", "Start a worker", (*scrapers.Client).Start),
		newActionCmd(opts, "stop", "Stop a worker", (*scrapers.Client).Stop),
		newLogsCmd(opts),
		newTokenCmd(opts),
	)
	return root
}

func newActionCmd(opts *options, use, short string, action func(*scrapers.Client, context.Context, string) error) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <worker>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := opts.client(cmd.Context())
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()
			if err := action(client, ctx, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", use, args[0])
			return nil
		},
	}
}

func newLogsCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "logs <worker>",
		Short: "Follow a worker's log stream until interrupted",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := opts.client(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			err = client.Stream(cmd.Context(), args[0], func(line domain.LogLine) {
				printLine(out, line)
			})
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
}

func newTokenCmd(opts *options) *cobra.Command {
	tokenCmd := &cobra.Command{
		Use:   "token",
		Short: "Manage the stored scraper API token",
	}
	tokenCmd.AddCommand(&cobra.Command{
		Use:   "set <token>",
		Short: "Store the scraper API token in integration_tokens",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, closeStore, err := opts.credentials(cmd.Context())
			if err != nil {
				return err
			}
			defer closeStore()
			ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
			defer cancel()
			if err := store.SetScraperAPIToken(ctx, args[0], map[string]any{"set_by": "scraperctl"}); err != nil {
				return fmt.Errorf("store token: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "scraper API token stored")
			return nil
		},
	})
	return tokenCmd
}

func (o *options) client(ctx context.Context) (*scrapers.Client, error) {
	token := strings.TrimSpace(o.token)
	if token == "" && o.databaseURL != "" {
		store, closeStore, err := o.credentials(ctx)
		if err != nil {
			return nil, err
		}
		defer closeStore()
		if token, err = store.ScraperAPIToken(ctx); err != nil {
			return nil, fmt.Errorf("load token: %w", err)
		}
	}
	return scrapers.NewClient(o.apiURL, &http.Client{}, func(context.Context) (string, error) {
		return token, nil
	}), nil
}

func (o *options) credentials(ctx context.Context) (*credentials.Store, func(), error) {
	if strings.TrimSpace(o.databaseURL) == "" {
		return nil, nil, errors.New("DATABASE_URL or --database-url is required")
	}
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	pool, err := pgxpool.New(ctx, o.databaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("connect database: %w", err)
	}
	logger := infra.NewLogger("cli").With().Str("cmd", "scraperctl").Logger()
	return credentials.NewStore(infra.NewSQLRunner(pool, logger)), pool.Close, nil
}

func printLine(w io.Writer, line domain.LogLine) {
	fmt.Fprintf(w, "%s [%s] %s\n", line.Timestamp.Local().Format("15:04:05"), strings.ToUpper(string(line.Type)), line.Message)
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}
