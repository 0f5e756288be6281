package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"papertrade/config"
	"papertrade/feed"
	"papertrade/journal"
	"papertrade/ledger"
	"papertrade/logging"
	"papertrade/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the webhook and REST API server",
	Long: `Start the paper trading service: a webhook endpoint for external
trade signals, a REST API for orders, ticks, and account queries, and
optionally a live price feed that resolves resting limit orders.

Without --config the built-in defaults apply. PAPERTRADE_LISTEN and
PAPERTRADE_WEBHOOK_TOKEN override the listen address and webhook token;
a .env file in the working directory is honored.

Example:
  papertrade serve --config papertrade.yaml`,
	RunE: runServe,
}

var serveConfigPath string

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVarP(&serveConfigPath, "config", "f", "", "path to config file (YAML or JSON)")
}

func runServe(cmd *cobra.Command, args []string) error {
	// Load .env (best-effort). If missing, fall back to real env vars.
	_ = godotenv.Load()

	cfg := config.Default()
	if serveConfigPath != "" {
		loaded, err := config.LoadFromFile(serveConfigPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = loaded
	}
	if v := os.Getenv("PAPERTRADE_LISTEN"); v != "" {
		cfg.Server.Listen = v
	}
	if v := os.Getenv("PAPERTRADE_WEBHOOK_TOKEN"); v != "" {
		cfg.Server.WebhookToken = v
	}

	logging.Init(logging.Config{
		Level:      cfg.Logging.Level,
		File:       cfg.Logging.File,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
		Compress:   cfg.Logging.Compress,
	})
	log := logging.WithField("component", "serve")

	jnl, err := openJournal(cfg.Journal)
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	defer jnl.Close()

	engine := ledger.NewEngine(
		decimal.NewFromFloat(cfg.Account.Balance),
		decimal.NewFromFloat(cfg.Account.CommissionRate),
	)
	srv := server.New(engine, jnl, cfg.Server.WebhookToken)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// feedDone closes once the feed goroutine has fully stopped, so the
	// journal is not closed under a tick still being applied.
	feedDone := make(chan struct{})
	switch cfg.Feed.Mode {
	case "poll":
		interval, err := cfg.Feed.ParseInterval()
		if err != nil {
			return fmt.Errorf("feed.interval: %w", err)
		}
		p := feed.NewPoller(cfg.Feed.Endpoint, cfg.Feed.Symbols, interval, srv)
		go func() {
			defer close(feedDone)
			p.Run(ctx)
		}()
	case "stream":
		st := feed.NewStream(cfg.Feed.Endpoint, cfg.Feed.Symbols, srv)
		go func() {
			defer close(feedDone)
			st.Run(ctx)
		}()
	default:
		close(feedDone)
	}

	httpSrv := &http.Server{
		Addr:              cfg.Server.Listen,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Infof("listening on %s", cfg.Server.Listen)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Error("http server stopped")
		}
	}()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT)
	<-stopCh

	log.Info("shutdown signal received")
	cancel()
	<-feedDone

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = httpSrv.Shutdown(shutdownCtx)

	fmt.Println("papertrade stopped")
	return nil
}

// openJournal builds the journal sink named by the config. Anything
// other than csv or sqlite records nothing.
func openJournal(cfg config.JournalConfig) (journal.Journal, error) {
	switch cfg.Type {
	case "csv":
		return journal.NewCSV(cfg.FillsFile, cfg.BalancesFile)
	case "sqlite":
		return journal.NewSQLite(cfg.DBPath)
	default:
		return journal.Discard, nil
	}
}
