package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/subcommands"

	"benritz/giltmonitor/internal/collect"
	"benritz/giltmonitor/internal/config"
	"benritz/giltmonitor/internal/metrics"
	"benritz/giltmonitor/internal/monitor"
	"benritz/giltmonitor/internal/server"
	"benritz/giltmonitor/internal/store"
)

type serveCmd struct{}

func (*serveCmd) Name() string     { return "serve" }
func (*serveCmd) Synopsis() string { return "run the gilts HTTP API and refresh schedule" }
func (*serveCmd) Usage() string {
	return `serve

  Serves gilt prices and yields over HTTP. Prices are refreshed hourly and
  the gilt list daily. Settings come from the environment and GILTS_CONFIG.
`
}

func (*serveCmd) SetFlags(f *flag.FlagSet) {}

func (*serveCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	logger := log.New(os.Stdout, "", log.LstdFlags)

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	discHour, discMinute, _ := cfg.DiscoveryTime()

	metrics.Init()

	site := collect.NewGiltsyieldCollector(cfg.GiltsyieldURL)
	m := monitor.New(store.Open(cfg.GiltsPath), site, newQuoter(cfg, logger, site), monitor.Options{
		Logger:   logger,
		TTL:      cfg.PriceTTL,
		TaxRates: cfg.AllowedTaxRate,
	})

	if cfg.SnapshotDst != "" {
		putter := s3Client(cfg.AWSProfile)
		m.OnPrices = func(ctx context.Context, snapshot *collect.Snapshot) {
			outPath, err := collect.Store(ctx, snapshot, cfg.SnapshotDst, putter)
			if err != nil {
				logger.Printf("snapshot store failed: %v", err)
				return
			}
			logger.Printf("Stored snapshot to %s", outPath)
		}
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	go m.Run(ctx, cfg.PriceMinute, discHour, discMinute)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           server.New(m, cfg.Username, cfg.Password, logger).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Printf("Server running on %s", cfg.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Printf("http server failed: %v", err)
		return subcommands.ExitFailure
	}

	return subcommands.ExitSuccess
}
