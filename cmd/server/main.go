package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"github.com/AngelCh415/adinsights/internal/config"
	"github.com/AngelCh415/adinsights/internal/httpx"
	"github.com/AngelCh415/adinsights/internal/ingest"
	"github.com/AngelCh415/adinsights/internal/publish"
	"github.com/AngelCh415/adinsights/internal/store"
	"github.com/AngelCh415/adinsights/internal/telemetry"
	"github.com/AngelCh415/adinsights/internal/utils"
)

func main() {
	cfg := config.FromEnv()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("server error", slog.String("err", err.Error()))
		os.Exit(1)
	}
}

func run(cfg config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	tel := telemetry.New(reg)

	cl := ingest.NewHTTPClient(cfg.HTTPTimeout)
	st := store.NewMemoryStore()

	src, closeSrc, err := openSource(ctx, cfg, cl, logger)
	if err != nil {
		return err
	}
	defer closeSrc()

	refresher := ingest.NewRefresher(src, st, logger, tel, cfg.RefreshInterval)
	pub := publish.NewPublisher(cl, cfg.SinkURL, cfg.SinkSecret, logger)

	r := httpx.NewRouter(httpx.Deps{
		Log:         logger,
		Store:       st,
		Refresher:   refresher,
		Publisher:   pub,
		Telemetry:   tel,
		Registry:    reg,
		ReportTitle: cfg.ReportTitle,
		ExportDelay: cfg.ExportDelay,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return refresher.Run(gctx) })
	g.Go(func() error {
		logger.Info("starting server", slog.String("port", cfg.Port), slog.String("source", src.Name()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		logger.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// openSource builds the configured snapshot source. An empty SQLite database
// is seeded with the demo dataset.
func openSource(ctx context.Context, cfg config.Config, cl ingest.HTTPClient, logger *slog.Logger) (ingest.Source, func(), error) {
	switch cfg.Source {
	case config.SourceHTTP:
		b := utils.NewBackoff(200*time.Millisecond, 3)
		return ingest.NewHTTPSource(cl, cfg.SourceURL, b, logger), func() {}, nil
	case config.SourceSQLite:
		s, err := ingest.OpenSQLite(cfg.SQLitePath, logger)
		if err != nil {
			return nil, nil, err
		}
		n, err := s.Count(ctx)
		if err != nil {
			s.Close()
			return nil, nil, err
		}
		if n == 0 {
			if err := s.Seed(ctx, ingest.SeedCampaigns()); err != nil {
				s.Close()
				return nil, nil, err
			}
			logger.Info("seeded sqlite database", slog.String("path", cfg.SQLitePath))
		}
		return s, func() { s.Close() }, nil
	default:
		return ingest.NewMockSource(cfg.MockJitter, time.Now().UnixNano()), func() {}, nil
	}
}
