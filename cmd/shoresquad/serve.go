package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"strings"
	"syscall"

	httpadapter "github.com/couchcryptid/shoresquad/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/shoresquad/internal/adapter/kafka"
	"github.com/couchcryptid/shoresquad/internal/adapter/mapbox"
	"github.com/couchcryptid/shoresquad/internal/adapter/nea"
	"github.com/couchcryptid/shoresquad/internal/analytics"
	"github.com/couchcryptid/shoresquad/internal/app"
	"github.com/couchcryptid/shoresquad/internal/config"
	"github.com/couchcryptid/shoresquad/internal/domain"
	"github.com/couchcryptid/shoresquad/internal/forecast"
	"github.com/couchcryptid/shoresquad/internal/observability"
	"github.com/couchcryptid/shoresquad/internal/store"
	"github.com/cli/browser"
	"github.com/jonboulle/clockwork"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	var (
		addr string
		open bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the ShoreSquad page and API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if addr != "" {
				cfg.HTTPAddr = addr
			}
			return serve(cmd.Context(), cfg, open)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (overrides HTTP_ADDR)")
	cmd.Flags().BoolVar(&open, "open", false, "Open the page in the default browser once listening")
	return cmd
}

func serve(parent context.Context, cfg *config.Config, open bool) error {
	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	// Initialize geocoder (feature-flagged via MAPBOX_ENABLED / MAPBOX_TOKEN).
	var geocoder domain.Geocoder
	if cfg.MapboxEnabled {
		client := mapbox.NewClient(cfg.MapboxToken, cfg.MapboxTimeout, mapbox.CoastlineBias(domain.DefaultBeaches()), metrics, logger)
		geocoder = mapbox.NewCachedGeocoder(client, cfg.MapboxCacheSize, metrics)
		metrics.GeocodeEnabled.Set(1)
		logger.Info("mapbox geocoding enabled", "cache_size", cfg.MapboxCacheSize, "timeout", cfg.MapboxTimeout)
	} else {
		logger.Info("mapbox geocoding disabled")
	}

	var sink analytics.Sink
	var writer *kafkaadapter.Writer
	if len(cfg.AnalyticsKafkaBrokers) > 0 {
		writer = kafkaadapter.NewWriter(cfg.AnalyticsKafkaBrokers, cfg.AnalyticsKafkaTopic, logger)
		sink = writer
		logger.Info("analytics kafka sink enabled", "topic", cfg.AnalyticsKafkaTopic)
	}

	st := store.NewMemory(logger)
	if cfg.StorePath != "" {
		var err error
		if st, err = store.Open(cfg.StorePath, logger); err != nil {
			return err
		}
	}

	// Every browser gets its own page state; the forecast is shared.
	clock := clockwork.NewRealClock()
	panel := forecast.NewPanel()
	loader := forecast.NewLoader(newForecastSource(cfg, logger), panel, logger, metrics)
	tracker := analytics.NewTracker(sink, logger, metrics)

	pages := httpadapter.NewPages(func(id string) httpadapter.Controller {
		a := app.New(app.Options{
			Store:          st,
			Tracker:        tracker,
			Geocoder:       geocoder,
			Clock:          clock,
			Logger:         logger.With("page", id),
			Metrics:        metrics,
			Panel:          panel,
			Loader:         loader,
			SessionID:      id,
			SearchDebounce: cfg.SearchDebounce,
			ResizeDelay:    cfg.MapResizeDelay,
			OfflineWorker:  cfg.OfflineWorkerEnabled,
		})
		a.Open()
		return a
	}, clock, cfg.PageIdleTimeout, logger, metrics)
	defer pages.Close()

	if cfg.OfflineWorkerEnabled {
		logger.Info("offline worker enabled", "script", "/service-worker.js")
	} else {
		logger.Info("offline worker disabled")
	}

	srv, err := httpadapter.NewServer(cfg.HTTPAddr, pages, loader, logger)
	if err != nil {
		return fmt.Errorf("create http server: %w", err)
	}

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	// /readyz reports ready once the first forecast load finishes.
	go loader.LoadForecast(ctx)

	if open {
		url := pageURL(cfg.HTTPAddr)
		if err := browser.OpenURL(url); err != nil {
			logger.Warn("could not open browser", "url", url, "error", err)
		}
	}

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
	return nil
}

func newForecastSource(cfg *config.Config, logger *slog.Logger) forecast.Source {
	client := nea.NewClient(cfg.ForecastURL, cfg.ForecastTimeout, logger)
	return forecast.NewRateLimitedSource(client, cfg.ForecastRateLimit, 1)
}

// pageURL turns a listen address into a URL a local browser can open.
func pageURL(addr string) string {
	if strings.HasPrefix(addr, ":") {
		return "http://localhost" + addr + "/"
	}
	return "http://" + addr + "/"
}
