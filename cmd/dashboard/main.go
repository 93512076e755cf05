package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpadapter "github.com/couchcryptid/quake-dashboard/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/quake-dashboard/internal/adapter/kafka"
	"github.com/couchcryptid/quake-dashboard/internal/adapter/mapbox"
	"github.com/couchcryptid/quake-dashboard/internal/adapter/scene"
	"github.com/couchcryptid/quake-dashboard/internal/basemap"
	"github.com/couchcryptid/quake-dashboard/internal/config"
	"github.com/couchcryptid/quake-dashboard/internal/dashboard"
	"github.com/couchcryptid/quake-dashboard/internal/domain"
	"github.com/couchcryptid/quake-dashboard/internal/feed"
	"github.com/couchcryptid/quake-dashboard/internal/observability"
	"github.com/jonboulle/clockwork"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()
	clock := clockwork.NewRealClock()

	// Reverse geocoding fills in events without a place (MAPBOX_ENABLED / MAPBOX_TOKEN).
	var geocoder domain.ReverseGeocoder
	if cfg.MapboxEnabled {
		client := mapbox.NewClient(cfg.MapboxToken, cfg.MapboxTimeout, metrics, logger)
		geocoder = mapbox.NewCachedGeocoder(client, cfg.MapboxCacheSize, metrics)
		logger.Info("mapbox geocoding enabled", "cache_size", cfg.MapboxCacheSize, "timeout", cfg.MapboxTimeout)
	} else {
		logger.Info("mapbox geocoding disabled")
	}

	basemaps := basemap.Default()
	if cfg.BasemapsFile != "" {
		basemaps, err = basemap.LoadFile(cfg.BasemapsFile)
		if err != nil {
			logger.Error("failed to load basemaps", "path", cfg.BasemapsFile, "error", err)
			os.Exit(1)
		}
	}

	store := feed.NewStore(geocoder, clock, logger, metrics)
	controller := dashboard.NewController(store, basemaps, scene.NewRenderers, cfg.Location, clock, logger, metrics)
	srv := httpadapter.NewServer(cfg.HTTPAddr, store, controller, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	onEvents := controller.EarthquakesLoaded
	var publisher *kafkaadapter.Publisher
	if cfg.KafkaEnabled {
		publisher = kafkaadapter.NewPublisher(cfg, clock, metrics, logger)
		logger.Info("kafka alerts enabled", "topic", cfg.KafkaAlertTopic, "brokers", cfg.KafkaBrokers)
		onEvents = func(count int, err error) {
			controller.EarthquakesLoaded(count, err)
			if err != nil {
				return
			}
			if err := publisher.PublishMajor(ctx, domain.MajorEvents(store.Events(), cfg.Location)); err != nil {
				logger.Error("publish major events", "error", err)
			}
		}
	}

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Both feeds load once, concurrently; sessions render whatever has arrived.
	loaded := store.LoadAll(ctx,
		feed.NewSource(cfg.EarthquakeFeed, cfg.FeedTimeout),
		feed.NewSource(cfg.TectonicFeed, cfg.FeedTimeout),
		onEvents,
		controller.LineamentsLoaded,
	)
	go func() {
		<-loaded
		logger.Info("feeds settled", "feeds", store.Status())
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	controller.CloseAll()
	if publisher != nil {
		if err := publisher.Close(); err != nil {
			logger.Error("kafka publisher close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
