package main

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/couchcryptid/georgia-health-dashboard/internal/adapter/kafka"
	"github.com/couchcryptid/georgia-health-dashboard/internal/adapter/source"
	"github.com/couchcryptid/georgia-health-dashboard/internal/catalog"
	"github.com/couchcryptid/georgia-health-dashboard/internal/config"
	"github.com/couchcryptid/georgia-health-dashboard/internal/dashboard"
	"github.com/couchcryptid/georgia-health-dashboard/internal/domain"
	"github.com/couchcryptid/georgia-health-dashboard/internal/geo"
	"github.com/couchcryptid/georgia-health-dashboard/internal/observability"
	"github.com/couchcryptid/georgia-health-dashboard/internal/render"
)

// app is the wired dashboard and the resources that must be closed with it.
type app struct {
	dash      *dashboard.Dashboard
	publisher *kafka.Publisher
	logger    *slog.Logger
}

func (a *app) close() {
	if a.publisher == nil {
		return
	}
	if err := a.publisher.Close(); err != nil {
		a.logger.Error("kafka publisher close error", "error", err)
	}
}

func newApp(cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics, export bool) (*app, error) {
	cat, err := catalog.Load(cfg.CatalogPath)
	if err != nil {
		return nil, err
	}

	var data fs.FS = catalog.Data()
	if cfg.DataDir != "" {
		data = os.DirFS(cfg.DataDir)
		logger.Info("serving datasets from disk", "dir", cfg.DataDir)
	}
	fetcher := source.NewCachedFetcher(source.Router{
		HTTP: source.NewHTTPFetcher(cfg.FetchTimeout, cfg.FetchRetries, metrics, logger),
		File: source.NewFileFetcher(data, metrics),
	}, cfg.FetchCacheSize, metrics)

	a := &app{logger: logger}

	// Joined-record export (feature-flagged via KAFKA_ENABLED / KAFKA_BROKERS).
	var publisher domain.JoinPublisher
	if export && cfg.KafkaEnabled {
		a.publisher = kafka.NewPublisher(cfg, metrics, logger)
		publisher = a.publisher
		metrics.ExportEnabled.Set(1)
		logger.Info("joined-record export enabled", "topic", cfg.KafkaTopic, "brokers", cfg.KafkaBrokers)
	} else {
		logger.Info("joined-record export disabled")
	}

	d, err := cat.Build(catalog.Deps{
		Fetcher:   fetcher,
		Features:  geo.NewStore(fetcher, cfg.GeoJSONURL, cfg.RegionPrefix, logger),
		Overlay:   render.NewOverlay(),
		Publisher: publisher,
		Logger:    logger,
		Metrics:   metrics,
		Width:     cfg.RenderWidth,
		Height:    cfg.RenderHeight,
	})
	if err != nil {
		a.close()
		return nil, fmt.Errorf("build dashboard: %w", err)
	}
	a.dash = d
	return a, nil
}
