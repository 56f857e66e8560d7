package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ecolabel/platescore/internal/api"
	"github.com/ecolabel/platescore/internal/catalog"
	"github.com/ecolabel/platescore/internal/config"
	"github.com/ecolabel/platescore/internal/lcia"
	"github.com/ecolabel/platescore/internal/notify"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := newLogger(cfg.Logging)
	slog.SetDefault(logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Catalog database
	store, err := catalog.NewPostgresStore(ctx, cfg.Database.URL)
	if err != nil {
		logger.Error("failed to connect to catalog database", "error", err)
		os.Exit(1)
	}
	defer store.Close()
	logger.Info("connected to catalog database")

	metrics := api.NewMetrics()

	// Event bus (optional)
	var events notify.Client
	if cfg.Events.URL != "" {
		bus, err := notify.Connect(ctx, cfg.Events.URL, logger)
		if err != nil {
			logger.Warn("failed to connect to event bus, running without events", "error", err)
		} else {
			events = bus
			defer bus.Close()
			logger.Info("connected to event bus")

			if err := bus.Subscribe(notify.SubjectCatalogRebuilt, func(subject string, data []byte) {
				metrics.CatalogRebuildSeen()
				logger.Info("catalog rebuilt", "subject", subject, "payload_bytes", len(data))
			}); err != nil {
				logger.Warn("failed to subscribe to catalog events", "error", err)
			}
		}
	}

	// Scoring engine
	engine := lcia.NewEngine(store, gradingScale(cfg.Grading), logger)

	// API server
	router := api.NewRouter(engine, store, events, metrics, cfg.Server.RateLimit, logger)
	apiServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	// Metrics server
	metricsServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.MetricsPort),
		Handler: api.NewMetricsRouter(),
	}

	go func() {
		logger.Info("API server starting", "port", cfg.Server.Port)
		if err := apiServer.ListenAndServe(); err != http.ErrServerClosed {
			logger.Error("API server error", "error", err)
		}
	}()

	go func() {
		logger.Info("metrics server starting", "port", cfg.Server.MetricsPort)
		if err := metricsServer.ListenAndServe(); err != http.ErrServerClosed {
			logger.Error("metrics server error", "error", err)
		}
	}()

	// Graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	logger.Info("shutting down...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	_ = apiServer.Shutdown(shutdownCtx)
	_ = metricsServer.Shutdown(shutdownCtx)

	logger.Info("shutdown complete")
}

func newLogger(cfg config.LoggingConfig) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "text" {
		return slog.New(slog.NewTextHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}

func gradingScale(cfg config.GradingConfig) lcia.Scale {
	scale := lcia.Scale{
		Version:         cfg.Version,
		NeutralMidpoint: cfg.NeutralMidpoint,
	}
	for _, b := range cfg.Bands {
		scale.Bands = append(scale.Bands, lcia.Band{Grade: b.Grade, Cutoff: b.Cutoff})
	}
	return scale
}
