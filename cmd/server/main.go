// Basketlift - Retail Co-Purchase Recommendation Service
// Copyright 2026 Basketlift Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/basketlift/basketlift

// Command server runs the Basketlift recommendation service: DuckDB-backed
// storage, the FP-Growth training pipeline, and the checkout-facing HTTP
// API, all under Suture supervision.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/basketlift/basketlift/internal/api"
	"github.com/basketlift/basketlift/internal/config"
	"github.com/basketlift/basketlift/internal/database"
	"github.com/basketlift/basketlift/internal/ingest"
	"github.com/basketlift/basketlift/internal/logging"
	"github.com/basketlift/basketlift/internal/metrics"
	"github.com/basketlift/basketlift/internal/mining"
	"github.com/basketlift/basketlift/internal/quality"
	"github.com/basketlift/basketlift/internal/recommend"
	"github.com/basketlift/basketlift/internal/rules"
	"github.com/basketlift/basketlift/internal/supervisor"
	"github.com/basketlift/basketlift/internal/training"
)

func main() {
	if err := run(); err != nil {
		logging.Fatal().Err(err).Msg("Server exited with error")
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
	})
	logging.Info().
		Str("addr", cfg.Server.Addr()).
		Str("database", cfg.Database.Path).
		Msg("Starting Basketlift")

	db, err := database.New(&cfg.Database)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Closing database failed")
		}
	}()

	// Mining pipeline and serving engine.
	miner := mining.NewMiner(mining.Config{Workers: cfg.Mining.Workers}, logging.Logger())
	generator := rules.NewGenerator(logging.Logger())
	engine := recommend.NewEngine(recommend.Config{
		DefaultLimit:            cfg.Recommend.DefaultLimit,
		BreakerFailureThreshold: cfg.Recommend.BreakerFailureThreshold,
		BreakerTimeout:          cfg.Recommend.BreakerTimeout,
	}, db, logging.Logger())
	trainer := training.NewOrchestrator(cfg.Training, miner, generator, db, db, engine, logging.Logger())
	monitor := quality.NewMonitor(quality.Config{
		MaxK:               cfg.Quality.MaxK,
		PrecisionFloor:     cfg.Quality.PrecisionFloor,
		RecallFloor:        cfg.Quality.RecallFloor,
		AnonymizationFloor: cfg.Quality.AnonymizationFloor,
		TransparencyFloor:  cfg.Quality.TransparencyFloor,
		CoverageFloor:      cfg.Quality.CoverageFloor,
	}, db, logging.Logger())

	// Warm the serving snapshot from whatever rule set the last training
	// run persisted. An empty store is fine; serving starts degraded.
	if err := engine.Reload(context.Background()); err != nil {
		logging.Warn().Err(err).Msg("Initial rule load failed, serving empty snapshot")
	} else {
		metrics.ActiveRules.Set(float64(engine.Stats().ActiveRules))
	}

	pipeline := ingest.NewPipeline(cfg.Ingest, db, logging.Logger())

	handler := api.NewHandler(engine, trainer, db, monitor, pipeline, cfg.Training)
	router := api.NewRouter(handler, cfg.Server)

	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router.Setup(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	})
	tree.AddAPIService(supervisor.NewHTTPService(server, cfg.Server.ShutdownTimeout))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	err = <-tree.ServeBackground(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("supervisor: %w", err)
	}

	if report, reportErr := tree.UnstoppedServiceReport(); reportErr == nil && len(report) > 0 {
		for _, svc := range report {
			logging.Warn().Str("service", svc.Name).Msg("Service missed shutdown timeout")
		}
	}

	logging.Info().Msg("Shutdown complete")
	return nil
}
