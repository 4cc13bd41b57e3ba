// Location Tracker - Per-user location databases on Cloudant/CouchDB
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/locationtracker

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tomtom215/locationtracker/internal/api"
	"github.com/tomtom215/locationtracker/internal/config"
	"github.com/tomtom215/locationtracker/internal/logging"
	"github.com/tomtom215/locationtracker/internal/store"
	"github.com/tomtom215/locationtracker/internal/supervisor"
	"github.com/tomtom215/locationtracker/internal/supervisor/services"
)

// storeProbeInterval is how often the store probe pings the server.
const storeProbeInterval = 30 * time.Second

func main() {
	cfg, err := config.LoadWithKoanf()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
		Output:    os.Stdout,
	})

	logging.Info().
		Str("addr", cfg.Server.Addr()).
		Str("environment", cfg.Server.Environment).
		Str("users_db", cfg.Databases.Users).
		Str("aggregate_db", cfg.Databases.Aggregate).
		Str("places_db", cfg.Databases.Places).
		Bool("store_configured", cfg.StoreConfigured()).
		Msg("Starting location tracker")

	if cfg.ShouldWarnAboutCORS() {
		logging.Warn().Msg("CORS allows any origin in production; set CORS_ORIGINS to the client origins")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		FailureThreshold: 5,
		FailureBackoff:   15 * time.Second,
		ShutdownTimeout:  cfg.Server.ShutdownTimeout,
	})
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create supervisor tree")
	}

	var (
		backend api.Store
		probe   api.HealthProbe
	)
	if cfg.StoreConfigured() {
		client, err := store.Open(cfg.Store)
		if err != nil {
			logging.Fatal().Err(err).Msg("Failed to create store client")
		}
		backend = client

		storeProbe := services.NewStoreProbeService(client, storeProbeInterval, 5*time.Second)
		probe = storeProbe
		tree.AddStoreService(storeProbe)
		logging.Info().
			Str("host", client.Host()).
			Bool("circuit_breaker", cfg.Store.CircuitBreaker).
			Msg("Store client ready")
	} else {
		logging.Warn().Msg("No database server configured; API routes will answer 500")
	}

	handler := api.NewHandler(backend, cfg, probe)
	router := api.NewRouter(handler, api.NewChiMiddleware(api.ChiMiddlewareConfigFromSecurity(cfg.Security)))

	server := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           router.SetupChi(),
		ReadTimeout:       cfg.Server.Timeout,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.Server.Timeout,
		IdleTimeout:       60 * time.Second,
	}
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Msg("Starting supervisor tree...")
	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish...")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
	}

	logging.Info().Msg("Location tracker stopped")
}
