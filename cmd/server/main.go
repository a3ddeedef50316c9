// Copyright (c) 2026 John Earle
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// PhishGuard — Scan Service
//
// Entry point for the scan service. It:
//  1. Loads per-account configuration from config.yaml
//  2. Connects to PostgreSQL (or falls back to the in-memory store) and Redis
//  3. Builds an OAuth2 mail client per configured account
//  4. Starts the periodic scheduled-sweep loop
//  5. Serves the scan/settings/analyze HTTP API
//  6. Handles graceful shutdown on SIGTERM/SIGINT
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/Aaditya-03-03/PhisGuard-Ai-sub000/internal/aggregate"
	"github.com/Aaditya-03-03/PhisGuard-Ai-sub000/internal/alerts"
	"github.com/Aaditya-03-03/PhisGuard-Ai-sub000/internal/api"
	"github.com/Aaditya-03-03/PhisGuard-Ai-sub000/internal/config"
	"github.com/Aaditya-03-03/PhisGuard-Ai-sub000/internal/dedup"
	"github.com/Aaditya-03-03/PhisGuard-Ai-sub000/internal/normalize"
	"github.com/Aaditya-03-03/PhisGuard-Ai-sub000/internal/provider"
	"github.com/Aaditya-03-03/PhisGuard-Ai-sub000/internal/scheduler"
	"github.com/Aaditya-03-03/PhisGuard-Ai-sub000/internal/scoring"
	"github.com/Aaditya-03-03/PhisGuard-Ai-sub000/internal/store"
)

func main() {
	// Structured JSON logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	slog.Info("starting PhishGuard scan service")

	// --- Load Configuration ---
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("configuration loaded",
		"accounts", len(cfg.Accounts),
		"sweep_interval", cfg.SweepInterval,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// --- Storage ---
	var (
		st     store.Store
		pgPool *pgxpool.Pool
	)
	if cfg.DatabaseURL != "" {
		pgPool, err = pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			slog.Error("failed to create Postgres pool", "error", err)
			os.Exit(1)
		}
		defer pgPool.Close()

		if err := pgPool.Ping(ctx); err != nil {
			slog.Error("failed to connect to PostgreSQL", "error", err)
			os.Exit(1)
		}

		st, err = store.NewPostgres(ctx, pgPool)
		if err != nil {
			slog.Error("failed to initialise Postgres store", "error", err)
			os.Exit(1)
		}
		slog.Info("connected to PostgreSQL")
	} else {
		st = store.NewMemory()
		slog.Warn("no database configured, scan state is in-memory only")
	}

	// --- Redis (dedup + alerts), optional ---
	var (
		rdb       *redis.Client
		filter    scheduler.DedupFilter
		publisher scheduler.AlertSink
	)
	if cfg.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			slog.Error("invalid REDIS_URL", "error", err)
			os.Exit(1)
		}
		rdb = redis.NewClient(opt)

		p := alerts.NewPublisher(rdb, cfg.AlertsQueue)
		if err := p.Ping(ctx); err != nil {
			slog.Error("failed to connect to Redis", "error", err)
			os.Exit(1)
		}
		slog.Info("connected to Redis", "alerts_queue", cfg.AlertsQueue)

		filter = dedup.NewFilter(rdb)
		publisher = p
	} else {
		slog.Warn("no Redis configured, dedup and alert publishing disabled")
	}

	// --- Build OAuth2 mail clients per account ---
	mailClients := make(map[string]*http.Client)
	for _, account := range cfg.Accounts {
		creds := &clientcredentials.Config{
			ClientID:     account.ClientID,
			ClientSecret: account.ClientSecret,
			TokenURL:     account.TokenURL,
		}
		mailClients[account.UserID] = creds.Client(ctx)
	}

	mailProvider := provider.NewREST(provider.RESTConfig{
		Clients:   mailClients,
		BaseURL:   cfg.MailAPIBaseURL,
		PageSize:  cfg.PageSize,
		PageDelay: cfg.PageDelay,
	})

	// --- Scan pipeline ---
	scorer := scoring.NewScorer()
	coordinator := scheduler.NewCoordinator(scheduler.CoordinatorConfig{
		Provider:       mailProvider,
		Settings:       st,
		Aggregator:     aggregate.NewAggregator(st),
		Normalizer:     normalize.NewNormalizer(),
		Scorer:         scorer,
		Dedup:          filter,
		Alerts:         publisher,
		InterUserDelay: cfg.InterUserDelay,
	})

	coordinator.Start(ctx, cfg.SweepInterval, cfg.SweepStartDelay)

	// --- HTTP API ---
	handler := api.NewHandler(coordinator, st, scorer)

	addr := fmt.Sprintf(":%d", cfg.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      handler.Routes(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	// --- Graceful Shutdown ---
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)
		sig := <-sigCh

		slog.Info("received shutdown signal", "signal", sig)
		cancel() // Stop all background goroutines

		coordinator.Stop()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "error", err)
		}

		if rdb != nil {
			rdb.Close()
		}
		if pgPool != nil {
			pgPool.Close()
		}
	}()

	slog.Info("scan service listening", "addr", addr)
	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}

	slog.Info("scan service stopped")
}
