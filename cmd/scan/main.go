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

// PhishGuard — One-off Scan Command
//
// Standalone CLI tool that runs a windowed on-demand scan for explicit
// users and prints per-user risk summaries. Intended for seeding scan
// records on new deployments and for spot checks.
//
// Usage:
//
//	go run ./cmd/scan/ --users alice@org.com,bob@org.com [--since 168h] [--max 500]
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/Aaditya-03-03/PhisGuard-Ai-sub000/internal/aggregate"
	"github.com/Aaditya-03-03/PhisGuard-Ai-sub000/internal/alerts"
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

	// --- CLI Flags ---
	usersFlag := flag.String("users", "", "Comma-separated list of user ids (empty = all configured accounts)")
	sinceFlag := flag.String("since", "168h", "Lookback duration (e.g. 168h for 1 week, 720h for 30 days)")
	maxFlag := flag.Int("max", 0, "Maximum messages to fetch per user (0 = unbounded)")
	flag.Parse()

	sinceDuration, err := time.ParseDuration(*sinceFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: invalid --since duration %q: %v\n", *sinceFlag, err)
		os.Exit(1)
	}

	// --- Load Configuration ---
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// --- Resolve users ---
	var users []string
	if *usersFlag != "" {
		for _, u := range strings.Split(*usersFlag, ",") {
			u = strings.TrimSpace(u)
			if u != "" {
				users = append(users, u)
			}
		}
	} else {
		for _, a := range cfg.Accounts {
			users = append(users, a.UserID)
		}
	}
	if len(users) == 0 {
		slog.Error("no users to scan")
		os.Exit(1)
	}

	slog.Info("starting one-off scan",
		"users", users,
		"since", sinceDuration,
	)

	// --- Storage ---
	var st store.Store
	if cfg.DatabaseURL != "" {
		pgPool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			slog.Error("failed to create Postgres pool", "error", err)
			os.Exit(1)
		}
		defer pgPool.Close()

		st, err = store.NewPostgres(ctx, pgPool)
		if err != nil {
			slog.Error("failed to initialise Postgres store", "error", err)
			os.Exit(1)
		}
	} else {
		slog.Error("one-off scans need a database to store results, set DATABASE_URL")
		os.Exit(1)
	}

	// --- Redis (dedup + alerts), optional ---
	var (
		filter    scheduler.DedupFilter
		publisher scheduler.AlertSink
	)
	if cfg.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			slog.Error("invalid REDIS_URL", "error", err)
			os.Exit(1)
		}
		rdb := redis.NewClient(opt)
		defer rdb.Close()

		p := alerts.NewPublisher(rdb, cfg.AlertsQueue)
		if err := p.Ping(ctx); err != nil {
			slog.Error("failed to connect to Redis", "error", err)
			os.Exit(1)
		}
		filter = dedup.NewFilter(rdb)
		publisher = p
	}

	// --- Build OAuth2 mail clients ---
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

	coordinator := scheduler.NewCoordinator(scheduler.CoordinatorConfig{
		Provider:       mailProvider,
		Settings:       st,
		Aggregator:     aggregate.NewAggregator(st),
		Normalizer:     normalize.NewNormalizer(),
		Scorer:         scoring.NewScorer(),
		Dedup:          filter,
		Alerts:         publisher,
		InterUserDelay: cfg.InterUserDelay,
	})

	// --- Run scans ---
	query := fmt.Sprintf("after:%d", time.Now().Add(-sinceDuration).Unix())
	start := time.Now()
	failed := 0

	for i, userID := range users {
		if i > 0 {
			time.Sleep(cfg.InterUserDelay)
		}

		record, err := coordinator.ScanWindow(ctx, userID, query, *maxFlag)
		if err != nil {
			failed++
			slog.Error("scan failed", "user", userID, "error", err)
			continue
		}

		slog.Info("user result",
			"user", userID,
			"new", record.LastScanNewCount,
			"total", record.TotalEmailCount,
			"high", record.Summary.High,
			"medium", record.Summary.Medium,
			"low", record.Summary.Low,
		)
	}

	slog.Info("scan complete",
		"users", len(users),
		"failed", failed,
		"elapsed", time.Since(start),
	)

	if failed > 0 {
		os.Exit(1)
	}
}
