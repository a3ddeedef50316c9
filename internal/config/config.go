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

// Package config loads configuration from config.yaml and environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// AccountConfig holds mail API credentials for a single user's mailbox.
type AccountConfig struct {
	UserID       string `yaml:"user_id"`
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
	TokenURL     string `yaml:"token_url"`
}

// Config holds all configuration for the scan service.
type Config struct {
	Accounts []AccountConfig

	// Mail provider
	MailAPIBaseURL string
	PageSize       int
	PageDelay      time.Duration

	// Scheduler
	SweepInterval   time.Duration
	SweepStartDelay time.Duration
	InterUserDelay  time.Duration

	// Postgres. Empty selects the in-memory store.
	DatabaseURL string

	// Redis. Empty disables dedup and alert publishing.
	RedisURL    string
	AlertsQueue string

	// API server
	Port int
}

// rawConfig mirrors the YAML structure for unmarshalling.
type rawConfig struct {
	Accounts []struct {
		UserID       string `yaml:"user_id"`
		ClientID     string `yaml:"client_id"`
		ClientSecret string `yaml:"client_secret"`
		TokenURL     string `yaml:"token_url"`
	} `yaml:"accounts"`
	MailAPI struct {
		BaseURL  string `yaml:"base_url"`
		PageSize int    `yaml:"page_size"`
	} `yaml:"mail_api"`
	Database struct {
		URL string `yaml:"url"`
	} `yaml:"database"`
	Redis struct {
		URL    string `yaml:"url"`
		Queues struct {
			Alerts string `yaml:"alerts"`
		} `yaml:"queues"`
	} `yaml:"redis"`
}

// Load reads configuration from config.yaml (with env var expansion) and
// environment variables for non-YAML settings.
func Load() (*Config, error) {
	configPath := envOrDefault("CONFIG_PATH", "/app/config/config.yaml")

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("read config file %s: %w", configPath, err)
	}

	// Expand ${VAR} references in the YAML
	expanded := os.ExpandEnv(string(data))

	var raw rawConfig
	if err := yaml.Unmarshal([]byte(expanded), &raw); err != nil {
		return nil, fmt.Errorf("parse config YAML: %w", err)
	}

	cfg := &Config{
		MailAPIBaseURL:  firstNonEmpty(raw.MailAPI.BaseURL, envOrDefault("MAIL_API_BASE_URL", "")),
		PageSize:        raw.MailAPI.PageSize,
		PageDelay:       envOrDefaultDuration("PAGE_DELAY", 100*time.Millisecond),
		SweepInterval:   envOrDefaultDuration("SWEEP_INTERVAL", 5*time.Minute),
		SweepStartDelay: envOrDefaultDuration("SWEEP_START_DELAY", 10*time.Second),
		InterUserDelay:  envOrDefaultDuration("INTER_USER_DELAY", 2*time.Second),
		DatabaseURL:     firstNonEmpty(raw.Database.URL, envOrDefault("DATABASE_URL", "")),
		RedisURL:        firstNonEmpty(raw.Redis.URL, envOrDefault("REDIS_URL", "")),
		AlertsQueue:     firstNonEmpty(raw.Redis.Queues.Alerts, envOrDefault("ALERTS_QUEUE", "alerts")),
		Port:            envOrDefaultInt("PORT", 8080),
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = envOrDefaultInt("PAGE_SIZE", 50)
	}

	if cfg.MailAPIBaseURL == "" {
		return nil, fmt.Errorf("mail_api.base_url not configured")
	}

	// Build account configs
	for _, a := range raw.Accounts {
		ac := AccountConfig{
			UserID:       a.UserID,
			ClientID:     a.ClientID,
			ClientSecret: a.ClientSecret,
			TokenURL:     a.TokenURL,
		}

		// Skip accounts with empty credentials (commented out in YAML)
		if ac.UserID == "" || ac.ClientID == "" || ac.ClientSecret == "" || ac.TokenURL == "" {
			continue
		}

		cfg.Accounts = append(cfg.Accounts, ac)
	}

	if len(cfg.Accounts) == 0 {
		return nil, fmt.Errorf("no accounts configured — check config.yaml and environment variables")
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envOrDefaultInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envOrDefaultDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
