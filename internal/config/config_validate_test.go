// Location Tracker - Per-user location databases on Cloudant/CouchDB
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/locationtracker

package config

import (
	"strings"
	"testing"
	"time"
)

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr string
	}{
		{"defaults", func(*Config) {}, ""},
		{"zero port", func(c *Config) { c.Server.Port = 0 }, "HTTP_PORT"},
		{"zero timeout", func(c *Config) { c.Server.Timeout = 0 }, "SERVER_TIMEOUT"},
		{"store url with path", func(c *Config) { c.Store.URL = "https://host/db" }, "base URL only"},
		{"store url with query", func(c *Config) { c.Store.URL = "https://host?x=1" }, "query parameters"},
		{"store url without host", func(c *Config) { c.Store.URL = "https://" }, "host is required"},
		{"store url ok", func(c *Config) { c.Store.URL = "https://acct.cloudant.com/" }, ""},
		{"negative store rate", func(c *Config) { c.Store.RequestsPerSecond = -1 }, "STORE_REQUESTS_PER_SECOND"},
		{"rate without burst", func(c *Config) {
			c.Store.RequestsPerSecond = 5
			c.Store.Burst = 0
		}, "STORE_BURST"},
		{"duplicate databases", func(c *Config) { c.Databases.Places = c.Databases.Users }, "PLACES_DB must differ from USERS_DB"},
		{"shared db with user prefix", func(c *Config) { c.Databases.Aggregate = "lt_user_all" }, "AGGREGATE_DB must not start"},
		{"invalid db name", func(c *Config) { c.Databases.Users = "_users" }, "invalid database names"},
		{"empty prefix", func(c *Config) { c.Databases.LocationPrefix = "" }, "invalid database names"},
		{"negative cache ttl", func(c *Config) { c.Places.CacheTTL = -time.Second }, "PLACES_CACHE_TTL"},
		{"mixed cors", func(c *Config) { c.Security.CORSOrigins = []string{"*", "https://a"} }, "CORS_ORIGINS"},
		{"rate limit too low", func(c *Config) { c.Security.RateLimitReqs = 0 }, "RATE_LIMIT_REQUESTS"},
		{"rate limit disabled skips bounds", func(c *Config) {
			c.Security.RateLimitDisabled = true
			c.Security.RateLimitReqs = 0
		}, ""},
		{"window too long", func(c *Config) { c.Security.RateLimitWindow = 2 * time.Hour }, "RATE_LIMIT_WINDOW"},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }, "LOG_FORMAT"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := defaultConfig()
			tt.modify(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() = %v, want error containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestIsProduction(t *testing.T) {
	t.Parallel()

	for env, want := range map[string]bool{
		"production":  true,
		"PROD":        true,
		"development": false,
		"":            false,
	} {
		cfg := defaultConfig()
		cfg.Server.Environment = env
		if got := cfg.IsProduction(); got != want {
			t.Errorf("IsProduction(%q) = %v, want %v", env, got, want)
		}
	}
}

func TestShouldWarnAboutCORS(t *testing.T) {
	t.Parallel()

	cfg := defaultConfig()
	if cfg.ShouldWarnAboutCORS() {
		t.Error("wildcard in development should not warn")
	}
	cfg.Server.Environment = "production"
	if !cfg.ShouldWarnAboutCORS() {
		t.Error("wildcard in production should warn")
	}
	cfg.Security.CORSOrigins = []string{"https://app.example.com"}
	if cfg.ShouldWarnAboutCORS() {
		t.Error("specific origins should not warn")
	}
}

func TestServerAddr(t *testing.T) {
	t.Parallel()

	s := ServerConfig{Host: "127.0.0.1", Port: 6001}
	if got := s.Addr(); got != "127.0.0.1:6001" {
		t.Errorf("Addr() = %q", got)
	}
}
