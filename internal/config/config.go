// Location Tracker - Per-user location databases on Cloudant/CouchDB
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/locationtracker

package config

import (
	"fmt"
	"time"
)

// Config holds all application configuration.
//
// Config is immutable after LoadWithKoanf returns and safe for concurrent
// read access.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Store     StoreConfig     `koanf:"store"`
	Databases DatabasesConfig `koanf:"databases"`
	Places    PlacesConfig    `koanf:"places"`
	Security  SecurityConfig  `koanf:"security"`
	Logging   LoggingConfig   `koanf:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            int           `koanf:"port"`
	Host            string        `koanf:"host"`
	Timeout         time.Duration `koanf:"timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	Environment     string        `koanf:"environment"` // "development" or "production" (default: "development")
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// StoreConfig is the connection to the Cloudant/CouchDB server.
type StoreConfig struct {
	// URL of the server. Credentials may be embedded as userinfo.
	URL      string `koanf:"url"`
	Username string `koanf:"username"`
	Password string `koanf:"password"`

	// Timeout for a single store request.
	Timeout time.Duration `koanf:"timeout"`

	// RequestsPerSecond limits outbound calls. Zero disables the limiter.
	RequestsPerSecond float64 `koanf:"requests_per_second"`
	Burst             int     `koanf:"burst"`

	// CircuitBreaker wraps the client so a failing store is not hammered.
	CircuitBreaker bool `koanf:"circuit_breaker"`
}

// DatabasesConfig names the shared databases and the per-user prefix.
type DatabasesConfig struct {
	Users          string `koanf:"users" validate:"required,couchname"`
	Aggregate      string `koanf:"aggregate" validate:"required,couchname"`
	Places         string `koanf:"places" validate:"required,couchname"`
	LocationPrefix string `koanf:"location_prefix" validate:"required,couchname"`
}

// PlacesConfig holds settings for the places geo query.
type PlacesConfig struct {
	// CacheTTL caches responses keyed by the raw query string. Zero
	// disables caching, which keeps responses always fresh.
	CacheTTL time.Duration `koanf:"cache_ttl"`

	// SeedFile holds the place documents loaded by "admin db put" when the
	// places database is first created, as {"places": [...]} or a bare
	// array. Empty skips seeding.
	SeedFile string `koanf:"seed_file"`
}

// SecurityConfig holds CORS and inbound rate limit settings.
type SecurityConfig struct {
	CORSOrigins       []string      `koanf:"cors_origins"`
	RateLimitReqs     int           `koanf:"rate_limit_requests"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: trace, debug, info, warn, error.
	// Default: info
	Level string `koanf:"level"`

	// Format is the output format: json or console.
	// Default: json
	Format string `koanf:"format"`

	// Caller includes caller file and line number in logs.
	// Default: false
	Caller bool `koanf:"caller"`
}

// StoreConfigured reports whether a store URL is available.
func (c *Config) StoreConfigured() bool {
	return c.Store.URL != ""
}
