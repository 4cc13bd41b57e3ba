// Location Tracker - Per-user location databases on Cloudant/CouchDB
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/locationtracker

package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/tomtom215/locationtracker/internal/validation"
)

// Validate checks that configuration values are usable.
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validateStore(); err != nil {
		return err
	}
	if err := c.validateDatabases(); err != nil {
		return err
	}
	if err := c.validatePlaces(); err != nil {
		return err
	}
	if err := c.validateSecurity(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535")
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("SERVER_TIMEOUT must be positive")
	}
	if c.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("SHUTDOWN_TIMEOUT must be positive")
	}
	return nil
}

// validateStore validates the store connection. An empty URL is allowed;
// the API then reports that no database server is configured.
func (c *Config) validateStore() error {
	if c.Store.URL != "" {
		if err := validateHTTPURL(c.Store.URL, "CLOUDANT_URL"); err != nil {
			return err
		}
	}
	if c.Store.Timeout <= 0 {
		return fmt.Errorf("STORE_TIMEOUT must be positive")
	}
	if c.Store.RequestsPerSecond < 0 {
		return fmt.Errorf("STORE_REQUESTS_PER_SECOND must not be negative")
	}
	if c.Store.RequestsPerSecond > 0 && c.Store.Burst < 1 {
		return fmt.Errorf("STORE_BURST must be at least 1 when the store rate limit is enabled")
	}
	return nil
}

// validateHTTPURL checks that rawURL is an absolute http(s) base URL.
func validateHTTPURL(rawURL, fieldName string) error {
	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("%s failed to parse URL: %w", fieldName, err)
	}
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return fmt.Errorf("%s scheme must be http or https, got: %s", fieldName, parsedURL.Scheme)
	}
	if parsedURL.Host == "" {
		return fmt.Errorf("%s host is required", fieldName)
	}
	if parsedURL.Path != "" && parsedURL.Path != "/" {
		return fmt.Errorf("%s should be base URL only, remove path: %s", fieldName, parsedURL.Path)
	}
	if parsedURL.RawQuery != "" {
		return fmt.Errorf("%s should not contain query parameters, remove: ?%s", fieldName, parsedURL.RawQuery)
	}
	return nil
}

func (c *Config) validateDatabases() error {
	if err := validation.ValidateStruct(&c.Databases); err != nil {
		return fmt.Errorf("invalid database names: %w", err)
	}

	shared := []struct{ field, name string }{
		{"USERS_DB", c.Databases.Users},
		{"AGGREGATE_DB", c.Databases.Aggregate},
		{"PLACES_DB", c.Databases.Places},
	}
	seen := make(map[string]string, len(shared))
	for _, db := range shared {
		if other, dup := seen[db.name]; dup {
			return fmt.Errorf("%s must differ from %s", db.field, other)
		}
		seen[db.name] = db.field

		// The orphan sweep treats every prefixed name as a per-user database.
		if strings.HasPrefix(db.name, c.Databases.LocationPrefix) {
			return fmt.Errorf("%s must not start with LOCATION_DB_PREFIX %q", db.field, c.Databases.LocationPrefix)
		}
	}
	return nil
}

func (c *Config) validatePlaces() error {
	if c.Places.CacheTTL < 0 {
		return fmt.Errorf("PLACES_CACHE_TTL must not be negative")
	}
	return nil
}

// Rate limit bounds
const (
	minRateLimitRequests = 1
	maxRateLimitRequests = 100000
	minRateLimitWindow   = time.Second
	maxRateLimitWindow   = time.Hour
)

func (c *Config) validateSecurity() error {
	if c.hasWildcardCORS() && len(c.Security.CORSOrigins) > 1 {
		return fmt.Errorf("CORS_ORIGINS cannot mix * with specific origins")
	}
	if c.Security.RateLimitDisabled {
		return nil
	}
	if c.Security.RateLimitReqs < minRateLimitRequests || c.Security.RateLimitReqs > maxRateLimitRequests {
		return fmt.Errorf("RATE_LIMIT_REQUESTS must be between %d and %d", minRateLimitRequests, maxRateLimitRequests)
	}
	if c.Security.RateLimitWindow < minRateLimitWindow || c.Security.RateLimitWindow > maxRateLimitWindow {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be between %v and %v", minRateLimitWindow, maxRateLimitWindow)
	}
	return nil
}

// hasWildcardCORS checks if CORS is configured with wildcard origins
func (c *Config) hasWildcardCORS() bool {
	for _, origin := range c.Security.CORSOrigins {
		if origin == "*" {
			return true
		}
	}
	return false
}

// ShouldWarnAboutCORS reports a wildcard origin in production. Login
// responses carry session cookies, so a wildcard is worth a startup warning.
func (c *Config) ShouldWarnAboutCORS() bool {
	return c.IsProduction() && c.hasWildcardCORS()
}

// IsProduction returns true if the application is running in production mode.
func (c *Config) IsProduction() bool {
	env := strings.ToLower(c.Server.Environment)
	return env == "production" || env == "prod"
}

var validLogLevels = map[string]bool{
	"trace": true,
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

var validLogFormats = map[string]bool{
	"json":    true,
	"console": true,
}

func (c *Config) validateLogging() error {
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("LOG_LEVEL must be one of: trace, debug, info, warn, error")
	}
	if c.Logging.Format != "" && !validLogFormats[c.Logging.Format] {
		return fmt.Errorf("LOG_FORMAT must be one of: json, console")
	}
	return nil
}
