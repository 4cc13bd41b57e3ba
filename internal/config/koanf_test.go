// Location Tracker - Per-user location databases on Cloudant/CouchDB
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/locationtracker

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// isolateEnv clears every mapped variable so the host environment cannot
// leak into a test.
func isolateEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PORT", "HTTP_PORT", "HTTP_HOST", "SERVER_TIMEOUT", "SHUTDOWN_TIMEOUT", "ENVIRONMENT",
		"CLOUDANT_URL", "CLOUDANT_USERNAME", "CLOUDANT_PASSWORD", "STORE_TIMEOUT",
		"STORE_REQUESTS_PER_SECOND", "STORE_BURST", "STORE_CIRCUIT_BREAKER",
		"USERS_DB", "AGGREGATE_DB", "PLACES_DB", "LOCATION_DB_PREFIX",
		"PLACES_CACHE_TTL", "PLACES_SEED_FILE",
		"CORS_ORIGINS", "RATE_LIMIT_REQUESTS", "RATE_LIMIT_WINDOW", "DISABLE_RATE_LIMIT",
		"LOG_LEVEL", "LOG_FORMAT", "LOG_CALLER",
		VCAPServicesEnvVar,
	} {
		t.Setenv(key, "")
		_ = os.Unsetenv(key)
	}
	t.Setenv(ConfigPathEnvVar, filepath.Join(t.TempDir(), "missing.yaml"))
}

// TestDefaultConfig verifies that defaultConfig() returns proper defaults
func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()

	if cfg.Server.Port != 6001 {
		t.Errorf("Server.Port = %d, want 6001", cfg.Server.Port)
	}
	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("Server.Host = %q, want 0.0.0.0", cfg.Server.Host)
	}
	if cfg.Store.URL != "" {
		t.Errorf("Store.URL should be empty by default, got %q", cfg.Store.URL)
	}
	if !cfg.Store.CircuitBreaker {
		t.Error("Store.CircuitBreaker should be enabled by default")
	}
	if cfg.Databases.Users != "lt_users" {
		t.Errorf("Databases.Users = %q, want lt_users", cfg.Databases.Users)
	}
	if cfg.Databases.Aggregate != "lt_locations_all" {
		t.Errorf("Databases.Aggregate = %q, want lt_locations_all", cfg.Databases.Aggregate)
	}
	if cfg.Databases.Places != "lt_places" {
		t.Errorf("Databases.Places = %q, want lt_places", cfg.Databases.Places)
	}
	if cfg.Databases.LocationPrefix != "lt_user_" {
		t.Errorf("Databases.LocationPrefix = %q, want lt_user_", cfg.Databases.LocationPrefix)
	}
	if cfg.Places.CacheTTL != 0 {
		t.Errorf("Places.CacheTTL = %v, want 0", cfg.Places.CacheTTL)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("Logging.Level = %q, want info", cfg.Logging.Level)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate, got %v", err)
	}
}

func TestLoadWithKoanf_Defaults(t *testing.T) {
	isolateEnv(t)

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf() error = %v", err)
	}
	if cfg.StoreConfigured() {
		t.Error("store should not be configured without a URL")
	}
	if cfg.Server.Timeout != 30*time.Second {
		t.Errorf("Server.Timeout = %v, want 30s", cfg.Server.Timeout)
	}
}

func TestLoadWithKoanf_EnvOverrides(t *testing.T) {
	isolateEnv(t)
	t.Setenv("PORT", "8080")
	t.Setenv("CLOUDANT_URL", "https://acct.cloudant.com")
	t.Setenv("CLOUDANT_USERNAME", "acct")
	t.Setenv("CLOUDANT_PASSWORD", "pw")
	t.Setenv("STORE_CIRCUIT_BREAKER", "false")
	t.Setenv("PLACES_CACHE_TTL", "2m")
	t.Setenv("CORS_ORIGINS", "https://a.example.com, https://b.example.com")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("SOME_UNRELATED_VAR", "ignored")

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf() error = %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Store.URL != "https://acct.cloudant.com" || cfg.Store.Username != "acct" || cfg.Store.Password != "pw" {
		t.Errorf("Store = %+v", cfg.Store)
	}
	if cfg.Store.CircuitBreaker {
		t.Error("Store.CircuitBreaker should be disabled by env")
	}
	if cfg.Places.CacheTTL != 2*time.Minute {
		t.Errorf("Places.CacheTTL = %v, want 2m", cfg.Places.CacheTTL)
	}
	if len(cfg.Security.CORSOrigins) != 2 || cfg.Security.CORSOrigins[1] != "https://b.example.com" {
		t.Errorf("Security.CORSOrigins = %v", cfg.Security.CORSOrigins)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want debug", cfg.Logging.Level)
	}
	if !cfg.StoreConfigured() {
		t.Error("store should be configured")
	}
}

func TestLoadWithKoanf_ConfigFile(t *testing.T) {
	isolateEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
server:
  port: 9000
databases:
  users: tracker_users
store:
  url: http://localhost:5984
  timeout: 5s
security:
  cors_origins:
    - https://app.example.com
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv(ConfigPathEnvVar, path)
	t.Setenv("HTTP_PORT", "9100")

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf() error = %v", err)
	}

	if cfg.Server.Port != 9100 {
		t.Errorf("Server.Port = %d, want env value 9100 over file value", cfg.Server.Port)
	}
	if cfg.Databases.Users != "tracker_users" {
		t.Errorf("Databases.Users = %q, want tracker_users", cfg.Databases.Users)
	}
	if cfg.Databases.Aggregate != "lt_locations_all" {
		t.Errorf("Databases.Aggregate = %q, want default", cfg.Databases.Aggregate)
	}
	if cfg.Store.Timeout != 5*time.Second {
		t.Errorf("Store.Timeout = %v, want 5s", cfg.Store.Timeout)
	}
	if len(cfg.Security.CORSOrigins) != 1 || cfg.Security.CORSOrigins[0] != "https://app.example.com" {
		t.Errorf("Security.CORSOrigins = %v", cfg.Security.CORSOrigins)
	}
}

func TestLoadWithKoanf_VCAPServices(t *testing.T) {
	isolateEnv(t)
	t.Setenv(VCAPServicesEnvVar, `{"cloudantNoSQLDB":[{"name":"tracker-db","credentials":{"username":"u","password":"p","url":"https://u:p@u.cloudant.com"}}]}`)

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf() error = %v", err)
	}
	if cfg.Store.URL != "https://u:p@u.cloudant.com" {
		t.Errorf("Store.URL = %q", cfg.Store.URL)
	}
	if cfg.Store.Username != "u" || cfg.Store.Password != "p" {
		t.Errorf("Store credentials = %q/%q", cfg.Store.Username, cfg.Store.Password)
	}
}

func TestLoadWithKoanf_InvalidValues(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"bad port", "HTTP_PORT", "70000"},
		{"bad store url", "CLOUDANT_URL", "ftp://store"},
		{"bad log level", "LOG_LEVEL", "verbose"},
		{"bad database name", "USERS_DB", "Users"},
		{"malformed vcap", VCAPServicesEnvVar, "{"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolateEnv(t)
			t.Setenv(tt.key, tt.val)
			if _, err := LoadWithKoanf(); err == nil {
				t.Errorf("LoadWithKoanf() with %s=%q should fail", tt.key, tt.val)
			}
		})
	}
}

func TestFindConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.yaml")
	if err := os.WriteFile(path, []byte("logging:\n  level: warn\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	t.Setenv(ConfigPathEnvVar, path)
	if got := findConfigFile(); got != path {
		t.Errorf("findConfigFile() = %q, want %q", got, path)
	}

	t.Setenv(ConfigPathEnvVar, filepath.Join(dir, "nope.yaml"))
	saved := DefaultConfigPaths
	DefaultConfigPaths = []string{filepath.Join(dir, "also-missing.yaml")}
	defer func() { DefaultConfigPaths = saved }()

	if got := findConfigFile(); got != "" {
		t.Errorf("findConfigFile() = %q, want empty", got)
	}
}

func TestEnvTransformFunc(t *testing.T) {
	tests := map[string]string{
		"PORT":               "server.port",
		"HTTP_PORT":          "server.port",
		"CLOUDANT_URL":       "store.url",
		"LOCATION_DB_PREFIX": "databases.location_prefix",
		"DISABLE_RATE_LIMIT": "security.rate_limit_disabled",
		"log_format":         "logging.format",
		"HOME":               "",
		"PATH":               "",
	}
	for in, want := range tests {
		if got := envTransformFunc(in); got != want {
			t.Errorf("envTransformFunc(%q) = %q, want %q", in, got, want)
		}
	}
}
