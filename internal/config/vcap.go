// Location Tracker - Per-user location databases on Cloudant/CouchDB
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/locationtracker

package config

import (
	"fmt"

	"github.com/goccy/go-json"
)

// VCAPServicesEnvVar carries Cloud Foundry service bindings.
const VCAPServicesEnvVar = "VCAP_SERVICES"

// cloudantServiceLabel is the service label of a bound Cloudant instance.
const cloudantServiceLabel = "cloudantNoSQLDB"

// vcapCredentials is the credentials block of a Cloudant binding.
type vcapCredentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
	URL      string `json:"url"`
}

type vcapService struct {
	Name        string           `json:"name"`
	Credentials *vcapCredentials `json:"credentials"`
}

// applyVCAPServices fills the store connection from the first bound
// Cloudant service. An explicitly configured store URL always wins, and a
// binding without credentials is ignored.
func applyVCAPServices(cfg *Config, raw string) error {
	if raw == "" || cfg.Store.URL != "" {
		return nil
	}

	var services map[string][]vcapService
	if err := json.Unmarshal([]byte(raw), &services); err != nil {
		return fmt.Errorf("failed to parse %s: %w", VCAPServicesEnvVar, err)
	}

	bound := services[cloudantServiceLabel]
	if len(bound) == 0 || bound[0].Credentials == nil {
		return nil
	}

	creds := bound[0].Credentials
	cfg.Store.URL = creds.URL
	if cfg.Store.Username == "" {
		cfg.Store.Username = creds.Username
		cfg.Store.Password = creds.Password
	}
	return nil
}
