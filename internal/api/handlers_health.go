// Location Tracker - Per-user location databases on Cloudant/CouchDB
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/locationtracker

package api

import (
	"net/http"
	"time"
)

// HealthStatus is the body of GET /health.
type HealthStatus struct {
	Status          string  `json:"status"`
	StoreConfigured bool    `json:"store_configured"`
	StoreReachable  *bool   `json:"store_reachable,omitempty"`
	StoreVersion    string  `json:"store_version,omitempty"`
	Uptime          float64 `json:"uptime_seconds"`
}

// Health handles GET /health. It always answers 200 while the process is
// serving; store reachability is reported, not enforced.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	status := HealthStatus{
		Status:          "ok",
		StoreConfigured: h.configured(),
		Uptime:          time.Since(h.startTime).Seconds(),
	}
	if h.configured() && h.probe != nil {
		up := h.probe.Healthy()
		status.StoreReachable = &up
		status.StoreVersion = h.probe.Version()
	}
	respondJSON(w, http.StatusOK, status)
}
