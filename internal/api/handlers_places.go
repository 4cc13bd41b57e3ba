// Location Tracker - Per-user location databases on Cloudant/CouchDB
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/locationtracker

package api

import (
	"net/http"

	"github.com/patrickmn/go-cache"

	"github.com/tomtom215/locationtracker/internal/logging"
	"github.com/tomtom215/locationtracker/internal/metrics"
)

// Places handles GET /api/places.
//
// The raw query string is passed to the places geo index untouched and the
// store's answer is relayed byte for byte. Clients therefore speak the
// store's geo query parameters (bbox, lat/lon/radius, g, relation, limit,
// include_docs and so on) directly.
func (h *Handler) Places(w http.ResponseWriter, r *http.Request) {
	if !h.configured() {
		respondUnconfigured(w, r)
		return
	}

	raw := r.URL.RawQuery
	if h.placesCache != nil {
		if body, ok := h.placesCache.Get(raw); ok {
			metrics.RecordPlacesCache(true)
			writeRaw(w, body.([]byte))
			return
		}
		metrics.RecordPlacesCache(false)
	}

	body, err := h.store.GeoQuery(r.Context(), h.placesDB, raw)
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("Places query failed")
		respondError(w, http.StatusInternalServerError, msgInternal)
		return
	}

	if h.placesCache != nil {
		h.placesCache.Set(raw, body, cache.DefaultExpiration)
	}
	writeRaw(w, body)
}

func writeRaw(w http.ResponseWriter, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		logging.Error().Err(err).Msg("Failed to write places response")
	}
}
