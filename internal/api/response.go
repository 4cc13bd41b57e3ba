// Location Tracker - Per-user location databases on Cloudant/CouchDB
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/locationtracker

package api

import (
	"net/http"

	"github.com/goccy/go-json"

	"github.com/tomtom215/locationtracker/internal/logging"
	"github.com/tomtom215/locationtracker/internal/models"
	"github.com/tomtom215/locationtracker/internal/validation"
)

// Public error messages. Causes are logged, never returned.
const (
	msgInternal     = "Internal Server Error"
	msgBadRequest   = "Bad Request"
	msgDuplicate    = "User already exists"
	msgUnconfigured = "No database server configured"
)

// respondJSON writes data as JSON with the given status.
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	body, err := json.Marshal(data)
	if err != nil {
		logging.Error().Err(err).Msg("Failed to marshal JSON response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	if _, err := w.Write(body); err != nil {
		logging.Error().Err(err).Msg("Failed to write JSON response")
	}
}

// respondError writes {"error": message}.
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, models.ErrorResponse{Error: message})
}

// statusForKind maps an error kind to its status code and public message.
func statusForKind(kind models.ErrorKind) (int, string) {
	switch kind {
	case models.KindDuplicate:
		return http.StatusConflict, msgDuplicate
	case models.KindBadRequest:
		return http.StatusBadRequest, msgBadRequest
	case models.KindUnconfigured:
		return http.StatusInternalServerError, msgUnconfigured
	default:
		// Store failures and rejected logins look the same to clients.
		return http.StatusInternalServerError, msgInternal
	}
}

// respondKindError logs err and writes the response its kind maps to.
func respondKindError(w http.ResponseWriter, r *http.Request, err error) {
	kind := models.KindOf(err)
	status, message := statusForKind(kind)

	event := logging.Ctx(r.Context()).Warn()
	if status >= http.StatusInternalServerError && kind != models.KindAuthentication && kind != models.KindUnconfigured {
		event = logging.Ctx(r.Context()).Error()
	}
	event.Err(err).Str("kind", kind.String()).Int("status", status).Msg("Request failed")

	respondError(w, status, message)
}

// respondValidationError logs each rejected field and answers 400 with the
// validator's summary.
func respondValidationError(w http.ResponseWriter, r *http.Request, verr *validation.RequestValidationError) {
	log := logging.Ctx(r.Context())
	for _, fe := range verr.Errors() {
		log.Debug().Str("field", fe.Field()).Str("tag", fe.Tag()).Str("param", fe.Param()).Msg("Request validation failed")
	}
	respondError(w, http.StatusBadRequest, verr.ToAPIError().Message)
}

// respondUnconfigured answers a request that needs the store when none is bound.
func respondUnconfigured(w http.ResponseWriter, r *http.Request) {
	respondKindError(w, r, models.ErrUnconfigured)
}

// decodeBody decodes a JSON request body into dst. An empty body is an error.
func decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	return dec.Decode(dst)
}

// maxBodyBytes caps request bodies.
const maxBodyBytes = 64 << 10
