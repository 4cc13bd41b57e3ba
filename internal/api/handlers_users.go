// Location Tracker - Per-user location databases on Cloudant/CouchDB
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/locationtracker

package api

import (
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/locationtracker/internal/logging"
	"github.com/tomtom215/locationtracker/internal/models"
	"github.com/tomtom215/locationtracker/internal/provision"
	"github.com/tomtom215/locationtracker/internal/validation"
)

// RegisterUser handles PUT /api/users/{id}.
//
// The path id must be "org.couchdb.user:" followed by the body's name.
// Responds 201 {ok, id, rev}, 400 for a malformed or mismatched body, 409
// when the user exists and 500 for store failures.
func (h *Handler) RegisterUser(w http.ResponseWriter, r *http.Request) {
	if !h.configured() {
		respondUnconfigured(w, r)
		return
	}

	// chi matches on RawPath when the request carried one, leaving the
	// parameter escaped. Otherwise it is already decoded.
	id := chi.URLParam(r, "id")
	if r.URL.RawPath != "" {
		unescaped, err := url.PathUnescape(id)
		if err != nil {
			respondError(w, http.StatusBadRequest, msgBadRequest)
			return
		}
		id = unescaped
	}

	var req models.RegisterRequest
	if err := decodeBody(w, r, &req); err != nil {
		logging.Ctx(r.Context()).Debug().Err(err).Msg("Malformed registration body")
		respondError(w, http.StatusBadRequest, msgBadRequest)
		return
	}
	if verr := validation.ValidateStruct(&req); verr != nil {
		respondValidationError(w, r, verr)
		return
	}

	res, err := h.provisioner.Register(r.Context(), provision.Request{
		ID:       id,
		Name:     req.Name,
		Password: req.Password,
	})
	if err != nil {
		respondKindError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, models.RegisterResponse{OK: true, ID: res.ID, Rev: res.Rev})
}
