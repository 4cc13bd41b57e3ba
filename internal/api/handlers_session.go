// Location Tracker - Per-user location databases on Cloudant/CouchDB
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/locationtracker

package api

import (
	"errors"
	"net/http"

	"github.com/tomtom215/locationtracker/internal/logging"
	"github.com/tomtom215/locationtracker/internal/models"
	"github.com/tomtom215/locationtracker/internal/session"
	"github.com/tomtom215/locationtracker/internal/validation"
)

// Login handles POST /api/login and POST /api/session.
//
// On success the body is the credential bundle and, when the store opened a
// cookie session, Set-Cookie carries the rewritten AuthSession cookie.
// Unknown users and wrong passwords answer 500 like any other failure.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	if !h.configured() {
		respondUnconfigured(w, r)
		return
	}

	var req models.LoginRequest
	if err := decodeBody(w, r, &req); err != nil {
		logging.Ctx(r.Context()).Debug().Err(err).Msg("Malformed login body")
		respondError(w, http.StatusBadRequest, msgBadRequest)
		return
	}
	if verr := validation.ValidateStruct(&req); verr != nil {
		respondValidationError(w, r, verr)
		return
	}

	res, err := h.sessions.Login(r.Context(), req)
	if err != nil {
		respondKindError(w, r, err)
		return
	}

	if res.Cookie != "" {
		w.Header().Set("Set-Cookie", res.Cookie)
	}
	respondJSON(w, http.StatusOK, res.Bundle)
}

// Session handles GET /api/session. The AuthSession cookie is resolved by
// the store and, for a registered user, enriched with the user record.
func (h *Handler) Session(w http.ResponseWriter, r *http.Request) {
	if !h.configured() {
		respondUnconfigured(w, r)
		return
	}

	var token string
	if c, err := r.Cookie(session.AuthSessionCookie); err == nil {
		token = c.Value
	} else if !errors.Is(err, http.ErrNoCookie) {
		respondError(w, http.StatusBadRequest, msgBadRequest)
		return
	}

	info, err := h.sessions.Resolve(r.Context(), token)
	if err != nil {
		respondKindError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, info)
}
