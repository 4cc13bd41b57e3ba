// Location Tracker - Per-user location databases on Cloudant/CouchDB
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/locationtracker

package api

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/tomtom215/locationtracker/internal/config"
	"github.com/tomtom215/locationtracker/internal/provision"
	"github.com/tomtom215/locationtracker/internal/session"
)

// Store is everything the handlers need from the document store.
// *store.Client and *store.BreakerClient both satisfy it.
type Store interface {
	provision.Store
	session.Store
	GeoQuery(ctx context.Context, db, rawQuery string) ([]byte, error)
}

// HealthProbe reports store reachability as last observed.
type HealthProbe interface {
	Healthy() bool
	Version() string
}

// Handler contains dependencies for API handlers.
//
// Handler methods are split across files:
//   - handlers_users.go: registration
//   - handlers_session.go: login and session introspection
//   - handlers_places.go: geo query proxy
//   - handlers_health.go: liveness
type Handler struct {
	store       Store
	provisioner *provision.Provisioner
	sessions    *session.Service
	placesDB    string
	placesCache *cache.Cache
	probe       HealthProbe
	startTime   time.Time
}

// NewHandler creates the API handler. A nil store yields a handler that
// answers every /api route with the unconfigured error. probe may be nil.
func NewHandler(s Store, cfg *config.Config, probe HealthProbe) *Handler {
	h := &Handler{
		store:     s,
		placesDB:  cfg.Databases.Places,
		probe:     probe,
		startTime: time.Now(),
	}
	if s == nil {
		return h
	}

	h.provisioner = provision.NewProvisioner(s, provision.Databases{
		Users:          cfg.Databases.Users,
		Aggregate:      cfg.Databases.Aggregate,
		LocationPrefix: cfg.Databases.LocationPrefix,
	})
	h.sessions = session.NewService(s, cfg.Databases.Users)

	if ttl := cfg.Places.CacheTTL; ttl > 0 {
		h.placesCache = cache.New(ttl, 2*ttl)
	}
	return h
}

// configured reports whether a store is bound.
func (h *Handler) configured() bool {
	return h.store != nil
}
