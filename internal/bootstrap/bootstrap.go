// Location Tracker - Per-user location databases on Cloudant/CouchDB
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/locationtracker

// Package bootstrap creates and removes the shared databases the server
// depends on. It backs the admin CLI and is never reached over HTTP.
package bootstrap

import (
	"context"
	"time"

	"github.com/tomtom215/locationtracker/internal/logging"
	"github.com/tomtom215/locationtracker/internal/models"
	"github.com/tomtom215/locationtracker/internal/provision"
	"github.com/tomtom215/locationtracker/internal/store"
)

// Store is the subset of the store client bootstrap uses.
type Store interface {
	CreateDatabase(ctx context.Context, db string) (bool, error)
	DestroyDatabase(ctx context.Context, db string) error
	InsertDesignDocument(ctx context.Context, db string, doc store.DesignDocument) (bool, error)
	CreateIndex(ctx context.Context, db string, idx store.Index) (bool, error)
	BulkInsert(ctx context.Context, db string, docs []interface{}) ([]store.BulkResult, error)
}

// Databases names the shared databases.
type Databases struct {
	Users     string
	Aggregate string
	Places    string
}

// Options tune Put.
type Options struct {
	// Places are seeded into the places database when Put creates it.
	Places []Place
	// SkipPlaces disables seeding even for a new places database.
	SkipPlaces bool
	// Now stamps created_at. Defaults to time.Now.
	Now func() time.Time
}

// Action names used in Report steps.
const (
	ActionCreateDatabase = "create_database"
	ActionGeoIndex       = "geo_index"
	ActionAPIKeyIndex    = "api_key_index"
	ActionSeedPlaces     = "seed_places"
)

// StepReport is the outcome of one Put step. Created is false when the
// object already existed.
type StepReport struct {
	Action   string `json:"action"`
	Database string `json:"database"`
	Created  bool   `json:"created"`
	Count    int    `json:"count,omitempty"`
}

// Report lists every step Put ran, in order.
type Report struct {
	Steps []StepReport `json:"steps"`
}

// Created reports whether any step created something.
func (r *Report) Created() bool {
	for _, s := range r.Steps {
		if s.Created {
			return true
		}
	}
	return false
}

func (r *Report) add(action, db string, created bool) {
	r.Steps = append(r.Steps, StepReport{Action: action, Database: db, Created: created})
	event := logging.Info().Str("action", action).Str("database", db)
	if created {
		event.Msg("Created")
	} else {
		event.Msg("Already exists")
	}
}

// apiKeyIndex lets session resolution find a user by API key.
var apiKeyIndex = store.Index{
	Name:  "api-key-index",
	Type:  "json",
	Index: store.IndexFields{Fields: []string{"api_key"}},
}

// Put creates the aggregate, users and places databases with their indexes.
// Every step tolerates an existing object, so Put can be re-run. Places are
// seeded only when the places database is created by this call; an
// existing places database is never touched.
//
// The report holds the steps completed before any error.
func Put(ctx context.Context, s Store, dbs Databases, opts Options) (*Report, error) {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	r := &Report{}

	if _, err := createDatabase(ctx, s, r, dbs.Aggregate); err != nil {
		return r, err
	}
	if err := attachGeoIndex(ctx, s, r, dbs.Aggregate); err != nil {
		return r, err
	}

	if _, err := createDatabase(ctx, s, r, dbs.Users); err != nil {
		return r, err
	}
	created, err := s.CreateIndex(ctx, dbs.Users, apiKeyIndex)
	if err != nil {
		return r, models.E(models.KindStore, "bootstrap.api_key_index", err)
	}
	r.add(ActionAPIKeyIndex, dbs.Users, created)

	placesCreated, err := createDatabase(ctx, s, r, dbs.Places)
	if err != nil {
		return r, err
	}
	if err := attachGeoIndex(ctx, s, r, dbs.Places); err != nil {
		return r, err
	}

	switch {
	case !placesCreated:
	case opts.SkipPlaces:
		logging.Info().Str("database", dbs.Places).Msg("Place seeding skipped")
	case len(opts.Places) == 0:
		logging.Warn().Str("database", dbs.Places).Msg("No places to seed")
	default:
		if err := seedPlaces(ctx, s, r, dbs.Places, opts.Places, opts.Now()); err != nil {
			return r, err
		}
	}
	return r, nil
}

func createDatabase(ctx context.Context, s Store, r *Report, db string) (bool, error) {
	created, err := s.CreateDatabase(ctx, db)
	if err != nil {
		logging.Error().Err(err).Str("database", db).Msg("Failed to create database")
		return false, models.E(models.KindStore, "bootstrap.create_database", err)
	}
	r.add(ActionCreateDatabase, db, created)
	return created, nil
}

func attachGeoIndex(ctx context.Context, s Store, r *Report, db string) error {
	created, err := s.InsertDesignDocument(ctx, db, store.GeoDesignDocument())
	if err != nil {
		logging.Error().Err(err).Str("database", db).Msg("Failed to create geo index")
		return models.E(models.KindStore, "bootstrap.geo_index", err)
	}
	r.add(ActionGeoIndex, db, created)
	return nil
}

func seedPlaces(ctx context.Context, s Store, r *Report, db string, places []Place, now time.Time) error {
	stamp := now.UnixMilli()
	docs := make([]interface{}, 0, len(places))
	for _, p := range places {
		doc := make(Place, len(p)+1)
		for k, v := range p {
			doc[k] = v
		}
		doc["created_at"] = stamp
		docs = append(docs, doc)
	}

	rows, err := s.BulkInsert(ctx, db, docs)
	if err != nil {
		return models.E(models.KindStore, "bootstrap.seed_places", err)
	}
	if err := store.FailedRows(rows); err != nil {
		return models.E(models.KindStore, "bootstrap.seed_places", err)
	}

	r.Steps = append(r.Steps, StepReport{Action: ActionSeedPlaces, Database: db, Created: true, Count: len(docs)})
	logging.Info().Str("database", db).Int("count", len(docs)).Msg("Places seeded")
	return nil
}

// Delete destroys the aggregate database and then the users database. The
// places database and per-user databases are kept.
func Delete(ctx context.Context, s Store, dbs Databases) error {
	return provision.Deprovision(ctx, s, provision.Databases{Users: dbs.Users, Aggregate: dbs.Aggregate})
}
