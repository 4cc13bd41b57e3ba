// Location Tracker - Per-user location databases on Cloudant/CouchDB
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/locationtracker

package provision

import (
	"context"

	"github.com/tomtom215/locationtracker/internal/logging"
	"github.com/tomtom215/locationtracker/internal/models"
)

// Destroyer deletes databases.
type Destroyer interface {
	DestroyDatabase(ctx context.Context, db string) error
}

// Deprovision destroys the aggregate database and then the users database,
// stopping at the first failure. Per-user databases and the places
// database are left alone; use the orphan sweep for the former.
func Deprovision(ctx context.Context, s Destroyer, dbs Databases) error {
	for _, target := range []struct{ op, db string }{
		{"deprovision.destroy_aggregate", dbs.Aggregate},
		{"deprovision.destroy_users", dbs.Users},
	} {
		if err := s.DestroyDatabase(ctx, target.db); err != nil {
			logging.Ctx(ctx).Error().Err(err).Str("database", target.db).Msg("Failed to destroy database")
			return models.E(models.KindStore, target.op, err)
		}
		logging.Ctx(ctx).Info().Str("database", target.db).Msg("Database destroyed")
	}
	return nil
}
