// Location Tracker - Per-user location databases on Cloudant/CouchDB
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/locationtracker

package provision

import (
	"context"
	"sort"

	"github.com/tomtom215/locationtracker/internal/logging"
	"github.com/tomtom215/locationtracker/internal/models"
)

// Orphan is a per-user database with no matching user record, typically
// left behind by a registration that failed after step 2.
type Orphan struct {
	Database string `json:"database"`
	Name     string `json:"name"`
	Purged   bool   `json:"purged"`
	Error    string `json:"error,omitempty"`
}

// SweepOrphans lists per-user databases whose decoded login name has no
// user record. With purge set each orphan is destroyed; a failed destroy is
// recorded on the Orphan and the sweep continues. The sweep is never run
// automatically.
//
// A registration in flight between steps 2 and 6 looks exactly like an
// orphan, so purging while the server accepts registrations can destroy a
// database that is about to be claimed.
//
// Only databases are swept, never access lists. A registration that loses
// the race for an id at persist_user has already bound its fresh API key
// on the winner's database, which is live and so not an orphan. That key
// is never returned to any client, but its grant stays in the winner's
// access list until removed by hand.
func (p *Provisioner) SweepOrphans(ctx context.Context, purge bool) ([]Orphan, error) {
	dbs, err := p.store.ListDatabases(ctx)
	if err != nil {
		return nil, models.E(models.KindStore, "provision.sweep_orphans", err)
	}
	sort.Strings(dbs)

	var orphans []Orphan
	for _, db := range dbs {
		name, ok := NameFromLocationDB(p.dbs.LocationPrefix, db)
		if !ok {
			continue
		}

		docs, err := p.store.FindDocuments(ctx, p.dbs.Users, map[string]interface{}{"_id": models.UserID(name)}, []string{"_id"})
		if err != nil {
			return orphans, models.E(models.KindStore, "provision.sweep_orphans", err)
		}
		if len(docs) > 0 {
			continue
		}

		orphan := Orphan{Database: db, Name: name}
		if purge {
			if err := p.store.DestroyDatabase(ctx, db); err != nil {
				orphan.Error = err.Error()
				logging.Ctx(ctx).Warn().Err(err).Str("database", db).Msg("Failed to purge orphaned database")
			} else {
				orphan.Purged = true
				logging.Ctx(ctx).Info().Str("database", db).Msg("Purged orphaned database")
			}
		}
		orphans = append(orphans, orphan)
	}
	return orphans, nil
}
