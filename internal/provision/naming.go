// Location Tracker - Per-user location databases on Cloudant/CouchDB
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/locationtracker

package provision

import (
	"encoding/hex"
	"strings"

	"github.com/tomtom215/locationtracker/internal/validation"
)

// DefaultLocationPrefix prefixes every per-user location database.
const DefaultLocationPrefix = "lt_user_"

// LocationDBName derives the per-user database name from the login name.
// Hex keeps any name inside CouchDB's database-name grammar, and the
// mapping is deterministic so a retried registration reuses the database
// it created the first time.
func LocationDBName(prefix, name string) string {
	return prefix + hex.EncodeToString([]byte(name))
}

// MaxNameLength is the longest login name, in bytes, whose location
// database name still fits CouchDB's limit under prefix.
func MaxNameLength(prefix string) int {
	return (validation.MaxDatabaseNameLength - len(prefix)) / 2
}

// NameFromLocationDB reverses LocationDBName. ok is false for databases
// that do not carry prefix or whose suffix is not valid hex.
func NameFromLocationDB(prefix, db string) (name string, ok bool) {
	suffix, found := strings.CutPrefix(db, prefix)
	if !found || suffix == "" {
		return "", false
	}
	raw, err := hex.DecodeString(suffix)
	if err != nil {
		return "", false
	}
	return string(raw), true
}
