// Location Tracker - Per-user location databases on Cloudant/CouchDB
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/locationtracker

// Package testinfra starts real services in containers for integration
// tests.
//
// # CouchDB Container
//
// CouchDBContainer runs an Apache CouchDB single node with an admin
// account, so the store client can be exercised against the real HTTP API:
//
//	func TestAgainstCouchDB(t *testing.T) {
//	    couch := testinfra.StartCouchDB(t)
//	    client, err := store.Open(couch.StoreConfig())
//	    // ...
//	}
//
// CouchDB lacks the Cloudant-only endpoints (API key generation and the
// geo index), so tests covering those stay on storetest.Memory or an
// httptest server.
//
// # CI Considerations
//
// Every file here carries the integration build tag. Run with
//
//	go test -tags integration ./...
//
// Tests are skipped when Docker is unavailable or LT_SKIP_CONTAINERS is
// set. The first run pulls the image.
package testinfra
