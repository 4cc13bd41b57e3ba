// Location Tracker - Per-user location databases on Cloudant/CouchDB
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/locationtracker

// Package models defines the documents stored in the users database, the
// request and response bodies of the HTTP API, and the error taxonomy every
// layer uses.
//
// Errors carry an ErrorKind. Store failures, duplicate users, malformed
// requests, a missing store and failed logins each have one kind, and the
// api package maps kinds to HTTP status in a single place. KindOf treats an
// unclassified error as KindStore.
package models
