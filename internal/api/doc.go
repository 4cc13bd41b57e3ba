// Location Tracker - Per-user location databases on Cloudant/CouchDB
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/locationtracker

/*
Package api provides the HTTP surface of the location tracker.

Routes:

  - PUT  /api/users/{id}: register a user (id is "org.couchdb.user:<name>")
  - POST /api/login, POST /api/session: log in and receive a credential bundle
  - GET  /api/session: resolve the AuthSession cookie to its user
  - GET  /api/places: forward a geo query to the places database
  - GET  /health: liveness and store reachability
  - GET  /metrics: Prometheus exposition

Error Handling:

Handlers never write store error text to clients. Every failure is mapped
from its models.ErrorKind in one place (respondKindError) to a status code
and a generic message; the cause is logged with the request ID.

When the server starts without a store binding the Handler is built with a
nil Store and every /api route answers 500 "No database server configured".

Middleware Stack (outermost first):

  - RequestID and access logging (internal/middleware)
  - chi RealIP and Recoverer
  - CORS (go-chi/cors)
  - Prometheus request metrics per route pattern
  - Per-IP rate limiting (go-chi/httprate) on registration and login
*/
package api
