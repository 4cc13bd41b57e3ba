// Location Tracker - Per-user location databases on Cloudant/CouchDB
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/locationtracker

/*
Package main is the entry point for the location tracker server.

The server registers users, hands out per-user store credentials at login
and proxies geo queries against the shared places database. All data lives
in Cloudant or CouchDB; the server keeps no state of its own.

# Application Architecture

The server runs under a Suture v4 supervisor tree:

	RootSupervisor ("locationtracker")
	├── StoreSupervisor ("store-layer")
	│   └── Store probe (reachability for /health and store_up)
	└── APISupervisor ("api-layer")
	    └── HTTP Server (chi router)

Component initialization order:

 1. Configuration: Koanf v2 with defaults, config file, environment and VCAP_SERVICES
 2. Logging: zerolog with JSON/console output modes
 3. Store client: HTTP client with optional circuit breaker and outbound rate limit
 4. API handler and router
 5. Supervisor tree

# Configuration

	# Server
	PORT=6001                    # HTTP server port
	LOG_LEVEL=info               # trace, debug, info, warn, error
	LOG_FORMAT=json              # json or console

	# Store (or bind a cloudantNoSQLDB service through VCAP_SERVICES)
	CLOUDANT_URL=https://account.cloudantnosqldb.appdomain.cloud
	CLOUDANT_USERNAME=account
	CLOUDANT_PASSWORD=<password>

Without a store URL the server still starts; every /api route then answers
500 "No database server configured".

The shared databases are created by the admin tool, not by the server:

	locationtracker-admin db put

# Signal Handling

SIGINT and SIGTERM cancel the root context. The HTTP server stops accepting
connections and in-flight requests get server.shutdown_timeout to finish.
*/
package main
