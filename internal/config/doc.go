// Location Tracker - Per-user location databases on Cloudant/CouchDB
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/locationtracker

/*
Package config loads the server and admin tool configuration.

Sources are layered, later ones overriding earlier ones:
  - Built-in defaults (defaultConfig)
  - An optional YAML file: $CONFIG_PATH, ./config.yaml, or
    /etc/locationtracker/config.yaml
  - Environment variables, through an explicit mapping table
  - The Cloud Foundry VCAP_SERVICES binding for the Cloudant service, which
    fills in the store connection only when none was configured

A missing store URL is not an error. The server still starts, and every API
route answers "No database server configured" until one is supplied.

# Environment Variables

Server:
  - PORT / HTTP_PORT: listen port (default: 6001)
  - HTTP_HOST: bind address (default: 0.0.0.0)
  - SERVER_TIMEOUT: read and write timeout (default: 30s)
  - SHUTDOWN_TIMEOUT: graceful shutdown limit (default: 10s)
  - ENVIRONMENT: development or production

Store:
  - CLOUDANT_URL, CLOUDANT_USERNAME, CLOUDANT_PASSWORD
  - STORE_TIMEOUT (default: 30s)
  - STORE_REQUESTS_PER_SECOND, STORE_BURST: outbound rate limit (0 disables)
  - STORE_CIRCUIT_BREAKER: wrap the store client in a circuit breaker

Databases:
  - USERS_DB (default: lt_users)
  - AGGREGATE_DB (default: lt_locations_all)
  - PLACES_DB (default: lt_places)
  - LOCATION_DB_PREFIX (default: lt_user_)

Places:
  - PLACES_CACHE_TTL: cache geo query responses (0 disables)
  - PLACES_SEED_FILE: JSON array loaded by "admin db put"

Security:
  - CORS_ORIGINS: comma separated
  - RATE_LIMIT_REQUESTS, RATE_LIMIT_WINDOW, DISABLE_RATE_LIMIT

Logging:
  - LOG_LEVEL, LOG_FORMAT, LOG_CALLER
*/
package config
