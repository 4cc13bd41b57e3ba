// Location Tracker - Per-user location databases on Cloudant/CouchDB
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/locationtracker

package store

import (
	"context"

	"github.com/goccy/go-json"

	"github.com/tomtom215/locationtracker/internal/config"
	"github.com/tomtom215/locationtracker/internal/models"
)

// API is the full store surface. *Client and *BreakerClient implement it,
// and so does the in-memory store in storetest.
type API interface {
	Host() string
	Ping(ctx context.Context) (ServerInfo, error)

	CreateDatabase(ctx context.Context, db string) (bool, error)
	DestroyDatabase(ctx context.Context, db string) error
	ListDatabases(ctx context.Context) ([]string, error)
	Replicate(ctx context.Context, source, target string, continuous bool) error

	InsertDocument(ctx context.Context, db string, doc interface{}) (DocumentResult, error)
	InsertDesignDocument(ctx context.Context, db string, doc DesignDocument) (bool, error)
	GetDocument(ctx context.Context, db, id string, out interface{}) error
	FindDocuments(ctx context.Context, db string, selector map[string]interface{}, fields []string) ([]json.RawMessage, error)
	CreateIndex(ctx context.Context, db string, idx Index) (bool, error)
	BulkInsert(ctx context.Context, db string, docs []interface{}) ([]BulkResult, error)

	GenerateAPIKey(ctx context.Context) (APIKey, error)
	GetAccessList(ctx context.Context, db string) (AccessList, error)
	SetAccessList(ctx context.Context, db string, acl AccessList) error

	Authenticate(ctx context.Context, name, password string) (*Session, error)
	SessionInfo(ctx context.Context, authSession string) (*models.SessionContext, error)
	GeoQuery(ctx context.Context, db, rawQuery string) ([]byte, error)
}

var (
	_ API = (*Client)(nil)
	_ API = (*BreakerClient)(nil)
)

// Open builds a client from configuration, wrapped in a circuit breaker
// when cfg.CircuitBreaker is set.
func Open(cfg config.StoreConfig) (API, error) {
	client, err := NewClient(Config{
		URL:               cfg.URL,
		Username:          cfg.Username,
		Password:          cfg.Password,
		Timeout:           cfg.Timeout,
		RequestsPerSecond: cfg.RequestsPerSecond,
		Burst:             cfg.Burst,
	})
	if err != nil {
		return nil, err
	}
	if cfg.CircuitBreaker {
		return NewBreakerClient(client, DefaultBreakerSettings()), nil
	}
	return client, nil
}
