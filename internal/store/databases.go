// Location Tracker - Per-user location databases on Cloudant/CouchDB
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/locationtracker

package store

import (
	"context"
	"net/http"
)

// ServerInfo is the welcome document served at the store root.
type ServerInfo struct {
	CouchDB string `json:"couchdb"`
	Version string `json:"version"`
	Vendor  struct {
		Name string `json:"name"`
	} `json:"vendor"`
}

// Ping fetches the welcome document. It proves the store is reachable and
// the admin credentials are accepted.
func (c *Client) Ping(ctx context.Context) (ServerInfo, error) {
	var info ServerInfo
	err := c.call(ctx, request{op: "ping", method: http.MethodGet, path: "/"}, &info)
	return info, err
}

// CreateDatabase creates db. created is false, with a nil error, when the
// database already existed (412).
func (c *Client) CreateDatabase(ctx context.Context, db string) (created bool, err error) {
	err = c.call(ctx, request{op: "create_database", method: http.MethodPut, path: dbPath(db)}, nil)
	if IsPreconditionFailed(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// DestroyDatabase deletes db. A missing database is reported as a 404
// *StatusError.
func (c *Client) DestroyDatabase(ctx context.Context, db string) error {
	return c.call(ctx, request{op: "destroy_database", method: http.MethodDelete, path: dbPath(db)}, nil)
}

// ListDatabases returns every database name in the account.
func (c *Client) ListDatabases(ctx context.Context) ([]string, error) {
	var names []string
	if err := c.call(ctx, request{op: "list_databases", method: http.MethodGet, path: "/_all_dbs"}, &names); err != nil {
		return nil, err
	}
	return names, nil
}

type replicationRequest struct {
	Source     string `json:"source"`
	Target     string `json:"target"`
	Continuous bool   `json:"continuous"`
}

// Replicate registers replication from source to target. With continuous
// set the store answers as soon as the job is accepted; nothing waits for
// documents to flow.
func (c *Client) Replicate(ctx context.Context, source, target string, continuous bool) error {
	body := replicationRequest{
		Source:     c.DatabaseURL(source),
		Target:     c.DatabaseURL(target),
		Continuous: continuous,
	}
	return c.call(ctx, request{op: "replicate", method: http.MethodPost, path: "/_replicate", body: body}, nil)
}
