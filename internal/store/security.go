// Location Tracker - Per-user location databases on Cloudant/CouchDB
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/locationtracker

package store

import (
	"context"
	"net/http"
	"net/url"
)

// Cloudant permission names granted through the access list.
const (
	RoleReader = "_reader"
	RoleWriter = "_writer"
)

// APIKey is a store-issued credential. It grants nothing until bound to a
// database access list.
type APIKey struct {
	Key      string `json:"key"`
	Password string `json:"password"`
}

// AccessList maps API keys (or account names) to Cloudant roles.
type AccessList map[string][]string

type securityDocument struct {
	Cloudant AccessList `json:"cloudant"`
}

// GenerateAPIKey mints a fresh key/password pair.
func (c *Client) GenerateAPIKey(ctx context.Context) (APIKey, error) {
	var key APIKey
	err := c.call(ctx, request{op: "generate_api_key", method: http.MethodPost, path: "/_api/v2/api_keys"}, &key)
	return key, err
}

func securityPath(db string) string {
	return "/_api/v2/db/" + url.PathEscape(db) + "/_security"
}

// GetAccessList returns the cloudant section of db's security document.
// The map is never nil.
func (c *Client) GetAccessList(ctx context.Context, db string) (AccessList, error) {
	var doc securityDocument
	if err := c.call(ctx, request{op: "get_security", method: http.MethodGet, path: securityPath(db)}, &doc); err != nil {
		return nil, err
	}
	if doc.Cloudant == nil {
		doc.Cloudant = AccessList{}
	}
	return doc.Cloudant, nil
}

// SetAccessList replaces the cloudant section of db's security document.
// Callers read with GetAccessList first and merge.
func (c *Client) SetAccessList(ctx context.Context, db string, acl AccessList) error {
	return c.call(ctx, request{op: "set_security", method: http.MethodPut, path: securityPath(db), body: securityDocument{Cloudant: acl}}, nil)
}
