// Location Tracker - Per-user location databases on Cloudant/CouchDB
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/locationtracker

package models

import "strings"

// UserIDPrefix namespaces user documents the way CouchDB's own _users
// database does.
const UserIDPrefix = "org.couchdb.user:"

// UserID returns the document id for a login name.
func UserID(name string) string {
	return UserIDPrefix + name
}

// NameFromUserID strips the namespace prefix. ok is false when id does not
// carry it.
func NameFromUserID(id string) (name string, ok bool) {
	return strings.CutPrefix(id, UserIDPrefix)
}

// User is the record kept in the users database, one per registered user.
// APIPassword is hex ciphertext produced by internal/credential and is never
// stored in clear.
type User struct {
	ID          string `json:"_id"`
	Rev         string `json:"_rev,omitempty"`
	Name        string `json:"name"`
	APIKey      string `json:"api_key"`
	APIPassword string `json:"api_password"`
	LocationDB  string `json:"location_db"`
}

// RegisterRequest is the body of PUT /api/users/{id}.
type RegisterRequest struct {
	Name     string `json:"name" validate:"required,max=200"`
	Password string `json:"password" validate:"required,max=1024"`
}

// RegisterResponse is returned with 201 after a successful registration.
type RegisterResponse struct {
	OK  bool   `json:"ok"`
	ID  string `json:"id"`
	Rev string `json:"rev"`
}

// LoginRequest is the body of POST /api/login. Older clients send the login
// name as "name"; Login accepts either field.
type LoginRequest struct {
	Username string `json:"username" validate:"required_without=Name,max=200"`
	Name     string `json:"name" validate:"required_without=Username,max=200"`
	Password string `json:"password" validate:"required,max=1024"`
}

// LoginName returns Username, falling back to Name.
func (r *LoginRequest) LoginName() string {
	if r.Username != "" {
		return r.Username
	}
	return r.Name
}

// CredentialBundle is everything a client needs to talk to its own location
// database directly.
type CredentialBundle struct {
	OK             bool     `json:"ok"`
	Name           string   `json:"name"`
	APIKey         string   `json:"api_key"`
	APIPassword    string   `json:"api_password"`
	LocationDB     string   `json:"location_db"`
	LocationDBName string   `json:"location_db_name"`
	LocationDBHost string   `json:"location_db_host"`
	Roles          []string `json:"roles"`
}

// UserContext is the store's view of an authenticated session, optionally
// enriched with the matching user record.
type UserContext struct {
	Name        *string  `json:"name"`
	Roles       []string `json:"roles"`
	APIKey      string   `json:"api_key,omitempty"`
	APIPassword string   `json:"api_password,omitempty"`
	LocationDB  string   `json:"location_db,omitempty"`
}

// SessionContext is the body of GET /api/session.
type SessionContext struct {
	OK      bool                   `json:"ok"`
	UserCtx UserContext            `json:"userCtx"`
	Info    map[string]interface{} `json:"info,omitempty"`
}

// ErrorResponse is the body of every non-2xx API response.
type ErrorResponse struct {
	Error string `json:"error"`
}
