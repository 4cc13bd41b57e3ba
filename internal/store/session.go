// Location Tracker - Per-user location databases on Cloudant/CouchDB
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/locationtracker

package store

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/tomtom215/locationtracker/internal/models"
)

// Session is the result of a successful cookie authentication.
type Session struct {
	Name  string
	Roles []string

	// SetCookie is the first Set-Cookie header the store sent, verbatim.
	SetCookie string
}

type sessionRequest struct {
	Name     string `json:"name"`
	Password string `json:"password"`
}

// Authenticate exchanges name and password for a cookie session. Admin
// credentials are not sent. A rejected credential is a 401 *StatusError.
func (c *Client) Authenticate(ctx context.Context, name, password string) (*Session, error) {
	req := request{
		op:        "authenticate",
		method:    http.MethodPost,
		path:      "/_session",
		body:      sessionRequest{Name: name, Password: password},
		anonymous: true,
	}
	resp, err := c.send(ctx, req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	var body struct {
		Name  string   `json:"name"`
		Roles []string `json:"roles"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}

	s := &Session{Name: body.Name, Roles: body.Roles}
	if cookies := resp.Header.Values("Set-Cookie"); len(cookies) > 0 {
		s.SetCookie = cookies[0]
	}
	if s.Roles == nil {
		s.Roles = []string{}
	}
	return s, nil
}

// SessionInfo asks the store who owns the AuthSession token.
func (c *Client) SessionInfo(ctx context.Context, authSession string) (*models.SessionContext, error) {
	req := request{
		op:        "session_info",
		method:    http.MethodGet,
		path:      "/_session",
		anonymous: true,
		cookie:    "AuthSession=" + authSession,
	}
	var info models.SessionContext
	if err := c.call(ctx, req, &info); err != nil {
		return nil, err
	}
	return &info, nil
}
