// Location Tracker - Per-user location databases on Cloudant/CouchDB
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/locationtracker

// Package store is a small HTTP client for the Cloudant/CouchDB API.
//
// It covers exactly the control-plane and data-plane calls the tracker needs:
// database lifecycle, document insert and lookup, Mango queries and indexes,
// Cloudant API keys and access lists, cookie sessions, replication and the
// geospatial index endpoint. Every non-2xx response is returned as a
// *StatusError; the few "already exists" conditions that mean the desired
// state is reached are folded into success by the dedicated methods
// (CreateDatabase, InsertDesignDocument, CreateIndex).
package store

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/time/rate"

	"github.com/tomtom215/locationtracker/internal/metrics"
)

// Config describes how to reach the store.
type Config struct {
	// URL is the account endpoint, e.g. https://account.cloudantnosqldb.appdomain.cloud.
	// Credentials embedded in the URL are used when Username is empty.
	URL string

	Username string
	Password string

	// Timeout bounds each HTTP call. Default 30s.
	Timeout time.Duration

	// RequestsPerSecond paces outbound calls. Zero disables pacing.
	RequestsPerSecond float64
	Burst             int
}

// Client talks to one store account. It is safe for concurrent use and is
// never mutated after NewClient returns.
type Client struct {
	baseURL    string
	host       string
	username   string
	password   string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewClient validates cfg and returns a ready client.
func NewClient(cfg Config) (*Client, error) {
	u, err := url.Parse(strings.TrimSuffix(cfg.URL, "/"))
	if err != nil {
		return nil, fmt.Errorf("store: invalid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("store: URL scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("store: URL has no host")
	}

	username, password := cfg.Username, cfg.Password
	if username == "" && u.User != nil {
		username = u.User.Username()
		password, _ = u.User.Password()
	}
	u.User = nil

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	c := &Client{
		baseURL:    u.String(),
		host:       u.Host,
		username:   username,
		password:   password,
		httpClient: &http.Client{Timeout: timeout},
	}
	if cfg.RequestsPerSecond > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}
	return c, nil
}

// Host returns the store host (and port, if any) without credentials.
// Clients use it to connect to their own location database directly.
func (c *Client) Host() string {
	return c.host
}

// DatabaseURL returns the absolute URL of db including the admin
// credentials, as required by the replicator.
func (c *Client) DatabaseURL(db string) string {
	u, _ := url.Parse(c.baseURL + "/" + url.PathEscape(db))
	if c.username != "" {
		u.User = url.UserPassword(c.username, c.password)
	}
	return u.String()
}

// request describes one call to the store.
type request struct {
	op     string
	method string
	path   string // already escaped
	query  string
	body   interface{}

	// anonymous requests carry no admin credentials (session calls).
	anonymous bool
	cookie    string
}

// send performs req and returns the response when the status is 2xx. Any
// other status is drained into a *StatusError.
func (c *Client) send(ctx context.Context, req request) (*http.Response, error) {
	start := time.Now()
	resp, err := c.roundTrip(ctx, req)

	status := 0
	if resp != nil {
		status = resp.StatusCode
	}
	if err == nil && (status < 200 || status > 299) {
		err = newStatusError(req, resp)
		_ = resp.Body.Close()
		resp = nil
	}
	metrics.RecordStoreRequest(req.op, status, time.Since(start), err)
	return resp, err
}

func (c *Client) roundTrip(ctx context.Context, req request) (*http.Response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("store: %s: rate limiter: %w", req.op, err)
		}
	}

	target := c.baseURL + req.path
	if req.query != "" {
		target += "?" + req.query
	}

	body := io.Reader(http.NoBody)
	if req.body != nil {
		payload, err := json.Marshal(req.body)
		if err != nil {
			return nil, fmt.Errorf("store: %s: encode body: %w", req.op, err)
		}
		body = bytes.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, target, body)
	if err != nil {
		return nil, fmt.Errorf("store: %s: build request: %w", req.op, err)
	}
	httpReq.Header.Set("Accept", "application/json")
	if req.body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if !req.anonymous && c.username != "" {
		httpReq.SetBasicAuth(c.username, c.password)
	}
	if req.cookie != "" {
		httpReq.Header.Set("Cookie", req.cookie)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("store: %s %s %s: %w", req.op, req.method, req.path, err)
	}
	return resp, nil
}

// call is send followed by decoding the JSON body into out (when non-nil).
func (c *Client) call(ctx context.Context, req request, out interface{}) error {
	resp, err := c.send(ctx, req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("store: %s: decode response: %w", req.op, err)
	}
	return nil
}

func dbPath(db string) string {
	return "/" + url.PathEscape(db)
}
