// Location Tracker - Per-user location databases on Cloudant/CouchDB
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/locationtracker

//go:build integration

package testinfra

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/tomtom215/locationtracker/internal/config"
)

const (
	// DefaultCouchDBImage is the official Apache CouchDB image.
	DefaultCouchDBImage = "couchdb:3.3"

	// DefaultCouchDBPort is the CouchDB HTTP port.
	DefaultCouchDBPort = "5984"

	DefaultAdminUser     = "admin"
	DefaultAdminPassword = "integration-secret"
)

// CouchDBContainer is a running CouchDB node.
type CouchDBContainer struct {
	testcontainers.Container

	// URL is the base URL without credentials.
	URL      string
	Username string
	Password string
}

// StoreConfig returns a store configuration pointing at the container.
func (c *CouchDBContainer) StoreConfig() config.StoreConfig {
	return config.StoreConfig{
		URL:      c.URL,
		Username: c.Username,
		Password: c.Password,
		Timeout:  10 * time.Second,
	}
}

// CouchDBOption configures the CouchDB container.
type CouchDBOption func(*couchConfig)

type couchConfig struct {
	image        string
	user         string
	password     string
	startTimeout time.Duration
}

// WithCouchDBImage sets a custom CouchDB image.
func WithCouchDBImage(image string) CouchDBOption {
	return func(c *couchConfig) {
		c.image = image
	}
}

// WithAdmin sets the admin account created at startup.
func WithAdmin(user, password string) CouchDBOption {
	return func(c *couchConfig) {
		c.user = user
		c.password = password
	}
}

// WithStartTimeout sets how long to wait for CouchDB to answer /_up.
func WithStartTimeout(timeout time.Duration) CouchDBOption {
	return func(c *couchConfig) {
		c.startTimeout = timeout
	}
}

// NewCouchDBContainer starts a single-node CouchDB and waits until it is
// up. The _users and _replicator system databases are created so sessions
// and replication work as on a provisioned server.
func NewCouchDBContainer(ctx context.Context, opts ...CouchDBOption) (*CouchDBContainer, error) {
	cfg := &couchConfig{
		image:        DefaultCouchDBImage,
		user:         DefaultAdminUser,
		password:     DefaultAdminPassword,
		startTimeout: 90 * time.Second,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	req := testcontainers.ContainerRequest{
		Image:        cfg.image,
		ExposedPorts: []string{DefaultCouchDBPort + "/tcp"},
		Env: map[string]string{
			"COUCHDB_USER":     cfg.user,
			"COUCHDB_PASSWORD": cfg.password,
		},
		WaitingFor: wait.ForHTTP("/_up").
			WithPort(DefaultCouchDBPort + "/tcp").
			WithStatusCodeMatcher(func(status int) bool { return status == http.StatusOK }).
			WithStartupTimeout(cfg.startTimeout),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return nil, fmt.Errorf("create couchdb container: %w", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		container.Terminate(ctx) //nolint:errcheck
		return nil, fmt.Errorf("get container host: %w", err)
	}
	port, err := container.MappedPort(ctx, DefaultCouchDBPort)
	if err != nil {
		container.Terminate(ctx) //nolint:errcheck
		return nil, fmt.Errorf("get mapped port: %w", err)
	}

	c := &CouchDBContainer{
		Container: container,
		URL:       fmt.Sprintf("http://%s:%s", host, port.Port()),
		Username:  cfg.user,
		Password:  cfg.password,
	}
	if err := c.createSystemDatabases(ctx); err != nil {
		container.Terminate(ctx) //nolint:errcheck
		return nil, err
	}
	return c, nil
}

// createSystemDatabases creates _users and _replicator, which a fresh
// single node does not have until it is set up.
func (c *CouchDBContainer) createSystemDatabases(ctx context.Context) error {
	for _, db := range []string{"_users", "_replicator"} {
		req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.URL+"/"+db, http.NoBody)
		if err != nil {
			return err
		}
		req.SetBasicAuth(c.Username, c.Password)
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			return fmt.Errorf("create %s: %w", db, err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusPreconditionFailed {
			return fmt.Errorf("create %s: status %d", db, resp.StatusCode)
		}
	}
	return nil
}
