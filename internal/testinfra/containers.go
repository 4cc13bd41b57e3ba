// Location Tracker - Per-user location databases on Cloudant/CouchDB
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/locationtracker

//go:build integration

package testinfra

import (
	"context"
	"os"
	"os/exec"
	"sync"
	"testing"
	"time"
)

var (
	dockerOnce sync.Once
	dockerOK   bool
)

// IsDockerAvailable reports whether the Docker daemon answers. The result
// is computed once per test binary.
func IsDockerAvailable() bool {
	dockerOnce.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		dockerOK = exec.CommandContext(ctx, "docker", "info").Run() == nil
	})
	return dockerOK
}

// SkipIfNoDocker skips the test when Docker is unavailable or
// LT_SKIP_CONTAINERS is set.
func SkipIfNoDocker(t *testing.T) {
	t.Helper()

	if os.Getenv("LT_SKIP_CONTAINERS") != "" {
		t.Skip("Skipping test: LT_SKIP_CONTAINERS is set")
	}
	if !IsDockerAvailable() {
		t.Skip("Skipping test: Docker not available")
	}
}

// StartCouchDB starts a CouchDB container for the test and terminates it
// when the test finishes.
func StartCouchDB(t *testing.T, opts ...CouchDBOption) *CouchDBContainer {
	t.Helper()
	SkipIfNoDocker(t)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	couch, err := NewCouchDBContainer(ctx, opts...)
	if err != nil {
		t.Fatalf("start couchdb: %v", err)
	}
	t.Cleanup(func() {
		if err := couch.Terminate(context.Background()); err != nil {
			t.Logf("Warning: failed to terminate couchdb container: %v", err)
		}
	})
	return couch
}
