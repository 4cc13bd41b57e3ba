// Location Tracker - Per-user location databases on Cloudant/CouchDB
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/locationtracker

// Command locationtracker-admin creates and removes the shared databases
// the location tracker server depends on.
//
//	locationtracker-admin db put [--places FILE] [--skip-places]
//	locationtracker-admin db delete
//	locationtracker-admin db orphans [--purge]
//
// It reads the same configuration as the server (config file, environment
// and VCAP_SERVICES).
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/tomtom215/locationtracker/internal/config"
	"github.com/tomtom215/locationtracker/internal/store"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd(config.LoadWithKoanf, store.Open).ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
