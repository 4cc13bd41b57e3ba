// Location Tracker - Per-user location databases on Cloudant/CouchDB
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/locationtracker

package main

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/tomtom215/locationtracker/internal/config"
	"github.com/tomtom215/locationtracker/internal/logging"
	"github.com/tomtom215/locationtracker/internal/store"
)

type (
	configLoader func() (*config.Config, error)
	storeOpener  func(config.StoreConfig) (store.API, error)
)

// app carries what the subcommands share once the root command has run.
type app struct {
	load     configLoader
	open     storeOpener
	jsonOut  bool
	cfg      *config.Config
	store    store.API
	logLevel string
}

var errNoStore = errors.New("no database server configured (set CLOUDANT_URL or bind VCAP_SERVICES)")

func newRootCmd(load configLoader, open storeOpener) *cobra.Command {
	a := &app{load: load, open: open}

	root := &cobra.Command{
		Use:   "locationtracker-admin",
		Short: "Manage the location tracker's shared databases.",
		Long: `locationtracker-admin creates and removes the databases the location
tracker server relies on: the users database, the aggregate locations
database and the places database.

Configuration is read exactly as the server reads it.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().BoolVar(&a.jsonOut, "json", false, "print results as JSON")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "override LOG_LEVEL")

	root.AddCommand(newDBCmd(a))
	return root
}

// setup loads configuration, initialises logging and opens the store.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := a.load()
	if err != nil {
		return err
	}
	a.cfg = cfg

	level := cfg.Logging.Level
	if a.logLevel != "" {
		level = a.logLevel
	}
	logging.Init(logging.Config{
		Level:  level,
		Format: "console",
		Output: cmd.ErrOrStderr(),
	})

	if !cfg.StoreConfigured() {
		return errNoStore
	}
	s, err := a.open(cfg.Store)
	if err != nil {
		return err
	}
	a.store = s
	return nil
}
