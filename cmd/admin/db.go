// Location Tracker - Per-user location databases on Cloudant/CouchDB
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/locationtracker

package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/tomtom215/locationtracker/internal/bootstrap"
	"github.com/tomtom215/locationtracker/internal/provision"
)

func newDBCmd(a *app) *cobra.Command {
	db := &cobra.Command{
		Use:               "db",
		Short:             "Create, delete or inspect the shared databases.",
		PersistentPreRunE: a.setup,
	}
	db.AddCommand(newDBPutCmd(a), newDBDeleteCmd(a), newDBOrphansCmd(a))
	return db
}

func (a *app) bootstrapDatabases() bootstrap.Databases {
	return bootstrap.Databases{
		Users:     a.cfg.Databases.Users,
		Aggregate: a.cfg.Databases.Aggregate,
		Places:    a.cfg.Databases.Places,
	}
}

func newDBPutCmd(a *app) *cobra.Command {
	var (
		placesFile string
		skipPlaces bool
	)
	cmd := &cobra.Command{
		Use:   "put",
		Short: "Create the shared databases and their indexes.",
		Long: `Create the users, aggregate locations and places databases, attach the
geo index to the location databases and the api-key index to the users
database. Existing databases and indexes are left alone, so put can be
re-run safely.

Places are loaded only when the places database is created by this run.`,
		Example: `  locationtracker-admin db put
  locationtracker-admin db put --places data/places.json
  locationtracker-admin db put --skip-places`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := a.cfg.Places.SeedFile
			if cmd.Flags().Changed("places") {
				path = placesFile
			}

			var places []bootstrap.Place
			if path != "" && !skipPlaces {
				loaded, err := bootstrap.LoadPlaces(path)
				if err != nil {
					return err
				}
				places = loaded
			}

			report, err := bootstrap.Put(cmd.Context(), a.store, a.bootstrapDatabases(), bootstrap.Options{
				Places:     places,
				SkipPlaces: skipPlaces,
			})
			if report != nil {
				if werr := a.printReport(cmd.OutOrStdout(), report); werr != nil && err == nil {
					err = werr
				}
			}
			return err
		},
	}
	cmd.Flags().StringVar(&placesFile, "places", "", "place documents to seed (overrides places.seed_file)")
	cmd.Flags().BoolVar(&skipPlaces, "skip-places", false, "never seed the places database")
	return cmd
}

func newDBDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete",
		Short: "Destroy the aggregate and users databases.",
		Long: `Destroy the aggregate locations database and then the users database.
The places database and per-user location databases are kept; list the
latter afterwards with "db orphans".`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := bootstrap.Delete(cmd.Context(), a.store, a.bootstrapDatabases()); err != nil {
				return err
			}
			if a.jsonOut {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]bool{"deleted": true})
			}
			_, err := fmt.Fprintln(cmd.OutOrStdout(), "Deleted aggregate and users databases.")
			return err
		},
	}
}

func newDBOrphansCmd(a *app) *cobra.Command {
	var purge bool
	cmd := &cobra.Command{
		Use:   "orphans",
		Short: "List per-user databases that have no user record.",
		Long: `List per-user location databases whose login name has no user record.
These are left behind when a registration fails part way.

With --purge each orphan is destroyed. Do not purge while the server is
accepting registrations: a registration in progress looks like an orphan.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p := provision.NewProvisioner(a.store, provision.Databases{
				Users:          a.cfg.Databases.Users,
				Aggregate:      a.cfg.Databases.Aggregate,
				LocationPrefix: a.cfg.Databases.LocationPrefix,
			})
			orphans, err := p.SweepOrphans(cmd.Context(), purge)
			if err != nil {
				return err
			}
			if werr := a.printOrphans(cmd.OutOrStdout(), orphans); werr != nil {
				return werr
			}
			for _, o := range orphans {
				if o.Error != "" {
					return fmt.Errorf("failed to purge %d orphaned database(s)", countFailed(orphans))
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&purge, "purge", false, "destroy every orphaned database")
	return cmd
}

func countFailed(orphans []provision.Orphan) int {
	n := 0
	for _, o := range orphans {
		if o.Error != "" {
			n++
		}
	}
	return n
}

func (a *app) printReport(w io.Writer, r *bootstrap.Report) error {
	if a.jsonOut {
		return json.NewEncoder(w).Encode(r)
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ACTION\tDATABASE\tRESULT")
	for _, s := range r.Steps {
		result := "exists"
		if s.Created {
			result = "created"
		}
		if s.Action == bootstrap.ActionSeedPlaces {
			result = fmt.Sprintf("%d places", s.Count)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", s.Action, s.Database, result)
	}
	return tw.Flush()
}

func (a *app) printOrphans(w io.Writer, orphans []provision.Orphan) error {
	if a.jsonOut {
		if orphans == nil {
			orphans = []provision.Orphan{}
		}
		return json.NewEncoder(w).Encode(orphans)
	}
	if len(orphans) == 0 {
		_, err := fmt.Fprintln(w, "No orphaned databases.")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "DATABASE\tNAME\tSTATUS")
	for _, o := range orphans {
		status := "orphaned"
		switch {
		case o.Error != "":
			status = "purge failed: " + o.Error
		case o.Purged:
			status = "purged"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", o.Database, o.Name, status)
	}
	return tw.Flush()
}
