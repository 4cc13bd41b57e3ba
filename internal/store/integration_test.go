// Location Tracker - Per-user location databases on Cloudant/CouchDB
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/locationtracker

//go:build integration

package store_test

import (
	"context"
	"strings"
	"testing"

	"github.com/tomtom215/locationtracker/internal/bootstrap"
	"github.com/tomtom215/locationtracker/internal/store"
	"github.com/tomtom215/locationtracker/internal/testinfra"
)

func startCouchDB(t *testing.T) store.API {
	t.Helper()
	couch := testinfra.StartCouchDB(t)

	client, err := store.Open(couch.StoreConfig())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	return client
}

func TestIntegration_CouchDB(t *testing.T) {
	client := startCouchDB(t)
	ctx := context.Background()

	info, err := client.Ping(ctx)
	if err != nil {
		t.Fatalf("Ping: %v", err)
	}
	if info.Version == "" {
		t.Error("Ping returned no version")
	}

	t.Run("databases", func(t *testing.T) {
		created, err := client.CreateDatabase(ctx, "it_db")
		if err != nil || !created {
			t.Fatalf("CreateDatabase = %v, %v", created, err)
		}
		created, err = client.CreateDatabase(ctx, "it_db")
		if err != nil || created {
			t.Fatalf("second CreateDatabase = %v, %v; want false, nil", created, err)
		}
		dbs, err := client.ListDatabases(ctx)
		if err != nil {
			t.Fatalf("ListDatabases: %v", err)
		}
		if !contains(dbs, "it_db") {
			t.Errorf("ListDatabases = %v", dbs)
		}
		if err := client.DestroyDatabase(ctx, "it_db"); err != nil {
			t.Fatalf("DestroyDatabase: %v", err)
		}
		if err := client.DestroyDatabase(ctx, "it_db"); !store.IsNotFound(err) {
			t.Errorf("DestroyDatabase of missing db = %v, want 404", err)
		}
	})

	t.Run("documents", func(t *testing.T) {
		if _, err := client.CreateDatabase(ctx, "it_docs"); err != nil {
			t.Fatalf("CreateDatabase: %v", err)
		}
		doc := map[string]interface{}{"_id": "a", "api_key": "k1"}
		if _, err := client.InsertDocument(ctx, "it_docs", doc); err != nil {
			t.Fatalf("InsertDocument: %v", err)
		}
		if _, err := client.InsertDocument(ctx, "it_docs", doc); !store.IsConflict(err) {
			t.Errorf("duplicate insert = %v, want 409", err)
		}

		var got map[string]interface{}
		if err := client.GetDocument(ctx, "it_docs", "a", &got); err != nil {
			t.Fatalf("GetDocument: %v", err)
		}
		if got["api_key"] != "k1" {
			t.Errorf("api_key = %v", got["api_key"])
		}

		idx := store.Index{Name: "api-key-index", Type: "json", Index: store.IndexFields{Fields: []string{"api_key"}}}
		if _, err := client.CreateIndex(ctx, "it_docs", idx); err != nil {
			t.Fatalf("CreateIndex: %v", err)
		}
		rows, err := client.FindDocuments(ctx, "it_docs", map[string]interface{}{"api_key": "k1"}, []string{"_id"})
		if err != nil {
			t.Fatalf("FindDocuments: %v", err)
		}
		if len(rows) != 1 {
			t.Errorf("FindDocuments rows = %d, want 1", len(rows))
		}
	})

	t.Run("session", func(t *testing.T) {
		sess, err := client.Authenticate(ctx, testinfra.DefaultAdminUser, testinfra.DefaultAdminPassword)
		if err != nil {
			t.Fatalf("Authenticate: %v", err)
		}
		token := cookieValue(sess.SetCookie, "AuthSession")
		if token == "" {
			t.Fatalf("no AuthSession in %q", sess.SetCookie)
		}

		ctxInfo, err := client.SessionInfo(ctx, token)
		if err != nil {
			t.Fatalf("SessionInfo: %v", err)
		}
		if ctxInfo.UserCtx.Name == nil || *ctxInfo.UserCtx.Name != testinfra.DefaultAdminUser {
			t.Errorf("session user = %v", ctxInfo.UserCtx.Name)
		}

		if _, err := client.Authenticate(ctx, testinfra.DefaultAdminUser, "wrong"); !store.IsUnauthorized(err) {
			t.Errorf("bad password = %v, want 401", err)
		}
	})

	t.Run("bootstrap", func(t *testing.T) {
		dbs := bootstrap.Databases{Users: "it_users", Aggregate: "it_locations_all", Places: "it_places"}
		places := []bootstrap.Place{{"name": "Coit Tower"}, {"name": "Ferry Building"}}

		report, err := bootstrap.Put(ctx, client, dbs, bootstrap.Options{Places: places})
		if err != nil {
			t.Fatalf("Put: %v", err)
		}
		if !report.Created() {
			t.Error("fresh Put created nothing")
		}

		report, err = bootstrap.Put(ctx, client, dbs, bootstrap.Options{Places: places})
		if err != nil {
			t.Fatalf("second Put: %v", err)
		}
		if report.Created() {
			t.Errorf("second Put created objects: %+v", report.Steps)
		}

		rows, err := client.FindDocuments(ctx, "it_places", map[string]interface{}{"name": "Coit Tower"}, nil)
		if err != nil {
			t.Fatalf("FindDocuments: %v", err)
		}
		if len(rows) != 1 || !strings.Contains(string(rows[0]), "created_at") {
			t.Errorf("seeded place = %s", rows)
		}

		if err := bootstrap.Delete(ctx, client, dbs); err != nil {
			t.Fatalf("Delete: %v", err)
		}
	})
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func cookieValue(header, name string) string {
	for _, part := range strings.Split(header, ";") {
		k, v, ok := strings.Cut(strings.TrimSpace(part), "=")
		if ok && k == name {
			return v
		}
	}
	return ""
}
