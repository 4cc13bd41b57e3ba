// Location Tracker - Per-user location databases on Cloudant/CouchDB
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/locationtracker

package storetest

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/tomtom215/locationtracker/internal/store"
)

func TestMemory_CreateDatabase(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	tests := []struct {
		name    string
		db      string
		created bool
		status  int
	}{
		{"new", "lt_users", true, 0},
		{"existing", "lt_users", false, 0},
		{"hex per-user name", "lt_user_616c696365", true, 0},
		{"uppercase", "LT_Users", false, http.StatusBadRequest},
		{"leading underscore", "_private", false, http.StatusBadRequest},
		{"empty", "", false, http.StatusBadRequest},
	}

	m := New()
	for _, tt := range tests {
		created, err := m.CreateDatabase(ctx, tt.db)
		if got := store.StatusCode(err); got != tt.status {
			t.Errorf("%s: status = %d, want %d (err %v)", tt.name, got, tt.status, err)
		}
		if created != tt.created {
			t.Errorf("%s: created = %v, want %v", tt.name, created, tt.created)
		}
	}
	if m.CallCount(OpCreateDatabase) != len(tests) {
		t.Errorf("CallCount = %d, want %d", m.CallCount(OpCreateDatabase), len(tests))
	}
}

func TestMemory_Documents(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	m := New()
	if _, err := m.CreateDatabase(ctx, "lt_users"); err != nil {
		t.Fatal(err)
	}

	res, err := m.InsertDocument(ctx, "lt_users", map[string]interface{}{"_id": "org.couchdb.user:alice", "api_key": "k1"})
	if err != nil || !res.OK {
		t.Fatalf("InsertDocument = %+v, %v", res, err)
	}
	if _, err := m.InsertDocument(ctx, "lt_users", map[string]interface{}{"_id": "org.couchdb.user:alice"}); !store.IsConflict(err) {
		t.Errorf("duplicate insert = %v, want 409", err)
	}
	if _, err := m.InsertDocument(ctx, "missing", map[string]interface{}{}); !store.IsNotFound(err) {
		t.Errorf("insert into missing db = %v, want 404", err)
	}

	var doc map[string]interface{}
	if err := m.GetDocument(ctx, "lt_users", "org.couchdb.user:alice", &doc); err != nil {
		t.Fatalf("GetDocument: %v", err)
	}
	if doc["_rev"] == nil {
		t.Error("stored document has no _rev")
	}

	rows, err := m.FindDocuments(ctx, "lt_users", map[string]interface{}{"api_key": "k1"}, []string{"_id"})
	if err != nil || len(rows) != 1 {
		t.Fatalf("FindDocuments = %d rows, %v", len(rows), err)
	}
	if string(rows[0]) != `{"_id":"org.couchdb.user:alice"}` {
		t.Errorf("projection = %s", rows[0])
	}
}

func TestMemory_Sessions(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	m := New()

	key, err := m.GenerateAPIKey(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := m.Authenticate(ctx, key.Key, "wrong"); !store.IsUnauthorized(err) {
		t.Errorf("bad password = %v, want 401", err)
	}

	sess, err := m.Authenticate(ctx, key.Key, key.Password)
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	token, _, _ := strings.Cut(strings.TrimPrefix(sess.SetCookie, "AuthSession="), ";")

	info, err := m.SessionInfo(ctx, token)
	if err != nil {
		t.Fatal(err)
	}
	if info.UserCtx.Name == nil || *info.UserCtx.Name != key.Key {
		t.Errorf("session user = %v, want %s", info.UserCtx.Name, key.Key)
	}

	anon, err := m.SessionInfo(ctx, "stale")
	if err != nil {
		t.Fatal(err)
	}
	if anon.UserCtx.Name != nil {
		t.Errorf("unknown token resolved to %q", *anon.UserCtx.Name)
	}
}

func TestMemory_FailOn(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	m := New()
	boom := errors.New("boom")

	m.FailOn(OpListDatabases, boom)
	if _, err := m.ListDatabases(ctx); !errors.Is(err, boom) {
		t.Errorf("ListDatabases = %v, want injected error", err)
	}
	m.FailOn(OpListDatabases, nil)
	if _, err := m.ListDatabases(ctx); err != nil {
		t.Errorf("ListDatabases after clearing = %v", err)
	}
	if got := m.Calls(); len(got) != 2 || got[0] != OpListDatabases {
		t.Errorf("Calls() = %v", got)
	}
}
