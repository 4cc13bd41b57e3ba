// Location Tracker - Per-user location databases on Cloudant/CouchDB
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/locationtracker

// Package storetest provides an in-memory document store for tests. It
// implements the same method set as store.Client with CouchDB's status
// semantics: 400 for an illegal database name, 412 for an existing
// database, 409 for an existing document, 404 for anything missing and 401
// for a rejected credential.
package storetest

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"

	"github.com/goccy/go-json"

	"github.com/tomtom215/locationtracker/internal/models"
	"github.com/tomtom215/locationtracker/internal/store"
	"github.com/tomtom215/locationtracker/internal/validation"
)

// Operation names accepted by FailOn.
const (
	OpPing            = "ping"
	OpCreateDatabase  = "create_database"
	OpDestroyDatabase = "destroy_database"
	OpListDatabases   = "list_databases"
	OpReplicate       = "replicate"
	OpInsertDocument  = "insert_document"
	OpInsertDesignDoc = "insert_design_document"
	OpGetDocument     = "get_document"
	OpFindDocuments   = "find_documents"
	OpCreateIndex     = "create_index"
	OpBulkInsert      = "bulk_insert"
	OpGenerateAPIKey  = "generate_api_key"
	OpGetAccessList   = "get_access_list"
	OpSetAccessList   = "set_access_list"
	OpAuthenticate    = "authenticate"
	OpSessionInfo     = "session_info"
	OpGeoQuery        = "geo_query"
)

// Host is the host name Memory reports.
const Host = "store.test:5984"

// sessionCookieAttrs follow the token in every Set-Cookie Authenticate returns.
const sessionCookieAttrs = "Version=1; Expires=Tue, 20-Oct-2026 12:00:00 GMT; Max-Age=86400; Path=/; HttpOnly; Secure"

// Replication is a recorded replication request.
type Replication struct {
	Source     string
	Target     string
	Continuous bool
}

// Memory is an in-memory store. The zero value is not usable; call New.
type Memory struct {
	mu sync.Mutex

	host      string
	dbs       map[string]map[string]map[string]interface{}
	indexes   map[string][]store.Index
	security  map[string]store.AccessList
	keys      map[string]string // api key -> password
	sessions  map[string]string // AuthSession token -> api key
	failures  map[string]error
	calls     []string
	seq       int
	geoBody   []byte
	geoCalls  []string
	replicate []Replication
}

var _ store.API = (*Memory)(nil)

// New returns an empty store.
func New() *Memory {
	return &Memory{
		host:     Host,
		dbs:      make(map[string]map[string]map[string]interface{}),
		indexes:  make(map[string][]store.Index),
		security: make(map[string]store.AccessList),
		keys:     make(map[string]string),
		sessions: make(map[string]string),
		failures: make(map[string]error),
		geoBody:  []byte(`{"type":"FeatureCollection","features":[]}`),
	}
}

// FailOn makes every later call of op return err. A nil err clears it.
func (m *Memory) FailOn(op string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		delete(m.failures, op)
		return
	}
	m.failures[op] = err
}

// SetGeoResponse sets the body returned by GeoQuery.
func (m *Memory) SetGeoResponse(body []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.geoBody = append([]byte(nil), body...)
}

// Calls returns every operation invoked so far, in order.
func (m *Memory) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

// CallCount returns how many times op was invoked.
func (m *Memory) CallCount(op string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.calls {
		if c == op {
			n++
		}
	}
	return n
}

// GeoQueries returns the raw query strings GeoQuery received.
func (m *Memory) GeoQueries() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.geoCalls...)
}

// Replications returns the recorded replication requests.
func (m *Memory) Replications() []Replication {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Replication(nil), m.replicate...)
}

// HasDatabase reports whether db exists.
func (m *Memory) HasDatabase(db string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.dbs[db]
	return ok
}

// DocumentCount returns the number of documents in db, design documents
// included.
func (m *Memory) DocumentCount(db string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.dbs[db])
}

// Document returns a copy of the stored document, or nil.
func (m *Memory) Document(db, id string) map[string]interface{} {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.dbs[db][id]
	if !ok {
		return nil
	}
	return copyDoc(doc)
}

// Indexes returns the Mango indexes created on db.
func (m *Memory) Indexes(db string) []store.Index {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]store.Index(nil), m.indexes[db]...)
}

// AccessListOf returns the current access list of db.
func (m *Memory) AccessListOf(db string) store.AccessList {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := store.AccessList{}
	for k, v := range m.security[db] {
		out[k] = append([]string(nil), v...)
	}
	return out
}

// begin records op and returns the injected failure, if any. It must be
// called with mu held.
func (m *Memory) begin(op string) error {
	m.calls = append(m.calls, op)
	return m.failures[op]
}

func statusError(op, method, path string, code int, reason string) *store.StatusError {
	return &store.StatusError{Op: op, Method: method, Path: path, StatusCode: code, Reason: reason}
}

func copyDoc(doc map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(doc))
	for k, v := range doc {
		out[k] = v
	}
	return out
}

// Host returns a fixed host name.
func (m *Memory) Host() string {
	return m.host
}

// Ping always answers while no failure is injected.
func (m *Memory) Ping(ctx context.Context) (store.ServerInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin(OpPing); err != nil {
		return store.ServerInfo{}, err
	}
	return store.ServerInfo{CouchDB: "Welcome", Version: "3.3.3"}, nil
}

// CreateDatabase creates db, reporting false when it already exists.
func (m *Memory) CreateDatabase(ctx context.Context, db string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin(OpCreateDatabase); err != nil {
		return false, err
	}
	if !validation.IsDatabaseName(db) {
		return false, statusError(OpCreateDatabase, http.MethodPut, "/"+db, http.StatusBadRequest, "illegal_database_name")
	}
	if _, ok := m.dbs[db]; ok {
		return false, nil
	}
	m.dbs[db] = make(map[string]map[string]interface{})
	m.security[db] = store.AccessList{}
	return true, nil
}

// DestroyDatabase removes db, or returns a 404 *StatusError.
func (m *Memory) DestroyDatabase(ctx context.Context, db string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin(OpDestroyDatabase); err != nil {
		return err
	}
	if _, ok := m.dbs[db]; !ok {
		return statusError(OpDestroyDatabase, http.MethodDelete, "/"+db, http.StatusNotFound, "not_found")
	}
	delete(m.dbs, db)
	delete(m.security, db)
	delete(m.indexes, db)
	return nil
}

// ListDatabases returns all database names, sorted.
func (m *Memory) ListDatabases(ctx context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin(OpListDatabases); err != nil {
		return nil, err
	}
	names := make([]string, 0, len(m.dbs))
	for name := range m.dbs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// Replicate records the request. Both databases must exist.
func (m *Memory) Replicate(ctx context.Context, source, target string, continuous bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin(OpReplicate); err != nil {
		return err
	}
	for _, db := range []string{source, target} {
		if _, ok := m.dbs[db]; !ok {
			return statusError(OpReplicate, http.MethodPost, "/_replicate", http.StatusNotFound, "db_not_found")
		}
	}
	m.replicate = append(m.replicate, Replication{Source: source, Target: target, Continuous: continuous})
	return nil
}

// insert stores doc in db. It must be called with mu held.
func (m *Memory) insert(op, db string, doc interface{}) (store.DocumentResult, error) {
	docs, ok := m.dbs[db]
	if !ok {
		return store.DocumentResult{}, statusError(op, http.MethodPost, "/"+db, http.StatusNotFound, "not_found")
	}

	raw, err := json.Marshal(doc)
	if err != nil {
		return store.DocumentResult{}, err
	}
	var fields map[string]interface{}
	if err := json.Unmarshal(raw, &fields); err != nil {
		return store.DocumentResult{}, fmt.Errorf("storetest: document is not an object: %w", err)
	}

	m.seq++
	id, _ := fields["_id"].(string)
	if id == "" {
		id = fmt.Sprintf("doc-%06d", m.seq)
		fields["_id"] = id
	}
	if _, exists := docs[id]; exists {
		return store.DocumentResult{ID: id}, statusError(op, http.MethodPost, "/"+db, http.StatusConflict, "conflict")
	}

	rev := fmt.Sprintf("1-%032x", m.seq)
	fields["_rev"] = rev
	docs[id] = fields
	return store.DocumentResult{OK: true, ID: id, Rev: rev}, nil
}

// InsertDocument stores doc, returning a 409 *StatusError for a taken id.
func (m *Memory) InsertDocument(ctx context.Context, db string, doc interface{}) (store.DocumentResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin(OpInsertDocument); err != nil {
		return store.DocumentResult{}, err
	}
	return m.insert(OpInsertDocument, db, doc)
}

// InsertDesignDocument stores doc, reporting false when it already exists.
func (m *Memory) InsertDesignDocument(ctx context.Context, db string, doc store.DesignDocument) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin(OpInsertDesignDoc); err != nil {
		return false, err
	}
	_, err := m.insert(OpInsertDesignDoc, db, doc)
	if store.IsConflict(err) {
		return false, nil
	}
	return err == nil, err
}

// GetDocument decodes the stored document into out.
func (m *Memory) GetDocument(ctx context.Context, db, id string, out interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin(OpGetDocument); err != nil {
		return err
	}
	doc, ok := m.dbs[db][id]
	if !ok {
		return statusError(OpGetDocument, http.MethodGet, "/"+db+"/"+id, http.StatusNotFound, "not_found")
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}

// FindDocuments matches selector by equality on top-level fields and
// projects the result onto fields.
func (m *Memory) FindDocuments(ctx context.Context, db string, selector map[string]interface{}, fields []string) ([]json.RawMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin(OpFindDocuments); err != nil {
		return nil, err
	}
	docs, ok := m.dbs[db]
	if !ok {
		return nil, statusError(OpFindDocuments, http.MethodPost, "/"+db+"/_find", http.StatusNotFound, "not_found")
	}

	ids := make([]string, 0, len(docs))
	for id := range docs {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var out []json.RawMessage
	for _, id := range ids {
		doc := docs[id]
		if strings.HasPrefix(id, "_design/") || !matches(doc, selector) {
			continue
		}
		projected := doc
		if len(fields) > 0 {
			projected = make(map[string]interface{}, len(fields))
			for _, f := range fields {
				if v, ok := doc[f]; ok {
					projected[f] = v
				}
			}
		}
		raw, err := json.Marshal(projected)
		if err != nil {
			return nil, err
		}
		out = append(out, raw)
	}
	return out, nil
}

func matches(doc, selector map[string]interface{}) bool {
	for k, want := range selector {
		if got, ok := doc[k]; !ok || fmt.Sprint(got) != fmt.Sprint(want) {
			return false
		}
	}
	return true
}

// CreateIndex records idx, reporting false when an index with the same
// fields exists.
func (m *Memory) CreateIndex(ctx context.Context, db string, idx store.Index) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin(OpCreateIndex); err != nil {
		return false, err
	}
	if _, ok := m.dbs[db]; !ok {
		return false, statusError(OpCreateIndex, http.MethodPost, "/"+db+"/_index", http.StatusNotFound, "not_found")
	}
	key := strings.Join(idx.Index.Fields, ",")
	for _, existing := range m.indexes[db] {
		if strings.Join(existing.Index.Fields, ",") == key {
			return false, nil
		}
	}
	m.indexes[db] = append(m.indexes[db], idx)
	return true, nil
}

// BulkInsert stores each document, reporting conflicts per row.
func (m *Memory) BulkInsert(ctx context.Context, db string, docs []interface{}) ([]store.BulkResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin(OpBulkInsert); err != nil {
		return nil, err
	}
	if _, ok := m.dbs[db]; !ok {
		return nil, statusError(OpBulkInsert, http.MethodPost, "/"+db+"/_bulk_docs", http.StatusNotFound, "not_found")
	}
	rows := make([]store.BulkResult, 0, len(docs))
	for _, doc := range docs {
		res, err := m.insert(OpBulkInsert, db, doc)
		if err != nil {
			rows = append(rows, store.BulkResult{ID: res.ID, Error: "conflict", Reason: "Document update conflict."})
			continue
		}
		rows = append(rows, store.BulkResult{ID: res.ID, Rev: res.Rev})
	}
	return rows, nil
}

// GenerateAPIKey issues a fresh credential.
func (m *Memory) GenerateAPIKey(ctx context.Context) (store.APIKey, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin(OpGenerateAPIKey); err != nil {
		return store.APIKey{}, err
	}
	m.seq++
	key := store.APIKey{
		Key:      fmt.Sprintf("apikey%06d", m.seq),
		Password: fmt.Sprintf("secret%06d", m.seq),
	}
	m.keys[key.Key] = key.Password
	return key, nil
}

// GetAccessList returns a copy of db's access list.
func (m *Memory) GetAccessList(ctx context.Context, db string) (store.AccessList, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin(OpGetAccessList); err != nil {
		return nil, err
	}
	acl, ok := m.security[db]
	if !ok {
		return nil, statusError(OpGetAccessList, http.MethodGet, "/_api/v2/db/"+db+"/_security", http.StatusNotFound, "not_found")
	}
	out := store.AccessList{}
	for k, v := range acl {
		out[k] = append([]string(nil), v...)
	}
	return out, nil
}

// SetAccessList replaces db's access list.
func (m *Memory) SetAccessList(ctx context.Context, db string, acl store.AccessList) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin(OpSetAccessList); err != nil {
		return err
	}
	if _, ok := m.security[db]; !ok {
		return statusError(OpSetAccessList, http.MethodPut, "/_api/v2/db/"+db+"/_security", http.StatusNotFound, "not_found")
	}
	out := store.AccessList{}
	for k, v := range acl {
		out[k] = append([]string(nil), v...)
	}
	m.security[db] = out
	return nil
}

// Authenticate checks name and password against issued credentials and
// answers with a Set-Cookie header shaped like CouchDB's.
func (m *Memory) Authenticate(ctx context.Context, name, password string) (*store.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin(OpAuthenticate); err != nil {
		return nil, err
	}
	if want, ok := m.keys[name]; !ok || want != password {
		return nil, statusError(OpAuthenticate, http.MethodPost, "/_session", http.StatusUnauthorized, "unauthorized")
	}
	m.seq++
	token := fmt.Sprintf("token%06d", m.seq)
	m.sessions[token] = name
	return &store.Session{
		Name:      name,
		Roles:     []string{},
		SetCookie: "AuthSession=" + token + "; " + sessionCookieAttrs,
	}, nil
}

// SessionInfo resolves an AuthSession token. Unknown tokens yield an
// anonymous context, as CouchDB does.
func (m *Memory) SessionInfo(ctx context.Context, authSession string) (*models.SessionContext, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin(OpSessionInfo); err != nil {
		return nil, err
	}
	sc := &models.SessionContext{
		OK:      true,
		UserCtx: models.UserContext{Roles: []string{}},
		Info:    map[string]interface{}{"authentication_handlers": []interface{}{"cookie", "default"}},
	}
	if key, ok := m.sessions[authSession]; ok {
		name := key
		sc.UserCtx.Name = &name
		sc.Info["authenticated"] = "cookie"
	}
	return sc, nil
}

// GeoQuery records rawQuery and returns the configured body.
func (m *Memory) GeoQuery(ctx context.Context, db, rawQuery string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin(OpGeoQuery); err != nil {
		return nil, err
	}
	if _, ok := m.dbs[db]; !ok {
		return nil, statusError(OpGeoQuery, http.MethodGet, "/"+db+"/_design/points/_geo/pointidx", http.StatusNotFound, "not_found")
	}
	m.geoCalls = append(m.geoCalls, rawQuery)
	return append([]byte(nil), m.geoBody...), nil
}
