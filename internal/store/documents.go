// Location Tracker - Per-user location databases on Cloudant/CouchDB
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/locationtracker

package store

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/goccy/go-json"
)

// DocumentResult is the store's answer to a single-document write.
type DocumentResult struct {
	OK  bool   `json:"ok"`
	ID  string `json:"id"`
	Rev string `json:"rev"`
}

// BulkResult is one row of a _bulk_docs answer. Error is set when that
// document was rejected.
type BulkResult struct {
	ID     string `json:"id"`
	Rev    string `json:"rev,omitempty"`
	Error  string `json:"error,omitempty"`
	Reason string `json:"reason,omitempty"`
}

// Index is a Mango index definition.
type Index struct {
	Name  string      `json:"name,omitempty"`
	Type  string      `json:"type"`
	Index IndexFields `json:"index"`
}

// IndexFields lists the indexed fields.
type IndexFields struct {
	Fields []string `json:"fields"`
}

// InsertDocument writes doc to db. doc may carry its own _id. A 409 is
// returned as a *StatusError so callers can tell a lost race from other
// failures.
func (c *Client) InsertDocument(ctx context.Context, db string, doc interface{}) (DocumentResult, error) {
	var res DocumentResult
	err := c.call(ctx, request{op: "insert_document", method: http.MethodPost, path: dbPath(db), body: doc}, &res)
	return res, err
}

// InsertDesignDocument writes a design document. created is false, with a
// nil error, when a document with the same id already exists.
func (c *Client) InsertDesignDocument(ctx context.Context, db string, doc DesignDocument) (created bool, err error) {
	err = c.call(ctx, request{op: "insert_design_document", method: http.MethodPost, path: dbPath(db), body: doc}, nil)
	if IsConflict(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// GetDocument loads the document id from db into out.
func (c *Client) GetDocument(ctx context.Context, db, id string, out interface{}) error {
	path := dbPath(db) + "/" + url.PathEscape(id)
	return c.call(ctx, request{op: "get_document", method: http.MethodGet, path: path}, out)
}

type findRequest struct {
	Selector map[string]interface{} `json:"selector"`
	Fields   []string               `json:"fields,omitempty"`
	Limit    int                    `json:"limit,omitempty"`
}

// FindDocuments runs a Mango query with an equality selector and returns the
// raw matching documents, projected to fields when given.
func (c *Client) FindDocuments(ctx context.Context, db string, selector map[string]interface{}, fields []string) ([]json.RawMessage, error) {
	var res struct {
		Docs []json.RawMessage `json:"docs"`
	}
	req := request{
		op:     "find_documents",
		method: http.MethodPost,
		path:   dbPath(db) + "/_find",
		body:   findRequest{Selector: selector, Fields: fields},
	}
	if err := c.call(ctx, req, &res); err != nil {
		return nil, err
	}
	return res.Docs, nil
}

// CreateIndex creates a Mango index. created is false when an identical
// index already existed, reported either as 412 or as result "exists".
func (c *Client) CreateIndex(ctx context.Context, db string, idx Index) (created bool, err error) {
	var res struct {
		Result string `json:"result"`
	}
	err = c.call(ctx, request{op: "create_index", method: http.MethodPost, path: dbPath(db) + "/_index", body: idx}, &res)
	if IsPreconditionFailed(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return res.Result != "exists", nil
}

// BulkInsert writes docs in one request. Per-document rejections are
// returned in the result rows, not as an error.
func (c *Client) BulkInsert(ctx context.Context, db string, docs []interface{}) ([]BulkResult, error) {
	if len(docs) == 0 {
		return nil, nil
	}
	body := struct {
		Docs []interface{} `json:"docs"`
	}{Docs: docs}

	var rows []BulkResult
	if err := c.call(ctx, request{op: "bulk_insert", method: http.MethodPost, path: dbPath(db) + "/_bulk_docs", body: body}, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// FailedRows returns an error summarising rejected rows, or nil.
func FailedRows(rows []BulkResult) error {
	failed := 0
	var first BulkResult
	for _, r := range rows {
		if r.Error != "" {
			if failed == 0 {
				first = r
			}
			failed++
		}
	}
	if failed == 0 {
		return nil
	}
	return fmt.Errorf("store: %d of %d documents rejected (first %q: %s %s)", failed, len(rows), first.ID, first.Error, first.Reason)
}
