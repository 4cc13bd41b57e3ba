// Location Tracker - Per-user location databases on Cloudant/CouchDB
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/locationtracker

package store

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/goccy/go-json"
)

// maxErrorBody caps how much of an error response is read.
const maxErrorBody = 64 * 1024

// StatusError is a non-2xx response from the store. Reason and Message
// carry CouchDB's {"error", "reason"} body when one was sent.
type StatusError struct {
	Op         string
	Method     string
	Path       string
	StatusCode int
	Reason     string
	Message    string
}

func (e *StatusError) Error() string {
	msg := fmt.Sprintf("store: %s %s %s: status %d", e.Op, e.Method, e.Path, e.StatusCode)
	if e.Reason != "" {
		msg += " " + e.Reason
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	return msg
}

func newStatusError(req request, resp *http.Response) *StatusError {
	se := &StatusError{
		Op:         req.op,
		Method:     req.method,
		Path:       req.path,
		StatusCode: resp.StatusCode,
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil || len(body) == 0 {
		return se
	}
	var couchErr struct {
		Error  string `json:"error"`
		Reason string `json:"reason"`
	}
	if json.Unmarshal(body, &couchErr) == nil {
		se.Reason = couchErr.Error
		se.Message = couchErr.Reason
	}
	return se
}

// StatusCode returns the HTTP status carried by err, or 0 when err is not a
// store response (transport failure, nil).
func StatusCode(err error) int {
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode
	}
	return 0
}

// IsConflict reports a 409: the document already exists or the revision is stale.
func IsConflict(err error) bool { return StatusCode(err) == http.StatusConflict }

// IsPreconditionFailed reports a 412: the database (or index) already exists.
func IsPreconditionFailed(err error) bool {
	return StatusCode(err) == http.StatusPreconditionFailed
}

// IsNotFound reports a 404.
func IsNotFound(err error) bool { return StatusCode(err) == http.StatusNotFound }

// IsUnauthorized reports a 401 or 403: the credential was rejected.
func IsUnauthorized(err error) bool {
	code := StatusCode(err)
	return code == http.StatusUnauthorized || code == http.StatusForbidden
}

// IsClientError reports any 4xx. These describe the request, not the health
// of the store.
func IsClientError(err error) bool {
	code := StatusCode(err)
	return code >= 400 && code < 500
}
