// Location Tracker - Per-user location databases on Cloudant/CouchDB
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/locationtracker

package models

import (
	"errors"
	"fmt"
)

// ErrorKind is the closed set of failure categories a request can end in.
// Every layer below the HTTP boundary returns errors that carry one of these;
// only internal/api turns a kind into a status code.
type ErrorKind int

const (
	// KindStore covers any store-reported or transport failure not folded
	// into another kind. It is the default for unclassified errors.
	KindStore ErrorKind = iota
	// KindDuplicate means the user record already exists.
	KindDuplicate
	// KindBadRequest means the request body was missing or inconsistent.
	KindBadRequest
	// KindUnconfigured means no store binding is present.
	KindUnconfigured
	// KindAuthentication means the store rejected the credential, or the
	// user could not be resolved during login.
	KindAuthentication
)

// String returns the log-friendly name of the kind.
func (k ErrorKind) String() string {
	switch k {
	case KindDuplicate:
		return "duplicate"
	case KindBadRequest:
		return "bad_request"
	case KindUnconfigured:
		return "unconfigured"
	case KindAuthentication:
		return "authentication_failed"
	default:
		return "store_error"
	}
}

// Error is a classified failure. Op names the operation that failed
// (for example "provision.persist_user") and Err holds the cause.
type Error struct {
	Kind ErrorKind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	switch {
	case e.Op != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	case e.Op != "":
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	default:
		return e.Kind.String()
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// E builds a classified error.
//
//	return models.E(models.KindDuplicate, "provision.check_not_exists", nil)
func E(kind ErrorKind, op string, err error) error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// KindOf returns the kind of the outermost *Error in err's chain, or
// KindStore when err carries no classification.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindStore
}

// IsKind reports whether err is classified as kind.
func IsKind(err error, kind ErrorKind) bool {
	return err != nil && KindOf(err) == kind
}

// ErrUnconfigured is returned by every operation when the server started
// without a store binding.
var ErrUnconfigured = E(KindUnconfigured, "", errors.New("no database server configured"))
