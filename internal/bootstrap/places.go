// Location Tracker - Per-user location databases on Cloudant/CouchDB
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/locationtracker

package bootstrap

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/goccy/go-json"
)

// Place is a place document as read from the seed file. Fields are kept
// verbatim; only created_at is added when seeding.
type Place map[string]interface{}

// ReadPlaces decodes a seed file. Both {"places": [...]} and a bare array
// are accepted.
func ReadPlaces(r io.Reader) ([]Place, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read places: %w", err)
	}
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, nil
	}

	if data[0] == '[' {
		var places []Place
		if err := json.Unmarshal(data, &places); err != nil {
			return nil, fmt.Errorf("decode places: %w", err)
		}
		return places, nil
	}

	var wrapped struct {
		Places []Place `json:"places"`
	}
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return nil, fmt.Errorf("decode places: %w", err)
	}
	return wrapped.Places, nil
}

// LoadPlaces reads the seed file at path.
func LoadPlaces(path string) ([]Place, error) {
	f, err := os.Open(path) //nolint:gosec // path comes from operator configuration
	if err != nil {
		return nil, fmt.Errorf("open places file: %w", err)
	}
	defer func() { _ = f.Close() }()
	return ReadPlaces(f)
}
