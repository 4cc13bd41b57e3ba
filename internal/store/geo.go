// Location Tracker - Per-user location databases on Cloudant/CouchDB
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/locationtracker

package store

import (
	"context"
	"fmt"
	"io"
	"net/http"
)

// Identifiers of the geospatial index every location database carries.
const (
	GeoDesignDocID = "_design/points"
	GeoIndexName   = "pointidx"
)

// geoIndexFunction indexes any document with a GeoJSON geometry.
const geoIndexFunction = "function (doc) { if (doc.geometry && doc.geometry.coordinates) { st_index(doc.geometry); }}"

// maxGeoResponse caps how much of a geo query answer is relayed.
const maxGeoResponse = 16 << 20

// DesignDocument is a design document holding Cloudant Geo index definitions.
type DesignDocument struct {
	ID        string              `json:"_id"`
	Language  string              `json:"language"`
	STIndexes map[string]GeoIndex `json:"st_indexes"`
}

// GeoIndex is a single st_index definition.
type GeoIndex struct {
	Index string `json:"index"`
}

// GeoDesignDocument returns the _design/points document.
func GeoDesignDocument() DesignDocument {
	return DesignDocument{
		ID:       GeoDesignDocID,
		Language: "javascript",
		STIndexes: map[string]GeoIndex{
			GeoIndexName: {Index: geoIndexFunction},
		},
	}
}

// GeoQuery runs rawQuery against db's point index and returns the response
// body untouched. rawQuery is appended to the URL exactly as given.
func (c *Client) GeoQuery(ctx context.Context, db, rawQuery string) ([]byte, error) {
	req := request{
		op:     "geo_query",
		method: http.MethodGet,
		path:   dbPath(db) + "/" + GeoDesignDocID + "/_geo/" + GeoIndexName,
		query:  rawQuery,
	}
	resp, err := c.send(ctx, req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxGeoResponse))
	if err != nil {
		return nil, fmt.Errorf("store: geo_query: read response: %w", err)
	}
	return body, nil
}
