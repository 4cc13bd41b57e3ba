// Location Tracker - Per-user location databases on Cloudant/CouchDB
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/locationtracker

package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/locationtracker/internal/logging"
	"github.com/tomtom215/locationtracker/internal/metrics"
	"github.com/tomtom215/locationtracker/internal/models"
)

// BreakerSettings tunes the circuit breaker around the store client.
type BreakerSettings struct {
	// MaxRequests allowed through while half-open.
	MaxRequests uint32
	// Interval after which counts reset while closed.
	Interval time.Duration
	// Timeout spent open before probing again.
	Timeout time.Duration
	// MinRequests before the failure ratio is considered.
	MinRequests uint32
	// FailureRatio at or above which the breaker opens.
	FailureRatio float64
}

// DefaultBreakerSettings returns 3 half-open probes, a 1 minute window, a
// 2 minute open period and a 60% trip ratio over at least 10 requests.
func DefaultBreakerSettings() BreakerSettings {
	return BreakerSettings{
		MaxRequests:  3,
		Interval:     time.Minute,
		Timeout:      2 * time.Minute,
		MinRequests:  10,
		FailureRatio: 0.6,
	}
}

// BreakerClient wraps a Client with a circuit breaker. It exposes the same
// methods. 4xx responses count as successes: a conflict or a missing
// document says nothing about the health of the store.
type BreakerClient struct {
	client *Client
	cb     *gobreaker.CircuitBreaker[interface{}]
	name   string
}

// NewBreakerClient wraps client.
func NewBreakerClient(client *Client, s BreakerSettings) *BreakerClient {
	name := "document-store"
	metrics.CircuitBreakerState.WithLabelValues(name).Set(0)
	metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(name).Set(0)

	cb := gobreaker.NewCircuitBreaker[interface{}](gobreaker.Settings{
		Name:        name,
		MaxRequests: s.MaxRequests,
		Interval:    s.Interval,
		Timeout:     s.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < s.MinRequests {
				return false
			}
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			if ratio >= s.FailureRatio {
				logging.Warn().Uint32("failures", counts.TotalFailures).Float64("failure_rate", ratio*100).Msg("[CIRCUIT BREAKER] Opening circuit")
				return true
			}
			return false
		},
		IsSuccessful: func(err error) bool {
			return err == nil || IsClientError(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Info().Str("breaker", name).Str("from", stateToString(from)).Str("to", stateToString(to)).Msg("[CIRCUIT BREAKER] State transition")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, stateToString(from), stateToString(to)).Inc()
			if to == gobreaker.StateClosed {
				metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(name).Set(0)
			}
		},
	})

	return &BreakerClient{client: client, cb: cb, name: name}
}

// State returns the current breaker state as a string.
func (b *BreakerClient) State() string {
	return stateToString(b.cb.State())
}

// Host returns the wrapped client's host.
func (b *BreakerClient) Host() string {
	return b.client.Host()
}

func (b *BreakerClient) execute(fn func() (interface{}, error)) (interface{}, error) {
	result, err := b.cb.Execute(fn)
	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		metrics.CircuitBreakerRequests.WithLabelValues(b.name, "rejected").Inc()
		logging.Warn().Err(err).Msg("[CIRCUIT BREAKER] Request rejected")
		return nil, fmt.Errorf("store: circuit breaker: %w", err)
	case err != nil && !IsClientError(err):
		metrics.CircuitBreakerRequests.WithLabelValues(b.name, "failure").Inc()
		metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(b.name).Set(float64(b.cb.Counts().ConsecutiveFailures))
		return nil, err
	case err != nil:
		metrics.CircuitBreakerRequests.WithLabelValues(b.name, "success").Inc()
		return nil, err
	}
	metrics.CircuitBreakerRequests.WithLabelValues(b.name, "success").Inc()
	metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(b.name).Set(0)
	return result, nil
}

// castResult type-asserts a breaker result.
func castResult[T any](result interface{}, err error) (T, error) {
	var zero T
	if err != nil {
		return zero, err
	}
	if result == nil {
		return zero, nil
	}
	typed, ok := result.(T)
	if !ok {
		return zero, fmt.Errorf("circuit breaker: unexpected result type %T", result)
	}
	return typed, nil
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

func stateToString(state gobreaker.State) string {
	switch state {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}

// Ping with circuit breaker protection.
func (b *BreakerClient) Ping(ctx context.Context) (ServerInfo, error) {
	return castResult[ServerInfo](b.execute(func() (interface{}, error) {
		return b.client.Ping(ctx)
	}))
}

// CreateDatabase with circuit breaker protection.
func (b *BreakerClient) CreateDatabase(ctx context.Context, db string) (bool, error) {
	return castResult[bool](b.execute(func() (interface{}, error) {
		return b.client.CreateDatabase(ctx, db)
	}))
}

// DestroyDatabase with circuit breaker protection.
func (b *BreakerClient) DestroyDatabase(ctx context.Context, db string) error {
	_, err := b.execute(func() (interface{}, error) {
		return nil, b.client.DestroyDatabase(ctx, db)
	})
	return err
}

// ListDatabases with circuit breaker protection.
func (b *BreakerClient) ListDatabases(ctx context.Context) ([]string, error) {
	return castResult[[]string](b.execute(func() (interface{}, error) {
		return b.client.ListDatabases(ctx)
	}))
}

// Replicate with circuit breaker protection.
func (b *BreakerClient) Replicate(ctx context.Context, source, target string, continuous bool) error {
	_, err := b.execute(func() (interface{}, error) {
		return nil, b.client.Replicate(ctx, source, target, continuous)
	})
	return err
}

// InsertDocument with circuit breaker protection.
func (b *BreakerClient) InsertDocument(ctx context.Context, db string, doc interface{}) (DocumentResult, error) {
	return castResult[DocumentResult](b.execute(func() (interface{}, error) {
		return b.client.InsertDocument(ctx, db, doc)
	}))
}

// InsertDesignDocument with circuit breaker protection.
func (b *BreakerClient) InsertDesignDocument(ctx context.Context, db string, doc DesignDocument) (bool, error) {
	return castResult[bool](b.execute(func() (interface{}, error) {
		return b.client.InsertDesignDocument(ctx, db, doc)
	}))
}

// GetDocument with circuit breaker protection.
func (b *BreakerClient) GetDocument(ctx context.Context, db, id string, out interface{}) error {
	_, err := b.execute(func() (interface{}, error) {
		return nil, b.client.GetDocument(ctx, db, id, out)
	})
	return err
}

// FindDocuments with circuit breaker protection.
func (b *BreakerClient) FindDocuments(ctx context.Context, db string, selector map[string]interface{}, fields []string) ([]json.RawMessage, error) {
	return castResult[[]json.RawMessage](b.execute(func() (interface{}, error) {
		return b.client.FindDocuments(ctx, db, selector, fields)
	}))
}

// CreateIndex with circuit breaker protection.
func (b *BreakerClient) CreateIndex(ctx context.Context, db string, idx Index) (bool, error) {
	return castResult[bool](b.execute(func() (interface{}, error) {
		return b.client.CreateIndex(ctx, db, idx)
	}))
}

// BulkInsert with circuit breaker protection.
func (b *BreakerClient) BulkInsert(ctx context.Context, db string, docs []interface{}) ([]BulkResult, error) {
	return castResult[[]BulkResult](b.execute(func() (interface{}, error) {
		return b.client.BulkInsert(ctx, db, docs)
	}))
}

// GenerateAPIKey with circuit breaker protection.
func (b *BreakerClient) GenerateAPIKey(ctx context.Context) (APIKey, error) {
	return castResult[APIKey](b.execute(func() (interface{}, error) {
		return b.client.GenerateAPIKey(ctx)
	}))
}

// GetAccessList with circuit breaker protection.
func (b *BreakerClient) GetAccessList(ctx context.Context, db string) (AccessList, error) {
	return castResult[AccessList](b.execute(func() (interface{}, error) {
		return b.client.GetAccessList(ctx, db)
	}))
}

// SetAccessList with circuit breaker protection.
func (b *BreakerClient) SetAccessList(ctx context.Context, db string, acl AccessList) error {
	_, err := b.execute(func() (interface{}, error) {
		return nil, b.client.SetAccessList(ctx, db, acl)
	})
	return err
}

// Authenticate with circuit breaker protection.
func (b *BreakerClient) Authenticate(ctx context.Context, name, password string) (*Session, error) {
	return castResult[*Session](b.execute(func() (interface{}, error) {
		return b.client.Authenticate(ctx, name, password)
	}))
}

// SessionInfo with circuit breaker protection.
func (b *BreakerClient) SessionInfo(ctx context.Context, authSession string) (*models.SessionContext, error) {
	return castResult[*models.SessionContext](b.execute(func() (interface{}, error) {
		return b.client.SessionInfo(ctx, authSession)
	}))
}

// GeoQuery with circuit breaker protection.
func (b *BreakerClient) GeoQuery(ctx context.Context, db, rawQuery string) ([]byte, error) {
	return castResult[[]byte](b.execute(func() (interface{}, error) {
		return b.client.GeoQuery(ctx, db, rawQuery)
	}))
}
