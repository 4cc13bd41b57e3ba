// Location Tracker - Per-user location databases on Cloudant/CouchDB
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/locationtracker

package services

import (
	"context"
	"sync"
	"time"

	"github.com/tomtom215/locationtracker/internal/logging"
	"github.com/tomtom215/locationtracker/internal/metrics"
	"github.com/tomtom215/locationtracker/internal/store"
)

// Pinger checks that the document store answers.
type Pinger interface {
	Ping(ctx context.Context) (store.ServerInfo, error)
}

// StoreProbeService pings the store on an interval and remembers the
// outcome for the health endpoint. It never blocks a request; handlers
// talk to the store regardless of what the probe last saw.
type StoreProbeService struct {
	pinger   Pinger
	interval time.Duration
	timeout  time.Duration
	name     string

	mu      sync.RWMutex
	probed  bool
	healthy bool
	version string
	lastErr error
}

// NewStoreProbeService creates a probe. Non-positive durations fall back to
// a 30 second interval and a 5 second timeout.
func NewStoreProbeService(pinger Pinger, interval, timeout time.Duration) *StoreProbeService {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &StoreProbeService{
		pinger:   pinger,
		interval: interval,
		timeout:  timeout,
		name:     "store-probe",
	}
}

// Serve implements suture.Service. The first probe runs immediately.
func (s *StoreProbeService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.probe(ctx)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.probe(ctx)
		}
	}
}

func (s *StoreProbeService) probe(ctx context.Context) {
	probeCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	info, err := s.pinger.Ping(probeCtx)
	if ctx.Err() != nil {
		return
	}

	s.mu.Lock()
	wasHealthy, wasProbed := s.healthy, s.probed
	s.probed = true
	s.healthy = err == nil
	s.lastErr = err
	if err == nil {
		s.version = info.Version
	}
	s.mu.Unlock()

	metrics.SetStoreUp(err == nil)

	switch {
	case err != nil && (wasHealthy || !wasProbed):
		logging.Warn().Err(err).Msg("Document store unreachable")
	case err == nil && !wasHealthy:
		logging.Info().Str("version", info.Version).Msg("Document store reachable")
	}
}

// Healthy reports the outcome of the last probe. It is false until the
// first probe completes.
func (s *StoreProbeService) Healthy() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.healthy
}

// Version returns the store version seen by the last successful probe.
func (s *StoreProbeService) Version() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// LastError returns the error from the last probe, or nil.
func (s *StoreProbeService) LastError() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastErr
}

// String implements fmt.Stringer for logging.
func (s *StoreProbeService) String() string {
	return s.name
}
