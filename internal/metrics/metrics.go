// Location Tracker - Per-user location databases on Cloudant/CouchDB
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/locationtracker

// Package metrics holds the Prometheus collectors exposed on /metrics.
//
// Collectors are registered on the default registry through promauto, so
// importing the package is enough to make them visible.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// API endpoint metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of active API requests",
		},
	)

	APIRateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_rate_limit_hits_total",
			Help: "Total number of rate limit rejections",
		},
		[]string{"endpoint"},
	)

	// Document store metrics
	StoreRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "store_request_duration_seconds",
			Help:    "Duration of document store calls in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	StoreRequestErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "store_request_errors_total",
			Help: "Document store calls that failed, by status class",
		},
		[]string{"operation", "status"}, // "4xx", "5xx", "transport"
	)

	// Circuit breaker metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Requests through the circuit breaker by result",
		},
		[]string{"name", "result"}, // "success", "failure", "rejected"
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_transitions_total",
			Help: "Circuit breaker state transitions",
		},
		[]string{"name", "from", "to"},
	)

	CircuitBreakerConsecutiveFailures = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_consecutive_failures",
			Help: "Current consecutive failures seen by the circuit breaker",
		},
		[]string{"name"},
	)

	// Workflow metrics
	ProvisionStepDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "provision_step_duration_seconds",
			Help:    "Duration of each provisioning step",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"step"},
	)

	ProvisionStepsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "provision_steps_total",
			Help: "Provisioning steps by outcome",
		},
		[]string{"step", "outcome"}, // "ok", "converged", "failed"
	)

	RegistrationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "registrations_total",
			Help: "Registration attempts by result kind",
		},
		[]string{"result"},
	)

	LoginsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "logins_total",
			Help: "Login attempts by result kind",
		},
		[]string{"result"},
	)

	// Places proxy cache
	PlacesCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "places_cache_hits_total",
			Help: "Geo queries answered from the places cache",
		},
	)

	PlacesCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "places_cache_misses_total",
			Help: "Geo queries forwarded to the store",
		},
	)

	StoreUp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "store_up",
			Help: "1 when the last store probe succeeded, 0 otherwise",
		},
	)
)

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest tracks active API requests
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordStoreRequest records one call to the document store. status is the
// HTTP status returned, or 0 when no response arrived.
func RecordStoreRequest(operation string, status int, duration time.Duration, err error) {
	StoreRequestDuration.WithLabelValues(operation).Observe(duration.Seconds())
	if err == nil {
		return
	}
	StoreRequestErrors.WithLabelValues(operation, statusClass(status)).Inc()
}

func statusClass(status int) string {
	switch {
	case status == 0:
		return "transport"
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	default:
		return strconv.Itoa(status)
	}
}

// RecordProvisionStep records the outcome of a single provisioning step.
func RecordProvisionStep(step, outcome string, duration time.Duration) {
	ProvisionStepDuration.WithLabelValues(step).Observe(duration.Seconds())
	ProvisionStepsTotal.WithLabelValues(step, outcome).Inc()
}

// RecordRegistration counts a finished registration by result kind.
func RecordRegistration(result string) {
	RegistrationsTotal.WithLabelValues(result).Inc()
}

// RecordLogin counts a finished login by result kind.
func RecordLogin(result string) {
	LoginsTotal.WithLabelValues(result).Inc()
}

// RecordPlacesCache counts a places cache lookup.
func RecordPlacesCache(hit bool) {
	if hit {
		PlacesCacheHits.Inc()
	} else {
		PlacesCacheMisses.Inc()
	}
}

// SetStoreUp records the outcome of a store probe.
func SetStoreUp(up bool) {
	if up {
		StoreUp.Set(1)
	} else {
		StoreUp.Set(0)
	}
}
