// Package metrics defines and registers the custom Prometheus metrics of the
// tourism API. HTTP request metrics come from echoprometheus; this package
// covers domain events only.
//
// All collectors are registered with the default registry via promauto.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "turismo"

// ── Authentication ────────────────────────────────────────────────────────────

// AuthOperationsTotal counts authentication flows by outcome.
// Labels:
//   - operation: "register", "login", "logout", "password_reset"
//   - result: "success" or "failure"
var AuthOperationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_operations_total",
		Help:      "Total number of authentication operations, by operation and result.",
	},
	[]string{"operation", "result"},
)

// RevocationChecksTotal counts revocation ledger lookups.
// Label:
//   - result: "clean", "revoked" or "error" (store unreachable)
var RevocationChecksTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "revocation_checks_total",
		Help:      "Total number of revocation ledger lookups, labelled by result.",
	},
	[]string{"result"},
)

// RateLimitedTotal counts requests rejected by the rate limiter.
// Label:
//   - route: the matched route path
var RateLimitedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rate_limited_total",
		Help:      "Total number of requests rejected by the rate limiter.",
	},
	[]string{"route"},
)

// ── Access log ────────────────────────────────────────────────────────────────

// AccessLogEntriesTotal counts audit entries by what happened to them.
// Label:
//   - result: "written", "dropped" (queue full or closed) or "failed" (store error)
var AccessLogEntriesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "access_log_entries_total",
		Help:      "Total number of access log entries, labelled by outcome.",
	},
	[]string{"result"},
)

// AccessLogQueueDepth is the number of entries waiting to be written.
var AccessLogQueueDepth = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "access_log_queue_depth",
		Help:      "Current number of access log entries waiting in the dispatcher queue.",
	},
)

// ── Listings ──────────────────────────────────────────────────────────────────

// ListingStatusChangesTotal counts moderation decisions.
// Label:
//   - status: the new status ("approved", "rejected", "suspended", "pending")
var ListingStatusChangesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "listing_status_changes_total",
		Help:      "Total number of listing status changes, by new status.",
	},
	[]string{"status"},
)

// ── Maintenance ───────────────────────────────────────────────────────────────

// RecoveryTokensSweptTotal counts expired password-reset tokens cleared by the sweeper.
var RecoveryTokensSweptTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "recovery_tokens_swept_total",
		Help:      "Total number of expired password reset tokens cleared.",
	},
)

// PhotoProcessingDuration measures profile photo decode, resize and encode.
// Label:
//   - result: "resized" or "original" (processing failed, original bytes kept)
var PhotoProcessingDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "photo_processing_duration_seconds",
		Help:      "Duration of profile photo processing.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"result"},
)
