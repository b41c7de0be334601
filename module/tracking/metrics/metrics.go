// Package metrics defines the Prometheus metrics of the tracking module.
// All collectors register with the default registry on import.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "tracking"

// RoutingAttemptsTotal counts provider calls.
// Labels:
//   - provider: "locationiq", "osrm", ...
//   - outcome: "ok", "transport", "status", "no_route", "geometry", "timeout", "error"
var RoutingAttemptsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "routing_attempts_total",
		Help:      "Total number of routing provider attempts, by provider and outcome.",
	},
	[]string{"provider", "outcome"},
)

// RoutingAttemptDuration measures a single provider attempt.
var RoutingAttemptDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "routing_attempt_duration_seconds",
		Help:      "Duration of a single routing provider attempt.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"provider"},
)

var RoutingFallbacksTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "routing_fallbacks_total",
		Help:      "Total number of times the secondary routing provider was used.",
	},
)

var RoutingUnavailableTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "routing_unavailable_total",
		Help:      "Total number of route requests where every provider failed.",
	},
)

// RouteCacheTotal counts cache lookups. Label result: "hit", "miss", "error".
var RouteCacheTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "route_cache_total",
		Help:      "Total number of route cache lookups, by result.",
	},
	[]string{"result"},
)

// FeedUpdatesTotal counts normalised feed pushes. Label kind: "fix" or "none".
var FeedUpdatesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "feed_updates_total",
		Help:      "Total number of courier location pushes, by normalised kind.",
	},
	[]string{"kind"},
)

var StaleRoutesDiscardedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "stale_routes_discarded_total",
		Help:      "Total number of route results discarded because loss of signal or teardown invalidated them.",
	},
)

var SessionsActive = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "sessions_active",
		Help:      "Number of open tracking sessions.",
	},
)

var EventPublishFailuresTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "event_publish_failures_total",
		Help:      "Total number of tracking events that could not be published.",
	},
)
