// Package metrics defines and registers all custom Prometheus metrics for the
// storefront API. It is the single source of truth for metric names, labels,
// and help strings.
//
// Metrics are registered with the default Prometheus registry on package
// initialisation and exposed by the /metrics route.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "storefront"

// ── Order metrics ─────────────────────────────────────────────────────────────

// OrdersCreatedTotal counts orders that were persisted.
// Label:
//   - tier: the tier of the ordered package (e.g. "Gold")
var OrdersCreatedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "orders_created_total",
		Help:      "Total number of orders created, by package tier.",
	},
	[]string{"tier"},
)

// OrdersRejectedTotal counts order creations refused during validation.
// Label:
//   - reason: "invalid_user", "invalid_package", "invalid_service" or "error"
var OrdersRejectedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "orders_rejected_total",
		Help:      "Total number of order creations that failed.",
	},
	[]string{"reason"},
)

// OrderTransitionsTotal counts status change attempts.
// Labels:
//   - from, to: order statuses
//   - result: "applied", "rejected" (illegal transition) or "conflict" (concurrent change)
var OrderTransitionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "order_transitions_total",
		Help:      "Total number of order status transition attempts.",
	},
	[]string{"from", "to", "result"},
)

// ── Catalog metrics ───────────────────────────────────────────────────────────

// CatalogWritesTotal counts admin catalog mutations.
// Labels:
//   - entity: "service" or "package"
//   - op: "create", "update", "set_active", "delete"
var CatalogWritesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "catalog_writes_total",
		Help:      "Total number of catalog write operations.",
	},
	[]string{"entity", "op"},
)

// ── Event metrics ─────────────────────────────────────────────────────────────

// EventsPublishedTotal counts order events handed to the broker.
// Labels:
//   - type: event type (e.g. "order.created")
//   - result: "ok" or "error"
var EventsPublishedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "events_published_total",
		Help:      "Total number of order events published, by type and result.",
	},
	[]string{"type", "result"},
)

// EventsDroppedTotal counts events discarded because a worker queue was full.
var EventsDroppedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "events_dropped_total",
		Help:      "Total number of order events dropped because the dispatcher was saturated.",
	},
)

// EventsQueueDepth tracks the current number of events waiting in each worker channel.
// Label:
//   - worker_id: numeric worker index (e.g. "0", "1", …)
var EventsQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "events_queue_depth",
		Help:      "Current number of events pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)

// EventPublishDuration measures broker round trips.
var EventPublishDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "event_publish_duration_seconds",
		Help:      "Duration of publishing a single order event to the broker.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"type"},
)

// ── Idempotency metrics ───────────────────────────────────────────────────────

// IdempotencyLookupsTotal counts Idempotency-Key reservations.
// Label:
//   - result: "reserved", "replay", "in_flight" or "error"
var IdempotencyLookupsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "idempotency_lookups_total",
		Help:      "Total number of idempotency key lookups, labelled by result.",
	},
	[]string{"result"},
)
