// Package telemetry exposes the server's Prometheus metrics. Collectors are
// registered on the default registry and served by promhttp at /metrics.
package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RoomConnections tracks currently attached room connections.
	RoomConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "vagentd_room_connections",
		Help: "Number of WebSocket connections currently attached to project rooms.",
	})

	// MessagesPublished counts events published to project rooms.
	MessagesPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vagentd_room_events_published_total",
		Help: "Events published to project rooms, by event type.",
	}, []string{"type"})

	// DeliveriesDropped counts per-connection deliveries dropped because a
	// connection's send buffer was full or its write failed.
	DeliveriesDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "vagentd_room_deliveries_dropped_total",
		Help: "Room event deliveries dropped due to slow or dead connections.",
	})

	// PersistFailures counts failed snapshot saves to the durable store.
	PersistFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "vagentd_persist_failures_total",
		Help: "Failed writes to the durable store (non-fatal; state is not rolled back).",
	})

	// RosterMutations counts successful roster operations by kind.
	RosterMutations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vagentd_roster_mutations_total",
		Help: "Successful roster mutations, by operation.",
	}, []string{"op"})

	// AgentPayloads counts interpreted agent payloads by outcome.
	AgentPayloads = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vagentd_agent_payloads_total",
		Help: "Agent payload interpretations, by outcome (display, patch, malformed).",
	}, []string{"outcome"})
)
