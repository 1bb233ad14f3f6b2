package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Tracking Metrics
var (
	// TrackingEventsTotal counts recorded tracking events by type
	TrackingEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tracking_events_total",
			Help: "Total tracking events recorded by type (open/click/batch/patch)",
		},
		[]string{"type"},
	)
)

// Broadcaster Metrics
var (
	// BroadcasterConnectedClients tracks currently connected WebSocket clients
	BroadcasterConnectedClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "broadcaster_connected_clients",
			Help: "Number of currently connected WebSocket subscribers",
		},
	)

	// BroadcasterBroadcastsTotal counts snapshot fan-outs
	BroadcasterBroadcastsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "broadcaster_broadcasts_total",
			Help: "Total snapshot broadcasts to all subscribers",
		},
	)

	// BroadcasterDroppedMessagesTotal counts per-client messages dropped on full buffers
	BroadcasterDroppedMessagesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "broadcaster_dropped_messages_total",
			Help: "Total messages dropped because a subscriber send buffer was full",
		},
	)

	// BroadcasterStopTimeoutsTotal counts forced broadcaster shutdowns
	BroadcasterStopTimeoutsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "broadcaster_stop_timeouts_total",
			Help: "Total broadcaster shutdowns that exceeded the graceful stop timeout",
		},
	)
)

// WebSocket Connection Metrics
var (
	// WebSocketPingFailures counts failed keepalive pings
	WebSocketPingFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "websocket_ping_failures_total",
			Help: "Total WebSocket ping write failures (client likely disconnected)",
		},
	)

	// WebSocketMalformedMessages counts unparsable inbound messages
	WebSocketMalformedMessages = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "websocket_malformed_messages_total",
			Help: "Total inbound WebSocket messages that failed to parse as JSON",
		},
	)
)

// Simulator Metrics
var (
	// SimulatorTicksTotal counts synthetic activity generations
	SimulatorTicksTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "simulator_ticks_total",
			Help: "Total synthetic activity batches generated",
		},
	)
)
