// RouteHub - Real-time Traffic and Construction Advisory Hub
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/routehub

// Package metrics registers the Prometheus collectors exported on /metrics.
//
// Collectors are package globals created with promauto so any package can record
// without plumbing a registry through constructors.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of in-flight HTTP requests",
		},
	)

	APIRateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_rate_limit_hits_total",
			Help: "Total number of rate limit rejections",
		},
		[]string{"endpoint"},
	)

	// WebSocket Metrics
	WSConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "websocket_connections",
			Help: "Current number of registered WebSocket connections",
		},
	)

	WSMessagesSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "websocket_messages_sent_total",
			Help: "Total number of WebSocket messages queued for delivery",
		},
		[]string{"type"},
	)

	WSMessagesReceived = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "websocket_messages_received_total",
			Help: "Total number of WebSocket messages received from clients",
		},
		[]string{"type"},
	)

	WSMessagesDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "websocket_messages_dropped_total",
			Help: "Total number of outbound messages dropped because a send queue was full or closed",
		},
		[]string{"type"},
	)

	WSErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "websocket_errors_total",
			Help: "Total number of WebSocket errors",
		},
		[]string{"error_type"},
	)

	WSSubscriptions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "websocket_area_subscriptions",
			Help: "Current number of connections with an active area subscription",
		},
	)

	// Generator Metrics
	TrafficUpdatesGenerated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "traffic_updates_generated_total",
			Help: "Total number of synthetic traffic updates by severity",
		},
		[]string{"severity"},
	)

	TrafficDeliveries = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "traffic_update_recipients",
			Help:    "Number of connections each traffic update was delivered to",
			Buckets: []float64{0, 1, 2, 5, 10, 25, 50, 100, 250},
		},
	)

	ConstructionDeltas = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "construction_deltas_total",
			Help: "Total number of construction zone changes by kind",
		},
		[]string{"kind"}, // "created", "updated"
	)

	ConstructionZones = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "construction_zones",
			Help: "Current number of known construction zones",
		},
	)

	GeneratorTicks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "generator_ticks_total",
			Help: "Total number of generator ticks by outcome",
		},
		[]string{"outcome"}, // "produced", "idle"
	)

	// Event Bus Metrics
	EventBusPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "event_bus_published_total",
			Help: "Total number of events published to the in-process bus",
		},
		[]string{"topic"},
	)

	EventBusErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "event_bus_errors_total",
			Help: "Total number of event bus publish or decode failures",
		},
		[]string{"topic"},
	)

	// Client Transport Metrics
	ClientReconnectAttempts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "client_reconnect_attempts_total",
			Help: "Total number of reconnect attempts scheduled by the client transport",
		},
	)

	ClientGiveUps = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "client_reconnect_give_ups_total",
			Help: "Total number of times the client transport exhausted its reconnect attempts",
		},
	)

	ClientStatus = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "client_connection_status",
			Help: "Client transport status (1 for the current status, 0 otherwise)",
		},
		[]string{"status"},
	)
)

// RecordAPIRequest records an HTTP request metric.
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest tracks in-flight HTTP requests.
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordSend records the outcome of one outbound websocket enqueue.
func RecordSend(msgType string, queued bool) {
	if queued {
		WSMessagesSent.WithLabelValues(msgType).Inc()
	} else {
		WSMessagesDropped.WithLabelValues(msgType).Inc()
	}
}

// SetClientStatus marks status as the transport's current state.
func SetClientStatus(status string, all []string) {
	for _, s := range all {
		v := 0.0
		if s == status {
			v = 1
		}
		ClientStatus.WithLabelValues(s).Set(v)
	}
}
