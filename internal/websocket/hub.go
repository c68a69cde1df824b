// RouteHub - Real-time Traffic and Construction Advisory Hub
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/routehub

package websocket

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/tomtom215/routehub/internal/logging"
	"github.com/tomtom215/routehub/internal/metrics"
	"github.com/tomtom215/routehub/internal/models"
	"github.com/tomtom215/routehub/internal/validation"
)

// ShutdownReason identifies why the hub is shutting down.
type ShutdownReason string

const (
	// ShutdownReasonContextCanceled indicates the parent context was canceled.
	// This is the normal graceful shutdown path (e.g., SIGTERM).
	ShutdownReasonContextCanceled ShutdownReason = "context_canceled"

	// ShutdownReasonContextDeadline indicates the context deadline was exceeded.
	ShutdownReasonContextDeadline ShutdownReason = "context_deadline"
)

// Options configures a Hub.
type Options struct {
	// DefaultCenter is used for subscribe messages without a center.
	DefaultCenter models.Coordinate

	// SendBuffer is the per-connection outbound queue length.
	SendBuffer int

	// InboundRate limits frames per second read from one connection. 0 disables the limit.
	InboundRate  float64
	InboundBurst int

	// EventBuffer is the length of the queue between publishers and the broadcast loop.
	EventBuffer int

	// AllowedOrigins lists accepted browser origins. "*" accepts any origin.
	// Requests without an Origin header are accepted.
	AllowedOrigins []string

	HandshakeTimeout time.Duration
}

// DefaultOptions returns the options used when none are configured.
func DefaultOptions() Options {
	return Options{
		DefaultCenter:    models.NewCoordinate(78.5, 17.4),
		SendBuffer:       256,
		InboundRate:      10,
		InboundBurst:     20,
		EventBuffer:      256,
		AllowedOrigins:   []string{"*"},
		HandshakeTimeout: 10 * time.Second,
	}
}

// Hub owns the connection registry and subscription store and serializes
// broadcasts of generated events. It implements simulator.EventSink,
// simulator.Audience and simulator.AreaSource.
type Hub struct {
	registry    *Registry
	subs        *SubscriptionStore
	broadcaster *Broadcaster
	events      chan models.ServerMessage
	opts        Options
	upgrader    websocket.Upgrader
}

// NewHub creates a hub that sends zones from the given source to new connections.
func NewHub(zones ZoneSource, opts Options) *Hub {
	if opts.EventBuffer <= 0 {
		opts.EventBuffer = 256
	}
	subs := NewSubscriptionStore(opts.DefaultCenter)
	registry := NewRegistry(zones, subs)
	h := &Hub{
		registry:    registry,
		subs:        subs,
		broadcaster: NewBroadcaster(registry, subs),
		events:      make(chan models.ServerMessage, opts.EventBuffer),
		opts:        opts,
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:   1024,
		WriteBufferSize:  1024,
		CheckOrigin:      h.checkOrigin,
		HandshakeTimeout: opts.HandshakeTimeout,
	}
	return h
}

// Registry returns the hub's connection registry.
func (h *Hub) Registry() *Registry { return h.registry }

// Subscriptions returns the hub's area subscription store.
func (h *Hub) Subscriptions() *SubscriptionStore { return h.subs }

// Count returns the number of live connections.
func (h *Hub) Count() int { return h.registry.Count() }

// Areas returns a snapshot of the live area subscriptions.
func (h *Hub) Areas() []models.AreaSubscription { return h.subs.Areas() }

// PublishTraffic queues a traffic update for area-filtered broadcast.
func (h *Hub) PublishTraffic(update models.TrafficUpdate) {
	h.enqueue(models.TrafficUpdateMessage{Update: update})
}

// PublishConstruction queues a construction zone change for every connection.
func (h *Hub) PublishConstruction(zone models.ConstructionZone) {
	h.enqueue(models.ConstructionUpdateMessage{Zone: zone})
}

func (h *Hub) enqueue(msg models.ServerMessage) {
	select {
	case h.events <- msg:
	default:
		metrics.WSMessagesDropped.WithLabelValues(string(msg.ServerMessageType())).Inc()
		logging.Warn().Str("type", string(msg.ServerMessageType())).Msg("broadcast channel full, dropping message")
	}
}

// RunWithContext runs the broadcast loop until ctx is canceled, then closes
// every connection and returns ctx.Err(). Designed for suture supervision.
func (h *Hub) RunWithContext(ctx context.Context) error {
	for {
		// shutdown takes priority over queued events
		select {
		case <-ctx.Done():
			h.logGracefulShutdown(ctx)
			return ctx.Err()
		default:
		}

		select {
		case <-ctx.Done():
			h.logGracefulShutdown(ctx)
			return ctx.Err()
		case msg := <-h.events:
			h.dispatch(msg)
		}
	}
}

func (h *Hub) dispatch(msg models.ServerMessage) {
	switch m := msg.(type) {
	case models.TrafficUpdateMessage:
		n := h.broadcaster.BroadcastTraffic(m.Update)
		logging.Debug().Str("id", m.Update.ID).Int("recipients", n).Msg("traffic update broadcast")
	case models.ConstructionUpdateMessage:
		n := h.broadcaster.BroadcastConstruction(m.Zone)
		logging.Debug().Str("id", m.Zone.ID).Int("recipients", n).Msg("construction update broadcast")
	default:
		logging.Warn().Str("type", string(msg.ServerMessageType())).Msg("unhandled broadcast message type")
	}
}

// logGracefulShutdown closes every client and logs the shutdown. ctx.Err() is
// not logged as an error: cancellation is the expected path.
func (h *Hub) logGracefulShutdown(ctx context.Context) {
	closed := h.registry.CloseAll()
	logging.Info().
		Str("component", "websocket-hub").
		Str("reason", string(getShutdownReason(ctx))).
		Int("clients_closed", closed).
		Msg("websocket hub stopped")
}

func getShutdownReason(ctx context.Context) ShutdownReason {
	switch ctx.Err() {
	case context.DeadlineExceeded:
		return ShutdownReasonContextDeadline
	default:
		return ShutdownReasonContextCanceled
	}
}

// ServeWS upgrades the request and admits the connection.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already replied with an HTTP error
		metrics.WSErrors.WithLabelValues("upgrade").Inc()
		logging.Ctx(r.Context()).Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	client := NewClient(h, conn, h.opts.SendBuffer, h.newLimiter())
	client.id = h.registry.Admit(client)
	client.Start()
}

func (h *Hub) newLimiter() *rate.Limiter {
	if h.opts.InboundRate <= 0 {
		return nil
	}
	burst := h.opts.InboundBurst
	if burst <= 0 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(h.opts.InboundRate), burst)
}

func (h *Hub) unregister(c *Client) {
	h.registry.Remove(c.id)
	c.Close()
}

func (h *Hub) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, allowed := range h.opts.AllowedOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	logging.Warn().Str("origin", origin).Msg("websocket connection rejected from unauthorized origin")
	return false
}

// HandleInbound decodes one client frame from connection id and applies it.
// Malformed and unknown frames are logged and dropped.
func (h *Hub) HandleInbound(id ConnectionID, data []byte) {
	msg, err := models.DecodeClientMessage(data)
	if err != nil {
		kind := "malformed"
		if errors.Is(err, models.ErrUnknownMessageType) {
			kind = "unknown_type"
		}
		metrics.WSErrors.WithLabelValues(kind).Inc()
		logging.Warn().Err(err).Uint64("connection_id", uint64(id)).Msg("ignoring websocket message")
		return
	}
	metrics.WSMessagesReceived.WithLabelValues(string(msg.ClientMessageType())).Inc()

	if !h.registry.Contains(id) {
		return
	}

	switch m := msg.(type) {
	case *models.SubscribeMessage:
		area, err := h.subs.ApplySubscribe(id, m)
		if err != nil {
			metrics.WSErrors.WithLabelValues("invalid").Inc()
			logging.Warn().Err(err).Uint64("connection_id", uint64(id)).Msg("ignoring subscribe message")
			return
		}
		logging.Info().
			Uint64("connection_id", uint64(id)).
			Stringer("center", area.Center).
			Float64("radius_km", area.RadiusKm).
			Msg("client subscribed to area")

	case *models.UpdateTransportModeMessage:
		if verr := validation.ValidateStruct(m); verr != nil {
			metrics.WSErrors.WithLabelValues("invalid").Inc()
			logging.Warn().Err(verr).Uint64("connection_id", uint64(id)).Msg("ignoring transport mode update")
			return
		}
		mode, _ := models.ParseTransportMode(m.Mode)
		h.registry.SetMode(id, mode)
		logging.Info().
			Uint64("connection_id", uint64(id)).
			Str("mode", string(mode)).
			Msg("client updated transport mode")

	default:
		logging.Warn().Str("type", string(msg.ClientMessageType())).Msg("unhandled client message type")
	}
}
