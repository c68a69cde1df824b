// RouteHub - Real-time Traffic and Construction Advisory Hub
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/routehub

package websocket

import (
	"github.com/tomtom215/routehub/internal/geo"
	"github.com/tomtom215/routehub/internal/metrics"
	"github.com/tomtom215/routehub/internal/models"
)

// Broadcaster fans generated events out to registered connections.
type Broadcaster struct {
	registry *Registry
	subs     *SubscriptionStore
}

// NewBroadcaster creates a broadcaster over registry and subs.
func NewBroadcaster(registry *Registry, subs *SubscriptionStore) *Broadcaster {
	return &Broadcaster{registry: registry, subs: subs}
}

// BroadcastTraffic sends update to every open connection whose area contains
// its location. Connections without a subscription receive nothing.
// It returns the number of connections the update was queued for.
func (b *Broadcaster) BroadcastTraffic(update models.TrafficUpdate) int {
	msg := models.TrafficUpdateMessage{Update: update}
	msgType := string(msg.ServerMessageType())
	delivered := 0

	b.registry.ForEach(func(id ConnectionID, handle Conn) {
		if !handle.IsOpen() {
			return
		}
		area, ok := b.subs.Area(id)
		if !ok || !geo.Within(area, update.Location) {
			return
		}
		queued := handle.Send(msg)
		metrics.RecordSend(msgType, queued)
		if queued {
			delivered++
		}
	})

	metrics.TrafficDeliveries.Observe(float64(delivered))
	return delivered
}

// BroadcastConstruction sends zone to every open connection regardless of area.
func (b *Broadcaster) BroadcastConstruction(zone models.ConstructionZone) int {
	msg := models.ConstructionUpdateMessage{Zone: zone}
	msgType := string(msg.ServerMessageType())
	delivered := 0

	b.registry.ForEach(func(_ ConnectionID, handle Conn) {
		if !handle.IsOpen() {
			return
		}
		queued := handle.Send(msg)
		metrics.RecordSend(msgType, queued)
		if queued {
			delivered++
		}
	})
	return delivered
}
