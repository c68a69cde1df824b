// RouteHub - Real-time Traffic and Construction Advisory Hub
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/routehub

package websocket

import (
	"sort"
	"sync"
	"sync/atomic"

	"github.com/tomtom215/routehub/internal/logging"
	"github.com/tomtom215/routehub/internal/metrics"
	"github.com/tomtom215/routehub/internal/models"
)

// ConnectionID identifies an admitted connection. IDs increase monotonically
// and are never reused within a process.
type ConnectionID uint64

// Conn is the registry's view of a connection handle. Send must not block;
// it reports false when the frame was not queued.
type Conn interface {
	Send(msg models.ServerMessage) bool
	IsOpen() bool
	Close()
}

// ZoneSource supplies the construction zones sent to a connection on admission.
type ZoneSource interface {
	Zones() []models.ConstructionZone
}

type entry struct {
	handle Conn
	mode   models.TransportMode
}

// Registry owns every live connection and its travel mode.
type Registry struct {
	mu     sync.RWMutex
	conns  map[ConnectionID]*entry
	nextID atomic.Uint64
	zones  ZoneSource
	subs   *SubscriptionStore
}

// NewRegistry creates an empty registry. subs may be nil when the caller does
// not track area subscriptions.
func NewRegistry(zones ZoneSource, subs *SubscriptionStore) *Registry {
	return &Registry{
		conns: make(map[ConnectionID]*entry),
		zones: zones,
		subs:  subs,
	}
}

// Admit registers handle with the default travel mode and sends it the full
// construction zone collection.
//
// The snapshot, the initial send and the insert happen under the write lock.
// A concurrent broadcast pass either misses the new connection, in which case
// its zone is already in the snapshot because the generator upserts before it
// publishes, or reaches it after the snapshot has been queued. Send never
// blocks, so holding the lock across it is cheap.
func (r *Registry) Admit(handle Conn) ConnectionID {
	id := ConnectionID(r.nextID.Add(1))

	r.mu.Lock()
	var zones []models.ConstructionZone
	if r.zones != nil {
		zones = r.zones.Zones()
	}
	msg := models.ConstructionZonesMessage{Zones: zones}
	queued := handle.Send(msg)
	r.conns[id] = &entry{handle: handle, mode: models.DefaultTransportMode}
	total := len(r.conns)
	r.mu.Unlock()

	metrics.RecordSend(string(msg.ServerMessageType()), queued)
	metrics.WSConnections.Set(float64(total))

	logging.Info().
		Uint64("connection_id", uint64(id)).
		Int("total_clients", total).
		Int("zones", len(zones)).
		Msg("websocket client connected")
	return id
}

// Remove drops the connection and its subscription. It reports whether id was live.
func (r *Registry) Remove(id ConnectionID) bool {
	r.mu.Lock()
	_, ok := r.conns[id]
	delete(r.conns, id)
	total := len(r.conns)
	r.mu.Unlock()

	if !ok {
		return false
	}
	if r.subs != nil {
		r.subs.Clear(id)
	}
	metrics.WSConnections.Set(float64(total))
	logging.Info().
		Uint64("connection_id", uint64(id)).
		Int("total_clients", total).
		Msg("websocket client disconnected")
	return true
}

// ForEach calls visit for every live connection in admission order. The
// registry lock is not held while visit runs, so visit may call Remove.
func (r *Registry) ForEach(visit func(id ConnectionID, handle Conn)) {
	type item struct {
		id     ConnectionID
		handle Conn
	}

	r.mu.RLock()
	snapshot := make([]item, 0, len(r.conns))
	for id, e := range r.conns {
		snapshot = append(snapshot, item{id: id, handle: e.handle})
	}
	r.mu.RUnlock()

	sort.Slice(snapshot, func(i, j int) bool { return snapshot[i].id < snapshot[j].id })

	for _, it := range snapshot {
		// skip connections removed since the snapshot was taken
		if !r.Contains(it.id) {
			continue
		}
		visit(it.id, it.handle)
	}
}

// SetMode records the travel mode for id. Unknown ids are ignored.
func (r *Registry) SetMode(id ConnectionID, mode models.TransportMode) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.conns[id]
	if !ok {
		return false
	}
	e.mode = mode
	return true
}

// Mode returns the travel mode for id, or the default for unknown ids.
func (r *Registry) Mode(id ConnectionID) models.TransportMode {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if e, ok := r.conns[id]; ok {
		return e.mode
	}
	return models.DefaultTransportMode
}

// Contains reports whether id is live.
func (r *Registry) Contains(id ConnectionID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.conns[id]
	return ok
}

// Count returns the number of live connections.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}

// CloseAll removes every connection and closes its handle. It returns the
// number of connections closed.
func (r *Registry) CloseAll() int {
	r.mu.Lock()
	conns := r.conns
	r.conns = make(map[ConnectionID]*entry)
	r.mu.Unlock()

	ids := make([]ConnectionID, 0, len(conns))
	for id := range conns {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for _, id := range ids {
		if r.subs != nil {
			r.subs.Clear(id)
		}
		conns[id].handle.Close()
	}
	metrics.WSConnections.Set(0)
	return len(ids)
}
