// RouteHub - Real-time Traffic and Construction Advisory Hub
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/routehub

package websocket

import (
	"fmt"
	"sort"
	"sync"

	"github.com/tomtom215/routehub/internal/metrics"
	"github.com/tomtom215/routehub/internal/models"
	"github.com/tomtom215/routehub/internal/validation"
)

// SubscriptionStore maps connections to their area of interest. Each
// connection holds at most one area; a new subscribe replaces it.
type SubscriptionStore struct {
	mu            sync.RWMutex
	areas         map[ConnectionID]models.AreaSubscription
	defaultCenter models.Coordinate
}

// NewSubscriptionStore creates an empty store. defaultCenter is used for
// subscribe messages that omit a center.
func NewSubscriptionStore(defaultCenter models.Coordinate) *SubscriptionStore {
	return &SubscriptionStore{
		areas:         make(map[ConnectionID]models.AreaSubscription),
		defaultCenter: defaultCenter,
	}
}

// SetArea records area for id, replacing any previous one.
func (s *SubscriptionStore) SetArea(id ConnectionID, area models.AreaSubscription) {
	s.mu.Lock()
	s.areas[id] = area
	n := len(s.areas)
	s.mu.Unlock()
	metrics.WSSubscriptions.Set(float64(n))
}

// Area returns the subscription held by id.
func (s *SubscriptionStore) Area(id ConnectionID) (models.AreaSubscription, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	area, ok := s.areas[id]
	return area, ok
}

// Clear removes the subscription held by id, if any.
func (s *SubscriptionStore) Clear(id ConnectionID) {
	s.mu.Lock()
	delete(s.areas, id)
	n := len(s.areas)
	s.mu.Unlock()
	metrics.WSSubscriptions.Set(float64(n))
}

// Areas returns a snapshot of all subscriptions ordered by connection ID.
func (s *SubscriptionStore) Areas() []models.AreaSubscription {
	s.mu.RLock()
	ids := make([]ConnectionID, 0, len(s.areas))
	for id := range s.areas {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	out := make([]models.AreaSubscription, len(ids))
	for i, id := range ids {
		out[i] = s.areas[id]
	}
	s.mu.RUnlock()
	return out
}

// Len returns the number of subscriptions.
func (s *SubscriptionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.areas)
}

// ApplySubscribe validates msg and records the resulting area for id.
func (s *SubscriptionStore) ApplySubscribe(id ConnectionID, msg *models.SubscribeMessage) (models.AreaSubscription, error) {
	if msg == nil {
		return models.AreaSubscription{}, fmt.Errorf("%w: empty subscribe", models.ErrMalformedMessage)
	}
	if verr := validation.ValidateStruct(msg); verr != nil {
		return models.AreaSubscription{}, fmt.Errorf("%w: %v", models.ErrMalformedMessage, verr)
	}

	center := s.defaultCenter
	if len(msg.Area.Center) == 2 {
		center = models.NewCoordinate(msg.Area.Center[0], msg.Area.Center[1])
	}
	area := models.AreaSubscription{Center: center, RadiusKm: msg.Area.Radius}
	s.SetArea(id, area)
	return area, nil
}
