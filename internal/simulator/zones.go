// RouteHub - Real-time Traffic and Construction Advisory Hub
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/routehub

package simulator

import (
	"sync"

	"github.com/tomtom215/routehub/internal/models"
)

// SeedZones returns the construction zones present at startup.
func SeedZones() []models.ConstructionZone {
	return []models.ConstructionZone{
		{
			ID:            "1",
			Location:      models.NewCoordinate(78.5, 17.4),
			Description:   "Bridge repair work",
			Severity:      models.SeverityMedium,
			StartDate:     "2023-10-01",
			EndDate:       "2024-12-31",
			AffectedRoads: []string{"NH65"},
		},
		{
			ID:            "2",
			Location:      models.NewCoordinate(78.6, 17.45),
			Description:   "Road widening project",
			Severity:      models.SeverityHigh,
			StartDate:     "2024-01-15",
			EndDate:       "2024-11-30",
			AffectedRoads: []string{"NH44"},
		},
		{
			ID:            "3",
			Location:      models.NewCoordinate(78.42, 17.43),
			Description:   "Utility work",
			Severity:      models.SeverityLow,
			StartDate:     "2024-02-01",
			EndDate:       "2024-08-31",
			AffectedRoads: []string{"Local roads"},
		},
		{
			ID:            "4",
			Location:      models.NewCoordinate(78.47, 17.41),
			Description:   "Pothole repairs",
			Severity:      models.SeverityLow,
			StartDate:     "2024-05-15",
			EndDate:       "2024-06-30",
			AffectedRoads: []string{"City streets"},
		},
		{
			ID:            "5",
			Location:      models.NewCoordinate(78.55, 17.38),
			Description:   "Major intersection reconstruction",
			Severity:      models.SeverityHigh,
			StartDate:     "2024-03-01",
			EndDate:       "2025-01-31",
			AffectedRoads: []string{"NH65", "State Highway 1"},
		},
	}
}

// ZoneStore is the ordered, id-unique construction zone collection.
type ZoneStore struct {
	mu    sync.RWMutex
	zones []models.ConstructionZone
}

// NewZoneStore creates a store holding copies of initial. Later duplicates of an id replace earlier ones.
func NewZoneStore(initial []models.ConstructionZone) *ZoneStore {
	s := &ZoneStore{zones: make([]models.ConstructionZone, 0, len(initial))}
	for i := range initial {
		s.zones, _ = models.UpsertZone(s.zones, initial[i].Clone())
	}
	return s
}

// Zones returns a deep copy of every zone in insertion order.
func (s *ZoneStore) Zones() []models.ConstructionZone {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.ConstructionZone, len(s.zones))
	for i := range s.zones {
		out[i] = s.zones[i].Clone()
	}
	return out
}

// Len returns the number of zones.
func (s *ZoneStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.zones)
}

// Upsert replaces the zone with the same id in place or appends it.
// It reports whether an existing zone was replaced.
func (s *ZoneStore) Upsert(zone models.ConstructionZone) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	var replaced bool
	s.zones, replaced = models.UpsertZone(s.zones, zone.Clone())
	return replaced
}

// Mutate applies fn to the zone at index pick(len) and returns a copy of the result.
// It returns false without calling pick when the store is empty.
func (s *ZoneStore) Mutate(pick func(n int) int, fn func(z *models.ConstructionZone)) (models.ConstructionZone, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.zones) == 0 {
		return models.ConstructionZone{}, false
	}
	z := &s.zones[pick(len(s.zones))]
	fn(z)
	return z.Clone(), true
}
