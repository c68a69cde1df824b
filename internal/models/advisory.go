// RouteHub - Real-time Traffic and Construction Advisory Hub
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/routehub

package models

import (
	"fmt"
)

// DateLayout is the calendar-date format used for construction zone start and end dates.
const DateLayout = "2006-01-02"

// Coordinate is a geographic position encoded on the wire as [longitude, latitude].
type Coordinate [2]float64

// NewCoordinate builds a Coordinate from a longitude and latitude.
func NewCoordinate(lon, lat float64) Coordinate {
	return Coordinate{lon, lat}
}

// Lon returns the longitude component.
func (c Coordinate) Lon() float64 { return c[0] }

// Lat returns the latitude component.
func (c Coordinate) Lat() float64 { return c[1] }

// Valid reports whether the coordinate lies within WGS84 bounds.
func (c Coordinate) Valid() bool {
	return c[0] >= -180 && c[0] <= 180 && c[1] >= -90 && c[1] <= 90
}

func (c Coordinate) String() string {
	return fmt.Sprintf("[%.5f, %.5f]", c[0], c[1])
}

// TransportMode is a connection's travel-mode preference.
type TransportMode string

const (
	TransportDriving TransportMode = "driving"
	TransportWalking TransportMode = "walking"
	TransportCycling TransportMode = "cycling"
	TransportTransit TransportMode = "transit"
)

// DefaultTransportMode is assigned to every newly admitted connection.
const DefaultTransportMode = TransportDriving

// ParseTransportMode returns the mode named by s, or false if s is not a known mode.
func ParseTransportMode(s string) (TransportMode, bool) {
	switch TransportMode(s) {
	case TransportDriving, TransportWalking, TransportCycling, TransportTransit:
		return TransportMode(s), true
	default:
		return "", false
	}
}

// Severity grades traffic and construction advisories.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// Severities lists every severity in the order random selection indexes them.
var Severities = []Severity{SeverityLow, SeverityMedium, SeverityHigh}

// AreaSubscription is a connection's circular region of interest.
type AreaSubscription struct {
	Center   Coordinate `json:"center"`
	RadiusKm float64    `json:"radius"`
}

// TrafficUpdate is a short-lived, localized traffic advisory. It is never mutated after creation.
type TrafficUpdate struct {
	ID          string     `json:"id"`
	Location    Coordinate `json:"location"`
	Severity    Severity   `json:"severity"`
	Description string     `json:"description"`
	Timestamp   string     `json:"timestamp"`
	Speed       float64    `json:"speed"`
	Congestion  float64    `json:"congestion"`
}

// ConstructionZone is a long-lived roadwork advisory, unique by ID.
type ConstructionZone struct {
	ID            string     `json:"id"`
	Location      Coordinate `json:"location"`
	Description   string     `json:"description"`
	Severity      Severity   `json:"severity"`
	StartDate     string     `json:"startDate"`
	EndDate       string     `json:"endDate"`
	AffectedRoads []string   `json:"affectedRoads,omitempty"`
}

// Clone returns a deep copy so callers can hand zones across goroutines safely.
func (z ConstructionZone) Clone() ConstructionZone {
	if z.AffectedRoads != nil {
		roads := make([]string, len(z.AffectedRoads))
		copy(roads, z.AffectedRoads)
		z.AffectedRoads = roads
	}
	return z
}

// UpsertZone replaces the zone with the same ID in place or appends it.
// The returned slice may share storage with zones.
func UpsertZone(zones []ConstructionZone, zone ConstructionZone) ([]ConstructionZone, bool) {
	for i := range zones {
		if zones[i].ID == zone.ID {
			zones[i] = zone
			return zones, true
		}
	}
	return append(zones, zone), false
}
