// RouteHub - Real-time Traffic and Construction Advisory Hub
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/routehub

package models

import "testing"

func TestParseTransportMode(t *testing.T) {
	for _, s := range []string{"driving", "walking", "cycling", "transit"} {
		if mode, ok := ParseTransportMode(s); !ok || string(mode) != s {
			t.Errorf("ParseTransportMode(%q) = %q, %v", s, mode, ok)
		}
	}
	for _, s := range []string{"", "Driving", "flying"} {
		if _, ok := ParseTransportMode(s); ok {
			t.Errorf("ParseTransportMode(%q) accepted", s)
		}
	}
}

func TestUpsertZone(t *testing.T) {
	zones := []ConstructionZone{
		{ID: "1", Description: "Road resurfacing work"},
		{ID: "2", Description: "Bridge maintenance"},
	}

	zones, replaced := UpsertZone(zones, ConstructionZone{ID: "2", Description: "Bridge maintenance (Updated)"})
	if !replaced {
		t.Error("existing id should be replaced")
	}
	if len(zones) != 2 || zones[1].Description != "Bridge maintenance (Updated)" {
		t.Errorf("zones after replace = %+v", zones)
	}

	zones, replaced = UpsertZone(zones, ConstructionZone{ID: "3"})
	if replaced {
		t.Error("new id should be appended")
	}
	if len(zones) != 3 || zones[2].ID != "3" {
		t.Errorf("zones after append = %+v", zones)
	}
}

func TestConstructionZone_CloneIsDeep(t *testing.T) {
	orig := ConstructionZone{ID: "1", AffectedRoads: []string{"Main St"}}
	clone := orig.Clone()
	clone.AffectedRoads[0] = "Other"
	if orig.AffectedRoads[0] != "Main St" {
		t.Error("Clone shares AffectedRoads storage")
	}
}

func TestCoordinate(t *testing.T) {
	c := NewCoordinate(78.5, 17.4)
	if c.Lon() != 78.5 || c.Lat() != 17.4 {
		t.Errorf("components = %v", c)
	}
	if !c.Valid() {
		t.Error("Hyderabad should be a valid coordinate")
	}
	if NewCoordinate(181, 0).Valid() || NewCoordinate(0, -91).Valid() {
		t.Error("out-of-range coordinate reported valid")
	}
}
