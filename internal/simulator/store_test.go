// RouteHub - Real-time Traffic and Construction Advisory Hub
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/routehub

package simulator

import (
	"fmt"
	"testing"

	"github.com/tomtom215/routehub/internal/models"
)

func TestTrafficBuffer_NewestFirstAndCapped(t *testing.T) {
	b := NewTrafficBuffer(3)
	for i := 1; i <= 5; i++ {
		b.Push(models.TrafficUpdate{ID: fmt.Sprint(i)})
	}

	got := b.Snapshot()
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	for i, want := range []string{"5", "4", "3"} {
		if got[i].ID != want {
			t.Errorf("Snapshot()[%d] = %s, want %s", i, got[i].ID, want)
		}
	}
}

func TestTrafficBuffer_SnapshotIsCopy(t *testing.T) {
	b := NewTrafficBuffer(0)
	b.Push(models.TrafficUpdate{ID: "a"})
	snap := b.Snapshot()
	snap[0].ID = "mutated"
	if b.Snapshot()[0].ID != "a" {
		t.Error("Snapshot shares storage with the buffer")
	}
}

func TestSeedZones(t *testing.T) {
	zones := SeedZones()
	if len(zones) != 5 {
		t.Fatalf("seed has %d zones, want 5", len(zones))
	}
	seen := map[string]bool{}
	for _, z := range zones {
		if seen[z.ID] {
			t.Errorf("duplicate seed id %s", z.ID)
		}
		seen[z.ID] = true
		if !z.Location.Valid() || len(z.AffectedRoads) == 0 {
			t.Errorf("seed zone %s incomplete: %+v", z.ID, z)
		}
	}
}

func TestZoneStore_UniqueIDs(t *testing.T) {
	s := NewZoneStore([]models.ConstructionZone{{ID: "1"}, {ID: "2"}, {ID: "1", Description: "dup"}})
	if s.Len() != 2 {
		t.Fatalf("Len = %d, want 2", s.Len())
	}
	if s.Zones()[0].Description != "dup" {
		t.Error("later duplicate should replace in place")
	}

	if replaced := s.Upsert(models.ConstructionZone{ID: "3"}); replaced {
		t.Error("new id reported as replaced")
	}
	if replaced := s.Upsert(models.ConstructionZone{ID: "2", Description: "changed"}); !replaced {
		t.Error("existing id not reported as replaced")
	}
	zones := s.Zones()
	if len(zones) != 3 || zones[1].Description != "changed" || zones[2].ID != "3" {
		t.Errorf("zones = %+v", zones)
	}
}

func TestZoneStore_MutateEmpty(t *testing.T) {
	s := NewZoneStore(nil)
	_, ok := s.Mutate(func(int) int {
		t.Fatal("pick called on empty store")
		return 0
	}, func(*models.ConstructionZone) {})
	if ok {
		t.Error("Mutate on empty store should report false")
	}
}

func TestZoneStore_ZonesAreDeepCopies(t *testing.T) {
	s := NewZoneStore(SeedZones())
	zones := s.Zones()
	zones[0].AffectedRoads[0] = "changed"
	if s.Zones()[0].AffectedRoads[0] != "NH65" {
		t.Error("Zones shares AffectedRoads storage with the store")
	}
}
