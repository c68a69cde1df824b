// RouteHub - Real-time Traffic and Construction Advisory Hub
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/routehub

package websocket

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/tomtom215/routehub/internal/geo"
	"github.com/tomtom215/routehub/internal/models"
	"github.com/tomtom215/routehub/internal/simulator"
)

// directSink broadcasts synchronously so a test can drive ticks without the hub loop.
type directSink struct{ b *Broadcaster }

func (s directSink) PublishTraffic(u models.TrafficUpdate)         { s.b.BroadcastTraffic(u) }
func (s directSink) PublishConstruction(z models.ConstructionZone) { s.b.BroadcastConstruction(z) }

func TestGeneratedTrafficReachesOnlyCoveringAreas(t *testing.T) {
	subs := NewSubscriptionStore(DefaultOptions().DefaultCenter)
	reg := NewRegistry(testZones, subs)
	b := NewBroadcaster(reg, subs)

	hyderabad, mumbai := newFakeConn(), newFakeConn()
	hydID, mumID := reg.Admit(hyderabad), reg.Admit(mumbai)
	hydArea := models.AreaSubscription{Center: models.NewCoordinate(78.4867, 17.385), RadiusKm: 8}
	mumArea := models.AreaSubscription{Center: models.NewCoordinate(72.8777, 19.076), RadiusKm: 8}
	subs.SetArea(hydID, hydArea)
	subs.SetArea(mumID, mumArea)

	clock := clockwork.NewFakeClockAt(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	gen := simulator.NewGenerator(simulator.DefaultConfig(), simulator.NewRandom(7), clock,
		reg, subs, directSink{b}, simulator.NewZoneStore(simulator.SeedZones()), simulator.NewTrafficBuffer(20))

	generated := 0
	for i := 0; i < 300; i++ {
		clock.Advance(15 * time.Second)
		if res := gen.Tick(clock.Now()); res.Traffic != nil {
			generated++
		}
	}
	if generated != 300 {
		t.Fatalf("generated %d traffic updates, want 300", generated)
	}

	check := func(name string, conn *fakeConn, own, other models.AreaSubscription) {
		t.Helper()
		traffic, construction := 0, 0
		for _, msg := range conn.received() {
			switch m := msg.(type) {
			case models.TrafficUpdateMessage:
				traffic++
				if !geo.Within(own, m.Update.Location) {
					t.Errorf("%s received traffic outside its area at %s", name, m.Update.Location)
				}
				if geo.Within(other, m.Update.Location) {
					t.Errorf("%s received traffic from the other area at %s", name, m.Update.Location)
				}
			case models.ConstructionUpdateMessage:
				construction++
			}
		}
		if traffic == 0 {
			t.Errorf("%s received no traffic over 300 ticks", name)
		}
		if construction == 0 {
			t.Errorf("%s received no construction updates over 300 ticks", name)
		}
	}
	check("hyderabad", hyderabad, hydArea, mumArea)
	check("mumbai", mumbai, mumArea, hydArea)

	hydConstruction, mumConstruction := 0, 0
	for _, msg := range hyderabad.received() {
		if _, ok := msg.(models.ConstructionUpdateMessage); ok {
			hydConstruction++
		}
	}
	for _, msg := range mumbai.received() {
		if _, ok := msg.(models.ConstructionUpdateMessage); ok {
			mumConstruction++
		}
	}
	if hydConstruction != mumConstruction {
		t.Errorf("construction updates differ: %d vs %d", hydConstruction, mumConstruction)
	}
}
