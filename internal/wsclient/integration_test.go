// RouteHub - Real-time Traffic and Construction Advisory Hub
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/routehub

package wsclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/tomtom215/routehub/internal/models"
	"github.com/tomtom215/routehub/internal/websocket"
)

type staticZones []models.ConstructionZone

func (z staticZones) Zones() []models.ConstructionZone { return z }

func TestTransport_AgainstHub(t *testing.T) {
	zones := staticZones{{
		ID:          "c1",
		Location:    models.NewCoordinate(78.49, 17.39),
		Description: "Metro rail construction",
		Severity:    models.SeverityHigh,
		StartDate:   "2026-01-01",
		EndDate:     "2026-06-01",
	}}
	hub := websocket.NewHub(zones, websocket.DefaultOptions())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = hub.RunWithContext(ctx)
		close(done)
	}()
	server := httptest.NewServer(http.HandlerFunc(hub.ServeWS))
	defer func() {
		cancel()
		<-done
		server.Close()
	}()

	tr := New(Config{URL: "ws" + strings.TrimPrefix(server.URL, "http")},
		WithDialer(NewGorillaDialer(2*time.Second, nil)))
	defer tr.Close()
	tr.Start()

	waitFor(t, "initial zones", func() bool { return len(tr.Zones()) == 1 })
	waitFor(t, "default subscription", func() bool { return hub.Subscriptions().Len() == 1 })

	areas := hub.Areas()
	if areas[0].RadiusKm != 10 || areas[0].Center != websocket.DefaultOptions().DefaultCenter {
		t.Errorf("default subscription = %+v", areas[0])
	}

	hub.PublishTraffic(models.TrafficUpdate{
		ID:       "t1",
		Location: models.NewCoordinate(78.5, 17.41),
		Severity: models.SeverityMedium,
	})
	waitFor(t, "traffic update", func() bool { return len(tr.Traffic()) == 1 })

	updated := zones[0]
	updated.Severity = models.SeverityLow
	hub.PublishConstruction(updated)
	waitFor(t, "construction update", func() bool {
		z := tr.Zones()
		return len(z) == 1 && z[0].Severity == models.SeverityLow
	})

	center := models.NewCoordinate(80, 20)
	if err := tr.SubscribeToArea(&center, 1); err != nil {
		t.Fatal(err)
	}
	waitFor(t, "subscription replaced", func() bool {
		a := hub.Areas()
		return len(a) == 1 && a[0].RadiusKm == 1
	})
}
