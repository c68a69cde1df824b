// RouteHub - Real-time Traffic and Construction Advisory Hub
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/routehub

package eventbus

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/tomtom215/routehub/internal/logging"
	"github.com/tomtom215/routehub/internal/models"
)

//nolint:gochecknoinits // init ensures consistent logging for tests
func init() {
	logging.Init(logging.Config{Level: "error", Format: "console", Output: io.Discard})
}

type recordingSink struct {
	mu      sync.Mutex
	traffic []models.TrafficUpdate
	zones   []models.ConstructionZone
	got     chan struct{}
}

func newRecordingSink() *recordingSink {
	return &recordingSink{got: make(chan struct{}, 16)}
}

func (s *recordingSink) PublishTraffic(u models.TrafficUpdate) {
	s.mu.Lock()
	s.traffic = append(s.traffic, u)
	s.mu.Unlock()
	s.got <- struct{}{}
}

func (s *recordingSink) PublishConstruction(z models.ConstructionZone) {
	s.mu.Lock()
	s.zones = append(s.zones, z)
	s.mu.Unlock()
	s.got <- struct{}{}
}

func (s *recordingSink) wait(t *testing.T, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		select {
		case <-s.got:
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out after %d of %d events", i, n)
		}
	}
}

func startBus(t *testing.T) (*Bus, *recordingSink, context.CancelFunc, <-chan error) {
	t.Helper()
	bus := New(Config{OutputChannelBuffer: 8})
	sink := newRecordingSink()
	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- bus.Run(ctx, sink) }()

	select {
	case <-bus.Ready():
	case <-time.After(2 * time.Second):
		t.Fatal("bus never became ready")
	}
	t.Cleanup(func() {
		cancel()
		_ = bus.Close()
	})
	return bus, sink, cancel, errc
}

func TestBusForwardsEvents(t *testing.T) {
	bus, sink, _, _ := startBus(t)

	update := models.TrafficUpdate{
		ID:          "t-1",
		Location:    models.NewCoordinate(78.5, 17.4),
		Severity:    models.SeverityHigh,
		Description: "Heavy traffic",
		Timestamp:   "2024-01-01T00:00:00.000Z",
		Speed:       12.5,
		Congestion:  0.9,
	}
	zone := models.ConstructionZone{
		ID:            "c-1",
		Location:      models.NewCoordinate(78.48, 17.38),
		Description:   "Road widening",
		Severity:      models.SeverityMedium,
		StartDate:     "2024-01-01",
		EndDate:       "2024-02-01",
		AffectedRoads: []string{"Local roads"},
	}

	bus.PublishTraffic(update)
	bus.PublishConstruction(zone)
	sink.wait(t, 2)

	sink.mu.Lock()
	defer sink.mu.Unlock()
	if len(sink.traffic) != 1 || sink.traffic[0] != update {
		t.Errorf("traffic = %+v", sink.traffic)
	}
	if len(sink.zones) != 1 || sink.zones[0].ID != "c-1" || sink.zones[0].AffectedRoads[0] != "Local roads" {
		t.Errorf("zones = %+v", sink.zones)
	}
}

func TestBusRunReturnsContextError(t *testing.T) {
	_, _, cancel, errc := startBus(t)
	cancel()

	select {
	case err := <-errc:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Run() = %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestBusPublishWithoutConsumerDoesNotBlock(t *testing.T) {
	bus := New(Config{})
	defer func() { _ = bus.Close() }()

	done := make(chan struct{})
	go func() {
		bus.PublishTraffic(models.TrafficUpdate{ID: "orphan"})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked without a consumer")
	}
}
