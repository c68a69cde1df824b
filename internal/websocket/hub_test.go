// RouteHub - Real-time Traffic and Construction Advisory Hub
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/routehub

package websocket

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tomtom215/routehub/internal/models"
)

// setupHub starts a hub behind an httptest server and returns its ws URL.
func setupHub(t *testing.T, opts Options) (*Hub, string) {
	t.Helper()
	hub := NewHub(testZones, opts)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = hub.RunWithContext(ctx)
		close(done)
	}()

	server := httptest.NewServer(http.HandlerFunc(hub.ServeWS))
	t.Cleanup(func() {
		cancel()
		<-done
		server.Close()
	})
	return hub, "ws" + strings.TrimPrefix(server.URL, "http")
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) models.ServerMessage {
	t.Helper()
	if err := conn.SetReadDeadline(time.Now().Add(2 * time.Second)); err != nil {
		t.Fatal(err)
	}
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	msg, err := models.DecodeServerMessage(data)
	if err != nil {
		t.Fatalf("decode %s: %v", data, err)
	}
	return msg
}

func writeClient(t *testing.T, conn *websocket.Conn, msg models.ClientMessage) {
	t.Helper()
	data, err := models.EncodeClientMessage(msg)
	if err != nil {
		t.Fatal(err)
	}
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		t.Fatalf("write: %v", err)
	}
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestHubSendsZonesOnConnect(t *testing.T) {
	hub, url := setupHub(t, DefaultOptions())
	conn := dial(t, url)

	msg, ok := readFrame(t, conn).(models.ConstructionZonesMessage)
	if !ok {
		t.Fatal("first frame is not constructionZones")
	}
	if len(msg.Zones) != len(testZones) || msg.Zones[0].ID != "c1" {
		t.Errorf("zones = %+v", msg.Zones)
	}
	waitFor(t, "registration", func() bool { return hub.Count() == 1 })
}

func TestHubSubscribeThenTraffic(t *testing.T) {
	hub, url := setupHub(t, DefaultOptions())
	near := dial(t, url)
	far := dial(t, url)
	readFrame(t, near)
	readFrame(t, far)

	writeClient(t, near, models.NewSubscribeMessage(nil, 5))
	farCenter := models.NewCoordinate(80, 20)
	writeClient(t, far, models.NewSubscribeMessage(&farCenter, 5))
	waitFor(t, "subscriptions", func() bool { return hub.Subscriptions().Len() == 2 })

	hub.PublishTraffic(traffic(78.52, 17.42))
	hub.PublishConstruction(models.ConstructionZone{ID: "c-new", Location: models.NewCoordinate(78.5, 17.4)})

	// near gets the traffic update then the construction update, in publish order
	if _, ok := readFrame(t, near).(models.TrafficUpdateMessage); !ok {
		t.Error("near: expected trafficUpdate")
	}
	if msg, ok := readFrame(t, near).(models.ConstructionUpdateMessage); !ok || msg.Zone.ID != "c-new" {
		t.Error("near: expected constructionUpdate")
	}

	// far only gets the construction update
	if _, ok := readFrame(t, far).(models.ConstructionUpdateMessage); !ok {
		t.Error("far: expected constructionUpdate first")
	}
}

func TestHubTransportModeUpdate(t *testing.T) {
	hub, url := setupHub(t, DefaultOptions())
	conn := dial(t, url)
	readFrame(t, conn)
	waitFor(t, "registration", func() bool { return hub.Count() == 1 })

	var id ConnectionID
	hub.Registry().ForEach(func(cid ConnectionID, _ Conn) { id = cid })

	writeClient(t, conn, &models.UpdateTransportModeMessage{Type: models.ClientMessageUpdateTransportMode, Mode: "hovercraft"})
	writeClient(t, conn, models.NewUpdateTransportModeMessage(models.TransportCycling))

	waitFor(t, "mode change", func() bool { return hub.Registry().Mode(id) == models.TransportCycling })
}

func TestHubIgnoresMalformedFrames(t *testing.T) {
	hub, url := setupHub(t, DefaultOptions())
	conn := dial(t, url)
	readFrame(t, conn)

	for _, frame := range []string{
		`not json`,
		`{"type":"teleport"}`,
		`{"type":"subscribe","area":{"radius":-1}}`,
		`{"type":"subscribe"}`,
	} {
		if err := conn.WriteMessage(websocket.TextMessage, []byte(frame)); err != nil {
			t.Fatalf("write %q: %v", frame, err)
		}
	}
	writeClient(t, conn, models.NewSubscribeMessage(nil, 3))

	// the connection survives and the valid subscribe still lands
	waitFor(t, "subscription", func() bool { return hub.Subscriptions().Len() == 1 })
	if hub.Count() != 1 {
		t.Errorf("Count() = %d, want 1", hub.Count())
	}
}

func TestHubDisconnectRemovesConnection(t *testing.T) {
	hub, url := setupHub(t, DefaultOptions())
	conn := dial(t, url)
	readFrame(t, conn)
	writeClient(t, conn, models.NewSubscribeMessage(nil, 3))
	waitFor(t, "subscription", func() bool { return hub.Subscriptions().Len() == 1 })

	_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	_ = conn.Close()

	waitFor(t, "removal", func() bool { return hub.Count() == 0 && hub.Subscriptions().Len() == 0 })
}

func TestHubRejectsUnknownOrigin(t *testing.T) {
	opts := DefaultOptions()
	opts.AllowedOrigins = []string{"https://maps.example.com"}
	_, url := setupHub(t, opts)

	header := http.Header{"Origin": []string{"https://evil.example.com"}}
	_, resp, err := websocket.DefaultDialer.Dial(url, header)
	if err == nil {
		t.Fatal("dial succeeded with disallowed origin")
	}
	if resp == nil || resp.StatusCode != http.StatusForbidden {
		t.Errorf("response = %v, want 403", resp)
	}

	header.Set("Origin", "https://maps.example.com")
	conn, _, err := websocket.DefaultDialer.Dial(url, header)
	if err != nil {
		t.Fatalf("dial with allowed origin: %v", err)
	}
	_ = conn.Close()
}

func TestHubRunWithContextClosesClients(t *testing.T) {
	hub := NewHub(testZones, DefaultOptions())
	conn := newFakeConn()
	hub.Registry().Admit(conn)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := hub.RunWithContext(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("RunWithContext() = %v, want context.Canceled", err)
	}
	if conn.IsOpen() || hub.Count() != 0 {
		t.Error("clients not closed on shutdown")
	}
}

func TestGetShutdownReason(t *testing.T) {
	canceled, cancel := context.WithCancel(context.Background())
	cancel()
	if got := getShutdownReason(canceled); got != ShutdownReasonContextCanceled {
		t.Errorf("canceled: got %q", got)
	}

	expired, cancel2 := context.WithTimeout(context.Background(), -time.Second)
	defer cancel2()
	if got := getShutdownReason(expired); got != ShutdownReasonContextDeadline {
		t.Errorf("deadline: got %q", got)
	}
}

func TestHubPublishDropsWhenQueueFull(t *testing.T) {
	opts := DefaultOptions()
	opts.EventBuffer = 1
	hub := NewHub(nil, opts)

	hub.PublishTraffic(traffic(78.5, 17.4))
	hub.PublishTraffic(traffic(78.5, 17.4))

	if len(hub.events) != 1 {
		t.Errorf("queued events = %d, want 1", len(hub.events))
	}
}

func TestClientSendAfterClose(t *testing.T) {
	c := NewClient(nil, nil, 1, nil)
	msg := models.ConstructionUpdateMessage{Zone: models.ConstructionZone{ID: "z"}}

	if !c.Send(msg) {
		t.Fatal("first Send() = false")
	}
	if c.Send(msg) {
		t.Error("Send() on full queue = true")
	}
	c.Close()
	c.Close()
	if c.IsOpen() {
		t.Error("IsOpen() after Close = true")
	}
	if c.Send(msg) {
		t.Error("Send() after Close = true")
	}
}

func TestHubDispatchOnlyBroadcastsDeltas(t *testing.T) {
	hub := NewHub(testZones, DefaultOptions())
	conn := newFakeConn()
	hub.Registry().Admit(conn)

	hub.dispatch(models.ConstructionZonesMessage{Zones: testZones})
	if got := len(conn.received()); got != 1 {
		t.Fatalf("frames = %d, want only the admission snapshot", got)
	}

	hub.dispatch(models.ConstructionUpdateMessage{Zone: testZones[0]})
	if got := len(conn.received()); got != 2 {
		t.Errorf("frames = %d, want snapshot plus one update", got)
	}
}
