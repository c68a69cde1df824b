// RouteHub - Real-time Traffic and Construction Advisory Hub
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/routehub

package api

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"

	"github.com/tomtom215/routehub/internal/logging"
	"github.com/tomtom215/routehub/internal/models"
	ws "github.com/tomtom215/routehub/internal/websocket"
)

//nolint:gochecknoinits // init ensures consistent logging for tests
func init() {
	logging.Init(logging.Config{Level: "error", Format: "console", Output: io.Discard})
}

type fixedCount int

func (c fixedCount) Count() int { return int(c) }
func (c fixedCount) Len() int   { return int(c) }

type fixedTick time.Time

func (t fixedTick) LastTick() time.Time { return time.Time(t) }

type stubWS struct{ calls int }

func (s *stubWS) ServeWS(w http.ResponseWriter, _ *http.Request) {
	s.calls++
	w.WriteHeader(http.StatusTeapot)
}

func newTestRouter(t *testing.T, handler *Handler, server WebSocketServer, cfg *ChiMiddlewareConfig) http.Handler {
	t.Helper()
	return NewRouter(handler, server, cfg).SetupChi()
}

func decodeResponse(t *testing.T, body io.Reader) (models.APIResponse, models.HealthStatus) {
	t.Helper()
	var raw struct {
		models.APIResponse
		Data json.RawMessage `json:"data"`
	}
	if err := json.NewDecoder(body).Decode(&raw); err != nil {
		t.Fatalf("decode: %v", err)
	}
	var status models.HealthStatus
	if len(raw.Data) > 0 {
		if err := json.Unmarshal(raw.Data, &status); err != nil {
			t.Fatalf("decode data: %v", err)
		}
	}
	return raw.APIResponse, status
}

func TestHealthLive(t *testing.T) {
	router := newTestRouter(t, NewHandler(fixedCount(0), nil, nil, "test"), &stubWS{}, nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/health/live", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if got := rec.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q", got)
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("missing X-Request-ID")
	}
}

func TestHealthReady(t *testing.T) {
	last := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	handler := NewHandler(fixedCount(3), fixedCount(5), fixedTick(last), "test")
	router := newTestRouter(t, handler, &stubWS{}, nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/health/ready", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status before ready = %d, want 503", rec.Code)
	}

	handler.SetReady(true)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/health/ready", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status after ready = %d, want 200", rec.Code)
	}

	resp, status := decodeResponse(t, rec.Body)
	if resp.Status != "ready" {
		t.Errorf("response status = %q", resp.Status)
	}
	if status.Connections != 3 || status.Zones != 5 {
		t.Errorf("health = %+v", status)
	}
	if status.LastTick == nil || !status.LastTick.Equal(last) {
		t.Errorf("last tick = %v, want %v", status.LastTick, last)
	}
}

func TestHealthOmitsLastTickBeforeFirstTick(t *testing.T) {
	handler := NewHandler(fixedCount(0), nil, fixedTick(time.Time{}), "test")
	router := newTestRouter(t, handler, &stubWS{}, nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/health/", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "last_tick") {
		t.Errorf("body contains last_tick: %s", rec.Body.String())
	}
}

func TestMetricsEndpoint(t *testing.T) {
	router := newTestRouter(t, NewHandler(fixedCount(0), nil, nil, "test"), &stubWS{}, nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "websocket_connections") {
		t.Error("metrics output missing websocket_connections")
	}
}

func TestUpgradeRateLimit(t *testing.T) {
	cfg := DefaultChiMiddlewareConfig()
	cfg.UpgradeRequests = 2
	stub := &stubWS{}
	router := newTestRouter(t, NewHandler(fixedCount(0), nil, nil, "test"), stub, cfg)

	codes := make([]int, 3)
	for i := range codes {
		req := httptest.NewRequest(http.MethodGet, "/ws", nil)
		req.RemoteAddr = "203.0.113.7:5000"
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		codes[i] = rec.Code
	}

	if codes[0] != http.StatusTeapot || codes[1] != http.StatusTeapot {
		t.Errorf("first requests = %v, want handler status", codes[:2])
	}
	if codes[2] != http.StatusTooManyRequests {
		t.Errorf("third request = %d, want 429", codes[2])
	}
	if stub.calls != 2 {
		t.Errorf("handler calls = %d, want 2", stub.calls)
	}
}

func TestCORSPreflight(t *testing.T) {
	cfg := DefaultChiMiddlewareConfig()
	cfg.CORSAllowedOrigins = []string{"https://maps.example.com"}
	router := newTestRouter(t, NewHandler(fixedCount(0), nil, nil, "test"), &stubWS{}, cfg)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/health/live", nil)
	req.Header.Set("Origin", "https://maps.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://maps.example.com" {
		t.Errorf("Access-Control-Allow-Origin = %q", got)
	}
}

func TestWebSocketThroughRouter(t *testing.T) {
	hub := ws.NewHub(nil, ws.DefaultOptions())
	router := newTestRouter(t, NewHandler(hub, nil, nil, "test"), hub, nil)
	server := httptest.NewServer(router)
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	if resp.StatusCode != http.StatusSwitchingProtocols {
		t.Errorf("status = %d", resp.StatusCode)
	}

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(data) != `{"type":"constructionZones","data":[]}` {
		t.Errorf("first frame = %s", data)
	}
}
