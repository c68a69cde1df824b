// RouteHub - Real-time Traffic and Construction Advisory Hub
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/routehub

// Package wsclient is a reconnecting client for the hub's websocket protocol.
//
// A Transport keeps one socket open, re-subscribes after every successful
// connect and reconnects with exponential backoff after a close:
//
//	delay = min(BaseDelay * 2^attempt, MaxDelay)
//
// After MaxAttempts consecutive failed reconnects it gives up and stays
// disconnected until Restart is called. Inbound events are folded into a local
// view (Zones, Traffic) and optionally passed to an event handler.
package wsclient

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"

	"github.com/tomtom215/routehub/internal/logging"
	"github.com/tomtom215/routehub/internal/metrics"
	"github.com/tomtom215/routehub/internal/models"
)

// Status is the transport's connection state.
type Status string

const (
	StatusConnecting   Status = "connecting"
	StatusConnected    Status = "connected"
	StatusDisconnected Status = "disconnected"
)

var allStatuses = []string{string(StatusConnecting), string(StatusConnected), string(StatusDisconnected)}

const (
	// Time allowed to write a frame to the hub.
	writeWait = 10 * time.Second

	// Time allowed for the close frame on teardown.
	closeWait = time.Second
)

// ErrNotConnected is returned by sends while no socket is open.
var ErrNotConnected = errors.New("websocket is not connected")

// Config controls reconnection and local state.
type Config struct {
	URL             string
	MaxAttempts     int
	BaseDelay       time.Duration
	MaxDelay        time.Duration
	DefaultRadiusKm float64
	TrafficLimit    int
}

// DefaultConfig returns the standard reconnect policy: 5 attempts, 1s doubling
// to at most 30s, a 10 km default subscription and the 10 newest traffic updates.
func DefaultConfig() Config {
	return Config{
		URL:             "ws://localhost:3857/ws",
		MaxAttempts:     5,
		BaseDelay:       time.Second,
		MaxDelay:        30 * time.Second,
		DefaultRadiusKm: 10,
		TrafficLimit:    10,
	}
}

// Backoff returns the reconnect delay before attempt (0-based).
func (c Config) Backoff(attempt int) time.Duration {
	delay := c.BaseDelay
	for i := 0; i < attempt; i++ {
		delay *= 2
		if delay >= c.MaxDelay {
			return c.MaxDelay
		}
	}
	if delay > c.MaxDelay {
		return c.MaxDelay
	}
	return delay
}

// Option customizes a Transport.
type Option func(*Transport)

// WithClock replaces the clock used for reconnect timers.
func WithClock(clock clockwork.Clock) Option {
	return func(t *Transport) { t.clock = clock }
}

// WithDialer replaces the socket dialer.
func WithDialer(d Dialer) Option {
	return func(t *Transport) { t.dialer = d }
}

// WithEventHandler registers fn to receive every decoded server message after
// local state has been updated. fn runs on the read goroutine.
func WithEventHandler(fn func(models.ServerMessage)) Option {
	return func(t *Transport) { t.onEvent = fn }
}

// WithStatusHandler registers fn to be called on every status change.
func WithStatusHandler(fn func(Status)) Option {
	return func(t *Transport) { t.onStatus = fn }
}

// Transport is a reconnecting websocket client.
type Transport struct {
	cfg      Config
	dialer   Dialer
	clock    clockwork.Clock
	onEvent  func(models.ServerMessage)
	onStatus func(Status)

	mu            sync.Mutex
	status        Status
	attempt       int
	gaveUp        bool
	closed        bool
	started       bool
	generation    uint64
	conn          Conn
	timer         clockwork.Timer
	cancelDial    context.CancelFunc
	lastSubscribe *models.SubscribeMessage

	stateMu sync.RWMutex
	zones   []models.ConstructionZone
	traffic []models.TrafficUpdate
}

// New creates a transport. Call Start to connect.
func New(cfg Config, opts ...Option) *Transport {
	def := DefaultConfig()
	if cfg.MaxAttempts < 0 {
		cfg.MaxAttempts = 0
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = def.BaseDelay
	}
	if cfg.MaxDelay <= 0 {
		cfg.MaxDelay = def.MaxDelay
	}
	if cfg.DefaultRadiusKm <= 0 {
		cfg.DefaultRadiusKm = def.DefaultRadiusKm
	}
	if cfg.TrafficLimit <= 0 {
		cfg.TrafficLimit = def.TrafficLimit
	}

	t := &Transport{
		cfg:    cfg,
		clock:  clockwork.NewRealClock(),
		status: StatusDisconnected,
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.dialer == nil {
		t.dialer = NewGorillaDialer(10*time.Second, nil)
	}
	return t
}

// Start begins connecting. It is a no-op after the first call or after Close.
func (t *Transport) Start() {
	t.mu.Lock()
	if t.started || t.closed {
		t.mu.Unlock()
		return
	}
	t.started = true
	t.mu.Unlock()
	t.connect()
}

// Restart re-initializes a transport that gave up: the attempt counter is
// reset and a new connection is started immediately. It is a no-op while
// connecting or connected, and after Close.
func (t *Transport) Restart() {
	t.mu.Lock()
	if t.closed || t.status != StatusDisconnected {
		t.mu.Unlock()
		return
	}
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
	t.started = true
	t.attempt = 0
	t.gaveUp = false
	t.mu.Unlock()

	logging.Info().Str("url", t.cfg.URL).Msg("Restarting websocket transport")
	t.connect()
}

// Close cancels any pending reconnect and closes the socket. The transport
// cannot be reused.
func (t *Transport) Close() {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return
	}
	t.closed = true
	t.generation++
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
	if t.cancelDial != nil {
		t.cancelDial()
		t.cancelDial = nil
	}
	conn := t.conn
	t.conn = nil
	changed := t.setStatusLocked(StatusDisconnected)
	t.mu.Unlock()

	// conn is detached, so nothing else writes to it now.
	if conn != nil {
		setWriteDeadline(conn, closeWait)
		_ = conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		_ = conn.Close()
	}
	if changed {
		t.notifyStatus(StatusDisconnected)
	}
}

// Status returns the current connection state.
func (t *Transport) Status() Status {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.status
}

// GaveUp reports whether reconnection stopped after MaxAttempts failures.
func (t *Transport) GaveUp() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.gaveUp
}

// Attempt returns the number of reconnects scheduled since the last
// successful connection.
func (t *Transport) Attempt() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.attempt
}

// SubscribeToArea asks the hub for traffic within radiusKm of center. A nil
// center lets the hub use its default. The subscription is re-sent after
// every reconnect.
func (t *Transport) SubscribeToArea(center *models.Coordinate, radiusKm float64) error {
	msg := models.NewSubscribeMessage(center, radiusKm)

	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.sendLocked(msg); err != nil {
		return err
	}
	t.lastSubscribe = msg
	return nil
}

// UpdateTransportMode tells the hub the travel mode of this client.
func (t *Transport) UpdateTransportMode(mode models.TransportMode) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.sendLocked(models.NewUpdateTransportModeMessage(mode))
}

func (t *Transport) sendLocked(msg models.ClientMessage) error {
	if t.conn == nil || t.status != StatusConnected {
		logging.Warn().Str("type", string(msg.ClientMessageType())).Msg("WebSocket is not connected")
		return ErrNotConnected
	}
	data, err := models.EncodeClientMessage(msg)
	if err != nil {
		return err
	}
	setWriteDeadline(t.conn, writeWait)
	if err := t.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		logging.Warn().Err(err).Str("type", string(msg.ClientMessageType())).Msg("Failed to send websocket message")
		return err
	}
	return nil
}

// Zones returns a copy of the local construction zone collection.
func (t *Transport) Zones() []models.ConstructionZone {
	t.stateMu.RLock()
	defer t.stateMu.RUnlock()
	out := make([]models.ConstructionZone, len(t.zones))
	for i, z := range t.zones {
		out[i] = z.Clone()
	}
	return out
}

// Traffic returns a copy of the local traffic updates, newest first.
func (t *Transport) Traffic() []models.TrafficUpdate {
	t.stateMu.RLock()
	defer t.stateMu.RUnlock()
	out := make([]models.TrafficUpdate, len(t.traffic))
	copy(out, t.traffic)
	return out
}

func (t *Transport) connect() {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return
	}
	t.timer = nil
	t.generation++
	gen := t.generation
	ctx, cancel := context.WithCancel(context.Background())
	t.cancelDial = cancel
	changed := t.setStatusLocked(StatusConnecting)
	t.mu.Unlock()

	if changed {
		t.notifyStatus(StatusConnecting)
	}

	go func() {
		conn, err := t.dialer.Dial(ctx, t.cfg.URL)
		t.handleDial(gen, conn, err)
	}()
}

func (t *Transport) handleDial(gen uint64, conn Conn, err error) {
	t.mu.Lock()
	if gen != t.generation || t.closed {
		t.mu.Unlock()
		if conn != nil {
			_ = conn.Close()
		}
		return
	}
	if t.cancelDial != nil {
		t.cancelDial()
		t.cancelDial = nil
	}
	if err != nil {
		t.mu.Unlock()
		logging.Warn().Err(err).Str("url", t.cfg.URL).Msg("WebSocket connection failed")
		t.handleClose(gen, err)
		return
	}

	t.conn = conn
	t.attempt = 0
	t.gaveUp = false
	t.setStatusLocked(StatusConnected)

	subscribe := t.lastSubscribe
	if subscribe == nil {
		subscribe = models.NewSubscribeMessage(nil, t.cfg.DefaultRadiusKm)
	}
	_ = t.sendLocked(subscribe)
	t.mu.Unlock()

	logging.Info().Str("url", t.cfg.URL).Msg("WebSocket connection established")
	t.notifyStatus(StatusConnected)

	go t.readLoop(gen, conn)
}

func (t *Transport) readLoop(gen uint64, conn Conn) {
	for {
		messageType, data, err := conn.ReadMessage()
		if err != nil {
			_ = conn.Close()
			t.handleClose(gen, err)
			return
		}
		if messageType != websocket.TextMessage {
			continue
		}
		t.dispatch(data)
	}
}

// handleClose moves to disconnected and schedules the next attempt, or gives up.
func (t *Transport) handleClose(gen uint64, cause error) {
	t.mu.Lock()
	if gen != t.generation || t.closed {
		t.mu.Unlock()
		return
	}
	t.conn = nil
	t.setStatusLocked(StatusDisconnected)

	event := logging.Info()
	var closeErr *websocket.CloseError
	if errors.As(cause, &closeErr) {
		reason := closeErr.Text
		if reason == "" {
			reason = "No reason provided"
		}
		event = event.Int("code", closeErr.Code).Str("reason", reason)
	} else if cause != nil {
		event = event.Str("reason", cause.Error())
	}
	event.Msg("WebSocket connection closed")

	if t.attempt >= t.cfg.MaxAttempts {
		t.gaveUp = true
		t.mu.Unlock()
		metrics.ClientGiveUps.Inc()
		logging.Warn().Int("max_attempts", t.cfg.MaxAttempts).Msg("Maximum reconnection attempts reached. Giving up.")
		t.notifyStatus(StatusDisconnected)
		return
	}

	delay := t.cfg.Backoff(t.attempt)
	t.attempt++
	attempt := t.attempt
	t.timer = t.clock.AfterFunc(delay, t.connect)
	t.mu.Unlock()

	metrics.ClientReconnectAttempts.Inc()
	logging.Info().
		Dur("delay", delay).
		Int("attempt", attempt).
		Int("max_attempts", t.cfg.MaxAttempts).
		Msg("Attempting to reconnect")
	t.notifyStatus(StatusDisconnected)
}

func (t *Transport) dispatch(data []byte) {
	msg, err := models.DecodeServerMessage(data)
	if err != nil {
		if errors.Is(err, models.ErrUnknownMessageType) {
			logging.Info().Err(err).Msg("Received unhandled message type")
		} else {
			logging.Warn().Err(err).Msg("Error parsing WebSocket message")
		}
		return
	}

	t.stateMu.Lock()
	switch m := msg.(type) {
	case models.ConstructionZonesMessage:
		t.zones = m.Zones
		logging.Debug().Int("zones", len(m.Zones)).Msg("Received construction zones")
	case models.TrafficUpdateMessage:
		t.traffic = append([]models.TrafficUpdate{m.Update}, t.traffic...)
		if len(t.traffic) > t.cfg.TrafficLimit {
			t.traffic = t.traffic[:t.cfg.TrafficLimit]
		}
		logging.Debug().Str("id", m.Update.ID).Msg("Received traffic update")
	case models.ConstructionUpdateMessage:
		t.zones, _ = models.UpsertZone(t.zones, m.Zone)
		logging.Debug().Str("id", m.Zone.ID).Msg("Received construction update")
	default:
		logging.Info().Str("type", string(msg.ServerMessageType())).Msg("Received unhandled message type")
	}
	t.stateMu.Unlock()

	if t.onEvent != nil {
		t.onEvent(msg)
	}
}

// deadlineSetter is implemented by *websocket.Conn.
type deadlineSetter interface {
	SetWriteDeadline(t time.Time) error
}

func setWriteDeadline(conn Conn, d time.Duration) {
	if ds, ok := conn.(deadlineSetter); ok {
		_ = ds.SetWriteDeadline(time.Now().Add(d))
	}
}

// setStatusLocked records s and reports whether it changed. Caller holds t.mu.
func (t *Transport) setStatusLocked(s Status) bool {
	if t.status == s {
		return false
	}
	t.status = s
	metrics.SetClientStatus(string(s), allStatuses)
	return true
}

func (t *Transport) notifyStatus(s Status) {
	if t.onStatus != nil {
		t.onStatus(s)
	}
}
