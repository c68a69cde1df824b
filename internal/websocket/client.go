// RouteHub - Real-time Traffic and Construction Advisory Hub
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/routehub

package websocket

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/tomtom215/routehub/internal/logging"
	"github.com/tomtom215/routehub/internal/metrics"
	"github.com/tomtom215/routehub/internal/models"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 16 * 1024
)

// Client is a middleman between the websocket connection and the hub.
// It implements Conn.
type Client struct {
	id      ConnectionID
	hub     *Hub
	conn    *websocket.Conn
	send    chan models.ServerMessage
	limiter *rate.Limiter

	mu     sync.Mutex
	closed bool
}

// NewClient creates a client with a send queue of sendBuffer frames.
func NewClient(hub *Hub, conn *websocket.Conn, sendBuffer int, limiter *rate.Limiter) *Client {
	if sendBuffer <= 0 {
		sendBuffer = 256
	}
	return &Client{
		hub:     hub,
		conn:    conn,
		send:    make(chan models.ServerMessage, sendBuffer),
		limiter: limiter,
	}
}

// ID returns the connection ID assigned at admission.
func (c *Client) ID() ConnectionID {
	return c.id
}

// Send queues msg for the write pump. It never blocks: a closed client or a
// full queue drops the frame.
func (c *Client) Send(msg models.ServerMessage) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- msg:
		return true
	default:
		logging.Warn().
			Str("type", string(msg.ServerMessageType())).
			Msg("websocket send queue full, dropping message")
		return false
	}
}

// IsOpen reports whether the client still accepts frames.
func (c *Client) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.closed
}

// Close stops the write pump, which sends a close frame and closes the socket.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

// readPump pumps frames from the websocket connection to the hub
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister(c)
		_ = c.conn.Close() // best-effort cleanup
	}()

	c.conn.SetReadLimit(maxMessageSize)
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		logging.Error().Err(err).Msg("failed to set read deadline")
		return
	}

	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		messageType, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				metrics.WSErrors.WithLabelValues("read").Inc()
				logging.Error().Err(err).Msg("unexpected websocket close error")
			}
			break
		}
		if messageType != websocket.TextMessage {
			continue
		}
		if c.limiter != nil && !c.limiter.Allow() {
			metrics.WSErrors.WithLabelValues("rate_limited").Inc()
			logging.Debug().Uint64("connection_id", uint64(c.id)).Msg("inbound websocket message rate limited")
			continue
		}
		c.hub.HandleInbound(c.id, data)
	}
}

// writePump pumps frames from the send queue to the websocket connection
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close() // best-effort cleanup
	}()

	for {
		select {
		case msg, ok := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				logging.Error().Err(err).Msg("failed to set write deadline")
				return
			}

			if !ok {
				// the hub closed the queue
				_ = c.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}

			data, err := models.EncodeServerMessage(msg)
			if err != nil {
				metrics.WSErrors.WithLabelValues("encode").Inc()
				logging.Error().Err(err).Str("type", string(msg.ServerMessageType())).Msg("failed to encode message")
				continue
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				metrics.WSErrors.WithLabelValues("write").Inc()
				logging.Error().Err(err).Msg("failed to write message")
				return
			}

		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				logging.Error().Err(err).Msg("failed to set write deadline for ping")
				return
			}

			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Start begins reading and writing for the client
func (c *Client) Start() {
	go c.writePump()
	go c.readPump()
}
