// RouteHub - Real-time Traffic and Construction Advisory Hub
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/routehub

/*
Package websocket is the server side of the advisory hub.

Key Components:

  - Registry: live connections, their travel mode, and admission (which sends
    the full construction zone collection to the new connection)
  - SubscriptionStore: at most one circular area of interest per connection
  - Broadcaster: traffic updates go to connections whose area contains the
    event; construction changes go to every open connection
  - Hub: owns the above, upgrades HTTP requests, dispatches inbound frames and
    serializes broadcasts in RunWithContext
  - Client: one gorilla/websocket connection with read and write goroutines

Each client has two goroutines:
  - readPump: reads frames, applies the per-connection rate limit, hands them to the hub
  - writePump: drains the send queue and keeps the connection alive with pings

Sends never block. A full queue or a closed client drops the frame; the
protocol makes no delivery guarantee.

Usage:

	hub := websocket.NewHub(zoneStore, websocket.DefaultOptions())
	go hub.RunWithContext(ctx)
	router.Get("/ws", hub.ServeWS)
*/
package websocket
