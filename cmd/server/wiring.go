// RouteHub - Real-time Traffic and Construction Advisory Hub
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/routehub

package main

import (
	"net/http"
	"time"

	"github.com/tomtom215/routehub/internal/api"
	"github.com/tomtom215/routehub/internal/config"
	"github.com/tomtom215/routehub/internal/eventbus"
	"github.com/tomtom215/routehub/internal/logging"
	"github.com/tomtom215/routehub/internal/simulator"
	"github.com/tomtom215/routehub/internal/supervisor"
	"github.com/tomtom215/routehub/internal/supervisor/services"
	ws "github.com/tomtom215/routehub/internal/websocket"
)

func hubOptions(cfg *config.Config) ws.Options {
	opts := ws.DefaultOptions()
	opts.DefaultCenter = cfg.Hub.DefaultCenter()
	opts.SendBuffer = cfg.Hub.SendBuffer
	opts.InboundRate = cfg.Hub.InboundRate
	opts.InboundBurst = cfg.Hub.InboundBurst
	if len(cfg.Server.CORSOrigins) > 0 {
		opts.AllowedOrigins = cfg.Server.CORSOrigins
	}
	return opts
}

func generatorConfig(cfg *config.Config) simulator.Config {
	return simulator.Config{
		Interval:                cfg.Hub.TickInterval,
		ConstructionProbability: cfg.Hub.ConstructionProbability,
		FallbackBox:             cfg.Hub.FallbackBox,
	}
}

func middlewareConfig(cfg *config.Config) *api.ChiMiddlewareConfig {
	mw := api.DefaultChiMiddlewareConfig()
	mw.CORSAllowedOrigins = cfg.Server.CORSOrigins
	mw.UpgradeRequests = cfg.Server.UpgradeRateLimit
	return mw
}

func newHTTPServer(cfg *config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           handler,
		ReadHeaderTimeout: cfg.Server.Timeout,
		// Upgraded websocket connections outlive any write timeout.
		IdleTimeout: 60 * time.Second,
	}
}

// eventSink returns where the generator publishes. With the event bus enabled
// events travel through the bus and a messaging-layer consumer forwards them to
// the hub; otherwise the generator publishes to the hub directly.
func eventSink(cfg *config.Config, hub *ws.Hub, tree *supervisor.SupervisorTree) (simulator.EventSink, *eventbus.Bus) {
	if !cfg.Hub.EventBus {
		logging.Info().Msg("Event bus disabled, generator publishes to the hub directly")
		return hub, nil
	}

	bus := eventbus.New(eventbus.Config{OutputChannelBuffer: cfg.Hub.EventBusBuffer})
	tree.AddMessagingService(services.NewEventBusService(bus, hub))
	logging.Info().
		Int64("buffer", cfg.Hub.EventBusBuffer).
		Msg("Event bus added to supervisor tree (messaging layer)")
	return bus, bus
}
