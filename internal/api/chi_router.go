// RouteHub - Real-time Traffic and Construction Advisory Hub
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/routehub

// Package api provides the HTTP surface of the hub: the websocket endpoint,
// health checks and Prometheus metrics, routed with chi.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/routehub/internal/middleware"
)

// WebSocketServer upgrades requests to hub connections.
type WebSocketServer interface {
	ServeWS(w http.ResponseWriter, r *http.Request)
}

// Router wires handlers and middleware into a chi router.
type Router struct {
	handler       *Handler
	ws            WebSocketServer
	chiMiddleware *ChiMiddleware
}

// NewRouter creates a router. A nil config uses DefaultChiMiddlewareConfig.
func NewRouter(handler *Handler, ws WebSocketServer, config *ChiMiddlewareConfig) *Router {
	return &Router{
		handler:       handler,
		ws:            ws,
		chiMiddleware: NewChiMiddleware(config),
	}
}

// chiMiddleware adapts http.HandlerFunc middleware to Chi's func(http.Handler) http.Handler.
func chiMiddleware(mw func(http.HandlerFunc) http.HandlerFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return mw(next.ServeHTTP)
	}
}

// SetupChi configures all HTTP routes.
func (router *Router) SetupChi() http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware(middleware.RequestID))
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(router.chiMiddleware.CORS())

	r.Route("/api/v1/health", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimitHealth())
		r.Use(APISecurityHeaders())
		r.Get("/live", router.handler.HealthLive)
		r.Get("/ready", router.handler.HealthReady)
		r.Get("/", router.handler.Health)
	})

	r.Group(func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimitUpgrade())
		r.Use(chiMiddleware(middleware.PrometheusMetrics))
		r.Get("/ws", router.ws.ServeWS)
	})

	r.Handle("/metrics", promhttp.Handler())

	return r
}
