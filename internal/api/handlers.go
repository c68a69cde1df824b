// RouteHub - Real-time Traffic and Construction Advisory Hub
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/routehub

package api

import (
	"net/http"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/routehub/internal/logging"
	"github.com/tomtom215/routehub/internal/models"
)

// ConnectionCounter reports live websocket connections.
type ConnectionCounter interface {
	Count() int
}

// ZoneCounter reports the size of the construction zone collection.
type ZoneCounter interface {
	Len() int
}

// TickSource reports when the generator last produced events.
type TickSource interface {
	LastTick() time.Time
}

// Handler serves the operational health endpoints.
type Handler struct {
	connections ConnectionCounter
	zones       ZoneCounter
	ticks       TickSource
	version     string
	startTime   time.Time
	ready       atomic.Bool
}

// NewHandler creates a handler. zones and ticks may be nil.
func NewHandler(connections ConnectionCounter, zones ZoneCounter, ticks TickSource, version string) *Handler {
	return &Handler{
		connections: connections,
		zones:       zones,
		ticks:       ticks,
		version:     version,
		startTime:   time.Now(),
	}
}

// SetReady flips the readiness check. The server marks itself ready once its
// services are running and not ready again when shutdown begins.
func (h *Handler) SetReady(ready bool) {
	h.ready.Store(ready)
}

func (h *Handler) status(label string) models.HealthStatus {
	status := models.HealthStatus{
		Status:  label,
		Version: h.version,
		Uptime:  time.Since(h.startTime).Seconds(),
	}
	if h.connections != nil {
		status.Connections = h.connections.Count()
	}
	if h.zones != nil {
		status.Zones = h.zones.Len()
	}
	if h.ticks != nil {
		if last := h.ticks.LastTick(); !last.IsZero() {
			status.LastTick = &last
		}
	}
	return status
}

// HealthLive returns 200 while the process is alive.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status: "success",
		Data: map[string]interface{}{
			"alive":  true,
			"uptime": time.Since(h.startTime).Seconds(),
		},
		Metadata: models.Metadata{Timestamp: time.Now()},
	})
}

// HealthReady returns 200 with hub statistics when the hub accepts
// connections and 503 otherwise.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	statusCode := http.StatusOK
	label := "ready"
	if !h.ready.Load() {
		statusCode = http.StatusServiceUnavailable
		label = "not_ready"
	}

	respondJSON(w, statusCode, &models.APIResponse{
		Status:   label,
		Data:     h.status(label),
		Metadata: models.Metadata{Timestamp: time.Now()},
	})
}

// Health returns hub statistics regardless of readiness.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	label := "healthy"
	if !h.ready.Load() {
		label = "starting"
	}
	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status:   "success",
		Data:     h.status(label),
		Metadata: models.Metadata{Timestamp: time.Now()},
	})
}

func respondJSON(w http.ResponseWriter, status int, response *models.APIResponse) {
	data, err := json.Marshal(response)
	if err != nil {
		logging.Error().Err(err).Msg("Failed to marshal JSON response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		logging.Error().Err(err).Msg("Failed to write JSON response")
	}
}

func respondError(w http.ResponseWriter, status int, code, message string, err error) {
	if err != nil {
		logging.Error().Str("code", code).Err(err).Msg("API Error")
	}

	respondJSON(w, status, &models.APIResponse{
		Status:   "error",
		Metadata: models.Metadata{Timestamp: time.Now()},
		Error: &models.APIError{
			Code:    code,
			Message: message,
		},
	})
}
