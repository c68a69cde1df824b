// RouteHub - Real-time Traffic and Construction Advisory Hub
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/routehub

package models

import "time"

// APIResponse is the envelope for the operational HTTP endpoints.
//
//	{
//	  "status": "success",
//	  "data": {"status": "ok", "connections": 3},
//	  "metadata": {"timestamp": "2026-10-18T12:00:00Z"}
//	}
type APIResponse struct {
	Status   string      `json:"status"`
	Data     interface{} `json:"data,omitempty"`
	Metadata Metadata    `json:"metadata"`
	Error    *APIError   `json:"error,omitempty"`
}

// Metadata carries the server time the response was produced.
type Metadata struct {
	Timestamp time.Time `json:"timestamp"`
}

// APIError is a machine-readable error code with a human-readable message.
type APIError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// HealthStatus is the payload of the liveness and readiness endpoints.
type HealthStatus struct {
	Status      string     `json:"status"`
	Version     string     `json:"version,omitempty"`
	Uptime      float64    `json:"uptime_seconds"`
	Connections int        `json:"connections"`
	Zones       int        `json:"construction_zones"`
	LastTick    *time.Time `json:"last_tick,omitempty"`
}
