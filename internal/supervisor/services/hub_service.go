// RouteHub - Real-time Traffic and Construction Advisory Hub
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/routehub

package services

import (
	"context"
)

// ContextHub matches *websocket.Hub's RunWithContext method.
type ContextHub interface {
	RunWithContext(ctx context.Context) error
}

// HubService runs the websocket hub's broadcast loop as a supervised service.
// On shutdown the hub closes every connection before returning.
type HubService struct {
	hub  ContextHub
	name string
}

// NewHubService creates a new hub service wrapper.
func NewHubService(hub ContextHub) *HubService {
	return &HubService{
		hub:  hub,
		name: "websocket-hub",
	}
}

// Serve implements suture.Service.
func (s *HubService) Serve(ctx context.Context) error {
	return s.hub.RunWithContext(ctx)
}

// String implements fmt.Stringer for logging.
func (s *HubService) String() string {
	return s.name
}
