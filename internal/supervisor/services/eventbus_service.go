// RouteHub - Real-time Traffic and Construction Advisory Hub
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/routehub

package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/thejerf/suture/v4"

	"github.com/tomtom215/routehub/internal/eventbus"
)

// EventConsumer matches *eventbus.Bus's Run method.
type EventConsumer interface {
	Run(ctx context.Context, sink eventbus.Sink) error
}

// EventBusService forwards events from the bus to a sink (the hub).
type EventBusService struct {
	bus  EventConsumer
	sink eventbus.Sink
	name string
}

// NewEventBusService creates a new event bus consumer service.
func NewEventBusService(bus EventConsumer, sink eventbus.Sink) *EventBusService {
	return &EventBusService{
		bus:  bus,
		sink: sink,
		name: "event-bus",
	}
}

// Serve implements suture.Service. A closed bus cannot be resubscribed, so
// ErrClosed is reported as a permanent stop rather than a failure to restart.
func (s *EventBusService) Serve(ctx context.Context) error {
	err := s.bus.Run(ctx, s.sink)
	switch {
	case err == nil, errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	case errors.Is(err, eventbus.ErrClosed):
		return fmt.Errorf("%w: %w", suture.ErrDoNotRestart, err)
	default:
		return fmt.Errorf("event bus consumer failed: %w", err)
	}
}

// String implements fmt.Stringer for logging.
func (s *EventBusService) String() string {
	return s.name
}
