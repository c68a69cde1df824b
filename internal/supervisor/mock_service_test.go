// RouteHub - Real-time Traffic and Construction Advisory Hub
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/routehub

package supervisor

import (
	"context"
	"errors"
	"sync/atomic"
)

var errSimulatedCrash = errors.New("simulated crash")

// MockService stands in for the generator, hub or HTTP server in tree tests.
// It crashes the first failures times it is served, then runs until cancelled.
type MockService struct {
	name     string
	failures atomic.Int32
	starts   atomic.Int32
	stops    atomic.Int32
}

func NewMockService(name string) *MockService {
	return &MockService{name: name}
}

func (m *MockService) Serve(ctx context.Context) error {
	m.starts.Add(1)
	defer m.stops.Add(1)

	if m.failures.Add(-1) >= 0 {
		return errSimulatedCrash
	}
	<-ctx.Done()
	return ctx.Err()
}

// SetFailCount makes the next n runs crash immediately.
func (m *MockService) SetFailCount(n int) { m.failures.Store(int32(n)) }

func (m *MockService) StartCount() int32 { return m.starts.Load() }

func (m *MockService) StopCount() int32 { return m.stops.Load() }

func (m *MockService) String() string { return m.name }
