// RouteHub - Real-time Traffic and Construction Advisory Hub
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/routehub

package simulator

import (
	"sync"

	"github.com/tomtom215/routehub/internal/models"
)

// DefaultTrafficBufferSize is the number of recent traffic updates retained.
const DefaultTrafficBufferSize = 20

// TrafficBuffer keeps the newest traffic updates, newest first.
type TrafficBuffer struct {
	mu    sync.RWMutex
	size  int
	items []models.TrafficUpdate
}

// NewTrafficBuffer creates a buffer holding at most size updates.
func NewTrafficBuffer(size int) *TrafficBuffer {
	if size <= 0 {
		size = DefaultTrafficBufferSize
	}
	return &TrafficBuffer{size: size, items: make([]models.TrafficUpdate, 0, size)}
}

// Push inserts u at the front and drops the oldest entries beyond capacity.
func (b *TrafficBuffer) Push(u models.TrafficUpdate) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.items) < b.size {
		b.items = append(b.items, models.TrafficUpdate{})
	}
	copy(b.items[1:], b.items[:len(b.items)-1])
	b.items[0] = u
}

// Snapshot returns a copy of the buffered updates, newest first.
func (b *TrafficBuffer) Snapshot() []models.TrafficUpdate {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]models.TrafficUpdate, len(b.items))
	copy(out, b.items)
	return out
}

// Len returns the number of buffered updates.
func (b *TrafficBuffer) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.items)
}
