// RouteHub - Real-time Traffic and Construction Advisory Hub
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/routehub

package services

import (
	"context"
)

// Runner matches *simulator.Generator's Run method.
type Runner interface {
	Run(ctx context.Context) error
}

// GeneratorService runs the update generator for the process lifetime.
type GeneratorService struct {
	generator Runner
	name      string
}

// NewGeneratorService creates a new generator service wrapper.
func NewGeneratorService(generator Runner) *GeneratorService {
	return &GeneratorService{
		generator: generator,
		name:      "update-generator",
	}
}

// Serve implements suture.Service.
func (s *GeneratorService) Serve(ctx context.Context) error {
	return s.generator.Run(ctx)
}

// String implements fmt.Stringer for logging.
func (s *GeneratorService) String() string {
	return s.name
}
