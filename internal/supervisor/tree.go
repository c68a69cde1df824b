// RouteHub - Real-time Traffic and Construction Advisory Hub
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/routehub

package supervisor

import (
	"context"
	"log/slog"
	"time"

	"github.com/thejerf/suture/v4"
	"github.com/thejerf/sutureslog"
)

// TreeConfig holds the restart policy applied to each layer of the tree.
//
// Every layer gets its own copy of the policy, so failures are counted and
// backed off per layer. A generator that keeps crashing exhausts the
// simulation layer's threshold and sits out FailureBackoff on its own.
type TreeConfig struct {
	// FailureThreshold is the number of failures a layer absorbs before it
	// backs off. Default: 5
	FailureThreshold float64

	// FailureDecay is the rate at which a layer's failure count decays in
	// seconds. Default: 30
	FailureDecay float64

	// FailureBackoff is how long a layer waits once its threshold is
	// exceeded. Default: 15s
	FailureBackoff time.Duration

	// ShutdownTimeout bounds how long each service gets to return after its
	// context is canceled. The HTTP server's drain must fit inside it.
	// Default: 10s
	ShutdownTimeout time.Duration
}

// DefaultTreeConfig returns suture's built-in defaults.
func DefaultTreeConfig() TreeConfig {
	return TreeConfig{
		FailureThreshold: 5.0,
		FailureDecay:     30.0,
		FailureBackoff:   15 * time.Second,
		ShutdownTimeout:  10 * time.Second,
	}
}

func (c TreeConfig) withDefaults() TreeConfig {
	d := DefaultTreeConfig()
	if c.FailureThreshold == 0 {
		c.FailureThreshold = d.FailureThreshold
	}
	if c.FailureDecay == 0 {
		c.FailureDecay = d.FailureDecay
	}
	if c.FailureBackoff == 0 {
		c.FailureBackoff = d.FailureBackoff
	}
	if c.ShutdownTimeout == 0 {
		c.ShutdownTimeout = d.ShutdownTimeout
	}
	return c
}

func (c TreeConfig) spec(hook suture.EventHook) suture.Spec {
	return suture.Spec{
		EventHook:        hook,
		FailureThreshold: c.FailureThreshold,
		FailureDecay:     c.FailureDecay,
		FailureBackoff:   c.FailureBackoff,
		Timeout:          c.ShutdownTimeout,
	}
}

// SupervisorTree runs RouteHub's long-lived goroutines under three sibling
// supervisors:
//
//   - simulation-layer runs the generator that emits a traffic or
//     construction update every interval and upserts zones into the shared
//     store.
//   - messaging-layer runs the hub's broadcast loop and, when enabled, the
//     event bus consumer feeding it.
//   - api-layer runs the HTTP server that upgrades websocket clients and
//     answers health checks.
//
// The generator is the only component whose failures depend on generated
// data, so it sits in a layer of its own. When it crash-loops, the simulation
// layer backs off while the hub keeps serving sockets and the health
// endpoints keep answering. A restarted hub loop reuses the same connection
// registry: only cancellation of the tree's context makes the hub close its
// clients.
type SupervisorTree struct {
	root       *suture.Supervisor
	simulation *suture.Supervisor
	messaging  *suture.Supervisor
	api        *suture.Supervisor
	logger     *slog.Logger
	config     TreeConfig
}

// NewSupervisorTree builds the root supervisor and its three layers. Zero
// fields in config fall back to DefaultTreeConfig.
func NewSupervisorTree(logger *slog.Logger, config TreeConfig) (*SupervisorTree, error) {
	config = config.withDefaults()

	// MustHook has a pointer receiver.
	handler := &sutureslog.Handler{Logger: logger}

	// layers inherit the root's EventHook when added to it
	root := suture.New("routehub", config.spec(handler.MustHook()))
	t := &SupervisorTree{
		root:       root,
		simulation: suture.New("simulation-layer", config.spec(nil)),
		messaging:  suture.New("messaging-layer", config.spec(nil)),
		api:        suture.New("api-layer", config.spec(nil)),
		logger:     logger,
		config:     config,
	}
	root.Add(t.simulation)
	root.Add(t.messaging)
	root.Add(t.api)
	return t, nil
}

// Root returns the root supervisor.
func (t *SupervisorTree) Root() *suture.Supervisor {
	return t.root
}

// AddSimulationService adds a service to the simulation layer. Only the
// update generator belongs here.
func (t *SupervisorTree) AddSimulationService(svc suture.Service) suture.ServiceToken {
	return t.simulation.Add(svc)
}

// AddMessagingService adds a service to the messaging layer: the hub loop and
// anything that feeds it broadcasts.
func (t *SupervisorTree) AddMessagingService(svc suture.Service) suture.ServiceToken {
	return t.messaging.Add(svc)
}

// AddAPIService adds a service to the API layer.
func (t *SupervisorTree) AddAPIService(svc suture.Service) suture.ServiceToken {
	return t.api.Add(svc)
}

// Serve runs the tree until ctx is canceled.
func (t *SupervisorTree) Serve(ctx context.Context) error {
	return t.root.Serve(ctx)
}

// ServeBackground runs the tree in a background goroutine. The returned
// channel receives the tree's error, or nil, once it stops.
func (t *SupervisorTree) ServeBackground(ctx context.Context) <-chan error {
	return t.root.ServeBackground(ctx)
}

// UnstoppedServiceReport lists services that did not return within
// ShutdownTimeout, typically an HTTP server still draining.
func (t *SupervisorTree) UnstoppedServiceReport() ([]suture.UnstoppedService, error) {
	return t.root.UnstoppedServiceReport()
}
