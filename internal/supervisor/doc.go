// RouteHub - Real-time Traffic and Construction Advisory Hub
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/routehub

/*
Package supervisor provides process supervision for RouteHub using suture v4.

The tree organizes services into three layers for failure isolation:

	RootSupervisor ("routehub")
	├── SimulationSupervisor ("simulation-layer")
	│   └── GeneratorService
	├── MessagingSupervisor ("messaging-layer")
	│   ├── HubService
	│   └── EventBusService (if hub.event_bus is enabled)
	└── APISupervisor ("api-layer")
	    └── HTTPServerService

Crashed services are restarted with suture's backoff; context cancellation
shuts the whole tree down. Supervisor events are logged through sutureslog
into the zerolog-backed slog handler from internal/logging.

Usage:

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	if err != nil {
	    logging.Fatal().Err(err).Msg("Failed to create supervisor tree")
	}
	tree.AddSimulationService(services.NewGeneratorService(generator))
	tree.AddMessagingService(services.NewHubService(hub))
	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))

	if err := tree.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
	    logging.Error().Err(err).Msg("Supervisor tree stopped")
	}
*/
package supervisor
