// RouteHub - Real-time Traffic and Construction Advisory Hub
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/routehub

package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/tomtom215/routehub/internal/api"
	"github.com/tomtom215/routehub/internal/config"
	"github.com/tomtom215/routehub/internal/logging"
	"github.com/tomtom215/routehub/internal/simulator"
	"github.com/tomtom215/routehub/internal/supervisor"
	"github.com/tomtom215/routehub/internal/supervisor/services"
	ws "github.com/tomtom215/routehub/internal/websocket"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	cfg, err := config.LoadWithKoanf()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
		Output:    os.Stderr,
	})

	logging.Info().Str("version", version).Msg("Starting RouteHub with supervisor tree")
	logging.Info().
		Str("addr", cfg.Server.Addr()).
		Dur("tick_interval", cfg.Hub.TickInterval).
		Str("default_center", cfg.Hub.DefaultCenter().String()).
		Bool("event_bus", cfg.Hub.EventBus).
		Msg("Configuration loaded")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		FailureThreshold: 5,
		FailureBackoff:   15 * time.Second,
		ShutdownTimeout:  10 * time.Second,
	})
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create supervisor tree")
	}

	zones := simulator.NewZoneStore(simulator.SeedZones())
	traffic := simulator.NewTrafficBuffer(cfg.Hub.TrafficBufferSize)
	hub := ws.NewHub(zones, hubOptions(cfg))
	logging.Info().Int("zones", zones.Len()).Msg("Construction zones seeded")

	sink, bus := eventSink(cfg, hub, tree)
	if bus != nil {
		defer func() {
			if err := bus.Close(); err != nil {
				logging.Error().Err(err).Msg("Error closing event bus")
			}
		}()
	}

	generator := simulator.NewGenerator(
		generatorConfig(cfg),
		simulator.NewRandom(cfg.Hub.Seed),
		clockwork.NewRealClock(),
		hub,
		hub,
		sink,
		zones,
		traffic,
	)

	handler := api.NewHandler(hub, zones, generator, version)
	router := api.NewRouter(handler, hub, middlewareConfig(cfg))
	server := newHTTPServer(cfg, router.SetupChi())

	tree.AddSimulationService(services.NewGeneratorService(generator))
	tree.AddMessagingService(services.NewHubService(hub))

	httpService := services.NewHTTPServerService(server, 10*time.Second)
	httpService.OnReadyChange(handler.SetReady)
	tree.AddAPIService(httpService)
	logging.Info().Str("addr", server.Addr).Msg("HTTP server service added")

	logging.Info().Msg("Starting supervisor tree...")
	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("Received shutdown signal, waiting for supervisor to finish...")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	if len(unstopped) > 0 {
		logging.Warn().Int("count", len(unstopped)).Msg("Services failed to stop within timeout")
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("Service failed to stop")
		}
	}

	logging.Info().Msg("Application stopped gracefully")
}
