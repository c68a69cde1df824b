// RouteHub - Real-time Traffic and Construction Advisory Hub
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/routehub

// Package config loads RouteHub configuration from defaults, an optional YAML
// file and environment variables, in increasing order of precedence.
//
//	cfg, err := config.LoadWithKoanf()
//	if err != nil {
//	    logging.Fatal().Err(err).Msg("Failed to load configuration")
//	}
//
// A minimal config.yaml:
//
//	server:
//	  port: 3857
//	hub:
//	  tick_interval: 15s
//	  construction_probability: 0.1
//	logging:
//	  level: debug
//	  format: console
package config

import (
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/tomtom215/routehub/internal/geo"
	"github.com/tomtom215/routehub/internal/models"
)

// Config is the complete RouteHub configuration.
type Config struct {
	Server  ServerConfig  `koanf:"server"`
	Hub     HubConfig     `koanf:"hub"`
	Client  ClientConfig  `koanf:"client"`
	Logging LoggingConfig `koanf:"logging"`
}

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	Host        string        `koanf:"host" validate:"omitempty,ip|hostname"`
	Port        int           `koanf:"port" validate:"gte=1,lte=65535"`
	Timeout     time.Duration `koanf:"timeout" validate:"gt=0"`
	Environment string        `koanf:"environment" validate:"oneof=development staging production"`
	CORSOrigins []string      `koanf:"cors_origins"`

	// UpgradeRateLimit caps websocket upgrade requests per client IP per minute. 0 disables it.
	UpgradeRateLimit int `koanf:"upgrade_rate_limit" validate:"gte=0"`
}

// Addr returns the host:port listen address.
func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// HubConfig controls the event hub and the synthetic generator.
type HubConfig struct {
	TickInterval            time.Duration `koanf:"tick_interval" validate:"gt=0"`
	TrafficBufferSize       int           `koanf:"traffic_buffer_size" validate:"gte=1"`
	ConstructionProbability float64       `koanf:"construction_probability" validate:"gte=0,lte=1"`

	// DefaultCenterLon and DefaultCenterLat are used for subscribe messages without a center.
	DefaultCenterLon float64 `koanf:"default_center_lon" validate:"gte=-180,lte=180"`
	DefaultCenterLat float64 `koanf:"default_center_lat" validate:"gte=-90,lte=90"`

	// FallbackBox is sampled for event locations when no connection has a subscription.
	FallbackBox geo.BoundingBox `koanf:"fallback_box"`

	// Seed fixes the generator's random source. 0 seeds from the clock.
	Seed uint64 `koanf:"seed"`

	SendBuffer   int     `koanf:"send_buffer" validate:"gte=1"`
	InboundRate  float64 `koanf:"inbound_rate" validate:"gte=0"`
	InboundBurst int     `koanf:"inbound_burst" validate:"gte=1"`

	// EventBus routes generated events through an in-process pub/sub before broadcast.
	EventBus       bool  `koanf:"event_bus"`
	EventBusBuffer int64 `koanf:"event_bus_buffer" validate:"gte=0"`
}

// DefaultCenter returns the configured default subscription center.
func (h HubConfig) DefaultCenter() models.Coordinate {
	return models.NewCoordinate(h.DefaultCenterLon, h.DefaultCenterLat)
}

// ClientConfig controls the reconnecting client transport used by cmd/routewatch.
type ClientConfig struct {
	URL              string        `koanf:"url" validate:"required,url"`
	MaxAttempts      int           `koanf:"max_attempts" validate:"gte=0"`
	BaseDelay        time.Duration `koanf:"base_delay" validate:"gt=0"`
	MaxDelay         time.Duration `koanf:"max_delay" validate:"gtefield=BaseDelay"`
	DefaultRadiusKm  float64       `koanf:"default_radius_km" validate:"gt=0"`
	HandshakeTimeout time.Duration `koanf:"handshake_timeout" validate:"gt=0"`
	TrafficLimit     int           `koanf:"traffic_limit" validate:"gte=1"`
}

// LoggingConfig mirrors logging.Config for the loadable fields.
type LoggingConfig struct {
	// Level is the minimum log level: trace, debug, info, warn, error.
	Level string `koanf:"level" validate:"oneof=trace debug info warn warning error fatal panic disabled"`

	// Format is json or console.
	Format string `koanf:"format" validate:"oneof=json console"`

	Caller bool `koanf:"caller"`
}

// String summarises the settings worth printing at startup.
func (c *Config) String() string {
	return fmt.Sprintf("addr=%s env=%s tick=%s event_bus=%t log=%s/%s",
		c.Server.Addr(), c.Server.Environment, c.Hub.TickInterval, c.Hub.EventBus,
		c.Logging.Level, c.Logging.Format)
}
