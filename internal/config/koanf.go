// RouteHub - Real-time Traffic and Construction Advisory Hub
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/routehub

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/tomtom215/routehub/internal/geo"
)

// DefaultConfigPaths lists the paths searched for a config file, in priority order.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/routehub/config.yaml",
	"/etc/routehub/config.yml",
}

// ConfigPathEnvVar overrides the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:             "0.0.0.0",
			Port:             3857,
			Timeout:          30 * time.Second,
			Environment:      "development",
			CORSOrigins:      []string{"*"},
			UpgradeRateLimit: 60,
		},
		Hub: HubConfig{
			TickInterval:            15 * time.Second,
			TrafficBufferSize:       20,
			ConstructionProbability: 0.1,
			DefaultCenterLon:        78.5,
			DefaultCenterLat:        17.4,
			FallbackBox: geo.BoundingBox{
				MinLon:  78.4,
				MinLat:  17.4,
				LonSpan: 0.2,
				LatSpan: 0.1,
			},
			SendBuffer:     256,
			InboundRate:    10,
			InboundBurst:   20,
			EventBus:       false,
			EventBusBuffer: 64,
		},
		Client: ClientConfig{
			URL:              "ws://localhost:3857/ws",
			MaxAttempts:      5,
			BaseDelay:        time.Second,
			MaxDelay:         30 * time.Second,
			DefaultRadiusKm:  10,
			HandshakeTimeout: 10 * time.Second,
			TrafficLimit:     10,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// LoadWithKoanf loads configuration in three layers, each overriding the last:
//  1. built-in defaults
//  2. the first YAML file found (CONFIG_PATH, then DefaultConfigPaths)
//  3. mapped environment variables
func LoadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

var sliceConfigPaths = []string{
	"server.cors_origins",
}

// processSliceFields splits comma-separated env values for slice-typed settings.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok || strVal == "" {
			continue
		}
		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) > 0 {
			if err := k.Set(path, trimmed); err != nil {
				return fmt.Errorf("failed to set %s: %w", path, err)
			}
		}
	}
	return nil
}

// envMappings maps environment variable names (lowercased) to koanf paths.
// Unmapped variables are ignored.
var envMappings = map[string]string{
	"http_host":          "server.host",
	"http_port":          "server.port",
	"http_timeout":       "server.timeout",
	"environment":        "server.environment",
	"cors_origins":       "server.cors_origins",
	"ws_upgrade_rate":    "server.upgrade_rate_limit",
	"hub_tick_interval":  "hub.tick_interval",
	"hub_traffic_buffer": "hub.traffic_buffer_size",
	"hub_construction_p": "hub.construction_probability",
	"hub_center_lon":     "hub.default_center_lon",
	"hub_center_lat":     "hub.default_center_lat",
	"hub_seed":           "hub.seed",
	"hub_send_buffer":    "hub.send_buffer",
	"hub_inbound_rate":   "hub.inbound_rate",
	"hub_inbound_burst":  "hub.inbound_burst",
	"hub_event_bus":      "hub.event_bus",
	"hub_event_buffer":   "hub.event_bus_buffer",
	"client_url":         "client.url",
	"client_attempts":    "client.max_attempts",
	"client_base_delay":  "client.base_delay",
	"client_max_delay":   "client.max_delay",
	"client_radius_km":   "client.default_radius_km",
	"client_handshake":   "client.handshake_timeout",
	"log_level":          "logging.level",
	"log_format":         "logging.format",
	"log_caller":         "logging.caller",
}

func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}
