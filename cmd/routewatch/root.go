// RouteHub - Real-time Traffic and Construction Advisory Hub
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/routehub

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/tomtom215/routehub/internal/config"
	"github.com/tomtom215/routehub/internal/logging"
	"github.com/tomtom215/routehub/internal/models"
	"github.com/tomtom215/routehub/internal/wsclient"
)

var errGaveUp = errors.New("gave up reconnecting")

type watchFlags struct {
	url        string
	lon, lat   float64
	radius     float64
	mode       string
	duration   time.Duration
	maxRetries int
	logLevel   string
	logFormat  string
}

func newRootCmd() *cobra.Command {
	var f watchFlags

	cmd := &cobra.Command{
		Use:           "routewatch",
		Short:         "Subscribe to a RouteHub server and log live advisories",
		Long:          `routewatch opens a websocket to a RouteHub server, subscribes to an area and logs every traffic and construction advisory it receives, reconnecting with exponential backoff when the connection drops.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.LoadWithKoanf()
			if err != nil {
				return fmt.Errorf("load configuration: %w", err)
			}
			applyFlags(cmd, &f, cfg)

			logging.Init(logging.Config{
				Level:     f.logLevel,
				Format:    f.logFormat,
				Timestamp: true,
				Output:    os.Stderr,
			})

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			if f.duration > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, f.duration)
				defer cancel()
			}

			err = runWatch(ctx, cmd, &f, transportConfig(cfg, &f), nil)
			if err != nil {
				logging.Error().Err(err).Msg("Watch failed")
			}
			return err
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&f.url, "url", "", "hub websocket URL (default from CLIENT_URL or config)")
	flags.Float64Var(&f.lon, "lon", 0, "subscription center longitude")
	flags.Float64Var(&f.lat, "lat", 0, "subscription center latitude")
	flags.Float64Var(&f.radius, "radius", 0, "subscription radius in km (default from config)")
	flags.StringVar(&f.mode, "mode", "", "transport mode: driving, walking, cycling or transit")
	flags.DurationVar(&f.duration, "duration", 0, "stop after this long (0 runs until interrupted)")
	flags.IntVar(&f.maxRetries, "max-attempts", -1, "reconnect attempts before giving up (default from config)")
	flags.StringVar(&f.logLevel, "log-level", "", "log level (default from config)")
	flags.StringVar(&f.logFormat, "log-format", "console", "log format: json or console")
	return cmd
}

// applyFlags fills unset flags from the loaded configuration.
func applyFlags(cmd *cobra.Command, f *watchFlags, cfg *config.Config) {
	if f.url == "" {
		f.url = cfg.Client.URL
	}
	if f.radius <= 0 {
		f.radius = cfg.Client.DefaultRadiusKm
	}
	if f.maxRetries < 0 {
		f.maxRetries = cfg.Client.MaxAttempts
	}
	if f.logLevel == "" {
		f.logLevel = cfg.Logging.Level
	}
	if !cmd.Flags().Changed("lon") && !cmd.Flags().Changed("lat") {
		f.lon, f.lat = cfg.Hub.DefaultCenterLon, cfg.Hub.DefaultCenterLat
	}
}

func transportConfig(cfg *config.Config, f *watchFlags) wsclient.Config {
	return wsclient.Config{
		URL:             f.url,
		MaxAttempts:     f.maxRetries,
		BaseDelay:       cfg.Client.BaseDelay,
		MaxDelay:        cfg.Client.MaxDelay,
		DefaultRadiusKm: f.radius,
		TrafficLimit:    cfg.Client.TrafficLimit,
	}
}

// runWatch drives a transport until ctx ends or it gives up. The area and mode
// are sent on every connect so they survive reconnects.
func runWatch(ctx context.Context, cmd *cobra.Command, f *watchFlags, tcfg wsclient.Config, opts []wsclient.Option) error {
	var mode models.TransportMode
	if f.mode != "" {
		m, ok := models.ParseTransportMode(f.mode)
		if !ok {
			return fmt.Errorf("unknown transport mode %q", f.mode)
		}
		mode = m
	}
	center := models.NewCoordinate(f.lon, f.lat)
	if !center.Valid() {
		return fmt.Errorf("invalid center %s", center)
	}

	statuses := make(chan wsclient.Status, 16)
	opts = append(opts,
		wsclient.WithStatusHandler(func(s wsclient.Status) {
			select {
			case statuses <- s:
			default:
			}
		}),
		wsclient.WithEventHandler(func(msg models.ServerMessage) {
			logEvent(cmd, msg)
		}),
	)
	transport := wsclient.New(tcfg, opts...)
	defer transport.Close()
	transport.Start()

	for {
		select {
		case <-ctx.Done():
			logging.Info().
				Int("zones", len(transport.Zones())).
				Int("traffic", len(transport.Traffic())).
				Msg("Watch stopped")
			return nil
		case s := <-statuses:
			switch s {
			case wsclient.StatusConnected:
				if err := transport.SubscribeToArea(&center, f.radius); err != nil {
					logging.Warn().Err(err).Msg("Subscribe failed")
				}
				if mode != "" {
					if err := transport.UpdateTransportMode(mode); err != nil {
						logging.Warn().Err(err).Msg("Transport mode update failed")
					}
				}
			case wsclient.StatusDisconnected:
				if transport.GaveUp() {
					return errGaveUp
				}
			}
		}
	}
}

func logEvent(cmd *cobra.Command, msg models.ServerMessage) {
	switch m := msg.(type) {
	case models.ConstructionZonesMessage:
		logging.Info().Int("zones", len(m.Zones)).Msg("Construction zones")
	case models.TrafficUpdateMessage:
		logging.Info().
			Str("id", m.Update.ID).
			Str("severity", string(m.Update.Severity)).
			Str("location", m.Update.Location.String()).
			Float64("speed", m.Update.Speed).
			Float64("congestion", m.Update.Congestion).
			Msg(m.Update.Description)
	case models.ConstructionUpdateMessage:
		logging.Info().
			Str("id", m.Zone.ID).
			Str("severity", string(m.Zone.Severity)).
			Str("end_date", m.Zone.EndDate).
			Msg(m.Zone.Description)
	}
	if data, err := models.EncodeServerMessage(msg); err == nil {
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), string(data))
	}
}
