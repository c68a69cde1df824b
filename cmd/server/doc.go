// RouteHub - Real-time Traffic and Construction Advisory Hub
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/routehub

/*
Package main is the entry point for the RouteHub server.

RouteHub pushes synthetic traffic and construction advisories to websocket
clients. Each client may subscribe to a circular area; traffic updates are
delivered only to clients whose area contains them, construction updates go to
everyone.

# Application Architecture

	RootSupervisor ("routehub")
	├── SimulationSupervisor ("simulation-layer")
	│   └── Update generator (15s tick)
	├── MessagingSupervisor ("messaging-layer")
	│   ├── WebSocket hub broadcast loop
	│   └── Event bus consumer (optional, HUB_EVENT_BUS=true)
	└── APISupervisor ("api-layer")
	    └── HTTP server (/ws, /api/v1/health, /metrics)

# Configuration

Configuration is loaded via Koanf v2 (environment > config file > defaults):

	HTTP_PORT=3857            # HTTP server port
	CORS_ORIGINS=*            # comma-separated browser origins
	HUB_TICK_INTERVAL=15s     # generator period
	HUB_CENTER_LON=78.5       # default subscription center
	HUB_CENTER_LAT=17.4
	HUB_SEED=0                # 0 seeds from the OS
	HUB_EVENT_BUS=false       # route events through the in-process bus
	LOG_LEVEL=info
	LOG_FORMAT=json

# Signal Handling

On SIGINT or SIGTERM the supervisor stops the HTTP server, the generator and
the hub; the hub closes every open client socket before returning.

# Port 3857

The default port references EPSG:3857 (Web Mercator), the projection used by
web map clients.
*/
package main
