// RouteHub - Real-time Traffic and Construction Advisory Hub
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/routehub

/*
Package services provides suture.Service wrappers for RouteHub components.

Each wrapper implements the suture.Service interface:

	type Service interface {
	    Serve(ctx context.Context) error
	}

and identifies itself to suture's logs through fmt.Stringer.

Available services:

  - HTTPServerService: wraps *http.Server with graceful shutdown and a readiness hook
  - HubService: runs the websocket hub broadcast loop
  - GeneratorService: runs the synthetic traffic and construction generator
  - EventBusService: forwards events from the in-process bus to the hub

The wrappers depend on small interfaces rather than the concrete packages so
that they can be tested with fakes.
*/
package services
