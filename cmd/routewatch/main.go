// RouteHub - Real-time Traffic and Construction Advisory Hub
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/routehub

// Command routewatch connects to a RouteHub server with the reconnecting client
// transport and logs every advisory it receives.
//
//	routewatch --url ws://localhost:3857/ws --lon 78.48 --lat 17.38 --radius 5 --mode cycling
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
