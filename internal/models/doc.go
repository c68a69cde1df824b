// RouteHub - Real-time Traffic and Construction Advisory Hub
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/routehub

/*
Package models defines the advisory types and the websocket wire protocol shared
by the hub server and the reconnecting client.

Both directions are closed tagged unions keyed by a "type" field. Client frames
(subscribe, updateTransportMode) decode into ClientMessage; server frames use a
{type, data} envelope and decode into ServerMessage (constructionZones,
trafficUpdate, constructionUpdate). Callers switch on the concrete type:

	msg, err := models.DecodeServerMessage(frame)
	if err != nil {
	    return err
	}
	switch m := msg.(type) {
	case models.ConstructionZonesMessage:
	    state.ReplaceZones(m.Zones)
	case models.TrafficUpdateMessage:
	    state.PushTraffic(m.Update)
	case models.ConstructionUpdateMessage:
	    state.UpsertZone(m.Zone)
	}

Decoding errors wrap ErrMalformedMessage or ErrUnknownMessageType.
*/
package models
