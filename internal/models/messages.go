// RouteHub - Real-time Traffic and Construction Advisory Hub
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/routehub

package models

import (
	"errors"
	"fmt"

	"github.com/goccy/go-json"
)

// Wire protocol errors returned by the decoders.
var (
	ErrMalformedMessage   = errors.New("malformed message")
	ErrUnknownMessageType = errors.New("unknown message type")
)

// ClientMessageType tags frames sent from a client to the hub.
type ClientMessageType string

const (
	ClientMessageSubscribe           ClientMessageType = "subscribe"
	ClientMessageUpdateTransportMode ClientMessageType = "updateTransportMode"
)

// ClientMessage is the closed set of frames a client may send.
// Implementations: *SubscribeMessage, *UpdateTransportModeMessage.
type ClientMessage interface {
	ClientMessageType() ClientMessageType
}

// SubscribeArea is the payload of a subscribe frame. Center is optional.
type SubscribeArea struct {
	Center []float64 `json:"center,omitempty" validate:"omitempty,lonlat"`
	Radius float64   `json:"radius" validate:"gt=0"`
}

// SubscribeMessage sets or replaces the sender's area subscription.
type SubscribeMessage struct {
	Type ClientMessageType `json:"type"`
	Area *SubscribeArea    `json:"area" validate:"required"`
}

// ClientMessageType implements ClientMessage.
func (*SubscribeMessage) ClientMessageType() ClientMessageType { return ClientMessageSubscribe }

// NewSubscribeMessage builds a subscribe frame. A nil center lets the hub substitute its default.
func NewSubscribeMessage(center *Coordinate, radiusKm float64) *SubscribeMessage {
	area := &SubscribeArea{Radius: radiusKm}
	if center != nil {
		area.Center = []float64{center.Lon(), center.Lat()}
	}
	return &SubscribeMessage{Type: ClientMessageSubscribe, Area: area}
}

// UpdateTransportModeMessage changes the sender's travel mode.
type UpdateTransportModeMessage struct {
	Type ClientMessageType `json:"type"`
	Mode string            `json:"mode" validate:"required,transportmode"`
}

// ClientMessageType implements ClientMessage.
func (*UpdateTransportModeMessage) ClientMessageType() ClientMessageType {
	return ClientMessageUpdateTransportMode
}

// NewUpdateTransportModeMessage builds an updateTransportMode frame.
func NewUpdateTransportModeMessage(mode TransportMode) *UpdateTransportModeMessage {
	return &UpdateTransportModeMessage{Type: ClientMessageUpdateTransportMode, Mode: string(mode)}
}

type typeOnly struct {
	Type string `json:"type"`
}

// DecodeClientMessage parses a client frame into its concrete message type.
func DecodeClientMessage(data []byte) (ClientMessage, error) {
	var head typeOnly
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}

	var msg ClientMessage
	switch ClientMessageType(head.Type) {
	case ClientMessageSubscribe:
		msg = &SubscribeMessage{}
	case ClientMessageUpdateTransportMode:
		msg = &UpdateTransportModeMessage{}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMessageType, head.Type)
	}

	if err := json.Unmarshal(data, msg); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformedMessage, head.Type, err)
	}
	return msg, nil
}

// EncodeClientMessage serializes a client frame.
func EncodeClientMessage(msg ClientMessage) ([]byte, error) {
	return json.Marshal(msg)
}

// ServerMessageType tags frames pushed from the hub to clients.
type ServerMessageType string

const (
	ServerMessageConstructionZones  ServerMessageType = "constructionZones"
	ServerMessageTrafficUpdate      ServerMessageType = "trafficUpdate"
	ServerMessageConstructionUpdate ServerMessageType = "constructionUpdate"
)

// ServerMessage is the closed set of frames the hub may push.
// Implementations: ConstructionZonesMessage, TrafficUpdateMessage, ConstructionUpdateMessage.
type ServerMessage interface {
	ServerMessageType() ServerMessageType
	payload() any
}

// ConstructionZonesMessage carries the full zone collection, sent once on connect.
type ConstructionZonesMessage struct {
	Zones []ConstructionZone
}

// ServerMessageType implements ServerMessage.
func (ConstructionZonesMessage) ServerMessageType() ServerMessageType {
	return ServerMessageConstructionZones
}

func (m ConstructionZonesMessage) payload() any {
	if m.Zones == nil {
		return []ConstructionZone{}
	}
	return m.Zones
}

// TrafficUpdateMessage carries one traffic advisory.
type TrafficUpdateMessage struct {
	Update TrafficUpdate
}

// ServerMessageType implements ServerMessage.
func (TrafficUpdateMessage) ServerMessageType() ServerMessageType { return ServerMessageTrafficUpdate }

func (m TrafficUpdateMessage) payload() any { return m.Update }

// ConstructionUpdateMessage carries one new or mutated construction zone.
type ConstructionUpdateMessage struct {
	Zone ConstructionZone
}

// ServerMessageType implements ServerMessage.
func (ConstructionUpdateMessage) ServerMessageType() ServerMessageType {
	return ServerMessageConstructionUpdate
}

func (m ConstructionUpdateMessage) payload() any { return m.Zone }

// Envelope is the {type, data} frame layout used for every server message.
type Envelope struct {
	Type ServerMessageType `json:"type"`
	Data any               `json:"data"`
}

type rawEnvelope struct {
	Type ServerMessageType `json:"type"`
	Data json.RawMessage   `json:"data"`
}

// EncodeServerMessage serializes a server frame.
func EncodeServerMessage(msg ServerMessage) ([]byte, error) {
	return json.Marshal(Envelope{Type: msg.ServerMessageType(), Data: msg.payload()})
}

// DecodeServerMessage parses a server frame into its concrete message type.
func DecodeServerMessage(data []byte) (ServerMessage, error) {
	var env rawEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}

	switch env.Type {
	case ServerMessageConstructionZones:
		var zones []ConstructionZone
		if err := json.Unmarshal(env.Data, &zones); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrMalformedMessage, env.Type, err)
		}
		return ConstructionZonesMessage{Zones: zones}, nil
	case ServerMessageTrafficUpdate:
		var update TrafficUpdate
		if err := json.Unmarshal(env.Data, &update); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrMalformedMessage, env.Type, err)
		}
		return TrafficUpdateMessage{Update: update}, nil
	case ServerMessageConstructionUpdate:
		var zone ConstructionZone
		if err := json.Unmarshal(env.Data, &zone); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrMalformedMessage, env.Type, err)
		}
		return ConstructionUpdateMessage{Zone: zone}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMessageType, env.Type)
	}
}
