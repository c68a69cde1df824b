// RouteHub - Real-time Traffic and Construction Advisory Hub
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/routehub

// Package eventbus decouples the generator from the broadcaster with an
// in-process watermill pub/sub. Generated events are published to one topic
// per kind and forwarded to a Sink (the hub) by a supervised consumer.
package eventbus

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/goccy/go-json"

	"github.com/tomtom215/routehub/internal/logging"
	"github.com/tomtom215/routehub/internal/metrics"
	"github.com/tomtom215/routehub/internal/models"
)

const (
	TopicTraffic      = "routehub.traffic"
	TopicConstruction = "routehub.construction"

	metadataType = "type"
)

// ErrClosed is returned by Run after Close.
var ErrClosed = errors.New("event bus closed")

// Sink receives events taken off the bus.
type Sink interface {
	PublishTraffic(update models.TrafficUpdate)
	PublishConstruction(zone models.ConstructionZone)
}

// Config controls the underlying gochannel pub/sub.
type Config struct {
	// OutputChannelBuffer is the per-subscriber buffer length.
	OutputChannelBuffer int64
}

// Bus publishes generated events and forwards them to a Sink.
// It implements the generator's event sink.
type Bus struct {
	pubsub *gochannel.GoChannel
	logger watermill.LoggerAdapter

	mu    sync.Mutex
	ready chan struct{}
}

// New creates a bus. Events published while no consumer is running are dropped.
func New(cfg Config) *Bus {
	logger := watermill.NewSlogLogger(logging.NewSlogLogger())
	return &Bus{
		pubsub: gochannel.NewGoChannel(gochannel.Config{
			OutputChannelBuffer: cfg.OutputChannelBuffer,
		}, logger),
		logger: logger,
		ready:  make(chan struct{}),
	}
}

// PublishTraffic publishes a traffic update.
func (b *Bus) PublishTraffic(update models.TrafficUpdate) {
	b.publish(TopicTraffic, models.ServerMessageTrafficUpdate, update)
}

// PublishConstruction publishes a construction zone change.
func (b *Bus) PublishConstruction(zone models.ConstructionZone) {
	b.publish(TopicConstruction, models.ServerMessageConstructionUpdate, zone)
}

func (b *Bus) publish(topic string, kind models.ServerMessageType, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		metrics.EventBusErrors.WithLabelValues(topic).Inc()
		logging.Error().Err(err).Str("topic", topic).Msg("failed to encode event")
		return
	}

	msg := message.NewMessage(watermill.NewUUID(), data)
	msg.Metadata.Set(metadataType, string(kind))

	if err := b.pubsub.Publish(topic, msg); err != nil {
		metrics.EventBusErrors.WithLabelValues(topic).Inc()
		logging.Warn().Err(err).Str("topic", topic).Msg("failed to publish event")
		return
	}
	metrics.EventBusPublished.WithLabelValues(topic).Inc()
}

// Ready is closed once a consumer has subscribed to both topics.
func (b *Bus) Ready() <-chan struct{} {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.ready
}

// Run consumes both topics and forwards every event to sink until ctx is
// canceled. It returns ctx.Err() on shutdown.
func (b *Bus) Run(ctx context.Context, sink Sink) error {
	// subscriptions end when subCtx is canceled, so a restarted Run does not
	// leave a stale subscriber behind
	subCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	traffic, err := b.pubsub.Subscribe(subCtx, TopicTraffic)
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", TopicTraffic, err)
	}
	construction, err := b.pubsub.Subscribe(subCtx, TopicConstruction)
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", TopicConstruction, err)
	}
	b.markReady()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case msg, ok := <-traffic:
			if !ok {
				return b.closedErr(ctx)
			}
			var update models.TrafficUpdate
			if b.decode(TopicTraffic, msg, &update) {
				sink.PublishTraffic(update)
			}

		case msg, ok := <-construction:
			if !ok {
				return b.closedErr(ctx)
			}
			var zone models.ConstructionZone
			if b.decode(TopicConstruction, msg, &zone) {
				sink.PublishConstruction(zone)
			}
		}
	}
}

// decode unmarshals msg into v and acks it. Undecodable messages are acked
// and dropped; redelivery would fail the same way.
func (b *Bus) decode(topic string, msg *message.Message, v any) bool {
	defer msg.Ack()
	if err := json.Unmarshal(msg.Payload, v); err != nil {
		metrics.EventBusErrors.WithLabelValues(topic).Inc()
		logging.Warn().Err(err).Str("topic", topic).Str("message_uuid", msg.UUID).Msg("dropping undecodable event")
		return false
	}
	return true
}

func (b *Bus) markReady() {
	b.mu.Lock()
	defer b.mu.Unlock()
	select {
	case <-b.ready:
	default:
		close(b.ready)
	}
}

func (b *Bus) closedErr(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return ErrClosed
}

// Close shuts the pub/sub down. Running consumers return ErrClosed.
func (b *Bus) Close() error {
	return b.pubsub.Close()
}
