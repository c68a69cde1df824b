// RouteHub - Real-time Traffic and Construction Advisory Hub
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/routehub

// Package simulator synthesizes traffic updates and construction zone changes
// on a fixed tick and hands them to an EventSink for delivery.
//
// Every random decision is drawn from an injected Random and every timestamp
// from an injected clockwork.Clock, so tests can replay a tick exactly.
package simulator

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/tomtom215/routehub/internal/geo"
	"github.com/tomtom215/routehub/internal/logging"
	"github.com/tomtom215/routehub/internal/metrics"
	"github.com/tomtom215/routehub/internal/models"
)

// TimestampLayout formats traffic update timestamps (RFC 3339, millisecond precision, UTC).
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

const (
	trafficSpread      = 0.8
	constructionSpread = 0.7

	mutateExistingProbability = 0.5
	extendProbability         = 0.5
	updatedMarkerProbability  = 0.3
	maxEndDateShiftDays       = 30
	minProjectDays            = 30
	projectDaysRange          = 91 // end date is 30 to 120 days out, inclusive

	// UpdatedMarker is appended to a mutated zone's description. Repeated mutations append it again.
	UpdatedMarker = " (Updated)"
)

var trafficDescriptions = map[models.Severity][]string{
	models.SeverityLow: {
		"Minor slowdown",
		"Slightly congested",
		"Light traffic",
		"Traffic flowing well",
	},
	models.SeverityMedium: {
		"Moderate congestion",
		"Slower than usual traffic",
		"Busy conditions",
		"Expect some delays",
	},
	models.SeverityHigh: {
		"Heavy traffic jam",
		"Major congestion",
		"Significant delays",
		"Standstill traffic",
	},
}

var constructionDescriptions = []string{
	"Road resurfacing work",
	"Bridge maintenance",
	"Utility installation",
	"Pothole repairs",
	"Lane expansion project",
	"Sidewalk construction",
	"Drainage improvements",
	"Traffic signal installation",
}

// newZoneRoads is assigned to every generated zone.
var newZoneRoads = []string{"Local roads"}

// Audience reports how many connections are live.
type Audience interface {
	Count() int
}

// AreaSource lists the area subscriptions currently held by live connections.
type AreaSource interface {
	Areas() []models.AreaSubscription
}

// EventSink receives generated events for delivery.
type EventSink interface {
	PublishTraffic(update models.TrafficUpdate)
	PublishConstruction(zone models.ConstructionZone)
}

// Config controls generation.
type Config struct {
	Interval                time.Duration
	ConstructionProbability float64
	FallbackBox             geo.BoundingBox
}

// DefaultConfig returns a 15 second tick, 10% construction probability and the Hyderabad fallback box.
func DefaultConfig() Config {
	return Config{
		Interval:                15 * time.Second,
		ConstructionProbability: 0.1,
		FallbackBox:             geo.BoundingBox{MinLon: 78.4, MinLat: 17.4, LonSpan: 0.2, LatSpan: 0.1},
	}
}

// ConstructionChange describes the zone delta produced by a tick.
type ConstructionChange struct {
	Zone    models.ConstructionZone
	Created bool
}

// TickResult reports what one tick produced. Both fields are nil on an idle tick.
type TickResult struct {
	Traffic      *models.TrafficUpdate
	Construction *ConstructionChange
}

// Generator produces synthetic events. Tick is safe to call concurrently with Run.
type Generator struct {
	cfg      Config
	rng      Random
	clock    clockwork.Clock
	audience Audience
	areas    AreaSource
	sink     EventSink
	zones    *ZoneStore
	traffic  *TrafficBuffer

	mu       sync.Mutex
	lastTick time.Time
}

// NewGenerator wires a generator. A nil rng or clock falls back to NewRandom(0) and the real clock.
func NewGenerator(cfg Config, rng Random, clock clockwork.Clock, audience Audience, areas AreaSource,
	sink EventSink, zones *ZoneStore, traffic *TrafficBuffer) *Generator {
	if rng == nil {
		rng = NewRandom(0)
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultConfig().Interval
	}
	return &Generator{
		cfg:      cfg,
		rng:      rng,
		clock:    clock,
		audience: audience,
		areas:    areas,
		sink:     sink,
		zones:    zones,
		traffic:  traffic,
	}
}

// Run ticks every cfg.Interval until ctx is cancelled.
func (g *Generator) Run(ctx context.Context) error {
	ticker := g.clock.NewTicker(g.cfg.Interval)
	defer ticker.Stop()

	logging.Info().Dur("interval", g.cfg.Interval).Msg("Update generator started")
	for {
		select {
		case <-ctx.Done():
			logging.Info().Msg("Update generator stopped")
			return ctx.Err()
		case now := <-ticker.Chan():
			g.Tick(now)
		}
	}
}

// LastTick returns the time of the most recent productive tick.
func (g *Generator) LastTick() time.Time {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.lastTick
}

// Tick runs one generation step at now. With no live connections it does nothing.
func (g *Generator) Tick(now time.Time) TickResult {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.audience.Count() == 0 {
		metrics.GeneratorTicks.WithLabelValues("idle").Inc()
		return TickResult{}
	}
	metrics.GeneratorTicks.WithLabelValues("produced").Inc()
	g.lastTick = now

	areas := g.areas.Areas()

	update := g.generateTraffic(now, areas)
	g.traffic.Push(update)
	metrics.TrafficUpdatesGenerated.WithLabelValues(string(update.Severity)).Inc()
	g.sink.PublishTraffic(update)

	result := TickResult{Traffic: &update}

	if g.rng.Float64() < g.cfg.ConstructionProbability {
		change := g.changeConstruction(now, areas)
		kind := "updated"
		if change.Created {
			kind = "created"
		}
		metrics.ConstructionDeltas.WithLabelValues(kind).Inc()
		metrics.ConstructionZones.Set(float64(g.zones.Len()))
		g.sink.PublishConstruction(change.Zone)
		result.Construction = &change
	}

	return result
}

func (g *Generator) generateTraffic(now time.Time, areas []models.AreaSubscription) models.TrafficUpdate {
	severity := models.Severities[g.rng.IntN(len(models.Severities))]
	location := g.sampleLocation(areas, trafficSpread)
	pool := trafficDescriptions[severity]
	description := pool[g.rng.IntN(len(pool))]
	speed, congestion := g.trafficFigures(severity)

	return models.TrafficUpdate{
		ID:          uuid.New().String(),
		Location:    location,
		Severity:    severity,
		Description: description,
		Timestamp:   now.UTC().Format(TimestampLayout),
		Speed:       speed,
		Congestion:  congestion,
	}
}

// trafficFigures draws speed (km/h) and congestion (0..1) from the severity's range.
func (g *Generator) trafficFigures(severity models.Severity) (speed, congestion float64) {
	switch severity {
	case models.SeverityHigh:
		speed = g.rng.Float64() * 20
		congestion = 0.8 + g.rng.Float64()*0.2
	case models.SeverityMedium:
		speed = 20 + g.rng.Float64()*30
		congestion = 0.4 + g.rng.Float64()*0.4
	default:
		speed = 50 + g.rng.Float64()*40
		congestion = g.rng.Float64() * 0.4
	}
	return speed, congestion
}

// sampleLocation picks a random subscription and a point within spread of its radius,
// or a point in the fallback box when there are no subscriptions.
func (g *Generator) sampleLocation(areas []models.AreaSubscription, spread float64) models.Coordinate {
	if len(areas) == 0 {
		return g.cfg.FallbackBox.At(g.rng.Float64(), g.rng.Float64())
	}
	area := areas[g.rng.IntN(len(areas))]
	bearing := g.rng.Float64() * 2 * math.Pi
	distance := g.rng.Float64() * area.RadiusKm * spread
	return geo.Offset(area.Center, distance, bearing)
}

func (g *Generator) changeConstruction(now time.Time, areas []models.AreaSubscription) ConstructionChange {
	if g.rng.Float64() < mutateExistingProbability {
		if zone, ok := g.zones.Mutate(g.rng.IntN, func(z *models.ConstructionZone) { g.mutateZone(now, z) }); ok {
			return ConstructionChange{Zone: zone}
		}
	}

	zone := g.newZone(now, areas)
	g.zones.Upsert(zone)
	return ConstructionChange{Zone: zone, Created: true}
}

// mutateZone shifts the end date by up to maxEndDateShiftDays either way and
// sometimes appends UpdatedMarker.
func (g *Generator) mutateZone(now time.Time, z *models.ConstructionZone) {
	end, err := time.Parse(models.DateLayout, z.EndDate)
	if err != nil {
		logging.Warn().Err(err).Str("zone_id", z.ID).Msg("Unparseable zone end date, shifting from today")
		end = now.UTC()
	}

	extend := g.rng.Float64() < extendProbability
	days := g.rng.IntN(maxEndDateShiftDays)
	if !extend {
		days = -days
	}
	z.EndDate = end.AddDate(0, 0, days).Format(models.DateLayout)

	if g.rng.Float64() < updatedMarkerProbability {
		z.Description += UpdatedMarker
	}
}

func (g *Generator) newZone(now time.Time, areas []models.AreaSubscription) models.ConstructionZone {
	location := g.sampleLocation(areas, constructionSpread)
	description := constructionDescriptions[g.rng.IntN(len(constructionDescriptions))]
	severity := models.Severities[g.rng.IntN(len(models.Severities))]
	start := now.UTC()
	end := start.AddDate(0, 0, minProjectDays+g.rng.IntN(projectDaysRange))

	roads := make([]string, len(newZoneRoads))
	copy(roads, newZoneRoads)

	return models.ConstructionZone{
		ID:            uuid.New().String(),
		Location:      location,
		Description:   description,
		Severity:      severity,
		StartDate:     start.Format(models.DateLayout),
		EndDate:       end.Format(models.DateLayout),
		AffectedRoads: roads,
	}
}
