// RouteHub - Real-time Traffic and Construction Advisory Hub
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/routehub

// Package geo implements the equirectangular (planar) approximations the hub uses
// for subscription filtering and synthetic event placement.
//
// One degree of latitude is taken as 111 km; a degree of longitude is scaled by the
// cosine of the reference latitude. The error is negligible at the tens-of-kilometres
// radii clients subscribe with, and the arithmetic is far cheaper than haversine.
package geo

import (
	"math"

	"github.com/tomtom215/routehub/internal/models"
)

// KmPerDegree is the planar approximation of kilometres per degree of latitude.
const KmPerDegree = 111.0

// DistanceKm returns the planar distance in kilometres between from and to,
// scaling longitude by the latitude of from.
func DistanceKm(from, to models.Coordinate) float64 {
	latDiffKm := (to.Lat() - from.Lat()) * KmPerDegree
	lonDiffKm := (to.Lon() - from.Lon()) * KmPerDegree * math.Cos(from.Lat()*math.Pi/180)
	return math.Sqrt(latDiffKm*latDiffKm + lonDiffKm*lonDiffKm)
}

// Within reports whether point lies inside the subscription's circle.
func Within(area models.AreaSubscription, point models.Coordinate) bool {
	return DistanceKm(area.Center, point) <= area.RadiusKm
}

// Offset moves center by distanceKm along bearing (radians, counter-clockwise from east).
func Offset(center models.Coordinate, distanceKm, bearing float64) models.Coordinate {
	latOffset := distanceKm * math.Sin(bearing) / KmPerDegree
	lonOffset := distanceKm * math.Cos(bearing) / (KmPerDegree * math.Cos(center.Lat()*math.Pi/180))
	return models.NewCoordinate(center.Lon()+lonOffset, center.Lat()+latOffset)
}

// BoundingBox is an axis-aligned lon/lat rectangle anchored at its south-west corner.
type BoundingBox struct {
	MinLon  float64 `koanf:"min_lon" validate:"gte=-180,lte=180"`
	MinLat  float64 `koanf:"min_lat" validate:"gte=-90,lte=90"`
	LonSpan float64 `koanf:"lon_span" validate:"gt=0"`
	LatSpan float64 `koanf:"lat_span" validate:"gt=0"`
}

// At maps unit fractions u, v in [0,1) to a point inside the box.
func (b BoundingBox) At(u, v float64) models.Coordinate {
	return models.NewCoordinate(b.MinLon+u*b.LonSpan, b.MinLat+v*b.LatSpan)
}

// Contains reports whether point lies inside the half-open box.
func (b BoundingBox) Contains(point models.Coordinate) bool {
	return point.Lon() >= b.MinLon && point.Lon() < b.MinLon+b.LonSpan &&
		point.Lat() >= b.MinLat && point.Lat() < b.MinLat+b.LatSpan
}
