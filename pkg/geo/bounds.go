// Package geo holds the geographic primitives shared by geocoding and
// establishment aggregation: bounding boxes, great-circle distance and a
// grid-bucketed proximity index.
package geo

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
	orbgeo "github.com/paulmach/orb/geo"
)

// Bounds is a latitude/longitude rectangle.
type Bounds struct {
	MinLat float64
	MaxLat float64
	MinLng float64
	MaxLng float64
}

var (
	// TorontoBounds approximates the city limits. Establishments outside
	// it are dropped at ingestion.
	TorontoBounds = Bounds{MinLat: 43.58, MaxLat: 43.85, MinLng: -79.64, MaxLng: -79.12}

	// TorontoGeocodeBounds adds a small buffer for geocoded user input
	// near the edges of the city.
	TorontoGeocodeBounds = Bounds{MinLat: 43.55, MaxLat: 43.88, MinLng: -79.67, MaxLng: -79.09}

	// TorontoCityHall is the default map centre.
	TorontoCityHall = orb.Point{-79.3832, 43.6532}
)

func (b Bounds) bound() orb.Bound {
	return orb.Bound{
		Min: orb.Point{b.MinLng, b.MinLat},
		Max: orb.Point{b.MaxLng, b.MaxLat},
	}
}

// Contains reports whether the coordinate lies inside the rectangle,
// edges included. NaN coordinates are never contained.
func (b Bounds) Contains(lat, lng float64) bool {
	if math.IsNaN(lat) || math.IsNaN(lng) {
		return false
	}
	return b.bound().Contains(orb.Point{lng, lat})
}

// Center returns the midpoint of the rectangle.
func (b Bounds) Center() (lat, lng float64) {
	c := b.bound().Center()
	return c.Lat(), c.Lon()
}

// Viewbox formats the rectangle as a Nominatim viewbox parameter
// (left,top,right,bottom in lng/lat order).
func (b Bounds) Viewbox() string {
	return fmt.Sprintf("%g,%g,%g,%g", b.MinLng, b.MinLat, b.MaxLng, b.MaxLat)
}

// GoogleBounds formats the rectangle as a Google Geocoding bounds bias.
func (b Bounds) GoogleBounds() string {
	return fmt.Sprintf("%g,%g|%g,%g", b.MinLat, b.MinLng, b.MaxLat, b.MaxLng)
}

// DistanceMeters returns the haversine distance between two coordinates.
func DistanceMeters(lat1, lng1, lat2, lng2 float64) float64 {
	return orbgeo.DistanceHaversine(orb.Point{lng1, lat1}, orb.Point{lng2, lat2})
}

// DistanceKm returns the haversine distance in kilometres.
func DistanceKm(lat1, lng1, lat2, lng2 float64) float64 {
	return DistanceMeters(lat1, lng1, lat2, lng2) / 1000
}
