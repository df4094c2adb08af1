package geo

import (
	"fmt"
	"math"
)

// Lower bounds for the length of one degree. Underestimating them makes
// the scanned neighbourhood slightly larger than the threshold, never
// smaller.
const (
	minMetersPerDegreeLat       = 110_000.0
	metersPerDegreeLngAtEquator = 111_000.0
)

type cellKey struct {
	row int64
	col int64
}

type indexedPoint struct {
	lat float64
	lng float64
}

// ProximityIndex answers "is any stored point within the threshold of
// this coordinate" by bucketing points into a grid whose cells are at
// least threshold wide, so only a handful of neighbouring cells need to
// be scanned per query.
type ProximityIndex struct {
	thresholdMeters float64
	cellLat         float64
	cellLng         float64
	cells           map[cellKey][]indexedPoint
	size            int
}

// NewProximityIndex creates an index for the given threshold. refLat
// sizes longitude cells so that a query near refLat touches a 3x3 block;
// queries elsewhere stay correct but may visit more cells.
func NewProximityIndex(thresholdMeters, refLat float64) *ProximityIndex {
	cellLat := thresholdMeters / minMetersPerDegreeLat
	cellLng := thresholdMeters / metersPerDegreeLng(math.Abs(refLat))
	return &ProximityIndex{
		thresholdMeters: thresholdMeters,
		cellLat:         cellLat,
		cellLng:         cellLng,
		cells:           make(map[cellKey][]indexedPoint),
	}
}

func metersPerDegreeLng(absLat float64) float64 {
	m := metersPerDegreeLngAtEquator * math.Cos(absLat*math.Pi/180)
	if m < 1 {
		return 1
	}
	return m
}

func (idx *ProximityIndex) key(lat, lng float64) cellKey {
	return cellKey{
		row: int64(math.Floor(lat / idx.cellLat)),
		col: int64(math.Floor(lng / idx.cellLng)),
	}
}

// Insert adds a point to the index.
func (idx *ProximityIndex) Insert(lat, lng float64) {
	k := idx.key(lat, lng)
	idx.cells[k] = append(idx.cells[k], indexedPoint{lat: lat, lng: lng})
	idx.size++
}

// Len returns the number of stored points.
func (idx *ProximityIndex) Len() int {
	return idx.size
}

// WithinThreshold reports whether a stored point lies strictly closer
// than the threshold to (lat, lng).
func (idx *ProximityIndex) WithinThreshold(lat, lng float64) bool {
	dLat := idx.thresholdMeters / minMetersPerDegreeLat
	maxAbsLat := math.Min(90, math.Max(math.Abs(lat-dLat), math.Abs(lat+dLat)))
	dLng := idx.thresholdMeters / metersPerDegreeLng(maxAbsLat)

	rowMin := int64(math.Floor((lat - dLat) / idx.cellLat))
	rowMax := int64(math.Floor((lat + dLat) / idx.cellLat))
	colMin := int64(math.Floor((lng - dLng) / idx.cellLng))
	colMax := int64(math.Floor((lng + dLng) / idx.cellLng))

	for row := rowMin; row <= rowMax; row++ {
		for col := colMin; col <= colMax; col++ {
			for _, p := range idx.cells[cellKey{row: row, col: col}] {
				if DistanceMeters(lat, lng, p.lat, p.lng) < idx.thresholdMeters {
					return true
				}
			}
		}
	}
	return false
}

// Deduplicator accepts coordinates one at a time and rejects any that
// repeat an accepted rounded coordinate or fall within the threshold of
// an accepted one. Any two accepted coordinates are therefore at least
// the threshold apart.
type Deduplicator struct {
	decimals int
	seen     map[string]struct{}
	index    *ProximityIndex
}

// NewDeduplicator creates a deduplicator. decimals is the rounding
// precision of the exact-match key (4 decimals is roughly an 11 m grid).
func NewDeduplicator(thresholdMeters float64, decimals int, refLat float64) *Deduplicator {
	return &Deduplicator{
		decimals: decimals,
		seen:     make(map[string]struct{}),
		index:    NewProximityIndex(thresholdMeters, refLat),
	}
}

// RoundedKey formats a coordinate rounded to the given decimals.
func RoundedKey(lat, lng float64, decimals int) string {
	return fmt.Sprintf("%.*f,%.*f", decimals, lat, decimals, lng)
}

// Accept records the coordinate and returns true when it is not a
// duplicate of anything accepted before.
func (d *Deduplicator) Accept(lat, lng float64) bool {
	key := RoundedKey(lat, lng, d.decimals)
	if _, ok := d.seen[key]; ok {
		return false
	}
	if d.index.WithinThreshold(lat, lng) {
		return false
	}
	d.seen[key] = struct{}{}
	d.index.Insert(lat, lng)
	return true
}

// Len returns the number of accepted coordinates.
func (d *Deduplicator) Len() int {
	return d.index.Len()
}
