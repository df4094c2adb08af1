package geo

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTorontoBounds_Contains(t *testing.T) {
	tests := []struct {
		name string
		lat  float64
		lng  float64
		want bool
	}{
		{"city hall", 43.6532, -79.3832, true},
		{"yonge and dundas", 43.6561, -79.3802, true},
		{"south-west corner", 43.58, -79.64, true},
		{"mississauga", 43.5890, -79.6441, false},
		{"ottawa", 45.4215, -75.6972, false},
		{"null island", 0, 0, false},
		{"nan", math.NaN(), -79.38, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TorontoBounds.Contains(tt.lat, tt.lng))
		})
	}
}

func TestGeocodeBounds_AreWiderThanCityBounds(t *testing.T) {
	assert.True(t, TorontoGeocodeBounds.Contains(43.56, -79.66))
	assert.False(t, TorontoBounds.Contains(43.56, -79.66))
}

func TestBoundsFormatting(t *testing.T) {
	assert.Equal(t, "-79.64,43.58,-79.12,43.85", TorontoBounds.Viewbox())
	assert.Equal(t, "43.58,-79.64|43.85,-79.12", TorontoBounds.GoogleBounds())
}

func TestDistanceKm(t *testing.T) {
	// City Hall to Union Station is roughly 0.9 km.
	d := DistanceKm(43.6532, -79.3832, 43.6453, -79.3806)
	assert.InDelta(t, 0.9, d, 0.1)
	assert.Zero(t, DistanceMeters(43.7, -79.4, 43.7, -79.4))
}

func TestDeduplicator_RejectsNearbyAndExactRepeats(t *testing.T) {
	d := NewDeduplicator(100, 4, TorontoBounds.MaxLat)

	assert.True(t, d.Accept(43.6532, -79.3832))
	assert.False(t, d.Accept(43.6532, -79.3832), "exact repeat")
	assert.False(t, d.Accept(43.65325, -79.38321), "a few metres away")
	assert.False(t, d.Accept(43.6538, -79.3832), "about 67 m north")
	assert.True(t, d.Accept(43.6545, -79.3832), "about 145 m north")
	assert.True(t, d.Accept(43.6532, -79.3845), "about 105 m west")
	assert.Equal(t, 3, d.Len())
}

func TestDeduplicator_AcceptedPointsRespectThreshold(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	d := NewDeduplicator(100, 4, TorontoBounds.MaxLat)

	var accepted [][2]float64
	for i := 0; i < 3000; i++ {
		lat := 43.64 + rng.Float64()*0.03
		lng := -79.40 + rng.Float64()*0.04
		if d.Accept(lat, lng) {
			accepted = append(accepted, [2]float64{lat, lng})
		}
	}

	require.NotEmpty(t, accepted)
	for i := range accepted {
		for j := i + 1; j < len(accepted); j++ {
			dist := DistanceMeters(accepted[i][0], accepted[i][1], accepted[j][0], accepted[j][1])
			require.GreaterOrEqualf(t, dist, 100.0, "points %d and %d are %.1fm apart", i, j, dist)
		}
	}
}

func TestProximityIndex_MatchesBruteForce(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	idx := NewProximityIndex(250, 43.7)

	var stored [][2]float64
	for i := 0; i < 400; i++ {
		lat := 43.6 + rng.Float64()*0.2
		lng := -79.6 + rng.Float64()*0.4
		idx.Insert(lat, lng)
		stored = append(stored, [2]float64{lat, lng})
	}

	for i := 0; i < 500; i++ {
		lat := 43.6 + rng.Float64()*0.2
		lng := -79.6 + rng.Float64()*0.4

		want := false
		for _, p := range stored {
			if DistanceMeters(lat, lng, p[0], p[1]) < 250 {
				want = true
				break
			}
		}
		assert.Equal(t, want, idx.WithinThreshold(lat, lng))
	}
}
