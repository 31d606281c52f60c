package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// Lagos and Abuja are roughly 520km apart.
const (
	lagosLat = 6.5244
	lagosLng = 3.3792
	abujaLat = 9.0765
	abujaLng = 7.3986
)

func TestDistanceKm(t *testing.T) {
	d := DistanceKm(lagosLat, lagosLng, abujaLat, abujaLng)
	assert.InDelta(t, 520, d, 15)

	assert.Equal(t, 0.0, DistanceKm(lagosLat, lagosLng, lagosLat, lagosLng))
}

func TestWithin(t *testing.T) {
	tests := []struct {
		name      string
		lat2      float64
		lng2      float64
		maxMeters float64
		want      bool
	}{
		{"same point", lagosLat, lagosLng, 1000, true},
		{"abuja outside 100km", abujaLat, abujaLng, 100000, false},
		{"abuja inside 600km", abujaLat, abujaLng, 600000, true},
		{"unknown point always passes", 0, 0, 1000, true},
		{"no radius disables the filter", abujaLat, abujaLng, 0, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Within(lagosLat, lagosLng, tc.lat2, tc.lng2, tc.maxMeters))
		})
	}
}
