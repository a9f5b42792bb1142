package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDistanceKm(t *testing.T) {
	plazaDeArmas := Point{Lat: -33.4378, Lon: -70.6505}
	costanera := Point{Lat: -33.4173, Lon: -70.6062}

	d := DistanceKm(plazaDeArmas, costanera)
	assert.InDelta(t, 4.7, d, 0.2)
	assert.InDelta(t, d, DistanceKm(costanera, plazaDeArmas), 1e-9)
	assert.Zero(t, DistanceKm(plazaDeArmas, plazaDeArmas))
}

func TestDistanceMetersShortHop(t *testing.T) {
	a := Point{Lat: -33.4378, Lon: -70.6505}
	// roughly 0.0003 degrees of latitude is 33 m
	b := Point{Lat: -33.4381, Lon: -70.6505}
	assert.InDelta(t, 33, DistanceMeters(a, b), 2)
}

func TestWalkingEstimate(t *testing.T) {
	assert.Equal(t, "400 m (5 min caminando)", WalkingEstimate(0.4))
	assert.Equal(t, "2.5 km (30 min caminando)", WalkingEstimate(2.5))
	assert.Equal(t, "0 m (1 min caminando)", WalkingEstimate(0))
}

func TestPointValid(t *testing.T) {
	assert.True(t, Point{Lat: -33, Lon: -70}.Valid())
	assert.False(t, Point{Lat: -91, Lon: 0}.Valid())
	assert.False(t, Point{Lat: 0, Lon: 181}.Valid())
}
