package geo

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDistanceKnownPairs(t *testing.T) {
	kigali := Point{Latitude: -1.9441, Longitude: 30.0619}
	nairobi := Point{Latitude: -1.2921, Longitude: 36.8219}

	// ~756 km between city centres.
	assert.InDelta(t, 756, Distance(kigali, nairobi), 5)

	// One degree of latitude is ~111.19 km on a 6371 km sphere.
	assert.InDelta(t, 111.195, DistanceKm(0, 0, 1, 0), 0.01)

	// Antipodes are half the circumference.
	assert.InDelta(t, math.Pi*EarthRadiusKm, DistanceKm(0, 0, 0, 180), 1e-6)
}

func TestDistanceSymmetricAndZero(t *testing.T) {
	r := rand.New(rand.NewPCG(1, 2))
	for i := 0; i < 1000; i++ {
		a := Point{Latitude: r.Float64()*180 - 90, Longitude: r.Float64()*360 - 180}
		b := Point{Latitude: r.Float64()*180 - 90, Longitude: r.Float64()*360 - 180}

		ab := Distance(a, b)
		assert.InDelta(t, ab, Distance(b, a), 1e-6)
		assert.InDelta(t, 0, Distance(a, a), 1e-9)
		assert.False(t, math.IsNaN(ab))
		assert.GreaterOrEqual(t, ab, 0.0)
	}
}

func TestValidate(t *testing.T) {
	assert.NoError(t, Point{Latitude: -1.95, Longitude: 30.06}.Validate())
	assert.NoError(t, Point{Latitude: 90, Longitude: -180}.Validate())
	assert.Error(t, Point{Latitude: 90.1, Longitude: 0}.Validate())
	assert.Error(t, Point{Latitude: 0, Longitude: 180.5}.Validate())
	assert.Error(t, Point{Latitude: math.NaN(), Longitude: 0}.Validate())
	assert.Error(t, Point{Latitude: 0, Longitude: math.Inf(1)}.Validate())
}
