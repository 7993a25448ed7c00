package facility

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"testing"
	"time"

	"github.com/md-rashed-zaman/carefinder/services/booking-service/internal/apperr"
	"github.com/md-rashed-zaman/carefinder/services/booking-service/internal/geo"
	"github.com/md-rashed-zaman/carefinder/services/booking-service/internal/model"
	"github.com/md-rashed-zaman/carefinder/services/booking-service/internal/storage"
	"github.com/md-rashed-zaman/carefinder/services/booking-service/internal/storage/memory"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var origin = geo.Point{Latitude: -1.95, Longitude: 30.06}

// north returns the point km kilometres due north of origin.
func north(km float64) geo.Point {
	return geo.Point{Latitude: origin.Latitude + km/(geo.EarthRadiusKm*math.Pi/180), Longitude: origin.Longitude}
}

func ptr[T any](v T) *T { return &v }

func discard() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func seeded() *memory.Store {
	s := memory.New()
	for id, km := range map[string]float64{"f-21": 2.1, "f-49": 4.9, "f-51": 5.1, "f-100": 10} {
		s.PutFacility(model.Facility{ID: id, Name: id, Type: model.FacilityClinic, Location: north(km), IsActive: true})
	}
	return s
}

func TestNearbyRadiusFilter(t *testing.T) {
	s := NewSearcher(seeded(), discard(), time.Second)
	res, err := s.Nearby(context.Background(), Query{Location: origin, RadiusKm: ptr(5.0)})
	require.NoError(t, err)
	assert.Equal(t, 2, res.TotalFound)
	assert.Equal(t, 2, res.TotalReturned)
	require.Len(t, res.Facilities, 2)
	assert.Equal(t, "f-21", res.Facilities[0].ID)
	assert.Equal(t, 2.1, res.Facilities[0].DistanceKm)
	assert.Equal(t, 6, res.Facilities[0].EstimatedTravelMinutes)
	assert.Equal(t, 4.9, res.Facilities[1].DistanceKm)
	assert.Equal(t, 5.0, res.SearchRadius)
	assert.Equal(t, origin, res.UserLocation)
}

func TestNearbyTruncatesAndBreaksTies(t *testing.T) {
	src := seeded()
	src.PutFacility(model.Facility{ID: "f-20", Type: model.FacilityClinic, Location: north(2.1), IsActive: true})
	s := NewSearcher(src, discard(), time.Second)

	res, err := s.Nearby(context.Background(), Query{Location: origin, Limit: ptr(2)})
	require.NoError(t, err)
	assert.Equal(t, 5, res.TotalFound)
	assert.Equal(t, 2, res.TotalReturned)
	assert.Equal(t, "f-20", res.Facilities[0].ID)
	assert.Equal(t, "f-21", res.Facilities[1].ID)
	assert.Equal(t, DefaultRadiusKm, res.SearchRadius)
}

func TestNearbySkipsInactiveAndBadCoordinates(t *testing.T) {
	src := memory.New()
	src.PutFacility(model.Facility{ID: "ok", Type: model.FacilityHospital, Location: north(1), IsActive: true})
	src.PutFacility(model.Facility{ID: "closed", Type: model.FacilityHospital, Location: north(1)})
	src.PutFacility(model.Facility{ID: "broken", Type: model.FacilityHospital, Location: geo.Point{Latitude: 123}, IsActive: true})

	res, err := NewSearcher(src, discard(), time.Second).Nearby(context.Background(), Query{Location: origin})
	require.NoError(t, err)
	require.Len(t, res.Facilities, 1)
	assert.Equal(t, "ok", res.Facilities[0].ID)
	for _, m := range res.Facilities {
		assert.False(t, math.IsNaN(m.DistanceKm))
	}
}

func TestNearbyRejectsBadQuery(t *testing.T) {
	s := NewSearcher(seeded(), discard(), time.Second)
	cases := map[string]Query{
		"latitude":   {Location: geo.Point{Latitude: 91}},
		"nan":        {Location: geo.Point{Latitude: math.NaN()}},
		"small":      {Location: origin, RadiusKm: ptr(0.05)},
		"zero":       {Location: origin, RadiusKm: ptr(0.0)},
		"large":      {Location: origin, RadiusKm: ptr(51.0)},
		"limit":      {Location: origin, Limit: ptr(51)},
		"zero limit": {Location: origin, Limit: ptr(0)},
		"type":       {Location: origin, Type: "spa"},
		"neg limit":  {Location: origin, Limit: ptr(-1)},
	}
	for name, q := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := s.Nearby(context.Background(), q)
			assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
		})
	}
}

func TestNearbyRadiusBoundsAreInclusive(t *testing.T) {
	s := NewSearcher(seeded(), discard(), time.Second)
	for _, r := range []float64{MinRadiusKm, MaxRadiusKm} {
		res, err := s.Nearby(context.Background(), Query{Location: origin, RadiusKm: ptr(r)})
		require.NoError(t, err, r)
		assert.Equal(t, r, res.SearchRadius)
	}
}

func TestNearbyEmptyResultIsNotNil(t *testing.T) {
	res, err := NewSearcher(memory.New(), discard(), time.Second).Nearby(context.Background(), Query{Location: origin})
	require.NoError(t, err)
	assert.NotNil(t, res.Facilities)
	assert.Zero(t, res.TotalFound)
}

type fakeCache struct {
	data   map[string][]byte
	sets   int
	getErr error
}

func (c *fakeCache) Get(_ context.Context, key string) *redis.StringCmd {
	if c.getErr != nil {
		return redis.NewStringResult("", c.getErr)
	}
	v, ok := c.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(string(v), nil)
}

func (c *fakeCache) Set(_ context.Context, key string, value any, _ time.Duration) *redis.StatusCmd {
	c.sets++
	c.data[key] = value.([]byte)
	return redis.NewStatusResult("OK", nil)
}

type countingSource struct {
	Source
	calls int
}

func (c *countingSource) ActiveFacilities(ctx context.Context, f storage.FacilityFilter) ([]model.Facility, error) {
	c.calls++
	return c.Source.ActiveFacilities(ctx, f)
}

func TestCachedSourceServesRepeatFromCache(t *testing.T) {
	src := &countingSource{Source: seeded()}
	cache := &fakeCache{data: map[string][]byte{}}
	cached := NewCachedSource(src, cache, time.Minute, discard())

	first, err := cached.ActiveFacilities(context.Background(), storage.FacilityFilter{Type: model.FacilityClinic})
	require.NoError(t, err)
	second, err := cached.ActiveFacilities(context.Background(), storage.FacilityFilter{Type: model.FacilityClinic})
	require.NoError(t, err)

	assert.Equal(t, 1, src.calls)
	assert.Equal(t, 1, cache.sets)
	assert.Equal(t, first, second)

	_, err = cached.ActiveFacilities(context.Background(), storage.FacilityFilter{Specialty: "dental"})
	require.NoError(t, err)
	assert.Equal(t, 2, src.calls)
}

func TestCachedSourceFallsThroughOnCacheError(t *testing.T) {
	src := &countingSource{Source: seeded()}
	cache := &fakeCache{data: map[string][]byte{}, getErr: errors.New("connection refused")}
	out, err := NewCachedSource(src, cache, time.Minute, discard()).ActiveFacilities(context.Background(), storage.FacilityFilter{})
	require.NoError(t, err)
	assert.Len(t, out, 4)
	assert.Equal(t, 1, src.calls)
}
