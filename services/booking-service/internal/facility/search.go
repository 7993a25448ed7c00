// Package facility finds active care facilities near a point.
package facility

import (
	"cmp"
	"context"
	"log/slog"
	"math"
	"slices"
	"strings"
	"time"

	"github.com/md-rashed-zaman/carefinder/services/booking-service/internal/apperr"
	"github.com/md-rashed-zaman/carefinder/services/booking-service/internal/geo"
	"github.com/md-rashed-zaman/carefinder/services/booking-service/internal/model"
	"github.com/md-rashed-zaman/carefinder/services/booking-service/internal/storage"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	DefaultRadiusKm = 20.0
	MinRadiusKm     = 0.1
	MaxRadiusKm     = 50.0
	DefaultLimit    = 20
	MaxLimit        = 50

	// minutesPerKm is the advisory urban travel estimate.
	minutesPerKm = 3
)

type Source interface {
	ActiveFacilities(ctx context.Context, f storage.FacilityFilter) ([]model.Facility, error)
}

// Query describes a proximity search. A nil RadiusKm or Limit takes the
// default; an explicit value is validated as given.
type Query struct {
	Location  geo.Point
	RadiusKm  *float64
	Type      string
	Specialty string
	Limit     *int
}

// normalize applies defaults and rejects out-of-range input.
func (q *Query) normalize() error {
	q.Type = strings.ToLower(strings.TrimSpace(q.Type))
	q.Specialty = strings.TrimSpace(q.Specialty)
	if q.RadiusKm == nil {
		radius := DefaultRadiusKm
		q.RadiusKm = &radius
	}
	if q.Limit == nil {
		limit := DefaultLimit
		q.Limit = &limit
	}
	if err := q.Location.Validate(); err != nil {
		return apperr.Validation("invalid location: %v", err)
	}
	if r := *q.RadiusKm; math.IsNaN(r) || r < MinRadiusKm || r > MaxRadiusKm {
		return apperr.Validation("radius must be between %.1f and %.0f km", MinRadiusKm, MaxRadiusKm)
	}
	if l := *q.Limit; l < 1 || l > MaxLimit {
		return apperr.Validation("limit must be between 1 and %d", MaxLimit)
	}
	if q.Type != "" && !model.ValidFacilityType(q.Type) {
		return apperr.Validation("unknown facility type %q", q.Type)
	}
	return nil
}

type Match struct {
	model.Facility
	DistanceKm             float64 `json:"distance"`
	EstimatedTravelMinutes int     `json:"estimatedTravelTime"`
}

type Result struct {
	Facilities    []Match   `json:"facilities"`
	TotalFound    int       `json:"totalFound"`
	TotalReturned int       `json:"totalReturned"`
	SearchRadius  float64   `json:"searchRadius"`
	UserLocation  geo.Point `json:"userLocation"`
}

type Searcher struct {
	source   Source
	logger   *slog.Logger
	timeout  time.Duration
	searches metric.Int64Counter
}

func NewSearcher(source Source, logger *slog.Logger, timeout time.Duration) *Searcher {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	s := &Searcher{source: source, logger: logger, timeout: timeout}
	meter := otel.Meter("github.com/md-rashed-zaman/carefinder/facility")
	if c, err := meter.Int64Counter("facility.searches", metric.WithDescription("Nearby facility searches")); err == nil {
		s.searches = c
	}
	return s
}

// Nearby returns active facilities within q.RadiusKm of q.Location, nearest
// first, ties broken by facility id.
func (s *Searcher) Nearby(ctx context.Context, q Query) (Result, error) {
	if err := q.normalize(); err != nil {
		return Result{}, err
	}
	sctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	candidates, err := s.source.ActiveFacilities(sctx, storage.FacilityFilter{Type: q.Type, Specialty: q.Specialty})
	if err != nil {
		if sctx.Err() != nil {
			return Result{}, apperr.Timeout("facility search timed out", err)
		}
		return Result{}, apperr.Unavailable("facility search failed", err)
	}
	radius, limit := *q.RadiusKm, *q.Limit

	var matches []Match
	for _, f := range candidates {
		if !f.IsActive {
			continue
		}
		if err := f.Location.Validate(); err != nil {
			s.logger.Warn("facility has invalid coordinates", "facility_id", f.ID, "err", err)
			continue
		}
		d := geo.Distance(q.Location, f.Location)
		if d > radius {
			continue
		}
		matches = append(matches, Match{
			Facility:               f,
			DistanceKm:             d,
			EstimatedTravelMinutes: int(math.Round(d * minutesPerKm)),
		})
	}
	slices.SortFunc(matches, func(a, b Match) int {
		if c := cmp.Compare(a.DistanceKm, b.DistanceKm); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})

	res := Result{
		Facilities:   []Match{},
		TotalFound:   len(matches),
		SearchRadius: radius,
		UserLocation: q.Location,
	}
	if len(matches) > limit {
		matches = matches[:limit]
	}
	for i := range matches {
		matches[i].DistanceKm = math.Round(matches[i].DistanceKm*100) / 100
	}
	if matches != nil {
		res.Facilities = matches
	}
	res.TotalReturned = len(res.Facilities)

	if s.searches != nil {
		s.searches.Add(ctx, 1, metric.WithAttributes(attribute.String("type", q.Type)))
	}
	return res, nil
}
