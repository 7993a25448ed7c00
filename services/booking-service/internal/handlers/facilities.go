package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/md-rashed-zaman/carefinder/libs/httpx"
	"github.com/md-rashed-zaman/carefinder/services/booking-service/internal/facility"
	"github.com/md-rashed-zaman/carefinder/services/booking-service/internal/geo"
)

type Facilities interface {
	Nearby(ctx context.Context, q facility.Query) (facility.Result, error)
}

type FacilityHandler struct {
	facilities Facilities
	logger     *slog.Logger
}

func NewFacilityHandler(facilities Facilities, logger *slog.Logger) *FacilityHandler {
	return &FacilityHandler{facilities: facilities, logger: logger}
}

func (h *FacilityHandler) Nearby(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	lat, errLat := strconv.ParseFloat(strings.TrimSpace(q.Get("lat")), 64)
	lng, errLng := strconv.ParseFloat(strings.TrimSpace(q.Get("lng")), 64)
	if errLat != nil || errLng != nil {
		badRequest(w, r, "lat and lng are required numbers")
		return
	}
	query := facility.Query{
		Location:  geo.Point{Latitude: lat, Longitude: lng},
		Type:      q.Get("type"),
		Specialty: q.Get("specialty"),
	}
	if raw := strings.TrimSpace(q.Get("radius")); raw != "" {
		radius, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			badRequest(w, r, "radius must be a number")
			return
		}
		query.RadiusKm = &radius
	}
	limit, msg := queryInt(q, "limit")
	if msg != "" {
		badRequest(w, r, msg)
		return
	}
	query.Limit = limit

	res, err := h.facilities.Nearby(r.Context(), query)
	if err != nil {
		writeErr(w, r, h.logger, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, res)
}
