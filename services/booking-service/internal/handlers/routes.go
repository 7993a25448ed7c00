package handlers

import (
	"net/http"

	"github.com/md-rashed-zaman/carefinder/libs/httpx"
)

// Register mounts the public API on mux. requireAuth guards patient and staff
// routes; optionalAuth fronts the public read routes.
func Register(mux *http.ServeMux, appts *AppointmentHandler, facilities *FacilityHandler, requireAuth, optionalAuth httpx.Middleware) {
	guard := func(h http.HandlerFunc) http.Handler { return requireAuth(h) }
	open := func(h http.HandlerFunc) http.Handler { return optionalAuth(h) }

	mux.Handle("GET /api/v1/facilities/nearby", open(facilities.Nearby))
	mux.Handle("GET /api/v1/doctors/{doctorID}/availability", open(appts.Availability))

	mux.Handle("POST /api/v1/appointments", guard(appts.Create))
	mux.Handle("GET /api/v1/appointments", guard(appts.List))
	mux.Handle("GET /api/v1/appointments/{id}", guard(appts.Get))
	mux.Handle("PUT /api/v1/appointments/{id}", guard(appts.Reschedule))
	mux.Handle("DELETE /api/v1/appointments/{id}", guard(appts.Cancel))
	mux.Handle("POST /api/v1/appointments/{id}/status", guard(appts.MarkStatus))
}
