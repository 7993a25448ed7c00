package handlers

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/md-rashed-zaman/carefinder/libs/auth"
	"github.com/md-rashed-zaman/carefinder/libs/httpx"
	"github.com/md-rashed-zaman/carefinder/services/booking-service/internal/booking"
	"github.com/md-rashed-zaman/carefinder/services/booking-service/internal/calendar"
	"github.com/md-rashed-zaman/carefinder/services/booking-service/internal/model"
)

// Bookings is the booking core as seen by the HTTP layer.
type Bookings interface {
	Create(ctx context.Context, actor auth.Actor, req booking.CreateRequest) (model.Appointment, error)
	Reschedule(ctx context.Context, actor auth.Actor, id string, date calendar.Date, at calendar.Clock) (model.Appointment, error)
	Cancel(ctx context.Context, actor auth.Actor, id, reason string) (model.Appointment, error)
	MarkStatus(ctx context.Context, actor auth.Actor, id string, to model.Status) (model.Appointment, error)
	Get(ctx context.Context, actor auth.Actor, id string) (model.Appointment, error)
	List(ctx context.Context, actor auth.Actor, f booking.ListFilter) (booking.Page, error)
	Availability(ctx context.Context, doctorID, facilityID string, date calendar.Date) (booking.Availability, error)
}

type AppointmentHandler struct {
	bookings Bookings
	logger   *slog.Logger
}

func NewAppointmentHandler(bookings Bookings, logger *slog.Logger) *AppointmentHandler {
	return &AppointmentHandler{bookings: bookings, logger: logger}
}

type createAppointmentRequest struct {
	DoctorID          string `json:"doctorId"`
	FacilityID        string `json:"facilityId"`
	AppointmentDate   string `json:"appointmentDate"`
	AppointmentTime   string `json:"appointmentTime"`
	Reason            string `json:"reason"`
	Notes             string `json:"notes"`
	PreferredLanguage string `json:"preferredLanguage"`
}

type rescheduleRequest struct {
	AppointmentDate string `json:"appointmentDate"`
	AppointmentTime string `json:"appointmentTime"`
}

type cancelRequest struct {
	Reason string `json:"reason"`
}

type statusRequest struct {
	Status string `json:"status"`
}

type appointmentResponse struct {
	ID                string `json:"id"`
	PatientID         string `json:"patientId"`
	FacilityID        string `json:"facilityId"`
	DoctorID          string `json:"doctorId"`
	AppointmentDate   string `json:"appointmentDate"`
	AppointmentTime   string `json:"appointmentTime"`
	DurationMinutes   int    `json:"duration"`
	Status            string `json:"status"`
	Reason            string `json:"reason"`
	Notes             string `json:"notes,omitempty"`
	PreferredLanguage string `json:"preferredLanguage"`
	CancelReason      string `json:"cancelReason,omitempty"`
	CreatedAt         string `json:"createdAt"`
	UpdatedAt         string `json:"updatedAt"`
}

type listResponse struct {
	Appointments []appointmentResponse `json:"appointments"`
	Pagination   booking.Pagination    `json:"pagination"`
}

func toResponse(a model.Appointment) appointmentResponse {
	return appointmentResponse{
		ID:                a.ID,
		PatientID:         a.PatientID,
		FacilityID:        a.FacilityID,
		DoctorID:          a.DoctorID,
		AppointmentDate:   a.Date.String(),
		AppointmentTime:   a.Time.String(),
		DurationMinutes:   a.DurationMinutes,
		Status:            string(a.Status),
		Reason:            a.Reason,
		Notes:             a.Notes,
		PreferredLanguage: a.PreferredLanguage,
		CancelReason:      a.CancelReason,
		CreatedAt:         a.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:         a.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func parseSlot(date, at string) (calendar.Date, calendar.Clock, string) {
	d, err := calendar.ParseDate(date)
	if err != nil {
		return calendar.Date{}, 0, "appointmentDate must be YYYY-MM-DD"
	}
	c, err := calendar.ParseClock(at)
	if err != nil {
		return calendar.Date{}, 0, "appointmentTime must be HH:MM"
	}
	return d, c, ""
}

func queryDate(q url.Values, key string) (calendar.Date, string) {
	raw := strings.TrimSpace(q.Get(key))
	if raw == "" {
		return calendar.Date{}, ""
	}
	d, err := calendar.ParseDate(raw)
	if err != nil {
		return calendar.Date{}, key + " must be YYYY-MM-DD"
	}
	return d, ""
}

// queryInt returns nil when key is absent.
func queryInt(q url.Values, key string) (*int, string) {
	raw := strings.TrimSpace(q.Get(key))
	if raw == "" {
		return nil, ""
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return nil, key + " must be an integer"
	}
	return &n, ""
}

func (h *AppointmentHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.ActorFromContext(r.Context())
	var req createAppointmentRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		badRequest(w, r, "invalid json body")
		return
	}
	date, at, msg := parseSlot(req.AppointmentDate, req.AppointmentTime)
	if msg != "" {
		badRequest(w, r, msg)
		return
	}
	appt, err := h.bookings.Create(r.Context(), actor, booking.CreateRequest{
		DoctorID:          req.DoctorID,
		FacilityID:        req.FacilityID,
		Date:              date,
		Time:              at,
		Reason:            req.Reason,
		Notes:             req.Notes,
		PreferredLanguage: req.PreferredLanguage,
	})
	if err != nil {
		writeErr(w, r, h.logger, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, toResponse(appt))
}

func (h *AppointmentHandler) Get(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.ActorFromContext(r.Context())
	appt, err := h.bookings.Get(r.Context(), actor, r.PathValue("id"))
	if err != nil {
		writeErr(w, r, h.logger, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toResponse(appt))
}

func (h *AppointmentHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.ActorFromContext(r.Context())
	q := r.URL.Query()

	var f booking.ListFilter
	if raw := strings.TrimSpace(q.Get("status")); raw != "" {
		st, ok := model.ParseStatus(raw)
		if !ok {
			badRequest(w, r, "unknown status")
			return
		}
		f.Status = st
	}
	var msg string
	if f.From, msg = queryDate(q, "start_date"); msg == "" {
		f.To, msg = queryDate(q, "end_date")
	}
	if msg == "" {
		f.Page, msg = queryInt(q, "page")
	}
	if msg == "" {
		f.Limit, msg = queryInt(q, "limit")
	}
	if msg != "" {
		badRequest(w, r, msg)
		return
	}

	page, err := h.bookings.List(r.Context(), actor, f)
	if err != nil {
		writeErr(w, r, h.logger, err)
		return
	}
	out := listResponse{Appointments: make([]appointmentResponse, 0, len(page.Items)), Pagination: page.Pagination}
	for _, a := range page.Items {
		out.Appointments = append(out.Appointments, toResponse(a))
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

func (h *AppointmentHandler) Reschedule(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.ActorFromContext(r.Context())
	var req rescheduleRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		badRequest(w, r, "invalid json body")
		return
	}
	date, at, msg := parseSlot(req.AppointmentDate, req.AppointmentTime)
	if msg != "" {
		badRequest(w, r, msg)
		return
	}
	appt, err := h.bookings.Reschedule(r.Context(), actor, r.PathValue("id"), date, at)
	if err != nil {
		writeErr(w, r, h.logger, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toResponse(appt))
}

func (h *AppointmentHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.ActorFromContext(r.Context())
	var req cancelRequest
	if err := httpx.DecodeJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
		badRequest(w, r, "invalid json body")
		return
	}
	appt, err := h.bookings.Cancel(r.Context(), actor, r.PathValue("id"), req.Reason)
	if err != nil {
		writeErr(w, r, h.logger, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toResponse(appt))
}

func (h *AppointmentHandler) MarkStatus(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.ActorFromContext(r.Context())
	var req statusRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		badRequest(w, r, "invalid json body")
		return
	}
	to, ok := model.ParseStatus(strings.TrimSpace(req.Status))
	if !ok {
		badRequest(w, r, "unknown status")
		return
	}
	appt, err := h.bookings.MarkStatus(r.Context(), actor, r.PathValue("id"), to)
	if err != nil {
		writeErr(w, r, h.logger, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toResponse(appt))
}

func (h *AppointmentHandler) Availability(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	date, err := calendar.ParseDate(q.Get("date"))
	if err != nil {
		badRequest(w, r, "date must be YYYY-MM-DD")
		return
	}
	avail, err := h.bookings.Availability(r.Context(), r.PathValue("doctorID"), strings.TrimSpace(q.Get("facility_id")), date)
	if err != nil {
		writeErr(w, r, h.logger, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, avail)
}
