package storage

import (
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/md-rashed-zaman/carefinder/services/booking-service/internal/model"
)

// ActiveSlotIndex backs SlotKey uniqueness in Postgres.
const ActiveSlotIndex = "appointments_active_slot_uq"

var dialect = goqu.Dialect("postgres")

var appointmentColumns = []any{
	"id", "patient_id", "facility_id", "doctor_id", "appointment_date", "appointment_time",
	"duration_minutes", "status", "reason", "notes", "preferred_language", "cancel_reason",
	"created_at", "updated_at",
}

var facilityColumns = []any{
	"id", "name", "type", "specialties", "address", "city", "phone", "latitude", "longitude", "is_active",
}

func statusStrings(statuses []model.Status) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}

func insertAppointmentSQL(a model.Appointment) (string, []any, error) {
	return dialect.Insert("appointments").Prepared(true).Rows(goqu.Record{
		"id":                 a.ID,
		"patient_id":         a.PatientID,
		"facility_id":        a.FacilityID,
		"doctor_id":          a.DoctorID,
		"appointment_date":   a.Date.In(time.UTC),
		"appointment_time":   a.Time.String(),
		"duration_minutes":   a.DurationMinutes,
		"status":             string(a.Status),
		"reason":             a.Reason,
		"notes":              a.Notes,
		"preferred_language": a.PreferredLanguage,
		"cancel_reason":      a.CancelReason,
		"created_at":         a.CreatedAt,
		"updated_at":         a.UpdatedAt,
	}).Returning(appointmentColumns...).ToSQL()
}

func moveAppointmentSQL(m SlotMove) (string, []any, error) {
	return dialect.Update("appointments").Prepared(true).
		Set(goqu.Record{
			"appointment_date": m.Date.In(time.UTC),
			"appointment_time": m.Time.String(),
			"updated_at":       m.At,
		}).
		Where(goqu.Ex{"id": m.ID, "status": statusStrings(model.ActiveStatuses)}).
		Returning(appointmentColumns...).ToSQL()
}

func changeStatusSQL(c StatusChange) (string, []any, error) {
	set := goqu.Record{"status": string(c.To), "updated_at": c.At}
	if c.CancelReason != "" {
		set["cancel_reason"] = c.CancelReason
	}
	where := goqu.Ex{"id": c.ID, "status": statusStrings(c.From)}
	if !c.Date.IsZero() {
		where["appointment_date"] = c.Date.In(time.UTC)
		where["appointment_time"] = c.Time.String()
	}
	return dialect.Update("appointments").Prepared(true).
		Set(set).
		Where(where).
		Returning(appointmentColumns...).ToSQL()
}

func listAppointmentsSQL(f AppointmentFilter) (string, []any, error) {
	ds := appointmentsFor(f).Select(appointmentColumns...).
		Order(goqu.I("appointment_date").Desc(), goqu.I("appointment_time").Desc(), goqu.I("id").Asc())
	if f.Limit > 0 {
		ds = ds.Limit(uint(f.Limit))
	}
	if f.Offset > 0 {
		ds = ds.Offset(uint(f.Offset))
	}
	return ds.ToSQL()
}

func countAppointmentsSQL(f AppointmentFilter) (string, []any, error) {
	return appointmentsFor(f).Select(goqu.COUNT("*")).ToSQL()
}

func appointmentsFor(f AppointmentFilter) *goqu.SelectDataset {
	ds := dialect.From("appointments").Prepared(true).Where(goqu.Ex{"patient_id": f.PatientID})
	if f.Status != "" {
		ds = ds.Where(goqu.Ex{"status": string(f.Status)})
	}
	if !f.From.IsZero() {
		ds = ds.Where(goqu.C("appointment_date").Gte(f.From.In(time.UTC)))
	}
	if !f.To.IsZero() {
		ds = ds.Where(goqu.C("appointment_date").Lte(f.To.In(time.UTC)))
	}
	return ds
}

func activeFacilitiesSQL(f FacilityFilter) (string, []any, error) {
	ds := dialect.From("facilities").Prepared(true).Select(facilityColumns...).
		Where(goqu.Ex{"is_active": true})
	if f.Type != "" {
		ds = ds.Where(goqu.Ex{"type": f.Type})
	}
	if f.Specialty != "" {
		ds = ds.Where(goqu.L("? = ANY(specialties)", f.Specialty))
	}
	return ds.Order(goqu.I("id").Asc()).ToSQL()
}
