package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/jackc/pgx/v5"
	"github.com/md-rashed-zaman/carefinder/libs/db"
	"github.com/md-rashed-zaman/carefinder/services/booking-service/internal/calendar"
	"github.com/md-rashed-zaman/carefinder/services/booking-service/internal/model"
	"github.com/md-rashed-zaman/carefinder/services/booking-service/internal/outbox"
)

// Postgres is the production Store. Every appointment write records its
// outbox event in the same transaction.
type Postgres struct {
	pool   *db.Pool
	outbox *outbox.Repository
}

var _ Store = (*Postgres)(nil)

func NewPostgres(pool *db.Pool, events *outbox.Repository) *Postgres {
	return &Postgres{pool: pool, outbox: events}
}

func (p *Postgres) GetDoctor(ctx context.Context, id string) (model.Doctor, error) {
	var (
		d          model.Doctor
		start, end string
		days       []string
	)
	err := p.pool.QueryRow(ctx, `
		SELECT id, facility_id, name, specialty, is_active, work_start, work_end, working_days
		FROM doctors
		WHERE id = $1
	`, id).Scan(&d.ID, &d.FacilityID, &d.Name, &d.Specialty, &d.IsActive, &start, &end, &days)
	if err != nil {
		return model.Doctor{}, notFound(err)
	}
	from, err := calendar.ParseClock(start)
	if err != nil {
		return model.Doctor{}, fmt.Errorf("doctor %s work_start: %w", id, err)
	}
	to, err := calendar.ParseClock(end)
	if err != nil {
		return model.Doctor{}, fmt.Errorf("doctor %s work_end: %w", id, err)
	}
	if d.WorkingHours, err = model.NewWorkingHours(from, to, days); err != nil {
		return model.Doctor{}, fmt.Errorf("doctor %s: %w", id, err)
	}
	return d, nil
}

func (p *Postgres) GetFacility(ctx context.Context, id string) (model.Facility, error) {
	query, args, err := dialect.From("facilities").Prepared(true).Select(facilityColumns...).
		Where(goqu.Ex{"id": id}).ToSQL()
	if err != nil {
		return model.Facility{}, err
	}
	f, err := scanFacility(p.pool.QueryRow(ctx, query, args...))
	if err != nil {
		return model.Facility{}, notFound(err)
	}
	return f, nil
}

func (p *Postgres) ActiveFacilities(ctx context.Context, filter FacilityFilter) ([]model.Facility, error) {
	query, args, err := activeFacilitiesSQL(filter)
	if err != nil {
		return nil, err
	}
	rows, err := p.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.Facility, error) {
		return scanFacility(row)
	})
}

func (p *Postgres) GetAppointment(ctx context.Context, id string) (model.Appointment, error) {
	query, args, err := dialect.From("appointments").Prepared(true).Select(appointmentColumns...).
		Where(goqu.Ex{"id": id}).ToSQL()
	if err != nil {
		return model.Appointment{}, err
	}
	appt, err := scanAppointment(p.pool.QueryRow(ctx, query, args...))
	if err != nil {
		return model.Appointment{}, notFound(err)
	}
	return appt, nil
}

func (p *Postgres) OccupiedTimes(ctx context.Context, doctorID string, date calendar.Date) ([]calendar.Clock, error) {
	query, args, err := dialect.From("appointments").Prepared(true).Select("appointment_time").
		Where(goqu.Ex{
			"doctor_id":        doctorID,
			"appointment_date": date.In(time.UTC),
			"status":           statusStrings(model.ActiveStatuses),
		}).ToSQL()
	if err != nil {
		return nil, err
	}
	rows, err := p.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (calendar.Clock, error) {
		var s string
		if err := row.Scan(&s); err != nil {
			return 0, err
		}
		return calendar.ParseClock(s)
	})
}

func (p *Postgres) ListAppointments(ctx context.Context, f AppointmentFilter) ([]model.Appointment, int, error) {
	countSQL, countArgs, err := countAppointmentsSQL(f)
	if err != nil {
		return nil, 0, err
	}
	var total int
	if err := p.pool.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, err
	}
	query, args, err := listAppointmentsSQL(f)
	if err != nil {
		return nil, 0, err
	}
	rows, err := p.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	appts, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.Appointment, error) {
		return scanAppointment(row)
	})
	return appts, total, err
}

func (p *Postgres) InsertAppointment(ctx context.Context, appt model.Appointment) (model.Appointment, error) {
	query, args, err := insertAppointmentSQL(appt)
	if err != nil {
		return model.Appointment{}, err
	}
	return p.write(ctx, outbox.EventAppointmentBooked, query, args)
}

func (p *Postgres) MoveAppointment(ctx context.Context, m SlotMove) (model.Appointment, error) {
	query, args, err := moveAppointmentSQL(m)
	if err != nil {
		return model.Appointment{}, err
	}
	return p.write(ctx, outbox.EventAppointmentRescheduled, query, args)
}

func (p *Postgres) ChangeStatus(ctx context.Context, c StatusChange) (model.Appointment, error) {
	query, args, err := changeStatusSQL(c)
	if err != nil {
		return model.Appointment{}, err
	}
	return p.write(ctx, outbox.StatusEventType(c.To), query, args)
}

// write runs a single-row RETURNING statement and its outbox insert in one
// transaction. The partial unique index on active slots makes check and write
// a single step, so a concurrent loser sees ErrSlotTaken.
func (p *Postgres) write(ctx context.Context, eventType, query string, args []any) (model.Appointment, error) {
	var appt model.Appointment
	err := p.pool.InTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted}, func(tx pgx.Tx) error {
		var err error
		appt, err = scanAppointment(tx.QueryRow(ctx, query, args...))
		if err != nil {
			return err
		}
		evt, err := outbox.AppointmentEvent(eventType, appt)
		if err != nil {
			return err
		}
		return p.outbox.Insert(ctx, tx, evt)
	})
	switch {
	case err == nil:
		return appt, nil
	case db.IsUniqueViolation(err, ActiveSlotIndex):
		return model.Appointment{}, ErrSlotTaken
	case db.IsNoRows(err):
		return model.Appointment{}, ErrStale
	default:
		return model.Appointment{}, err
	}
}

func notFound(err error) error {
	if db.IsNoRows(err) {
		return ErrNotFound
	}
	return err
}

func scanAppointment(row pgx.Row) (model.Appointment, error) {
	var (
		a      model.Appointment
		date   time.Time
		clock  string
		status string
	)
	err := row.Scan(&a.ID, &a.PatientID, &a.FacilityID, &a.DoctorID, &date, &clock,
		&a.DurationMinutes, &status, &a.Reason, &a.Notes, &a.PreferredLanguage, &a.CancelReason,
		&a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return model.Appointment{}, err
	}
	a.Date = calendar.DateOf(date)
	a.Status = model.Status(status)
	if a.Time, err = calendar.ParseClock(clock); err != nil {
		return model.Appointment{}, fmt.Errorf("appointment %s time: %w", a.ID, err)
	}
	return a, nil
}

func scanFacility(row pgx.Row) (model.Facility, error) {
	var f model.Facility
	err := row.Scan(&f.ID, &f.Name, &f.Type, &f.Specialties, &f.Address, &f.City, &f.Phone,
		&f.Location.Latitude, &f.Location.Longitude, &f.IsActive)
	return f, err
}
