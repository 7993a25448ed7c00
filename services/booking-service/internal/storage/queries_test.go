package storage

import (
	"testing"
	"time"

	"github.com/md-rashed-zaman/carefinder/services/booking-service/internal/calendar"
	"github.com/md-rashed-zaman/carefinder/services/booking-service/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListAppointmentsSQL(t *testing.T) {
	query, args, err := listAppointmentsSQL(AppointmentFilter{
		PatientID: "p1",
		Status:    model.StatusScheduled,
		From:      calendar.NewDate(2025, time.March, 1),
		Limit:     20,
		Offset:    40,
	})
	require.NoError(t, err)
	assert.Contains(t, query, `FROM "appointments"`)
	assert.Contains(t, query, `"patient_id" = $1`)
	assert.Contains(t, query, `"status" = $2`)
	assert.Contains(t, query, `"appointment_date" >= $3`)
	assert.Contains(t, query, `ORDER BY "appointment_date" DESC, "appointment_time" DESC`)
	assert.NotContains(t, query, "p1")
	assert.Equal(t, "p1", args[0])
}

func TestCountAppointmentsSQLSharesFilter(t *testing.T) {
	query, args, err := countAppointmentsSQL(AppointmentFilter{PatientID: "p1"})
	require.NoError(t, err)
	assert.Contains(t, query, "COUNT(*)")
	assert.Contains(t, query, `"patient_id" = $1`)
	assert.NotContains(t, query, "ORDER BY")
	assert.Equal(t, []any{"p1"}, args)
}

func TestChangeStatusSQLIsConditional(t *testing.T) {
	query, _, err := changeStatusSQL(StatusChange{
		ID:           "a1",
		From:         model.ActiveStatuses,
		To:           model.StatusCancelled,
		CancelReason: "travel",
		At:           time.Now(),
	})
	require.NoError(t, err)
	assert.Contains(t, query, `UPDATE "appointments"`)
	assert.Contains(t, query, `"status" IN (`)
	assert.Contains(t, query, `"cancel_reason"`)
	assert.Contains(t, query, "RETURNING")
}

func TestChangeStatusSQLPinsObservedSlot(t *testing.T) {
	query, args, err := changeStatusSQL(StatusChange{
		ID:   "a1",
		From: model.ActiveStatuses,
		To:   model.StatusCancelled,
		Date: calendar.NewDate(2025, time.March, 11),
		Time: calendar.NewClock(9, 0),
		At:   time.Now(),
	})
	require.NoError(t, err)
	assert.Contains(t, query, `"appointment_date" =`)
	assert.Contains(t, query, `"appointment_time" =`)
	assert.Contains(t, args, "09:00")
	assert.Len(t, args, 7)

	query, args, err = changeStatusSQL(StatusChange{ID: "a1", From: model.ActiveStatuses, To: model.StatusCompleted, At: time.Now()})
	require.NoError(t, err)
	assert.NotContains(t, query, `"appointment_date" =`)
	assert.NotContains(t, query, `"appointment_time" =`)
	assert.Len(t, args, 5)
}

func TestMoveAppointmentSQLOnlyTouchesActiveRows(t *testing.T) {
	query, args, err := moveAppointmentSQL(SlotMove{
		ID:   "a1",
		Date: calendar.NewDate(2025, time.March, 11),
		Time: calendar.NewClock(10, 0),
		At:   time.Now(),
	})
	require.NoError(t, err)
	assert.Contains(t, query, `"status" IN (`)
	assert.Contains(t, args, "10:00")
	assert.Contains(t, args, "scheduled")
	assert.Contains(t, args, "confirmed")
}

func TestActiveFacilitiesSQL(t *testing.T) {
	query, args, err := activeFacilitiesSQL(FacilityFilter{Type: "clinic", Specialty: "cardiology"})
	require.NoError(t, err)
	assert.Contains(t, query, `"is_active"`)
	assert.Contains(t, query, "= ANY(specialties)")
	assert.Contains(t, args, "clinic")
	assert.Contains(t, args, "cardiology")

	query, _, err = activeFacilitiesSQL(FacilityFilter{})
	require.NoError(t, err)
	assert.NotContains(t, query, "ANY(specialties)")
}
