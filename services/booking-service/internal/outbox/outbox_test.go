package outbox

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/md-rashed-zaman/carefinder/libs/kafkax"
	"github.com/md-rashed-zaman/carefinder/services/booking-service/internal/calendar"
	"github.com/md-rashed-zaman/carefinder/services/booking-service/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

func TestAppointmentEventPayload(t *testing.T) {
	appt := model.Appointment{
		ID:         "a1",
		PatientID:  "p1",
		DoctorID:   "d1",
		FacilityID: "f1",
		Date:       calendar.NewDate(2025, time.March, 10),
		Time:       calendar.NewClock(9, 30),
		Status:     model.StatusScheduled,
		UpdatedAt:  time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	evt, err := AppointmentEvent(EventAppointmentBooked, appt)
	require.NoError(t, err)
	assert.Equal(t, AggregateAppointment, evt.AggregateType)
	assert.Equal(t, "a1", evt.AggregateID)

	var got AppointmentPayload
	require.NoError(t, json.Unmarshal(evt.Payload, &got))
	assert.Equal(t, "2025-03-10", got.Date)
	assert.Equal(t, "09:30", got.Time)
	assert.Equal(t, "scheduled", got.Status)
}

func TestStatusEventType(t *testing.T) {
	assert.Equal(t, EventAppointmentCancelled, StatusEventType(model.StatusCancelled))
	assert.Equal(t, EventAppointmentStatusChanged, StatusEventType(model.StatusCompleted))
}

func TestMessagesCarryHeadersAndTrace(t *testing.T) {
	prev := otel.GetTextMapPropagator()
	otel.SetTextMapPropagator(propagation.TraceContext{})
	t.Cleanup(func() { otel.SetTextMapPropagator(prev) })

	traceparent := "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01"
	msgs := Messages(context.Background(), []Record{{
		ID:          7,
		EventID:     "e-7",
		AggregateID: "a1",
		EventType:   EventAppointmentBooked,
		Payload:     []byte(`{}`),
		Traceparent: traceparent,
	}})
	require.Len(t, msgs, 1)
	assert.Equal(t, EventAppointmentBooked, msgs[0].Topic)
	assert.Equal(t, "a1", string(msgs[0].Key))
	assert.Equal(t, "e-7", kafkax.HeaderValue(msgs[0].Headers, kafkax.HeaderEventID))
	assert.Equal(t, traceparent, kafkax.HeaderValue(msgs[0].Headers, "traceparent"))
}
