package repository

import (
	"testing"
	"time"

	"github.com/estatehub/service-scheduling/internal/domain/availability"
	bookingDomain "github.com/estatehub/service-scheduling/internal/domain/booking"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBookingModel_SubjectColumns(t *testing.T) {
	now := time.Date(2026, 10, 16, 8, 0, 0, 0, time.UTC)
	property := uuid.New()
	bk, err := bookingDomain.NewBooking(bookingDomain.NewBookingParams{
		ProviderID:      uuid.New(),
		Subject:         bookingDomain.PropertySubject(property),
		ScheduledStart:  now.Add(48 * time.Hour),
		DurationMinutes: 90,
		RequestedBy:     uuid.New(),
	}, now)
	require.NoError(t, err)

	model := toBookingModel(bk)
	assert.Nil(t, model.LeadID)
	require.NotNil(t, model.PropertyID)
	assert.Equal(t, property, *model.PropertyID)
	assert.Equal(t, now.Add(48*time.Hour+90*time.Minute), model.ScheduledEnd)

	back, err := toDomainBooking(model)
	require.NoError(t, err)
	assert.Equal(t, bookingDomain.SubjectProperty, back.Subject().Kind())
	assert.Equal(t, bk.Interval(), back.Interval())
	assert.Equal(t, bk.Status(), back.Status())
}

func TestBookingModel_RejectsCorruptRows(t *testing.T) {
	lead, property := uuid.New(), uuid.New()
	_, err := toDomainBooking(&BookingModel{ID: uuid.New(), Status: "requested", LeadID: &lead, PropertyID: &property})
	assert.Error(t, err)

	_, err = toDomainBooking(&BookingModel{ID: uuid.New(), Status: "unknown", LeadID: &lead})
	assert.Error(t, err)
}

func TestScheduleCacheEncoding_KeepsBreakAndTimezone(t *testing.T) {
	w, err := availability.NewWindow(uuid.New(), 1, availability.WindowSpec{
		StartTime: "09:00", EndTime: "17:00", BreakStart: "12:00", BreakEnd: "13:00",
		IsAvailable: true, Timezone: "Europe/Berlin",
	})
	require.NoError(t, err)

	raw, err := encodeWindows([]*availability.Window{w})
	require.NoError(t, err)
	decoded, err := decodeWindows(raw)
	require.NoError(t, err)
	require.Len(t, decoded, 1)

	got := decoded[0]
	assert.Equal(t, w.ID(), got.ID())
	assert.Equal(t, "Europe/Berlin", got.Timezone())
	require.True(t, got.HasBreak())
	assert.Equal(t, "12:00", got.BreakStart().String())

	_, err = decodeWindows([]byte(`[{"start_time":"nope","end_time":"17:00"}]`))
	assert.Error(t, err)
}

func TestTerminalStatuses(t *testing.T) {
	assert.ElementsMatch(t, []string{"completed", "cancelled"}, terminalStatuses())
}
