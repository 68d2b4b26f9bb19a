package booking

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInterval_Overlaps(t *testing.T) {
	tue10 := time.Date(2026, 10, 20, 10, 0, 0, 0, time.UTC)
	existing, err := NewInterval(tue10, 120)
	require.NoError(t, err)

	tests := []struct {
		name    string
		start   time.Time
		minutes int
		want    bool
	}{
		{"inside", tue10.Add(time.Hour), 30, true},
		{"abutting after", tue10.Add(2 * time.Hour), 60, false},
		{"abutting before", tue10.Add(-time.Hour), 60, false},
		{"starts before and runs into", tue10.Add(-30 * time.Minute), 60, true},
		{"encloses", tue10.Add(-time.Hour), 240, true},
		{"disjoint", tue10.Add(5 * time.Hour), 60, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cand, err := NewInterval(tt.start, tt.minutes)
			require.NoError(t, err)
			assert.Equal(t, tt.want, existing.Overlaps(cand))
			assert.Equal(t, tt.want, cand.Overlaps(existing))
		})
	}
}

func TestFilterConflicts_IgnoresTerminal(t *testing.T) {
	tue10 := time.Date(2026, 10, 20, 10, 0, 0, 0, time.UTC)

	active := newTestBooking(t, tue10, 120)
	cancelled := newTestBooking(t, tue10, 120)
	require.NoError(t, cancelled.Cancel("client asked", testNow))
	completed := newTestBooking(t, tue10, 120)
	for _, s := range []BookingStatus{StatusAssigned, StatusConfirmed, StatusInProgress} {
		require.NoError(t, completed.Transition(s, TransitionPayload{}, testNow))
	}
	require.NoError(t, completed.Transition(StatusCompleted, TransitionPayload{ActualDurationMinutes: intPtr(120)}, testNow))

	cand, err := NewInterval(tue10.Add(time.Hour), 30)
	require.NoError(t, err)

	conflicts := FilterConflicts([]*Booking{active, cancelled, completed}, cand)

	require.Len(t, conflicts, 1)
	assert.Equal(t, active.ID(), conflicts[0].ID())
}

func TestSchedulingConflictError_Details(t *testing.T) {
	b := newTestBooking(t, time.Date(2026, 10, 20, 10, 0, 0, 0, time.UTC), 120)

	err := NewSchedulingConflictError(b.ProviderID(), []*Booking{b})

	assert.Equal(t, CodeSchedulingConflict, err.Code())
	details, ok := err.Details()["conflict_details"].([]map[string]interface{})
	require.True(t, ok)
	require.Len(t, details, 1)
	assert.Equal(t, b.BookingNumber(), details[0]["booking_number"])
	assert.Equal(t, "2026-10-20T12:00:00Z", details[0]["scheduled_end"])
}
