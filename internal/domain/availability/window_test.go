package availability

import (
	"errors"
	"testing"
	"time"

	"github.com/estatehub/service-scheduling/internal/platform/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mondayWithBreak(t *testing.T) *Window {
	t.Helper()
	w, err := NewWindow(uuid.New(), int(time.Monday), WindowSpec{
		StartTime:   "09:00",
		EndTime:     "17:00",
		BreakStart:  "12:00",
		BreakEnd:    "13:00",
		IsAvailable: true,
		Timezone:    "Africa/Cairo",
	})
	require.NoError(t, err)
	return w
}

func cairo(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Africa/Cairo")
	require.NoError(t, err)
	return loc
}

func TestParseTimeOfDay(t *testing.T) {
	tests := []struct {
		in      string
		want    TimeOfDay
		wantErr bool
	}{
		{"00:00", 0, false},
		{"09:30", 570, false},
		{"23:59", 1439, false},
		{"24:00", 0, true},
		{"9:30", 0, true},
		{"09:60", 0, true},
		{"noon", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseTimeOfDay(tt.in)
			if tt.wantErr {
				var ve *domain.ValidationError
				assert.True(t, errors.As(err, &ve))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.in, got.String())
		})
	}
}

func TestNewWindow_Validation(t *testing.T) {
	provider := uuid.New()
	tests := []struct {
		name string
		day  int
		spec WindowSpec
	}{
		{"start equals end", 1, WindowSpec{StartTime: "09:00", EndTime: "09:00"}},
		{"start after end", 1, WindowSpec{StartTime: "17:00", EndTime: "09:00"}},
		{"malformed start", 1, WindowSpec{StartTime: "9am", EndTime: "17:00"}},
		{"break half given", 1, WindowSpec{StartTime: "09:00", EndTime: "17:00", BreakStart: "12:00"}},
		{"break inverted", 1, WindowSpec{StartTime: "09:00", EndTime: "17:00", BreakStart: "13:00", BreakEnd: "12:00"}},
		{"break before start", 1, WindowSpec{StartTime: "09:00", EndTime: "17:00", BreakStart: "08:30", BreakEnd: "09:30"}},
		{"break after end", 1, WindowSpec{StartTime: "09:00", EndTime: "17:00", BreakStart: "16:30", BreakEnd: "17:30"}},
		{"day out of range", 7, WindowSpec{StartTime: "09:00", EndTime: "17:00"}},
		{"unknown timezone", 1, WindowSpec{StartTime: "09:00", EndTime: "17:00", Timezone: "Mars/Olympus"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewWindow(provider, tt.day, tt.spec)
			var ve *domain.ValidationError
			assert.True(t, errors.As(err, &ve), "got %v", err)
		})
	}
}

func TestNewWindow_DefaultsTimezone(t *testing.T) {
	w, err := NewWindow(uuid.New(), 0, WindowSpec{StartTime: "10:00", EndTime: "14:00", IsAvailable: true})
	require.NoError(t, err)
	assert.Equal(t, DefaultTimezone, w.Timezone())
	assert.False(t, w.HasBreak())
}

func TestWindow_ReplaceLeavesWindowOnError(t *testing.T) {
	w := mondayWithBreak(t)

	err := w.Replace(WindowSpec{StartTime: "18:00", EndTime: "10:00"})
	require.Error(t, err)
	assert.Equal(t, "09:00", w.Start().String())
	assert.Equal(t, "17:00", w.End().String())
	require.True(t, w.HasBreak())
	assert.Equal(t, "12:00", w.BreakStart().String())
}

func TestWindow_CoversBreakScenario(t *testing.T) {
	w := mondayWithBreak(t)
	loc := cairo(t)

	// 2026-10-19 is a Monday.
	assert.False(t, w.Covers(time.Date(2026, 10, 19, 12, 30, 0, 0, loc), 30*time.Minute), "inside break")
	assert.False(t, w.Covers(time.Date(2026, 10, 19, 11, 30, 0, 0, loc), time.Hour), "runs into break")
	assert.True(t, w.Covers(time.Date(2026, 10, 19, 11, 0, 0, 0, loc), time.Hour), "ends at break start")
	assert.True(t, w.Covers(time.Date(2026, 10, 19, 13, 0, 0, 0, loc), 4*time.Hour), "break end to close")
	assert.False(t, w.Covers(time.Date(2026, 10, 19, 16, 30, 0, 0, loc), time.Hour), "past closing")
	assert.False(t, w.Covers(time.Date(2026, 10, 20, 11, 0, 0, 0, loc), time.Hour), "tuesday")
}

func TestWindow_CoversConvertsToProviderTimezone(t *testing.T) {
	w := mondayWithBreak(t)
	loc := cairo(t)

	local := time.Date(2026, 10, 19, 10, 0, 0, 0, loc)
	assert.True(t, w.Covers(local.UTC(), time.Hour))
}

func TestWindow_UnavailableNeverCovers(t *testing.T) {
	w, err := NewWindow(uuid.New(), int(time.Monday), WindowSpec{StartTime: "09:00", EndTime: "17:00", IsAvailable: false})
	require.NoError(t, err)

	assert.False(t, w.Covers(time.Date(2026, 10, 19, 10, 0, 0, 0, cairo(t)), time.Hour))
}

func TestWindow_CoversUsesWallClockOnDSTChange(t *testing.T) {
	// Cairo moves its clocks forward at the start of Friday 2025-04-25.
	w, err := NewWindow(uuid.New(), int(time.Friday), WindowSpec{
		StartTime:   "09:00",
		EndTime:     "17:00",
		IsAvailable: true,
		Timezone:    "Africa/Cairo",
	})
	require.NoError(t, err)
	loc := cairo(t)
	at := func(h, m int) time.Time { return time.Date(2025, 4, 25, h, m, 0, 0, loc) }

	assert.Equal(t, 16*time.Hour+30*time.Minute, TimeOfDayOf(at(16, 30)))
	assert.Equal(t, 9*time.Hour, TimeOfDayOf(at(9, 0)))

	assert.True(t, w.Covers(at(9, 0), 30*time.Minute), "opening slot")
	assert.True(t, w.Covers(at(16, 0), time.Hour), "ends exactly at close")
	assert.False(t, w.Covers(at(16, 30), time.Hour), "runs past close")
	assert.False(t, w.Covers(at(8, 30), time.Hour), "starts before opening")

	assert.True(t, w.AvailableAt(at(9, 0)))
	assert.False(t, w.AvailableAt(at(17, 0)))
}
