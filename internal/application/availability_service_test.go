package application

import (
	"context"
	"errors"
	"testing"
	"time"

	providerDomain "github.com/estatehub/service-scheduling/internal/domain/provider"
	"github.com/estatehub/service-scheduling/internal/platform/auth"
	"github.com/estatehub/service-scheduling/internal/platform/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAvailabilityService_UpsertReplacesSameDay(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	x := f.addProvider(t, providerDomain.KindPhotographer, "x", 4)
	actor := f.providerActor(x)

	first, err := f.availability.UpsertWindow(ctx, actor, UpsertWindowRequest{
		ProviderID: x.ID(), DayOfWeek: intPtr(1), StartTime: "09:00", EndTime: "17:00",
	})
	require.NoError(t, err)
	assert.True(t, first.IsAvailable)
	assert.Equal(t, "Africa/Cairo", first.Timezone)

	second, err := f.availability.UpsertWindow(ctx, actor, UpsertWindowRequest{
		ProviderID: x.ID(), DayOfWeek: intPtr(1), StartTime: "10:00", EndTime: "18:00",
		BreakStartTime: "13:00", BreakEndTime: "14:00",
	})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	windows, err := f.windows.FindByProvider(ctx, x.ID())
	require.NoError(t, err)
	require.Len(t, windows, 1)
	assert.Equal(t, "10:00", windows[0].Start().String())
}

func TestAvailabilityService_InvalidUpsertDoesNotMutate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	x := f.addProvider(t, providerDomain.KindPhotographer, "x", 4)
	_, err := f.availability.UpsertWindow(ctx, f.admin, UpsertWindowRequest{
		ProviderID: x.ID(), DayOfWeek: intPtr(1), StartTime: "09:00", EndTime: "17:00",
	})
	require.NoError(t, err)

	bad := []UpsertWindowRequest{
		{ProviderID: x.ID(), DayOfWeek: intPtr(1), StartTime: "17:00", EndTime: "09:00"},
		{ProviderID: x.ID(), DayOfWeek: intPtr(1), StartTime: "9:00", EndTime: "17:00"},
		{ProviderID: x.ID(), DayOfWeek: intPtr(1), StartTime: "09:00", EndTime: "17:00", BreakStartTime: "08:00", BreakEndTime: "10:00"},
		{ProviderID: x.ID(), DayOfWeek: intPtr(2), StartTime: "09:00", EndTime: "17:00", BreakStartTime: "16:00", BreakEndTime: "18:00"},
	}
	for _, req := range bad {
		_, err := f.availability.UpsertWindow(ctx, f.admin, req)
		var ve *domain.ValidationError
		assert.True(t, errors.As(err, &ve), "%+v", req)
	}

	windows, err := f.windows.FindByProvider(ctx, x.ID())
	require.NoError(t, err)
	require.Len(t, windows, 1)
	assert.Equal(t, "09:00", windows[0].Start().String())
	assert.Equal(t, "17:00", windows[0].End().String())
}

func TestAvailabilityService_Authorization(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	x := f.addProvider(t, providerDomain.KindPhotographer, "x", 4)
	y := f.addProvider(t, providerDomain.KindPhotographer, "y", 4)
	w, err := f.availability.UpsertWindow(ctx, f.providerActor(x), UpsertWindowRequest{
		ProviderID: x.ID(), DayOfWeek: intPtr(3), StartTime: "09:00", EndTime: "12:00",
	})
	require.NoError(t, err)

	var fe *domain.ForbiddenError
	_, err = f.availability.UpsertWindow(ctx, f.providerActor(y), UpsertWindowRequest{
		ProviderID: x.ID(), DayOfWeek: intPtr(4), StartTime: "09:00", EndTime: "12:00",
	})
	assert.True(t, errors.As(err, &fe))

	_, err = f.availability.UpdateWindow(ctx, auth.Context{UserID: uuid.New(), Role: auth.RoleClient}, UpdateWindowRequest{
		AvailabilityID: w.ID, IsAvailable: new(bool),
	})
	assert.True(t, errors.As(err, &fe))

	assert.True(t, errors.As(f.availability.DeleteWindow(ctx, f.providerActor(y), w.ID), &fe))
	require.NoError(t, f.availability.DeleteWindow(ctx, f.providerActor(x), w.ID))

	var nf *domain.NotFoundError
	assert.True(t, errors.As(f.availability.DeleteWindow(ctx, f.admin, w.ID), &nf))
}

func TestAvailabilityService_UpdateWindowPatches(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	x := f.addProvider(t, providerDomain.KindPhotographer, "x", 4)
	w, err := f.availability.UpsertWindow(ctx, f.admin, UpsertWindowRequest{
		ProviderID: x.ID(), DayOfWeek: intPtr(1), StartTime: "09:00", EndTime: "17:00",
		BreakStartTime: "12:00", BreakEndTime: "13:00",
	})
	require.NoError(t, err)

	end := "15:00"
	updated, err := f.availability.UpdateWindow(ctx, f.admin, UpdateWindowRequest{AvailabilityID: w.ID, EndTime: &end, ClearBreak: true})
	require.NoError(t, err)
	assert.Equal(t, "09:00", updated.StartTime)
	assert.Equal(t, "15:00", updated.EndTime)
	assert.Nil(t, updated.BreakStartTime)

	early := "08:00"
	_, err = f.availability.UpdateWindow(ctx, f.admin, UpdateWindowRequest{AvailabilityID: w.ID, EndTime: &early})
	var ve *domain.ValidationError
	assert.True(t, errors.As(err, &ve))
}

func TestAvailabilityService_GetAvailability(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	x := f.addProvider(t, providerDomain.KindPhotographer, "x", 4)
	for day, req := range map[int]UpsertWindowRequest{
		1: {StartTime: "09:00", EndTime: "17:00"},
		5: {StartTime: "09:00", EndTime: "10:00"},
		6: {StartTime: "10:00", EndTime: "14:00", IsAvailable: new(bool)},
	} {
		req.ProviderID = x.ID()
		req.DayOfWeek = intPtr(day)
		_, err := f.availability.UpsertWindow(ctx, f.admin, req)
		require.NoError(t, err)
	}

	q := AvailabilityQuery{ProviderID: ptrUUID(x.ID()), AvailableOnly: true}
	view, err := f.availability.GetAvailability(ctx, q)
	require.NoError(t, err)
	assert.Len(t, view.Availability, 2)
	require.Len(t, view.WeeklySchedule, 7)
	assert.Equal(t, "Sunday", view.WeeklySchedule[0].DayName)
	assert.Len(t, view.WeeklySchedule[6].Windows, 1, "schedule lists unavailable windows too")

	// Friday 08:00 UTC is 11:00 in Cairo, after Friday's window closed.
	require.NotNil(t, view.CurrentStatus)
	assert.False(t, view.CurrentStatus.IsAvailableNow)
	require.NotNil(t, view.CurrentStatus.NextAvailable)
	assert.Equal(t, 3, view.CurrentStatus.NextAvailable.DayOffset)
	assert.Equal(t, int(time.Monday), view.CurrentStatus.NextAvailable.DayOfWeek)

	again, err := f.availability.GetAvailability(ctx, q)
	require.NoError(t, err)
	assert.Equal(t, view, again)

	day := 9
	_, err = f.availability.GetAvailability(ctx, AvailabilityQuery{DayOfWeek: &day})
	var ve *domain.ValidationError
	assert.True(t, errors.As(err, &ve))
}
