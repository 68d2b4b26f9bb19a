package application

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/estatehub/service-scheduling/internal/dispatch"
	bookingDomain "github.com/estatehub/service-scheduling/internal/domain/booking"
	providerDomain "github.com/estatehub/service-scheduling/internal/domain/provider"
	"github.com/estatehub/service-scheduling/internal/platform/auth"
	"github.com/estatehub/service-scheduling/internal/platform/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLifecycle_RoundTripToCompleted(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	x := f.addProvider(t, providerDomain.KindPhotographer, "x", 4)
	bk := f.seedBooking(t, x, fixedNow.Add(24*time.Hour), 120)
	actor := f.providerActor(x)

	for _, status := range []string{"assigned", "confirmed", "in_progress"} {
		_, err := f.bookingSvc.UpdateStatus(ctx, actor, UpdateBookingRequest{BookingID: bk.ID(), Status: status})
		require.NoError(t, err, status)
	}
	done, err := f.bookingSvc.UpdateStatus(ctx, actor, UpdateBookingRequest{
		BookingID: bk.ID(), Status: "completed", ActualDurationMinutes: intPtr(90), Rating: intPtr(2),
	})
	require.NoError(t, err)
	assert.Equal(t, "completed", done.Status)
	assert.Equal(t, 90, *done.ActualDurationMinutes)

	_, err = f.bookingSvc.UpdateStatus(ctx, actor, UpdateBookingRequest{BookingID: bk.ID(), Status: "cancelled"})
	var ise *domain.InvalidStateError
	assert.True(t, errors.As(err, &ise))

	assert.Len(t, f.queue.ofType(dispatch.TypeNotification), 2, "assigned and confirmed notify")
	subjectTasks := f.queue.ofType(dispatch.TypeSubjectStatus)
	require.Len(t, subjectTasks, 1)
	var update dispatch.SubjectStatusUpdate
	require.NoError(t, json.Unmarshal(subjectTasks[0].Payload, &update))
	assert.Equal(t, "lead", update.SubjectType)
	assert.Equal(t, "photos_completed", update.Status)

	p, err := f.providers.FindByID(ctx, x.ID())
	require.NoError(t, err)
	assert.InDelta(t, 3.0, p.Rating(), 0.0001)
	assert.Equal(t, 2, p.RatingCount())

	assert.Contains(t, f.producer.types(), "booking.completed")
}

func TestLifecycle_CompletionRequiresDuration(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	x := f.addProvider(t, providerDomain.KindPhotographer, "x", 4)
	bk := f.seedBooking(t, x, fixedNow.Add(24*time.Hour), 60,
		bookingDomain.StatusAssigned, bookingDomain.StatusConfirmed, bookingDomain.StatusInProgress)

	_, err := f.bookingSvc.UpdateStatus(ctx, f.admin, UpdateBookingRequest{BookingID: bk.ID(), Status: "completed"})
	var ve *domain.ValidationError
	assert.True(t, errors.As(err, &ve))

	stored, err := f.bookings.FindByID(ctx, bk.ID())
	require.NoError(t, err)
	assert.Equal(t, bookingDomain.StatusInProgress, stored.Status())
	assert.Empty(t, f.queue.ofType(dispatch.TypeSubjectStatus))
}

func TestLifecycle_Authorization(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	x := f.addProvider(t, providerDomain.KindPhotographer, "x", 4)
	other := f.addProvider(t, providerDomain.KindPhotographer, "other", 4)
	bk := f.seedBooking(t, x, fixedNow.Add(24*time.Hour), 60)

	_, err := f.bookingSvc.UpdateStatus(ctx, f.providerActor(other), UpdateBookingRequest{BookingID: bk.ID(), Status: "assigned"})
	var fe *domain.ForbiddenError
	assert.True(t, errors.As(err, &fe))

	requester := auth.Context{UserID: bk.RequestedBy(), Role: auth.RoleAgent}
	_, err = f.bookingSvc.UpdateStatus(ctx, requester, UpdateBookingRequest{BookingID: bk.ID(), Status: "assigned"})
	assert.True(t, errors.As(err, &fe))

	cancelled, err := f.bookingSvc.UpdateStatus(ctx, requester, UpdateBookingRequest{BookingID: bk.ID(), Status: "cancelled", Reason: "listing withdrawn"})
	require.NoError(t, err)
	assert.Equal(t, "cancelled", cancelled.Status)
	assert.Equal(t, "listing withdrawn", cancelled.CancelReason)
}

func TestLifecycle_UnknownStatus(t *testing.T) {
	f := newFixture(t)
	x := f.addProvider(t, providerDomain.KindPhotographer, "x", 4)
	bk := f.seedBooking(t, x, fixedNow.Add(24*time.Hour), 60)

	_, err := f.bookingSvc.UpdateStatus(context.Background(), f.admin, UpdateBookingRequest{BookingID: bk.ID(), Status: "delivered"})
	var ve *domain.ValidationError
	assert.True(t, errors.As(err, &ve))
}

func TestBookingService_ListScopesByRole(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	x := f.addProvider(t, providerDomain.KindPhotographer, "x", 4)
	y := f.addProvider(t, providerDomain.KindPhotographer, "y", 4)
	xb := f.seedBooking(t, x, fixedNow.Add(24*time.Hour), 60)
	f.seedBooking(t, y, fixedNow.Add(24*time.Hour), 60)

	all, err := f.bookingSvc.ListBookings(ctx, f.admin, BookingListQuery{Page: 1, Limit: 20})
	require.NoError(t, err)
	assert.Equal(t, int64(2), all.Total)

	own, err := f.bookingSvc.ListBookings(ctx, f.providerActor(x), BookingListQuery{ProviderID: ptrUUID(y.ID()), Page: 1, Limit: 20})
	require.NoError(t, err)
	require.Len(t, own.Items, 1)
	assert.Equal(t, xb.ID(), own.Items[0].ID)

	stranger := auth.Context{UserID: uuid.New(), Role: auth.RoleClient}
	none, err := f.bookingSvc.ListBookings(ctx, stranger, BookingListQuery{Page: 1, Limit: 20})
	require.NoError(t, err)
	assert.Empty(t, none.Items)

	_, err = f.bookingSvc.GetBooking(ctx, stranger, xb.ID())
	var fe *domain.ForbiddenError
	assert.True(t, errors.As(err, &fe))
}

func TestDeliverableService(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	x := f.addProvider(t, providerDomain.KindPhotographer, "x", 4)
	bk := f.seedBooking(t, x, fixedNow.Add(24*time.Hour), 60, bookingDomain.StatusAssigned)
	actor := f.providerActor(x)
	req := AttachDeliverableRequest{Type: "photo_set", URL: "https://cdn.example.com/shoot.zip"}

	_, err := f.delivSvc.AttachDeliverable(ctx, actor, bk.ID(), req)
	var ve *domain.ValidationError
	require.True(t, errors.As(err, &ve), "assigned booking")

	for _, s := range []string{"confirmed", "in_progress"} {
		_, err := f.bookingSvc.UpdateStatus(ctx, actor, UpdateBookingRequest{BookingID: bk.ID(), Status: s})
		require.NoError(t, err)
	}
	d, err := f.delivSvc.AttachDeliverable(ctx, actor, bk.ID(), req)
	require.NoError(t, err)
	assert.Equal(t, x.ID(), d.ProviderID)

	requester := auth.Context{UserID: bk.RequestedBy(), Role: auth.RoleAgent}
	_, err = f.delivSvc.AttachDeliverable(ctx, requester, bk.ID(), req)
	var fe *domain.ForbiddenError
	assert.True(t, errors.As(err, &fe))

	items, err := f.delivSvc.ListDeliverables(ctx, requester, bk.ID())
	require.NoError(t, err)
	assert.Len(t, items, 1)
}
