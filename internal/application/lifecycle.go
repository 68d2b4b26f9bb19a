package application

import (
	"context"

	"github.com/estatehub/service-scheduling/internal/dispatch"
	bookingDomain "github.com/estatehub/service-scheduling/internal/domain/booking"
	providerDomain "github.com/estatehub/service-scheduling/internal/domain/provider"
	"github.com/estatehub/service-scheduling/internal/events/schema"
	"github.com/estatehub/service-scheduling/internal/platform/auth"
	"github.com/estatehub/service-scheduling/internal/platform/domain"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// StatusLifecycleManager drives bookings through their status graph and
// fans out side effects once a change is committed.
type StatusLifecycleManager struct {
	bookings  bookingDomain.BookingRepository
	providers providerDomain.ProviderRepository
	tasks     TaskQueue
	events    *EventPublisher
	clock     Clock
	logger    *zap.Logger
}

// NewStatusLifecycleManager creates a StatusLifecycleManager.
func NewStatusLifecycleManager(
	bookings bookingDomain.BookingRepository,
	providers providerDomain.ProviderRepository,
	tasks TaskQueue,
	events *EventPublisher,
	clock Clock,
	logger *zap.Logger,
) *StatusLifecycleManager {
	return &StatusLifecycleManager{
		bookings:  bookings,
		providers: providers,
		tasks:     tasks,
		events:    events,
		clock:     clock,
		logger:    logger,
	}
}

// Transition moves a booking to target on behalf of actor. Admins and the
// booked provider may make any legal move; the requester may only cancel.
func (m *StatusLifecycleManager) Transition(
	ctx context.Context,
	actor auth.Context,
	bookingID uuid.UUID,
	target bookingDomain.BookingStatus,
	payload bookingDomain.TransitionPayload,
) (*bookingDomain.Booking, error) {
	bk, err := m.bookings.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if err := authorizeTransition(actor, bk, target); err != nil {
		return nil, err
	}

	from := bk.Status()
	if err := bk.Transition(target, payload, m.clock()); err != nil {
		return nil, err
	}
	bk.IncrementVersion()
	if err := m.bookings.Update(ctx, bk); err != nil {
		return nil, err
	}

	m.logger.Info("booking status changed",
		zap.String("booking_id", bk.ID().String()),
		zap.String("from", from.String()),
		zap.String("to", target.String()),
		zap.String("actor", actor.UserID.String()),
	)
	m.afterTransition(ctx, actor, bk, from)
	return bk, nil
}

// ReleaseAfterDeposit moves a booking held for payment into requested or
// assigned. Repeated deliveries of the same outcome are no-ops.
func (m *StatusLifecycleManager) ReleaseAfterDeposit(ctx context.Context, bookingID uuid.UUID, reference string) (*bookingDomain.Booking, error) {
	return m.settleDeposit(ctx, bookingID, func(bk *bookingDomain.Booking) error {
		return bk.MarkDepositPaid(reference, m.clock())
	})
}

// CancelAfterFailedDeposit cancels a booking whose deposit failed.
func (m *StatusLifecycleManager) CancelAfterFailedDeposit(ctx context.Context, bookingID uuid.UUID, reason string) (*bookingDomain.Booking, error) {
	return m.settleDeposit(ctx, bookingID, func(bk *bookingDomain.Booking) error {
		return bk.MarkDepositFailed(reason, m.clock())
	})
}

func (m *StatusLifecycleManager) settleDeposit(ctx context.Context, bookingID uuid.UUID, apply func(*bookingDomain.Booking) error) (*bookingDomain.Booking, error) {
	bk, err := m.bookings.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	from, paymentBefore := bk.Status(), bk.PaymentStatus()
	if err := apply(bk); err != nil {
		return nil, err
	}
	if bk.Status() == from && bk.PaymentStatus() == paymentBefore {
		return bk, nil
	}

	bk.IncrementVersion()
	if err := m.bookings.Update(ctx, bk); err != nil {
		return nil, err
	}
	m.logger.Info("deposit settled",
		zap.String("booking_id", bk.ID().String()),
		zap.String("payment_status", string(bk.PaymentStatus())),
		zap.String("status", bk.Status().String()),
	)
	m.afterTransition(ctx, auth.System(), bk, from)
	return bk, nil
}

// AfterCreate runs the side effects of a newly committed booking.
func (m *StatusLifecycleManager) AfterCreate(ctx context.Context, bk *bookingDomain.Booking, p *providerDomain.Provider) {
	m.events.publish(ctx, schema.BookingCreated, bk.ID().String(), schema.BookingCreatedEvent{
		BookingID:      bk.ID(),
		BookingNumber:  bk.BookingNumber(),
		ProviderID:     bk.ProviderID(),
		SubjectType:    string(bk.Subject().Kind()),
		SubjectID:      bk.Subject().ID(),
		ScheduledStart: bk.ScheduledStart(),
		ScheduledEnd:   bk.ScheduledEnd(),
		Status:         bk.Status().String(),
		AutoAssigned:   bk.AutoAssigned(),
		EstimatedCost:  bk.EstimatedCostCents(),
		DepositAmount:  bk.DepositCents(),
		Currency:       bk.Currency(),
		RequestedBy:    bk.RequestedBy(),
		OccurredAt:     m.clock(),
	})
	if bk.Status().NotifiesProvider() {
		m.enqueueNotification(ctx, bk, p)
	}
}

func (m *StatusLifecycleManager) afterTransition(ctx context.Context, actor auth.Context, bk *bookingDomain.Booking, from bookingDomain.BookingStatus) {
	now := m.clock()
	m.events.publish(ctx, schema.BookingStatusChanged, bk.ID().String(), schema.BookingStatusChangedEvent{
		BookingID:     bk.ID(),
		BookingNumber: bk.BookingNumber(),
		ProviderID:    bk.ProviderID(),
		From:          from.String(),
		To:            bk.Status().String(),
		OccurredAt:    now,
	})

	switch bk.Status() {
	case bookingDomain.StatusAssigned, bookingDomain.StatusConfirmed:
		m.enqueueNotification(ctx, bk, nil)

	case bookingDomain.StatusCompleted:
		m.events.publish(ctx, schema.BookingCompleted, bk.ID().String(), schema.BookingCompletedEvent{
			BookingID:             bk.ID(),
			BookingNumber:         bk.BookingNumber(),
			ProviderID:            bk.ProviderID(),
			SubjectType:           string(bk.Subject().Kind()),
			SubjectID:             bk.Subject().ID(),
			ActualDurationMinutes: *bk.ActualDurationMinutes(),
			Rating:                bk.Rating(),
			OccurredAt:            now,
		})
		m.enqueueSubjectStatus(ctx, bk)
		if bk.Rating() != nil {
			m.recordProviderRating(ctx, bk.ProviderID(), *bk.Rating())
		}

	case bookingDomain.StatusCancelled:
		m.events.publish(ctx, schema.BookingCancelled, bk.ID().String(), schema.BookingCancelledEvent{
			BookingID:     bk.ID(),
			BookingNumber: bk.BookingNumber(),
			ProviderID:    bk.ProviderID(),
			CancelledBy:   actor.UserID,
			Reason:        bk.CancelReason(),
			OccurredAt:    now,
		})
	}
}

func (m *StatusLifecycleManager) enqueueNotification(ctx context.Context, bk *bookingDomain.Booking, p *providerDomain.Provider) {
	if p == nil {
		found, err := m.providers.FindByID(ctx, bk.ProviderID())
		if err != nil {
			m.logger.Warn("notification skipped: provider lookup failed",
				zap.String("booking_id", bk.ID().String()),
				zap.Error(err),
			)
			return
		}
		p = found
	}

	task, err := dispatch.NewNotificationTask(dispatch.Notification{
		Template:       "booking_" + bk.Status().String(),
		BookingID:      bk.ID(),
		BookingNumber:  bk.BookingNumber(),
		ProviderID:     p.ID(),
		ProviderName:   p.Name(),
		Email:          p.Email(),
		Phone:          p.Phone(),
		ScheduledStart: bk.ScheduledStart(),
		Location:       bk.Location(),
	})
	m.enqueue(ctx, bk, task, err)
}

func (m *StatusLifecycleManager) enqueueSubjectStatus(ctx context.Context, bk *bookingDomain.Booking) {
	task, err := dispatch.NewSubjectStatusTask(dispatch.SubjectStatusUpdate{
		SubjectType: string(bk.Subject().Kind()),
		SubjectID:   bk.Subject().ID(),
		Status:      bk.Subject().CompletionStatus(),
		BookingID:   bk.ID(),
	})
	m.enqueue(ctx, bk, task, err)
}

func (m *StatusLifecycleManager) enqueue(ctx context.Context, bk *bookingDomain.Booking, task dispatch.Task, buildErr error) {
	if buildErr == nil {
		buildErr = m.tasks.Enqueue(ctx, task)
	}
	if buildErr != nil {
		m.logger.Error("failed to enqueue side effect",
			zap.String("booking_id", bk.ID().String()),
			zap.String("task_type", task.Type),
			zap.Error(buildErr),
		)
	}
}

func (m *StatusLifecycleManager) recordProviderRating(ctx context.Context, providerID uuid.UUID, score int) {
	p, err := m.providers.FindByID(ctx, providerID)
	if err == nil {
		err = p.RecordRating(score)
	}
	if err == nil {
		p.IncrementVersion()
		err = m.providers.Update(ctx, p)
	}
	if err != nil {
		m.logger.Error("failed to record provider rating",
			zap.String("provider_id", providerID.String()),
			zap.Error(err),
		)
	}
}

func authorizeTransition(actor auth.Context, bk *bookingDomain.Booking, target bookingDomain.BookingStatus) error {
	if actor.IsAdmin() || actor.ActsAsProvider(bk.ProviderID()) {
		return nil
	}
	if target == bookingDomain.StatusCancelled && bk.IsRequestedBy(actor.UserID) {
		return nil
	}
	return domain.NewForbiddenError("not allowed to change this booking")
}
