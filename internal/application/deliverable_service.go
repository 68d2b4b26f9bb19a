package application

import (
	"context"
	"fmt"

	bookingDomain "github.com/estatehub/service-scheduling/internal/domain/booking"
	"github.com/estatehub/service-scheduling/internal/domain/deliverable"
	"github.com/estatehub/service-scheduling/internal/platform/auth"
	"github.com/estatehub/service-scheduling/internal/platform/domain"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AttachDeliverableRequest is the request DTO for attaching a deliverable.
type AttachDeliverableRequest struct {
	Type    string `json:"type" binding:"required"`
	URL     string `json:"url" binding:"required"`
	Caption string `json:"caption"`
}

// DeliverableService implements use cases for booking deliverables.
type DeliverableService struct {
	repo     deliverable.DeliverableRepository
	bookings bookingDomain.BookingRepository
	logger   *zap.Logger
}

// NewDeliverableService creates a new DeliverableService.
func NewDeliverableService(repo deliverable.DeliverableRepository, bookings bookingDomain.BookingRepository, logger *zap.Logger) *DeliverableService {
	return &DeliverableService{repo: repo, bookings: bookings, logger: logger}
}

// AttachDeliverable records a file handed over by the booked provider. The
// booking must be in progress or completed.
func (s *DeliverableService) AttachDeliverable(ctx context.Context, actor auth.Context, bookingID uuid.UUID, req AttachDeliverableRequest) (*DeliverableDTO, error) {
	bk, err := s.bookings.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && !actor.ActsAsProvider(bk.ProviderID()) {
		return nil, domain.NewForbiddenError("only the booked provider may attach deliverables")
	}
	if st := bk.Status(); st != bookingDomain.StatusInProgress && st != bookingDomain.StatusCompleted {
		return nil, domain.NewValidationError(fmt.Sprintf("cannot attach deliverables to a %s booking", st))
	}

	d, err := deliverable.NewDeliverable(bookingID, bk.ProviderID(), deliverable.Type(req.Type), req.URL, req.Caption)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, d); err != nil {
		return nil, fmt.Errorf("failed to save deliverable: %w", err)
	}

	s.logger.Info("deliverable attached",
		zap.String("booking_id", bookingID.String()),
		zap.String("type", req.Type),
	)
	dto := toDeliverableDTO(d)
	return &dto, nil
}

// ListDeliverables returns a booking's deliverables to anyone who can read
// the booking.
func (s *DeliverableService) ListDeliverables(ctx context.Context, actor auth.Context, bookingID uuid.UUID) ([]DeliverableDTO, error) {
	bk, err := s.bookings.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !canRead(actor, bk) {
		return nil, domain.NewForbiddenError("booking does not belong to this user")
	}

	items, err := s.repo.FindByBookingID(ctx, bookingID)
	if err != nil {
		return nil, fmt.Errorf("failed to list deliverables: %w", err)
	}
	dtos := make([]DeliverableDTO, len(items))
	for i, d := range items {
		dtos[i] = toDeliverableDTO(d)
	}
	return dtos, nil
}
