package application

import (
	"context"
	"fmt"
	"strings"
	"time"

	bookingDomain "github.com/estatehub/service-scheduling/internal/domain/booking"
	providerDomain "github.com/estatehub/service-scheduling/internal/domain/provider"
	"github.com/estatehub/service-scheduling/internal/platform/auth"
	"github.com/estatehub/service-scheduling/internal/platform/domain"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CreateBookingRequest is the body of POST /bookings.
type CreateBookingRequest struct {
	ProviderID      *uuid.UUID `json:"provider_id"`
	LeadID          *uuid.UUID `json:"lead_id"`
	PropertyID      *uuid.UUID `json:"property_id"`
	ScheduledTime   time.Time  `json:"scheduled_time" binding:"required"`
	DurationMinutes int        `json:"duration_minutes" binding:"required"`
	AutoAssign      bool       `json:"auto_assign"`
	ProviderKind    string     `json:"provider_kind"`
	Location        string     `json:"location"`
	Notes           string     `json:"notes"`
}

// UpdateBookingRequest is the body of PUT /bookings.
type UpdateBookingRequest struct {
	BookingID             uuid.UUID `json:"booking_id" binding:"required"`
	Status                string    `json:"status" binding:"required"`
	ActualDurationMinutes *int      `json:"actual_duration_minutes"`
	Rating                *int      `json:"rating"`
	CompletionNotes       string    `json:"completion_notes"`
	Reason                string    `json:"reason"`
}

// BookingListQuery holds the GET /bookings filters.
type BookingListQuery struct {
	ProviderID *uuid.UUID
	Status     string
	From       *time.Time
	To         *time.Time
	Page       int
	Limit      int
}

// CreateBookingResult is the response of POST /bookings.
type CreateBookingResult struct {
	Booking            BookingDTO        `json:"booking"`
	ConfirmationNumber string            `json:"confirmation_number"`
	Payment            *PaymentIntention `json:"payment,omitempty"`
}

// BookingStatsDTO holds booking statistics for the admin dashboard.
type BookingStatsDTO struct {
	TotalBookings int64            `json:"total_bookings"`
	ByStatus      map[string]int64 `json:"by_status"`
}

// BookingService is the application service orchestrating booking use cases.
type BookingService struct {
	repo      bookingDomain.BookingRepository
	resolver  *AssignmentResolver
	lifecycle *StatusLifecycleManager
	payments  PaymentGateway
	logger    *zap.Logger
}

// NewBookingService creates a new BookingService.
func NewBookingService(
	repo bookingDomain.BookingRepository,
	resolver *AssignmentResolver,
	lifecycle *StatusLifecycleManager,
	payments PaymentGateway,
	logger *zap.Logger,
) *BookingService {
	return &BookingService{
		repo:      repo,
		resolver:  resolver,
		lifecycle: lifecycle,
		payments:  payments,
		logger:    logger,
	}
}

// CreateBooking resolves a provider, commits the booking and, when a deposit
// is due, opens a payment intention for it.
func (s *BookingService) CreateBooking(ctx context.Context, actor auth.Context, req CreateBookingRequest) (*CreateBookingResult, error) {
	subject, err := bookingDomain.SubjectFromRefs(req.LeadID, req.PropertyID)
	if err != nil {
		return nil, err
	}
	var kind *providerDomain.Kind
	if req.ProviderKind != "" {
		k, err := providerDomain.ParseKind(req.ProviderKind)
		if err != nil {
			return nil, err
		}
		kind = &k
	}

	res, err := s.resolver.Resolve(ctx, ResolveRequest{
		ProviderID:      req.ProviderID,
		AutoAssign:      req.AutoAssign,
		ProviderKind:    kind,
		Subject:         subject,
		ScheduledStart:  req.ScheduledTime,
		DurationMinutes: req.DurationMinutes,
		Location:        req.Location,
		Notes:           req.Notes,
		RequestedBy:     actor.UserID,
	})
	if err != nil {
		return nil, err
	}
	bk := res.Booking

	s.logger.Info("booking created",
		zap.String("booking_id", bk.ID().String()),
		zap.String("booking_number", bk.BookingNumber()),
		zap.String("provider_id", bk.ProviderID().String()),
		zap.String("status", bk.Status().String()),
	)

	result := &CreateBookingResult{ConfirmationNumber: bk.BookingNumber()}
	if bk.Status() == bookingDomain.StatusPendingPayment {
		intent, err := s.openDeposit(ctx, bk)
		if err != nil {
			return nil, err
		}
		result.Payment = intent
	}

	s.lifecycle.AfterCreate(ctx, bk, res.Provider)
	result.Booking = toBookingDTO(bk)
	return result, nil
}

// openDeposit asks the gateway for a deposit intention. When the gateway
// fails the booking is cancelled so its slot is released; nothing could
// ever settle it.
func (s *BookingService) openDeposit(ctx context.Context, bk *bookingDomain.Booking) (*PaymentIntention, error) {
	intent, err := s.payments.CreateDepositIntent(ctx, DepositRequest{
		BookingID:     bk.ID(),
		BookingNumber: bk.BookingNumber(),
		AmountCents:   bk.DepositCents(),
		Currency:      bk.Currency(),
		Description:   fmt.Sprintf("Deposit for booking %s", bk.BookingNumber()),
	})
	if err != nil {
		s.logger.Error("failed to create deposit intention",
			zap.String("booking_id", bk.ID().String()),
			zap.Error(err),
		)
		s.releaseUnpayable(ctx, bk)
		return nil, fmt.Errorf("failed to open deposit for booking %s: %w", bk.BookingNumber(), err)
	}

	bk.AttachPaymentReference(intent.Reference)
	bk.IncrementVersion()
	if err := s.repo.Update(ctx, bk); err != nil {
		s.logger.Error("failed to store payment reference",
			zap.String("booking_id", bk.ID().String()),
			zap.Error(err),
		)
	}
	return intent, nil
}

func (s *BookingService) releaseUnpayable(ctx context.Context, bk *bookingDomain.Booking) {
	if err := bk.MarkDepositFailed("deposit intention could not be opened", s.lifecycle.clock()); err != nil {
		s.logger.Error("failed to cancel unpayable booking",
			zap.String("booking_id", bk.ID().String()),
			zap.Error(err),
		)
		return
	}
	bk.IncrementVersion()
	if err := s.repo.Update(ctx, bk); err != nil {
		s.logger.Error("failed to store cancelled unpayable booking",
			zap.String("booking_id", bk.ID().String()),
			zap.Error(err),
		)
	}
}

// UpdateStatus applies a status change through the lifecycle manager.
func (s *BookingService) UpdateStatus(ctx context.Context, actor auth.Context, req UpdateBookingRequest) (*BookingDTO, error) {
	target, err := bookingDomain.ParseBookingStatus(req.Status)
	if err != nil {
		return nil, domain.NewValidationError(err.Error())
	}
	bk, err := s.lifecycle.Transition(ctx, actor, req.BookingID, target, bookingDomain.TransitionPayload{
		ActualDurationMinutes: req.ActualDurationMinutes,
		Rating:                req.Rating,
		CompletionNotes:       req.CompletionNotes,
		Reason:                req.Reason,
	})
	if err != nil {
		return nil, err
	}
	result := toBookingDTO(bk)
	return &result, nil
}

// GetBooking retrieves a single booking visible to actor.
func (s *BookingService) GetBooking(ctx context.Context, actor auth.Context, bookingID uuid.UUID) (*BookingDTO, error) {
	bk, err := s.repo.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !canRead(actor, bk) {
		return nil, domain.NewForbiddenError("booking does not belong to this user")
	}
	result := toBookingDTO(bk)
	return &result, nil
}

// ListBookings lists bookings visible to actor. Providers only see their own
// bookings, other non-admins only the ones they requested.
func (s *BookingService) ListBookings(ctx context.Context, actor auth.Context, q BookingListQuery) (*domain.PaginatedResult[BookingDTO], error) {
	filter := bookingDomain.ListFilter{
		ProviderID: q.ProviderID,
		From:       q.From,
		To:         q.To,
		Page:       q.Page,
		Limit:      q.Limit,
	}
	if q.Status != "" {
		st, err := bookingDomain.ParseBookingStatus(q.Status)
		if err != nil {
			return nil, domain.NewValidationError(err.Error())
		}
		filter.Status = &st
	}

	switch {
	case actor.IsAdmin():
	case actor.Role == auth.RoleProvider && actor.ProviderID != nil:
		filter.ProviderID = actor.ProviderID
	default:
		userID := actor.UserID
		filter.RequestedBy = &userID
	}

	bookings, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	result := domain.NewPaginatedResult(toBookingDTOs(bookings), total, q.Page, q.Limit)
	return &result, nil
}

// HandleDepositSucceeded releases a booking once its deposit is collected.
func (s *BookingService) HandleDepositSucceeded(ctx context.Context, bookingID uuid.UUID, reference string) error {
	_, err := s.lifecycle.ReleaseAfterDeposit(ctx, bookingID, reference)
	return err
}

// HandleDepositFailed cancels a booking whose deposit failed.
func (s *BookingService) HandleDepositFailed(ctx context.Context, bookingID uuid.UUID, reason string) error {
	_, err := s.lifecycle.CancelAfterFailedDeposit(ctx, bookingID, reason)
	return err
}

// --- Admin methods ---

// GetBookingByNumber looks a booking up by its confirmation number (admin).
func (s *BookingService) GetBookingByNumber(ctx context.Context, number string) (*BookingDTO, error) {
	number = strings.ToUpper(strings.TrimSpace(number))
	if number == "" {
		return nil, domain.NewValidationError("confirmation number is required")
	}
	bk, err := s.repo.FindByNumber(ctx, number)
	if err != nil {
		return nil, err
	}
	dto := toBookingDTO(bk)
	return &dto, nil
}

// GetBookingStats returns aggregate booking statistics (admin).
func (s *BookingService) GetBookingStats(ctx context.Context) (*BookingStatsDTO, error) {
	counts, err := s.repo.CountByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get booking stats: %w", err)
	}

	var total int64
	for _, c := range counts {
		total += c
	}

	return &BookingStatsDTO{
		TotalBookings: total,
		ByStatus:      counts,
	}, nil
}

func canRead(actor auth.Context, bk *bookingDomain.Booking) bool {
	return actor.IsAdmin() || actor.ActsAsProvider(bk.ProviderID()) || bk.IsRequestedBy(actor.UserID)
}
