package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/estatehub/service-scheduling/internal/domain/availability"
	bookingDomain "github.com/estatehub/service-scheduling/internal/domain/booking"
	providerDomain "github.com/estatehub/service-scheduling/internal/domain/provider"
	"github.com/estatehub/service-scheduling/internal/platform/domain"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ResolveRequest describes a booking to place. Either ProviderID is set or
// AutoAssign is true; an explicit provider wins when both are given.
type ResolveRequest struct {
	ProviderID      *uuid.UUID
	AutoAssign      bool
	ProviderKind    *providerDomain.Kind
	Subject         bookingDomain.Subject
	ScheduledStart  time.Time
	DurationMinutes int
	Location        string
	Notes           string
	RequestedBy     uuid.UUID
}

// Resolution is the committed booking and the provider it went to.
type Resolution struct {
	Provider *providerDomain.Provider
	Booking  *bookingDomain.Booking
}

// AssignmentResolver picks a provider for a request and commits the booking.
type AssignmentResolver struct {
	providers providerDomain.ProviderRepository
	windows   availability.WindowRepository
	bookings  bookingDomain.BookingRepository
	checker   *ConflictChecker
	pricing   bookingDomain.PricingStrategy
	clock     Clock
	logger    *zap.Logger
}

// NewAssignmentResolver creates an AssignmentResolver.
func NewAssignmentResolver(
	providers providerDomain.ProviderRepository,
	windows availability.WindowRepository,
	bookings bookingDomain.BookingRepository,
	checker *ConflictChecker,
	pricing bookingDomain.PricingStrategy,
	clock Clock,
	logger *zap.Logger,
) *AssignmentResolver {
	return &AssignmentResolver{
		providers: providers,
		windows:   windows,
		bookings:  bookings,
		checker:   checker,
		pricing:   pricing,
		clock:     clock,
		logger:    logger,
	}
}

// Resolve validates the request, chooses the provider and commits the
// booking. The commit re-checks conflicts atomically, so a slot taken by a
// concurrent request surfaces as a scheduling conflict (explicit provider)
// or moves on to the next candidate (auto-assign).
func (r *AssignmentResolver) Resolve(ctx context.Context, req ResolveRequest) (*Resolution, error) {
	if req.Subject.IsZero() {
		return nil, domain.NewValidationError("booking must reference a lead or a property")
	}
	if _, err := bookingDomain.NewInterval(req.ScheduledStart, req.DurationMinutes); err != nil {
		return nil, err
	}
	if !req.ScheduledStart.After(r.clock()) {
		return nil, domain.NewValidationError("scheduled_time must be in the future")
	}

	switch {
	case req.ProviderID != nil:
		return r.resolveExplicit(ctx, *req.ProviderID, req)
	case req.AutoAssign:
		return r.resolveAuto(ctx, req)
	default:
		return nil, domain.NewValidationError("provider_id is required unless auto_assign is set")
	}
}

func (r *AssignmentResolver) resolveExplicit(ctx context.Context, providerID uuid.UUID, req ResolveRequest) (*Resolution, error) {
	p, err := r.providers.FindByID(ctx, providerID)
	if err != nil {
		return nil, err
	}
	if !p.IsActive() {
		return nil, domain.NewValidationError("provider is not accepting bookings")
	}

	covered, err := r.coveredByAvailability(ctx, p.ID(), req)
	if err != nil {
		return nil, err
	}
	if !covered {
		return nil, bookingDomain.NewOutsideAvailabilityError(p.ID(), req.ScheduledStart)
	}

	result, err := r.checker.HasConflict(ctx, p.ID(), req.ScheduledStart, req.DurationMinutes)
	if err != nil {
		return nil, err
	}
	if !result.Available {
		return nil, bookingDomain.NewSchedulingConflictError(p.ID(), result.Conflicts)
	}

	bk, err := r.commit(ctx, p, req, false)
	if err != nil {
		return nil, err
	}
	return &Resolution{Provider: p, Booking: bk}, nil
}

func (r *AssignmentResolver) resolveAuto(ctx context.Context, req ResolveRequest) (*Resolution, error) {
	active, err := r.providers.FindActive(ctx, req.ProviderKind)
	if err != nil {
		return nil, fmt.Errorf("failed to load providers: %w", err)
	}
	candidates := providerDomain.RankCandidates(active, req.Location)

	for _, p := range candidates {
		covered, err := r.coveredByAvailability(ctx, p.ID(), req)
		if err != nil {
			return nil, err
		}
		if !covered {
			continue
		}

		result, err := r.checker.HasConflict(ctx, p.ID(), req.ScheduledStart, req.DurationMinutes)
		if err != nil {
			return nil, err
		}
		if !result.Available {
			continue
		}

		bk, err := r.commit(ctx, p, req, true)
		var sce *bookingDomain.SchedulingConflictError
		if errors.As(err, &sce) {
			r.logger.Info("candidate taken concurrently, trying next",
				zap.String("provider_id", p.ID().String()),
			)
			continue
		}
		if err != nil {
			return nil, err
		}

		r.logger.Info("provider auto-assigned",
			zap.String("provider_id", p.ID().String()),
			zap.String("booking_id", bk.ID().String()),
			zap.Int("candidates", len(candidates)),
		)
		return &Resolution{Provider: p, Booking: bk}, nil
	}

	return nil, bookingDomain.NewNoProviderAvailableError(len(candidates))
}

// coveredByAvailability is true when the provider has no windows configured
// or one of them covers the requested slot.
func (r *AssignmentResolver) coveredByAvailability(ctx context.Context, providerID uuid.UUID, req ResolveRequest) (bool, error) {
	windows, err := r.windows.FindByProvider(ctx, providerID)
	if err != nil {
		return false, fmt.Errorf("failed to load availability: %w", err)
	}
	if len(windows) == 0 {
		return true, nil
	}
	d := time.Duration(req.DurationMinutes) * time.Minute
	return availability.CoveredBy(windows, req.ScheduledStart, d), nil
}

func (r *AssignmentResolver) commit(ctx context.Context, p *providerDomain.Provider, req ResolveRequest, auto bool) (*bookingDomain.Booking, error) {
	quote, err := r.pricing.Calculate(bookingDomain.PricingParams{
		ProviderKind:    p.Kind(),
		HourlyRateCents: p.HourlyRateCents(),
		DurationMinutes: req.DurationMinutes,
	})
	if err != nil {
		return nil, domain.NewValidationError(fmt.Sprintf("pricing error: %v", err))
	}

	bk, err := bookingDomain.NewBooking(bookingDomain.NewBookingParams{
		ProviderID:      p.ID(),
		Subject:         req.Subject,
		ScheduledStart:  req.ScheduledStart,
		DurationMinutes: req.DurationMinutes,
		AutoAssigned:    auto,
		RequestedBy:     req.RequestedBy,
		Quote:           quote,
		Location:        req.Location,
		Notes:           req.Notes,
	}, r.clock())
	if err != nil {
		return nil, err
	}

	if err := r.bookings.SaveIfFree(ctx, bk); err != nil {
		return nil, err
	}
	return bk, nil
}
