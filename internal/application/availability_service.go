package application

import (
	"context"
	"errors"
	"fmt"

	"github.com/estatehub/service-scheduling/internal/domain/availability"
	providerDomain "github.com/estatehub/service-scheduling/internal/domain/provider"
	"github.com/estatehub/service-scheduling/internal/platform/auth"
	"github.com/estatehub/service-scheduling/internal/platform/domain"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AvailabilityQuery holds the GET /availability filters.
type AvailabilityQuery struct {
	ProviderID    *uuid.UUID
	DayOfWeek     *int
	AvailableOnly bool
}

// AvailabilityView is the response of GetAvailability. WeeklySchedule and
// CurrentStatus are only filled when a provider is given.
type AvailabilityView struct {
	Availability   []WindowDTO       `json:"availability"`
	WeeklySchedule []DayScheduleDTO  `json:"weekly_schedule,omitempty"`
	CurrentStatus  *CurrentStatusDTO `json:"current_status,omitempty"`
}

// UpsertWindowRequest is the body of POST /availability.
type UpsertWindowRequest struct {
	ProviderID     uuid.UUID `json:"provider_id" binding:"required"`
	DayOfWeek      *int      `json:"day_of_week" binding:"required"`
	StartTime      string    `json:"start_time" binding:"required"`
	EndTime        string    `json:"end_time" binding:"required"`
	BreakStartTime string    `json:"break_start_time"`
	BreakEndTime   string    `json:"break_end_time"`
	IsAvailable    *bool     `json:"is_available"`
	Timezone       string    `json:"timezone"`
}

// UpdateWindowRequest is the body of PUT /availability. Omitted fields keep
// their stored value; ClearBreak removes the break.
type UpdateWindowRequest struct {
	AvailabilityID uuid.UUID `json:"availability_id" binding:"required"`
	StartTime      *string   `json:"start_time"`
	EndTime        *string   `json:"end_time"`
	BreakStartTime *string   `json:"break_start_time"`
	BreakEndTime   *string   `json:"break_end_time"`
	ClearBreak     bool      `json:"clear_break"`
	IsAvailable    *bool     `json:"is_available"`
	Timezone       *string   `json:"timezone"`
}

// AvailabilityService implements the availability store use cases.
type AvailabilityService struct {
	windows   availability.WindowRepository
	providers providerDomain.ProviderRepository
	clock     Clock
	logger    *zap.Logger
}

// NewAvailabilityService creates a new AvailabilityService.
func NewAvailabilityService(
	windows availability.WindowRepository,
	providers providerDomain.ProviderRepository,
	clock Clock,
	logger *zap.Logger,
) *AvailabilityService {
	return &AvailabilityService{windows: windows, providers: providers, clock: clock, logger: logger}
}

// GetAvailability lists windows matching q and, for a single provider, adds
// the weekly schedule and the current status.
func (s *AvailabilityService) GetAvailability(ctx context.Context, q AvailabilityQuery) (*AvailabilityView, error) {
	if q.DayOfWeek != nil && (*q.DayOfWeek < 0 || *q.DayOfWeek > 6) {
		return nil, domain.NewValidationError("day_of_week must be between 0 and 6")
	}
	listed, err := s.windows.List(ctx, availability.WindowFilter{
		ProviderID:    q.ProviderID,
		DayOfWeek:     q.DayOfWeek,
		AvailableOnly: q.AvailableOnly,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list availability: %w", err)
	}

	view := &AvailabilityView{Availability: toWindowDTOs(listed)}
	if q.ProviderID == nil {
		return view, nil
	}

	all, err := s.windows.FindByProvider(ctx, *q.ProviderID)
	if err != nil {
		return nil, fmt.Errorf("failed to load weekly schedule: %w", err)
	}
	week := availability.BuildWeeklySchedule(all)
	view.WeeklySchedule = make([]DayScheduleDTO, len(week))
	for i, day := range week {
		view.WeeklySchedule[i] = DayScheduleDTO{
			DayOfWeek: int(day.DayOfWeek),
			DayName:   day.DayOfWeek.String(),
			Windows:   toWindowDTOs(day.Windows),
		}
	}
	view.CurrentStatus = toCurrentStatusDTO(availability.ComputeCurrentStatus(all, s.clock()))
	return view, nil
}

// WindowsFor returns every window configured for a provider.
func (s *AvailabilityService) WindowsFor(ctx context.Context, providerID uuid.UUID) ([]*availability.Window, error) {
	return s.windows.FindByProvider(ctx, providerID)
}

// UpsertWindow replaces the provider's window for the weekday, or creates
// it. Invalid input leaves the store unchanged.
func (s *AvailabilityService) UpsertWindow(ctx context.Context, actor auth.Context, req UpsertWindowRequest) (*WindowDTO, error) {
	if req.DayOfWeek == nil {
		return nil, domain.NewValidationError("day_of_week is required")
	}
	if err := s.authorize(ctx, actor, req.ProviderID); err != nil {
		return nil, err
	}

	isAvailable := true
	if req.IsAvailable != nil {
		isAvailable = *req.IsAvailable
	}
	spec := availability.WindowSpec{
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		BreakStart:  req.BreakStartTime,
		BreakEnd:    req.BreakEndTime,
		IsAvailable: isAvailable,
		Timezone:    req.Timezone,
	}

	w, err := s.windows.FindByProviderAndDay(ctx, req.ProviderID, *req.DayOfWeek)
	var nf *domain.NotFoundError
	switch {
	case err == nil:
		if err := w.Replace(spec); err != nil {
			return nil, err
		}
	case errors.As(err, &nf):
		w, err = availability.NewWindow(req.ProviderID, *req.DayOfWeek, spec)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("failed to load availability: %w", err)
	}

	if err := s.windows.Upsert(ctx, w); err != nil {
		return nil, fmt.Errorf("failed to save availability: %w", err)
	}

	s.logger.Info("availability upserted",
		zap.String("provider_id", req.ProviderID.String()),
		zap.Int("day_of_week", *req.DayOfWeek),
		zap.String("actor", actor.UserID.String()),
	)
	dto := toWindowDTO(w)
	return &dto, nil
}

// UpdateWindow patches a single window.
func (s *AvailabilityService) UpdateWindow(ctx context.Context, actor auth.Context, req UpdateWindowRequest) (*WindowDTO, error) {
	w, err := s.windows.FindByID(ctx, req.AvailabilityID)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, actor, w.ProviderID()); err != nil {
		return nil, err
	}

	spec := w.Spec()
	if req.StartTime != nil {
		spec.StartTime = *req.StartTime
	}
	if req.EndTime != nil {
		spec.EndTime = *req.EndTime
	}
	if req.ClearBreak {
		spec.BreakStart, spec.BreakEnd = "", ""
	}
	if req.BreakStartTime != nil {
		spec.BreakStart = *req.BreakStartTime
	}
	if req.BreakEndTime != nil {
		spec.BreakEnd = *req.BreakEndTime
	}
	if req.IsAvailable != nil {
		spec.IsAvailable = *req.IsAvailable
	}
	if req.Timezone != nil {
		spec.Timezone = *req.Timezone
	}

	if err := w.Replace(spec); err != nil {
		return nil, err
	}
	if err := s.windows.Upsert(ctx, w); err != nil {
		return nil, fmt.Errorf("failed to save availability: %w", err)
	}
	dto := toWindowDTO(w)
	return &dto, nil
}

// DeleteWindow removes a single window.
func (s *AvailabilityService) DeleteWindow(ctx context.Context, actor auth.Context, availabilityID uuid.UUID) error {
	w, err := s.windows.FindByID(ctx, availabilityID)
	if err != nil {
		return err
	}
	if err := s.authorize(ctx, actor, w.ProviderID()); err != nil {
		return err
	}
	if err := s.windows.Delete(ctx, availabilityID); err != nil {
		return fmt.Errorf("failed to delete availability: %w", err)
	}
	s.logger.Info("availability deleted",
		zap.String("availability_id", availabilityID.String()),
		zap.String("actor", actor.UserID.String()),
	)
	return nil
}

// authorize allows admins and the provider themselves. The provider must
// exist.
func (s *AvailabilityService) authorize(ctx context.Context, actor auth.Context, providerID uuid.UUID) error {
	if _, err := s.providers.FindByID(ctx, providerID); err != nil {
		return err
	}
	if actor.IsAdmin() || actor.ActsAsProvider(providerID) {
		return nil
	}
	return domain.NewForbiddenError("only an admin or the provider may change this availability")
}
