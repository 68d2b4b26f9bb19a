package application

import (
	"context"
	"fmt"

	providerDomain "github.com/estatehub/service-scheduling/internal/domain/provider"
	"github.com/estatehub/service-scheduling/internal/platform/auth"
	"github.com/estatehub/service-scheduling/internal/platform/domain"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CreateProviderRequest is the request DTO for registering a provider.
type CreateProviderRequest struct {
	UserID          uuid.UUID `json:"user_id" binding:"required"`
	Kind            string    `json:"kind" binding:"required"`
	Name            string    `json:"name" binding:"required"`
	Email           string    `json:"email"`
	Phone           string    `json:"phone"`
	ServiceAreas    []string  `json:"service_areas"`
	HourlyRateCents int64     `json:"hourly_rate_cents"`
}

// UpdateProviderRequest is the request DTO for updating a provider profile.
type UpdateProviderRequest struct {
	Name            string   `json:"name"`
	Email           string   `json:"email"`
	Phone           string   `json:"phone"`
	ServiceAreas    []string `json:"service_areas"`
	HourlyRateCents int64    `json:"hourly_rate_cents"`
	IsActive        *bool    `json:"is_active"`
}

// ProviderListQuery holds the GET /providers filters.
type ProviderListQuery struct {
	Kind       string
	ActiveOnly bool
	Page       int
	Limit      int
}

// ProviderService implements use cases for the provider registry.
type ProviderService struct {
	repo   providerDomain.ProviderRepository
	logger *zap.Logger
}

// NewProviderService creates a new ProviderService.
func NewProviderService(repo providerDomain.ProviderRepository, logger *zap.Logger) *ProviderService {
	return &ProviderService{repo: repo, logger: logger}
}

// CreateProvider registers a provider profile (admin).
func (s *ProviderService) CreateProvider(ctx context.Context, req CreateProviderRequest) (*ProviderDTO, error) {
	kind, err := providerDomain.ParseKind(req.Kind)
	if err != nil {
		return nil, err
	}
	p, err := providerDomain.NewProvider(req.UserID, kind, providerDomain.Profile{
		Name:            req.Name,
		Email:           req.Email,
		Phone:           req.Phone,
		ServiceAreas:    req.ServiceAreas,
		HourlyRateCents: req.HourlyRateCents,
	})
	if err != nil {
		return nil, err
	}

	if err := s.repo.Save(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to save provider: %w", err)
	}

	s.logger.Info("provider registered",
		zap.String("provider_id", p.ID().String()),
		zap.String("kind", string(kind)),
	)
	dto := toProviderDTO(p)
	return &dto, nil
}

// GetProvider returns a provider by ID.
func (s *ProviderService) GetProvider(ctx context.Context, id uuid.UUID) (*ProviderDTO, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	dto := toProviderDTO(p)
	return &dto, nil
}

// ListProviders lists providers.
func (s *ProviderService) ListProviders(ctx context.Context, q ProviderListQuery) (*domain.PaginatedResult[ProviderDTO], error) {
	filter := providerDomain.ListFilter{ActiveOnly: q.ActiveOnly, Page: q.Page, Limit: q.Limit}
	if q.Kind != "" {
		k, err := providerDomain.ParseKind(q.Kind)
		if err != nil {
			return nil, err
		}
		filter.Kind = &k
	}

	providers, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list providers: %w", err)
	}
	dtos := make([]ProviderDTO, len(providers))
	for i, p := range providers {
		dtos[i] = toProviderDTO(p)
	}
	result := domain.NewPaginatedResult(dtos, total, q.Page, q.Limit)
	return &result, nil
}

// UpdateProvider updates a profile. The owning provider may edit their own
// profile but only an admin may change its active flag.
func (s *ProviderService) UpdateProvider(ctx context.Context, actor auth.Context, id uuid.UUID, req UpdateProviderRequest) (*ProviderDTO, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && !p.IsOwnedBy(actor.UserID) {
		return nil, domain.NewForbiddenError("provider profile does not belong to this user")
	}
	if req.IsActive != nil && !actor.IsAdmin() {
		return nil, domain.NewForbiddenError("only an admin may change a provider's active flag")
	}

	if err := p.Update(providerDomain.Profile{
		Name:            req.Name,
		Email:           req.Email,
		Phone:           req.Phone,
		ServiceAreas:    req.ServiceAreas,
		HourlyRateCents: req.HourlyRateCents,
	}); err != nil {
		return nil, err
	}
	if req.IsActive != nil {
		if *req.IsActive {
			p.Activate()
		} else {
			p.Deactivate()
		}
	}

	p.IncrementVersion()
	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	dto := toProviderDTO(p)
	return &dto, nil
}

// DeactivateProvider removes a provider from assignment (admin).
func (s *ProviderService) DeactivateProvider(ctx context.Context, id uuid.UUID) error {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	p.Deactivate()
	p.IncrementVersion()
	if err := s.repo.Update(ctx, p); err != nil {
		return err
	}
	s.logger.Info("provider deactivated", zap.String("provider_id", id.String()))
	return nil
}
