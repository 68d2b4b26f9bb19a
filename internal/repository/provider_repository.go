package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	providerDomain "github.com/estatehub/service-scheduling/internal/domain/provider"
	"github.com/estatehub/service-scheduling/internal/platform/database"
	"github.com/estatehub/service-scheduling/internal/platform/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ProviderModel is the GORM model for the providers table.
type ProviderModel struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID          uuid.UUID `gorm:"type:uuid;not null;uniqueIndex"`
	Kind            string    `gorm:"type:varchar(20);not null;index"`
	Name            string    `gorm:"type:varchar(200);not null"`
	Email           string    `gorm:"type:varchar(255)"`
	Phone           string    `gorm:"type:varchar(50)"`
	Rating          float64   `gorm:"type:decimal(3,2);not null;default:0"`
	RatingCount     int       `gorm:"not null;default:0"`
	ServiceAreas    []string  `gorm:"type:jsonb;serializer:json;not null"`
	HourlyRateCents int64     `gorm:"not null;default:0"`
	IsActive        bool      `gorm:"not null;default:true;index"`
	Version         int64     `gorm:"not null;default:1"`
	CreatedAt       time.Time `gorm:"type:timestamptz;not null;default:now()"`
	UpdatedAt       time.Time `gorm:"type:timestamptz;not null;default:now()"`
}

func (ProviderModel) TableName() string { return "providers" }

// GormProviderRepository implements ProviderRepository using GORM.
type GormProviderRepository struct {
	db *gorm.DB
}

func NewGormProviderRepository(db *gorm.DB) *GormProviderRepository {
	return &GormProviderRepository{db: db}
}

func (r *GormProviderRepository) FindByID(ctx context.Context, id uuid.UUID) (*providerDomain.Provider, error) {
	var model ProviderModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("provider", id.String())
		}
		return nil, fmt.Errorf("failed to find provider: %w", err)
	}
	return toProviderDomain(&model), nil
}

func (r *GormProviderRepository) FindByUserID(ctx context.Context, userID uuid.UUID) (*providerDomain.Provider, error) {
	var model ProviderModel
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("provider", userID.String())
		}
		return nil, fmt.Errorf("failed to find provider by user: %w", err)
	}
	return toProviderDomain(&model), nil
}

func (r *GormProviderRepository) FindActive(ctx context.Context, kind *providerDomain.Kind) ([]*providerDomain.Provider, error) {
	query := r.db.WithContext(ctx).Where("is_active = ?", true)
	if kind != nil {
		query = query.Where("kind = ?", string(*kind))
	}
	var models []ProviderModel
	if err := query.Order("created_at ASC").Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to find active providers: %w", err)
	}
	return toProviderDomains(models), nil
}

func (r *GormProviderRepository) List(ctx context.Context, f providerDomain.ListFilter) ([]*providerDomain.Provider, int64, error) {
	query := r.db.WithContext(ctx).Model(&ProviderModel{})
	if f.Kind != nil {
		query = query.Where("kind = ?", string(*f.Kind))
	}
	if f.ActiveOnly {
		query = query.Where("is_active = ?", true)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count providers: %w", err)
	}

	query = query.Order("created_at ASC")
	if f.Limit > 0 {
		page := f.Page
		if page < 1 {
			page = 1
		}
		query = query.Offset((page - 1) * f.Limit).Limit(f.Limit)
	}
	var models []ProviderModel
	if err := query.Find(&models).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list providers: %w", err)
	}
	return toProviderDomains(models), total, nil
}

func (r *GormProviderRepository) Save(ctx context.Context, p *providerDomain.Provider) error {
	if err := r.db.WithContext(ctx).Create(toProviderModel(p)).Error; err != nil {
		if database.IsUniqueViolation(err) {
			return domain.NewConflictError("user already has a provider profile")
		}
		return fmt.Errorf("failed to save provider: %w", err)
	}
	return nil
}

func (r *GormProviderRepository) Update(ctx context.Context, p *providerDomain.Provider) error {
	model := toProviderModel(p)
	previousVersion := p.Version() - 1

	result := r.db.WithContext(ctx).
		Model(&ProviderModel{}).
		Where("id = ? AND version = ?", model.ID, previousVersion).
		Select("name", "email", "phone", "rating", "rating_count", "service_areas",
			"hourly_rate_cents", "is_active", "version", "updated_at").
		Updates(model)

	if result.Error != nil {
		return fmt.Errorf("failed to update provider: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.NewConflictError("provider was modified by another transaction")
	}
	return nil
}

// --- Conversions ---

func toProviderModel(p *providerDomain.Provider) *ProviderModel {
	areas := p.ServiceAreas()
	if areas == nil {
		areas = []string{}
	}
	return &ProviderModel{
		ID:              p.ID(),
		UserID:          p.UserID(),
		Kind:            string(p.Kind()),
		Name:            p.Name(),
		Email:           p.Email(),
		Phone:           p.Phone(),
		Rating:          p.Rating(),
		RatingCount:     p.RatingCount(),
		ServiceAreas:    areas,
		HourlyRateCents: p.HourlyRateCents(),
		IsActive:        p.IsActive(),
		Version:         p.Version(),
		CreatedAt:       p.CreatedAt(),
		UpdatedAt:       p.UpdatedAt(),
	}
}

func toProviderDomain(m *ProviderModel) *providerDomain.Provider {
	return providerDomain.Reconstruct(
		m.ID, m.UserID,
		providerDomain.Kind(m.Kind),
		m.Name, m.Email, m.Phone,
		m.Rating, m.RatingCount,
		m.ServiceAreas,
		m.HourlyRateCents,
		m.IsActive,
		m.Version,
		m.CreatedAt, m.UpdatedAt,
	)
}

func toProviderDomains(models []ProviderModel) []*providerDomain.Provider {
	out := make([]*providerDomain.Provider, len(models))
	for i := range models {
		out[i] = toProviderDomain(&models[i])
	}
	return out
}
