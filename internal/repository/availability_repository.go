package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/estatehub/service-scheduling/internal/domain/availability"
	"github.com/estatehub/service-scheduling/internal/platform/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AvailabilityModel is the GORM model for the provider_availability table.
// Times of day are stored as HH:MM in the window's timezone.
type AvailabilityModel struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	ProviderID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_availability_provider_day"`
	DayOfWeek   int       `gorm:"type:smallint;not null;uniqueIndex:idx_availability_provider_day"`
	StartTime   string    `gorm:"type:varchar(5);not null"`
	EndTime     string    `gorm:"type:varchar(5);not null"`
	BreakStart  *string   `gorm:"type:varchar(5)"`
	BreakEnd    *string   `gorm:"type:varchar(5)"`
	IsAvailable bool      `gorm:"not null;default:true"`
	Timezone    string    `gorm:"type:varchar(64);not null;default:'Africa/Cairo'"`
	CreatedAt   time.Time `gorm:"type:timestamptz;not null"`
	UpdatedAt   time.Time `gorm:"type:timestamptz;not null"`
}

// TableName sets the table name.
func (AvailabilityModel) TableName() string { return "provider_availability" }

// GormWindowRepository implements availability.WindowRepository using GORM.
type GormWindowRepository struct {
	db *gorm.DB
}

// NewGormWindowRepository creates a new GormWindowRepository.
func NewGormWindowRepository(db *gorm.DB) *GormWindowRepository {
	return &GormWindowRepository{db: db}
}

// FindByID returns a single window.
func (r *GormWindowRepository) FindByID(ctx context.Context, id uuid.UUID) (*availability.Window, error) {
	var model AvailabilityModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("availability", id.String())
		}
		return nil, fmt.Errorf("failed to find availability: %w", err)
	}
	return toWindowDomain(&model)
}

// FindByProvider returns all of a provider's windows ordered by weekday.
func (r *GormWindowRepository) FindByProvider(ctx context.Context, providerID uuid.UUID) ([]*availability.Window, error) {
	return r.List(ctx, availability.WindowFilter{ProviderID: &providerID})
}

// FindByProviderAndDay returns the provider's window for one weekday.
func (r *GormWindowRepository) FindByProviderAndDay(ctx context.Context, providerID uuid.UUID, dayOfWeek int) (*availability.Window, error) {
	var model AvailabilityModel
	if err := r.db.WithContext(ctx).
		Where("provider_id = ? AND day_of_week = ?", providerID, dayOfWeek).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("availability", providerID.String())
		}
		return nil, fmt.Errorf("failed to find availability: %w", err)
	}
	return toWindowDomain(&model)
}

// List returns windows matching the filter ordered by provider and weekday.
func (r *GormWindowRepository) List(ctx context.Context, f availability.WindowFilter) ([]*availability.Window, error) {
	query := r.db.WithContext(ctx)
	if f.ProviderID != nil {
		query = query.Where("provider_id = ?", *f.ProviderID)
	}
	if f.DayOfWeek != nil {
		query = query.Where("day_of_week = ?", *f.DayOfWeek)
	}
	if f.AvailableOnly {
		query = query.Where("is_available = ?", true)
	}

	var models []AvailabilityModel
	if err := query.Order("provider_id ASC").Order("day_of_week ASC").Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to list availability: %w", err)
	}
	windows := make([]*availability.Window, 0, len(models))
	for i := range models {
		w, err := toWindowDomain(&models[i])
		if err != nil {
			return nil, err
		}
		windows = append(windows, w)
	}
	return windows, nil
}

// Upsert inserts the window or overwrites the row stored for the same
// provider and weekday, keeping that row's id.
func (r *GormWindowRepository) Upsert(ctx context.Context, w *availability.Window) error {
	model := toAvailabilityModel(w)
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "provider_id"}, {Name: "day_of_week"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"start_time", "end_time", "break_start", "break_end", "is_available", "timezone", "updated_at",
		}),
	}).Create(model).Error
	if err != nil {
		return fmt.Errorf("failed to upsert availability: %w", err)
	}
	return nil
}

// Delete removes a window.
func (r *GormWindowRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&AvailabilityModel{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete availability: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.NewNotFoundError("availability", id.String())
	}
	return nil
}

func toAvailabilityModel(w *availability.Window) *AvailabilityModel {
	m := &AvailabilityModel{
		ID:          w.ID(),
		ProviderID:  w.ProviderID(),
		DayOfWeek:   int(w.DayOfWeek()),
		StartTime:   w.Start().String(),
		EndTime:     w.End().String(),
		IsAvailable: w.IsAvailable(),
		Timezone:    w.Timezone(),
		CreatedAt:   w.CreatedAt(),
		UpdatedAt:   w.UpdatedAt(),
	}
	if w.HasBreak() {
		bs, be := w.BreakStart().String(), w.BreakEnd().String()
		m.BreakStart, m.BreakEnd = &bs, &be
	}
	return m
}

func toWindowDomain(m *AvailabilityModel) (*availability.Window, error) {
	start, err := availability.ParseTimeOfDay(m.StartTime)
	if err != nil {
		return nil, fmt.Errorf("availability %s: %w", m.ID, err)
	}
	end, err := availability.ParseTimeOfDay(m.EndTime)
	if err != nil {
		return nil, fmt.Errorf("availability %s: %w", m.ID, err)
	}
	var breakStart, breakEnd *availability.TimeOfDay
	if m.BreakStart != nil && m.BreakEnd != nil {
		bs, err := availability.ParseTimeOfDay(*m.BreakStart)
		if err != nil {
			return nil, fmt.Errorf("availability %s: %w", m.ID, err)
		}
		be, err := availability.ParseTimeOfDay(*m.BreakEnd)
		if err != nil {
			return nil, fmt.Errorf("availability %s: %w", m.ID, err)
		}
		breakStart, breakEnd = &bs, &be
	}
	return availability.ReconstructWindow(
		m.ID, m.ProviderID, m.DayOfWeek,
		start, end, breakStart, breakEnd,
		m.IsAvailable, m.Timezone,
		m.CreatedAt, m.UpdatedAt,
	), nil
}
