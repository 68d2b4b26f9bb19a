package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/estatehub/service-scheduling/internal/domain/deliverable"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DeliverableModel is the GORM model for the booking_deliverables table.
type DeliverableModel struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	BookingID   uuid.UUID `gorm:"type:uuid;not null;index"`
	ProviderID  uuid.UUID `gorm:"type:uuid;not null"`
	Type        string    `gorm:"type:varchar(30);not null"`
	URL         string    `gorm:"type:text;not null"`
	Caption     string    `gorm:"type:text"`
	DeliveredAt time.Time `gorm:"not null"`
	CreatedAt   time.Time `gorm:"not null"`
}

// TableName sets the table name.
func (DeliverableModel) TableName() string { return "booking_deliverables" }

// GormDeliverableRepository implements DeliverableRepository using GORM.
type GormDeliverableRepository struct {
	db *gorm.DB
}

// NewGormDeliverableRepository creates a new GormDeliverableRepository.
func NewGormDeliverableRepository(db *gorm.DB) *GormDeliverableRepository {
	return &GormDeliverableRepository{db: db}
}

// Save persists a new deliverable.
func (r *GormDeliverableRepository) Save(ctx context.Context, d *deliverable.Deliverable) error {
	model := DeliverableModel{
		ID:          d.ID(),
		BookingID:   d.BookingID(),
		ProviderID:  d.ProviderID(),
		Type:        string(d.Type()),
		URL:         d.URL(),
		Caption:     d.Caption(),
		DeliveredAt: d.DeliveredAt(),
		CreatedAt:   d.CreatedAt(),
	}
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		return fmt.Errorf("failed to save deliverable: %w", err)
	}
	return nil
}

// FindByBookingID returns a booking's deliverables in delivery order.
func (r *GormDeliverableRepository) FindByBookingID(ctx context.Context, bookingID uuid.UUID) ([]*deliverable.Deliverable, error) {
	var models []DeliverableModel
	if err := r.db.WithContext(ctx).
		Where("booking_id = ?", bookingID).
		Order("delivered_at ASC").
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to find deliverables: %w", err)
	}

	out := make([]*deliverable.Deliverable, len(models))
	for i, m := range models {
		out[i] = deliverable.Reconstruct(m.ID, m.BookingID, m.ProviderID,
			deliverable.Type(m.Type), m.URL, m.Caption, m.DeliveredAt, m.CreatedAt)
	}
	return out, nil
}
