package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	bookingDomain "github.com/estatehub/service-scheduling/internal/domain/booking"
	"github.com/estatehub/service-scheduling/internal/platform/database"
	"github.com/estatehub/service-scheduling/internal/platform/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// BookingModel is the GORM model for the bookings table.
type BookingModel struct {
	ID                    uuid.UUID  `gorm:"type:uuid;primaryKey"`
	BookingNumber         string     `gorm:"uniqueIndex;not null;size:20"`
	ProviderID            uuid.UUID  `gorm:"type:uuid;index;not null"`
	LeadID                *uuid.UUID `gorm:"type:uuid;index"`
	PropertyID            *uuid.UUID `gorm:"type:uuid;index"`
	ScheduledStart        time.Time  `gorm:"type:timestamptz;not null;index"`
	ScheduledEnd          time.Time  `gorm:"type:timestamptz;not null"`
	DurationMinutes       int        `gorm:"not null"`
	Status                string     `gorm:"not null;size:30;index"`
	PaymentStatus         string     `gorm:"not null;size:20;default:'not_required'"`
	AutoAssigned          bool       `gorm:"not null;default:false"`
	RequestedBy           uuid.UUID  `gorm:"type:uuid;index;not null"`
	EstimatedCostCents    int64      `gorm:"not null"`
	DepositCents          int64      `gorm:"not null;default:0"`
	Currency              string     `gorm:"not null;size:3;default:'EGP'"`
	PaymentReference      string     `gorm:"size:255;index"`
	Location              string     `gorm:"size:500"`
	Notes                 string     `gorm:"size:1000"`
	ActualDurationMinutes *int       `gorm:""`
	Rating                *int       `gorm:""`
	CompletionNotes       string     `gorm:"size:2000"`
	CancelReason          string     `gorm:"size:500"`
	ConfirmedAt           *time.Time `gorm:""`
	StartedAt             *time.Time `gorm:""`
	CompletedAt           *time.Time `gorm:""`
	CancelledAt           *time.Time `gorm:""`
	Version               int64      `gorm:"not null;default:1"`
	CreatedAt             time.Time  `gorm:"not null"`
	UpdatedAt             time.Time  `gorm:"not null"`
}

// TableName returns the table name for the GORM model.
func (BookingModel) TableName() string {
	return "bookings"
}

// GormBookingRepository is the GORM-based implementation of BookingRepository.
type GormBookingRepository struct {
	db *gorm.DB
}

// NewGormBookingRepository creates a new GormBookingRepository.
func NewGormBookingRepository(db *gorm.DB) *GormBookingRepository {
	return &GormBookingRepository{db: db}
}

// FindByID retrieves a booking by its unique identifier.
func (r *GormBookingRepository) FindByID(ctx context.Context, id uuid.UUID) (*bookingDomain.Booking, error) {
	var model BookingModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("booking", id.String())
		}
		return nil, fmt.Errorf("failed to find booking by ID: %w", err)
	}
	return toDomainBooking(&model)
}

// FindByNumber retrieves a booking by its confirmation number.
func (r *GormBookingRepository) FindByNumber(ctx context.Context, number string) (*bookingDomain.Booking, error) {
	var model BookingModel
	if err := r.db.WithContext(ctx).Where("booking_number = ?", number).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("booking", number)
		}
		return nil, fmt.Errorf("failed to find booking by number: %w", err)
	}
	return toDomainBooking(&model)
}

// List retrieves bookings matching the filter, earliest first.
func (r *GormBookingRepository) List(ctx context.Context, f bookingDomain.ListFilter) ([]*bookingDomain.Booking, int64, error) {
	query := r.db.WithContext(ctx).Model(&BookingModel{})
	if f.ProviderID != nil {
		query = query.Where("provider_id = ?", *f.ProviderID)
	}
	if f.RequestedBy != nil {
		query = query.Where("requested_by = ?", *f.RequestedBy)
	}
	if f.Status != nil {
		query = query.Where("status = ?", string(*f.Status))
	}
	if f.From != nil {
		query = query.Where("scheduled_start >= ?", *f.From)
	}
	if f.To != nil {
		query = query.Where("scheduled_start <= ?", *f.To)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count bookings: %w", err)
	}

	query = query.Order("scheduled_start ASC").Order("created_at ASC")
	if f.Limit > 0 {
		page := f.Page
		if page < 1 {
			page = 1
		}
		query = query.Offset((page - 1) * f.Limit).Limit(f.Limit)
	}

	var models []BookingModel
	if err := query.Find(&models).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list bookings: %w", err)
	}
	bookings, err := toDomainBookings(models)
	if err != nil {
		return nil, 0, err
	}
	return bookings, total, nil
}

// FindOverlapping returns the provider's blocking bookings that overlap the
// half-open interval.
func (r *GormBookingRepository) FindOverlapping(ctx context.Context, providerID uuid.UUID, interval bookingDomain.Interval) ([]*bookingDomain.Booking, error) {
	return findOverlapping(r.db.WithContext(ctx), providerID, interval)
}

func findOverlapping(db *gorm.DB, providerID uuid.UUID, interval bookingDomain.Interval) ([]*bookingDomain.Booking, error) {
	var models []BookingModel
	if err := db.
		Where("provider_id = ?", providerID).
		Where("status NOT IN ?", terminalStatuses()).
		Where("scheduled_start < ? AND scheduled_end > ?", interval.End, interval.Start).
		Order("scheduled_start ASC").
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to find overlapping bookings: %w", err)
	}
	return toDomainBookings(models)
}

// CountByStatus returns booking counts grouped by status (admin).
func (r *GormBookingRepository) CountByStatus(ctx context.Context) (map[string]int64, error) {
	type statusCount struct {
		Status string
		Count  int64
	}
	var results []statusCount
	if err := r.db.WithContext(ctx).Model(&BookingModel{}).
		Select("status, count(*) as count").
		Group("status").
		Find(&results).Error; err != nil {
		return nil, fmt.Errorf("failed to count by status: %w", err)
	}

	counts := make(map[string]int64)
	for _, sc := range results {
		counts[sc.Status] = sc.Count
	}
	return counts, nil
}

// SaveIfFree inserts bk unless the provider holds an overlapping blocking
// booking. The provider row is locked for the duration of the transaction so
// concurrent inserts for one provider serialize; the bookings_no_overlap
// exclusion constraint backs this up.
func (r *GormBookingRepository) SaveIfFree(ctx context.Context, bk *bookingDomain.Booking) error {
	model := toBookingModel(bk)

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var owner ProviderModel
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Select("id").
			Where("id = ?", model.ProviderID).
			First(&owner).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.NewNotFoundError("provider", model.ProviderID.String())
			}
			return fmt.Errorf("failed to lock provider: %w", err)
		}

		conflicts, err := findOverlapping(tx, bk.ProviderID(), bk.Interval())
		if err != nil {
			return err
		}
		if len(conflicts) > 0 {
			return bookingDomain.NewSchedulingConflictError(bk.ProviderID(), conflicts)
		}
		return tx.Create(model).Error
	})
	if err == nil {
		return nil
	}

	var sce *bookingDomain.SchedulingConflictError
	var nf *domain.NotFoundError
	switch {
	case errors.As(err, &sce), errors.As(err, &nf):
		return err
	case database.IsExclusionViolation(err):
		conflicts, findErr := r.FindOverlapping(ctx, bk.ProviderID(), bk.Interval())
		if findErr != nil {
			conflicts = nil
		}
		return bookingDomain.NewSchedulingConflictError(bk.ProviderID(), conflicts)
	case database.IsUniqueViolation(err):
		return domain.NewConflictError("booking number already exists")
	default:
		return fmt.Errorf("failed to save booking: %w", err)
	}
}

// Update persists changes to an existing booking with optimistic locking.
func (r *GormBookingRepository) Update(ctx context.Context, bk *bookingDomain.Booking) error {
	model := toBookingModel(bk)

	// IncrementVersion has already been called on bk.
	expectedVersion := bk.Version() - 1
	result := r.db.WithContext(ctx).
		Model(&BookingModel{}).
		Where("id = ? AND version = ?", model.ID, expectedVersion).
		Updates(map[string]interface{}{
			"status":                  model.Status,
			"payment_status":          model.PaymentStatus,
			"payment_reference":       model.PaymentReference,
			"actual_duration_minutes": model.ActualDurationMinutes,
			"rating":                  model.Rating,
			"completion_notes":        model.CompletionNotes,
			"cancel_reason":           model.CancelReason,
			"confirmed_at":            model.ConfirmedAt,
			"started_at":              model.StartedAt,
			"completed_at":            model.CompletedAt,
			"cancelled_at":            model.CancelledAt,
			"notes":                   model.Notes,
			"version":                 model.Version,
			"updated_at":              model.UpdatedAt,
		})

	if result.Error != nil {
		return fmt.Errorf("failed to update booking: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.NewConflictError("booking was modified by another transaction")
	}
	return nil
}

func terminalStatuses() []string {
	out := make([]string, len(bookingDomain.TerminalStatuses))
	for i, s := range bookingDomain.TerminalStatuses {
		out[i] = string(s)
	}
	return out
}

// --- Conversion Helpers ---

func toBookingModel(bk *bookingDomain.Booking) *BookingModel {
	s := bk.Snapshot()
	return &BookingModel{
		ID:                    s.ID,
		BookingNumber:         s.BookingNumber,
		ProviderID:            s.ProviderID,
		LeadID:                s.Subject.LeadID(),
		PropertyID:            s.Subject.PropertyID(),
		ScheduledStart:        s.ScheduledStart,
		ScheduledEnd:          bk.ScheduledEnd(),
		DurationMinutes:       s.DurationMinutes,
		Status:                string(s.Status),
		PaymentStatus:         string(s.PaymentStatus),
		AutoAssigned:          s.AutoAssigned,
		RequestedBy:           s.RequestedBy,
		EstimatedCostCents:    s.EstimatedCostCents,
		DepositCents:          s.DepositCents,
		Currency:              s.Currency,
		PaymentReference:      s.PaymentReference,
		Location:              s.Location,
		Notes:                 s.Notes,
		ActualDurationMinutes: s.ActualDurationMinutes,
		Rating:                s.Rating,
		CompletionNotes:       s.CompletionNotes,
		CancelReason:          s.CancelReason,
		ConfirmedAt:           s.ConfirmedAt,
		StartedAt:             s.StartedAt,
		CompletedAt:           s.CompletedAt,
		CancelledAt:           s.CancelledAt,
		Version:               s.Version,
		CreatedAt:             s.CreatedAt,
		UpdatedAt:             s.UpdatedAt,
	}
}

func toDomainBooking(m *BookingModel) (*bookingDomain.Booking, error) {
	status, err := bookingDomain.ParseBookingStatus(m.Status)
	if err != nil {
		return nil, err
	}
	subject, err := bookingDomain.SubjectFromRefs(m.LeadID, m.PropertyID)
	if err != nil {
		return nil, fmt.Errorf("booking %s has an invalid subject: %w", m.ID, err)
	}

	return bookingDomain.ReconstructBooking(bookingDomain.Snapshot{
		ID:                    m.ID,
		BookingNumber:         m.BookingNumber,
		ProviderID:            m.ProviderID,
		Subject:               subject,
		ScheduledStart:        m.ScheduledStart.UTC(),
		DurationMinutes:       m.DurationMinutes,
		Status:                status,
		PaymentStatus:         bookingDomain.PaymentStatus(m.PaymentStatus),
		AutoAssigned:          m.AutoAssigned,
		RequestedBy:           m.RequestedBy,
		EstimatedCostCents:    m.EstimatedCostCents,
		DepositCents:          m.DepositCents,
		Currency:              m.Currency,
		PaymentReference:      m.PaymentReference,
		Location:              m.Location,
		Notes:                 m.Notes,
		ActualDurationMinutes: m.ActualDurationMinutes,
		Rating:                m.Rating,
		CompletionNotes:       m.CompletionNotes,
		CancelReason:          m.CancelReason,
		ConfirmedAt:           m.ConfirmedAt,
		StartedAt:             m.StartedAt,
		CompletedAt:           m.CompletedAt,
		CancelledAt:           m.CancelledAt,
		Version:               m.Version,
		CreatedAt:             m.CreatedAt,
		UpdatedAt:             m.UpdatedAt,
	}), nil
}

func toDomainBookings(models []BookingModel) ([]*bookingDomain.Booking, error) {
	bookings := make([]*bookingDomain.Booking, len(models))
	for i := range models {
		bk, err := toDomainBooking(&models[i])
		if err != nil {
			return nil, err
		}
		bookings[i] = bk
	}
	return bookings, nil
}
