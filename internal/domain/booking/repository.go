package booking

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ListFilter narrows booking listings. Nil fields are ignored; From and To
// bound scheduled_start.
type ListFilter struct {
	ProviderID  *uuid.UUID
	RequestedBy *uuid.UUID
	Status      *BookingStatus
	From        *time.Time
	To          *time.Time
	Page        int
	Limit       int
}

// BookingRepository defines the persistence contract for booking aggregates.
type BookingRepository interface {
	// FindByID retrieves a booking by its unique identifier.
	FindByID(ctx context.Context, id uuid.UUID) (*Booking, error)

	// FindByNumber retrieves a booking by its confirmation number.
	FindByNumber(ctx context.Context, number string) (*Booking, error)

	// List retrieves bookings matching filter, earliest first, with pagination.
	List(ctx context.Context, filter ListFilter) ([]*Booking, int64, error)

	// FindOverlapping returns the provider's blocking bookings that overlap
	// the interval.
	FindOverlapping(ctx context.Context, providerID uuid.UUID, interval Interval) ([]*Booking, error)

	// CountByStatus returns booking counts grouped by status (admin).
	CountByStatus(ctx context.Context) (map[string]int64, error)

	// SaveIfFree persists a new booking unless the provider already holds an
	// overlapping blocking booking, in which case it returns a
	// *SchedulingConflictError. The check and the insert are atomic.
	SaveIfFree(ctx context.Context, booking *Booking) error

	// Update persists changes to an existing booking with optimistic locking.
	Update(ctx context.Context, booking *Booking) error
}
