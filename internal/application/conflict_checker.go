package application

import (
	"context"
	"fmt"
	"time"

	bookingDomain "github.com/estatehub/service-scheduling/internal/domain/booking"
	"github.com/google/uuid"
)

// ConflictResult is the outcome of a conflict check.
type ConflictResult struct {
	Available bool
	Conflicts []*bookingDomain.Booking
}

// ConflictChecker finds blocking bookings overlapping a candidate slot.
type ConflictChecker struct {
	bookings bookingDomain.BookingRepository
}

// NewConflictChecker creates a ConflictChecker.
func NewConflictChecker(bookings bookingDomain.BookingRepository) *ConflictChecker {
	return &ConflictChecker{bookings: bookings}
}

// HasConflict checks [start, start+durationMinutes) against the provider's
// blocking bookings. Non-positive durations are a validation error.
func (c *ConflictChecker) HasConflict(ctx context.Context, providerID uuid.UUID, start time.Time, durationMinutes int) (*ConflictResult, error) {
	candidate, err := bookingDomain.NewInterval(start, durationMinutes)
	if err != nil {
		return nil, err
	}
	existing, err := c.bookings.FindOverlapping(ctx, providerID, candidate)
	if err != nil {
		return nil, fmt.Errorf("failed to load provider bookings: %w", err)
	}
	conflicts := bookingDomain.FilterConflicts(existing, candidate)
	return &ConflictResult{Available: len(conflicts) == 0, Conflicts: conflicts}, nil
}
