package booking

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Error codes specific to scheduling.
const (
	CodeSchedulingConflict  = "SCHEDULING_CONFLICT"
	CodeNoProviderAvailable = "NO_PROVIDER_AVAILABLE"
	CodeOutsideAvailability = "OUTSIDE_AVAILABILITY"
)

// SchedulingConflictError reports that the provider already holds
// overlapping bookings.
type SchedulingConflictError struct {
	ProviderID uuid.UUID
	Conflicts  []*Booking
}

// NewSchedulingConflictError creates a SchedulingConflictError.
func NewSchedulingConflictError(providerID uuid.UUID, conflicts []*Booking) *SchedulingConflictError {
	return &SchedulingConflictError{ProviderID: providerID, Conflicts: conflicts}
}

func (e *SchedulingConflictError) Error() string {
	return fmt.Sprintf("provider %s has %d conflicting booking(s) in the requested time", e.ProviderID, len(e.Conflicts))
}

// Code returns the error code.
func (e *SchedulingConflictError) Code() string { return CodeSchedulingConflict }

// Details lists the conflicting bookings for the caller.
func (e *SchedulingConflictError) Details() map[string]interface{} {
	details := make([]map[string]interface{}, 0, len(e.Conflicts))
	for _, c := range e.Conflicts {
		details = append(details, map[string]interface{}{
			"booking_id":      c.ID().String(),
			"booking_number":  c.BookingNumber(),
			"scheduled_start": c.ScheduledStart().Format(time.RFC3339),
			"scheduled_end":   c.ScheduledEnd().Format(time.RFC3339),
			"status":          c.Status().String(),
		})
	}
	return map[string]interface{}{"conflict_details": details}
}

// NoProviderAvailableError reports that auto-assignment found no candidate.
type NoProviderAvailableError struct {
	Candidates int
}

// NewNoProviderAvailableError creates a NoProviderAvailableError.
func NewNoProviderAvailableError(candidates int) *NoProviderAvailableError {
	return &NoProviderAvailableError{Candidates: candidates}
}

func (e *NoProviderAvailableError) Error() string {
	if e.Candidates == 0 {
		return "no active provider can take this booking"
	}
	return fmt.Sprintf("none of %d candidate providers is free at the requested time", e.Candidates)
}

// Code returns the error code.
func (e *NoProviderAvailableError) Code() string { return CodeNoProviderAvailable }

// OutsideAvailabilityError reports a request outside the provider's
// working hours, including their break.
type OutsideAvailabilityError struct {
	ProviderID uuid.UUID
	Start      time.Time
}

// NewOutsideAvailabilityError creates an OutsideAvailabilityError.
func NewOutsideAvailabilityError(providerID uuid.UUID, start time.Time) *OutsideAvailabilityError {
	return &OutsideAvailabilityError{ProviderID: providerID, Start: start}
}

func (e *OutsideAvailabilityError) Error() string {
	return fmt.Sprintf("provider %s is not available at %s", e.ProviderID, e.Start.Format(time.RFC3339))
}

// Code returns the error code.
func (e *OutsideAvailabilityError) Code() string { return CodeOutsideAvailability }
