package booking

import "fmt"

// BookingStatus represents the current state of a booking in its lifecycle.
type BookingStatus string

const (
	StatusPendingPayment BookingStatus = "pending_payment"
	StatusRequested      BookingStatus = "requested"
	StatusAssigned       BookingStatus = "assigned"
	StatusConfirmed      BookingStatus = "confirmed"
	StatusInProgress     BookingStatus = "in_progress"
	StatusCompleted      BookingStatus = "completed"
	StatusCancelled      BookingStatus = "cancelled"
)

// validTransitions defines the state machine for booking status transitions.
var validTransitions = map[BookingStatus][]BookingStatus{
	StatusPendingPayment: {StatusRequested, StatusAssigned, StatusCancelled},
	StatusRequested:      {StatusAssigned, StatusCancelled},
	StatusAssigned:       {StatusConfirmed, StatusCancelled},
	StatusConfirmed:      {StatusInProgress, StatusCancelled},
	StatusInProgress:     {StatusCompleted, StatusCancelled},
	StatusCompleted:      {},
	StatusCancelled:      {},
}

// TerminalStatuses lists the statuses that never block a provider's time.
var TerminalStatuses = []BookingStatus{StatusCompleted, StatusCancelled}

// IsValid returns true if the status is a recognized booking status.
func (s BookingStatus) IsValid() bool {
	_, exists := validTransitions[s]
	return exists
}

// CanTransitionTo returns true if a transition from this status to the target is allowed.
func (s BookingStatus) CanTransitionTo(target BookingStatus) bool {
	allowed, exists := validTransitions[s]
	if !exists {
		return false
	}
	for _, t := range allowed {
		if t == target {
			return true
		}
	}
	return false
}

// IsTerminal returns true if no further transitions are possible from this status.
func (s BookingStatus) IsTerminal() bool {
	allowed, exists := validTransitions[s]
	if !exists {
		return true
	}
	return len(allowed) == 0
}

// Blocks returns true if a booking in this status occupies its provider's time.
func (s BookingStatus) Blocks() bool {
	return !s.IsTerminal()
}

// NotifiesProvider returns true if entering this status dispatches a notification.
func (s BookingStatus) NotifiesProvider() bool {
	return s == StatusAssigned || s == StatusConfirmed
}

// String returns the string representation of the status.
func (s BookingStatus) String() string {
	return string(s)
}

// ParseBookingStatus converts a string to a BookingStatus, returning an error if invalid.
func ParseBookingStatus(s string) (BookingStatus, error) {
	status := BookingStatus(s)
	if !status.IsValid() {
		return "", fmt.Errorf("invalid booking status: %s", s)
	}
	return status, nil
}

// PaymentStatus tracks the deposit attached to a booking.
type PaymentStatus string

const (
	PaymentNotRequired PaymentStatus = "not_required"
	PaymentPending     PaymentStatus = "pending"
	PaymentPaid        PaymentStatus = "paid"
	PaymentFailed      PaymentStatus = "failed"
)
