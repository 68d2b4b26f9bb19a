// Package schema defines the topics, event types and payloads exchanged
// over Kafka.
package schema

import (
	"time"

	"github.com/google/uuid"
)

// Source identifies this service in CloudEvent envelopes.
const Source = "service-scheduling"

// Topics.
const (
	TopicBookingEvents = "booking.events"
	TopicPaymentEvents = "payment.events"
)

// Event types published on TopicBookingEvents.
const (
	BookingCreated       = "booking.created"
	BookingStatusChanged = "booking.status_changed"
	BookingCompleted     = "booking.completed"
	BookingCancelled     = "booking.cancelled"
)

// Event types consumed from TopicPaymentEvents.
const (
	PaymentSucceeded = "payment.succeeded"
	PaymentFailed    = "payment.failed"
)

// BookingCreatedEvent is published when a booking is committed.
type BookingCreatedEvent struct {
	BookingID      uuid.UUID `json:"booking_id"`
	BookingNumber  string    `json:"booking_number"`
	ProviderID     uuid.UUID `json:"provider_id"`
	SubjectType    string    `json:"subject_type"`
	SubjectID      uuid.UUID `json:"subject_id"`
	ScheduledStart time.Time `json:"scheduled_start"`
	ScheduledEnd   time.Time `json:"scheduled_end"`
	Status         string    `json:"status"`
	AutoAssigned   bool      `json:"auto_assigned"`
	EstimatedCost  int64     `json:"estimated_cost"`
	DepositAmount  int64     `json:"deposit_amount"`
	Currency       string    `json:"currency"`
	RequestedBy    uuid.UUID `json:"requested_by"`
	OccurredAt     time.Time `json:"occurred_at"`
}

// BookingStatusChangedEvent is published on every lifecycle transition.
type BookingStatusChangedEvent struct {
	BookingID     uuid.UUID `json:"booking_id"`
	BookingNumber string    `json:"booking_number"`
	ProviderID    uuid.UUID `json:"provider_id"`
	From          string    `json:"from"`
	To            string    `json:"to"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// BookingCompletedEvent is published when a booking reaches completed.
type BookingCompletedEvent struct {
	BookingID             uuid.UUID `json:"booking_id"`
	BookingNumber         string    `json:"booking_number"`
	ProviderID            uuid.UUID `json:"provider_id"`
	SubjectType           string    `json:"subject_type"`
	SubjectID             uuid.UUID `json:"subject_id"`
	ActualDurationMinutes int       `json:"actual_duration_minutes"`
	Rating                *int      `json:"rating,omitempty"`
	OccurredAt            time.Time `json:"occurred_at"`
}

// BookingCancelledEvent is published when a booking is cancelled.
type BookingCancelledEvent struct {
	BookingID     uuid.UUID `json:"booking_id"`
	BookingNumber string    `json:"booking_number"`
	ProviderID    uuid.UUID `json:"provider_id"`
	CancelledBy   uuid.UUID `json:"cancelled_by"`
	Reason        string    `json:"reason,omitempty"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// PaymentSucceededEvent reports a collected deposit.
type PaymentSucceededEvent struct {
	BookingID        uuid.UUID `json:"booking_id"`
	PaymentReference string    `json:"payment_reference"`
	AmountCents      int64     `json:"amount_cents"`
	Currency         string    `json:"currency"`
	OccurredAt       time.Time `json:"occurred_at"`
}

// PaymentFailedEvent reports a deposit that could not be collected.
type PaymentFailedEvent struct {
	BookingID        uuid.UUID `json:"booking_id"`
	PaymentReference string    `json:"payment_reference"`
	Reason           string    `json:"reason"`
	OccurredAt       time.Time `json:"occurred_at"`
}
