package booking

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/estatehub/service-scheduling/internal/platform/domain"
	"github.com/google/uuid"
)

const bookingNumberChars = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// Booking is the aggregate root for a scheduled provider engagement.
type Booking struct {
	id            uuid.UUID
	bookingNumber string
	providerID    uuid.UUID
	subject       Subject
	interval      Interval
	status        BookingStatus
	paymentStatus PaymentStatus
	autoAssigned  bool
	requestedBy   uuid.UUID

	estimatedCostCents int64
	depositCents       int64
	currency           string
	paymentReference   string

	location string
	notes    string

	actualDurationMinutes *int
	rating                *int
	completionNotes       string
	cancelReason          string

	confirmedAt *time.Time
	startedAt   *time.Time
	completedAt *time.Time
	cancelledAt *time.Time

	version   int64
	createdAt time.Time
	updatedAt time.Time
}

// NewBookingParams holds the inputs for NewBooking.
type NewBookingParams struct {
	ProviderID      uuid.UUID
	Subject         Subject
	ScheduledStart  time.Time
	DurationMinutes int
	AutoAssigned    bool
	RequestedBy     uuid.UUID
	Quote           Quote
	Location        string
	Notes           string
}

// Snapshot is the persisted form of a Booking.
type Snapshot struct {
	ID                    uuid.UUID
	BookingNumber         string
	ProviderID            uuid.UUID
	Subject               Subject
	ScheduledStart        time.Time
	DurationMinutes       int
	Status                BookingStatus
	PaymentStatus         PaymentStatus
	AutoAssigned          bool
	RequestedBy           uuid.UUID
	EstimatedCostCents    int64
	DepositCents          int64
	Currency              string
	PaymentReference      string
	Location              string
	Notes                 string
	ActualDurationMinutes *int
	Rating                *int
	CompletionNotes       string
	CancelReason          string
	ConfirmedAt           *time.Time
	StartedAt             *time.Time
	CompletedAt           *time.Time
	CancelledAt           *time.Time
	Version               int64
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// TransitionPayload carries the fields a status change may record.
type TransitionPayload struct {
	ActualDurationMinutes *int
	Rating                *int
	CompletionNotes       string
	Reason                string
}

// generateBookingNumber creates a booking number in the format "BK-XXXXXX".
func generateBookingNumber() (string, error) {
	result := make([]byte, 6)
	for i := range result {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(bookingNumberChars))))
		if err != nil {
			return "", fmt.Errorf("failed to generate booking number: %w", err)
		}
		result[i] = bookingNumberChars[n.Int64()]
	}
	return "BK-" + string(result), nil
}

// NewBooking creates a booking. The initial status is pending_payment when
// a deposit is due, otherwise assigned for auto-assigned bookings and
// requested for bookings naming their provider.
func NewBooking(p NewBookingParams, now time.Time) (*Booking, error) {
	if p.ProviderID == uuid.Nil {
		return nil, domain.NewValidationError("provider ID is required")
	}
	if p.Subject.IsZero() {
		return nil, domain.NewValidationError("booking must reference a lead or a property")
	}
	interval, err := NewInterval(p.ScheduledStart, p.DurationMinutes)
	if err != nil {
		return nil, err
	}
	if !p.ScheduledStart.After(now) {
		return nil, domain.NewValidationError("scheduled_time must be in the future")
	}
	if p.Quote.EstimatedCents < 0 || p.Quote.DepositCents < 0 {
		return nil, domain.NewValidationError("amounts cannot be negative")
	}

	bookingNumber, err := generateBookingNumber()
	if err != nil {
		return nil, err
	}

	status := StatusRequested
	if p.AutoAssigned {
		status = StatusAssigned
	}
	paymentStatus := PaymentNotRequired
	if p.Quote.DepositCents > 0 {
		status = StatusPendingPayment
		paymentStatus = PaymentPending
	}
	currency := p.Quote.Currency
	if currency == "" {
		currency = domain.CurrencyEGP
	}

	ts := now.UTC()
	return &Booking{
		id:                 uuid.New(),
		bookingNumber:      bookingNumber,
		providerID:         p.ProviderID,
		subject:            p.Subject,
		interval:           Interval{Start: interval.Start.UTC(), End: interval.End.UTC()},
		status:             status,
		paymentStatus:      paymentStatus,
		autoAssigned:       p.AutoAssigned,
		requestedBy:        p.RequestedBy,
		estimatedCostCents: p.Quote.EstimatedCents,
		depositCents:       p.Quote.DepositCents,
		currency:           currency,
		location:           p.Location,
		notes:              p.Notes,
		version:            1,
		createdAt:          ts,
		updatedAt:          ts,
	}, nil
}

// ReconstructBooking rebuilds a Booking from persistence data (no validation).
func ReconstructBooking(s Snapshot) *Booking {
	return &Booking{
		id:                    s.ID,
		bookingNumber:         s.BookingNumber,
		providerID:            s.ProviderID,
		subject:               s.Subject,
		interval:              Interval{Start: s.ScheduledStart, End: s.ScheduledStart.Add(time.Duration(s.DurationMinutes) * time.Minute)},
		status:                s.Status,
		paymentStatus:         s.PaymentStatus,
		autoAssigned:          s.AutoAssigned,
		requestedBy:           s.RequestedBy,
		estimatedCostCents:    s.EstimatedCostCents,
		depositCents:          s.DepositCents,
		currency:              s.Currency,
		paymentReference:      s.PaymentReference,
		location:              s.Location,
		notes:                 s.Notes,
		actualDurationMinutes: s.ActualDurationMinutes,
		rating:                s.Rating,
		completionNotes:       s.CompletionNotes,
		cancelReason:          s.CancelReason,
		confirmedAt:           s.ConfirmedAt,
		startedAt:             s.StartedAt,
		completedAt:           s.CompletedAt,
		cancelledAt:           s.CancelledAt,
		version:               s.Version,
		createdAt:             s.CreatedAt,
		updatedAt:             s.UpdatedAt,
	}
}

// Snapshot returns the persisted form of the booking.
func (b *Booking) Snapshot() Snapshot {
	return Snapshot{
		ID:                    b.id,
		BookingNumber:         b.bookingNumber,
		ProviderID:            b.providerID,
		Subject:               b.subject,
		ScheduledStart:        b.interval.Start,
		DurationMinutes:       b.DurationMinutes(),
		Status:                b.status,
		PaymentStatus:         b.paymentStatus,
		AutoAssigned:          b.autoAssigned,
		RequestedBy:           b.requestedBy,
		EstimatedCostCents:    b.estimatedCostCents,
		DepositCents:          b.depositCents,
		Currency:              b.currency,
		PaymentReference:      b.paymentReference,
		Location:              b.location,
		Notes:                 b.notes,
		ActualDurationMinutes: b.actualDurationMinutes,
		Rating:                b.rating,
		CompletionNotes:       b.completionNotes,
		CancelReason:          b.cancelReason,
		ConfirmedAt:           b.confirmedAt,
		StartedAt:             b.startedAt,
		CompletedAt:           b.completedAt,
		CancelledAt:           b.cancelledAt,
		Version:               b.version,
		CreatedAt:             b.createdAt,
		UpdatedAt:             b.updatedAt,
	}
}

// --- Getters ---

// ID returns the booking's unique identifier.
func (b *Booking) ID() uuid.UUID { return b.id }

// BookingNumber returns the confirmation number.
func (b *Booking) BookingNumber() string { return b.bookingNumber }

// ProviderID returns the booked provider.
func (b *Booking) ProviderID() uuid.UUID { return b.providerID }

// Subject returns the lead or property the booking is about.
func (b *Booking) Subject() Subject { return b.subject }

// Interval returns the booked time range.
func (b *Booking) Interval() Interval { return b.interval }

// ScheduledStart returns the start of the booked time range.
func (b *Booking) ScheduledStart() time.Time { return b.interval.Start }

// ScheduledEnd returns the end of the booked time range.
func (b *Booking) ScheduledEnd() time.Time { return b.interval.End }

// DurationMinutes returns the booked duration in minutes.
func (b *Booking) DurationMinutes() int { return int(b.interval.Duration() / time.Minute) }

// Status returns the current booking status.
func (b *Booking) Status() BookingStatus { return b.status }

// PaymentStatus returns the deposit payment status.
func (b *Booking) PaymentStatus() PaymentStatus { return b.paymentStatus }

// AutoAssigned reports whether the provider was picked automatically.
func (b *Booking) AutoAssigned() bool { return b.autoAssigned }

// RequestedBy returns the user who created the booking.
func (b *Booking) RequestedBy() uuid.UUID { return b.requestedBy }

// EstimatedCostCents returns the quoted cost in minor units.
func (b *Booking) EstimatedCostCents() int64 { return b.estimatedCostCents }

// DepositCents returns the deposit due in minor units.
func (b *Booking) DepositCents() int64 { return b.depositCents }

// Currency returns the currency code.
func (b *Booking) Currency() string { return b.currency }

// PaymentReference returns the payment gateway reference for the deposit.
func (b *Booking) PaymentReference() string { return b.paymentReference }

// Location returns the free-form location of the engagement.
func (b *Booking) Location() string { return b.location }

// Notes returns any additional notes for the booking.
func (b *Booking) Notes() string { return b.notes }

// ActualDurationMinutes returns the recorded duration once completed.
func (b *Booking) ActualDurationMinutes() *int { return b.actualDurationMinutes }

// Rating returns the client's rating once completed.
func (b *Booking) Rating() *int { return b.rating }

// CompletionNotes returns notes recorded at completion.
func (b *Booking) CompletionNotes() string { return b.completionNotes }

// CancelReason returns the cancellation reason.
func (b *Booking) CancelReason() string { return b.cancelReason }

func (b *Booking) ConfirmedAt() *time.Time { return b.confirmedAt }
func (b *Booking) StartedAt() *time.Time   { return b.startedAt }
func (b *Booking) CompletedAt() *time.Time { return b.completedAt }
func (b *Booking) CancelledAt() *time.Time { return b.cancelledAt }

// Version returns the entity version for optimistic locking.
func (b *Booking) Version() int64 { return b.version }

// CreatedAt returns the creation timestamp.
func (b *Booking) CreatedAt() time.Time { return b.createdAt }

// UpdatedAt returns the last-updated timestamp.
func (b *Booking) UpdatedAt() time.Time { return b.updatedAt }

// --- Behavior ---

// Blocks reports whether the booking occupies its provider's time.
func (b *Booking) Blocks() bool { return b.status.Blocks() }

// Transition moves the booking to target, recording the payload fields the
// target requires.
func (b *Booking) Transition(target BookingStatus, payload TransitionPayload, now time.Time) error {
	if !target.IsValid() {
		return domain.NewValidationError(fmt.Sprintf("invalid booking status: %s", target))
	}
	// Only a collected deposit releases a booking held for payment.
	if b.status == StatusPendingPayment && target != StatusCancelled {
		return domain.NewInvalidStateError(string(b.status), string(target))
	}
	return b.transition(target, payload, now)
}

func (b *Booking) transition(target BookingStatus, payload TransitionPayload, now time.Time) error {
	if !b.status.CanTransitionTo(target) {
		return domain.NewInvalidStateError(string(b.status), string(target))
	}

	ts := now.UTC()
	switch target {
	case StatusConfirmed:
		b.confirmedAt = &ts
	case StatusInProgress:
		b.startedAt = &ts
	case StatusCompleted:
		if payload.ActualDurationMinutes == nil || *payload.ActualDurationMinutes <= 0 {
			return domain.NewValidationError("actual_duration_minutes is required to complete a booking")
		}
		if payload.Rating != nil && (*payload.Rating < 1 || *payload.Rating > 5) {
			return domain.NewValidationError("rating must be between 1 and 5")
		}
		d := *payload.ActualDurationMinutes
		b.actualDurationMinutes = &d
		if payload.Rating != nil {
			r := *payload.Rating
			b.rating = &r
		}
		b.completionNotes = payload.CompletionNotes
		b.completedAt = &ts
	case StatusCancelled:
		b.cancelReason = payload.Reason
		b.cancelledAt = &ts
	}

	b.status = target
	b.updatedAt = ts
	return nil
}

// Cancel transitions the booking to cancelled if it is not in a terminal state.
func (b *Booking) Cancel(reason string, now time.Time) error {
	return b.Transition(StatusCancelled, TransitionPayload{Reason: reason}, now)
}

// AttachPaymentReference records the gateway reference for the deposit.
func (b *Booking) AttachPaymentReference(ref string) {
	b.paymentReference = ref
	b.updatedAt = time.Now().UTC()
}

// MarkDepositPaid releases a booking held for payment into the status it
// would have had without a deposit.
func (b *Booking) MarkDepositPaid(ref string, now time.Time) error {
	if b.paymentStatus == PaymentPaid {
		return nil
	}
	target := StatusRequested
	if b.autoAssigned {
		target = StatusAssigned
	}
	if err := b.transition(target, TransitionPayload{}, now); err != nil {
		return err
	}
	b.paymentStatus = PaymentPaid
	if ref != "" {
		b.paymentReference = ref
	}
	return nil
}

// MarkDepositFailed cancels a booking whose deposit could not be collected.
func (b *Booking) MarkDepositFailed(reason string, now time.Time) error {
	if b.paymentStatus == PaymentFailed {
		return nil
	}
	if err := b.Cancel("deposit payment failed: "+reason, now); err != nil {
		return err
	}
	b.paymentStatus = PaymentFailed
	return nil
}

// IsRequestedBy reports whether userID requested the booking.
func (b *Booking) IsRequestedBy(userID uuid.UUID) bool {
	return b.requestedBy == userID
}

// IncrementVersion bumps the version for optimistic locking.
func (b *Booking) IncrementVersion() {
	b.version++
	b.updatedAt = time.Now().UTC()
}
