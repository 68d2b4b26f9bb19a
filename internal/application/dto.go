package application

import (
	"time"

	"github.com/estatehub/service-scheduling/internal/domain/availability"
	bookingDomain "github.com/estatehub/service-scheduling/internal/domain/booking"
	"github.com/estatehub/service-scheduling/internal/domain/deliverable"
	providerDomain "github.com/estatehub/service-scheduling/internal/domain/provider"
	"github.com/google/uuid"
)

// BookingDTO is the response representation of a booking.
type BookingDTO struct {
	ID                    uuid.UUID  `json:"id"`
	BookingNumber         string     `json:"booking_number"`
	ProviderID            uuid.UUID  `json:"provider_id"`
	LeadID                *uuid.UUID `json:"lead_id,omitempty"`
	PropertyID            *uuid.UUID `json:"property_id,omitempty"`
	ScheduledTime         time.Time  `json:"scheduled_time"`
	ScheduledEnd          time.Time  `json:"scheduled_end"`
	DurationMinutes       int        `json:"duration_minutes"`
	Status                string     `json:"status"`
	PaymentStatus         string     `json:"payment_status"`
	EstimatedCost         int64      `json:"estimated_cost"`
	DepositAmount         int64      `json:"deposit_amount"`
	Currency              string     `json:"currency"`
	PaymentReference      string     `json:"payment_reference,omitempty"`
	Location              string     `json:"location,omitempty"`
	Notes                 string     `json:"notes,omitempty"`
	AutoAssigned          bool       `json:"auto_assigned"`
	RequestedBy           uuid.UUID  `json:"requested_by"`
	ActualDurationMinutes *int       `json:"actual_duration_minutes,omitempty"`
	Rating                *int       `json:"rating,omitempty"`
	CompletionNotes       string     `json:"completion_notes,omitempty"`
	CancelReason          string     `json:"cancel_reason,omitempty"`
	ConfirmedAt           *time.Time `json:"confirmed_at,omitempty"`
	StartedAt             *time.Time `json:"started_at,omitempty"`
	CompletedAt           *time.Time `json:"completed_at,omitempty"`
	CancelledAt           *time.Time `json:"cancelled_at,omitempty"`
	Version               int64      `json:"version"`
	CreatedAt             time.Time  `json:"created_at"`
	UpdatedAt             time.Time  `json:"updated_at"`
}

func toBookingDTO(bk *bookingDomain.Booking) BookingDTO {
	return BookingDTO{
		ID:                    bk.ID(),
		BookingNumber:         bk.BookingNumber(),
		ProviderID:            bk.ProviderID(),
		LeadID:                bk.Subject().LeadID(),
		PropertyID:            bk.Subject().PropertyID(),
		ScheduledTime:         bk.ScheduledStart(),
		ScheduledEnd:          bk.ScheduledEnd(),
		DurationMinutes:       bk.DurationMinutes(),
		Status:                bk.Status().String(),
		PaymentStatus:         string(bk.PaymentStatus()),
		EstimatedCost:         bk.EstimatedCostCents(),
		DepositAmount:         bk.DepositCents(),
		Currency:              bk.Currency(),
		PaymentReference:      bk.PaymentReference(),
		Location:              bk.Location(),
		Notes:                 bk.Notes(),
		AutoAssigned:          bk.AutoAssigned(),
		RequestedBy:           bk.RequestedBy(),
		ActualDurationMinutes: bk.ActualDurationMinutes(),
		Rating:                bk.Rating(),
		CompletionNotes:       bk.CompletionNotes(),
		CancelReason:          bk.CancelReason(),
		ConfirmedAt:           bk.ConfirmedAt(),
		StartedAt:             bk.StartedAt(),
		CompletedAt:           bk.CompletedAt(),
		CancelledAt:           bk.CancelledAt(),
		Version:               bk.Version(),
		CreatedAt:             bk.CreatedAt(),
		UpdatedAt:             bk.UpdatedAt(),
	}
}

func toBookingDTOs(bookings []*bookingDomain.Booking) []BookingDTO {
	dtos := make([]BookingDTO, len(bookings))
	for i, bk := range bookings {
		dtos[i] = toBookingDTO(bk)
	}
	return dtos
}

// WindowDTO is the response representation of an availability window.
type WindowDTO struct {
	ID             uuid.UUID `json:"id"`
	ProviderID     uuid.UUID `json:"provider_id"`
	DayOfWeek      int       `json:"day_of_week"`
	StartTime      string    `json:"start_time"`
	EndTime        string    `json:"end_time"`
	BreakStartTime *string   `json:"break_start_time"`
	BreakEndTime   *string   `json:"break_end_time"`
	IsAvailable    bool      `json:"is_available"`
	Timezone       string    `json:"timezone"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func toWindowDTO(w *availability.Window) WindowDTO {
	dto := WindowDTO{
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
		dto.BreakStartTime, dto.BreakEndTime = &bs, &be
	}
	return dto
}

func toWindowDTOs(windows []*availability.Window) []WindowDTO {
	dtos := make([]WindowDTO, len(windows))
	for i, w := range windows {
		dtos[i] = toWindowDTO(w)
	}
	return dtos
}

// DayScheduleDTO is one weekday of a provider's weekly schedule.
type DayScheduleDTO struct {
	DayOfWeek int         `json:"day_of_week"`
	DayName   string      `json:"day_name"`
	Windows   []WindowDTO `json:"windows"`
}

// NextSlotDTO is the next start of working hours.
type NextSlotDTO struct {
	DayOffset int    `json:"day_offset"`
	DayOfWeek int    `json:"day_of_week"`
	DayName   string `json:"day_name"`
	StartTime string `json:"start_time"`
}

// CurrentStatusDTO reports availability at the time of the request.
type CurrentStatusDTO struct {
	IsAvailableNow bool         `json:"is_available_now"`
	NextAvailable  *NextSlotDTO `json:"next_available"`
}

func toCurrentStatusDTO(st availability.CurrentStatus) *CurrentStatusDTO {
	dto := &CurrentStatusDTO{IsAvailableNow: st.AvailableNow}
	if st.Next != nil {
		dto.NextAvailable = &NextSlotDTO{
			DayOffset: st.Next.DayOffset,
			DayOfWeek: int(st.Next.DayOfWeek),
			DayName:   st.Next.DayOfWeek.String(),
			StartTime: st.Next.StartTime.String(),
		}
	}
	return dto
}

// ProviderDTO is the response representation of a provider.
type ProviderDTO struct {
	ID              uuid.UUID `json:"id"`
	UserID          uuid.UUID `json:"user_id"`
	Kind            string    `json:"kind"`
	Name            string    `json:"name"`
	Email           string    `json:"email,omitempty"`
	Phone           string    `json:"phone,omitempty"`
	Rating          float64   `json:"rating"`
	RatingCount     int       `json:"rating_count"`
	ServiceAreas    []string  `json:"service_areas"`
	HourlyRateCents int64     `json:"hourly_rate_cents"`
	IsActive        bool      `json:"is_active"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func toProviderDTO(p *providerDomain.Provider) ProviderDTO {
	areas := p.ServiceAreas()
	if areas == nil {
		areas = []string{}
	}
	return ProviderDTO{
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
		CreatedAt:       p.CreatedAt(),
		UpdatedAt:       p.UpdatedAt(),
	}
}

// DeliverableDTO is the response representation of a deliverable.
type DeliverableDTO struct {
	ID          uuid.UUID `json:"id"`
	BookingID   uuid.UUID `json:"booking_id"`
	ProviderID  uuid.UUID `json:"provider_id"`
	Type        string    `json:"type"`
	URL         string    `json:"url"`
	Caption     string    `json:"caption,omitempty"`
	DeliveredAt time.Time `json:"delivered_at"`
}

func toDeliverableDTO(d *deliverable.Deliverable) DeliverableDTO {
	return DeliverableDTO{
		ID:          d.ID(),
		BookingID:   d.BookingID(),
		ProviderID:  d.ProviderID(),
		Type:        string(d.Type()),
		URL:         d.URL(),
		Caption:     d.Caption(),
		DeliveredAt: d.DeliveredAt(),
	}
}
