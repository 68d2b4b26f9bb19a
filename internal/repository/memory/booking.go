// Package memory holds process-local repository implementations used when
// the service runs without Postgres and in tests.
package memory

import (
	"context"
	"sort"
	"sync"

	bookingDomain "github.com/estatehub/service-scheduling/internal/domain/booking"
	"github.com/estatehub/service-scheduling/internal/platform/domain"
	"github.com/google/uuid"
)

// BookingRepository implements booking.BookingRepository in memory.
type BookingRepository struct {
	mu       sync.RWMutex
	bookings map[uuid.UUID]bookingDomain.Snapshot
}

// NewBookingRepository creates an empty BookingRepository.
func NewBookingRepository() *BookingRepository {
	return &BookingRepository{bookings: make(map[uuid.UUID]bookingDomain.Snapshot)}
}

// FindByID retrieves a booking by ID.
func (r *BookingRepository) FindByID(_ context.Context, id uuid.UUID) (*bookingDomain.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.bookings[id]
	if !ok {
		return nil, domain.NewNotFoundError("booking", id.String())
	}
	return bookingDomain.ReconstructBooking(s), nil
}

// FindByNumber retrieves a booking by confirmation number.
func (r *BookingRepository) FindByNumber(_ context.Context, number string) (*bookingDomain.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, s := range r.bookings {
		if s.BookingNumber == number {
			return bookingDomain.ReconstructBooking(s), nil
		}
	}
	return nil, domain.NewNotFoundError("booking", number)
}

// List retrieves bookings matching filter, earliest first.
func (r *BookingRepository) List(_ context.Context, f bookingDomain.ListFilter) ([]*bookingDomain.Booking, int64, error) {
	r.mu.RLock()
	var matched []bookingDomain.Snapshot
	for _, s := range r.bookings {
		if matches(s, f) {
			matched = append(matched, s)
		}
	}
	r.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].ScheduledStart.Equal(matched[j].ScheduledStart) {
			return matched[i].CreatedAt.Before(matched[j].CreatedAt)
		}
		return matched[i].ScheduledStart.Before(matched[j].ScheduledStart)
	})

	total := int64(len(matched))
	page := paginate(matched, f.Page, f.Limit)
	out := make([]*bookingDomain.Booking, len(page))
	for i, s := range page {
		out[i] = bookingDomain.ReconstructBooking(s)
	}
	return out, total, nil
}

func matches(s bookingDomain.Snapshot, f bookingDomain.ListFilter) bool {
	if f.ProviderID != nil && s.ProviderID != *f.ProviderID {
		return false
	}
	if f.RequestedBy != nil && s.RequestedBy != *f.RequestedBy {
		return false
	}
	if f.Status != nil && s.Status != *f.Status {
		return false
	}
	if f.From != nil && s.ScheduledStart.Before(*f.From) {
		return false
	}
	if f.To != nil && s.ScheduledStart.After(*f.To) {
		return false
	}
	return true
}

// FindOverlapping returns the provider's blocking bookings overlapping interval.
func (r *BookingRepository) FindOverlapping(_ context.Context, providerID uuid.UUID, interval bookingDomain.Interval) ([]*bookingDomain.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.overlapping(providerID, interval), nil
}

func (r *BookingRepository) overlapping(providerID uuid.UUID, interval bookingDomain.Interval) []*bookingDomain.Booking {
	var same []*bookingDomain.Booking
	for _, s := range r.bookings {
		if s.ProviderID == providerID {
			same = append(same, bookingDomain.ReconstructBooking(s))
		}
	}
	conflicts := bookingDomain.FilterConflicts(same, interval)
	sort.Slice(conflicts, func(i, j int) bool {
		return conflicts[i].ScheduledStart().Before(conflicts[j].ScheduledStart())
	})
	return conflicts
}

// CountByStatus returns booking counts grouped by status.
func (r *BookingRepository) CountByStatus(_ context.Context) (map[string]int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	counts := make(map[string]int64)
	for _, s := range r.bookings {
		counts[string(s.Status)]++
	}
	return counts, nil
}

// SaveIfFree stores bk unless it overlaps a blocking booking of the same
// provider. The check and the insert share one lock.
func (r *BookingRepository) SaveIfFree(_ context.Context, bk *bookingDomain.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if conflicts := r.overlapping(bk.ProviderID(), bk.Interval()); len(conflicts) > 0 {
		return bookingDomain.NewSchedulingConflictError(bk.ProviderID(), conflicts)
	}
	r.bookings[bk.ID()] = bk.Snapshot()
	return nil
}

// Update stores bk if the stored version is the one it was loaded at.
func (r *BookingRepository) Update(_ context.Context, bk *bookingDomain.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	current, ok := r.bookings[bk.ID()]
	if !ok {
		return domain.NewNotFoundError("booking", bk.ID().String())
	}
	if current.Version != bk.Version()-1 {
		return domain.NewConflictError("booking was modified by another request")
	}
	r.bookings[bk.ID()] = bk.Snapshot()
	return nil
}

func paginate[T any](items []T, page, limit int) []T {
	if limit <= 0 {
		return items
	}
	if page < 1 {
		page = 1
	}
	start := (page - 1) * limit
	if start >= len(items) {
		return nil
	}
	end := start + limit
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}
