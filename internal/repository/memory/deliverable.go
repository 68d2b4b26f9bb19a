package memory

import (
	"context"
	"sync"

	"github.com/estatehub/service-scheduling/internal/domain/deliverable"
	"github.com/google/uuid"
)

// DeliverableRepository implements deliverable.DeliverableRepository in memory.
type DeliverableRepository struct {
	mu    sync.RWMutex
	items []*deliverable.Deliverable
}

// NewDeliverableRepository creates an empty DeliverableRepository.
func NewDeliverableRepository() *DeliverableRepository {
	return &DeliverableRepository{}
}

func (r *DeliverableRepository) Save(_ context.Context, d *deliverable.Deliverable) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append(r.items, d)
	return nil
}

func (r *DeliverableRepository) FindByBookingID(_ context.Context, bookingID uuid.UUID) ([]*deliverable.Deliverable, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []*deliverable.Deliverable{}
	for _, d := range r.items {
		if d.BookingID() == bookingID {
			out = append(out, d)
		}
	}
	return out, nil
}
