package deliverable

import (
	"context"

	"github.com/google/uuid"
)

// DeliverableRepository defines persistence operations for deliverables.
type DeliverableRepository interface {
	Save(ctx context.Context, d *Deliverable) error
	FindByBookingID(ctx context.Context, bookingID uuid.UUID) ([]*Deliverable, error)
}
