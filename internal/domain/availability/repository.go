package availability

import (
	"context"

	"github.com/google/uuid"
)

// WindowFilter narrows ListWindows results. Nil fields are ignored.
type WindowFilter struct {
	ProviderID    *uuid.UUID
	DayOfWeek     *int
	AvailableOnly bool
}

// WindowRepository defines persistence operations for availability windows.
type WindowRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Window, error)
	FindByProvider(ctx context.Context, providerID uuid.UUID) ([]*Window, error)
	FindByProviderAndDay(ctx context.Context, providerID uuid.UUID, dayOfWeek int) (*Window, error)
	List(ctx context.Context, filter WindowFilter) ([]*Window, error)

	// Upsert inserts the window or replaces the one stored for the same
	// provider and weekday.
	Upsert(ctx context.Context, window *Window) error
	Delete(ctx context.Context, id uuid.UUID) error
}
