package provider

import (
	"context"

	"github.com/google/uuid"
)

// ListFilter narrows provider listings.
type ListFilter struct {
	Kind       *Kind
	ActiveOnly bool
	Page       int
	Limit      int
}

// ProviderRepository defines persistence operations for providers.
type ProviderRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Provider, error)
	FindByUserID(ctx context.Context, userID uuid.UUID) (*Provider, error)

	// FindActive returns active providers, optionally of one kind, in
	// creation order.
	FindActive(ctx context.Context, kind *Kind) ([]*Provider, error)
	List(ctx context.Context, filter ListFilter) ([]*Provider, int64, error)
	Save(ctx context.Context, provider *Provider) error

	// Update persists changes with optimistic locking.
	Update(ctx context.Context, provider *Provider) error
}
