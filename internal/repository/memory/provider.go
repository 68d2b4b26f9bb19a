package memory

import (
	"context"
	"sync"

	providerDomain "github.com/estatehub/service-scheduling/internal/domain/provider"
	"github.com/estatehub/service-scheduling/internal/platform/domain"
	"github.com/google/uuid"
)

// ProviderRepository implements provider.ProviderRepository in memory.
// Providers are kept in insertion order.
type ProviderRepository struct {
	mu        sync.RWMutex
	order     []uuid.UUID
	providers map[uuid.UUID]providerDomain.Provider
}

// NewProviderRepository creates an empty ProviderRepository.
func NewProviderRepository() *ProviderRepository {
	return &ProviderRepository{providers: make(map[uuid.UUID]providerDomain.Provider)}
}

func (r *ProviderRepository) FindByID(_ context.Context, id uuid.UUID) (*providerDomain.Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.providers[id]
	if !ok {
		return nil, domain.NewNotFoundError("provider", id.String())
	}
	return &p, nil
}

func (r *ProviderRepository) FindByUserID(_ context.Context, userID uuid.UUID) (*providerDomain.Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, id := range r.order {
		if p := r.providers[id]; p.UserID() == userID {
			return &p, nil
		}
	}
	return nil, domain.NewNotFoundError("provider", userID.String())
}

func (r *ProviderRepository) FindActive(_ context.Context, kind *providerDomain.Kind) ([]*providerDomain.Provider, error) {
	return r.collect(providerDomain.ListFilter{Kind: kind, ActiveOnly: true}), nil
}

func (r *ProviderRepository) List(_ context.Context, f providerDomain.ListFilter) ([]*providerDomain.Provider, int64, error) {
	all := r.collect(f)
	return paginate(all, f.Page, f.Limit), int64(len(all)), nil
}

func (r *ProviderRepository) collect(f providerDomain.ListFilter) []*providerDomain.Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*providerDomain.Provider
	for _, id := range r.order {
		p := r.providers[id]
		if f.ActiveOnly && !p.IsActive() {
			continue
		}
		if f.Kind != nil && p.Kind() != *f.Kind {
			continue
		}
		out = append(out, &p)
	}
	return out
}

func (r *ProviderRepository) Save(_ context.Context, p *providerDomain.Provider) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.providers[p.ID()]; exists {
		return domain.NewConflictError("provider already exists")
	}
	for _, id := range r.order {
		if existing := r.providers[id]; existing.UserID() == p.UserID() {
			return domain.NewConflictError("user already has a provider profile")
		}
	}
	r.order = append(r.order, p.ID())
	r.providers[p.ID()] = *p
	return nil
}

func (r *ProviderRepository) Update(_ context.Context, p *providerDomain.Provider) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	current, ok := r.providers[p.ID()]
	if !ok {
		return domain.NewNotFoundError("provider", p.ID().String())
	}
	if current.Version() != p.Version()-1 {
		return domain.NewConflictError("provider was modified by another request")
	}
	r.providers[p.ID()] = *p
	return nil
}
