package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/estatehub/service-scheduling/internal/domain/availability"
	"github.com/estatehub/service-scheduling/internal/platform/domain"
	"github.com/google/uuid"
)

type windowKey struct {
	providerID uuid.UUID
	day        int
}

// WindowRepository implements availability.WindowRepository in memory.
type WindowRepository struct {
	mu      sync.RWMutex
	windows map[windowKey]availability.Window
}

// NewWindowRepository creates an empty WindowRepository.
func NewWindowRepository() *WindowRepository {
	return &WindowRepository{windows: make(map[windowKey]availability.Window)}
}

func (r *WindowRepository) FindByID(_ context.Context, id uuid.UUID) (*availability.Window, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, w := range r.windows {
		if w.ID() == id {
			w := w
			return &w, nil
		}
	}
	return nil, domain.NewNotFoundError("availability", id.String())
}

func (r *WindowRepository) FindByProvider(ctx context.Context, providerID uuid.UUID) ([]*availability.Window, error) {
	return r.List(ctx, availability.WindowFilter{ProviderID: &providerID})
}

func (r *WindowRepository) FindByProviderAndDay(_ context.Context, providerID uuid.UUID, dayOfWeek int) (*availability.Window, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	w, ok := r.windows[windowKey{providerID, dayOfWeek}]
	if !ok {
		return nil, domain.NewNotFoundError("availability", providerID.String())
	}
	return &w, nil
}

func (r *WindowRepository) List(_ context.Context, f availability.WindowFilter) ([]*availability.Window, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []*availability.Window{}
	for _, w := range r.windows {
		if f.ProviderID != nil && w.ProviderID() != *f.ProviderID {
			continue
		}
		if f.DayOfWeek != nil && int(w.DayOfWeek()) != *f.DayOfWeek {
			continue
		}
		if f.AvailableOnly && !w.IsAvailable() {
			continue
		}
		w := w
		out = append(out, &w)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ProviderID() != out[j].ProviderID() {
			return out[i].ProviderID().String() < out[j].ProviderID().String()
		}
		return out[i].DayOfWeek() < out[j].DayOfWeek()
	})
	return out, nil
}

func (r *WindowRepository) Upsert(_ context.Context, w *availability.Window) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.windows[windowKey{w.ProviderID(), int(w.DayOfWeek())}] = *w
	return nil
}

func (r *WindowRepository) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for k, w := range r.windows {
		if w.ID() == id {
			delete(r.windows, k)
			return nil
		}
	}
	return domain.NewNotFoundError("availability", id.String())
}
