package repository

import (
	"context"
	"sync"
	"time"

	"github.com/hookline/hookline/internal/domain"
)

// SubscriptionMemoryRepository keeps subscriptions in process memory.
// It backs registered (non-durable) subscription managers whose state
// is rebuilt from configuration on startup. The repository stores and
// returns copies so callers never share mutable state with it.
type SubscriptionMemoryRepository struct {
	mu    sync.RWMutex
	subs  map[string]*domain.Subscription
	order []string
}

// NewSubscriptionMemoryRepository creates an empty in-memory
// subscription repository.
func NewSubscriptionMemoryRepository() *SubscriptionMemoryRepository {
	return &SubscriptionMemoryRepository{
		subs: make(map[string]*domain.Subscription),
	}
}

var _ domain.SubscriptionRepository = (*SubscriptionMemoryRepository)(nil)

// Create persists a new subscription
func (r *SubscriptionMemoryRepository) Create(ctx context.Context, sub *domain.Subscription) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.subs[sub.ID]; !exists {
		r.order = append(r.order, sub.ID)
	}
	r.subs[sub.ID] = copySubscription(sub)
	return nil
}

// GetByID retrieves a subscription by site and id
func (r *SubscriptionMemoryRepository) GetByID(ctx context.Context, site, id string) (*domain.Subscription, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sub, ok := r.subs[id]
	if !ok || sub.SitePath != site {
		return nil, &domain.ErrNotFound{Entity: "subscription", ID: id}
	}
	return copySubscription(sub), nil
}

// List returns all subscriptions for a site in creation order
func (r *SubscriptionMemoryRepository) List(ctx context.Context, site string) ([]*domain.Subscription, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*domain.Subscription
	for _, id := range r.order {
		if sub := r.subs[id]; sub != nil && sub.SitePath == site {
			out = append(out, copySubscription(sub))
		}
	}
	return out, nil
}

// ListByOwner returns the subscriptions owned by a principal
func (r *SubscriptionMemoryRepository) ListByOwner(ctx context.Context, site, ownerID string) ([]*domain.Subscription, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*domain.Subscription
	for _, id := range r.order {
		if sub := r.subs[id]; sub != nil && sub.SitePath == site && sub.OwnerID == ownerID {
			out = append(out, copySubscription(sub))
		}
	}
	return out, nil
}

// Update persists changes to an existing subscription. As with the
// Postgres repository the precondition failure counter is excluded.
func (r *SubscriptionMemoryRepository) Update(ctx context.Context, sub *domain.Subscription) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.subs[sub.ID]
	if !ok || existing.SitePath != sub.SitePath {
		return &domain.ErrNotFound{Entity: "subscription", ID: sub.ID}
	}
	updated := copySubscription(sub)
	updated.PreconditionFailures = existing.PreconditionFailures
	r.subs[sub.ID] = updated
	return nil
}

// Delete removes a subscription
func (r *SubscriptionMemoryRepository) Delete(ctx context.Context, site, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.subs[id]
	if !ok || existing.SitePath != site {
		return &domain.ErrNotFound{Entity: "subscription", ID: id}
	}
	delete(r.subs, id)
	for i, oid := range r.order {
		if oid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

// IncrementPreconditionFailures bumps the counter and returns the new
// value.
func (r *SubscriptionMemoryRepository) IncrementPreconditionFailures(ctx context.Context, site, id string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	sub, ok := r.subs[id]
	if !ok || sub.SitePath != site {
		return 0, &domain.ErrNotFound{Entity: "subscription", ID: id}
	}
	sub.PreconditionFailures++
	sub.UpdatedAt = time.Now().UTC()
	return sub.PreconditionFailures, nil
}

// ResetPreconditionFailures zeroes the counter
func (r *SubscriptionMemoryRepository) ResetPreconditionFailures(ctx context.Context, site, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	sub, ok := r.subs[id]
	if !ok || sub.SitePath != site {
		return &domain.ErrNotFound{Entity: "subscription", ID: id}
	}
	sub.PreconditionFailures = 0
	sub.UpdatedAt = time.Now().UTC()
	return nil
}

func copySubscription(sub *domain.Subscription) *domain.Subscription {
	clone := *sub
	return &clone
}
