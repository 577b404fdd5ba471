package repository

import (
	"context"
	"sync"

	"github.com/hookline/hookline/internal/domain"
)

// AttemptMemoryRepository keeps delivery attempts in process memory for
// non-durable subscription managers. Attempts disappear on restart,
// which is the point: registered managers trade history for zero
// storage cost. Copies in, copies out.
type AttemptMemoryRepository struct {
	mu       sync.RWMutex
	attempts map[string]*domain.DeliveryAttempt
	order    []string
}

// NewAttemptMemoryRepository creates an empty in-memory attempt
// repository.
func NewAttemptMemoryRepository() *AttemptMemoryRepository {
	return &AttemptMemoryRepository{
		attempts: make(map[string]*domain.DeliveryAttempt),
	}
}

var _ domain.AttemptRepository = (*AttemptMemoryRepository)(nil)

// Create persists a new pending attempt
func (r *AttemptMemoryRepository) Create(ctx context.Context, attempt *domain.DeliveryAttempt) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.attempts[attempt.ID]; !exists {
		r.order = append(r.order, attempt.ID)
	}
	r.attempts[attempt.ID] = copyAttempt(attempt)
	return nil
}

// GetByID retrieves one attempt
func (r *AttemptMemoryRepository) GetByID(ctx context.Context, site, subscriptionID, id string) (*domain.DeliveryAttempt, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	attempt, ok := r.attempts[id]
	if !ok || attempt.SitePath != site || attempt.SubscriptionID != subscriptionID {
		return nil, &domain.ErrNotFound{Entity: "delivery attempt", ID: id}
	}
	return copyAttempt(attempt), nil
}

// ListBySubscription returns a subscription's attempts in insertion
// order.
func (r *AttemptMemoryRepository) ListBySubscription(ctx context.Context, site, subscriptionID string) ([]*domain.DeliveryAttempt, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*domain.DeliveryAttempt
	for _, id := range r.order {
		if attempt := r.attempts[id]; attempt != nil && attempt.SitePath == site && attempt.SubscriptionID == subscriptionID {
			out = append(out, copyAttempt(attempt))
		}
	}
	return out, nil
}

// CountBySubscription returns how many attempts a subscription holds
func (r *AttemptMemoryRepository) CountBySubscription(ctx context.Context, site, subscriptionID string) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	count := 0
	for _, attempt := range r.attempts {
		if attempt.SitePath == site && attempt.SubscriptionID == subscriptionID {
			count++
		}
	}
	return count, nil
}

// Resolve persists the terminal status of an attempt. It fails with
// ErrAttemptResolved when the stored attempt already settled.
func (r *AttemptMemoryRepository) Resolve(ctx context.Context, attempt *domain.DeliveryAttempt) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.attempts[attempt.ID]
	if !ok || stored.SitePath != attempt.SitePath || stored.SubscriptionID != attempt.SubscriptionID {
		return &domain.ErrNotFound{Entity: "delivery attempt", ID: attempt.ID}
	}
	if stored.Resolved() {
		return &domain.ErrAttemptResolved{AttemptID: attempt.ID, Status: stored.Status}
	}
	r.attempts[attempt.ID] = copyAttempt(attempt)
	return nil
}

// Delete removes one attempt
func (r *AttemptMemoryRepository) Delete(ctx context.Context, site, subscriptionID, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	attempt, ok := r.attempts[id]
	if !ok || attempt.SitePath != site || attempt.SubscriptionID != subscriptionID {
		return &domain.ErrNotFound{Entity: "delivery attempt", ID: id}
	}
	r.remove(id)
	return nil
}

// DeleteBySubscription removes every attempt of a subscription
func (r *AttemptMemoryRepository) DeleteBySubscription(ctx context.Context, site, subscriptionID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var doomed []string
	for _, id := range r.order {
		if attempt := r.attempts[id]; attempt != nil && attempt.SitePath == site && attempt.SubscriptionID == subscriptionID {
			doomed = append(doomed, id)
		}
	}
	for _, id := range doomed {
		r.remove(id)
	}
	return len(doomed), nil
}

// remove drops one attempt; callers hold the write lock.
func (r *AttemptMemoryRepository) remove(id string) {
	delete(r.attempts, id)
	for i, oid := range r.order {
		if oid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

func copyAttempt(attempt *domain.DeliveryAttempt) *domain.DeliveryAttempt {
	clone := *attempt
	if attempt.Payload != nil {
		clone.Payload = append([]byte(nil), attempt.Payload...)
	}
	if attempt.Request != nil {
		req := *attempt.Request
		req.Headers = copyHeaderMap(attempt.Request.Headers)
		clone.Request = &req
	}
	if attempt.Response != nil {
		resp := *attempt.Response
		resp.Headers = copyHeaderMap(attempt.Response.Headers)
		clone.Response = &resp
	}
	if attempt.Internal.ExceptionHistory != nil {
		clone.Internal.ExceptionHistory = append([]string(nil), attempt.Internal.ExceptionHistory...)
	}
	return &clone
}

func copyHeaderMap(headers map[string]string) map[string]string {
	if headers == nil {
		return nil
	}
	out := make(map[string]string, len(headers))
	for k, v := range headers {
		out[k] = v
	}
	return out
}
