package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hookline/hookline/internal/domain"
	"github.com/hookline/hookline/pkg/logger"
)

// SubscriptionManager owns the subscriptions of one site scope and the
// delivery attempts made on their behalf. Durable managers persist both
// through the store; registered managers live in memory and are rebuilt
// from configuration on startup.
type SubscriptionManager struct {
	sitePath  string
	durable   bool
	subs      domain.SubscriptionRepository
	attempts  domain.AttemptRepository
	security  *SecurityChecker
	validator domain.DestinationValidator
	dialects  domain.DialectRegistry
	kinds     *domain.KindRegistry
	bus       domain.EventBus
	logger    logger.Logger
}

// NewSubscriptionManager creates a manager for one site scope.
func NewSubscriptionManager(
	sitePath string,
	durable bool,
	subs domain.SubscriptionRepository,
	attempts domain.AttemptRepository,
	security *SecurityChecker,
	validator domain.DestinationValidator,
	dialects domain.DialectRegistry,
	kinds *domain.KindRegistry,
	bus domain.EventBus,
	logger logger.Logger,
) *SubscriptionManager {
	return &SubscriptionManager{
		sitePath:  sitePath,
		durable:   durable,
		subs:      subs,
		attempts:  attempts,
		security:  security,
		validator: validator,
		dialects:  dialects,
		kinds:     kinds,
		bus:       bus,
		logger:    logger,
	}
}

// SitePath returns the site scope this manager owns.
func (m *SubscriptionManager) SitePath() string { return m.sitePath }

// Durable reports whether this manager's attempts survive restarts.
func (m *SubscriptionManager) Durable() bool { return m.durable }

// Subscriptions exposes the manager's subscription repository.
func (m *SubscriptionManager) Subscriptions() domain.SubscriptionRepository { return m.subs }

// Attempts exposes the manager's attempt repository.
func (m *SubscriptionManager) Attempts() domain.AttemptRepository { return m.attempts }

// CreateSubscription validates and stores a new subscription in this
// manager's scope. New subscriptions start active.
func (m *SubscriptionManager) CreateSubscription(ctx context.Context, sub *domain.Subscription) error {
	sub.SitePath = m.sitePath
	sub.ApplyDefaults()
	if err := sub.Validate(m.kinds); err != nil {
		return err
	}
	if _, err := m.dialects.Lookup(sub.DialectID); err != nil {
		return &domain.ValidationError{Field: "dialect_id", Message: fmt.Sprintf("unknown dialect %q", sub.DialectID)}
	}

	if sub.ID == "" {
		sub.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	if sub.CreatedAt.IsZero() {
		sub.CreatedAt = now
	}
	sub.UpdatedAt = now
	sub.Active = true
	sub.StatusMessage = domain.StatusMessageActive
	sub.PreconditionFailures = 0

	if err := m.subs.Create(ctx, sub); err != nil {
		return fmt.Errorf("failed to create subscription: %w", err)
	}

	m.logger.WithField("subscription_id", sub.ID).
		WithField("site_path", m.sitePath).
		WithField("to", sub.To).
		Info("webhook subscription registered")

	return m.bus.Publish(ctx, &domain.SubscriptionEvent{
		Kind:         domain.KindSubscriptionRegistered,
		Subscription: sub,
	})
}

// GetSubscription retrieves one subscription of this scope.
func (m *SubscriptionManager) GetSubscription(ctx context.Context, id string) (*domain.Subscription, error) {
	return m.subs.GetByID(ctx, m.sitePath, id)
}

// ListSubscriptions returns this scope's subscriptions in creation order.
func (m *SubscriptionManager) ListSubscriptions(ctx context.Context) ([]*domain.Subscription, error) {
	return m.subs.List(ctx, m.sitePath)
}

// ActivateSubscription turns a subscription back on and clears the
// precondition failure counter, giving it a fresh window.
func (m *SubscriptionManager) ActivateSubscription(ctx context.Context, id string) error {
	sub, err := m.subs.GetByID(ctx, m.sitePath, id)
	if err != nil {
		return err
	}
	if sub.Active {
		return nil
	}
	sub.Active = true
	sub.StatusMessage = domain.StatusMessageActive
	sub.UpdatedAt = time.Now().UTC()
	if err := m.subs.Update(ctx, sub); err != nil {
		return fmt.Errorf("failed to activate subscription: %w", err)
	}
	if err := m.subs.ResetPreconditionFailures(ctx, m.sitePath, id); err != nil {
		return fmt.Errorf("failed to reset precondition failures: %w", err)
	}
	m.logger.WithField("subscription_id", id).Info("webhook subscription activated")
	return nil
}

// DeactivateSubscription turns a subscription off. The status message
// tells the owner why; pass the empty string for a plain deactivation.
func (m *SubscriptionManager) DeactivateSubscription(ctx context.Context, id, statusMessage string) error {
	sub, err := m.subs.GetByID(ctx, m.sitePath, id)
	if err != nil {
		return err
	}
	if statusMessage == "" {
		statusMessage = domain.StatusMessageInactive
	}
	if !sub.Active && sub.StatusMessage == statusMessage {
		return nil
	}
	sub.Active = false
	sub.StatusMessage = statusMessage
	sub.UpdatedAt = time.Now().UTC()
	if err := m.subs.Update(ctx, sub); err != nil {
		return fmt.Errorf("failed to deactivate subscription: %w", err)
	}
	m.logger.WithField("subscription_id", id).
		WithField("status_message", statusMessage).
		Info("webhook subscription deactivated")
	return nil
}

// RemoveSubscription deletes a subscription and every attempt made for
// it.
func (m *SubscriptionManager) RemoveSubscription(ctx context.Context, id string) error {
	sub, err := m.subs.GetByID(ctx, m.sitePath, id)
	if err != nil {
		return err
	}
	if _, err := m.attempts.DeleteBySubscription(ctx, m.sitePath, id); err != nil {
		return fmt.Errorf("failed to delete subscription attempts: %w", err)
	}
	if err := m.subs.Delete(ctx, m.sitePath, id); err != nil {
		return fmt.Errorf("failed to delete subscription: %w", err)
	}
	m.logger.WithField("subscription_id", id).Info("webhook subscription removed")

	return m.bus.Publish(ctx, &domain.SubscriptionEvent{
		Kind:         domain.KindSubscriptionUnregistered,
		Subscription: sub,
	})
}

// RemoveSubscriptionsForPrincipal deletes every subscription owned by a
// principal in this scope, say when the principal itself is removed.
// It returns how many subscriptions were deleted.
func (m *SubscriptionManager) RemoveSubscriptionsForPrincipal(ctx context.Context, ownerID string) (int, error) {
	subs, err := m.subs.ListByOwner(ctx, m.sitePath, ownerID)
	if err != nil {
		return 0, fmt.Errorf("failed to list subscriptions for principal: %w", err)
	}
	for _, sub := range subs {
		if err := m.RemoveSubscription(ctx, sub.ID); err != nil {
			return 0, err
		}
	}
	return len(subs), nil
}

// SubscriptionsToDeliver returns the active subscriptions of this scope
// that match data under event and pass the security check. The
// precondition failure counter moves here: a Missing outcome increments
// it, an Allow outcome clears it, a Deny outcome leaves it alone. When
// the counter reaches the subscription's limit a PreconditionLimitEvent
// is published on the caller's unit of work.
func (m *SubscriptionManager) SubscriptionsToDeliver(ctx context.Context, data interface{}, event domain.Event) ([]*domain.Subscription, error) {
	subs, err := m.subs.List(ctx, m.sitePath)
	if err != nil {
		return nil, fmt.Errorf("failed to list subscriptions: %w", err)
	}

	var matched []*domain.Subscription
	for _, sub := range subs {
		if !sub.Active {
			continue
		}
		if !sub.Matches(data, event.EventKind(), m.kinds) {
			continue
		}

		switch m.security.ApplicabilityOf(ctx, sub, data) {
		case domain.ApplicabilityAllow:
			if sub.PreconditionFailures > 0 {
				if err := m.subs.ResetPreconditionFailures(ctx, m.sitePath, sub.ID); err != nil {
					return nil, fmt.Errorf("failed to reset precondition failures: %w", err)
				}
			}
			matched = append(matched, sub)

		case domain.ApplicabilityDeny:
			m.logger.WithField("subscription_id", sub.ID).
				Debug("delivery denied by security policy")

		case domain.ApplicabilityMissing:
			failures, err := m.subs.IncrementPreconditionFailures(ctx, m.sitePath, sub.ID)
			if err != nil {
				return nil, fmt.Errorf("failed to count precondition failure: %w", err)
			}
			m.logger.WithField("subscription_id", sub.ID).
				WithField("failures", failures).
				Debug("delivery precondition failed")
			if failures >= sub.PreconditionFailureLimit {
				if err := m.bus.Publish(ctx, &domain.PreconditionLimitEvent{
					Subscription: sub,
					Failures:     failures,
				}); err != nil {
					return nil, err
				}
			}
		}
	}
	return matched, nil
}

// CreateDeliveryAttempt records a pending attempt for sub carrying
// payload. The destination is validated first; an invalid destination
// still yields an attempt, but one that is already resolved as failed
// with the canonical message, so the owner can see what happened.
func (m *SubscriptionManager) CreateDeliveryAttempt(ctx context.Context, sub *domain.Subscription, payload []byte, note string) (*domain.DeliveryAttempt, error) {
	attempt := domain.NewDeliveryAttempt(sub, payload, note)
	if err := m.attempts.Create(ctx, attempt); err != nil {
		return nil, fmt.Errorf("failed to create delivery attempt: %w", err)
	}

	if err := m.validator.ValidateTarget(ctx, sub.To); err != nil {
		attempt.Internal.RecordException(err)
		if rerr := attempt.Resolve(domain.AttemptStatusFailed, domain.MessageDestinationFailed); rerr != nil {
			return nil, rerr
		}
		if rerr := m.attempts.Resolve(ctx, attempt); rerr != nil {
			return nil, fmt.Errorf("failed to record destination failure: %w", rerr)
		}
		m.logger.WithField("subscription_id", sub.ID).
			WithField("attempt_id", attempt.ID).
			Warn(fmt.Sprintf("destination validation failed: %v", err))
		if perr := m.bus.Publish(ctx, domain.NewAttemptResolvedEvent(attempt, sub)); perr != nil {
			return nil, perr
		}
	}
	return attempt, nil
}

// DiscardDeliveryAttempt undoes an attempt created in a unit of work
// that is aborting. Durable attempts ride the store transaction and roll
// back with it; memory-backed attempts must be removed by hand.
func (m *SubscriptionManager) DiscardDeliveryAttempt(ctx context.Context, attempt *domain.DeliveryAttempt) error {
	if m.durable {
		return nil
	}
	err := m.attempts.Delete(ctx, m.sitePath, attempt.SubscriptionID, attempt.ID)
	if err != nil && !domain.IsNotFound(err) {
		return err
	}
	return nil
}
