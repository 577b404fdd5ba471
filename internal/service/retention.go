package service

import (
	"context"
	"fmt"

	"github.com/hookline/hookline/internal/domain"
	"github.com/hookline/hookline/pkg/logger"
)

// RetentionService keeps attempt history bounded and suspends subscriptions
// that stopped earning their keep. It reacts to bus events, so its work
// shares the unit of work of whatever published the event.
type RetentionService struct {
	managers ManagerLocator
	logger   logger.Logger
}

// NewRetentionService creates a retention service.
func NewRetentionService(managers ManagerLocator, log logger.Logger) *RetentionService {
	return &RetentionService{
		managers: managers,
		logger:   log,
	}
}

// Register subscribes the retention handlers. Pruning is registered first
// so the failure check always sees the retained window, not the raw history.
func (s *RetentionService) Register(bus domain.EventBus) {
	bus.Subscribe(domain.KindAttemptResolved, s.PruneAttempts)
	bus.Subscribe(domain.KindAttemptResolved, s.DeactivateFailingSubscription)
	bus.Subscribe(domain.KindPreconditionLimitReached, s.DeactivateAfterPreconditionLimit)
}

// PruneAttempts drops the oldest resolved attempts of a subscription once
// its history grows past the attempt limit. Pending attempts are never
// pruned; they still have an outcome coming.
func (s *RetentionService) PruneAttempts(ctx context.Context, event domain.Event) error {
	ev, ok := event.(*domain.AttemptEvent)
	if !ok || ev.Attempt == nil {
		return nil
	}

	manager, sub, err := s.resolveSubscription(ctx, ev.Attempt.SitePath, ev.Attempt.SubscriptionID)
	if err != nil || sub == nil {
		return err
	}

	attempts, err := manager.Attempts().ListBySubscription(ctx, sub.SitePath, sub.ID)
	if err != nil {
		return fmt.Errorf("failed to list attempts for pruning: %w", err)
	}

	excess := len(attempts) - sub.AttemptLimit
	if excess <= 0 {
		return nil
	}

	pruned := 0
	for _, attempt := range attempts {
		if pruned >= excess {
			break
		}
		if !attempt.Resolved() {
			continue
		}
		if err := manager.Attempts().Delete(ctx, attempt.SitePath, attempt.SubscriptionID, attempt.ID); err != nil {
			if domain.IsNotFound(err) {
				continue
			}
			return fmt.Errorf("failed to prune attempt %s: %w", attempt.ID, err)
		}
		pruned++
	}

	if pruned > 0 {
		s.logger.WithFields(map[string]interface{}{
			"site_path":       sub.SitePath,
			"subscription_id": sub.ID,
			"pruned":          pruned,
		}).Debug("pruned delivery attempts past the retention limit")
	}
	return nil
}

// DeactivateFailingSubscription suspends a subscription whose retained
// attempt window is full and made up entirely of failures.
func (s *RetentionService) DeactivateFailingSubscription(ctx context.Context, event domain.Event) error {
	ev, ok := event.(*domain.AttemptEvent)
	if !ok || ev.Attempt == nil || ev.Success {
		return nil
	}

	manager, sub, err := s.resolveSubscription(ctx, ev.Attempt.SitePath, ev.Attempt.SubscriptionID)
	if err != nil || sub == nil {
		return err
	}
	if !sub.Active {
		return nil
	}

	attempts, err := manager.Attempts().ListBySubscription(ctx, sub.SitePath, sub.ID)
	if err != nil {
		return fmt.Errorf("failed to list attempts for failure check: %w", err)
	}
	if len(attempts) < sub.AttemptLimit {
		return nil
	}
	for _, attempt := range attempts {
		if !attempt.Failed() {
			return nil
		}
	}

	s.logger.WithFields(map[string]interface{}{
		"site_path":       sub.SitePath,
		"subscription_id": sub.ID,
		"attempts":        len(attempts),
	}).Info("deactivating subscription after repeated delivery failures")

	if err := manager.DeactivateSubscription(ctx, sub.ID, domain.StatusMessageTooManyFailures); err != nil {
		if domain.IsNotFound(err) {
			return nil
		}
		return err
	}
	return nil
}

// DeactivateAfterPreconditionLimit suspends a subscription that reached its
// consecutive precondition-failure limit.
func (s *RetentionService) DeactivateAfterPreconditionLimit(ctx context.Context, event domain.Event) error {
	ev, ok := event.(*domain.PreconditionLimitEvent)
	if !ok || ev.Subscription == nil {
		return nil
	}
	sub := ev.Subscription

	manager, err := s.managers.ManagerFor(sub.SitePath)
	if err != nil {
		return err
	}

	s.logger.WithFields(map[string]interface{}{
		"site_path":       sub.SitePath,
		"subscription_id": sub.ID,
		"failures":        ev.Failures,
	}).Info("deactivating subscription after repeated precondition failures")

	if err := manager.DeactivateSubscription(ctx, sub.ID, domain.StatusMessageTooManyPreconditions); err != nil {
		if domain.IsNotFound(err) {
			return nil
		}
		return err
	}
	return nil
}

// resolveSubscription loads the current subscription rather than trusting
// the snapshot carried on the event. A removed subscription yields nils.
func (s *RetentionService) resolveSubscription(ctx context.Context, sitePath, subscriptionID string) (*SubscriptionManager, *domain.Subscription, error) {
	manager, err := s.managers.ManagerFor(sitePath)
	if err != nil {
		return nil, nil, err
	}
	sub, err := manager.GetSubscription(ctx, subscriptionID)
	if err != nil {
		if domain.IsNotFound(err) {
			return manager, nil, nil
		}
		return nil, nil, err
	}
	return manager, sub, nil
}
