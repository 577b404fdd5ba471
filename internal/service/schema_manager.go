package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/hookline/hookline/internal/domain"
	"github.com/hookline/hookline/pkg/logger"
)

// subscriptionGenerationKey is the generation record the schema manager
// owns in the config generation store.
const subscriptionGenerationKey = "webhook-subscriptions"

// SchemaManager reconciles declaratively configured subscriptions with the
// store. Each reconcile diffs the configuration against the entry list
// recorded under the last generation: additions are installed, removals are
// deactivated, matches are left alone. The generation number only moves
// when something changed, so a restart with an unchanged configuration
// leaves the store untouched.
type SchemaManager struct {
	managers    ManagerLocator
	generations domain.ConfigGenerationRepository
	uows        UnitOfWorkRunner
	logger      logger.Logger
}

// NewSchemaManager creates a schema manager.
func NewSchemaManager(managers ManagerLocator, generations domain.ConfigGenerationRepository, uows UnitOfWorkRunner, log logger.Logger) *SchemaManager {
	return &SchemaManager{
		managers:    managers,
		generations: generations,
		uows:        uows,
		logger:      log,
	}
}

// Reconcile brings the store in line with the configured subscriptions.
// The whole reconcile runs in one unit of work.
func (m *SchemaManager) Reconcile(ctx context.Context, configured []*domain.Subscription) error {
	return m.uows.RunInUnitOfWork(ctx, "", func(ctx context.Context, _ domain.UnitOfWork) error {
		return m.reconcile(ctx, configured)
	})
}

type configEntry struct {
	fingerprint string
	sub         *domain.Subscription
}

func (m *SchemaManager) reconcile(ctx context.Context, configured []*domain.Subscription) error {
	wanted := make([]configEntry, 0, len(configured))
	wantSet := make(map[string]struct{}, len(configured))
	for _, spec := range configured {
		sub := *spec
		sub.ApplyDefaults()
		fp := configFingerprint(&sub)
		if _, dup := wantSet[fp]; dup {
			continue
		}
		wantSet[fp] = struct{}{}
		wanted = append(wanted, configEntry{fingerprint: fp, sub: &sub})
	}

	gen, err := m.generations.Get(ctx, subscriptionGenerationKey)
	if err != nil {
		if !domain.IsNotFound(err) {
			return fmt.Errorf("failed to load config generation: %w", err)
		}
		gen = &domain.ConfigGeneration{Key: subscriptionGenerationKey}
	}

	haveSet := make(map[string]struct{}, len(gen.Entries))
	for _, entry := range gen.Entries {
		haveSet[entry] = struct{}{}
	}

	var installed, deactivated, kept int
	for _, entry := range wanted {
		if _, ok := haveSet[entry.fingerprint]; ok {
			kept++
			continue
		}
		if err := m.install(ctx, entry); err != nil {
			return err
		}
		installed++
	}
	for _, entry := range gen.Entries {
		if _, ok := wantSet[entry]; ok {
			continue
		}
		if err := m.retire(ctx, entry); err != nil {
			return err
		}
		deactivated++
	}

	if installed == 0 && deactivated == 0 {
		m.logger.WithFields(map[string]interface{}{
			"generation":    gen.Generation,
			"subscriptions": kept,
		}).Debug("webhook subscription configuration unchanged")
		return nil
	}

	gen.Generation++
	gen.Entries = make([]string, 0, len(wanted))
	for _, entry := range wanted {
		gen.Entries = append(gen.Entries, entry.fingerprint)
	}
	if err := m.generations.Put(ctx, gen); err != nil {
		return fmt.Errorf("failed to record config generation: %w", err)
	}

	m.logger.WithFields(map[string]interface{}{
		"generation":  gen.Generation,
		"installed":   installed,
		"deactivated": deactivated,
		"kept":        kept,
	}).Info("reconciled configured webhook subscriptions")
	return nil
}

// install registers one configured subscription. A subscription with the
// same identity already in the store is reused: reactivated when a prior
// generation retired it, otherwise left as is.
func (m *SchemaManager) install(ctx context.Context, entry configEntry) error {
	manager, err := m.managers.ManagerFor(entry.sub.SitePath)
	if err != nil {
		return err
	}
	existing, err := m.findByFingerprint(ctx, manager, entry.fingerprint)
	if err != nil {
		return err
	}
	if existing != nil {
		if existing.Active {
			return nil
		}
		return manager.ActivateSubscription(ctx, existing.ID)
	}

	sub := *entry.sub
	if err := manager.CreateSubscription(ctx, &sub); err != nil {
		return fmt.Errorf("failed to install configured subscription for site %q: %w", entry.sub.SitePath, err)
	}
	return nil
}

// retire deactivates the stored subscription a removed config entry
// installed. Already-gone subscriptions are fine; someone removed them
// ahead of us.
func (m *SchemaManager) retire(ctx context.Context, entry string) error {
	manager, err := m.managers.ManagerFor(entrySitePath(entry))
	if err != nil {
		return err
	}
	existing, err := m.findByFingerprint(ctx, manager, entry)
	if err != nil {
		return err
	}
	if existing == nil || !existing.Active {
		return nil
	}
	if err := manager.DeactivateSubscription(ctx, existing.ID, ""); err != nil {
		if domain.IsNotFound(err) {
			return nil
		}
		return err
	}
	return nil
}

func (m *SchemaManager) findByFingerprint(ctx context.Context, manager *SubscriptionManager, fingerprint string) (*domain.Subscription, error) {
	subs, err := manager.ListSubscriptions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list subscriptions for site %q: %w", manager.SitePath(), err)
	}
	for _, sub := range subs {
		if configFingerprint(sub) == fingerprint {
			return sub, nil
		}
	}
	return nil, nil
}

// configFingerprint is the identity of a configured subscription. The site
// path leads so a recorded entry can be routed back to its manager.
func configFingerprint(sub *domain.Subscription) string {
	return strings.Join([]string{
		sub.SitePath,
		string(sub.For),
		string(sub.When),
		sub.To,
		sub.OwnerID,
		sub.PermissionID,
		sub.DialectID,
		strconv.Itoa(sub.AttemptLimit),
		strconv.Itoa(sub.PreconditionFailureLimit),
	}, "|")
}

func entrySitePath(entry string) string {
	if i := strings.Index(entry, "|"); i >= 0 {
		return entry[:i]
	}
	return ""
}
