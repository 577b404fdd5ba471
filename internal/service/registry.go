package service

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/hookline/hookline/internal/domain"
	"github.com/hookline/hookline/pkg/logger"
)

// ManagerFactory builds the subscription manager for a site scope that
// has none yet. The default factory builds durable managers over the
// shared store repositories.
type ManagerFactory func(sitePath string) *SubscriptionManager

// SubscriberMatch pairs a matched subscription with the manager that
// owns it, so downstream code knows which repositories hold its
// attempts.
type SubscriberMatch struct {
	Manager      *SubscriptionManager
	Subscription *domain.Subscription
}

// Registry knows every subscription manager and resolves which of them
// are in scope for a resource. Site paths nest by slash: an event on
// "/customers/acme" consults that site, then "/customers", then the
// global scope.
type Registry struct {
	mu       sync.RWMutex
	managers map[string]*SubscriptionManager
	factory  ManagerFactory
	logger   logger.Logger
}

// NewRegistry creates a registry that builds missing site managers with
// factory.
func NewRegistry(factory ManagerFactory, logger logger.Logger) *Registry {
	return &Registry{
		managers: make(map[string]*SubscriptionManager),
		factory:  factory,
		logger:   logger,
	}
}

// AddManager registers a pre-built manager, replacing any manager
// already bound to its site. Configuration-declared in-memory managers
// arrive this way.
func (r *Registry) AddManager(m *SubscriptionManager) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.managers[m.SitePath()] = m
}

// ManagerFor returns the manager owning a site scope, building a durable
// one on first use. Building lazily keeps restarts correct: stored
// subscriptions need no startup scan, their site's manager appears as
// soon as something dispatches or resolves there.
func (r *Registry) ManagerFor(site string) (*SubscriptionManager, error) {
	r.mu.RLock()
	m, ok := r.managers[site]
	r.mu.RUnlock()
	if ok {
		return m, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if m, ok := r.managers[site]; ok {
		return m, nil
	}
	if r.factory == nil {
		return nil, fmt.Errorf("no subscription manager for site %q and no factory configured", site)
	}
	m = r.factory(site)
	r.managers[site] = m
	return m, nil
}

// Managers returns a snapshot of every known manager.
func (r *Registry) Managers() []*SubscriptionManager {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*SubscriptionManager, 0, len(r.managers))
	for _, m := range r.managers {
		out = append(out, m)
	}
	return out
}

// SubscribersFor returns every (manager, subscription) pair that should
// receive data under event, walking the managers in scope from the most
// specific site out to the global scope.
func (r *Registry) SubscribersFor(ctx context.Context, data interface{}, event domain.Event) ([]SubscriberMatch, error) {
	managers, err := r.managersInScope(ctx, data)
	if err != nil {
		return nil, err
	}

	var matches []SubscriberMatch
	for _, manager := range managers {
		subs, err := manager.SubscriptionsToDeliver(ctx, data, event)
		if err != nil {
			return nil, err
		}
		for _, sub := range subs {
			matches = append(matches, SubscriberMatch{Manager: manager, Subscription: sub})
		}
	}
	return matches, nil
}

// SubscribeToResource registers a subscription scoped to a resource's
// own site. When the subscription names no capability tag, the
// resource's most specific tag is used, so the hook fires for objects
// like this one.
func (r *Registry) SubscribeToResource(ctx context.Context, resource interface{}, sub *domain.Subscription) error {
	manager, err := r.ManagerFor(domain.SiteOf(resource))
	if err != nil {
		return err
	}
	if sub.For == "" {
		sub.For = domain.TagsOf(resource)[0]
	}
	return manager.CreateSubscription(ctx, sub)
}

// managersInScope resolves the ordered, deduplicated manager chain for
// data: the data's own site chain leaf to root, then the chain of the
// context's current site, ending in the global scope.
func (r *Registry) managersInScope(ctx context.Context, data interface{}) ([]*SubscriptionManager, error) {
	seen := make(map[string]bool)
	var sites []string
	appendChain := func(site string) {
		for _, s := range sitePathChain(site) {
			if !seen[s] {
				seen[s] = true
				sites = append(sites, s)
			}
		}
	}

	appendChain(domain.SiteOf(data))
	if site, ok := domain.SiteFrom(ctx); ok {
		appendChain(site)
	}

	managers := make([]*SubscriptionManager, 0, len(sites))
	for _, site := range sites {
		m, err := r.ManagerFor(site)
		if err != nil {
			return nil, err
		}
		managers = append(managers, m)
	}
	return managers, nil
}

// sitePathChain expands a site path into itself and each of its
// ancestors, ending with the global scope.
func sitePathChain(site string) []string {
	site = strings.TrimSuffix(site, "/")
	if site == "" {
		return []string{""}
	}
	var chain []string
	for site != "" {
		chain = append(chain, site)
		idx := strings.LastIndex(site, "/")
		if idx <= 0 {
			break
		}
		site = site[:idx]
	}
	return append(chain, "")
}
