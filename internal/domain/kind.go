package domain

import (
	"fmt"
	"sync"
)

// Tag names one capability a resource provides. Hosts attach tags to their
// objects instead of marker interfaces; subscriptions match on them.
type Tag string

// TagObject is the most general tag. Every resource provides it implicitly.
const TagObject Tag = "object"

// TagDeliveryAttempt is provided by delivery attempts themselves, so hooks
// can subscribe to webhook outcomes like any other resource.
const TagDeliveryAttempt Tag = "webhook.delivery_attempt"

// Resource is the minimal surface webhook dispatch needs from a host object.
type Resource interface {
	// ResourceTags lists the capability tags the object provides, most
	// specific first. The general "object" tag is implied.
	ResourceTags() []Tag
}

// SiteLocated is implemented by resources that belong to a site. Paths are
// slash-separated from the root ("/customers/acme"); the empty path is the
// global scope.
type SiteLocated interface {
	ResourceSitePath() string
}

// TagsOf returns the capability tags data provides, ending with the implied
// general object tag. Data that does not implement Resource provides only
// the general tag.
func TagsOf(data interface{}) []Tag {
	var tags []Tag
	if r, ok := data.(Resource); ok {
		for _, t := range r.ResourceTags() {
			if t != TagObject {
				tags = append(tags, t)
			}
		}
	}
	return append(tags, TagObject)
}

// SiteOf returns the site path owning data, or the empty (global) path.
func SiteOf(data interface{}) string {
	if s, ok := data.(SiteLocated); ok {
		return s.ResourceSitePath()
	}
	return ""
}

// EventKind identifies one kind of lifecycle event. Kinds form a
// single-parent hierarchy rooted at KindObjectEvent; a subscription whose
// when is an ancestor kind also matches events of descendant kinds.
type EventKind string

// Object lifecycle kinds.
const (
	KindObjectEvent    EventKind = "object.event"
	KindObjectCreated  EventKind = "object.created"
	KindObjectAdded    EventKind = "object.added"
	KindObjectModified EventKind = "object.modified"
	KindObjectRemoved  EventKind = "object.removed"
)

// Kinds published by the webhook subsystem itself.
const (
	KindAttemptResolved          EventKind = "webhook.attempt.resolved"
	KindAttemptSucceeded         EventKind = "webhook.attempt.succeeded"
	KindAttemptFailed            EventKind = "webhook.attempt.failed"
	KindSubscriptionRegistered   EventKind = "webhook.subscription.registered"
	KindSubscriptionUnregistered EventKind = "webhook.subscription.unregistered"
	KindPreconditionLimitReached EventKind = "webhook.subscription.precondition_limit"
)

// KindRegistry records the parent of every registered event kind.
type KindRegistry struct {
	mu      sync.RWMutex
	parents map[EventKind]EventKind
}

// NewKindRegistry returns a registry seeded with the built-in kinds.
func NewKindRegistry() *KindRegistry {
	r := &KindRegistry{parents: make(map[EventKind]EventKind)}
	r.parents[KindObjectEvent] = ""
	for _, k := range []EventKind{
		KindObjectCreated,
		KindObjectAdded,
		KindObjectModified,
		KindObjectRemoved,
		KindAttemptResolved,
		KindSubscriptionRegistered,
		KindSubscriptionUnregistered,
		KindPreconditionLimitReached,
	} {
		r.parents[k] = KindObjectEvent
	}
	r.parents[KindAttemptSucceeded] = KindAttemptResolved
	r.parents[KindAttemptFailed] = KindAttemptResolved
	return r
}

// Register adds kind as a child of parent. Registering an existing kind with
// the same parent is a no-op; with a different parent it is an error.
func (r *KindRegistry) Register(kind, parent EventKind) error {
	if kind == "" {
		return fmt.Errorf("event kind must not be empty")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.parents[parent]; !ok {
		return fmt.Errorf("unknown parent event kind %q", parent)
	}
	if existing, ok := r.parents[kind]; ok {
		if existing != parent {
			return fmt.Errorf("event kind %q already registered under %q", kind, existing)
		}
		return nil
	}
	r.parents[kind] = parent
	return nil
}

// Known reports whether kind has been registered.
func (r *KindRegistry) Known(kind EventKind) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.parents[kind]
	return ok
}

// IsOrExtends reports whether kind equals ancestor or descends from it.
func (r *KindRegistry) IsOrExtends(kind, ancestor EventKind) bool {
	for _, k := range r.Ancestry(kind) {
		if k == ancestor {
			return true
		}
	}
	return false
}

// Ancestry returns the chain from kind up to the root. An unregistered kind
// yields only itself, so it matches exact subscriptions at most.
func (r *KindRegistry) Ancestry(kind EventKind) []EventKind {
	r.mu.RLock()
	defer r.mu.RUnlock()
	chain := []EventKind{kind}
	for {
		parent, ok := r.parents[kind]
		if !ok || parent == "" {
			return chain
		}
		chain = append(chain, parent)
		kind = parent
	}
}
