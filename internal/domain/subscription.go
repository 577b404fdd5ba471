package domain

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/asaskevich/govalidator"
)

//go:generate mockgen -destination mocks/mock_subscription_repository.go -package mocks github.com/hookline/hookline/internal/domain SubscriptionRepository

// Defaults applied to new subscriptions.
const (
	// DefaultAttemptLimit caps how many delivery attempts are retained
	// per subscription before pruning.
	DefaultAttemptLimit = 50

	// DefaultPreconditionFailureLimit is how many consecutive security
	// precondition failures a subscription survives before it is
	// deactivated.
	DefaultPreconditionFailureLimit = 50

	// DefaultPermissionID is required of the subscription owner when an
	// owner is set but no explicit permission was chosen.
	DefaultPermissionID = "view"
)

// Status messages recorded when the subsystem flips a subscription's
// active flag.
const (
	StatusMessageActive               = "Active"
	StatusMessageInactive             = "Inactive"
	StatusMessageTooManyFailures      = "Delivery suspended due to too many delivery failures."
	StatusMessageTooManyPreconditions = "Delivery suspended due to too many precondition failures."
)

// Subscription is one registered webhook destination: deliver payloads for
// objects tagged For when events of kind When happen to them, subject to an
// optional security check on behalf of OwnerID.
type Subscription struct {
	ID                       string    `json:"id"`
	SitePath                 string    `json:"site_path"`
	For                      Tag       `json:"for"`
	When                     EventKind `json:"when"`
	To                       string    `json:"to"`
	OwnerID                  string    `json:"owner_id,omitempty"`
	PermissionID             string    `json:"permission_id,omitempty"`
	DialectID                string    `json:"dialect_id,omitempty"`
	Active                   bool      `json:"active"`
	StatusMessage            string    `json:"status_message,omitempty"`
	AttemptLimit             int       `json:"attempt_limit"`
	PreconditionFailureLimit int       `json:"precondition_failure_limit"`
	PreconditionFailures     int       `json:"precondition_failures"`
	CreatedAt                time.Time `json:"created_at"`
	UpdatedAt                time.Time `json:"updated_at"`
}

// ApplyDefaults fills the optional fields a caller left zero.
func (s *Subscription) ApplyDefaults() {
	if s.For == "" {
		s.For = TagObject
	}
	if s.When == "" {
		s.When = KindObjectEvent
	}
	if s.AttemptLimit <= 0 {
		s.AttemptLimit = DefaultAttemptLimit
	}
	if s.PreconditionFailureLimit <= 0 {
		s.PreconditionFailureLimit = DefaultPreconditionFailureLimit
	}
	if s.PermissionID == "" && s.OwnerID != "" {
		s.PermissionID = DefaultPermissionID
	}
}

// Validate checks the subscription fields. Destinations must be HTTPS; the
// when kind must be or extend the root object event kind.
func (s *Subscription) Validate(kinds *KindRegistry) error {
	if strings.TrimSpace(s.To) == "" {
		return &ValidationError{Field: "to", Message: "destination URL is required"}
	}
	if !govalidator.IsRequestURL(s.To) {
		return &ValidationError{Field: "to", Message: "destination must be a valid URL"}
	}
	u, err := url.Parse(s.To)
	if err != nil || !strings.EqualFold(u.Scheme, "https") {
		return &ValidationError{Field: "to", Message: "destination must use the https scheme"}
	}
	if u.Hostname() == "" {
		return &ValidationError{Field: "to", Message: "destination must include a host"}
	}
	if s.For == "" {
		return &ValidationError{Field: "for", Message: "capability tag is required"}
	}
	if !kinds.IsOrExtends(s.When, KindObjectEvent) {
		return &ValidationError{Field: "when", Message: "event kind must be or extend " + string(KindObjectEvent)}
	}
	if s.OwnerID != strings.TrimSpace(s.OwnerID) {
		return &ValidationError{Field: "owner_id", Message: "owner id must not contain surrounding whitespace"}
	}
	if s.AttemptLimit <= 0 {
		return &ValidationError{Field: "attempt_limit", Message: "attempt limit must be positive"}
	}
	if s.PreconditionFailureLimit <= 0 {
		return &ValidationError{Field: "precondition_failure_limit", Message: "precondition failure limit must be positive"}
	}
	return nil
}

// Matches reports whether this subscription's (for, when) pair covers data
// and an event of kind. It ignores activity and security.
func (s *Subscription) Matches(data interface{}, kind EventKind, kinds *KindRegistry) bool {
	if !kinds.IsOrExtends(kind, s.When) {
		return false
	}
	for _, tag := range TagsOf(data) {
		if tag == s.For {
			return true
		}
	}
	return false
}

// ResourceTags lets subscriptions themselves be webhook resources.
func (s *Subscription) ResourceTags() []Tag {
	return []Tag{Tag("webhook.subscription")}
}

// ResourceSitePath returns the site scope owning the subscription.
func (s *Subscription) ResourceSitePath() string {
	return s.SitePath
}

// SubscriptionRepository stores subscriptions, keyed by site scope and id.
type SubscriptionRepository interface {
	// Create persists a new subscription
	Create(ctx context.Context, sub *Subscription) error

	// GetByID retrieves a subscription by site and id
	GetByID(ctx context.Context, site, id string) (*Subscription, error)

	// List returns all subscriptions for a site in creation order
	List(ctx context.Context, site string) ([]*Subscription, error)

	// Update persists changes to an existing subscription
	Update(ctx context.Context, sub *Subscription) error

	// Delete removes a subscription
	Delete(ctx context.Context, site, id string) error

	// ListByOwner returns the subscriptions owned by a principal
	ListByOwner(ctx context.Context, site, ownerID string) ([]*Subscription, error)

	// IncrementPreconditionFailures bumps the consecutive precondition
	// failure counter with a store-side relative increment and returns
	// the new value, so concurrent workers never lose counts.
	IncrementPreconditionFailures(ctx context.Context, site, id string) (int, error)

	// ResetPreconditionFailures zeroes the counter after a successful
	// security check or a reactivation.
	ResetPreconditionFailures(ctx context.Context, site, id string) error
}
