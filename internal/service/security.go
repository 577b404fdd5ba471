package service

import (
	"context"

	"github.com/hookline/hookline/internal/domain"
	"github.com/hookline/hookline/pkg/logger"
)

// SecurityChecker decides whether a subscription with an owner or a
// permission may receive a given resource. The outcome is tri-state:
// Allow and Deny are decisions, Missing means the authentication
// machinery needed for the check could not be found.
type SecurityChecker struct {
	providers domain.AuthProvider
	policy    domain.SecurityPolicy
	logger    logger.Logger
}

// NewSecurityChecker creates a new security checker
func NewSecurityChecker(providers domain.AuthProvider, policy domain.SecurityPolicy, logger logger.Logger) *SecurityChecker {
	return &SecurityChecker{
		providers: providers,
		policy:    policy,
		logger:    logger,
	}
}

// ApplicabilityOf runs the security check for one subscription against
// one resource. Subscriptions without an owner and without a permission
// skip the check entirely and are allowed.
func (c *SecurityChecker) ApplicabilityOf(ctx context.Context, sub *domain.Subscription, data interface{}) domain.Applicability {
	if sub.OwnerID == "" && sub.PermissionID == "" {
		return domain.ApplicabilityAllow
	}

	principal := c.findPrincipal(data, sub.OwnerID)
	if principal == nil {
		c.logger.WithField("subscription_id", sub.ID).
			Debug("no authenticator could resolve a principal for the security check")
		return domain.ApplicabilityMissing
	}

	permissionID := sub.PermissionID
	if permissionID == "" {
		permissionID = domain.DefaultPermissionID
	}
	permission := c.findPermission(data, permissionID)
	if permission == nil {
		c.logger.WithField("subscription_id", sub.ID).
			WithField("permission_id", permissionID).
			Debug("no permission source defines the subscription's permission")
		return domain.ApplicabilityMissing
	}

	if c.policy == nil {
		return domain.ApplicabilityMissing
	}
	if c.policy.HasPermission(permission.ID, data, domain.NewInteraction(principal)) {
		return domain.ApplicabilityAllow
	}
	return domain.ApplicabilityDeny
}

// findPrincipal walks the authenticators visible from data, nearest
// scope first. A named hit wins immediately; scopes that cannot resolve
// the owner contribute their unauthenticated principal as a fallback,
// so the outermost scope's anonymous principal is used when no scope
// knows the owner.
func (c *SecurityChecker) findPrincipal(data interface{}, ownerID string) *domain.Principal {
	var fallback *domain.Principal
	for _, auth := range c.providers.AuthenticatorsFor(data) {
		if ownerID != "" {
			principal, err := auth.PrincipalByID(ownerID)
			if err == nil && principal != nil {
				return principal
			}
		}
		if anonymous := auth.UnauthenticatedPrincipal(); anonymous != nil {
			fallback = anonymous
		}
	}
	return fallback
}

// findPermission returns the permission from the nearest scope that
// defines it.
func (c *SecurityChecker) findPermission(data interface{}, permissionID string) *domain.Permission {
	for _, source := range c.providers.PermissionSourcesFor(data) {
		if permission := source.PermissionByID(permissionID); permission != nil {
			return permission
		}
	}
	return nil
}

// StaticAuthenticator resolves principals from a fixed table. Hosts with
// a real user store plug in their own implementation; this one covers
// configuration-declared principals and tests.
type StaticAuthenticator struct {
	principals map[string]*domain.Principal
	anonymous  *domain.Principal
}

// NewStaticAuthenticator creates an authenticator over a fixed set of
// principals. The anonymous principal may be nil.
func NewStaticAuthenticator(principals []*domain.Principal, anonymous *domain.Principal) *StaticAuthenticator {
	byID := make(map[string]*domain.Principal, len(principals))
	for _, p := range principals {
		byID[p.ID] = p
	}
	return &StaticAuthenticator{principals: byID, anonymous: anonymous}
}

func (a *StaticAuthenticator) PrincipalByID(id string) (*domain.Principal, error) {
	if principal, ok := a.principals[id]; ok {
		return principal, nil
	}
	return nil, domain.ErrPrincipalNotFound
}

func (a *StaticAuthenticator) UnauthenticatedPrincipal() *domain.Principal {
	return a.anonymous
}

// StaticPermissionSource defines a fixed set of permission ids.
type StaticPermissionSource struct {
	permissions map[string]*domain.Permission
}

// NewStaticPermissionSource creates a permission source defining the
// given ids.
func NewStaticPermissionSource(ids ...string) *StaticPermissionSource {
	permissions := make(map[string]*domain.Permission, len(ids))
	for _, id := range ids {
		permissions[id] = &domain.Permission{ID: id}
	}
	return &StaticPermissionSource{permissions: permissions}
}

func (s *StaticPermissionSource) PermissionByID(id string) *domain.Permission {
	return s.permissions[id]
}

// StaticAuthProvider hands the same collaborators to every resource,
// which is the common single-store deployment. Multi-scope hosts
// implement domain.AuthProvider themselves.
type StaticAuthProvider struct {
	Authenticators []domain.Authenticator
	Permissions    []domain.PermissionSource
}

func (p *StaticAuthProvider) AuthenticatorsFor(data interface{}) []domain.Authenticator {
	return p.Authenticators
}

func (p *StaticAuthProvider) PermissionSourcesFor(data interface{}) []domain.PermissionSource {
	return p.Permissions
}

// PermitAllPolicy grants every permission to any interaction carrying at
// least one principal. It is the default policy when the host does not
// provide one.
type PermitAllPolicy struct{}

func (PermitAllPolicy) HasPermission(permissionID string, object interface{}, interaction *domain.Interaction) bool {
	return interaction != nil && len(interaction.Principals) > 0
}
