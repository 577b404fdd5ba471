package domain

//go:generate mockgen -destination mocks/mock_security.go -package mocks github.com/hookline/hookline/internal/domain Authenticator,PermissionSource,SecurityPolicy,AuthProvider

// Applicability is the outcome of a subscription's security check.
type Applicability int

const (
	// ApplicabilityAllow means the check passed and delivery may proceed.
	ApplicabilityAllow Applicability = iota

	// ApplicabilityDeny means the check completed and refused delivery.
	ApplicabilityDeny

	// ApplicabilityMissing means a collaborator the check needs (the
	// principal or the permission) could not be found, so the check could
	// not run. Callers treat this as a precondition failure, not a denial.
	ApplicabilityMissing
)

func (a Applicability) String() string {
	switch a {
	case ApplicabilityAllow:
		return "allow"
	case ApplicabilityDeny:
		return "deny"
	case ApplicabilityMissing:
		return "missing"
	default:
		return "unknown"
	}
}

// Principal is an actor known to the host's authentication system.
type Principal struct {
	ID    string `json:"id"`
	Title string `json:"title,omitempty"`
}

// Permission is a named permission known to the host's security system.
type Permission struct {
	ID string `json:"id"`
}

// Authenticator resolves principals within one scope.
type Authenticator interface {
	// PrincipalByID returns the principal with the given id, or
	// ErrPrincipalNotFound.
	PrincipalByID(id string) (*Principal, error)

	// UnauthenticatedPrincipal returns the principal representing
	// anonymous access in this scope, or nil if there is none.
	UnauthenticatedPrincipal() *Principal
}

// PermissionSource resolves named permissions within one scope.
type PermissionSource interface {
	// PermissionByID returns the permission with the given id, or nil if
	// this scope does not define it.
	PermissionByID(id string) *Permission
}

// Interaction is the set of principals participating in one security check.
type Interaction struct {
	Principals []*Principal
}

// NewInteraction returns an interaction with the given participants.
func NewInteraction(principals ...*Principal) *Interaction {
	return &Interaction{Principals: principals}
}

// SecurityPolicy decides whether an interaction holds a permission on an
// object.
type SecurityPolicy interface {
	HasPermission(permissionID string, object interface{}, interaction *Interaction) bool
}

// AuthProvider returns the authentication collaborators visible from a
// resource, ordered from the resource's own scope out to the global scope.
// An empty slice means the scope has no such collaborator at all.
type AuthProvider interface {
	AuthenticatorsFor(data interface{}) []Authenticator
	PermissionSourcesFor(data interface{}) []PermissionSource
}
