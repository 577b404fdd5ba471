package domain

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when an entity cannot be found
type ErrNotFound struct {
	Entity string // e.g. "subscription", "attempt", "dialect"
	ID     string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Entity, e.ID)
}

// IsNotFound reports whether err is an ErrNotFound.
func IsNotFound(err error) bool {
	var nf *ErrNotFound
	return errors.As(err, &nf)
}

// ErrAttemptResolved is returned when code tries to resolve a delivery
// attempt that already reached a terminal status. Attempts settle exactly
// once.
type ErrAttemptResolved struct {
	AttemptID string
	Status    AttemptStatus
}

func (e *ErrAttemptResolved) Error() string {
	return fmt.Sprintf("delivery attempt %s already resolved as %s: status cannot change once set", e.AttemptID, e.Status)
}

// ErrDestinationInvalid is returned by destination validation.
type ErrDestinationInvalid struct {
	URL    string
	Reason string
}

func (e *ErrDestinationInvalid) Error() string {
	return fmt.Sprintf("invalid webhook destination %q: %s", e.URL, e.Reason)
}

// ErrForeignUnitOfWork is returned when a transactional resource receives a
// protocol call for a unit of work it never joined.
type ErrForeignUnitOfWork struct {
	Joined   string
	Received string
}

func (e *ErrForeignUnitOfWork) Error() string {
	return fmt.Sprintf("foreign unit of work: joined %s, received call for %s", e.Joined, e.Received)
}

// ValidationError represents an invalid field on a request or entity
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// Sentinel errors for the security collaborators.
var (
	// ErrPrincipalNotFound is returned by Authenticator implementations
	// when no principal has the requested id.
	ErrPrincipalNotFound = errors.New("principal not found")

	// ErrEngineStopped is returned when work is handed to a delivery
	// engine that has shut down.
	ErrEngineStopped = errors.New("delivery engine stopped")

	// ErrUnitOfWorkClosed is returned when an operation requires an
	// active unit of work but the given one already finished.
	ErrUnitOfWorkClosed = errors.New("unit of work is not active")

	// ErrOutboxFrozen is returned when subscriptions arrive after the
	// outbox began preparing its shipment.
	ErrOutboxFrozen = errors.New("outbox already preparing delivery; too late to add subscriptions")
)
