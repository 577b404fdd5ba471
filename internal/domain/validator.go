package domain

import "context"

//go:generate mockgen -destination mocks/mock_destination_validator.go -package mocks github.com/hookline/hookline/internal/domain DestinationValidator

// DestinationValidator decides whether a webhook destination is deliverable
// at all: scheme, shape and DNS resolvability. It does not contact the
// destination.
type DestinationValidator interface {
	// ValidateTarget returns nil when target is acceptable, or an
	// ErrDestinationInvalid describing why it is not.
	ValidateTarget(ctx context.Context, target string) error
}
