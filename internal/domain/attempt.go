package domain

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
)

//go:generate mockgen -destination mocks/mock_attempt_repository.go -package mocks github.com/hookline/hookline/internal/domain AttemptRepository

// AttemptStatus is the delivery state of one attempt. Attempts start pending
// and settle exactly once.
type AttemptStatus string

// Attempt statuses
const (
	AttemptStatusPending    AttemptStatus = "pending"
	AttemptStatusSuccessful AttemptStatus = "successful"
	AttemptStatusFailed     AttemptStatus = "failed"
)

// Canonical attempt messages surfaced to subscription owners.
const (
	MessageDestinationFailed = "Verification of the destination URL failed. Please check the domain."
	MessageTransportError    = "Contacting the remote server experienced an unexpected error."
)

// AttemptRequest is the immutable snapshot of the HTTP request that was sent.
type AttemptRequest struct {
	URL       string            `json:"url"`
	Method    string            `json:"method"`
	Body      string            `json:"body"`
	Headers   map[string]string `json:"headers,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}

// AttemptResponse is the immutable snapshot of the HTTP response received.
type AttemptResponse struct {
	StatusCode int               `json:"status_code"`
	Reason     string            `json:"reason"`
	Headers    map[string]string `json:"headers,omitempty"`
	Content    string            `json:"content,omitempty"`
	ElapsedMS  int64             `json:"elapsed_ms"`
	CreatedAt  time.Time         `json:"created_at"`
}

// OriginationInfo records which process created an attempt and under which
// transaction note. Useful when several hosts share one store.
type OriginationInfo struct {
	PID             int       `json:"pid"`
	Hostname        string    `json:"hostname"`
	CreatedAt       time.Time `json:"created_at"`
	TransactionNote string    `json:"transaction_note,omitempty"`
}

// AttemptInternalInfo holds operator-facing bookkeeping that is never shown
// to webhook consumers.
type AttemptInternalInfo struct {
	Originated       OriginationInfo `json:"originated"`
	ExceptionHistory []string        `json:"exception_history,omitempty"`
}

// RecordException appends formatted exception text to the history.
func (i *AttemptInternalInfo) RecordException(err error) {
	if err == nil {
		return
	}
	i.ExceptionHistory = append(i.ExceptionHistory, fmt.Sprintf("%+v", err))
}

// DeliveryAttempt is one shot at delivering a payload to a subscription's
// destination. The payload is frozen at creation; request, response and the
// terminal status are written exactly once by the delivery engine.
type DeliveryAttempt struct {
	ID             string              `json:"id"`
	Key            string              `json:"key"` // time-sortable container key
	SitePath       string              `json:"site_path"`
	SubscriptionID string              `json:"subscription_id"`
	Status         AttemptStatus       `json:"status"`
	Message        string              `json:"message,omitempty"`
	Payload        []byte              `json:"payload,omitempty"`
	Request        *AttemptRequest     `json:"request,omitempty"`
	Response       *AttemptResponse    `json:"response,omitempty"`
	Internal       AttemptInternalInfo `json:"internal"`
	CreatedAt      time.Time           `json:"created_at"`
	UpdatedAt      time.Time           `json:"updated_at"`
}

// NewDeliveryAttempt creates a pending attempt for sub carrying payload.
// The transaction note, process id and hostname are recorded so operators
// can trace where an attempt originated.
func NewDeliveryAttempt(sub *Subscription, payload []byte, transactionNote string) *DeliveryAttempt {
	now := time.Now().UTC()
	hostname, _ := os.Hostname()
	return &DeliveryAttempt{
		ID:             uuid.New().String(),
		Key:            NewAttemptKey(now),
		SitePath:       sub.SitePath,
		SubscriptionID: sub.ID,
		Status:         AttemptStatusPending,
		Payload:        payload,
		Internal: AttemptInternalInfo{
			Originated: OriginationInfo{
				PID:             os.Getpid(),
				Hostname:        hostname,
				CreatedAt:       now,
				TransactionNote: transactionNote,
			},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// NewAttemptKey returns a key that sorts lexicographically by creation time,
// so attempt containers iterate in insertion order.
func NewAttemptKey(t time.Time) string {
	return t.UTC().Format("20060102150405.000000000") + "-" + uuid.New().String()[:8]
}

// Pending reports whether the attempt has not settled yet.
func (a *DeliveryAttempt) Pending() bool { return a.Status == AttemptStatusPending }

// Succeeded reports whether the attempt settled successfully.
func (a *DeliveryAttempt) Succeeded() bool { return a.Status == AttemptStatusSuccessful }

// Failed reports whether the attempt settled as failed.
func (a *DeliveryAttempt) Failed() bool { return a.Status == AttemptStatusFailed }

// Resolved reports whether the attempt reached a terminal status.
func (a *DeliveryAttempt) Resolved() bool { return a.Status != AttemptStatusPending }

// Resolve moves a pending attempt to a terminal status. Resolving an
// already-settled attempt returns ErrAttemptResolved; the status of an
// attempt never changes once set.
func (a *DeliveryAttempt) Resolve(status AttemptStatus, message string) error {
	if status != AttemptStatusSuccessful && status != AttemptStatusFailed {
		return &ValidationError{Field: "status", Message: fmt.Sprintf("%q is not a terminal status", status)}
	}
	if a.Resolved() {
		return &ErrAttemptResolved{AttemptID: a.ID, Status: a.Status}
	}
	a.Status = status
	a.Message = message
	a.UpdatedAt = time.Now().UTC()
	return nil
}

// ResourceTags lets attempts themselves be webhook resources, so hooks can
// subscribe to delivery outcomes.
func (a *DeliveryAttempt) ResourceTags() []Tag {
	return []Tag{TagDeliveryAttempt}
}

// ResourceSitePath returns the site scope owning the attempt.
func (a *DeliveryAttempt) ResourceSitePath() string {
	return a.SitePath
}

// AttemptRepository stores delivery attempts, keyed by site scope,
// subscription and id.
type AttemptRepository interface {
	// Create persists a new pending attempt
	Create(ctx context.Context, attempt *DeliveryAttempt) error

	// GetByID retrieves one attempt
	GetByID(ctx context.Context, site, subscriptionID, id string) (*DeliveryAttempt, error)

	// ListBySubscription returns a subscription's attempts in insertion
	// (key) order
	ListBySubscription(ctx context.Context, site, subscriptionID string) ([]*DeliveryAttempt, error)

	// CountBySubscription returns how many attempts a subscription holds
	CountBySubscription(ctx context.Context, site, subscriptionID string) (int, error)

	// Resolve persists the terminal status, message and snapshots of an
	// attempt. It fails with ErrAttemptResolved when the stored attempt
	// already settled.
	Resolve(ctx context.Context, attempt *DeliveryAttempt) error

	// Delete removes one attempt
	Delete(ctx context.Context, site, subscriptionID, id string) error

	// DeleteBySubscription removes every attempt of a subscription and
	// returns how many were removed
	DeleteBySubscription(ctx context.Context, site, subscriptionID string) (int, error)
}
