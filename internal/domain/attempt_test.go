package domain

import (
	"errors"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDeliveryAttempt(t *testing.T) {
	sub := &Subscription{ID: "sub-1", SitePath: "/sites/main"}
	attempt := NewDeliveryAttempt(sub, []byte(`{"id":1}`), "checkout")

	assert.NotEmpty(t, attempt.ID)
	assert.NotEmpty(t, attempt.Key)
	assert.Equal(t, "/sites/main", attempt.SitePath)
	assert.Equal(t, "sub-1", attempt.SubscriptionID)
	assert.Equal(t, AttemptStatusPending, attempt.Status)
	assert.True(t, attempt.Pending())
	assert.False(t, attempt.Resolved())
	assert.Equal(t, []byte(`{"id":1}`), attempt.Payload)

	// Origination lets operators trace which process created the attempt
	assert.Equal(t, os.Getpid(), attempt.Internal.Originated.PID)
	assert.Equal(t, "checkout", attempt.Internal.Originated.TransactionNote)
	assert.False(t, attempt.Internal.Originated.CreatedAt.IsZero())
}

func TestNewAttemptKey_SortsByTime(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	earlier := NewAttemptKey(base)
	later := NewAttemptKey(base.Add(time.Second))

	assert.Less(t, earlier, later)
}

func TestDeliveryAttempt_Resolve(t *testing.T) {
	sub := &Subscription{ID: "sub-1"}
	attempt := NewDeliveryAttempt(sub, nil, "")

	err := attempt.Resolve(AttemptStatusSuccessful, "220 OK")
	require.NoError(t, err)
	assert.True(t, attempt.Succeeded())
	assert.True(t, attempt.Resolved())
	assert.Equal(t, "220 OK", attempt.Message)
}

func TestDeliveryAttempt_Resolve_Failed(t *testing.T) {
	attempt := NewDeliveryAttempt(&Subscription{ID: "sub-1"}, nil, "")

	err := attempt.Resolve(AttemptStatusFailed, MessageTransportError)
	require.NoError(t, err)
	assert.True(t, attempt.Failed())
	assert.False(t, attempt.Succeeded())
}

func TestDeliveryAttempt_Resolve_OnlyOnce(t *testing.T) {
	attempt := NewDeliveryAttempt(&Subscription{ID: "sub-1"}, nil, "")
	require.NoError(t, attempt.Resolve(AttemptStatusFailed, "boom"))

	err := attempt.Resolve(AttemptStatusSuccessful, "too late")
	var resolved *ErrAttemptResolved
	require.ErrorAs(t, err, &resolved)
	assert.Equal(t, attempt.ID, resolved.AttemptID)
	assert.Equal(t, AttemptStatusFailed, resolved.Status)

	// The first resolution stands
	assert.True(t, attempt.Failed())
	assert.Equal(t, "boom", attempt.Message)
}

func TestDeliveryAttempt_Resolve_RejectsNonTerminal(t *testing.T) {
	attempt := NewDeliveryAttempt(&Subscription{ID: "sub-1"}, nil, "")

	err := attempt.Resolve(AttemptStatusPending, "")
	var validation *ValidationError
	require.ErrorAs(t, err, &validation)
	assert.Equal(t, "status", validation.Field)
	assert.True(t, attempt.Pending())
}

func TestAttemptInternalInfo_RecordException(t *testing.T) {
	var info AttemptInternalInfo

	info.RecordException(nil)
	assert.Empty(t, info.ExceptionHistory)

	info.RecordException(errors.New("dial tcp: no route"))
	info.RecordException(errors.New("second failure"))
	require.Len(t, info.ExceptionHistory, 2)
	assert.Contains(t, info.ExceptionHistory[0], "no route")
}

func TestDeliveryAttempt_IsResource(t *testing.T) {
	attempt := NewDeliveryAttempt(&Subscription{ID: "sub-1", SitePath: "/sites/main"}, nil, "")

	assert.Equal(t, []Tag{TagDeliveryAttempt}, attempt.ResourceTags())
	assert.Equal(t, "/sites/main", attempt.ResourceSitePath())

	// Attempts flow through tag matching like any host object
	assert.Equal(t, []Tag{TagDeliveryAttempt, TagObject}, TagsOf(attempt))
}
