package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubscription_ApplyDefaults(t *testing.T) {
	sub := &Subscription{To: "https://example.com/hook"}
	sub.ApplyDefaults()

	assert.Equal(t, TagObject, sub.For)
	assert.Equal(t, KindObjectEvent, sub.When)
	assert.Equal(t, DefaultAttemptLimit, sub.AttemptLimit)
	assert.Equal(t, DefaultPreconditionFailureLimit, sub.PreconditionFailureLimit)
	// No owner, no permission requirement
	assert.Empty(t, sub.PermissionID)
}

func TestSubscription_ApplyDefaults_OwnerImpliesPermission(t *testing.T) {
	sub := &Subscription{To: "https://example.com/hook", OwnerID: "alice"}
	sub.ApplyDefaults()
	assert.Equal(t, DefaultPermissionID, sub.PermissionID)

	// An explicit permission is left alone
	sub = &Subscription{To: "https://example.com/hook", OwnerID: "alice", PermissionID: "manage"}
	sub.ApplyDefaults()
	assert.Equal(t, "manage", sub.PermissionID)
}

func TestSubscription_ApplyDefaults_KeepsExplicitValues(t *testing.T) {
	sub := &Subscription{
		To:                       "https://example.com/hook",
		For:                      Tag("order"),
		When:                     KindObjectModified,
		AttemptLimit:             5,
		PreconditionFailureLimit: 3,
	}
	sub.ApplyDefaults()

	assert.Equal(t, Tag("order"), sub.For)
	assert.Equal(t, KindObjectModified, sub.When)
	assert.Equal(t, 5, sub.AttemptLimit)
	assert.Equal(t, 3, sub.PreconditionFailureLimit)
}

func TestSubscription_Validate(t *testing.T) {
	kinds := NewKindRegistry()

	valid := func() *Subscription {
		sub := &Subscription{To: "https://example.com/hook"}
		sub.ApplyDefaults()
		return sub
	}

	t.Run("valid", func(t *testing.T) {
		assert.NoError(t, valid().Validate(kinds))
	})

	cases := []struct {
		name   string
		mutate func(*Subscription)
		field  string
	}{
		{"missing destination", func(s *Subscription) { s.To = "  " }, "to"},
		{"not a url", func(s *Subscription) { s.To = "not a url" }, "to"},
		{"http scheme", func(s *Subscription) { s.To = "http://example.com/hook" }, "to"},
		{"missing host", func(s *Subscription) { s.To = "https:///hook" }, "to"},
		{"empty tag", func(s *Subscription) { s.For = "" }, "for"},
		{"unknown kind", func(s *Subscription) { s.When = "custom.kind" }, "when"},
		{"padded owner", func(s *Subscription) { s.OwnerID = " alice " }, "owner_id"},
		{"zero attempt limit", func(s *Subscription) { s.AttemptLimit = 0 }, "attempt_limit"},
		{"zero precondition limit", func(s *Subscription) { s.PreconditionFailureLimit = -1 }, "precondition_failure_limit"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			sub := valid()
			tc.mutate(sub)

			err := sub.Validate(kinds)
			var validation *ValidationError
			require.ErrorAs(t, err, &validation)
			assert.Equal(t, tc.field, validation.Field)
		})
	}
}

func TestSubscription_Validate_RegisteredCustomKind(t *testing.T) {
	kinds := NewKindRegistry()
	require.NoError(t, kinds.Register("order.shipped", KindObjectModified))

	sub := &Subscription{To: "https://example.com/hook", When: "order.shipped"}
	sub.ApplyDefaults()
	assert.NoError(t, sub.Validate(kinds))
}

type taggedResource struct {
	tags []Tag
	site string
}

func (r *taggedResource) ResourceTags() []Tag      { return r.tags }
func (r *taggedResource) ResourceSitePath() string { return r.site }

func TestSubscription_Matches(t *testing.T) {
	kinds := NewKindRegistry()
	order := &taggedResource{tags: []Tag{Tag("order")}, site: "/sites/main"}

	sub := &Subscription{For: Tag("order"), When: KindObjectEvent}
	assert.True(t, sub.Matches(order, KindObjectCreated, kinds),
		"root kind subscription matches descendant events")
	assert.True(t, sub.Matches(order, KindObjectEvent, kinds))

	sub = &Subscription{For: Tag("order"), When: KindObjectModified}
	assert.True(t, sub.Matches(order, KindObjectModified, kinds))
	assert.False(t, sub.Matches(order, KindObjectCreated, kinds),
		"sibling kinds do not match")
	assert.False(t, sub.Matches(order, KindObjectEvent, kinds),
		"ancestor events do not match a specific subscription")
}

func TestSubscription_Matches_Tags(t *testing.T) {
	kinds := NewKindRegistry()
	order := &taggedResource{tags: []Tag{Tag("order")}}

	// The general object tag matches every resource
	general := &Subscription{For: TagObject, When: KindObjectEvent}
	assert.True(t, general.Matches(order, KindObjectCreated, kinds))
	assert.True(t, general.Matches("just a string", KindObjectCreated, kinds))

	// A specific tag only matches resources that provide it
	specific := &Subscription{For: Tag("invoice"), When: KindObjectEvent}
	assert.False(t, specific.Matches(order, KindObjectCreated, kinds))
	assert.False(t, specific.Matches("just a string", KindObjectCreated, kinds))
}
