package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewKindRegistry_SeedsBuiltins(t *testing.T) {
	kinds := NewKindRegistry()

	for _, k := range []EventKind{
		KindObjectEvent, KindObjectCreated, KindObjectAdded,
		KindObjectModified, KindObjectRemoved,
		KindAttemptResolved, KindAttemptSucceeded, KindAttemptFailed,
		KindSubscriptionRegistered, KindSubscriptionUnregistered,
		KindPreconditionLimitReached,
	} {
		assert.True(t, kinds.Known(k), "expected %s to be known", k)
	}
	assert.False(t, kinds.Known("order.shipped"))
}

func TestKindRegistry_Register(t *testing.T) {
	kinds := NewKindRegistry()

	require.NoError(t, kinds.Register("order.shipped", KindObjectModified))
	assert.True(t, kinds.Known("order.shipped"))
	assert.True(t, kinds.IsOrExtends("order.shipped", KindObjectEvent))

	// Same parent again is a no-op
	assert.NoError(t, kinds.Register("order.shipped", KindObjectModified))

	// A different parent is a conflict
	err := kinds.Register("order.shipped", KindObjectCreated)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already registered")
}

func TestKindRegistry_Register_Invalid(t *testing.T) {
	kinds := NewKindRegistry()

	assert.Error(t, kinds.Register("", KindObjectEvent))

	err := kinds.Register("order.shipped", "never.registered")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown parent")
}

func TestKindRegistry_IsOrExtends(t *testing.T) {
	kinds := NewKindRegistry()

	assert.True(t, kinds.IsOrExtends(KindObjectCreated, KindObjectCreated))
	assert.True(t, kinds.IsOrExtends(KindObjectCreated, KindObjectEvent))
	assert.True(t, kinds.IsOrExtends(KindAttemptSucceeded, KindAttemptResolved))
	assert.True(t, kinds.IsOrExtends(KindAttemptSucceeded, KindObjectEvent))

	assert.False(t, kinds.IsOrExtends(KindObjectEvent, KindObjectCreated),
		"ancestry runs one way")
	assert.False(t, kinds.IsOrExtends(KindObjectCreated, KindObjectModified))
}

func TestKindRegistry_Ancestry(t *testing.T) {
	kinds := NewKindRegistry()

	assert.Equal(t,
		[]EventKind{KindAttemptSucceeded, KindAttemptResolved, KindObjectEvent},
		kinds.Ancestry(KindAttemptSucceeded))

	// An unregistered kind yields only itself
	assert.Equal(t, []EventKind{"mystery"}, kinds.Ancestry("mystery"))
}

func TestTagsOf(t *testing.T) {
	// Plain values provide only the general tag
	assert.Equal(t, []Tag{TagObject}, TagsOf("anything"))
	assert.Equal(t, []Tag{TagObject}, TagsOf(nil))

	// Resources provide their tags, most specific first, object implied last
	r := &taggedResource{tags: []Tag{Tag("order"), Tag("purchasable")}}
	assert.Equal(t, []Tag{Tag("order"), Tag("purchasable"), TagObject}, TagsOf(r))

	// A resource listing the general tag explicitly is not duplicated
	r = &taggedResource{tags: []Tag{Tag("order"), TagObject}}
	assert.Equal(t, []Tag{Tag("order"), TagObject}, TagsOf(r))
}

func TestSiteOf(t *testing.T) {
	assert.Equal(t, "", SiteOf("anything"))
	assert.Equal(t, "/sites/main", SiteOf(&taggedResource{site: "/sites/main"}))
}
