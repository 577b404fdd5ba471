package domain

import (
	"context"
	"net/http"
	"sync"
)

//go:generate mockgen -destination mocks/mock_dialect.go -package mocks github.com/hookline/hookline/internal/domain Dialect,DialectRegistry,Externalizer

// Dialect customizes how payload bytes are derived from a domain object and
// how the outgoing HTTP request is shaped for one class of webhook
// consumers. Implementations may inject authentication or signature headers
// in PrepareRequest.
type Dialect interface {
	// ExternalizeData produces the request body for data in the context
	// of event. The returned bytes are exactly what will be transmitted.
	ExternalizeData(ctx context.Context, data interface{}, event Event) ([]byte, error)

	// PrepareRequest builds the outgoing HTTP request for one shipment
	// pair.
	PrepareRequest(ctx context.Context, pair *ShipmentPair) (*http.Request, error)
}

// DialectRegistry resolves dialects by id. The default dialect is registered
// under the empty id.
type DialectRegistry interface {
	Register(id string, dialect Dialect)
	Lookup(id string) (Dialect, error)
}

// PayloadConvertible is implemented by objects that can present themselves
// as a webhook payload directly.
type PayloadConvertible interface {
	WebhookPayload() interface{}
}

// PayloadAdapter derives the payload for data in the context of event.
type PayloadAdapter func(data interface{}, event Event) interface{}

// ExternalizeOptions selects how a payload is rendered to bytes.
type ExternalizeOptions struct {
	Format string // wire format, e.g. "json"
	Name   string // externalizer variant, e.g. "webhook-delivery"
	Policy string // host policy hint, e.g. a field filter name
}

// Externalizer renders a payload into bytes for the wire.
type Externalizer interface {
	Externalize(ctx context.Context, payload interface{}, opts ExternalizeOptions) ([]byte, error)
}

type pairAdapterKey struct {
	tag  Tag
	kind EventKind
	name string
}

type soloAdapterKey struct {
	tag  Tag
	name string
}

// PayloadAdapterRegistry resolves the payload for (data, event) pairs.
// Resolution tries, in decreasing priority: a named adapter on the pair, an
// unnamed adapter on the pair, the data's own PayloadConvertible claim, a
// named adapter on the data alone, an unnamed adapter on the data alone.
// When nothing matches, the data itself is the payload.
type PayloadAdapterRegistry struct {
	kinds *KindRegistry
	mu    sync.RWMutex
	pair  map[pairAdapterKey]PayloadAdapter
	solo  map[soloAdapterKey]PayloadAdapter
}

// NewPayloadAdapterRegistry creates an empty adapter registry.
func NewPayloadAdapterRegistry(kinds *KindRegistry) *PayloadAdapterRegistry {
	return &PayloadAdapterRegistry{
		kinds: kinds,
		pair:  make(map[pairAdapterKey]PayloadAdapter),
		solo:  make(map[soloAdapterKey]PayloadAdapter),
	}
}

// RegisterPairAdapter registers fn for objects tagged tag seen under events
// of kind (or descendants). The empty name registers the unnamed adapter.
func (r *PayloadAdapterRegistry) RegisterPairAdapter(tag Tag, kind EventKind, name string, fn PayloadAdapter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pair[pairAdapterKey{tag: tag, kind: kind, name: name}] = fn
}

// RegisterAdapter registers fn for objects tagged tag regardless of event.
func (r *PayloadAdapterRegistry) RegisterAdapter(tag Tag, name string, fn PayloadAdapter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.solo[soloAdapterKey{tag: tag, name: name}] = fn
}

// Resolve returns the payload for data under event, following the lookup
// order documented on the type.
func (r *PayloadAdapterRegistry) Resolve(data interface{}, event Event, name string) interface{} {
	tags := TagsOf(data)
	chain := r.kinds.Ancestry(event.EventKind())

	if name != "" {
		if fn := r.lookupPair(tags, chain, name); fn != nil {
			return fn(data, event)
		}
	}
	if fn := r.lookupPair(tags, chain, ""); fn != nil {
		return fn(data, event)
	}
	if pc, ok := data.(PayloadConvertible); ok {
		return pc.WebhookPayload()
	}
	if name != "" {
		if fn := r.lookupSolo(tags, name); fn != nil {
			return fn(data, event)
		}
	}
	if fn := r.lookupSolo(tags, ""); fn != nil {
		return fn(data, event)
	}
	return data
}

func (r *PayloadAdapterRegistry) lookupPair(tags []Tag, chain []EventKind, name string) PayloadAdapter {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, tag := range tags {
		for _, kind := range chain {
			if fn, ok := r.pair[pairAdapterKey{tag: tag, kind: kind, name: name}]; ok {
				return fn
			}
		}
	}
	return nil
}

func (r *PayloadAdapterRegistry) lookupSolo(tags []Tag, name string) PayloadAdapter {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, tag := range tags {
		if fn, ok := r.solo[soloAdapterKey{tag: tag, name: name}]; ok {
			return fn
		}
	}
	return nil
}
