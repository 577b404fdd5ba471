package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	svix "github.com/standard-webhooks/standard-webhooks/libraries/go"

	"github.com/hookline/hookline/internal/domain"
)

// JSONExternalizer renders payloads as JSON, which is the only wire
// format shipped with the system.
type JSONExternalizer struct{}

func (JSONExternalizer) Externalize(ctx context.Context, payload interface{}, opts domain.ExternalizeOptions) ([]byte, error) {
	if opts.Format != "" && opts.Format != "json" {
		return nil, fmt.Errorf("unsupported externalization format: %s", opts.Format)
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to externalize payload: %w", err)
	}
	return data, nil
}

// externalizerName is the variant payload adapters are asked for first,
// so hosts can shape webhook bodies differently from their other
// representations.
const externalizerName = "webhook-delivery"

// DefaultDialect is the stock dialect: resolve the payload through the
// adapter registry, externalize it as JSON and POST it.
type DefaultDialect struct {
	adapters     *domain.PayloadAdapterRegistry
	externalizer domain.Externalizer
	userAgent    string
}

// NewDefaultDialect creates the stock dialect. The user agent is sent on
// every outgoing request.
func NewDefaultDialect(adapters *domain.PayloadAdapterRegistry, externalizer domain.Externalizer, userAgent string) *DefaultDialect {
	if userAgent == "" {
		userAgent = "Hookline"
	}
	return &DefaultDialect{
		adapters:     adapters,
		externalizer: externalizer,
		userAgent:    userAgent,
	}
}

var _ domain.Dialect = (*DefaultDialect)(nil)

// ExternalizeData produces the request body for data in the context of
// event.
func (d *DefaultDialect) ExternalizeData(ctx context.Context, data interface{}, event domain.Event) ([]byte, error) {
	payload := d.adapters.Resolve(data, event, externalizerName)
	return d.externalizer.Externalize(ctx, payload, domain.ExternalizeOptions{
		Format: "json",
		Name:   externalizerName,
	})
}

// PrepareRequest builds the outgoing POST for one shipment pair.
func (d *DefaultDialect) PrepareRequest(ctx context.Context, pair *domain.ShipmentPair) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, pair.To, bytes.NewReader(pair.Payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build request for %s: %w", pair.To, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", d.userAgent)
	return req, nil
}

// SigningDialect wraps another dialect and adds standard-webhooks
// signature headers, so consumers can verify both origin and integrity.
type SigningDialect struct {
	inner  domain.Dialect
	signer *svix.Webhook
}

// NewSigningDialect wraps inner with a signer keyed by secret. The
// secret uses the standard-webhooks encoding (base64, optionally with a
// whsec_ prefix).
func NewSigningDialect(inner domain.Dialect, secret string) (*SigningDialect, error) {
	signer, err := svix.NewWebhook(secret)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize webhook signer: %w", err)
	}
	return &SigningDialect{inner: inner, signer: signer}, nil
}

var _ domain.Dialect = (*SigningDialect)(nil)

func (d *SigningDialect) ExternalizeData(ctx context.Context, data interface{}, event domain.Event) ([]byte, error) {
	return d.inner.ExternalizeData(ctx, data, event)
}

func (d *SigningDialect) PrepareRequest(ctx context.Context, pair *domain.ShipmentPair) (*http.Request, error) {
	req, err := d.inner.PrepareRequest(ctx, pair)
	if err != nil {
		return nil, err
	}

	timestamp := time.Now().UTC()
	signature, err := d.signer.Sign(pair.AttemptID, timestamp, pair.Payload)
	if err != nil {
		return nil, fmt.Errorf("failed to sign webhook payload: %w", err)
	}
	req.Header.Set("webhook-id", pair.AttemptID)
	req.Header.Set("webhook-timestamp", strconv.FormatInt(timestamp.Unix(), 10))
	req.Header.Set("webhook-signature", signature)
	return req, nil
}

// StandardDialectRegistry is the in-process dialect table. The default
// dialect lives under the empty id.
type StandardDialectRegistry struct {
	mu       sync.RWMutex
	dialects map[string]domain.Dialect
}

// NewDialectRegistry creates a registry with def as the default dialect.
func NewDialectRegistry(def domain.Dialect) *StandardDialectRegistry {
	return &StandardDialectRegistry{
		dialects: map[string]domain.Dialect{"": def},
	}
}

var _ domain.DialectRegistry = (*StandardDialectRegistry)(nil)

// Register adds or replaces the dialect stored under id.
func (r *StandardDialectRegistry) Register(id string, dialect domain.Dialect) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.dialects[id] = dialect
}

// Lookup returns the dialect registered under id.
func (r *StandardDialectRegistry) Lookup(id string) (domain.Dialect, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	dialect, ok := r.dialects[id]
	if !ok {
		return nil, &domain.ErrNotFound{Entity: "dialect", ID: id}
	}
	return dialect, nil
}
