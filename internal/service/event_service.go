package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hookline/hookline/internal/domain"
	"github.com/hookline/hookline/pkg/logger"
	"github.com/hookline/hookline/pkg/tracing"
)

// FireEventRequest describes a hand-fired object event.
type FireEventRequest struct {
	SitePath string           `json:"site_path"`
	Kind     domain.EventKind `json:"kind"`
	Tags     []domain.Tag     `json:"tags"`
	Payload  json.RawMessage  `json:"payload"`
	Note     string           `json:"note"`
}

// firedResource carries a hand-fired payload through tag and site
// resolution. It presents the raw JSON as its own webhook payload.
type firedResource struct {
	site    string
	tags    []domain.Tag
	payload json.RawMessage
}

func (r *firedResource) ResourceSitePath() string    { return r.site }
func (r *firedResource) ResourceTags() []domain.Tag  { return r.tags }
func (r *firedResource) WebhookPayload() interface{} { return r.payload }

// EventService fires object events by hand, for smoke tests and for
// operators verifying a new destination. Fired events take the same path
// as application events: a unit of work, the bus, the transactional
// outbox, so delivery happens only if the unit commits.
type EventService struct {
	bus    domain.EventBus
	kinds  *domain.KindRegistry
	uows   UnitOfWorkRunner
	logger logger.Logger
}

// NewEventService creates an event service.
func NewEventService(bus domain.EventBus, kinds *domain.KindRegistry, uows UnitOfWorkRunner, log logger.Logger) *EventService {
	return &EventService{
		bus:    bus,
		kinds:  kinds,
		uows:   uows,
		logger: log,
	}
}

// FireObjectEvent publishes one object event inside a fresh unit of work
// and reports how many subscriptions the outbox picked up. An empty kind
// fires the generic object event; empty tags match subscriptions on the
// generic object tag.
func (s *EventService) FireObjectEvent(ctx context.Context, req *FireEventRequest) (int, error) {
	ctx, span := tracing.StartServiceSpan(ctx, "EventService", "FireObjectEvent")
	defer tracing.EndSpan(span, nil)
	tracing.AddAttribute(ctx, "site_path", req.SitePath)
	tracing.AddAttribute(ctx, "kind", string(req.Kind))

	kind := req.Kind
	if kind == "" {
		kind = domain.KindObjectEvent
	}
	if !s.kinds.Known(kind) {
		return 0, &domain.ValidationError{Field: "kind", Message: fmt.Sprintf("unknown event kind %q", kind)}
	}
	if len(req.Payload) > 0 && !json.Valid(req.Payload) {
		return 0, &domain.ValidationError{Field: "payload", Message: "payload must be valid JSON"}
	}
	payload := req.Payload
	if len(payload) == 0 {
		payload = json.RawMessage(`{}`)
	}

	resource := &firedResource{site: req.SitePath, tags: req.Tags, payload: payload}
	event := domain.NewObjectEvent(kind, resource)

	matched := 0
	err := s.uows.RunInUnitOfWork(ctx, req.SitePath, func(runCtx context.Context, uow domain.UnitOfWork) error {
		if req.Note != "" {
			uow.SetNote(req.Note)
		}
		if err := s.bus.Publish(runCtx, event); err != nil {
			return err
		}
		matched = 0
		if res, ok := uow.Resource(outboxResourceKey); ok {
			if work, ok := res.(*outboxWork); ok {
				matched = len(work.deliveries)
			}
		}
		return nil
	})
	if err != nil {
		tracing.MarkSpanError(ctx, err)
		return 0, fmt.Errorf("failed to fire %s event: %w", kind, err)
	}

	s.logger.WithFields(map[string]interface{}{
		"site_path": req.SitePath,
		"kind":      string(kind),
		"matched":   matched,
	}).Info("fired object event")
	return matched, nil
}
