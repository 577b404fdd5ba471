package tracing

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"go.opencensus.io/plugin/ochttp"
	"go.opencensus.io/trace"
)

func TestStartServiceSpan(t *testing.T) {
	ctx, span := StartServiceSpan(context.Background(), "EventService", "FireObjectEvent")
	defer span.End()

	if span == nil {
		t.Fatal("Expected a span to be started")
	}
	if trace.FromContext(ctx) != span {
		t.Error("Expected the span to be attached to the returned context")
	}
}

func TestEndSpan(t *testing.T) {
	_, span := StartServiceSpan(context.Background(), "EventService", "FireObjectEvent")

	// Must not panic, with or without an error.
	EndSpan(span, errors.New("boom"))

	_, span = StartServiceSpan(context.Background(), "EventService", "FireObjectEvent")
	EndSpan(span, nil)
}

func TestAddAttribute_WithoutSpan(t *testing.T) {
	// Must be a no-op when no span is on the context.
	AddAttribute(context.Background(), "key", "value")
}

func TestAddAttribute_WithSpan(t *testing.T) {
	ctx, span := StartServiceSpan(context.Background(), "EventService", "FireObjectEvent")
	defer span.End()

	AddAttribute(ctx, "string", "value")
	AddAttribute(ctx, "int", 42)
	AddAttribute(ctx, "int64", int64(42))
	AddAttribute(ctx, "bool", true)
	AddAttribute(ctx, "other", 4.2)
}

func TestMarkSpanError(t *testing.T) {
	// Nil errors and span-less contexts are both no-ops.
	MarkSpanError(context.Background(), nil)
	MarkSpanError(context.Background(), errors.New("boom"))

	ctx, span := StartServiceSpan(context.Background(), "EventService", "FireObjectEvent")
	defer span.End()
	MarkSpanError(ctx, errors.New("boom"))
}

func TestWrapHTTPClient(t *testing.T) {
	wrapped := WrapHTTPClient(nil)
	if wrapped.Timeout != 30*time.Second {
		t.Errorf("Expected default timeout of 30s, got %v", wrapped.Timeout)
	}
	if _, ok := wrapped.Transport.(*ochttp.Transport); !ok {
		t.Fatalf("Expected an ochttp transport, got %T", wrapped.Transport)
	}

	base := &http.Client{Timeout: 5 * time.Second}
	wrapped = WrapHTTPClient(base)
	if wrapped.Timeout != 5*time.Second {
		t.Errorf("Expected the client timeout preserved, got %v", wrapped.Timeout)
	}
	transport, ok := wrapped.Transport.(*ochttp.Transport)
	if !ok {
		t.Fatalf("Expected an ochttp transport, got %T", wrapped.Transport)
	}
	if transport.Base != nil {
		t.Error("Expected the base transport to stay nil when the client had none")
	}
}
