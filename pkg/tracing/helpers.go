package tracing

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.opencensus.io/trace"
)

// StartServiceSpan starts a span named after a service method.
func StartServiceSpan(ctx context.Context, service, method string) (context.Context, *trace.Span) {
	return trace.StartSpan(ctx, service+"."+method)
}

func errStatus(err error) trace.Status {
	return trace.Status{
		Code:    trace.StatusCodeUnknown,
		Message: err.Error(),
	}
}

// EndSpan ends a span, recording err as its status when non-nil.
func EndSpan(span *trace.Span, err error) {
	if err != nil {
		span.SetStatus(errStatus(err))
	}
	span.End()
}

// AddAttribute attaches an attribute to the span on ctx, if any. Values
// outside the types OpenCensus models are stringified.
func AddAttribute(ctx context.Context, key string, value interface{}) {
	span := trace.FromContext(ctx)
	if span == nil {
		return
	}
	span.AddAttributes(attribute(key, value))
}

func attribute(key string, value interface{}) trace.Attribute {
	switch v := value.(type) {
	case string:
		return trace.StringAttribute(key, v)
	case int:
		return trace.Int64Attribute(key, int64(v))
	case int64:
		return trace.Int64Attribute(key, v)
	case bool:
		return trace.BoolAttribute(key, v)
	default:
		return trace.StringAttribute(key, fmt.Sprintf("%v", v))
	}
}

// MarkSpanError marks the span on ctx as failed with the given error.
// Nil errors and span-less contexts are no-ops.
func MarkSpanError(ctx context.Context, err error) {
	if err == nil {
		return
	}
	if span := trace.FromContext(ctx); span != nil {
		span.SetStatus(errStatus(err))
	}
}

// WrapHTTPClient returns a copy of client whose transport records a span
// per outgoing request. A nil client gets a 30 second timeout.
func WrapHTTPClient(client *http.Client) *http.Client {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}

	transport := GetHTTPOptions()
	transport.Base = client.Transport

	return &http.Client{
		Transport:     &transport,
		Timeout:       client.Timeout,
		Jar:           client.Jar,
		CheckRedirect: client.CheckRedirect,
	}
}
