// Package tracer provides a lightweight tracing abstraction for the registry
// module so the service can emit spans without depending on OpenTelemetry
// APIs throughout the codebase.
//
// Implementations:
//   - NoopTracer: for tests (zero overhead)
//   - OTelTracer: OpenTelemetry adapter for production
package tracer

import (
	"context"
	"time"
)

// Span represents an active trace span.
type Span interface {
	// End completes the span, recording any error that occurred.
	// End must be called exactly once, typically via defer.
	End(err error)

	// SetAttributes adds key-value pairs to the span.
	SetAttributes(attrs ...Attribute)

	// AddEvent records a timestamped event within the span.
	AddEvent(name string, attrs ...Attribute)
}

// Tracer creates spans for distributed tracing.
// Implementations must be safe for concurrent use.
type Tracer interface {
	Start(ctx context.Context, name string, attrs ...Attribute) (context.Context, Span)
}

// Attribute represents a key-value pair attached to spans.
type Attribute struct {
	Key   string
	Value any
}

// String creates a string attribute.
func String(key, value string) Attribute {
	return Attribute{Key: key, Value: value}
}

// Bool creates a boolean attribute.
func Bool(key string, value bool) Attribute {
	return Attribute{Key: key, Value: value}
}

// Int64 creates an int64 attribute.
func Int64(key string, value int64) Attribute {
	return Attribute{Key: key, Value: value}
}

// Duration creates a duration attribute in milliseconds.
func Duration(key string, value time.Duration) Attribute {
	return Attribute{Key: key, Value: value.Milliseconds()}
}

// Span names used by the registry module.
const (
	SpanIssue         = "registry.issue"
	SpanRevoke        = "registry.revoke"
	SpanVerify        = "registry.verify"
	SpanWhitelist     = "registry.whitelist"
	SpanTransferAdmin = "registry.transfer_admin"
)

// Attribute keys used by the registry module.
const (
	AttrEduID    = "edu_id"
	AttrIssuer   = "issuer"
	AttrStudent  = "student"
	AttrCacheHit = "cache.hit"
	AttrExists   = "exists"
)

// Event names used by the registry module.
const (
	EventAuditEmitted = "audit.emitted"
)
