package instrumentation

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Span attribute keys.
//
// SECURITY: Never attach actual credential values (access tokens, client
// secrets, API service keys) to spans or metrics. Only metadata such as
// grant types, verification paths and outcomes may be recorded.
const (
	// Auth attributes
	AttrGrantType        = "auth.grant_type"
	AttrClientID         = "auth.client_id" // client identifier, not a secret
	AttrVerificationPath = "auth.verification_path"
	AttrOutcome          = "auth.outcome"
	AttrTokenPresent     = "auth.token_present" //nolint:gosec // boolean flag, never the token itself
	AttrExpiresIn        = "auth.expires_in"

	// Security attributes
	AttrRateLimiterType = "security.rate_limiter.type"
	AttrClientIP        = "security.client_ip"

	// Upstream data API attributes
	AttrUpstreamService   = "upstream.service"
	AttrUpstreamOperation = "upstream.operation"
	AttrUpstreamErrorType = "upstream.error_type"

	// HTTP attributes
	AttrHTTPEndpoint   = "http.endpoint"
	AttrHTTPMethod     = "http.method"
	AttrHTTPStatusCode = "http.status_code"
)

// RecordError records an error on a span with error status (nil-safe)
func RecordError(span trace.Span, err error) {
	if span != nil && err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
}

// SetSpanSuccess marks a span as successful (nil-safe)
func SetSpanSuccess(span trace.Span) {
	if span != nil {
		span.SetStatus(codes.Ok, "")
	}
}

// SetSpanError sets an error status on a span (nil-safe)
func SetSpanError(span trace.Span, message string) {
	if span != nil {
		span.SetStatus(codes.Error, message)
	}
}

// SetSpanAttributes sets attributes on a span (nil-safe)
func SetSpanAttributes(span trace.Span, attrs ...attribute.KeyValue) {
	if span != nil {
		span.SetAttributes(attrs...)
	}
}

// AddVerificationAttributes adds token verification attributes to a span (nil-safe)
func AddVerificationAttributes(span trace.Span, path, outcome string) {
	SetSpanAttributes(span,
		attribute.String(AttrVerificationPath, path),
		attribute.String(AttrOutcome, outcome),
	)
}

// AddUpstreamAttributes adds upstream API call attributes to a span (nil-safe)
func AddUpstreamAttributes(span trace.Span, service, operation string) {
	SetSpanAttributes(span,
		attribute.String(AttrUpstreamService, service),
		attribute.String(AttrUpstreamOperation, operation),
	)
}

// AddHTTPAttributes adds HTTP request attributes to a span (nil-safe)
func AddHTTPAttributes(span trace.Span, method, endpoint string, statusCode int) {
	SetSpanAttributes(span,
		attribute.String(AttrHTTPMethod, method),
		attribute.String(AttrHTTPEndpoint, endpoint),
		attribute.Int(AttrHTTPStatusCode, statusCode),
	)
}
