package instrumentation

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds the pre-configured metric instruments for the gateway
type Metrics struct {
	// HTTP layer
	HTTPRequestsTotal   metric.Int64Counter
	HTTPRequestDuration metric.Float64Histogram

	// Auth operations
	TokensIssued       metric.Int64Counter
	TokenVerifications metric.Int64Counter
	GuardDuration      metric.Float64Histogram

	// Security
	RateLimitExceeded metric.Int64Counter

	// Storage
	StorageTokensCount metric.Int64ObservableGauge

	// Upstream data APIs
	UpstreamCallsTotal   metric.Int64Counter
	UpstreamCallDuration metric.Float64Histogram
	UpstreamCallErrors   metric.Int64Counter
}

// newMetrics creates all metric instruments
func newMetrics(inst *Instrumentation) (*Metrics, error) {
	m := &Metrics{}
	var err error

	httpMeter := inst.Meter("http")
	authMeter := inst.Meter("auth")
	securityMeter := inst.Meter("security")
	storageMeter := inst.Meter("storage")
	upstreamMeter := inst.Meter("upstream")

	m.HTTPRequestsTotal, err = httpMeter.Int64Counter(
		"http_requests_total",
		metric.WithDescription("Total HTTP requests by endpoint, method and status"),
	)
	if err != nil {
		return nil, err
	}

	m.HTTPRequestDuration, err = httpMeter.Float64Histogram(
		"http_request_duration_ms",
		metric.WithDescription("HTTP request duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	m.TokensIssued, err = authMeter.Int64Counter(
		"auth_tokens_issued_total",
		metric.WithDescription("Access tokens issued by the local issuer"),
	)
	if err != nil {
		return nil, err
	}

	m.TokenVerifications, err = authMeter.Int64Counter(
		"auth_token_verifications_total",
		metric.WithDescription("Token verifications by path (local, jwt, userinfo) and outcome"),
	)
	if err != nil {
		return nil, err
	}

	m.GuardDuration, err = authMeter.Float64Histogram(
		"auth_guard_duration_ms",
		metric.WithDescription("Request guard verification latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	m.RateLimitExceeded, err = securityMeter.Int64Counter(
		"security_rate_limit_exceeded_total",
		metric.WithDescription("Requests rejected by the per-IP rate limiter"),
	)
	if err != nil {
		return nil, err
	}

	m.StorageTokensCount, err = storageMeter.Int64ObservableGauge(
		"storage_tokens_count",
		metric.WithDescription("Live tokens held by the token store"),
	)
	if err != nil {
		return nil, err
	}

	m.UpstreamCallsTotal, err = upstreamMeter.Int64Counter(
		"upstream_api_calls_total",
		metric.WithDescription("Calls to upstream data APIs by service and operation"),
	)
	if err != nil {
		return nil, err
	}

	m.UpstreamCallDuration, err = upstreamMeter.Float64Histogram(
		"upstream_api_duration_ms",
		metric.WithDescription("Upstream data API call duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	m.UpstreamCallErrors, err = upstreamMeter.Int64Counter(
		"upstream_api_errors_total",
		metric.WithDescription("Failed upstream data API calls by service and error type"),
	)
	if err != nil {
		return nil, err
	}

	return m, nil
}

// RecordHTTPRequest records an HTTP request (nil-safe)
func (m *Metrics) RecordHTTPRequest(ctx context.Context, method, endpoint string, statusCode int, durationMs float64) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String(AttrHTTPMethod, method),
		attribute.String(AttrHTTPEndpoint, endpoint),
		attribute.Int(AttrHTTPStatusCode, statusCode),
	)
	m.HTTPRequestsTotal.Add(ctx, 1, attrs)
	m.HTTPRequestDuration.Record(ctx, durationMs, attrs)
}

// RecordTokenIssued records a local token issuance (nil-safe)
func (m *Metrics) RecordTokenIssued(ctx context.Context, outcome string) {
	if m == nil {
		return
	}
	m.TokensIssued.Add(ctx, 1, metric.WithAttributes(
		attribute.String(AttrOutcome, outcome),
	))
}

// RecordTokenVerification records a verification attempt by path and outcome (nil-safe).
// path is one of "local", "jwt", "userinfo"; outcome is "valid" or "invalid".
func (m *Metrics) RecordTokenVerification(ctx context.Context, path, outcome string) {
	if m == nil {
		return
	}
	m.TokenVerifications.Add(ctx, 1, metric.WithAttributes(
		attribute.String(AttrVerificationPath, path),
		attribute.String(AttrOutcome, outcome),
	))
}

// RecordGuardLatency records the end-to-end guard decision latency (nil-safe)
func (m *Metrics) RecordGuardLatency(ctx context.Context, outcome string, durationMs float64) {
	if m == nil {
		return
	}
	m.GuardDuration.Record(ctx, durationMs, metric.WithAttributes(
		attribute.String(AttrOutcome, outcome),
	))
}

// RecordRateLimitExceeded records a rate limit rejection (nil-safe)
func (m *Metrics) RecordRateLimitExceeded(ctx context.Context, limiterType string) {
	if m == nil {
		return
	}
	m.RateLimitExceeded.Add(ctx, 1, metric.WithAttributes(
		attribute.String(AttrRateLimiterType, limiterType),
	))
}

// RecordUpstreamCall records an upstream data API call (nil-safe)
func (m *Metrics) RecordUpstreamCall(ctx context.Context, service, operation string, statusCode int, durationMs float64, err error) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String(AttrUpstreamService, service),
		attribute.String(AttrUpstreamOperation, operation),
		attribute.Int(AttrHTTPStatusCode, statusCode),
	)
	m.UpstreamCallsTotal.Add(ctx, 1, attrs)
	m.UpstreamCallDuration.Record(ctx, durationMs, attrs)

	if err != nil || statusCode >= 400 {
		errType := "http_error"
		if err != nil {
			errType = "transport_error"
		}
		m.UpstreamCallErrors.Add(ctx, 1, metric.WithAttributes(
			attribute.String(AttrUpstreamService, service),
			attribute.String(AttrUpstreamErrorType, errType),
		))
	}
}
