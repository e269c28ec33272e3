package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/kdata-labs/realestate-mcp/instrumentation"
	"github.com/kdata-labs/realestate-mcp/security"
	"github.com/kdata-labs/realestate-mcp/storage"
)

// subjectContextKey is the context key for the authenticated subject
type subjectContextKey struct{}

// ContextWithSubject returns a context carrying the authenticated subject
func ContextWithSubject(ctx context.Context, subject string) context.Context {
	return context.WithValue(ctx, subjectContextKey{}, subject)
}

// SubjectFromContext retrieves the authenticated subject, if any
func SubjectFromContext(ctx context.Context) (string, bool) {
	subject, ok := ctx.Value(subjectContextKey{}).(string)
	return subject, ok
}

// Internal denial classes. They shape logs and metrics only; the HTTP
// boundary always answers with the same generic 401 so a caller cannot
// distinguish a missing header from a failed delegated verification.
const (
	denyMissingToken = "missing_token"
	denyInvalidToken = "invalid_token"
)

// Guard is the single enforcement point in front of the protocol endpoint.
//
// Verification order is deliberate: the local store lookup runs first
// because it is a map read with no network cost; only tokens unknown
// locally are handed to the delegated verifier. Requests denied here never
// reach the upstream data clients.
type Guard struct {
	enabled   bool
	store     storage.TokenStore
	delegated *DelegatedVerifier
	baseURL   string
	logger    *slog.Logger
	metrics   *instrumentation.Metrics
	tracer    trace.Tracer
}

// NewGuard creates a request guard. store may be nil when local issuance is
// not configured; delegated may be nil when delegation is not configured.
func NewGuard(cfg *Config, store storage.TokenStore, delegated *DelegatedVerifier) *Guard {
	return &Guard{
		enabled:   cfg.Enabled,
		store:     store,
		delegated: delegated,
		baseURL:   cfg.BaseURL,
		logger:    cfg.logger(),
	}
}

// SetMetrics attaches metric recording to the guard
func (g *Guard) SetMetrics(m *instrumentation.Metrics) {
	g.metrics = m
}

// SetTracer attaches a tracer to the guard
func (g *Guard) SetTracer(t trace.Tracer) {
	g.tracer = t
}

// Middleware wraps the protected protocol endpoint. With auth disabled every
// request is admitted without inspection; that is the documented contract of
// the disabled mode, not an accidental fallthrough.
func (g *Guard) Middleware(next http.Handler) http.Handler {
	if !g.enabled {
		return next
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ctx := r.Context()

		var span trace.Span
		if g.tracer != nil {
			ctx, span = g.tracer.Start(ctx, "auth.guard")
			defer span.End()
		}

		token, err := extractBearerToken(r)
		if err != nil {
			g.deny(ctx, w, span, denyMissingToken, start, err)
			return
		}

		subject, admitted := g.verify(ctx, token)
		if !admitted {
			g.deny(ctx, w, span, denyInvalidToken, start, nil)
			return
		}

		instrumentation.SetSpanSuccess(span)
		g.metrics.RecordGuardLatency(ctx, "admitted", durationMs(start))

		ctx = ContextWithSubject(ctx, subject)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// verify resolves the token through the local store first, then through the
// delegated verifier when one is configured.
func (g *Guard) verify(ctx context.Context, token string) (string, bool) {
	if g.store != nil {
		subject, valid, err := g.store.Lookup(ctx, token)
		if err != nil {
			g.logger.Error("token store lookup failed", "error", err)
			return "", false
		}
		if valid {
			g.metrics.RecordTokenVerification(ctx, "local", "valid")
			return subject, true
		}
	}

	if g.delegated != nil {
		subject, err := g.delegated.Verify(ctx, token)
		if err == nil {
			return subject, true
		}
		return "", false
	}

	g.metrics.RecordTokenVerification(ctx, "local", "invalid")
	return "", false
}

// deny writes the generic unauthorized response. class feeds logs and
// metrics only and is never exposed to the caller.
func (g *Guard) deny(ctx context.Context, w http.ResponseWriter, span trace.Span, class string, start time.Time, cause error) {
	g.logger.Warn("request denied", "class", class, "error", cause)
	instrumentation.SetSpanError(span, class)
	g.metrics.RecordGuardLatency(ctx, class, durationMs(start))

	security.SetSecurityHeaders(w, g.baseURL)
	w.Header().Set("WWW-Authenticate", g.formatWWWAuthenticate())
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error":             ErrorCodeInvalidToken,
		"error_description": "authentication required",
	})
}

// formatWWWAuthenticate builds the RFC 6750 challenge pointing callers at
// the protected resource metadata document.
func (g *Guard) formatWWWAuthenticate() string {
	return fmt.Sprintf(`Bearer resource_metadata=%q, error=%q`,
		g.baseURL+MetadataPathProtectedResource, ErrorCodeInvalidToken)
}

// extractBearerToken pulls the bearer token out of the Authorization header.
// The scheme comparison is case-insensitive per RFC 6750.
func extractBearerToken(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", fmt.Errorf("missing Authorization header")
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", fmt.Errorf("malformed Authorization header")
	}

	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", fmt.Errorf("empty bearer token")
	}
	return token, nil
}

func durationMs(start time.Time) float64 {
	return float64(time.Since(start).Microseconds()) / 1000.0
}
